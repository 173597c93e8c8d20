package spatial

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// Index answers "which visits lie within an angular radius of this sky
// position". Visits are embedded on the unit sphere so that angular distance
// maps monotonically onto chord length and a Euclidean k-d tree can be used.
type Index struct {
	tree   *kdtree.Tree
	size   int
	radius float64
	chord2 float64
}

// NewIndex builds the tree. ra and dec are in radians; radius is in degrees.
func NewIndex(ra, dec []float64, radius float64) *Index {
	points := make(visitPoints, 0, len(ra))
	for i := range ra {
		if math.IsNaN(ra[i]) || math.IsNaN(dec[i]) {
			continue
		}
		points = append(points, newVisitPoint(ra[i], dec[i], i))
	}
	index := &Index{
		size:   len(points),
		radius: radius,
		chord2: ChordSquared(radius * math.Pi / 180),
	}
	if len(points) > 0 {
		index.tree = kdtree.New(points, false)
	}
	return index
}

func (index *Index) Len() int {
	return index.size
}

func (index *Index) Radius() float64 {
	return index.radius
}

// Query returns the ascending row indices of all visits within the index
// radius of (ra, dec), in radians. An empty index yields an empty result.
func (index *Index) Query(ra, dec float64) []int {
	if index.tree == nil {
		return make([]int, 0)
	}
	keeper := newRadiusKeeper(index.chord2)
	index.tree.NearestSet(keeper, newVisitPoint(ra, dec, -1))
	return keeper.indices()
}

// ChordSquared converts an angular separation in radians to the squared
// straight-line distance between two points on the unit sphere.
func ChordSquared(angle float64) float64 {
	if angle >= math.Pi {
		return 4
	}
	chord := 2 * math.Sin(angle/2)
	return chord * chord
}

// AngularSeparation in radians between two (ra, dec) positions in radians.
func AngularSeparation(ra1, dec1, ra2, dec2 float64) float64 {
	sdDec := math.Sin((dec2 - dec1) / 2)
	sdRa := math.Sin((ra2 - ra1) / 2)
	a := sdDec*sdDec + math.Cos(dec1)*math.Cos(dec2)*sdRa*sdRa
	return 2 * math.Asin(math.Min(1, math.Sqrt(a)))
}

type visitPoint struct {
	xyz [3]float64
	row int
}

func newVisitPoint(ra, dec float64, row int) visitPoint {
	cosDec := math.Cos(dec)
	return visitPoint{
		xyz: [3]float64{cosDec * math.Cos(ra), cosDec * math.Sin(ra), math.Sin(dec)},
		row: row,
	}
}

func (p visitPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(visitPoint)
	return p.xyz[d] - q.xyz[d]
}

func (p visitPoint) Dims() int {
	return 3
}

func (p visitPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(visitPoint)
	dx := p.xyz[0] - q.xyz[0]
	dy := p.xyz[1] - q.xyz[1]
	dz := p.xyz[2] - q.xyz[2]
	return dx*dx + dy*dy + dz*dz
}

type visitPoints []visitPoint

func (p visitPoints) Index(i int) kdtree.Comparable {
	return p[i]
}

func (p visitPoints) Len() int {
	return len(p)
}

func (p visitPoints) Pivot(d kdtree.Dim) int {
	return plane{visitPoints: p, dim: d}.Pivot()
}

func (p visitPoints) Slice(start, end int) kdtree.Interface {
	return p[start:end]
}

// plane sorts visits along one dimension for median partitioning.
type plane struct {
	visitPoints
	dim kdtree.Dim
}

func (p plane) Less(i, j int) bool {
	return p.visitPoints[i].xyz[p.dim] < p.visitPoints[j].xyz[p.dim]
}

func (p plane) Pivot() int {
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.visitPoints = p.visitPoints[start:end]
	return p
}

func (p plane) Swap(i, j int) {
	p.visitPoints[i], p.visitPoints[j] = p.visitPoints[j], p.visitPoints[i]
}

// radiusKeeper retains every point within a fixed squared distance. Its Max
// never shrinks, so the tree search only prunes branches beyond the radius.
type radiusKeeper struct {
	limit kdtree.ComparableDist
	found []kdtree.ComparableDist
}

func newRadiusKeeper(chord2 float64) *radiusKeeper {
	return &radiusKeeper{
		limit: kdtree.ComparableDist{Comparable: visitPoint{row: -1}, Dist: chord2},
		found: make([]kdtree.ComparableDist, 0),
	}
}

func (k *radiusKeeper) Keep(c kdtree.ComparableDist) {
	if c.Dist <= k.limit.Dist {
		k.found = append(k.found, c)
	}
}

func (k *radiusKeeper) Max() kdtree.ComparableDist {
	return k.limit
}

func (k *radiusKeeper) Len() int {
	return len(k.found)
}

func (k *radiusKeeper) Less(i, j int) bool {
	return k.found[i].Dist < k.found[j].Dist
}

func (k *radiusKeeper) Swap(i, j int) {
	k.found[i], k.found[j] = k.found[j], k.found[i]
}

func (k *radiusKeeper) Push(x interface{}) {
	k.found = append(k.found, x.(kdtree.ComparableDist))
}

func (k *radiusKeeper) Pop() interface{} {
	n := len(k.found)
	item := k.found[n-1]
	k.found = k.found[:n-1]
	return item
}

func (k *radiusKeeper) indices() []int {
	rows := make([]int, 0, len(k.found))
	for _, c := range k.found {
		if c.Comparable == nil {
			continue
		}
		rows = append(rows, c.Comparable.(visitPoint).row)
	}
	sort.Ints(rows)
	return rows
}
