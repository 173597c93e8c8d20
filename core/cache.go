package core

import (
	"encoding/binary"
	"slices"
	"strconv"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/minio/highwayhash"
	"golang.org/x/sync/singleflight"

	"maf/metric"
)

var hashKey = []byte("maf-slice-index-subset-hash-key!")

type cacheEntry struct {
	indices []int
	values  []metric.Value
}

// ComputationCache memoizes the metric values of a slice point by the content
// of its index subset, so slice points sharing a subset cost one evaluation.
// Keys are a 64-bit hash of the subset; every hit is checked against the
// stored subset so collisions never return another subset's values.
type ComputationCache struct {
	cache   *ristretto.Cache[uint64, *cacheEntry]
	group   singleflight.Group
	metrics *Metrics
}

func NewComputationCache(size int, metrics *Metrics) (*ComputationCache, error) {
	if size < 1 {
		size = 1
	}
	cache, err := ristretto.NewCache(&ristretto.Config[uint64, *cacheEntry]{
		NumCounters:        int64(size) * 10,
		MaxCost:            int64(size),
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &ComputationCache{cache: cache, metrics: metrics}, nil
}

func HashIndices(indices []int) uint64 {
	buf := make([]byte, 8*len(indices))
	for i, idx := range indices {
		binary.LittleEndian.PutUint64(buf[8*i:], uint64(idx))
	}
	return highwayhash.Sum64(buf, hashKey)
}

// GetOrCompute returns the cached values for indices, or computes, stores and
// returns them. Concurrent calls for one subset compute it once.
func (c *ComputationCache) GetOrCompute(indices []int, compute func() []metric.Value) []metric.Value {
	key := HashIndices(indices)
	if entry, found := c.cache.Get(key); found && slices.Equal(entry.indices, indices) {
		c.metrics.cacheRequests.WithLabelValues("hit").Inc()
		return entry.values
	}

	shared, _, _ := c.group.Do(strconv.FormatUint(key, 16), func() (interface{}, error) {
		if entry, found := c.cache.Get(key); found && slices.Equal(entry.indices, indices) {
			return entry, nil
		}
		entry := &cacheEntry{indices: indices, values: compute()}
		c.cache.Set(key, entry, 1)
		c.cache.Wait()
		return entry, nil
	})
	c.metrics.cacheRequests.WithLabelValues("miss").Inc()
	entry := shared.(*cacheEntry)
	if !slices.Equal(entry.indices, indices) {
		// hash collision with a subset computed concurrently
		return compute()
	}
	return entry.values
}

func (c *ComputationCache) Close() {
	c.cache.Close()
}
