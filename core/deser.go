package core

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/ugorji/go/codec"

	"maf/slicer"
)

// NOTE: Tests are in deser_test.go

const (
	formatPlain byte = iota
	formatZstd
)

var (
	msgpackHandle = &codec.MsgpackHandle{WriteExt: true}
	zstdEncoder   *zstd.Encoder
	zstdDecoder   *zstd.Decoder
)

func init() {
	var err error
	if zstdEncoder, err = zstd.NewWriter(nil); err != nil {
		panic(err)
	}
	if zstdDecoder, err = zstd.NewReader(nil); err != nil {
		panic(err)
	}
}

type summaryRecord struct {
	Name   string  `codec:"name"`
	Value  float64 `codec:"value"`
	Masked bool    `codec:"masked"`
}

type pointsRecord struct {
	Kind  string    `codec:"kind"`
	IDs   []int     `codec:"ids"`
	RA    []float64 `codec:"ra"`
	Dec   []float64 `codec:"dec"`
	Bins  []float64 `codec:"bins"`
	Nside int       `codec:"nside"`
}

// resultRecord is the persisted form of a Result. Composite raw values are
// not persisted; their reductions are.
type resultRecord struct {
	ID            string          `codec:"id"`
	MetricName    string          `codec:"metric"`
	ReductionName string          `codec:"reduction"`
	SlicerName    string          `codec:"slicer"`
	Metadata      string          `codec:"metadata"`
	Values        []float64       `codec:"values"`
	Mask          []bool          `codec:"mask"`
	BadValue      float64         `codec:"badval"`
	Points        pointsRecord    `codec:"points"`
	Summaries     []summaryRecord `codec:"summaries"`
}

type dbRecord struct {
	RunIDs []int64 `codec:"runs"`
	NextID int64   `codec:"next"`
}

type runRecord struct {
	ID      int64    `codec:"id"`
	Name    string   `codec:"name"`
	Comment string   `codec:"comment"`
	Created int64    `codec:"created"`
	Results []string `codec:"results"`
}

func encode(v interface{}, compress bool) ([]byte, error) {
	var buf []byte
	if err := codec.NewEncoderBytes(&buf, msgpackHandle).Encode(v); err != nil {
		return nil, err
	}
	if !compress {
		return append([]byte{formatPlain}, buf...), nil
	}
	return zstdEncoder.EncodeAll(buf, []byte{formatZstd}), nil
}

func decode(buf []byte, v interface{}) error {
	if len(buf) == 0 {
		return errors.New("empty record")
	}
	payload := buf[1:]
	switch buf[0] {
	case formatPlain:
	case formatZstd:
		var err error
		if payload, err = zstdDecoder.DecodeAll(payload, nil); err != nil {
			return fmt.Errorf("failed to decompress record: %w", err)
		}
	default:
		return fmt.Errorf("unknown record format %d", buf[0])
	}
	return codec.NewDecoderBytes(payload, msgpackHandle).Decode(v)
}

func ResultToBytes(result *Result, compress bool) ([]byte, error) {
	record := resultRecord{
		ID:            result.ID,
		MetricName:    result.MetricName,
		ReductionName: result.ReductionName,
		SlicerName:    result.SlicerName,
		Metadata:      result.Metadata,
		Values:        result.Values,
		Mask:          result.Mask,
		BadValue:      result.BadValue,
		Points: pointsRecord{
			Kind:  result.Points.Kind,
			IDs:   result.Points.IDs,
			RA:    result.Points.RA,
			Dec:   result.Points.Dec,
			Bins:  result.Points.Bins,
			Nside: result.Points.Nside,
		},
		Summaries: make([]summaryRecord, len(result.Summaries)),
	}
	for i, summary := range result.Summaries {
		record.Summaries[i] = summaryRecord(summary)
	}
	return encode(&record, compress)
}

func BytesToResult(buf []byte) (*Result, error) {
	var record resultRecord
	if err := decode(buf, &record); err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	result := &Result{
		ID:            record.ID,
		MetricName:    record.MetricName,
		ReductionName: record.ReductionName,
		SlicerName:    record.SlicerName,
		Metadata:      record.Metadata,
		Values:        record.Values,
		Mask:          record.Mask,
		BadValue:      record.BadValue,
		Points: slicer.SlicePoints{
			Kind:  record.Points.Kind,
			IDs:   record.Points.IDs,
			RA:    record.Points.RA,
			Dec:   record.Points.Dec,
			Bins:  record.Points.Bins,
			Nside: record.Points.Nside,
		},
		Summaries: make([]Summary, len(record.Summaries)),
	}
	for i, summary := range record.Summaries {
		result.Summaries[i] = Summary(summary)
	}
	if result.Mask == nil {
		result.Mask = make([]bool, 0)
	}
	if result.Values == nil {
		result.Values = make([]float64, 0)
	}
	if len(result.Values) != len(result.Mask) {
		return nil, fmt.Errorf("failed to decode result %q: %d values but %d mask entries",
			result.ID, len(result.Values), len(result.Mask))
	}
	return result, nil
}
