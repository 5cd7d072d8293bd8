package bhtt

import (
	"fmt"
	"math"
)

// Bin is a histogram bin stored as a (value, count) pair: a cluster of
// Count merged numbers whose count-weighted mean is Value.
type Bin struct {
	Value float64
	Count uint64
}

// NewBin returns a Bin with the given value and count. The value must be
// finite (a NaN or an infinity would corrupt the bin ordering) and the
// count must be greater than zero.
func NewBin(value float64, count uint64) (Bin, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Bin{}, fmt.Errorf("bin value must be finite, got %v", value)
	}
	if count == 0 {
		return Bin{}, fmt.Errorf("bin count must be greater than zero")
	}
	return Bin{Value: value, Count: count}, nil
}

// Merge returns a Bin that approximates the two bins combined: the counts
// add up and the value is the count-weighted mean of the two.
func (b Bin) Merge(o Bin) Bin {
	count := b.Count + o.Count
	value := (b.Value*float64(b.Count) + o.Value*float64(o.Count)) / float64(count)
	return Bin{Value: value, Count: count}
}
