package bhtt

import (
	"fmt"
	"math"
	"sort"
)

/*
Histogram is a fixed-size ordered list of bins that is a compact approximate
representation of a numerical data distribution, as described by Ben-Haim and
Tom-Tov in "A Streaming Parallel Decision Tree Algorithm" (JMLR 11, 2010).
Typical operations on a constructed histogram are approximations of quantiles
and cumulative counts.

Memory is bounded by the configured size regardless of how many values are
inserted. A Histogram is not safe for concurrent use: callers sharing one
between goroutines must serialize mutations themselves.
*/
type Histogram struct {
	size     int
	bins     []Bin
	total    uint64
	minValue float64
	maxValue float64
}

// New returns an empty Histogram holding at most size bins.
//
// The larger the size, the more accurate the approximations one can get from
// the histogram, but updates will be slower and more memory is retained.
func New(size int) (*Histogram, error) {
	if size < 1 {
		return nil, fmt.Errorf("histogram size must be greater than 0, got %d", size)
	}
	return &Histogram{
		size: size,
		// one extra slot holds the bin temporarily added during an
		// update, so inserts never reallocate
		bins: make([]Bin, 0, size+1),
	}, nil
}

// FromSlice returns a Histogram of the given size built by inserting all the
// values. The first non-finite value aborts construction with an error.
func FromSlice(size int, values []float64) (*Histogram, error) {
	h, err := New(size)
	if err != nil {
		return nil, err
	}
	for _, v := range values {
		if err := h.Insert(v); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// Size returns the maximum number of bins the histogram may hold.
func (h *Histogram) Size() int {
	return h.size
}

// Count returns the total number of values inserted into the histogram.
func (h *Histogram) Count() uint64 {
	return h.total
}

// Bins returns a copy of the histogram bins, in ascending order of value.
func (h *Histogram) Bins() []Bin {
	bins := make([]Bin, len(h.bins))
	copy(bins, h.bins)
	return bins
}

// Min returns the exact (not approximated) minimum of the inserted values.
// The second return value is false when the histogram is empty.
func (h *Histogram) Min() (float64, bool) {
	return h.minValue, h.total > 0
}

// Max returns the exact (not approximated) maximum of the inserted values.
// The second return value is false when the histogram is empty.
func (h *Histogram) Max() (float64, bool) {
	return h.maxValue, h.total > 0
}

// Insert updates the histogram with a new value. Only finite values are
// accepted: a NaN or an infinity would corrupt the bin ordering, so those
// are rejected with an error and leave the histogram unchanged.
func (h *Histogram) Insert(value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("inserted value must be finite, got %v", value)
	}
	h.insert(Bin{Value: value, Count: 1})
	return nil
}

// InsertBin updates the histogram with a pre-aggregated bin, as if Count
// copies of Value had been inserted one by one. The bin value must be finite
// and the count greater than zero.
func (h *Histogram) InsertBin(bin Bin) error {
	if math.IsNaN(bin.Value) || math.IsInf(bin.Value, 0) {
		return fmt.Errorf("bin value must be finite, got %v", bin.Value)
	}
	if bin.Count == 0 {
		return fmt.Errorf("bin count must be greater than zero")
	}
	h.insert(bin)
	return nil
}

func (h *Histogram) insert(bin Bin) {
	if h.total == 0 {
		h.minValue, h.maxValue = bin.Value, bin.Value
	} else {
		if bin.Value < h.minValue {
			h.minValue = bin.Value
		}
		if bin.Value > h.maxValue {
			h.maxValue = bin.Value
		}
	}

	i := sort.Search(len(h.bins), func(i int) bool { return h.bins[i].Value >= bin.Value })
	if i < len(h.bins) && h.bins[i].Value == bin.Value {
		// an exact match folds into the existing bin, keeping bin
		// values strictly ascending
		h.bins[i].Count += bin.Count
	} else {
		h.bins = append(h.bins, Bin{})
		copy(h.bins[i+1:], h.bins[i:])
		h.bins[i] = bin
	}
	h.total += bin.Count
	h.shrink()
}

// Merge combines another histogram into this one, in place. The result
// approximates a histogram built from both input streams; the receiver's
// size wins when the two sizes differ. Merging an empty histogram is a
// no-op, and min, max and count combine exactly.
func (h *Histogram) Merge(other *Histogram) {
	if other == nil || other.total == 0 {
		return
	}
	if h.total == 0 {
		h.minValue, h.maxValue = other.minValue, other.maxValue
	} else {
		if other.minValue < h.minValue {
			h.minValue = other.minValue
		}
		if other.maxValue > h.maxValue {
			h.maxValue = other.maxValue
		}
	}
	h.total += other.total

	// both bin lists are already sorted, so a single linear pass merges
	// them, folding bins that share the exact same value
	merged := make([]Bin, 0, len(h.bins)+len(other.bins))
	var i, j int
	for i < len(h.bins) && j < len(other.bins) {
		switch {
		case h.bins[i].Value < other.bins[j].Value:
			merged = append(merged, h.bins[i])
			i++
		case h.bins[i].Value > other.bins[j].Value:
			merged = append(merged, other.bins[j])
			j++
		default:
			merged = append(merged, Bin{
				Value: h.bins[i].Value,
				Count: h.bins[i].Count + other.bins[j].Count,
			})
			i++
			j++
		}
	}
	merged = append(merged, h.bins[i:]...)
	merged = append(merged, other.bins[j:]...)

	h.bins = merged
	h.shrink()
}

// Quantile returns an approximation of the q'th quantile of the inserted
// values. q is clamped to the range [0.0; 1.0]; Quantile(0) and Quantile(1)
// return the exact minimum and maximum. The second return value is false
// when the histogram is empty or q is NaN.
func (h *Histogram) Quantile(q float64) (float64, bool) {
	if h.total == 0 || math.IsNaN(q) {
		return 0, false
	}
	if q <= 0 {
		return h.minValue, true
	}
	if q >= 1 {
		return h.maxValue, true
	}

	// Algorithm 4 (Uniform) from the paper: find the pair of bins that
	// enclose the target cumulative count, then solve the quadratic
	// equation relating the count surplus to the position between them.
	target := float64(h.total) * q
	i, below := h.cumulativeBelow(target)
	left, right := h.borderingBins(i)

	d := target - below
	a := float64(right.Count) - float64(left.Count)
	if a == 0 {
		return left.Value + (right.Value-left.Value)*d/float64(left.Count), true
	}
	b := 2 * float64(left.Count)
	c := -2 * d
	z := (-b + math.Sqrt(b*b-4*a*c)) / (2 * a)
	return left.Value + (right.Value-left.Value)*z, true
}

// CountLessThanOrEqual returns an estimate of the number of inserted values
// that are less than or equal to the given value. The estimate is 0 below
// the exact minimum (and for a NaN argument) and the total count at or above
// the exact maximum, and is non-decreasing in the argument.
func (h *Histogram) CountLessThanOrEqual(value float64) uint64 {
	if math.IsNaN(value) || h.total == 0 || value < h.minValue {
		return 0
	}
	if value >= h.maxValue {
		return h.total
	}

	// Algorithm 3 (Sum) from the paper: locate the pair of bins that would
	// border a bin holding this value, then add up the counts of the bins
	// fully to the left, half of the left neighbour's count and the
	// interpolated count between the left neighbour and the value. The
	// search must be a strict upper bound: a value equal to the lowest bin
	// must land in the interval to its right, not in the zero-width
	// interval between the minimum sentinel and that bin.
	pos := sort.Search(len(h.bins), func(i int) bool { return h.bins[i].Value > value })

	left := pos
	if left > 0 {
		left--
	}
	var belowLeft uint64
	for _, bin := range h.bins[:left] {
		belowLeft += bin.Count
	}

	leftBin, rightBin := h.borderingBins(pos)
	leftCount := float64(leftBin.Count)

	betweenLeftAndValue := 0.0
	if width := rightBin.Value - leftBin.Value; width > 0 {
		proximity := (value - leftBin.Value) / width
		atValue := leftCount + (float64(rightBin.Count)-leftCount)*proximity
		betweenLeftAndValue = (leftCount + atValue) / 2 * proximity
	}

	return uint64(math.Round(float64(belowLeft) + leftCount/2 + betweenLeftAndValue))
}

// shrink merges the closest pair of adjacent bins until the histogram is
// back down to its fixed size.
func (h *Histogram) shrink() {
	for len(h.bins) > h.size {
		i := h.closestPair()
		h.bins[i] = h.bins[i].Merge(h.bins[i+1])
		h.bins = append(h.bins[:i+1], h.bins[i+2:]...)
	}
}

// closestPair returns the index of the left bin of the pair of adjacent bins
// whose values are closest. Ties on the distance prefer the pair with the
// smaller combined count, then the leftmost pair, so identical input
// sequences always produce identical histograms.
func (h *Histogram) closestPair() int {
	best := 0
	bestGap := h.bins[1].Value - h.bins[0].Value
	bestCount := h.bins[0].Count + h.bins[1].Count
	for i := 2; i < len(h.bins); i++ {
		gap := h.bins[i].Value - h.bins[i-1].Value
		count := h.bins[i-1].Count + h.bins[i].Count
		if gap < bestGap || (gap == bestGap && count < bestCount) {
			best, bestGap, bestCount = i-1, gap, count
		}
	}
	return best
}

// cumulativeBelow returns the index of the inter-bin interval holding the
// target cumulative count, together with the cumulative count accumulated
// before that interval. Each bin contributes half of its count at its own
// value, which makes the cumulative curve piecewise linear between adjacent
// bin values.
func (h *Histogram) cumulativeBelow(target float64) (int, float64) {
	var (
		cum  float64
		prev uint64
	)
	for i, bin := range h.bins {
		next := cum + float64(prev+bin.Count)/2
		if target <= next {
			return i, cum
		}
		cum = next
		prev = bin.Count
	}
	return len(h.bins), cum
}

// borderingBins returns the bins enclosing the i'th inter-bin interval.
// Before the first and after the last bin the distribution is capped with
// zero-count sentinel bins at the exact minimum and maximum.
func (h *Histogram) borderingBins(i int) (Bin, Bin) {
	switch {
	case i == 0:
		return Bin{Value: h.minValue}, h.bins[0]
	case i == len(h.bins):
		return h.bins[len(h.bins)-1], Bin{Value: h.maxValue}
	default:
		return h.bins[i-1], h.bins[i]
	}
}
