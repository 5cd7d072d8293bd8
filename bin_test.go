package bhtt

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBin(t *testing.T) {
	assert := assert.New(t)

	b, err := NewBin(42.0, 84)
	assert.NoError(err)
	assert.Equal(42.0, b.Value)
	assert.Equal(uint64(84), b.Count)
}

func TestNewBinInvalid(t *testing.T) {
	assert := assert.New(t)

	_, err := NewBin(math.NaN(), 1)
	assert.Error(err)
	_, err = NewBin(math.Inf(1), 1)
	assert.Error(err)
	_, err = NewBin(math.Inf(-1), 1)
	assert.Error(err)
	_, err = NewBin(42.0, 0)
	assert.Error(err)
}

func TestBinMerge(t *testing.T) {
	assert := assert.New(t)

	left := Bin{Value: 42.0, Count: 84}
	right := Bin{Value: 84.0, Count: 42}

	merged := left.Merge(right)
	assert.Equal(Bin{Value: 56.0, Count: 126}, merged)

	// merging is symmetric
	assert.Equal(merged, right.Merge(left))
}
