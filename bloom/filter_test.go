package bloom_test

import (
	"fmt"
	"testing"

	"github.com/lotscan/lotscan/bloom"
	"github.com/stretchr/testify/assert"
)

func TestFilter_TestAndAdd(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(1000, 0.01)

	assert.False(t, f.TestAndAdd("1HGCM82633A004352"), "first sighting is new")
	assert.True(t, f.TestAndAdd("1HGCM82633A004352"), "second sighting is a duplicate")
	assert.False(t, f.TestAndAdd("2020|Ford|Escape|22750"), "different key is new")
}

func TestFilter_EstimatedCount(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(1000, 0.01)
	assert.Equal(t, uint(0), f.EstimatedCount())

	for i := range 3 {
		f.TestAndAdd(fmt.Sprintf("key-%d", i))
	}

	count := f.EstimatedCount()
	assert.True(t, count >= 2 && count <= 4, "expected count near 3, got %d", count)
}
