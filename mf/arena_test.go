package mf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindExtent(t *testing.T) {
	t.Run("empty arena", func(t *testing.T) {
		off, ok := findExtent(nil, 1000, 100)
		assert.True(t, ok)
		assert.Equal(t, uint32(0), off)
	})

	t.Run("fits after last live extent", func(t *testing.T) {
		live := []extent{{start: 0, size: 100}, {start: 100, size: 200}}
		off, ok := findExtent(live, 1000, 100)
		assert.True(t, ok)
		assert.Equal(t, uint32(300), off)
	})

	t.Run("reuses gap left by a removed queue", func(t *testing.T) {
		// a(0,100) c(200,100), b(100,100) removed -> gap [100,200)
		live := []extent{{start: 0, size: 100}, {start: 200, size: 100}}
		off, ok := findExtent(live, 1000, 100)
		assert.True(t, ok)
		assert.Equal(t, uint32(100), off)
	})

	t.Run("does not split across multiple gaps", func(t *testing.T) {
		live := []extent{{start: 0, size: 100}, {start: 150, size: 100}}
		// gaps are [100,150)=50 and [250,1000)=750; a 60-byte request must
		// skip the too-small first gap even though the sum of gaps fits.
		off, ok := findExtent(live, 1000, 60)
		assert.True(t, ok)
		assert.Equal(t, uint32(250), off)
	})

	t.Run("fails when no single gap fits", func(t *testing.T) {
		live := []extent{{start: 0, size: 1000}}
		_, ok := findExtent(live, 1000, 1)
		assert.False(t, ok)
	})

	t.Run("sorts unordered input", func(t *testing.T) {
		live := []extent{{start: 500, size: 100}, {start: 0, size: 100}}
		off, ok := findExtent(live, 1000, 300)
		assert.True(t, ok)
		assert.Equal(t, uint32(100), off)
	})
}
