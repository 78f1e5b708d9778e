package mf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveKey(t *testing.T) {
	t.Run("deterministic across calls", func(t *testing.T) {
		assert.Equal(t, deriveKey("/mf_foo_q1_mx"), deriveKey("/mf_foo_q1_mx"))
	})

	t.Run("never returns IPC_PRIVATE", func(t *testing.T) {
		// No realistic name hashes to 0, but the guard must still hold.
		assert.NotEqual(t, 0, deriveKey(""))
	})

	t.Run("distinguishes role and qid", func(t *testing.T) {
		keys := map[int]bool{
			queueSemKey("seg", 1, roleMutex):    true,
			queueSemKey("seg", 1, roleNotFull):  true,
			queueSemKey("seg", 1, roleNotEmpty): true,
			queueSemKey("seg", 2, roleMutex):    true,
		}
		assert.Len(t, keys, 4)
	})
}

func TestSegmentKeys(t *testing.T) {
	assert.NotEqual(t, segmentKey("a"), segmentMutexKey("a"))
}
