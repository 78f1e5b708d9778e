package mf

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testFacilitySeq int64

// testFacility spins up a fresh segment under a unique SHMEM_NAME (so
// concurrent test runs never collide on the same SysV keys), attaches to it,
// and registers cleanup that detaches and destroys it in order.
func testFacility(t *testing.T, shmemKiB, maxQueues, maxMsgs uint32) (*Facility, Config) {
	t.Helper()
	n := atomic.AddInt64(&testFacilitySeq, 1)
	cfg := Config{
		ShmemKiB:        shmemKiB,
		MaxQueues:       maxQueues,
		MaxMsgsPerQueue: maxMsgs,
		ShmemName:       fmt.Sprintf("facility_test_%d", n),
	}
	require.NoError(t, Init(cfg))
	f, err := Attach(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, f.Detach())
		assert.NoError(t, Destroy(cfg))
	})
	return f, cfg
}

func TestFacilityBasicLifecycle(t *testing.T) {
	f, _ := testFacility(t, 16, 4, 4)

	require.NoError(t, f.CreateQueue("mq1", 1))
	qid, err := f.Open("mq1")
	require.NoError(t, err)
	assert.Equal(t, uint32(1), qid)

	require.NoError(t, f.Send(qid, []byte("Hello")))
	require.NoError(t, f.Send(qid, []byte("World")))

	out := make([]byte, 5)
	n, err := f.Receive(qid, out)
	require.NoError(t, err)
	assert.Equal(t, "Hello", string(out[:n]))

	n, err = f.Receive(qid, out)
	require.NoError(t, err)
	assert.Equal(t, "World", string(out[:n]))

	require.NoError(t, f.Close(qid))
	require.NoError(t, f.RemoveQueue("mq1"))
	assert.NoError(t, CheckInvariants(f))
}

func TestFacilityFillAndDrain(t *testing.T) {
	f, cfg := testFacility(t, 16, 4, 4)

	require.NoError(t, f.CreateQueue("mq2", 1))
	qid, err := f.Open("mq2")
	require.NoError(t, err)

	h, _, found := findByQid(f.seg, qid)
	require.True(t, found)
	assert.Equal(t, uint32(0), h.msgCount())

	for i := uint32(0); i < cfg.MaxMsgsPerQueue; i++ {
		require.NoError(t, f.Send(qid, []byte{byte('a' + i)}))
	}
	h, _, _ = findByQid(f.seg, qid)
	assert.Equal(t, cfg.MaxMsgsPerQueue, h.msgCount())

	out := make([]byte, 1)
	for i := uint32(0); i < cfg.MaxMsgsPerQueue; i++ {
		n, err := f.Receive(qid, out)
		require.NoError(t, err)
		assert.Equal(t, []byte{byte('a' + i)}, out[:n])
	}
	h, _, _ = findByQid(f.seg, qid)
	assert.Equal(t, uint32(0), h.msgCount())
	assert.Equal(t, uint32(0), h.headOffset())
	assert.Equal(t, uint32(0), h.tailOffset())

	require.NoError(t, f.Close(qid))
	require.NoError(t, f.RemoveQueue("mq2"))
}

// TestFacilityWrapsAroundRingBuffer drives enough send/receive cycles
// through a small queue body that the ring buffer must wrap at least once,
// checking correctness rather than exact offsets (unit-level offset math is
// covered by TestReserve and TestNormalizeHead).
func TestFacilityWrapsAroundRingBuffer(t *testing.T) {
	f, _ := testFacility(t, 16, 4, 64)

	require.NoError(t, f.CreateQueue("mq3", 1)) // 1 KiB body
	qid, err := f.Open("mq3")
	require.NoError(t, err)

	// One message is kept in flight so msg_count never drops to 0 inside the
	// loop; otherwise head and tail would reset to 0 after every receive and
	// the ring would never wrap.
	out := make([]byte, 16)
	require.NoError(t, f.Send(qid, []byte("msg-0")))
	for round := 1; round < 500; round++ {
		payload := []byte(fmt.Sprintf("msg-%d", round))
		require.NoError(t, f.Send(qid, payload))
		n, err := f.Receive(qid, out)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("msg-%d", round-1), string(out[:n]))
	}
	n, err := f.Receive(qid, out)
	require.NoError(t, err)
	assert.Equal(t, "msg-499", string(out[:n]))

	h, _, _ := findByQid(f.seg, qid)
	assert.Equal(t, uint32(0), h.msgCount())
	require.NoError(t, f.Close(qid))
	require.NoError(t, f.RemoveQueue("mq3"))
	assert.NoError(t, CheckInvariants(f))
}

// TestFacilityFragmentationReusesGap exercises the first-fit allocator
// through the public API: remove a middle queue, then confirm a same-sized
// queue reuses its exact extent and that a further 4 KiB request fails with
// ErrOutOfSpace, since the only remaining gap (the arena's tail after c) is
// smaller than that.
func TestFacilityFragmentationReusesGap(t *testing.T) {
	f, _ := testFacility(t, 16, 8, 4)

	require.NoError(t, f.CreateQueue("a", 4))
	require.NoError(t, f.CreateQueue("b", 4))
	require.NoError(t, f.CreateQueue("c", 4))

	hb, _, found := findByName(f.seg, "b")
	require.True(t, found)
	bOffset := hb.bodyOffset()

	require.NoError(t, f.RemoveQueue("b"))

	require.NoError(t, f.CreateQueue("d", 4))
	hd, _, found := findByName(f.seg, "d")
	require.True(t, found)
	assert.Equal(t, bOffset, hd.bodyOffset(), "d should reuse b's freed extent exactly")

	err := f.CreateQueue("e", 4)
	assert.ErrorIs(t, err, ErrOutOfSpace)

	require.NoError(t, f.RemoveQueue("a"))
	require.NoError(t, f.RemoveQueue("c"))
	require.NoError(t, f.RemoveQueue("d"))
}

func TestFacilityErrors(t *testing.T) {
	f, _ := testFacility(t, 16, 2, 4)

	require.NoError(t, f.CreateQueue("only", 1))
	err := f.CreateQueue("only", 1)
	assert.ErrorIs(t, err, ErrNameInUse)

	_, err = f.Open("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	qid, err := f.Open("only")
	require.NoError(t, err)
	err = f.RemoveQueue("only")
	assert.ErrorIs(t, err, ErrBusy, "a queue with an open reference must refuse removal")

	require.NoError(t, f.Close(qid))
	require.NoError(t, f.RemoveQueue("only"))

	err = f.CreateQueue("too-big", 1<<20)
	assert.Error(t, err)
}

// TestFacilityConcurrentSendReceive exercises the blocking paths of Send and
// Receive across goroutines: a single-slot queue forces each send after the
// first to wait on not_full until the previous message is received.
func TestFacilityConcurrentSendReceive(t *testing.T) {
	f, _ := testFacility(t, 16, 2, 1)
	require.NoError(t, f.CreateQueue("pipe", 1))
	qid, err := f.Open("pipe")
	require.NoError(t, err)

	const n = 200
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			require.NoError(t, f.Send(qid, []byte(fmt.Sprintf("%d", i))))
		}
	}()

	received := make([]string, 0, n)
	go func() {
		defer wg.Done()
		out := make([]byte, 8)
		for i := 0; i < n; i++ {
			k, err := f.Receive(qid, out)
			require.NoError(t, err)
			received = append(received, string(out[:k]))
		}
	}()

	wg.Wait()
	require.Len(t, received, n)
	for i, got := range received {
		assert.Equal(t, fmt.Sprintf("%d", i), got)
	}

	require.NoError(t, f.Close(qid))
	require.NoError(t, f.RemoveQueue("pipe"))
}
