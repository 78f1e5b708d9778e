package mf

import (
	"encoding/binary"

	"github.com/cloudwego/gopkg/unsafex"
)

// Field offsets within one headerRecordSize-byte QueueHeader record, in the
// same "named byte-range constants" style as the teacher's segment.go.
const (
	hdrName        = 0
	hdrNameEnd     = hdrName + MaxName
	hdrQid         = hdrNameEnd
	hdrQidEnd      = hdrQid + 4
	hdrBodySize    = hdrQidEnd
	hdrBodySizeEnd = hdrBodySize + 4
	hdrMsgCount    = hdrBodySizeEnd
	hdrMsgCountEnd = hdrMsgCount + 4
	hdrBodyOff     = hdrMsgCountEnd
	hdrBodyOffEnd  = hdrBodyOff + 4
	hdrHeadOff     = hdrBodyOffEnd
	hdrHeadOffEnd  = hdrHeadOff + 4
	hdrTailOff     = hdrHeadOffEnd
	hdrTailOffEnd  = hdrTailOff + 4
	hdrRefCount    = hdrTailOffEnd
	hdrRefCountEnd = hdrRefCount + 4
	// bytes [hdrRefCountEnd, headerRecordSize) are reserved padding.
)

// queueHeaderView is a typed, zero-copy view of one QueueHeader record
// inside the segment's header table (spec §3). No field is ever cached in
// process memory: every getter reads straight out of the backing slice, and
// every setter writes straight into it, so all attached processes observe
// the same state without a private heap.
type queueHeaderView struct {
	b []byte // exactly headerRecordSize bytes
}

func (h queueHeaderView) name() string {
	raw := h.b[hdrName:hdrNameEnd]
	n := 0
	for n < len(raw) && raw[n] != 0 {
		n++
	}
	return unsafex.BinaryToString(raw[:n])
}

func (h queueHeaderView) setName(name string) {
	buf := h.b[hdrName:hdrNameEnd]
	for i := range buf {
		buf[i] = 0
	}
	copy(buf, unsafex.StringToBinary(name))
}

func (h queueHeaderView) qid() uint32     { return binary.LittleEndian.Uint32(h.b[hdrQid:hdrQidEnd]) }
func (h queueHeaderView) setQid(v uint32) { binary.LittleEndian.PutUint32(h.b[hdrQid:hdrQidEnd], v) }

func (h queueHeaderView) bodySize() uint32     { return binary.LittleEndian.Uint32(h.b[hdrBodySize:hdrBodySizeEnd]) }
func (h queueHeaderView) setBodySize(v uint32) { binary.LittleEndian.PutUint32(h.b[hdrBodySize:hdrBodySizeEnd], v) }

func (h queueHeaderView) msgCount() uint32     { return binary.LittleEndian.Uint32(h.b[hdrMsgCount:hdrMsgCountEnd]) }
func (h queueHeaderView) setMsgCount(v uint32) { binary.LittleEndian.PutUint32(h.b[hdrMsgCount:hdrMsgCountEnd], v) }

func (h queueHeaderView) bodyOffset() uint32     { return binary.LittleEndian.Uint32(h.b[hdrBodyOff:hdrBodyOffEnd]) }
func (h queueHeaderView) setBodyOffset(v uint32) { binary.LittleEndian.PutUint32(h.b[hdrBodyOff:hdrBodyOffEnd], v) }

func (h queueHeaderView) headOffset() uint32     { return binary.LittleEndian.Uint32(h.b[hdrHeadOff:hdrHeadOffEnd]) }
func (h queueHeaderView) setHeadOffset(v uint32) { binary.LittleEndian.PutUint32(h.b[hdrHeadOff:hdrHeadOffEnd], v) }

func (h queueHeaderView) tailOffset() uint32     { return binary.LittleEndian.Uint32(h.b[hdrTailOff:hdrTailOffEnd]) }
func (h queueHeaderView) setTailOffset(v uint32) { binary.LittleEndian.PutUint32(h.b[hdrTailOff:hdrTailOffEnd], v) }

func (h queueHeaderView) refCount() uint32     { return binary.LittleEndian.Uint32(h.b[hdrRefCount:hdrRefCountEnd]) }
func (h queueHeaderView) setRefCount(v uint32) { binary.LittleEndian.PutUint32(h.b[hdrRefCount:hdrRefCountEnd], v) }

// free reports whether this slot is unoccupied (I4: qid == 0 in free slots).
func (h queueHeaderView) free() bool { return h.qid() == 0 }

// clear zeroes the entire record, returning the slot to Free.
func (h queueHeaderView) clear() {
	for i := range h.b {
		h.b[i] = 0
	}
}
