package mf

import (
	"golang.org/x/sys/unix"
)

const shmAccess = 0600

// segment is the mapped view of the facility's shared-memory region (spec
// §3 Segment, §4.1 shared-segment manager). It is the same kind of typed
// view over a raw mmap'd byte slice as the teacher's segment.go, widened
// from "one queue" to "header table + info block + arena".
type segment struct {
	shmID  int
	mem    []byte
	layout segmentLayout
}

func createSegment(cfg Config) (*segment, error) {
	layout := newSegmentLayout(cfg)
	key := segmentKey(cfg.ShmemName)

	id, err := unix.SysvShmGet(key, int(layout.totalSize), shmAccess|unix.IPC_CREAT|unix.IPC_EXCL)
	if err != nil {
		return nil, wrapErrShmGet(err, true)
	}
	mem, err := unix.SysvShmAttach(id, 0, 0)
	if err != nil {
		return nil, wrapErrShmAttach(err)
	}
	mem = mem[:layout.totalSize]
	for i := range mem {
		mem[i] = 0
	}

	seg := &segment{shmID: id, mem: mem, layout: layout}
	info := seg.info()
	info.setActiveQueueCount(0)
	info.setUsedBytes(0)
	info.setFreeBytes(layout.arenaSize)
	info.setAttachedProcessCount(0)
	return seg, nil
}

func openSegment(cfg Config) (*segment, error) {
	layout := newSegmentLayout(cfg)
	key := segmentKey(cfg.ShmemName)

	id, err := unix.SysvShmGet(key, int(layout.totalSize), shmAccess)
	if err != nil {
		return nil, wrapErrShmGet(err, false)
	}
	mem, err := unix.SysvShmAttach(id, 0, 0)
	if err != nil {
		return nil, wrapErrShmAttach(err)
	}
	mem = mem[:layout.totalSize]
	return &segment{shmID: id, mem: mem, layout: layout}, nil
}

func (s *segment) detach() error {
	if err := unix.SysvShmDetach(s.mem); err != nil {
		return wrapErrShmDetach(err)
	}
	return nil
}

func (s *segment) destroy() error {
	if _, err := unix.SysvShmCtl(s.shmID, unix.IPC_RMID, nil); err != nil {
		return wrapErrShmDestroy(err)
	}
	return nil
}

func (s *segment) info() infoView {
	return infoView{b: s.mem[s.layout.infoOffset : s.layout.infoOffset+InfoSize]}
}

func (s *segment) headerSlot(idx uint32) queueHeaderView {
	start := s.layout.headerTableOffset + idx*headerRecordSize
	return queueHeaderView{b: s.mem[start : start+headerRecordSize]}
}

func (s *segment) numSlots() uint32 {
	return (s.layout.infoOffset - s.layout.headerTableOffset) / headerRecordSize
}

func (s *segment) arena() []byte {
	return s.mem[s.layout.arenaOffset : s.layout.arenaOffset+s.layout.arenaSize]
}

// body returns the byte slice backing one live queue's body, addressed by
// its header's body_offset/body_size (no in-segment pointers: every
// cross-reference is a byte offset from the arena base, per DESIGN.md's
// "no in-segment pointers" note).
func (s *segment) body(h queueHeaderView) []byte {
	arena := s.arena()
	off, size := h.bodyOffset(), h.bodySize()
	return arena[off : off+size]
}
