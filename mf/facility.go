package mf

import (
	"fmt"
	"sort"
	"sync"
)

// queueSemTriple is the per-queue mutex/not_full/not_empty triple of spec
// §5, opened lazily and cached process-locally (the teacher's queue.go
// holds one *segment per *Queue; Facility holds a whole segment plus one
// cached triple per qid it has touched).
type queueSemTriple struct {
	mutex    semaphore
	notFull  semaphore
	notEmpty semaphore
}

// Facility is the process-scoped handle described by spec §3's
// ProcessHandle: created by Attach, destroyed by Detach, explicit rather
// than ambient so tests can run multiple facades in one process (per
// DESIGN.md's "Global state" note).
type Facility struct {
	cfg      Config
	seg      *segment
	segMutex semaphore

	mu        sync.Mutex // guards queueSems: process-local only, never shared
	queueSems map[uint32]*queueSemTriple
}

// Init creates the segment fresh (server-only). Fails with
// ErrAlreadyInitialized if the segment already exists and is populated.
func Init(cfg Config) error {
	seg, err := createSegment(cfg)
	if err != nil {
		return err
	}
	defer seg.detach()

	if _, err := createSemaphore(segmentMutexKey(cfg.ShmemName), 1); err != nil {
		_ = seg.destroy()
		return err
	}
	return nil
}

// Destroy unlinks every live queue's semaphores, then the segment itself
// and the segment_mutex (server-only).
func Destroy(cfg Config) error {
	seg, err := openSegment(cfg)
	if err != nil {
		return err
	}
	defer seg.detach()

	n := seg.numSlots()
	for i := uint32(0); i < n; i++ {
		h := seg.headerSlot(i)
		if h.free() {
			continue
		}
		qid := h.qid()
		for _, role := range []semRole{roleMutex, roleNotFull, roleNotEmpty} {
			if s, err := openSemaphore(queueSemKey(cfg.ShmemName, qid, role)); err == nil {
				_ = s.destroy()
			}
		}
	}
	if sm, err := openSemaphore(segmentMutexKey(cfg.ShmemName)); err == nil {
		_ = sm.destroy()
	}
	return seg.destroy()
}

// Attach maps the existing segment into this process and bumps
// attached_process_count under segment_mutex.
func Attach(cfg Config) (*Facility, error) {
	seg, err := openSegment(cfg)
	if err != nil {
		return nil, err
	}
	segMutex, err := openSemaphore(segmentMutexKey(cfg.ShmemName))
	if err != nil {
		seg.detach()
		return nil, err
	}

	f := &Facility{cfg: cfg, seg: seg, segMutex: segMutex, queueSems: make(map[uint32]*queueSemTriple)}

	if err := segMutex.wait(); err != nil {
		seg.detach()
		return nil, err
	}
	info := seg.info()
	info.setAttachedProcessCount(info.attachedProcessCount() + 1)
	if err := segMutex.signal(); err != nil {
		seg.detach()
		return nil, err
	}
	return f, nil
}

// Detach decrements attached_process_count and unmaps; it never removes
// the segment (that is Destroy's job alone).
func (f *Facility) Detach() error {
	if err := f.segMutex.wait(); err != nil {
		return err
	}
	info := f.seg.info()
	if n := info.attachedProcessCount(); n > 0 {
		info.setAttachedProcessCount(n - 1)
	}
	if err := f.segMutex.signal(); err != nil {
		return err
	}
	return f.seg.detach()
}

func kib(n uint32) uint32 { return n * 1024 }

// CreateQueue validates size bounds, allocates an arena extent, assigns the
// lowest free qid, and creates the queue's three semaphores before writing
// the header slot (so a failure partway through leaves no visible queue,
// per §7's rollback requirement).
func (f *Facility) CreateQueue(name string, sizeKiB uint32) error {
	if sizeKiB < MinMQSizeKiB || sizeKiB > f.seg.layout.maxMQSizeKiB() {
		return fmt.Errorf("create queue %q: %w", name, ErrBadConfig)
	}
	if len(name) == 0 || len(name) > MaxName {
		return fmt.Errorf("create queue %q: %w", name, ErrBadConfig)
	}

	if err := f.segMutex.wait(); err != nil {
		return err
	}
	defer f.segMutex.signal()

	if _, _, found := findByName(f.seg, name); found {
		return fmt.Errorf("create queue %q: %w", name, ErrNameInUse)
	}
	qid, ok := lowestFreeQid(f.seg)
	if !ok {
		return fmt.Errorf("create queue %q: %w", name, ErrTooManyQueues)
	}

	triple, err := createQueueSemaphores(f.cfg, qid, f.cfg.MaxMsgsPerQueue)
	if err != nil {
		return err
	}

	createdQid, err := createQueueLocked(f.seg, name, kib(sizeKiB))
	if err != nil {
		destroyQueueSemaphores(f.cfg, qid)
		return err
	}
	if createdQid != qid {
		// lowestFreeQid and createQueueLocked must agree; a mismatch means
		// the directory raced with itself, which segment_mutex rules out.
		destroyQueueSemaphores(f.cfg, qid)
		_, _ = removeQueueLocked(f.seg, name)
		return fmt.Errorf("create queue %q: internal qid mismatch", name)
	}

	f.mu.Lock()
	f.queueSems[qid] = triple
	f.mu.Unlock()
	return nil
}

// RemoveQueue releases the extent and unlinks the queue's semaphores.
func (f *Facility) RemoveQueue(name string) error {
	if err := f.segMutex.wait(); err != nil {
		return err
	}
	defer f.segMutex.signal()

	qid, err := removeQueueLocked(f.seg, name)
	if err != nil {
		return err
	}
	destroyQueueSemaphores(f.cfg, qid)

	f.mu.Lock()
	delete(f.queueSems, qid)
	f.mu.Unlock()
	return nil
}

// Open increments ref_count and returns the qid for an existing queue.
func (f *Facility) Open(name string) (uint32, error) {
	if err := f.segMutex.wait(); err != nil {
		return 0, err
	}
	defer f.segMutex.signal()
	return openQueueLocked(f.seg, name)
}

// Close decrements ref_count; it never removes the queue.
func (f *Facility) Close(qid uint32) error {
	if err := f.segMutex.wait(); err != nil {
		return err
	}
	defer f.segMutex.signal()
	return closeQueueLocked(f.seg, qid)
}

// Send blocks while the queue is full, writes the message, and wakes one
// waiting receiver. See spec §4.5 for the exact algorithm.
func (f *Facility) Send(qid uint32, data []byte) error {
	if len(data) < MinDataLen || len(data) > MaxDataLen {
		return fmt.Errorf("send to queue %d: %w", qid, ErrBadLength)
	}
	triple, err := f.queueSemaphores(qid)
	if err != nil {
		return err
	}
	need := uint32(lengthPrefixSize + len(data))

	for {
		if err := triple.mutex.wait(); err != nil {
			return err
		}
		h, _, found := findByQid(f.seg, qid)
		if !found {
			triple.mutex.signal()
			return fmt.Errorf("send to queue %d: %w", qid, ErrNotFound)
		}
		if need > h.bodySize() {
			triple.mutex.signal()
			return fmt.Errorf("send to queue %d: %w", qid, ErrOutOfSpace)
		}
		if h.msgCount() < f.cfg.MaxMsgsPerQueue {
			r, ok := reserve(h.bodySize(), h.headOffset(), h.tailOffset(), h.msgCount(), need)
			if ok {
				body := f.seg.body(h)
				writeMessage(body, r, data)
				h.setTailOffset(r.newTail)
				h.setMsgCount(h.msgCount() + 1)
				triple.mutex.signal()
				return triple.notEmpty.signalCapped(f.cfg.MaxMsgsPerQueue)
			}
		}
		triple.mutex.signal()
		if err := triple.notFull.wait(); err != nil {
			return err
		}
	}
}

// Receive blocks while the queue is empty, reads the oldest message, and
// wakes one waiting sender. Truncation (len(out) < on-wire length) is not
// an error; the tail bytes are silently dropped with the message.
func (f *Facility) Receive(qid uint32, out []byte) (int, error) {
	triple, err := f.queueSemaphores(qid)
	if err != nil {
		return 0, err
	}

	for {
		if err := triple.mutex.wait(); err != nil {
			return 0, err
		}
		h, _, found := findByQid(f.seg, qid)
		if !found {
			triple.mutex.signal()
			return 0, fmt.Errorf("receive from queue %d: %w", qid, ErrNotFound)
		}
		if h.msgCount() > 0 {
			body := f.seg.body(h)
			n, newHead := readMessage(body, h.headOffset(), out)
			h.setMsgCount(h.msgCount() - 1)
			if h.msgCount() == 0 {
				h.setHeadOffset(0)
				h.setTailOffset(0)
			} else {
				h.setHeadOffset(newHead)
			}
			triple.mutex.signal()
			if err := triple.notFull.signalCapped(f.cfg.MaxMsgsPerQueue); err != nil {
				return n, err
			}
			return n, nil
		}
		triple.mutex.signal()
		if err := triple.notEmpty.wait(); err != nil {
			return 0, err
		}
	}
}

// queueSemaphores returns this process's cached semaphore triple for qid,
// opening it on first use (spec §4.5 step 2: "open the queue's three named
// semaphores").
func (f *Facility) queueSemaphores(qid uint32) (*queueSemTriple, error) {
	f.mu.Lock()
	if t, ok := f.queueSems[qid]; ok {
		f.mu.Unlock()
		return t, nil
	}
	f.mu.Unlock()

	t, err := openQueueSemaphores(f.cfg, qid)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	if existing, ok := f.queueSems[qid]; ok {
		f.mu.Unlock()
		return existing, nil
	}
	f.queueSems[qid] = t
	f.mu.Unlock()
	return t, nil
}

func createQueueSemaphores(cfg Config, qid, maxMsgsPerQueue uint32) (*queueSemTriple, error) {
	mutex, err := createSemaphore(queueSemKey(cfg.ShmemName, qid, roleMutex), 1)
	if err != nil {
		return nil, err
	}
	notFull, err := createSemaphore(queueSemKey(cfg.ShmemName, qid, roleNotFull), maxMsgsPerQueue)
	if err != nil {
		mutex.destroy()
		return nil, err
	}
	notEmpty, err := createSemaphore(queueSemKey(cfg.ShmemName, qid, roleNotEmpty), 0)
	if err != nil {
		mutex.destroy()
		notFull.destroy()
		return nil, err
	}
	return &queueSemTriple{mutex: mutex, notFull: notFull, notEmpty: notEmpty}, nil
}

func openQueueSemaphores(cfg Config, qid uint32) (*queueSemTriple, error) {
	mutex, err := openSemaphore(queueSemKey(cfg.ShmemName, qid, roleMutex))
	if err != nil {
		return nil, err
	}
	notFull, err := openSemaphore(queueSemKey(cfg.ShmemName, qid, roleNotFull))
	if err != nil {
		return nil, err
	}
	notEmpty, err := openSemaphore(queueSemKey(cfg.ShmemName, qid, roleNotEmpty))
	if err != nil {
		return nil, err
	}
	return &queueSemTriple{mutex: mutex, notFull: notFull, notEmpty: notEmpty}, nil
}

func destroyQueueSemaphores(cfg Config, qid uint32) {
	for _, role := range []semRole{roleMutex, roleNotFull, roleNotEmpty} {
		if s, err := openSemaphore(queueSemKey(cfg.ShmemName, qid, role)); err == nil {
			_ = s.destroy()
		}
	}
}

// PrintStatus renders the info block and every live queue header, the
// operator diagnostic dump named directly in spec §6's API surface and
// supplemented from the heavier app2.c mf_print drafts in original_source/.
func (f *Facility) PrintStatus() string {
	if err := f.segMutex.wait(); err != nil {
		return fmt.Sprintf("print_status: %v", err)
	}
	defer f.segMutex.signal()

	info := f.seg.info()
	out := fmt.Sprintf(
		"facility %q: %d/%d queues live, %d/%d bytes used, %d processes attached\n",
		f.cfg.ShmemName, info.activeQueueCount(), f.seg.numSlots(),
		info.usedBytes(), f.seg.layout.arenaSize, info.attachedProcessCount(),
	)

	type row struct {
		qid                          uint32
		name                         string
		bodySize, msgCount, refCount uint32
	}
	var rows []row
	n := f.seg.numSlots()
	for i := uint32(0); i < n; i++ {
		h := f.seg.headerSlot(i)
		if h.free() {
			continue
		}
		rows = append(rows, row{h.qid(), h.name(), h.bodySize(), h.msgCount(), h.refCount()})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].qid < rows[j].qid })
	for _, r := range rows {
		out += fmt.Sprintf("  qid=%-4d name=%-32s body=%-8d msgs=%-6d refs=%d\n",
			r.qid, r.name, r.bodySize, r.msgCount, r.refCount)
	}
	return out
}
