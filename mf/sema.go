package mf

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// golang.org/x/sys/unix wraps SysV shared memory behind friendly
// Sysv-prefixed functions (SysvShmGet, SysvShmAttach, ...), the ones the
// teacher's key.go and queue.go already use, but it does not carry an
// equivalent family for SysV semaphore sets. MF drives semget/semop/semctl
// directly through unix.Syscall using the package's own exported SYS_SEM*
// trap numbers, the same escape hatch the package uses internally for any
// syscall it hasn't wrapped. No new IPC mechanism is introduced: SysV
// semaphore sets are governed by the same key-and-permission model as the
// SysV shared memory the teacher already speaks.
const (
	semIpcCreat = 0o1000
	semIpcExcl  = 0o2000
	semIpcRmid  = 0
	semGetVal   = 12
	semSetVal   = 16
	semAccess   = 0600
)

// sembuf mirrors struct sembuf from <sys/sem.h>.
type sembuf struct {
	semNum uint16
	semOp  int16
	semFlg int16
}

// semaphore is one SysV semaphore set with a single member (nsems=1),
// addressed by the deterministic key derived in key.go.
type semaphore struct {
	id int
}

func semget(key int, flags int) (int, error) {
	id, _, errno := unix.Syscall(unix.SYS_SEMGET, uintptr(key), 1, uintptr(flags))
	if errno != 0 {
		return 0, errno
	}
	return int(id), nil
}

// semop retries on EINTR: Go's async preemption (SIGURG) can interrupt a
// thread parked in the blocking SYS_SEMOP wait, and unix.Syscall does not
// retry on our behalf. Without this loop, a sender blocked on not_full or a
// receiver blocked on not_empty would surface a spurious ErrIo instead of
// blocking until genuinely signaled.
func semop(id int, ops ...sembuf) error {
	for {
		_, _, errno := unix.Syscall(unix.SYS_SEMOP, uintptr(id), uintptr(unsafe.Pointer(&ops[0])), uintptr(len(ops)))
		if errno == unix.EINTR {
			continue
		}
		if errno != 0 {
			return errno
		}
		return nil
	}
}

func semctlVal(id int, cmd int, val int) (int, error) {
	r, _, errno := unix.Syscall6(unix.SYS_SEMCTL, uintptr(id), 0, uintptr(cmd), uintptr(val), 0, 0)
	if errno != 0 {
		return 0, errno
	}
	return int(r), nil
}

// createSemaphore creates a new semaphore set that must not already exist,
// and sets its single member to initVal.
func createSemaphore(key int, initVal uint32) (semaphore, error) {
	id, err := semget(key, semIpcCreat|semIpcExcl|semAccess)
	if err != nil {
		return semaphore{}, wrapErrSem("create semaphore", err)
	}
	if _, err := semctlVal(id, semSetVal, int(initVal)); err != nil {
		_, _ = semctlVal(id, semIpcRmid, 0)
		return semaphore{}, wrapErrSem("init semaphore value", err)
	}
	return semaphore{id: id}, nil
}

// openSemaphore attaches to an already-existing semaphore set.
func openSemaphore(key int) (semaphore, error) {
	id, err := semget(key, semAccess)
	if err != nil {
		return semaphore{}, wrapErrSem("open semaphore", err)
	}
	return semaphore{id: id}, nil
}

// destroy unlinks the semaphore set from the kernel (spec §6 "unlinks").
func (s semaphore) destroy() error {
	if _, err := semctlVal(s.id, semIpcRmid, 0); err != nil {
		return wrapErrSem("destroy semaphore", err)
	}
	return nil
}

// wait performs a blocking P (down-by-one); never held across this call.
func (s semaphore) wait() error {
	if err := semop(s.id, sembuf{semNum: 0, semOp: -1, semFlg: 0}); err != nil {
		return wrapErrSem("semaphore wait", err)
	}
	return nil
}

// signal performs a V (up-by-one).
func (s semaphore) signal() error {
	if err := semop(s.id, sembuf{semNum: 0, semOp: 1, semFlg: 0}); err != nil {
		return wrapErrSem("semaphore signal", err)
	}
	return nil
}

func (s semaphore) value() (int, error) {
	v, err := semctlVal(s.id, semGetVal, 0)
	if err != nil {
		return 0, wrapErrSem("semaphore getval", err)
	}
	return v, nil
}

// signalCapped posts only if the current value is still below cap. Spec §5
// has not_full/not_empty posted unconditionally by every successful
// send/receive, which over a long run would drift the kernel counter past
// SEMVMX; capping it at max_msgs_per_queue keeps it a pure blocking gate
// (any genuinely blocked waiter still gets woken, since the value can only
// be at cap when nobody could usefully be waiting for more wakeups than
// that) without ever overflowing.
func (s semaphore) signalCapped(cap uint32) error {
	v, err := s.value()
	if err != nil {
		return err
	}
	if v >= int(cap) {
		return nil
	}
	return s.signal()
}
