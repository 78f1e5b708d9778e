package mf

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Error kinds, one sentinel per the error kind taxonomy. Callers should use
// errors.Is against these, never string-match the wrapped message.
var (
	ErrBadConfig          = fmt.Errorf("config file malformed or out of range")
	ErrNotInitialized     = fmt.Errorf("segment not initialized")
	ErrAlreadyInitialized = fmt.Errorf("segment already initialized")
	ErrIo                 = fmt.Errorf("host i/o failure")
	ErrNameInUse          = fmt.Errorf("queue name already in use")
	ErrNotFound           = fmt.Errorf("queue not found")
	ErrTooManyQueues      = fmt.Errorf("maximum number of queues reached")
	ErrOutOfSpace         = fmt.Errorf("no free arena extent fits the requested queue")
	ErrBusy               = fmt.Errorf("queue has outstanding opens")
	ErrBadLength          = fmt.Errorf("message length out of range")
	ErrInUse              = fmt.Errorf("segment still mapped elsewhere")
)

// wrapErrShmGet translates a shmget failure the same way the teacher's
// shqueue/errors.go translates SysvShmGet failures, but onto the coarser
// §7 error kinds instead of shqueue-specific ones.
func wrapErrShmGet(err error, create bool) error {
	op := "open shared memory"
	if create {
		op = "create shared memory"
	}
	switch err {
	case unix.ENOENT:
		return fmt.Errorf("%s: %w", op, ErrNotInitialized)
	case unix.EEXIST:
		return fmt.Errorf("%s: %w", op, ErrAlreadyInitialized)
	case unix.EACCES, unix.EINVAL, unix.ENFILE, unix.ENOMEM, unix.ENOSPC:
		return fmt.Errorf("%s: %w: %w", op, ErrIo, err)
	default:
		return fmt.Errorf("%s: %w: system error: %w", op, ErrIo, err)
	}
}

func wrapErrShmAttach(err error) error {
	return fmt.Errorf("attach shared memory: %w: %w", ErrIo, err)
}

func wrapErrShmDetach(err error) error {
	return fmt.Errorf("detach shared memory: %w: %w", ErrIo, err)
}

func wrapErrShmDestroy(err error) error {
	return fmt.Errorf("destroy shared memory: %w: %w", ErrIo, err)
}

func wrapErrSem(op string, err error) error {
	if err == unix.ENOENT {
		return fmt.Errorf("%s: %w", op, ErrNotInitialized)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrIo, err)
}
