package mf

import (
	"fmt"

	"github.com/cloudwego/gopkg/hash/xfnv"
	"golang.org/x/sys/unix"
)

// The spec's semaphore/segment name scheme (§6) is expressed in POSIX named
// object terms, but the SysV primitives the teacher's key.go builds on
// (SysvShmGet, and here SysV semaphore sets) are keyed by a plain int, the
// same way ftok() turns a pathname into a SysV key. deriveKey plays ftok's
// role: it hashes the POSIX-style name deterministically so every attached
// process computes the same int key from the same string, with no registry
// and no call to FindFreeKey (this key must be reproducible, not merely
// free).
func deriveKey(name string) int {
	h := xfnv.HashStr(name)
	k := int(h & 0x7fffffff)
	if k == unix.IPC_PRIVATE {
		k = 1
	}
	return k
}

func segmentKey(shmemName string) int {
	return deriveKey("/mf_" + shmemName + "_seg_shm")
}

func segmentMutexKey(shmemName string) int {
	return deriveKey("/mf_" + shmemName + "_seg")
}

type semRole string

const (
	roleMutex    semRole = "mx"
	roleNotFull  semRole = "nf"
	roleNotEmpty semRole = "ne"
)

func queueSemKey(shmemName string, qid uint32, role semRole) int {
	return deriveKey(fmt.Sprintf("/mf_%s_q%d_%s", shmemName, qid, role))
}
