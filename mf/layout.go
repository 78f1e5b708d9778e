package mf

// Constants fixed by spec §6, chosen within the bounds it allows.
const (
	// MaxName is the fixed width of a queue name slot, zero-padded UTF-8.
	MaxName = 32

	// MinDataLen and MaxDataLen bound a single message payload.
	MinDataLen = 1
	MaxDataLen = 4096

	// MinMQSizeKiB is the smallest queue body size in KiB; the upper bound
	// is the arena's own size (segmentLayout.maxMQSizeKiB), checked at
	// create_queue time.
	MinMQSizeKiB = 1

	// MinShmemSizeKiB and MaxShmemSizeKiB bound SHMEM_SIZE.
	MinShmemSizeKiB = 16
	MaxShmemSizeKiB = 1 << 20 // 1 GiB

	// headerRecordSize is sizeof(QueueHeader): MAX_NAME + 7 u32 fields
	// (32 + 28 = 60) rounded up to the next power of two.
	headerRecordSize = 64

	// InfoSize is sizeof(Info block): four u32 counters, already a power
	// of two and at least the spec's 16-byte floor.
	InfoSize = 16
)

// headerTableBytes returns the byte size of the header table for maxQueues
// queue slots.
func headerTableBytes(maxQueues uint32) uint32 {
	return maxQueues * headerRecordSize
}

// segmentLayout describes the three region boundaries (spec §4.1) derived
// from a Config. All offsets are from the segment base.
type segmentLayout struct {
	headerTableOffset uint32
	infoOffset        uint32
	arenaOffset       uint32
	arenaSize         uint32
	totalSize         uint32
}

func newSegmentLayout(cfg Config) segmentLayout {
	headerBytes := headerTableBytes(cfg.MaxQueues)
	infoOff := headerBytes
	arenaOff := infoOff + InfoSize
	total := cfg.ShmemKiB * 1024
	var arenaSize uint32
	if total > arenaOff {
		arenaSize = total - arenaOff
	}
	return segmentLayout{
		headerTableOffset: 0,
		infoOffset:        infoOff,
		arenaOffset:       arenaOff,
		arenaSize:         arenaSize,
		totalSize:         total,
	}
}

// maxMQSizeKiB is the largest queue body size (in KiB) that could ever fit
// this layout's arena, used to validate create_queue's size_kib argument.
func (l segmentLayout) maxMQSizeKiB() uint32 {
	return l.arenaSize / 1024
}
