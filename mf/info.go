package mf

import "encoding/binary"

// Info block field offsets, relative to the info block's own base (spec §3
// Info block, §4.1 layout).
const (
	infoActiveQueueCount    = 0
	infoActiveQueueCountEnd = infoActiveQueueCount + 4
	infoUsedBytes           = infoActiveQueueCountEnd
	infoUsedBytesEnd        = infoUsedBytes + 4
	infoFreeBytes           = infoUsedBytesEnd
	infoFreeBytesEnd        = infoFreeBytes + 4
	infoAttachedProcs       = infoFreeBytesEnd
	infoAttachedProcsEnd    = infoAttachedProcs + 4
)

// infoView is a typed, zero-copy view of the segment's info block.
type infoView struct {
	b []byte // exactly InfoSize bytes
}

func (v infoView) activeQueueCount() uint32 {
	return binary.LittleEndian.Uint32(v.b[infoActiveQueueCount:infoActiveQueueCountEnd])
}
func (v infoView) setActiveQueueCount(n uint32) {
	binary.LittleEndian.PutUint32(v.b[infoActiveQueueCount:infoActiveQueueCountEnd], n)
}

func (v infoView) usedBytes() uint32 {
	return binary.LittleEndian.Uint32(v.b[infoUsedBytes:infoUsedBytesEnd])
}
func (v infoView) setUsedBytes(n uint32) {
	binary.LittleEndian.PutUint32(v.b[infoUsedBytes:infoUsedBytesEnd], n)
}

func (v infoView) freeBytes() uint32 {
	return binary.LittleEndian.Uint32(v.b[infoFreeBytes:infoFreeBytesEnd])
}
func (v infoView) setFreeBytes(n uint32) {
	binary.LittleEndian.PutUint32(v.b[infoFreeBytes:infoFreeBytesEnd], n)
}

func (v infoView) attachedProcessCount() uint32 {
	return binary.LittleEndian.Uint32(v.b[infoAttachedProcs:infoAttachedProcsEnd])
}
func (v infoView) setAttachedProcessCount(n uint32) {
	binary.LittleEndian.PutUint32(v.b[infoAttachedProcs:infoAttachedProcsEnd], n)
}
