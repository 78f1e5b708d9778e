package mf

import "encoding/binary"

const lengthPrefixSize = 4

// reservation describes where a message of `need` total bytes (prefix +
// payload) should be written, and the new tail that results, per the four
// cases of spec §4.4's "contiguous free-space rule". sentinelAt/sentinelLen
// mark a (possibly empty) run of bytes to zero at the old tail so a later
// reader can detect the wrap the way §4.4 describes: "the next 4 bytes at
// head after advance are zero ⇒ gap left by a sender that skipped".
type reservation struct {
	writeAt     uint32
	newTail     uint32
	sentinelAt  uint32
	sentinelLen uint32
}

// reserve is the pure core of the admission rule, kept separate from any
// segment access so it can be exhaustively unit tested.
func reserve(bodySize, head, tail, msgCount, need uint32) (reservation, bool) {
	if need > bodySize {
		return reservation{}, false
	}

	if msgCount == 0 {
		newTail := need
		if newTail == bodySize {
			// A single message exactly filling the body wraps tail to 0,
			// same as head: a live queue can have head==tail==0 too, not
			// just an empty one. msg_count is what disambiguates the two
			// (see invariants.go's I5 check), never head/tail alone.
			newTail = 0
		}
		return reservation{writeAt: 0, newTail: newTail}, true
	}

	if tail > head {
		upperFree := bodySize - tail
		if upperFree >= need {
			newTail := tail + need
			if newTail == bodySize {
				newTail = 0
			}
			return reservation{writeAt: tail, newTail: newTail}, true
		}
		if head >= need {
			sentinelLen := upperFree
			if sentinelLen > lengthPrefixSize {
				sentinelLen = lengthPrefixSize
			}
			return reservation{
				writeAt:     0,
				newTail:     need,
				sentinelAt:  tail,
				sentinelLen: sentinelLen,
			}, true
		}
		return reservation{}, false
	}

	// tail <= head: either wrapped (tail < head) with one region [tail,
	// head), or full (tail == head; msgCount == 0 was handled above).
	if tail == head {
		return reservation{}, false
	}
	if head-tail >= need {
		return reservation{writeAt: tail, newTail: tail + need}, true
	}
	return reservation{}, false
}

// writeMessage writes a length-prefixed record per a reservation computed
// by reserve, and applies any wrap sentinel.
func writeMessage(body []byte, r reservation, payload []byte) {
	if r.sentinelLen > 0 {
		zeroBytes(body[r.sentinelAt : r.sentinelAt+r.sentinelLen])
	}
	binary.LittleEndian.PutUint32(body[r.writeAt:r.writeAt+lengthPrefixSize], uint32(len(payload)))
	copy(body[r.writeAt+lengthPrefixSize:], payload)
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// normalizeHead advances past any wrap marker at the current head: either a
// structural one (not even room for a length prefix before body_size) or a
// sentinel one (a zeroed length prefix left by a sender that skipped ahead
// to offset 0). Returns the position of the next real message.
func normalizeHead(body []byte, head uint32) uint32 {
	bodySize := uint32(len(body))
	if head+lengthPrefixSize > bodySize {
		return 0
	}
	if binary.LittleEndian.Uint32(body[head:head+lengthPrefixSize]) == 0 {
		return 0
	}
	return head
}

// readMessage reads the message at head (after normalization), copies
// min(length, len(out)) bytes into out, and returns the number of bytes
// copied along with the offset one past the full on-wire record (wrapped to
// 0 when it lands on body_size).
func readMessage(body []byte, head uint32, out []byte) (n int, newHead uint32) {
	head = normalizeHead(body, head)
	length := binary.LittleEndian.Uint32(body[head : head+lengthPrefixSize])
	dataStart := head + lengthPrefixSize
	n = int(length)
	if n > len(out) {
		n = len(out)
	}
	copy(out[:n], body[dataStart:dataStart+uint32(n)])
	newHead = dataStart + length
	if newHead == uint32(len(body)) {
		newHead = 0
	}
	return n, newHead
}
