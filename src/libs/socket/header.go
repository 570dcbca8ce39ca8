package socket

import (
	"encoding/binary"
	"fmt"
)

// socket header
//
// every socket message starts with this header, size is the body length and
// could be 0
//
// reserved carries small static values, the analytics shim puts the source id
// in reserved[0] and the object count in reserved[1]
type SocketHeader struct {
	ID        uint32
	Size      uint32
	Timestamp uint64
	Reserved  [8]uint32
}

// 48
const SocketHeaderLength int = 4 + 4 + 8 + 4*8

// bodies larger than this are treated as a broken stream
const SocketMaxBodySize uint32 = 1 << 20

func ParseSocketHeader(b []byte) (SocketHeader, error) {
	if len(b) < SocketHeaderLength {
		return SocketHeader{}, fmt.Errorf("socket header too short %d", len(b))
	}

	h := SocketHeader{
		ID:        binary.LittleEndian.Uint32(b[0:4]),
		Size:      binary.LittleEndian.Uint32(b[4:8]),
		Timestamp: binary.LittleEndian.Uint64(b[8:16]),
	}

	offset := 16
	for i := 0; i < len(h.Reserved); i++ {
		h.Reserved[i] = binary.LittleEndian.Uint32(b[offset : offset+4])
		offset += 4
	}

	if h.Size > SocketMaxBodySize {
		return h, fmt.Errorf("socket body too large %d", h.Size)
	}

	return h, nil
}

func (h *SocketHeader) ToBytes() []byte {
	b := make([]byte, SocketHeaderLength)

	binary.LittleEndian.PutUint32(b[0:4], h.ID)
	binary.LittleEndian.PutUint32(b[4:8], h.Size)
	binary.LittleEndian.PutUint64(b[8:16], h.Timestamp)

	offset := 16
	for _, r := range h.Reserved {
		binary.LittleEndian.PutUint32(b[offset:offset+4], r)
		offset += 4
	}

	return b
}
