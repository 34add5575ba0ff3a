package netstack

import "encoding/binary"

// Frames are Ethernet II with the local experimental EtherType, followed
// by a destination and a source port.
const (
	EtherType = 0x88B5
	headerLen = 14 + 4
)

var Broadcast = [6]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

type header struct {
	dst, src         [6]byte
	dstPort, srcPort uint16
}

func (h header) put(b []byte) {
	copy(b[0:6], h.dst[:])
	copy(b[6:12], h.src[:])
	binary.BigEndian.PutUint16(b[12:14], EtherType)
	binary.BigEndian.PutUint16(b[14:16], h.dstPort)
	binary.BigEndian.PutUint16(b[16:18], h.srcPort)
}

func parseHeader(b []byte) (header, bool) {
	if len(b) < headerLen || binary.BigEndian.Uint16(b[12:14]) != EtherType {
		return header{}, false
	}
	var h header
	copy(h.dst[:], b[0:6])
	copy(h.src[:], b[6:12])
	h.dstPort = binary.BigEndian.Uint16(b[14:16])
	h.srcPort = binary.BigEndian.Uint16(b[16:18])
	return h, true
}

// AppendFrame builds a frame for dstPort carrying payload. The simulator
// and tests use it to inject traffic.
func AppendFrame(b []byte, dst, src [6]byte, dstPort, srcPort uint16, payload []byte) []byte {
	n := len(b)
	b = append(b, make([]byte, headerLen)...)
	header{dst: dst, src: src, dstPort: dstPort, srcPort: srcPort}.put(b[n:])
	return append(b, payload...)
}

// ParseFrame splits a stack frame into its ports and payload.
func ParseFrame(b []byte) (dstPort, srcPort uint16, payload []byte, ok bool) {
	h, ok := parseHeader(b)
	if !ok {
		return 0, 0, nil, false
	}
	return h.dstPort, h.srcPort, b[headerLen:], true
}
