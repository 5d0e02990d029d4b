package datetimed

import (
	"encoding/binary"
	"fmt"
)

// EncodeRequest builds a DT_Request for the given kind.
func EncodeRequest(kind RequestKind) []byte {
	packet := make([]byte, RequestLength)
	binary.BigEndian.PutUint16(packet[0:2], MagicNo)
	binary.BigEndian.PutUint16(packet[2:4], packetTypes[PacketRequest])
	binary.BigEndian.PutUint16(packet[4:6], requestKinds[kind])
	return packet
}

// DecodeRequest validates a DT_Request and returns the kind it asks for.
func DecodeRequest(packet []byte) (RequestKind, error) {
	if len(packet) != RequestLength {
		return 0, fmt.Errorf("%w: got %d bytes", ErrMalformedLength, len(packet))
	}

	if magic := binary.BigEndian.Uint16(packet[0:2]); magic != MagicNo {
		return 0, fmt.Errorf("%w: %w: 0x%04x", ErrRequest, ErrBadMagic, magic)
	}

	if pt := binary.BigEndian.Uint16(packet[2:4]); pt != packetTypes[PacketRequest] {
		return 0, fmt.Errorf("%w: %w: 0x%04x", ErrRequest, ErrWrongPacketType, pt)
	}

	rt := binary.BigEndian.Uint16(packet[4:6])
	kind, ok := requestKindsByWire[rt]
	if !ok {
		return 0, fmt.Errorf("%w: 0x%04x", ErrUnknownRequestKind, rt)
	}

	return kind, nil
}
