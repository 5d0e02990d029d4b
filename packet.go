// Package datetimed implements the DT date/time query protocol over UDP.
package datetimed

import (
	"errors"
	"fmt"
)

const (
	// MagicNo identifies a DT packet. Both packet types carry it.
	MagicNo uint16 = 0x36FB

	// RequestLength is the fixed length of a DT_Request packet (in bytes).
	RequestLength int = 6

	// ResponseHeaderLength is the length of a DT_Response before the text field (in bytes).
	ResponseHeaderLength int = 13

	// MaxTextLength is the largest text that fits the single byte length field.
	MaxTextLength int = 255

	// PacketLength is the receive buffer size used by both client and server.
	PacketLength int = 1024
)

// PacketType is the kind of a DT packet.
type PacketType int

const (
	PacketRequest PacketType = iota + 1
	PacketResponse
)

// packetTypes maps packet types to their wire values.
var packetTypes = map[PacketType]uint16{
	PacketRequest:  0x0001,
	PacketResponse: 0x0002,
}

func (p PacketType) String() string {
	switch p {
	case PacketRequest:
		return "DT_Request"
	case PacketResponse:
		return "DT_Response"
	}
	return fmt.Sprintf("PacketType(%d)", int(p))
}

// RequestKind is what a client is asking for.
type RequestKind int

const (
	KindDate RequestKind = iota + 1
	KindTime
)

// requestKinds maps request kinds to their wire values.
var requestKinds = map[RequestKind]uint16{
	KindDate: 0x0001,
	KindTime: 0x0002,
}

// requestKindsByWire is the reverse of requestKinds.
var requestKindsByWire = map[uint16]RequestKind{
	0x0001: KindDate,
	0x0002: KindTime,
}

func (k RequestKind) String() string {
	switch k {
	case KindDate:
		return "date"
	case KindTime:
		return "time"
	}
	return fmt.Sprintf("RequestKind(%d)", int(k))
}

// ParseRequestKind maps the command line names "date" and "time" to a RequestKind.
func ParseRequestKind(s string) (RequestKind, error) {
	switch s {
	case "date":
		return KindDate, nil
	case "time":
		return KindTime, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidRequestName, s)
}

// Language is the code an endpoint tags its responses with.
// The protocol treats it as opaque.
type Language uint16

const (
	English Language = 1
	Maori   Language = 2
	German  Language = 3
)

func (l Language) String() string {
	switch l {
	case English:
		return "English"
	case Maori:
		return "Māori"
	case German:
		return "German"
	}
	return fmt.Sprintf("Language(%d)", uint16(l))
}

// Errors in the request decode phase.
var (
	// ErrRequest is the category all request decode errors belong to.
	ErrRequest = errors.New("invalid DT_Request")

	ErrMalformedLength    = fmt.Errorf("%w: packet length incorrect", ErrRequest)
	ErrUnknownRequestKind = fmt.Errorf("%w: unknown request type", ErrRequest)
)

// Errors in the response decode phase.
var (
	// ErrResponse is the category all response decode errors belong to.
	ErrResponse = errors.New("invalid DT_Response")

	ErrTooShort      = fmt.Errorf("%w: packet too small", ErrResponse)
	ErrTruncatedText = fmt.Errorf("%w: text shorter than text length", ErrResponse)
	ErrInvalidText   = fmt.Errorf("%w: text is not valid UTF-8", ErrResponse)
)

// Errors shared by both packet types. They are wrapped together with the
// category of the packet being decoded.
var (
	ErrBadMagic        = errors.New("magic number incorrect")
	ErrWrongPacketType = errors.New("wrong packet type")
)

// Errors building packets.
var (
	ErrTextTooLong        = errors.New("text longer than 255 bytes")
	ErrYearOutOfRange     = errors.New("year does not fit in 16 bits")
	ErrInvalidRequestName = errors.New("request type must be 'date' or 'time'")
)
