package datetimed

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
	"unicode/utf8"
)

// Response is a decoded DT_Response.
type Response struct {
	Language Language
	Year     uint16
	Month    uint8
	Day      uint8
	Hour     uint8
	Minute   uint8
	Text     string
}

// Time returns the date and time carried by the response in the given location.
func (r *Response) Time(loc *time.Location) time.Time {
	return time.Date(int(r.Year), time.Month(r.Month), int(r.Day), int(r.Hour), int(r.Minute), 0, 0, loc)
}

// EncodeResponse builds a DT_Response for t tagged with lang.
// The UTF-8 encoding of text must fit in MaxTextLength bytes, it is never truncated.
func EncodeResponse(lang Language, t time.Time, text string) ([]byte, error) {
	if len(text) > MaxTextLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrTextTooLong, len(text))
	}
	if t.Year() < 0 || t.Year() > math.MaxUint16 {
		return nil, fmt.Errorf("%w: %d", ErrYearOutOfRange, t.Year())
	}

	packet := make([]byte, ResponseHeaderLength+len(text))
	binary.BigEndian.PutUint16(packet[0:2], MagicNo)
	binary.BigEndian.PutUint16(packet[2:4], packetTypes[PacketResponse])
	binary.BigEndian.PutUint16(packet[4:6], uint16(lang))
	binary.BigEndian.PutUint16(packet[6:8], uint16(t.Year()))
	packet[8] = uint8(t.Month())
	packet[9] = uint8(t.Day())
	packet[10] = uint8(t.Hour())
	packet[11] = uint8(t.Minute())
	packet[12] = uint8(len(text))
	copy(packet[ResponseHeaderLength:], text)

	return packet, nil
}

// DecodeResponse validates a DT_Response and returns its fields.
// Bytes beyond the declared text length are ignored.
func DecodeResponse(packet []byte) (*Response, error) {
	if len(packet) < ResponseHeaderLength {
		return nil, fmt.Errorf("%w: got %d bytes", ErrTooShort, len(packet))
	}

	if magic := binary.BigEndian.Uint16(packet[0:2]); magic != MagicNo {
		return nil, fmt.Errorf("%w: %w: 0x%04x", ErrResponse, ErrBadMagic, magic)
	}

	if pt := binary.BigEndian.Uint16(packet[2:4]); pt != packetTypes[PacketResponse] {
		return nil, fmt.Errorf("%w: %w: 0x%04x", ErrResponse, ErrWrongPacketType, pt)
	}

	textLength := int(packet[12])
	if len(packet)-ResponseHeaderLength < textLength {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrTruncatedText, textLength, len(packet)-ResponseHeaderLength)
	}

	text := packet[ResponseHeaderLength : ResponseHeaderLength+textLength]
	if !utf8.Valid(text) {
		return nil, ErrInvalidText
	}

	return &Response{
		Language: Language(binary.BigEndian.Uint16(packet[4:6])),
		Year:     binary.BigEndian.Uint16(packet[6:8]),
		Month:    packet[8],
		Day:      packet[9],
		Hour:     packet[10],
		Minute:   packet[11],
		Text:     string(text),
	}, nil
}
