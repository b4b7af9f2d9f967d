package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
)

const (
	Version = 1

	headerSize    = 4
	payloadMarker = 0xFF
	maxTokenLen   = 8

	nibbleInline    = 13
	nibbleExtended  = 13
	maxExtendedSize = 268
	nibbleReserved  = 15
)

type Type uint8

const (
	TypeConfirmable    Type = 0
	TypeNonConfirmable Type = 1
	TypeAcknowledgment Type = 2
	TypeReset          Type = 3
)

func (t Type) String() string {
	switch t {
	case TypeConfirmable:
		return "CON"
	case TypeNonConfirmable:
		return "NON"
	case TypeAcknowledgment:
		return "ACK"
	case TypeReset:
		return "RST"
	default:
		return fmt.Sprintf("type(%d)", uint8(t))
	}
}

// Code is class<<5 | detail, rendered as c.dd.
type Code uint8

const (
	CodeEmpty   Code = 0
	CodePut     Code = 3
	CodeCreated Code = 65
	CodeChanged Code = 68
	CodeContent Code = 69

	successLow  = 64
	successHigh = 96
)

func (c Code) Success() bool {
	return c >= successLow && c < successHigh
}

func (c Code) String() string {
	return fmt.Sprintf("%d.%02d", uint8(c)>>5, uint8(c)&0x1F)
}

type OptionNumber uint16

const (
	OptionURIPath  OptionNumber = 11
	OptionURIQuery OptionNumber = 15
)

type Option struct {
	Number OptionNumber
	Value  []byte
}

type Message struct {
	Type      Type
	Code      Code
	MessageID uint16
	Token     []byte
	Options   []Option
	Payload   []byte
}

var (
	ErrShortMessage    = errors.New("message shorter than header")
	ErrBadVersion      = errors.New("unsupported protocol version")
	ErrBadTokenLength  = errors.New("invalid token length")
	ErrOptionTooLarge  = errors.New("option delta or length exceeds 268")
	ErrReservedNibble  = errors.New("reserved option nibble")
	ErrTruncatedOption = errors.New("truncated option")
	ErrEmptyPayload    = errors.New("payload marker without payload")
)

// Marshal encodes m. Options are written in ascending number order; options
// sharing a number keep their relative order.
func (m Message) Marshal() ([]byte, error) {
	if len(m.Token) > maxTokenLen {
		return nil, ErrBadTokenLength
	}

	out := make([]byte, headerSize, headerSize+len(m.Token)+len(m.Payload)+16)
	out[0] = Version<<6 | byte(m.Type&0x3)<<4 | byte(len(m.Token))
	out[1] = byte(m.Code)
	binary.BigEndian.PutUint16(out[2:4], m.MessageID)
	out = append(out, m.Token...)

	options := make([]Option, len(m.Options))
	copy(options, m.Options)
	sort.SliceStable(options, func(i, j int) bool {
		return options[i].Number < options[j].Number
	})

	var previous OptionNumber
	for _, opt := range options {
		delta := int(opt.Number - previous)
		length := len(opt.Value)
		if delta > maxExtendedSize || length > maxExtendedSize {
			return nil, fmt.Errorf("option %d: %w", opt.Number, ErrOptionTooLarge)
		}

		deltaNibble, deltaExt := nibble(delta)
		lengthNibble, lengthExt := nibble(length)
		out = append(out, deltaNibble<<4|lengthNibble)
		out = append(out, deltaExt...)
		out = append(out, lengthExt...)
		out = append(out, opt.Value...)
		previous = opt.Number
	}

	if len(m.Payload) > 0 {
		out = append(out, payloadMarker)
		out = append(out, m.Payload...)
	}
	return out, nil
}

func nibble(v int) (byte, []byte) {
	if v < nibbleInline {
		return byte(v), nil
	}
	return nibbleExtended, []byte{byte(v - nibbleInline)}
}

// Unmarshal decodes one datagram.
func Unmarshal(data []byte) (Message, error) {
	var m Message
	if len(data) < headerSize {
		return m, ErrShortMessage
	}
	if data[0]>>6 != Version {
		return m, ErrBadVersion
	}

	m.Type = Type((data[0] >> 4) & 0x3)
	tokenLen := int(data[0] & 0x0F)
	if tokenLen > maxTokenLen || headerSize+tokenLen > len(data) {
		return m, ErrBadTokenLength
	}
	m.Code = Code(data[1])
	m.MessageID = binary.BigEndian.Uint16(data[2:4])
	if tokenLen > 0 {
		m.Token = append([]byte(nil), data[headerSize:headerSize+tokenLen]...)
	}

	rest := data[headerSize+tokenLen:]
	var number int
	for len(rest) > 0 {
		if rest[0] == payloadMarker {
			if len(rest) == 1 {
				return m, ErrEmptyPayload
			}
			m.Payload = append([]byte(nil), rest[1:]...)
			return m, nil
		}

		head := rest[0]
		rest = rest[1:]

		delta, remaining, err := readNibble(head>>4, rest)
		if err != nil {
			return m, err
		}
		rest = remaining

		length, remaining, err := readNibble(head&0x0F, rest)
		if err != nil {
			return m, err
		}
		rest = remaining

		if length > len(rest) {
			return m, ErrTruncatedOption
		}
		number += delta
		m.Options = append(m.Options, Option{
			Number: OptionNumber(number),
			Value:  append([]byte(nil), rest[:length]...),
		})
		rest = rest[length:]
	}

	return m, nil
}

func readNibble(n byte, rest []byte) (int, []byte, error) {
	switch {
	case n < nibbleInline:
		return int(n), rest, nil
	case n == nibbleExtended:
		if len(rest) < 1 {
			return 0, nil, ErrTruncatedOption
		}
		return int(rest[0]) + nibbleInline, rest[1:], nil
	case n == nibbleReserved:
		return 0, nil, ErrReservedNibble
	default:
		// Two-byte extension (14) is outside the reduced profile.
		return 0, nil, ErrOptionTooLarge
	}
}

// OptionValues returns the values of every option with the given number.
func (m Message) OptionValues(number OptionNumber) []string {
	var values []string
	for _, opt := range m.Options {
		if opt.Number == number {
			values = append(values, string(opt.Value))
		}
	}
	return values
}
