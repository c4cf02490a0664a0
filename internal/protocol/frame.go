// internal/protocol/frame.go
package protocol

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// Control bytes of the fiscal printer wire protocol
const (
	STX byte = 0x02 // start of frame
	ETX byte = 0x03 // end of frame
	ACK byte = 0x06
	BEL byte = 0x07 // intermediate response marker
	NAK byte = 0x15
	FS  byte = 0x1C // field separator
)

// Frame is one outbound command as written to the serial line
type Frame []byte

// Hex returns the frame in the hexadecimal notation used by the device manual
func (f Frame) Hex() string {
	return hex.EncodeToString(f)
}

// Encode builds a command frame: STX CODE [FS field]... ETX.
// Field values must be printable 7-bit ASCII.
func Encode(code byte, fields ...string) (Frame, error) {
	size := 3
	for _, field := range fields {
		size += len(field) + 1
	}

	frame := make(Frame, 0, size)
	frame = append(frame, STX, code)
	for i, field := range fields {
		if err := validateField(field); err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
		frame = append(frame, FS)
		frame = append(frame, field...)
	}
	frame = append(frame, ETX)

	return frame, nil
}

// EncodeResponse builds an affirmative response frame: STX field[FS field]... ETX ACK.
func EncodeResponse(fields ...string) ([]byte, error) {
	frame := []byte{STX}
	for i, field := range fields {
		if err := validateField(field); err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
		if i > 0 {
			frame = append(frame, FS)
		}
		frame = append(frame, field...)
	}
	return append(frame, ETX, ACK), nil
}

// DecodeCommand splits an outbound frame into its command code and fields
func DecodeCommand(frame []byte) (byte, []string, error) {
	if len(frame) < 3 || frame[0] != STX || frame[len(frame)-1] != ETX {
		return 0, nil, fmt.Errorf("%w: command frame %x", ErrMalformedFrame, frame)
	}

	code := frame[1]
	rest := frame[2 : len(frame)-1]
	if len(rest) == 0 {
		return code, nil, nil
	}
	if rest[0] != FS {
		return 0, nil, fmt.Errorf("%w: missing separator after command code", ErrMalformedFrame)
	}

	return code, splitFields(rest[1:]), nil
}

// Decode strips the response envelope and splits the payload into fields.
// Leading BEL bytes are tolerated. An empty payload yields no fields.
func Decode(raw []byte) ([]string, error) {
	payload := bytes.TrimLeft(raw, string([]byte{BEL}))

	if len(payload) < 3 || payload[0] != STX || !bytes.HasSuffix(payload, []byte{ETX, ACK}) {
		return nil, fmt.Errorf("%w: response %x", ErrMalformedFrame, raw)
	}

	body := payload[1 : len(payload)-2]
	if len(body) == 0 {
		return nil, nil
	}

	return splitFields(body), nil
}

// DecodeN decodes a response and checks it carries exactly n fields
func DecodeN(raw []byte, n int) ([]string, error) {
	fields, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	if len(fields) != n {
		return nil, fmt.Errorf("%w: expected %d fields, got %d", ErrMalformedFrame, n, len(fields))
	}
	return fields, nil
}

// IsAffirmative reports whether raw starts with STX or BEL and ends with ETX ACK
func IsAffirmative(raw []byte) bool {
	if len(raw) < 3 {
		return false
	}
	if raw[0] != STX && raw[0] != BEL {
		return false
	}
	return raw[len(raw)-2] == ETX && raw[len(raw)-1] == ACK
}

// IsNAK reports whether raw is the bare negative acknowledgement
func IsNAK(raw []byte) bool {
	return len(raw) == 1 && raw[0] == NAK
}

// EndsWithNAK reports whether raw was terminated by a NAK byte
func EndsWithNAK(raw []byte) bool {
	return len(raw) > 0 && raw[len(raw)-1] == NAK
}

// IsACK reports whether raw is the bare positive acknowledgement
func IsACK(raw []byte) bool {
	return len(raw) == 1 && raw[0] == ACK
}

// IsTerminated reports whether a response buffer is complete
func IsTerminated(raw []byte) bool {
	return bytes.HasSuffix(raw, []byte{ETX, ACK}) || EndsWithNAK(raw)
}

func splitFields(body []byte) []string {
	parts := bytes.Split(body, []byte{FS})
	fields := make([]string, len(parts))
	for i, part := range parts {
		fields[i] = string(part)
	}
	return fields
}

func validateField(field string) error {
	for i := 0; i < len(field); i++ {
		if field[i] < 0x20 || field[i] > 0x7E {
			return fmt.Errorf("%w: byte 0x%02x at offset %d", ErrInvalidField, field[i], i)
		}
	}
	return nil
}
