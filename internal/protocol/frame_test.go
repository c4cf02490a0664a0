package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	t.Parallel()

	frame, err := Encode(0x42, "0")
	require.NoError(t, err)
	assert.Equal(t, "02421c3003", frame.Hex())

	frame, err = Encode(0x20)
	require.NoError(t, err)
	assert.Equal(t, "022003", frame.Hex())

	frame, err = Encode(0x23, "03092024", "001127")
	require.NoError(t, err)
	assert.Equal(t, "02231c30333039323032341c30303131323703", frame.Hex())
	assert.Zero(t, len(frame.Hex())%2)
}

func TestEncode_RejectsControlBytes(t *testing.T) {
	t.Parallel()

	for _, field := range []string{"a\x1cb", "\x02", "caf\xc3\xa9", "tab\there"} {
		_, err := Encode(0x4A, field)
		require.ErrorIs(t, err, ErrInvalidField, "field %q", field)
	}
}

func TestCommandRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		code   byte
		fields []string
	}{
		{name: "no fields", code: 0x45},
		{name: "single empty field", code: 0x4A, fields: []string{""}},
		{name: "header", code: 0x40, fields: []string{"1", "9001", "1001", "John Doe", "123456789", "", ""}},
		{name: "line", code: 0x41, fields: []string{"01", "", "", "Coffee", " ", "2000", "155", "Units", "1", "0", "000", "000"}},
		{name: "punctuation", code: 0x4A, fields: []string{"TCPOS Check #42", "~!@#$%^&*()_+{}|:\"<>?"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			frame, err := Encode(tt.code, tt.fields...)
			require.NoError(t, err)

			code, fields, err := DecodeCommand(frame)
			require.NoError(t, err)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.fields, fields)
		})
	}
}

func TestResponseRoundTrip(t *testing.T) {
	t.Parallel()

	tests := [][]string{
		{"03092024", "001127"},
		{"0001"},
		{"0", "2", "0600", ""},
		{"", "", "x"},
	}

	for _, fields := range tests {
		raw, err := EncodeResponse(fields...)
		require.NoError(t, err)

		decoded, err := Decode(raw)
		require.NoError(t, err)
		assert.Equal(t, fields, decoded)
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()

	t.Run("datetime response", func(t *testing.T) {
		raw := []byte{0x02, '0', '3', '0', '9', '2', '0', '2', '4', 0x1c, '0', '0', '1', '1', '2', '7', 0x03, 0x06}
		fields, err := Decode(raw)
		require.NoError(t, err)
		assert.Equal(t, []string{"03092024", "001127"}, fields)
	})

	t.Run("leading bel bytes", func(t *testing.T) {
		raw := append([]byte{BEL, BEL, BEL}, Response("00437200", "31")...)
		fields, err := Decode(raw)
		require.NoError(t, err)
		assert.Equal(t, []string{"00437200", "31"}, fields)
	})

	t.Run("empty payload", func(t *testing.T) {
		fields, err := Decode([]byte{STX, ETX, ACK})
		require.NoError(t, err)
		assert.Empty(t, fields)
	})

	malformed := map[string][]byte{
		"nak":             {NAK},
		"missing ack":     {STX, '1', ETX},
		"missing stx":     {'1', ETX, ACK},
		"empty":           nil,
		"truncated":       {STX, '1', '2'},
		"bel without stx": {BEL, BEL, ACK},
	}
	for name, raw := range malformed {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(raw)
			require.ErrorIs(t, err, ErrMalformedFrame)
		})
	}
}

func TestDecodeN(t *testing.T) {
	t.Parallel()

	_, err := DecodeN(Response("a", "b"), 3)
	require.ErrorIs(t, err, ErrMalformedFrame)

	fields, err := DecodeN(Response("a", "b", "c"), 3)
	require.NoError(t, err)
	assert.Len(t, fields, 3)
}

func TestIsAffirmative(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  []byte
		want bool
	}{
		{name: "stx etx ack", raw: []byte{STX, '1', ETX, ACK}, want: true},
		{name: "bel etx ack", raw: []byte{BEL, BEL, STX, '1', ETX, ACK}, want: true},
		{name: "empty stx etx ack", raw: []byte{STX, ETX, ACK}, want: true},
		{name: "bare nak", raw: []byte{NAK}, want: false},
		{name: "ends with nak", raw: []byte{STX, '1', ETX, NAK}, want: false},
		{name: "missing end marker", raw: []byte{STX, '1', ACK}, want: false},
		{name: "bare ack", raw: []byte{ACK}, want: false},
		{name: "cancel echo", raw: []byte{BEL, BEL, ACK}, want: false},
		{name: "empty", raw: nil, want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsAffirmative(tt.raw))
		})
	}
}

func TestBareSignals(t *testing.T) {
	t.Parallel()

	assert.True(t, IsNAK([]byte{NAK}))
	assert.False(t, IsNAK([]byte{STX, NAK}))
	assert.True(t, EndsWithNAK([]byte{STX, NAK}))
	assert.True(t, IsACK([]byte{ACK}))
	assert.False(t, IsACK([]byte{ETX, ACK}))
	assert.True(t, IsTerminated([]byte{STX, ETX, ACK}))
	assert.True(t, IsTerminated([]byte{NAK}))
	assert.False(t, IsTerminated([]byte{STX, '1'}))
}
