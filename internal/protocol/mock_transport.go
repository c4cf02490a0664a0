// internal/protocol/mock_transport.go
package protocol

import (
	"context"
	"sync"
)

type mockReply struct {
	raw []byte
	err error
}

// MockTransport is a scripted Transport for tests. Replies are queued per
// command code; once a queue is drained the code's default reply is used,
// and without a default the transport answers with a bare NAK.
type MockTransport struct {
	mutex    sync.Mutex
	port     string
	queues   map[byte][]mockReply
	defaults map[byte]mockReply
	sent     []Frame
}

// NewMockTransport creates a scripted transport
func NewMockTransport(port string) *MockTransport {
	return &MockTransport{
		port:     port,
		queues:   make(map[byte][]mockReply),
		defaults: make(map[byte]mockReply),
	}
}

// Queue appends one-shot replies for a command code
func (m *MockTransport) Queue(code byte, replies ...[]byte) *MockTransport {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for _, raw := range replies {
		m.queues[code] = append(m.queues[code], mockReply{raw: raw})
	}
	return m
}

// QueueError appends a one-shot failed exchange for a command code
func (m *MockTransport) QueueError(code byte, raw []byte, err error) *MockTransport {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.queues[code] = append(m.queues[code], mockReply{raw: raw, err: err})
	return m
}

// SetDefault sets the reply used when the queue for code is empty
func (m *MockTransport) SetDefault(code byte, raw []byte) *MockTransport {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.defaults[code] = mockReply{raw: raw}
	return m
}

// Exchange records the frame and returns the scripted reply
func (m *MockTransport) Exchange(ctx context.Context, frame Frame, expectResponse bool) ([]byte, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.sent = append(m.sent, append(Frame(nil), frame...))
	if len(frame) < 2 {
		return nil, &TransportError{Op: "write", Port: m.port, Err: ErrMalformedFrame}
	}
	code := frame[1]

	reply := mockReply{raw: []byte{NAK}}
	if queue := m.queues[code]; len(queue) > 0 {
		reply = queue[0]
		m.queues[code] = queue[1:]
	} else if def, ok := m.defaults[code]; ok {
		reply = def
	}

	if !expectResponse {
		return nil, reply.err
	}
	if reply.err != nil {
		return reply.raw, &TransportError{Op: "read", Port: m.port, Err: reply.err}
	}
	return append([]byte(nil), reply.raw...), nil
}

// Port returns the endpoint name
func (m *MockTransport) Port() string {
	return m.port
}

// Stats returns the number of recorded exchanges
func (m *MockTransport) Stats() ProtocolStats {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return ProtocolStats{OperationCount: int64(len(m.sent))}
}

// Sent returns every frame written so far
func (m *MockTransport) Sent() []Frame {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([]Frame(nil), m.sent...)
}

// SentCodes returns the command code of every frame written so far
func (m *MockTransport) SentCodes() []byte {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	codes := make([]byte, 0, len(m.sent))
	for _, frame := range m.sent {
		if len(frame) > 1 {
			codes = append(codes, frame[1])
		}
	}
	return codes
}

// Count returns how many frames with code were written
func (m *MockTransport) Count(code byte) int {
	count := 0
	for _, c := range m.SentCodes() {
		if c == code {
			count++
		}
	}
	return count
}

// FieldsOf returns the decoded fields of every frame written with code
func (m *MockTransport) FieldsOf(code byte) [][]string {
	var out [][]string
	for _, frame := range m.Sent() {
		c, fields, err := DecodeCommand(frame)
		if err == nil && c == code {
			out = append(out, fields)
		}
	}
	return out
}

// Response builds an affirmative response frame, panicking on invalid fields.
// It is meant for scripting replies in tests.
func Response(fields ...string) []byte {
	raw, err := EncodeResponse(fields...)
	if err != nil {
		panic(err)
	}
	return raw
}
