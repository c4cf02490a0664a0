package protocol

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// fakePort replays a scripted byte stream one byte per Read call.
// Once the stream is drained Read reports an idle poll (0, nil).
type fakePort struct {
	mutex    sync.Mutex
	stream   []byte
	written  []byte
	writeErr error
	readErr  error
	closed   bool
	timeout  time.Duration
}

func (p *fakePort) SetMode(*serial.Mode) error { return nil }

func (p *fakePort) Read(b []byte) (int, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.readErr != nil {
		return 0, p.readErr
	}
	if len(p.stream) == 0 {
		time.Sleep(time.Millisecond)
		return 0, nil
	}
	b[0] = p.stream[0]
	p.stream = p.stream[1:]
	return 1, nil
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.writeErr != nil {
		return 0, p.writeErr
	}
	p.written = append(p.written, b...)
	return len(b), nil
}

func (p *fakePort) Drain() error             { return nil }
func (p *fakePort) ResetInputBuffer() error  { return nil }
func (p *fakePort) ResetOutputBuffer() error { return nil }
func (p *fakePort) SetDTR(bool) error        { return nil }
func (p *fakePort) SetRTS(bool) error        { return nil }

func (p *fakePort) GetModemStatusBits() (*serial.ModemStatusBits, error) {
	return &serial.ModemStatusBits{}, nil
}

func (p *fakePort) SetReadTimeout(t time.Duration) error {
	p.timeout = t
	return nil
}

func (p *fakePort) Close() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.closed = true
	return nil
}

func (p *fakePort) Break(time.Duration) error { return nil }

func newTestConnection(port *fakePort, timeout time.Duration) *SerialConnection {
	cfg := &SerialConfig{Port: "/dev/ttyTEST0", BaudRate: 9600, DataBits: 8, StopBits: 1, Parity: "none", Timeout: 10 * time.Millisecond}
	opener := func(name string, mode *serial.Mode) (serial.Port, error) {
		if name != cfg.Port || mode.BaudRate != 9600 {
			return nil, errors.New("unexpected port settings")
		}
		return port, nil
	}
	return NewSerialConnectionWithOpener(cfg, timeout, opener, zap.NewNop())
}

func TestSerialConnection_Exchange(t *testing.T) {
	t.Parallel()

	reply := Response("0", "2", "0000")
	port := &fakePort{stream: append(append([]byte(nil), reply...), 0xFF)}
	conn := newTestConnection(port, time.Second)

	frame, err := Encode(0x20)
	require.NoError(t, err)

	raw, err := conn.Exchange(context.Background(), frame, true)
	require.NoError(t, err)
	assert.Equal(t, reply, raw, "reading stops at ETX ACK")
	assert.Equal(t, []byte(frame), port.written)
	assert.True(t, port.closed, "port is closed after every exchange")
	assert.Equal(t, 10*time.Millisecond, port.timeout)

	stats := conn.Stats()
	assert.EqualValues(t, 1, stats.OperationCount)
	assert.EqualValues(t, len(frame), stats.BytesWritten)
	assert.EqualValues(t, len(reply), stats.BytesRead)
}

func TestSerialConnection_StopsOnNAK(t *testing.T) {
	t.Parallel()

	port := &fakePort{stream: []byte{NAK, STX, ETX, ACK}}
	conn := newTestConnection(port, time.Second)

	raw, err := conn.Exchange(context.Background(), Frame{STX, 0x46, ETX}, true)
	require.NoError(t, err)
	assert.Equal(t, []byte{NAK}, raw)
}

func TestSerialConnection_SettledAck(t *testing.T) {
	t.Parallel()

	port := &fakePort{stream: []byte{BEL, BEL, ACK}}
	conn := newTestConnection(port, 2*time.Second)

	start := time.Now()
	raw, err := conn.Exchange(context.Background(), Frame{STX, 0x46, ETX}, true)
	require.NoError(t, err)
	assert.Equal(t, []byte{BEL, BEL, ACK}, raw)
	assert.Less(t, time.Since(start), time.Second, "a bare acknowledgement completes once the line is idle")
}

func TestSerialConnection_Timeout(t *testing.T) {
	t.Parallel()

	port := &fakePort{stream: []byte{STX, '1'}}
	conn := newTestConnection(port, 50*time.Millisecond)

	raw, err := conn.Exchange(context.Background(), Frame{STX, 0x20, ETX}, true)
	require.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, []byte{STX, '1'}, raw, "partial buffer is returned on timeout")
	assert.True(t, IsTransportFault(err))
	assert.EqualValues(t, 1, conn.Stats().TimeoutCount)
}

func TestSerialConnection_WriteFailureIsUnusableChannel(t *testing.T) {
	t.Parallel()

	port := &fakePort{writeErr: errors.New("device disconnected")}
	conn := newTestConnection(port, time.Second)

	_, err := conn.Exchange(context.Background(), Frame{STX, 0x20, ETX}, true)
	require.ErrorIs(t, err, ErrChannelUnusable)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "write", te.Op)
	assert.Equal(t, "/dev/ttyTEST0", te.Port)
}

func TestSerialConnection_OpenFailure(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	cfg := &SerialConfig{Port: "/dev/ttyMISSING", BaudRate: 9600}
	conn := NewSerialConnectionWithOpener(cfg, time.Second, func(string, *serial.Mode) (serial.Port, error) {
		return nil, errors.New("no such file")
	}, zap.New(core))

	_, err := conn.Exchange(context.Background(), Frame{STX, 0x20, ETX}, true)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrChannelUnusable)
	assert.True(t, IsTransportFault(err))

	entries := logs.FilterMessage("Device connection event").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.ErrorLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "open", fields["action"])
	assert.Equal(t, false, fields["success"])
	assert.Equal(t, "/dev/ttyMISSING", fields["port"])
}

func TestSerialConnection_NoResponseExpected(t *testing.T) {
	t.Parallel()

	port := &fakePort{}
	conn := newTestConnection(port, time.Second)

	raw, err := conn.Exchange(context.Background(), Frame{STX, 0x77, ETX}, false)
	require.NoError(t, err)
	assert.Nil(t, raw)
	assert.Equal(t, []byte{STX, 0x77, ETX}, port.written)
}

func TestSerialConfig_Mode(t *testing.T) {
	t.Parallel()

	mode := (&SerialConfig{BaudRate: 19200, DataBits: 7, StopBits: 2, Parity: "even"}).Mode()
	assert.Equal(t, 19200, mode.BaudRate)
	assert.Equal(t, 7, mode.DataBits)
	assert.Equal(t, serial.TwoStopBits, mode.StopBits)
	assert.Equal(t, serial.EvenParity, mode.Parity)

	mode = (&SerialConfig{BaudRate: 9600, DataBits: 8, StopBits: 1}).Mode()
	assert.Equal(t, serial.OneStopBit, mode.StopBits)
	assert.Equal(t, serial.NoParity, mode.Parity)
}
