package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fiscal-hub/internal/driver/cts310"
	"fiscal-hub/internal/model"
	"fiscal-hub/internal/protocol"
	"fiscal-hub/internal/repository"
)

func newTestReportService(t *testing.T, mock *protocol.MockTransport) (*ReportService, *fakeScanner, *recordingPublisher) {
	t.Helper()

	events := &recordingPublisher{}
	scanner := &fakeScanner{transport: mock}
	manager := newTestManager(t, testPrinterConfig(), scanner, events)
	return NewReportService(manager, repository.NewMemoryJournal(10), events, zap.NewNop()), scanner, events
}

func TestPrintXReport(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		reply   []byte
		success bool
		message string
		errText string
	}{
		{name: "printed", reply: protocol.Response("0"), success: true, message: "X report printed"},
		{name: "nothing to report", reply: []byte{protocol.NAK}, errText: "no transactions to report or fiscal day already closed"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mock := protocol.NewMockTransport("/dev/ttyUSB0")
			mock.Queue(cts310.CmdXReport, tt.reply)
			svc, _, events := newTestReportService(t, mock)

			result, _ := svc.PrintXReport(context.Background())
			assert.Equal(t, model.ReportX, result.Kind)
			assert.Equal(t, tt.success, result.Success)
			assert.Equal(t, tt.message, result.Message)
			assert.Equal(t, tt.errText, result.Error)
			assert.NotEqual(t, uuid.Nil, result.ID)
			assert.Contains(t, events.types(), model.EventReportCompleted)
		})
	}
}

func TestPrintZReport(t *testing.T) {
	t.Parallel()

	mock := protocol.NewMockTransport("/dev/ttyUSB0")
	mock.SetDefault(cts310.CmdZReport, protocol.Response("0"))
	svc, _, _ := newTestReportService(t, mock)

	closed, _ := svc.PrintZReport(context.Background(), false)
	require.True(t, closed.Success, closed.Error)
	assert.Equal(t, model.ReportZ, closed.Kind)

	copied, _ := svc.PrintZReport(context.Background(), true)
	require.True(t, copied.Success, copied.Error)
	assert.Equal(t, model.ReportZCopy, copied.Kind)

	assert.Equal(t, [][]string{{"1"}, {"0"}}, mock.FieldsOf(cts310.CmdZReport))

	history, err := svc.History(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.ReportZCopy, history[0].Kind)
}

func TestPrintZByDate(t *testing.T) {
	t.Parallel()

	mock := protocol.NewMockTransport("/dev/ttyUSB0")
	mock.Queue(cts310.CmdZByDate, protocol.Response("0"))
	mock.Queue(cts310.CmdNextZ, protocol.Response("0"), protocol.Response("0"))
	mock.Queue(cts310.CmdEndZ, protocol.Response("0"))
	svc, _, _ := newTestReportService(t, mock)

	result, _ := svc.PrintZByDate(context.Background(), model.DateRangeRequest{StartDate: "2024-09-01", EndDate: "2024-09-30"})
	require.True(t, result.Success, result.Error)
	assert.Equal(t, 2, result.ReportsCount)
	assert.Equal(t, "2 Z reports printed", result.Message)
	assert.Equal(t, [][]string{{"0", "01092024", "30092024"}}, mock.FieldsOf(cts310.CmdZByDate))
	assert.Equal(t, 1, mock.Count(cts310.CmdEndZ))
}

func TestPrintZByDate_EndDefaultsToToday(t *testing.T) {
	t.Parallel()

	mock := protocol.NewMockTransport("/dev/ttyUSB0")
	mock.Queue(cts310.CmdZByDate, protocol.Response("0"))
	mock.Queue(cts310.CmdEndZ, protocol.Response("0"))
	svc, _, _ := newTestReportService(t, mock)
	svc.now = func() time.Time { return time.Date(2024, 9, 3, 18, 45, 0, 0, time.Local) }

	result, _ := svc.PrintZByDate(context.Background(), model.DateRangeRequest{StartDate: "2024-09-01"})
	assert.False(t, result.Success)
	assert.Equal(t, "no reports found", result.Error)
	assert.Equal(t, "2024-09-03", result.EndDate)
	assert.Equal(t, [][]string{{"0", "01092024", "03092024"}}, mock.FieldsOf(cts310.CmdZByDate))
}

func TestPrintZByDate_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  model.DateRangeRequest
	}{
		{name: "bad start", req: model.DateRangeRequest{StartDate: "01-09-2024"}},
		{name: "bad end", req: model.DateRangeRequest{StartDate: "2024-09-01", EndDate: "2024/09/30"}},
		{name: "end before start", req: model.DateRangeRequest{StartDate: "2024-09-30", EndDate: "2024-09-01"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mock := protocol.NewMockTransport("/dev/ttyUSB0")
			svc, scanner, _ := newTestReportService(t, mock)

			result, err := svc.PrintZByDate(context.Background(), tt.req)
			require.ErrorIs(t, err, ErrInvalidRequest)
			assert.False(t, result.Success)
			assert.Zero(t, scanner.count(), "device never contacted")
		})
	}
}

func TestPrintZByNumberRange(t *testing.T) {
	t.Parallel()

	mock := protocol.NewMockTransport("/dev/ttyUSB0")
	mock.Queue(cts310.CmdZByNumber, protocol.Response("0"))
	mock.Queue(cts310.CmdNextZ, protocol.Response("0"), protocol.Response("0"), protocol.Response("0"), protocol.Response("0"))
	mock.Queue(cts310.CmdEndZ, protocol.Response("0"))
	svc, _, _ := newTestReportService(t, mock)

	result, _ := svc.PrintZByNumberRange(context.Background(), model.NumberRangeRequest{StartNumber: 12, EndNumber: 14})
	require.True(t, result.Success, result.Error)
	assert.Equal(t, 3, result.ReportsCount, "loop bounded by the range size")
	assert.Equal(t, [][]string{{"0012", "0014"}}, mock.FieldsOf(cts310.CmdZByNumber))
}

func TestPrintZByNumber(t *testing.T) {
	t.Parallel()

	mock := protocol.NewMockTransport("/dev/ttyUSB0")
	mock.Queue(cts310.CmdZByNumber, protocol.Response("0"))
	mock.Queue(cts310.CmdNextZ, protocol.Response("0"))
	mock.Queue(cts310.CmdEndZ, protocol.Response("0"))
	svc, _, _ := newTestReportService(t, mock)

	result, _ := svc.PrintZByNumber(context.Background(), 7)
	require.True(t, result.Success, result.Error)
	assert.Equal(t, model.ReportZByNumber, result.Kind)
	assert.Equal(t, 1, result.ReportsCount)
	assert.Equal(t, [][]string{{"0007", "0007"}}, mock.FieldsOf(cts310.CmdZByNumber))
}

func TestPrintZByNumberRange_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		start, end int
	}{
		{name: "zero start", start: 0, end: 5},
		{name: "reversed", start: 5, end: 4},
		{name: "above four digits", start: 1, end: 10000},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mock := protocol.NewMockTransport("/dev/ttyUSB0")
			svc, scanner, _ := newTestReportService(t, mock)

			result, err := svc.PrintZByNumberRange(context.Background(), model.NumberRangeRequest{StartNumber: tt.start, EndNumber: tt.end})
			require.ErrorIs(t, err, ErrInvalidRequest)
			assert.False(t, result.Success)
			assert.Zero(t, scanner.count())
		})
	}
}

func TestReprintDocument(t *testing.T) {
	t.Parallel()

	mock := protocol.NewMockTransport("/dev/ttyUSB0")
	mock.Queue(cts310.CmdReprint, []byte{protocol.NAK}, []byte{protocol.NAK}, protocol.Response("0"))
	svc, _, _ := newTestReportService(t, mock)

	result, _ := svc.ReprintDocument(context.Background(), " 00000031 ")
	require.True(t, result.Success, result.Error)
	assert.Equal(t, "03", result.DocumentType)
	assert.Equal(t, "00000031", result.DocumentNumber)
	assert.Equal(t, [][]string{
		{"1", "01", "00000031"},
		{"1", "02", "00000031"},
		{"1", "03", "00000031"},
	}, mock.FieldsOf(cts310.CmdReprint))
}

func TestReprintDocument_NotFound(t *testing.T) {
	t.Parallel()

	mock := protocol.NewMockTransport("/dev/ttyUSB0")
	svc, _, _ := newTestReportService(t, mock)

	result, err := svc.ReprintDocument(context.Background(), "42")
	require.ErrorIs(t, err, cts310.ErrDocumentNotFound)
	assert.False(t, result.Success)
	assert.Equal(t, "document not found", result.Error)
	assert.Equal(t, 10, mock.Count(cts310.CmdReprint))
}

func TestReprintDocument_InvalidNumber(t *testing.T) {
	t.Parallel()

	mock := protocol.NewMockTransport("/dev/ttyUSB0")
	svc, scanner, _ := newTestReportService(t, mock)

	for _, number := range []string{"", "12a"} {
		result, err := svc.ReprintDocument(context.Background(), number)
		require.ErrorIs(t, err, ErrInvalidRequest)
		assert.False(t, result.Success)
	}
	assert.Zero(t, scanner.count())
}

func TestCancelDocument(t *testing.T) {
	t.Parallel()

	mock := protocol.NewMockTransport("/dev/ttyUSB0")
	mock.Queue(cts310.CmdCancelDocument, []byte{protocol.BEL, protocol.BEL, protocol.ACK})
	svc, _, _ := newTestReportService(t, mock)

	result, _ := svc.CancelDocument(context.Background())
	require.True(t, result.Success, result.Error)
	assert.Equal(t, "Document cancelled", result.Message)

	// no open document answers NAK
	result, _ = svc.CancelDocument(context.Background())
	assert.True(t, result.Success)
}

func TestReport_TransportFault(t *testing.T) {
	t.Parallel()

	mock := protocol.NewMockTransport("/dev/ttyUSB0")
	mock.QueueError(cts310.CmdXReport, nil, protocol.ErrTimeout)
	svc, scanner, events := newTestReportService(t, mock)

	result, err := svc.PrintXReport(context.Background())
	require.True(t, protocol.IsTransportFault(err))
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "printer not reachable")
	assert.False(t, svc.printers.Connection().Online)
	assert.Equal(t, 1, scanner.count())
	assert.Contains(t, events.types(), model.EventPrinterOffline)
}
