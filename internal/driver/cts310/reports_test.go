package cts310

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fiscal-hub/internal/protocol"
)

func TestPrintXReport(t *testing.T) {
	t.Parallel()
	d, mock := newTestDriver(t)
	mock.Queue(CmdXReport, protocol.Response(), nak, []byte{protocol.STX, '0'})

	require.NoError(t, d.PrintXReport(context.Background()))

	err := d.PrintXReport(context.Background())
	require.ErrorIs(t, err, ErrNothingToReport)
	require.ErrorIs(t, err, ErrDeviceRejected)

	err = d.PrintXReport(context.Background())
	require.ErrorIs(t, err, ErrDeviceRejected)
	assert.NotErrorIs(t, err, ErrNothingToReport)
}

func TestPrintZReport(t *testing.T) {
	t.Parallel()
	d, mock := newTestDriver(t)
	mock.Queue(CmdZReport, protocol.Response(), protocol.Response(), nak)

	require.NoError(t, d.PrintZReport(context.Background(), true))
	require.NoError(t, d.PrintZReport(context.Background(), false))
	require.ErrorIs(t, d.PrintZReport(context.Background(), true), ErrNothingToReport)

	assert.Equal(t, [][]string{{"1"}, {"0"}, {"1"}}, mock.FieldsOf(CmdZReport))
}

func TestPrintZByDateRange_CountsReports(t *testing.T) {
	t.Parallel()

	for n := 0; n <= 4; n++ {
		n := n
		t.Run(fmt.Sprintf("%d reports", n), func(t *testing.T) {
			t.Parallel()
			d, mock := newTestDriver(t)
			mock.Queue(CmdZByDate, protocol.Response())
			for i := 0; i < n; i++ {
				mock.Queue(CmdNextZ, protocol.Response())
			}
			mock.Queue(CmdNextZ, nak)
			mock.Queue(CmdEndZ, protocol.Response())

			start := time.Date(2024, time.September, 1, 0, 0, 0, 0, time.Local)
			end := time.Date(2024, time.September, 30, 0, 0, 0, 0, time.Local)
			count, err := d.PrintZByDateRange(context.Background(), start, end)

			assert.Equal(t, n, count)
			if n == 0 {
				require.ErrorIs(t, err, ErrNoReports)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, n+1, mock.Count(CmdNextZ))
			assert.Equal(t, 1, mock.Count(CmdEndZ), "the sequence is always ended")
			assert.Equal(t, [][]string{{"0", "01092024", "30092024"}}, mock.FieldsOf(CmdZByDate))
		})
	}
}

func TestPrintZByDateRange_InitRejected(t *testing.T) {
	t.Parallel()
	d, mock := newTestDriver(t)

	_, err := d.PrintZByDateRange(context.Background(), time.Now(), time.Now())
	require.ErrorIs(t, err, ErrDeviceRejected)
	assert.Equal(t, []byte{CmdZByDate}, mock.SentCodes())
}

func TestPrintZByDateRange_StopsOnUnexpectedAnswer(t *testing.T) {
	t.Parallel()
	d, mock := newTestDriver(t)
	mock.Queue(CmdZByDate, protocol.Response())
	mock.Queue(CmdNextZ, protocol.Response(), ack)

	count, err := d.PrintZByDateRange(context.Background(), time.Now(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 2, mock.Count(CmdNextZ))
	assert.Equal(t, 1, mock.Count(CmdEndZ))
}

func TestPrintZByDateRange_BoundedLoop(t *testing.T) {
	t.Parallel()

	mock := protocol.NewMockTransport("/dev/ttyTEST0")
	d := NewCTS310DriverWithOptions(mock, Options{CloseAttempts: 2, MaxRangeReports: 5}, zap.NewNop())
	mock.Queue(CmdZByDate, protocol.Response())
	mock.SetDefault(CmdNextZ, protocol.Response())

	count, err := d.PrintZByDateRange(context.Background(), time.Now(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 5, count)
	assert.Equal(t, 5, mock.Count(CmdNextZ))
}

func TestPrintZByDateRange_TransportFaultStillEnds(t *testing.T) {
	t.Parallel()
	d, mock := newTestDriver(t)
	mock.Queue(CmdZByDate, protocol.Response())
	mock.QueueError(CmdNextZ, nil, protocol.ErrTimeout)

	count, err := d.PrintZByDateRange(context.Background(), time.Now(), time.Now())
	require.ErrorIs(t, err, protocol.ErrTimeout)
	assert.Zero(t, count)
	assert.Equal(t, 1, mock.Count(CmdEndZ))
}

func TestPrintZByNumberRange(t *testing.T) {
	t.Parallel()
	d, mock := newTestDriver(t)
	mock.Queue(CmdZByNumber, protocol.Response())
	mock.SetDefault(CmdNextZ, protocol.Response())
	mock.Queue(CmdEndZ, protocol.Response())

	count, err := d.PrintZByNumberRange(context.Background(), 7, 9)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, 3, mock.Count(CmdNextZ), "never asks for more than the range holds")
	assert.Equal(t, [][]string{{"0007", "0009"}}, mock.FieldsOf(CmdZByNumber))
	assert.Equal(t, []byte{CmdZByNumber, CmdNextZ, CmdNextZ, CmdNextZ, CmdEndZ}, mock.SentCodes())
}

func TestPrintZByNumberRange_Single(t *testing.T) {
	t.Parallel()
	d, mock := newTestDriver(t)
	mock.Queue(CmdZByNumber, protocol.Response())
	mock.Queue(CmdNextZ, nak)

	count, err := d.PrintZByNumberRange(context.Background(), 12, 12)
	require.ErrorIs(t, err, ErrNoReports)
	assert.Zero(t, count)
	assert.Equal(t, [][]string{{"0012", "0012"}}, mock.FieldsOf(CmdZByNumber))
}

func TestPrintZByNumberRange_Invalid(t *testing.T) {
	t.Parallel()
	d, mock := newTestDriver(t)

	_, err := d.PrintZByNumberRange(context.Background(), 9, 7)
	require.Error(t, err)
	assert.Empty(t, mock.Sent())
}

func TestReprintDocument_ProbesTypesInOrder(t *testing.T) {
	t.Parallel()
	d, mock := newTestDriver(t)
	mock.Queue(CmdReprint, nak, []byte{protocol.STX, '1', protocol.ETX, protocol.NAK}, protocol.Response())

	docType, err := d.ReprintDocument(context.Background(), "00000025")
	require.NoError(t, err)
	assert.Equal(t, "03", docType)

	assert.Equal(t, [][]string{
		{"1", "01", "00000025"},
		{"1", "02", "00000025"},
		{"1", "03", "00000025"},
	}, mock.FieldsOf(CmdReprint))
}

func TestReprintDocument_NotFound(t *testing.T) {
	t.Parallel()
	d, mock := newTestDriver(t)

	_, err := d.ReprintDocument(context.Background(), "99")
	require.ErrorIs(t, err, ErrDocumentNotFound)
	assert.Equal(t, 10, mock.Count(CmdReprint))

	var types []string
	for _, fields := range mock.FieldsOf(CmdReprint) {
		types = append(types, fields[1])
	}
	assert.Equal(t, reprintDocumentTypes, types)
}

func TestReprintDocument_ContinuesPastTimeout(t *testing.T) {
	t.Parallel()
	d, mock := newTestDriver(t)
	mock.Queue(CmdReprint, nak)
	mock.QueueError(CmdReprint, nil, protocol.ErrTimeout)
	mock.Queue(CmdReprint, nak, protocol.Response())

	docType, err := d.ReprintDocument(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "04", docType)
	assert.Equal(t, 4, mock.Count(CmdReprint))
}

func TestReprintDocument_AllTypesFaulted(t *testing.T) {
	t.Parallel()
	d, mock := newTestDriver(t)
	for range reprintDocumentTypes {
		mock.QueueError(CmdReprint, nil, protocol.ErrTimeout)
	}

	_, err := d.ReprintDocument(context.Background(), "7")
	require.ErrorIs(t, err, protocol.ErrTimeout)
	assert.True(t, protocol.IsTransportFault(err))
	assert.Equal(t, 10, mock.Count(CmdReprint))
}

func TestReprintDocument_SomeTypesFaultedIsNotFound(t *testing.T) {
	t.Parallel()
	d, mock := newTestDriver(t)
	mock.QueueError(CmdReprint, nil, protocol.ErrTimeout)

	_, err := d.ReprintDocument(context.Background(), "7")
	require.ErrorIs(t, err, ErrDocumentNotFound)
	assert.Equal(t, 10, mock.Count(CmdReprint))
}

func TestReprintDocument_UnusableChannelStops(t *testing.T) {
	t.Parallel()
	d, mock := newTestDriver(t)
	mock.QueueError(CmdReprint, nil, protocol.ErrChannelUnusable)

	_, err := d.ReprintDocument(context.Background(), "7")
	require.ErrorIs(t, err, protocol.ErrChannelUnusable)
	assert.Equal(t, 1, mock.Count(CmdReprint))
}
