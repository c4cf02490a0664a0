package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fiscal-hub/internal/config"
	"fiscal-hub/internal/model"
	"fiscal-hub/internal/protocol"
)

// fakeProcessor answers by file base name
type fakeProcessor struct {
	mu       sync.Mutex
	statuses map[string]model.PrintStatus
	errs     map[string]error
	calls    []string
}

func (p *fakeProcessor) ProcessFile(_ context.Context, path string) (*model.PrintOutcome, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	name := filepath.Base(path)
	p.calls = append(p.calls, name)
	if err, ok := p.errs[name]; ok {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		status, ok := p.statuses[name]
		if !ok {
			status = model.PrintStatusTransportFault
		}
		return &model.PrintOutcome{Status: status, ErrorMessage: err.Error()}, err
	}

	status, ok := p.statuses[name]
	if !ok {
		status = model.PrintStatusPrinted
	}
	return &model.PrintOutcome{Status: status}, nil
}

func (p *fakeProcessor) called() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func newTestWatcher(t *testing.T, processor Processor) (*Watcher, string) {
	t.Helper()

	dir := t.TempDir()
	cfg := &config.POSConfig{
		TransactionsFolder: dir,
		PollInterval:       time.Hour,
	}
	return New(cfg, processor, zap.NewNop()), dir
}

func writeExport(t *testing.T, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("<tx/>"), 0o644))
	return path
}

func TestScan_MarksByOutcome(t *testing.T) {
	t.Parallel()

	processor := &fakeProcessor{statuses: map[string]model.PrintStatus{
		"b.xml": model.PrintStatusNotPrintable,
		"c.XML": model.PrintStatusRejected,
	}}
	w, dir := newTestWatcher(t, processor)

	a := writeExport(t, dir, "a.xml")
	b := writeExport(t, dir, "b.xml")
	c := writeExport(t, dir, "c.XML")
	writeExport(t, dir, "notes.txt")

	result, err := w.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &ScanResult{Processed: 1, Skipped: 1, Failed: 1}, result)
	assert.Equal(t, []string{"a.xml", "b.xml", "c.XML"}, processor.called())

	assert.FileExists(t, a+SuffixProcessed)
	assert.FileExists(t, b+SuffixSkipped)
	assert.FileExists(t, c+SuffixFailed)
	assert.NoFileExists(t, a)

	// marked files are never offered again
	result, err = w.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &ScanResult{}, result)
	assert.Len(t, processor.called(), 3)
}

func TestScan_Recursive(t *testing.T) {
	t.Parallel()

	processor := &fakeProcessor{}
	w, dir := newTestWatcher(t, processor)

	nested := writeExport(t, dir, filepath.Join("2024", "09", "tx.xml"))

	result, err := w.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.FileExists(t, nested+SuffixProcessed)
}

func TestScan_ReplacesExistingMarker(t *testing.T) {
	t.Parallel()

	processor := &fakeProcessor{}
	w, dir := newTestWatcher(t, processor)

	path := writeExport(t, dir, "a.xml")
	require.NoError(t, os.WriteFile(path+SuffixProcessed, []byte("old"), 0o644))

	_, err := w.Scan(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(path + SuffixProcessed)
	require.NoError(t, err)
	assert.Equal(t, "<tx/>", string(data))
}

func TestScan_TransportFaultDefers(t *testing.T) {
	t.Parallel()

	processor := &fakeProcessor{errs: map[string]error{
		"b.xml": &protocol.TransportError{Op: "read", Port: "/dev/ttyUSB0", Err: protocol.ErrTimeout},
	}}
	w, dir := newTestWatcher(t, processor)

	a := writeExport(t, dir, "a.xml")
	b := writeExport(t, dir, "b.xml")
	c := writeExport(t, dir, "c.xml")

	result, err := w.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 2, result.Deferred)
	assert.Equal(t, []string{"a.xml", "b.xml"}, processor.called(), "pass ends at the fault")

	assert.FileExists(t, a+SuffixProcessed)
	assert.FileExists(t, b, "left for the next poll")
	assert.FileExists(t, c)
}

func TestScan_UnreadableFileContinues(t *testing.T) {
	t.Parallel()

	processor := &fakeProcessor{errs: map[string]error{
		"a.xml": fmt.Errorf("failed to open export: %w", os.ErrNotExist),
	}}
	w, dir := newTestWatcher(t, processor)

	writeExport(t, dir, "a.xml")
	b := writeExport(t, dir, "b.xml")

	result, err := w.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.FileExists(t, b+SuffixProcessed)
}

func TestRun_ChannelUnusableIsFatal(t *testing.T) {
	t.Parallel()

	cause := &protocol.TransportError{Op: "write", Port: "/dev/ttyUSB0", Err: protocol.ErrChannelUnusable}
	processor := &fakeProcessor{errs: map[string]error{"a.xml": cause}}
	w, dir := newTestWatcher(t, processor)

	path := writeExport(t, dir, "a.xml")

	err := w.Run(context.Background())
	require.ErrorIs(t, err, ErrFatal)
	require.ErrorIs(t, err, protocol.ErrChannelUnusable)
	assert.FileExists(t, path)
}

func TestRun_ChannelUnusableAfterCloseMarksFailed(t *testing.T) {
	t.Parallel()

	cause := &protocol.TransportError{Op: "write", Port: "/dev/ttyUSB0", Err: protocol.ErrChannelUnusable}
	processor := &fakeProcessor{
		statuses: map[string]model.PrintStatus{"a.xml": model.PrintStatusRejected},
		errs:     map[string]error{"a.xml": cause},
	}
	w, dir := newTestWatcher(t, processor)

	path := writeExport(t, dir, "a.xml")

	err := w.Run(context.Background())
	require.ErrorIs(t, err, ErrFatal)
	assert.FileExists(t, path+SuffixFailed, "never printed twice after a restart")
	assert.NoFileExists(t, path)
}

func TestRun_PicksUpNewExports(t *testing.T) {
	t.Parallel()

	processor := &fakeProcessor{}
	w, dir := newTestWatcher(t, processor)
	w.config.PollInterval = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	path := writeExport(t, dir, "late.xml")
	require.Eventually(t, func() bool {
		_, err := os.Stat(path + SuffixProcessed)
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestRun_CreatesFolder(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "exports")
	w := New(&config.POSConfig{TransactionsFolder: dir, PollInterval: time.Hour}, &fakeProcessor{}, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.NoError(t, w.Run(ctx))
	assert.DirExists(t, dir)
}
