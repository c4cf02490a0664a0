// internal/watcher/watcher.go
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"fiscal-hub/internal/config"
	"fiscal-hub/internal/model"
	"fiscal-hub/internal/protocol"
	"fiscal-hub/internal/utils"
)

// Marker suffixes appended to an export once it has been handled
const (
	SuffixProcessed = ".processed"
	SuffixSkipped   = ".skipped"
	SuffixFailed    = ".failed"
)

// settleDelay lets the POS finish writing before a notified file is read
const settleDelay = 250 * time.Millisecond

// ErrFatal is returned by Run when the serial channel can no longer be used
var ErrFatal = errors.New("watcher: fatal transport failure")

// Processor prints one export file
type Processor interface {
	ProcessFile(ctx context.Context, path string) (*model.PrintOutcome, error)
}

// Watcher feeds POS exports from the transactions folder to a Processor,
// one file at a time, and marks every handled file so it is never read twice.
type Watcher struct {
	config    *config.POSConfig
	processor Processor
	logger    *utils.ServiceLogger
}

// ScanResult summarizes one pass over the transactions folder
type ScanResult struct {
	Processed int
	Skipped   int
	Failed    int
	Deferred  int
}

// New creates a new watcher
func New(cfg *config.POSConfig, processor Processor, logger *zap.Logger) *Watcher {
	return &Watcher{
		config:    cfg,
		processor: processor,
		logger:    utils.NewServiceLogger(logger, "watcher"),
	}
}

// Run scans the folder every poll interval and shortly after filesystem
// notifications until ctx ends. It returns nil on cancellation and an
// error wrapping ErrFatal when the printer channel became unusable.
func (w *Watcher) Run(ctx context.Context) error {
	folder := w.config.TransactionsFolder
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return fmt.Errorf("failed to create transactions folder: %w", err)
	}

	var events <-chan fsnotify.Event
	var notifyErrors <-chan error
	notifier, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Warn("Filesystem notifications unavailable, polling only", zap.Error(err))
	} else {
		defer notifier.Close()
		w.watchTree(notifier, folder)
		events, notifyErrors = notifier.Events, notifier.Errors
	}

	w.logger.Info("Watching transactions folder",
		zap.String("folder", folder),
		zap.Duration("poll_interval", w.config.PollInterval))

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	settle := time.NewTimer(settleDelay)
	settle.Stop()
	defer settle.Stop()

	for {
		if _, err := w.Scan(ctx); err != nil {
			return err
		}

		for waiting := true; waiting; {
			select {
			case <-ctx.Done():
				w.logger.Info("Watcher stopped")
				return nil
			case <-ticker.C:
				waiting = false
			case <-settle.C:
				waiting = false
			case event, ok := <-events:
				if !ok {
					events = nil
					continue
				}
				if event.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						w.watchTree(notifier, event.Name)
					}
				}
				if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
					if isExport(event.Name) {
						settle.Reset(settleDelay)
					}
				}
			case err, ok := <-notifyErrors:
				if !ok {
					notifyErrors = nil
					continue
				}
				w.logger.Warn("Filesystem notification error", zap.Error(err))
			}
		}
	}
}

// Scan handles every pending export once, in lexical path order. A
// transport fault leaves the file in place and ends the pass early.
func (w *Watcher) Scan(ctx context.Context) (*ScanResult, error) {
	result := &ScanResult{}

	files, err := w.pending()
	if err != nil {
		w.logger.Error("Failed to list transactions folder", zap.Error(err))
		return result, nil
	}

	for i, path := range files {
		if i > 0 && w.config.FileInterval > 0 {
			if err := sleep(ctx, w.config.FileInterval); err != nil {
				return result, nil
			}
		}
		if ctx.Err() != nil {
			return result, nil
		}

		outcome, err := w.processor.ProcessFile(ctx, path)
		if errors.Is(err, protocol.ErrChannelUnusable) {
			w.logger.Error("Serial channel unusable", zap.String("file", path), zap.Error(err))
			if outcome != nil && outcome.Status == model.PrintStatusRejected {
				w.mark(path, SuffixFailed)
				result.Failed++
			}
			return result, fmt.Errorf("%w: %w", ErrFatal, err)
		}
		if outcome == nil {
			w.logger.Error("Failed to read export", zap.String("file", path), zap.Error(err))
			continue
		}

		switch outcome.Status {
		case model.PrintStatusPrinted:
			w.mark(path, SuffixProcessed)
			result.Processed++
		case model.PrintStatusNotPrintable:
			w.mark(path, SuffixSkipped)
			result.Skipped++
		case model.PrintStatusTransportFault:
			result.Deferred = len(files) - i
			w.logger.Warn("Printer unavailable, retrying on next poll",
				zap.String("file", path),
				zap.Int("pending", result.Deferred),
				zap.String("error", outcome.ErrorMessage))
			return result, nil
		default:
			w.mark(path, SuffixFailed)
			result.Failed++
		}
	}

	if len(files) > 0 {
		w.logger.Info("Scan completed",
			zap.Int("processed", result.Processed),
			zap.Int("skipped", result.Skipped),
			zap.Int("failed", result.Failed))
	}
	return result, nil
}

// pending lists unmarked exports below the transactions folder
func (w *Watcher) pending() ([]string, error) {
	var files []string
	err := filepath.WalkDir(w.config.TransactionsFolder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && isExport(path) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// mark renames path to path+suffix, replacing an earlier marker
func (w *Watcher) mark(path, suffix string) {
	target := path + suffix
	if _, err := os.Stat(target); err == nil {
		if err := os.Remove(target); err != nil {
			w.logger.Warn("Failed to remove previous marker", zap.String("file", target), zap.Error(err))
		}
	}
	if err := os.Rename(path, target); err != nil {
		w.logger.Error("Failed to mark export", zap.String("file", path), zap.String("suffix", suffix), zap.Error(err))
		return
	}
	w.logger.Debug("Export marked", zap.String("file", target))
}

func (w *Watcher) watchTree(notifier *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if err := notifier.Add(path); err != nil {
			w.logger.Warn("Failed to watch folder", zap.String("folder", path), zap.Error(err))
		}
		return nil
	})
}

func isExport(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xml")
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
