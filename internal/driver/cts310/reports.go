// internal/driver/cts310/reports.go
package cts310

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"fiscal-hub/internal/protocol"
)

// PrintXReport prints the shift report without closing the fiscal day
func (d *CTS310Driver) PrintXReport(ctx context.Context) error {
	raw, err := d.command(ctx, CmdXReport, protocol.IsAffirmative)
	return reportError(CmdXReport, raw, err)
}

// PrintZReport prints the end-of-day report. With closeFiscalDay the day is
// finalized; otherwise a copy of the last Z report is printed.
func (d *CTS310Driver) PrintZReport(ctx context.Context, closeFiscalDay bool) error {
	param := zReportCopy
	if closeFiscalDay {
		param = zReportClose
	}

	raw, err := d.command(ctx, CmdZReport, protocol.IsAffirmative, param)
	return reportError(CmdZReport, raw, err)
}

// reportError tags a NAK answer as ErrNothingToReport
func reportError(code byte, raw []byte, err error) error {
	if err == nil || !IsRejection(err) {
		return err
	}
	if protocol.IsNAK(raw) {
		return rejected(code, raw, ErrNothingToReport)
	}
	return err
}

// PrintZByDateRange prints every Z report stored between two days and
// returns how many were printed
func (d *CTS310Driver) PrintZByDateRange(ctx context.Context, start, end time.Time) (int, error) {
	_, err := d.command(ctx, CmdZByDate, protocol.IsAffirmative,
		zByDateReserved, start.Format(dateLayout), end.Format(dateLayout))
	if err != nil {
		return 0, err
	}

	return d.collectReports(ctx, d.options.MaxRangeReports)
}

// PrintZByNumberRange prints the Z reports with sequence numbers in
// [start, end] and returns how many were printed
func (d *CTS310Driver) PrintZByNumberRange(ctx context.Context, start, end int) (int, error) {
	if start < 0 || end < start || end > 9999 {
		return 0, fmt.Errorf("invalid Z report range %d-%d", start, end)
	}

	_, err := d.command(ctx, CmdZByNumber, protocol.IsAffirmative, reportNumber(start), reportNumber(end))
	if err != nil {
		return 0, err
	}

	return d.collectReports(ctx, end-start+1)
}

// collectReports drives the get-next loop of an initialized range and then
// always ends the sequence. The loop stops on a NAK, on any other
// non-affirmative answer, on a transport fault or after limit reports.
func (d *CTS310Driver) collectReports(ctx context.Context, limit int) (int, error) {
	count := 0
	var loopErr error

	for count < limit {
		raw, err := d.exchange(ctx, CmdNextZ)
		if err != nil {
			loopErr = err
			break
		}
		if protocol.EndsWithNAK(raw) {
			break
		}
		if !protocol.IsAffirmative(raw) {
			d.logger.Warn("Unexpected answer to next Z report", zap.Int("printed", count))
			break
		}
		count++
	}

	if _, err := d.command(ctx, CmdEndZ, protocol.IsAffirmative); err != nil {
		d.logger.Warn("Failed to end Z report sequence", zap.Error(err))
	}

	d.logger.Info("Z report sequence finished", zap.Int("reports_count", count))

	if count == 0 {
		if loopErr != nil {
			return 0, loopErr
		}
		return 0, ErrNoReports
	}
	if loopErr != nil {
		d.logger.Warn("Z report sequence interrupted", zap.Int("printed", count), zap.Error(loopErr))
	}
	return count, nil
}

// ReprintDocument prints a copy of a stored document. The document type is
// not known in advance, so each type code is tried in order against the
// same number. It returns the type code that matched.
func (d *CTS310Driver) ReprintDocument(ctx context.Context, number string) (string, error) {
	var (
		lastFault error
		faults    int
	)
	for _, docType := range reprintDocumentTypes {
		raw, err := d.exchange(ctx, CmdReprint, reprintModeCopy, docType, number)
		if err != nil {
			if errors.Is(err, protocol.ErrChannelUnusable) || ctx.Err() != nil {
				return "", err
			}
			// a slow answer for one type says nothing about the others
			d.logger.Warn("Reprint probe failed",
				zap.String("document_number", number),
				zap.String("document_type", docType),
				zap.Error(err),
			)
			lastFault = err
			faults++
			continue
		}

		if !protocol.EndsWithNAK(raw) && protocol.IsAffirmative(raw) {
			d.logger.Info("Document reprinted",
				zap.String("document_number", number),
				zap.String("document_type", docType),
			)
			return docType, nil
		}
	}

	if faults == len(reprintDocumentTypes) {
		return "", lastFault
	}
	return "", &CommandError{
		Command: CommandName(CmdReprint),
		Code:    CmdReprint,
		Err:     fmt.Errorf("%w: %s", ErrDocumentNotFound, number),
	}
}
