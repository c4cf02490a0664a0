// internal/driver/cts310/decode.go
package cts310

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"

	"fiscal-hub/internal/model"
	"fiscal-hub/internal/protocol"
)

// statusBias is subtracted from the status register: each of the four status
// bytes is transmitted offset into the ASCII digit range
const statusBias uint32 = 0x30303030

// DecodeState decodes the answer to the state query
func DecodeState(raw []byte) (*model.PrinterState, error) {
	fields, err := protocol.DecodeN(raw, 3)
	if err != nil {
		return nil, err
	}

	code, err := strconv.Atoi(fields[0])
	if err != nil || code < 0 {
		return nil, fmt.Errorf("%w: response code %q", protocol.ErrMalformedFrame, fields[0])
	}
	responseCode := fmt.Sprintf("%04X", code)

	state := &model.PrinterState{
		ResponseCode:        responseCode,
		ResponseDescription: unknownResponseCode,
		StateCode:           fields[1],
		StateDescription:    unknownStateCode,
		FiscalStatus:        fields[2],
	}
	if desc, ok := ResponseCodes[responseCode]; ok {
		state.ResponseDescription = desc
	}
	if desc, ok := StateCodes[fields[1]]; ok {
		state.StateDescription = desc
	}

	return state, nil
}

// DecodeStatus decodes the 32-bit status register. Bits are numbered from
// the most significant bit; a set bit signals a fault.
func DecodeStatus(raw []byte) (*model.PrinterStatus, error) {
	fields, err := protocol.DecodeN(raw, 1)
	if err != nil {
		return nil, err
	}
	if len(fields[0]) != 4 {
		return nil, fmt.Errorf("%w: status field has %d bytes", protocol.ErrMalformedFrame, len(fields[0]))
	}

	register := binary.BigEndian.Uint32([]byte(fields[0])) ^ statusBias
	bit := func(n uint) bool {
		return register>>(31-n)&1 == 1
	}
	flag := func(n uint, fault string) string {
		if bit(n) {
			return fault
		}
		return model.SensorOK
	}

	return &model.PrinterStatus{
		Online:              !bit(0),
		Cover:               flag(1, model.SensorOpen),
		Temperature:         flag(2, model.SensorHigh),
		NonRecoverableError: flag(3, model.SensorError),
		PaperCutter:         flag(4, model.SensorError),
		BufferOverflow:      flag(5, model.SensorError),
		EndOfPaperSensor:    flag(6, model.SensorNoPaper),
		OutOfPaperSensor:    flag(7, model.SensorNoPaper),
		StationTOFDetection: flag(16, model.SensorNoPaper),
		StationCOFError:     flag(17, model.SensorNoPaper),
		StationBOFDetection: flag(18, model.SensorNoPaper),
		Register:            register,
	}, nil
}

// DecodeDateTime decodes [DDMMYYYY, HHMMSS] in the local time zone
func DecodeDateTime(raw []byte) (time.Time, error) {
	fields, err := protocol.DecodeN(raw, 2)
	if err != nil {
		return time.Time{}, err
	}

	t, err := time.ParseInLocation(dateLayout+timeLayout, fields[0]+fields[1], time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: datetime %q %q: %v", protocol.ErrMalformedFrame, fields[0], fields[1], err)
	}
	return t, nil
}

// DecodeFiscalInfo decodes the business identity and the ten tax rates.
// A rate field starting with '?' is an unconfigured slot.
func DecodeFiscalInfo(raw []byte) (*model.FiscalInfo, error) {
	fields, err := protocol.DecodeN(raw, 15)
	if err != nil {
		return nil, err
	}

	info := &model.FiscalInfo{
		CRIB:         fields[0],
		BusinessName: strings.TrimSpace(fields[1]),
		PhoneNumber:  strings.TrimSpace(fields[2]),
		Address1:     strings.TrimSpace(fields[3]),
		Address2:     strings.TrimSpace(fields[4]),
		TaxRates:     make([]model.TaxRate, 0, 10),
	}

	for i, field := range fields[5:] {
		rate := model.TaxRate{Slot: i + 1}
		if !strings.HasPrefix(field, "?") {
			percent, err := protocol.DecodeFixed(field, 2)
			if err != nil {
				return nil, fmt.Errorf("tax rate %d: %w", i+1, err)
			}
			rate.Percent = &percent
		}
		info.TaxRates = append(info.TaxRates, rate)
	}

	return info, nil
}

// DecodeTotals decodes the 23-field running totals breakdown
func DecodeTotals(raw []byte) (*model.Totals, error) {
	fields, err := protocol.DecodeN(raw, 23)
	if err != nil {
		return nil, err
	}

	totals := &model.Totals{}
	if totals.Exempt, err = protocol.DecodeFixed(fields[0], 2); err != nil {
		return nil, fmt.Errorf("exempt total: %w", err)
	}

	for i := 0; i < 10; i++ {
		sale, err := protocol.DecodeFixed(fields[1+2*i], 2)
		if err != nil {
			return nil, fmt.Errorf("sale tax %d: %w", i+1, err)
		}
		tax, err := protocol.DecodeFixed(fields[2+2*i], 2)
		if err != nil {
			return nil, fmt.Errorf("tax %d: %w", i+1, err)
		}
		totals.Taxes[i] = model.TaxTotal{Sale: sale, Tax: tax}
	}

	if totals.Total, err = protocol.DecodeFixed(fields[21], 2); err != nil {
		return nil, fmt.Errorf("document total: %w", err)
	}
	if totals.ItemCount, err = protocol.DecodeFixed(fields[22], 0); err != nil {
		return nil, fmt.Errorf("item count: %w", err)
	}

	return totals, nil
}

// DecodeDocumentNumber returns the first field verbatim, leading zeros kept
func DecodeDocumentNumber(raw []byte) (string, error) {
	fields, err := protocol.Decode(raw)
	if err != nil {
		return "", err
	}
	if len(fields) == 0 || fields[0] == "" {
		return "", fmt.Errorf("%w: missing document number", protocol.ErrMalformedFrame)
	}
	return fields[0], nil
}

// DecodeClosedDocument decodes the answer to a successful close
func DecodeClosedDocument(raw []byte) (*model.ClosedDocument, error) {
	fields, err := protocol.Decode(raw)
	if err != nil {
		return nil, err
	}
	closed := &model.ClosedDocument{Fields: fields}
	if len(fields) > 0 {
		closed.Number = fields[0]
	}
	return closed, nil
}
