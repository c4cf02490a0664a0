// internal/model/printer.go
package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// JSONObject type for PostgreSQL JSONB objects
type JSONObject map[string]interface{}

func (j *JSONObject) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

func (j JSONObject) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// PrinterConnection describes the endpoint currently bound to the printer
type PrinterConnection struct {
	Port        string     `json:"port"`
	Model       string     `json:"model"`
	Online      bool       `json:"online"`
	ConnectedAt *time.Time `json:"connected_at,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
}

// PrinterState is the decoded answer to the state query
type PrinterState struct {
	ResponseCode        string `json:"response_code"`
	ResponseDescription string `json:"response_description"`
	StateCode           string `json:"state_code"`
	StateDescription    string `json:"state_description"`
	FiscalStatus        string `json:"fiscal_status"`
}

// IsStandby reports whether the device has no document open
func (s *PrinterState) IsStandby() bool {
	return s.StateCode == "0"
}

// Sensor values reported in the status register
const (
	SensorOK      = "OK"
	SensorOpen    = "OPEN"
	SensorHigh    = "HIGH"
	SensorError   = "ERROR"
	SensorNoPaper = "NO_PAPER"
)

// PrinterStatus is the decoded 32-bit status register
type PrinterStatus struct {
	Online              bool   `json:"online"`
	Cover               string `json:"cover"`
	Temperature         string `json:"temperature"`
	NonRecoverableError string `json:"non_recoverable_error"`
	PaperCutter         string `json:"paper_cutter"`
	BufferOverflow      string `json:"buffer_overflow"`
	EndOfPaperSensor    string `json:"end_of_paper_sensor"`
	OutOfPaperSensor    string `json:"out_of_paper_sensor"`
	StationTOFDetection string `json:"station_tof_detection"`
	StationCOFError     string `json:"station_cof_error"`
	StationBOFDetection string `json:"station_bof_detection"`
	Register            uint32 `json:"register"`
}

// Alerts lists every sensor that is not OK
func (s *PrinterStatus) Alerts() []string {
	var alerts []string
	if !s.Online {
		alerts = append(alerts, "offline")
	}

	sensors := []struct {
		name  string
		value string
	}{
		{"cover", s.Cover},
		{"temperature", s.Temperature},
		{"non_recoverable_error", s.NonRecoverableError},
		{"paper_cutter", s.PaperCutter},
		{"buffer_overflow", s.BufferOverflow},
		{"end_of_paper_sensor", s.EndOfPaperSensor},
		{"out_of_paper_sensor", s.OutOfPaperSensor},
		{"station_tof_detection", s.StationTOFDetection},
		{"station_cof_error", s.StationCOFError},
		{"station_bof_detection", s.StationBOFDetection},
	}
	for _, sensor := range sensors {
		if sensor.value != SensorOK {
			alerts = append(alerts, sensor.name+"="+sensor.value)
		}
	}
	return alerts
}

// TaxRate is one of the ten configurable tax slots.
// A nil Percent means the slot is not configured on the device.
type TaxRate struct {
	Slot    int              `json:"slot"`
	Percent *decimal.Decimal `json:"percent,omitempty"`
}

// FiscalInfo is the device-resident fiscal configuration
type FiscalInfo struct {
	CRIB         string    `json:"crib"`
	BusinessName string    `json:"business_name"`
	PhoneNumber  string    `json:"phone_number"`
	Address1     string    `json:"address1"`
	Address2     string    `json:"address2"`
	TaxRates     []TaxRate `json:"tax_rates"`
}

// Unconfigured returns the slots without a tax rate
func (f *FiscalInfo) Unconfigured() []int {
	var slots []int
	for _, rate := range f.TaxRates {
		if rate.Percent == nil {
			slots = append(slots, rate.Slot)
		}
	}
	return slots
}

// TaxTotal is one taxable-sales/tax-amount pair of a totals breakdown
type TaxTotal struct {
	Sale decimal.Decimal `json:"sale"`
	Tax  decimal.Decimal `json:"tax"`
}

// Totals is the running totals breakdown returned by subtotal and total
type Totals struct {
	Exempt    decimal.Decimal `json:"exempt"`
	Taxes     [10]TaxTotal    `json:"taxes"`
	Total     decimal.Decimal `json:"total"`
	ItemCount decimal.Decimal `json:"item_count"`
}

// ClosedDocument is the device answer to a successful close
type ClosedDocument struct {
	Number string   `json:"number"`
	Fields []string `json:"fields,omitempty"`
}

// PortInfo describes one serial endpoint seen by the enumerator
type PortInfo struct {
	Name         string `json:"name"`
	IsUSB        bool   `json:"is_usb"`
	VID          string `json:"vid,omitempty"`
	PID          string `json:"pid,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
	Product      string `json:"product,omitempty"`
}
