// internal/model/report.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// ReportKind identifies a report request
type ReportKind string

const (
	ReportX         ReportKind = "X"
	ReportZ         ReportKind = "Z"
	ReportZCopy     ReportKind = "Z_COPY"
	ReportZByDate   ReportKind = "Z_BY_DATE"
	ReportZByNumber ReportKind = "Z_BY_NUMBER"
	ReportZByRange  ReportKind = "Z_BY_RANGE"
	ReportReprint   ReportKind = "REPRINT"
	ReportCancel    ReportKind = "CANCEL"
)

// ReportResult is the uniform answer of every report operation
type ReportResult struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	Kind           ReportKind `json:"kind" db:"kind"`
	Success        bool       `json:"success" db:"success"`
	Message        string     `json:"message,omitempty" db:"message"`
	Error          string     `json:"error,omitempty" db:"error_message"`
	ReportsCount   int        `json:"reports_count,omitempty" db:"reports_count"`
	StartDate      string     `json:"start_date,omitempty" db:"start_date"`
	EndDate        string     `json:"end_date,omitempty" db:"end_date"`
	StartNumber    int        `json:"start_number,omitempty" db:"start_number"`
	EndNumber      int        `json:"end_number,omitempty" db:"end_number"`
	DocumentNumber string     `json:"document_number,omitempty" db:"document_number"`
	DocumentType   string     `json:"document_type,omitempty" db:"document_type"`
	RequestedAt    time.Time  `json:"requested_at" db:"requested_at"`
	DurationMs     int        `json:"duration_ms" db:"duration_ms"`
}

// DateRangeRequest asks for every Z report between two days
type DateRangeRequest struct {
	StartDate string `json:"start_date" binding:"required" example:"2024-09-01"`
	EndDate   string `json:"end_date" example:"2024-09-30"`
}

// NumberRangeRequest asks for Z reports by sequence number
type NumberRangeRequest struct {
	StartNumber int `json:"start_number" binding:"required" example:"12"`
	EndNumber   int `json:"end_number" binding:"required" example:"15"`
}

// NumberRequest asks for a single Z report
type NumberRequest struct {
	Number int `json:"number" binding:"required" example:"12"`
}

// ZReportRequest selects between closing the day and printing a copy
type ZReportRequest struct {
	Copy bool `json:"copy"`
}
