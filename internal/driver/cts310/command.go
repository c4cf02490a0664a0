// internal/driver/cts310/command.go
package cts310

import "fmt"

// Command codes of the CTS310II protocol
const (
	CmdState          byte = 0x20
	CmdIdentify       byte = 0x21
	CmdSetDateTime    byte = 0x23
	CmdGetDateTime    byte = 0x24
	CmdFiscalInfo     byte = 0x26
	CmdStatus         byte = 0x3F
	CmdOpenDocument   byte = 0x40
	CmdAddLine        byte = 0x41
	CmdTotals         byte = 0x42
	CmdAdjustment     byte = 0x43
	CmdPayment        byte = 0x44
	CmdCloseDocument  byte = 0x45
	CmdCancelDocument byte = 0x46
	CmdComment        byte = 0x4A
	CmdZReport        byte = 0x70
	CmdXReport        byte = 0x71
	CmdZByDate        byte = 0x74
	CmdZByNumber      byte = 0x75
	CmdNextZ          byte = 0x76
	CmdEndZ           byte = 0x77
	CmdReprint        byte = 0xA8
)

var commandNames = map[byte]string{
	CmdState:          "get_state",
	CmdIdentify:       "identify",
	CmdSetDateTime:    "set_datetime",
	CmdGetDateTime:    "get_datetime",
	CmdFiscalInfo:     "get_fiscal_info",
	CmdStatus:         "get_status",
	CmdOpenDocument:   "open_document",
	CmdAddLine:        "add_line",
	CmdTotals:         "totals",
	CmdAdjustment:     "adjustment",
	CmdPayment:        "payment",
	CmdCloseDocument:  "close_document",
	CmdCancelDocument: "cancel_document",
	CmdComment:        "comment",
	CmdZReport:        "z_report",
	CmdXReport:        "x_report",
	CmdZByDate:        "z_by_date",
	CmdZByNumber:      "z_by_number",
	CmdNextZ:          "next_z_report",
	CmdEndZ:           "end_z_reports",
	CmdReprint:        "reprint",
}

// CommandName returns the log name of a command code
func CommandName(code byte) string {
	if name, ok := commandNames[code]; ok {
		return name
	}
	return fmt.Sprintf("cmd_%02X", code)
}

// Fixed field values
const (
	totalsSubtotal = "0"
	totalsTotal    = "1"

	zReportClose = "1"
	zReportCopy  = "0"

	zByDateReserved = "0"
	reprintModeCopy = "1"

	// every line carries two display classification fields
	lineDisplayClass = "2"

	dateLayout = "02012006"
	timeLayout = "150405"
)

// reprintDocumentTypes is the probe order used to find a stored document
var reprintDocumentTypes = []string{"01", "02", "03", "04", "05", "06", "07", "08", "09", "10"}

// ResponseCodes maps the 4-digit hexadecimal response code to its description
var ResponseCodes = map[string]string{
	"0000": "Last command successful.",
	"0101": "Command invalid in the current state.",
	"0102": "Command invalid in the current document.",
	"0103": "Service jumper connected.",
	"0105": "Command requires service jumper.",
	"0107": "Invalid command.",
	"0108": "Command invalid through USB port.",
	"0109": "Command missing mandatory field.",
	"0110": "Invalid field length.",
	"0111": "Field value is invalid or out of range.",
	"0112": "Inactive TAX rate.",
	"0202": "Printing device out of line.",
	"0204": "Printing device out of paper.",
	"0205": "Invalid speed.",
	"0301": "Set fiscal info error.",
	"0302": "Set date error.",
	"0303": "Invalid date.",
	"0402": "CRIB cannot be modified.",
	"0501": "Transaction memory full.",
	"0503": "Transaction memory not connected",
	"0504": "Read/Write error on transaction memory.",
	"0505": "Invalid transaction memory.",
	"0601": "Command invalid outside of fiscal period.",
	"0602": "Fiscal period not started.",
	"0603": "Fiscal memory full.",
	"0604": "Fiscal memory not connected.",
	"0605": "Invalid fiscal memory.",
	"0606": "Command requires a Z report.",
	"0607": "Cannot find document.",
	"0608": "Fiscal period empty.",
	"0609": "Requested period empty.",
	"060A": "No more data is available.",
	"060B": "No more Z reports can be printed this day.",
	"060C": "Z report could not be saved.",
	"0701": "Total must be greater than zero.",
	"0801": "Reached comment line number limit.",
	"0901": "Reached no sale document line number limit.",
	"FFF0": "Checksum error in set fiscal info command",
	"FFF1": "Missing Checksum in set fiscal info command",
	"FFFF": "Unknown error.",
}

// StateCodes maps the device state code to its description
var StateCodes = map[string]string{
	"0":  "Standby",
	"1":  "Start of sale",
	"2":  "Sale",
	"3":  "Subtotal",
	"4":  "Payment",
	"5":  "End of sale",
	"6":  "Non Fiscal",
	"7":  "Reserved",
	"8":  "Error",
	"9":  "Start of return",
	"10": "Return",
	"11": "Reading fiscal info",
	"12": "Storing logo",
	"13": "Read only",
}

const (
	unknownResponseCode = "unknown_response_code"
	unknownStateCode    = "unknown_state_code"
)
