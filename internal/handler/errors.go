// internal/handler/errors.go
package handler

import (
	"context"
	"errors"
	"net/http"

	"fiscal-hub/internal/driver/cts310"
	"fiscal-hub/internal/protocol"
	"fiscal-hub/internal/service"
	"fiscal-hub/internal/tcpos"
	"fiscal-hub/internal/transform"
)

// errorStatus maps service and driver errors to HTTP status codes
func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, tcpos.ErrUnsupportedVersion), errors.Is(err, transform.ErrNotPrintable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, cts310.ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, protocol.ErrMalformedFrame):
		return http.StatusBadGateway
	case errors.Is(err, protocol.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, service.ErrPrinterOffline), protocol.IsTransportFault(err):
		return http.StatusServiceUnavailable
	case cts310.IsRejection(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
