// internal/driver/cts310/probe.go
package cts310

import (
	"context"

	"fiscal-hub/internal/protocol"
)

// Probe sends the identification query and reports whether the endpoint
// answered like a CTS310II. It has no side effect on the device.
func Probe(ctx context.Context, transport protocol.Transport) error {
	frame, err := protocol.Encode(CmdIdentify)
	if err != nil {
		return err
	}

	raw, err := transport.Exchange(ctx, frame, true)
	if err != nil {
		return err
	}
	if !protocol.IsAffirmative(raw) {
		return rejected(CmdIdentify, raw, nil)
	}
	return nil
}
