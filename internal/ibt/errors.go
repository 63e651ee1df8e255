package ibt

import "fmt"

// FormatError reports a byte stream that cannot be read as an .ibt
// capture. It is fatal: no partial results accompany it.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "invalid ibt capture: " + e.Reason
}

func formatErrorf(format string, args ...any) error {
	return &FormatError{Reason: fmt.Sprintf(format, args...)}
}

// ChannelMissingError reports a structurally required channel absent
// from the capture's descriptor table.
type ChannelMissingError struct {
	Channel string
}

func (e *ChannelMissingError) Error() string {
	return fmt.Sprintf("telemetry missing required %q channel", e.Channel)
}
