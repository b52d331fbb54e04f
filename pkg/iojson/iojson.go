// Package iojson holds helpers for writing and reading JSON on a command
// line: pretty documents, JSON-lines streams and error envelopes.
package iojson

import (
	"encoding/json"
	"fmt"
	"io"
)

// Error is the envelope written to stderr when a command fails.
type Error struct {
	Message string         `json:"message"`
	Reason  string         `json:"reason,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// fallback builds a hand-rolled envelope when marshaling itself failed.
func fallback(msg string, cause error) string {
	msgBytes, _ := json.Marshal(msg)
	errBytes, _ := json.Marshal(cause.Error())
	return fmt.Sprintf(`{"message":%s,"data":{"json_error":%s}}`, msgBytes, errBytes)
}

// WriteError writes a single-line error envelope to w.
func WriteError(w io.Writer, e Error) error {
	bits, err := json.Marshal(e)
	if err != nil {
		_, err = fmt.Fprintln(w, fallback(e.Message, err))
		return err
	}
	_, err = fmt.Fprintln(w, string(bits))
	return err
}

// Write writes obj to w as indented JSON. Marshaling failures are reported
// to ew as an error envelope.
func Write(w, ew io.Writer, obj any) error {
	bits, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		_, err = fmt.Fprintln(ew, fallback("error marshaling in iojson.Write", err))
		return err
	}

	_, err = fmt.Fprintln(w, string(bits))
	return err
}

// WriteLine writes obj to w as one compact JSON line.
func WriteLine(w io.Writer, obj any) error {
	bits, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("marshal json line: %w", err)
	}
	_, err = fmt.Fprintln(w, string(bits))
	return err
}
