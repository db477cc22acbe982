package dedupe

import (
	"encoding/json"
	"fmt"
	"io"
)

// AuditEntry records one DOI-strategy pair evaluation.
type AuditEntry struct {
	DOI    string `json:"doi"`
	PID1   string `json:"pid1"`
	PID2   string `json:"pid2"`
	Merged bool   `json:"merged"`
	Reason string `json:"reason"`
}

func writeAuditEntry(w io.Writer, entry AuditEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding audit entry: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing audit entry: %w", err)
	}
	return nil
}
