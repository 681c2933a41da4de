package json

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/bkyoung/pull-analyzer/internal/domain"
)

// Writer emits the final report document: pretty-printed JSON with
// sorted keys and 4-space indentation.
type Writer struct {
	out io.Writer
}

// NewWriter creates a report writer over the given stream.
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Write renders the report. The document is round-tripped through a
// generic value so that keys come out sorted, matching consumers that
// diff report output across runs.
func (w *Writer) Write(report domain.Report) error {
	encoded, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	var generic any
	if err := json.Unmarshal(encoded, &generic); err != nil {
		return fmt.Errorf("normalize report: %w", err)
	}

	pretty, err := json.MarshalIndent(generic, "", "    ")
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	if _, err := w.out.Write(append(pretty, '\n')); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
