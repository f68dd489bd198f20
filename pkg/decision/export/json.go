package export

import (
	"encoding/json"
	"fmt"
	"io"

	"aoss-hq/sentinel/pkg/decision"
)

// JSONExporter writes decision records as a JSON array.
type JSONExporter struct {
	// Pretty enables indentation for human readers.
	Pretty bool
}

// NewJSONExporter creates a JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{Pretty: pretty}
}

// Export writes the records to w. An empty slice writes an empty
// array, so archive files are always valid JSON.
func (e *JSONExporter) Export(records []*decision.Record, w io.Writer) error {
	if len(records) == 0 {
		_, err := w.Write([]byte("[]"))
		return err
	}

	var (
		data []byte
		err  error
	)
	if e.Pretty {
		data, err = json.MarshalIndent(records, "", "  ")
	} else {
		data, err = json.Marshal(records)
	}
	if err != nil {
		return fmt.Errorf("marshal %d decision records: %w", len(records), err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}
