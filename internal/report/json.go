package report

import (
	"encoding/json"
	"fmt"
	"io"
)

const jsonSchema = "criblhc/v1"

// JSONReporter writes the structured report envelope.
type JSONReporter struct {
	Writer io.Writer
}

type jsonEnvelope struct {
	Schema string `json:"$schema"`
	Data
}

// Generate writes the machine-readable report.
func (r *JSONReporter) Generate(data Data) error {
	enc := json.NewEncoder(r.Writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(jsonEnvelope{Schema: jsonSchema, Data: data}); err != nil {
		return fmt.Errorf("encode JSON report: %w", err)
	}
	return nil
}
