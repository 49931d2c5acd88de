// Package outputs reads the document produced by `terraform output -json`.
package outputs

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/tfve/tfve/internal/varcodec"
)

// Output is one named, non-sensitive output value.
type Output struct {
	Name  string
	Value varcodec.Value
}

type rawOutput struct {
	Sensitive bool            `json:"sensitive"`
	Value     json.RawMessage `json:"value"`
}

// ReadFile parses an output document and returns its values in name
// order. Outputs flagged sensitive are excluded so they can never leave
// the machine.
func ReadFile(path string) ([]Output, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading output values file: %w", err)
	}

	var doc map[string]rawOutput
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing output values file %s: %w", path, err)
	}

	outputs := make([]Output, 0, len(doc))
	for name, raw := range doc {
		if raw.Sensitive {
			continue
		}
		v, err := varcodec.ParseValue(raw.Value)
		if err != nil {
			return nil, fmt.Errorf("output %q: %w", name, err)
		}
		outputs = append(outputs, Output{Name: name, Value: v})
	}
	sort.Slice(outputs, func(i, j int) bool { return outputs[i].Name < outputs[j].Name })
	return outputs, nil
}
