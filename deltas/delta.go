// Package deltas records incremental text changes to single files inside a
// session, as ordered operation lists that can be replayed to reconstruct
// any intermediate content.
package deltas

import (
	"encoding/json"
	"fmt"
)

// Operation is one primitive edit: an insert of text at a byte offset, or a
// deletion of a byte range.
type Operation struct {
	// Insert is set for insert operations.
	Insert *InsertOperation
	// Delete is set for delete operations.
	Delete *DeleteOperation
}

// InsertOperation inserts Text at Offset.
type InsertOperation struct {
	Offset int
	Text   string
}

// DeleteOperation removes Length bytes starting at Offset.
type DeleteOperation struct {
	Offset int
	Length int
}

// MarshalJSON encodes the operation in the compact tagged form
// {"insert":[offset,"text"]} or {"delete":[offset,length]}.
func (o Operation) MarshalJSON() ([]byte, error) {
	switch {
	case o.Insert != nil:
		return json.Marshal(map[string][2]interface{}{
			"insert": {o.Insert.Offset, o.Insert.Text},
		})
	case o.Delete != nil:
		return json.Marshal(map[string][2]interface{}{
			"delete": {o.Delete.Offset, o.Delete.Length},
		})
	default:
		return nil, fmt.Errorf("operation has no variant set")
	}
}

// UnmarshalJSON decodes the compact tagged form.
func (o *Operation) UnmarshalJSON(data []byte) error {
	var raw map[string][2]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if pair, ok := raw["insert"]; ok {
		var op InsertOperation
		if err := json.Unmarshal(pair[0], &op.Offset); err != nil {
			return err
		}
		if err := json.Unmarshal(pair[1], &op.Text); err != nil {
			return err
		}
		o.Insert = &op
		o.Delete = nil
		return nil
	}
	if pair, ok := raw["delete"]; ok {
		var op DeleteOperation
		if err := json.Unmarshal(pair[0], &op.Offset); err != nil {
			return err
		}
		if err := json.Unmarshal(pair[1], &op.Length); err != nil {
			return err
		}
		o.Delete = &op
		o.Insert = nil
		return nil
	}
	return fmt.Errorf("unknown operation variant")
}

// Delta is one recorded change to one file: the operations that turn the
// previous recorded content into the observed content.
type Delta struct {
	// TimestampMs is when the change was observed, in unix milliseconds.
	TimestampMs int64       `json:"timestampMs"`
	Operations  []Operation `json:"operations"`
}

// Apply replays the delta's operations onto content.
func (d Delta) Apply(content string) (string, error) {
	result := content
	for _, op := range d.Operations {
		var err error
		result, err = applyOperation(result, op)
		if err != nil {
			return "", err
		}
	}
	return result, nil
}

func applyOperation(content string, op Operation) (string, error) {
	switch {
	case op.Insert != nil:
		ofs := op.Insert.Offset
		if ofs < 0 || ofs > len(content) {
			return "", fmt.Errorf("insert offset %d out of range (len %d)", ofs, len(content))
		}
		return content[:ofs] + op.Insert.Text + content[ofs:], nil
	case op.Delete != nil:
		ofs, n := op.Delete.Offset, op.Delete.Length
		if ofs < 0 || n < 0 || ofs+n > len(content) {
			return "", fmt.Errorf("delete range [%d,%d) out of range (len %d)", ofs, ofs+n, len(content))
		}
		return content[:ofs] + content[ofs+n:], nil
	default:
		return "", fmt.Errorf("operation has no variant set")
	}
}
