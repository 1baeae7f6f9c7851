package recipe

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Quantity is an ingredient amount: absent (meaning "to taste"), a number,
// or free text such as a range. The zero value is the absent quantity and
// is omitted from serialized records.
type Quantity struct {
	Present bool
	Numeric bool
	Number  float64
	Text    string
}

// Amount returns a numeric quantity.
func Amount(n float64) Quantity {
	return Quantity{Present: true, Numeric: true, Number: n}
}

// AmountText returns a free-text quantity; blank text yields the absent
// quantity.
func AmountText(s string) Quantity {
	s = strings.TrimSpace(s)
	if s == "" {
		return Quantity{}
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return Amount(n)
	}
	return Quantity{Present: true, Text: s}
}

// IsZero reports whether the quantity is absent. Satisfies the yaml
// IsZeroer and json omitzero contracts so absent weights are omitted.
func (q Quantity) IsZero() bool {
	return !q.Present
}

// isZeroAmount reports absent-or-numerically-zero, the condition under
// which a unit is meaningless.
func (q Quantity) isZeroAmount() bool {
	return !q.Present || (q.Numeric && q.Number == 0)
}

// String formats the quantity for display; absent renders empty.
func (q Quantity) String() string {
	switch {
	case !q.Present:
		return ""
	case q.Numeric:
		return strconv.FormatFloat(q.Number, 'f', -1, 64)
	default:
		return q.Text
	}
}

// MarshalYAML emits a bare number for numeric quantities (integral values
// without a decimal point) and a plain string otherwise.
func (q Quantity) MarshalYAML() (any, error) {
	switch {
	case !q.Present:
		return nil, nil
	case q.Numeric:
		if q.Number == float64(int64(q.Number)) {
			return int64(q.Number), nil
		}
		return q.Number, nil
	default:
		return q.Text, nil
	}
}

// UnmarshalYAML reads a scalar quantity; numeric scalars stay numeric,
// anything else is kept as text.
func (q *Quantity) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("weight must be a scalar, got %v", node.Kind)
	}
	switch node.Tag {
	case "!!int", "!!float":
		if err := node.Decode(&q.Number); err != nil {
			return err
		}
		q.Present = true
		q.Numeric = true
		q.Text = ""
	case "!!null":
		*q = Quantity{}
	default:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*q = AmountText(s)
	}
	return nil
}

// MarshalJSON mirrors the YAML form for the export payload.
func (q Quantity) MarshalJSON() ([]byte, error) {
	v, err := q.MarshalYAML()
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

// UnmarshalJSON accepts a number, a string, or null.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch n := v.(type) {
	case nil:
		*q = Quantity{}
	case float64:
		*q = Amount(n)
	case string:
		*q = AmountText(n)
	default:
		return fmt.Errorf("weight must be a number or string")
	}
	return nil
}
