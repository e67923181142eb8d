package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/rxtech-lab/argo-options/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Condition is the comparison applied between a column and a filter value.
type Condition string

const (
	CondLessOrEqual    Condition = "less_or_equal"
	CondLess           Condition = "less"
	CondGreaterOrEqual Condition = "greater_or_equal"
	CondGreater        Condition = "greater"
	CondEqual          Condition = "equal"
	CondNotEqual       Condition = "not_equal"
	CondNearest        Condition = "nearest"
)

// AllConditions lists the accepted condition names.
var AllConditions = []any{
	string(CondLessOrEqual),
	string(CondLess),
	string(CondGreaterOrEqual),
	string(CondGreater),
	string(CondEqual),
	string(CondNotEqual),
	string(CondNearest),
}

// ComparisonConditions are the conditions evaluated row by row without grouping.
var ComparisonConditions = []Condition{
	CondLessOrEqual,
	CondLess,
	CondGreaterOrEqual,
	CondGreater,
	CondEqual,
	CondNotEqual,
}

// IsValid reports whether c is a known condition.
func (c Condition) IsValid() bool {
	switch c {
	case CondLessOrEqual, CondLess, CondGreaterOrEqual, CondGreater, CondEqual, CondNotEqual, CondNearest:
		return true
	default:
		return false
	}
}

// ValueKind is the shape of a filter value.
type ValueKind int

const (
	// ValueUnset means the filter was named without a value and does nothing.
	ValueUnset ValueKind = iota
	// ValueScalar is a single number.
	ValueScalar
	// ValueRange is a (low, target, high) tuple.
	ValueRange
	// ValueDate is a calendar date.
	ValueDate
)

// Value is the value part of a filter specification.
type Value struct {
	Kind ValueKind

	Scalar float64
	// Integer is set when the scalar was written without a fractional part.
	Integer bool

	Low    float64
	Target float64
	High   float64

	Date time.Time
}

// Unset returns an empty value.
func Unset() Value {
	return Value{Kind: ValueUnset}
}

// Scalar returns a numeric value.
func Scalar(v float64) Value {
	return Value{Kind: ValueScalar, Scalar: v}
}

// Integer returns a whole-number value.
func Integer(v int) Value {
	return Value{Kind: ValueScalar, Scalar: float64(v), Integer: true}
}

// Range returns a (low, target, high) value.
func Range(low, target, high float64) Value {
	return Value{Kind: ValueRange, Low: low, Target: target, High: high}
}

// Date returns a date value.
func Date(t time.Time) Value {
	return Value{Kind: ValueDate, Date: t}
}

// IsSet reports whether the value holds anything.
func (v Value) IsSet() bool {
	return v.Kind != ValueUnset
}

// IsPoint reports whether a range value has equal low, target and high.
func (v Value) IsPoint() bool {
	return v.Kind == ValueRange && v.Low == v.Target && v.Target == v.High
}

func (v Value) String() string {
	switch v.Kind {
	case ValueScalar:
		return strconv.FormatFloat(v.Scalar, 'f', -1, 64)
	case ValueRange:
		return fmt.Sprintf("(%g, %g, %g)", v.Low, v.Target, v.High)
	case ValueDate:
		return v.Date.Format(time.DateOnly)
	default:
		return "<unset>"
	}
}

// Spec is a filter value together with an optional condition. An empty Cond selects the
// default condition of the filter it is attached to.
type Spec struct {
	Value Value
	Cond  Condition
}

// ValueSpec returns a spec with the filter's default condition.
func ValueSpec(v Value) Spec {
	return Spec{Value: v}
}

// CondSpec returns a spec with an explicit condition.
func CondSpec(v Value, cond Condition) Spec {
	return Spec{Value: v, Cond: cond}
}

var periodPattern = regexp.MustCompile(`^(\d+)\s*([dDwW])$`)

// ParsePeriod converts a period such as "7d" or "2w" to a number of days.
func ParsePeriod(s string) (int, bool) {
	m := periodPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}

	switch m[2] {
	case "w", "W":
		return n * 7, true
	default:
		return n, true
	}
}

// UnmarshalYAML accepts a scalar, a three element sequence, a date, a period string or a
// {value, cond} mapping.
func (s *Spec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode {
		var raw struct {
			Value yaml.Node `yaml:"value"`
			Cond  string    `yaml:"cond"`
		}

		if err := node.Decode(&raw); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFilterValue, "invalid filter descriptor", err)
		}

		if raw.Value.Kind == yaml.MappingNode {
			return errors.Newf(errors.ErrCodeInvalidFilterValue, "line %d: filter value cannot be a mapping", node.Line)
		}

		value, err := decodeValue(&raw.Value)
		if err != nil {
			return err
		}

		cond := Condition(raw.Cond)
		if cond != "" && !cond.IsValid() {
			return errors.Newf(errors.ErrCodeInvalidFilterValue, "line %d: unknown condition %q", node.Line, raw.Cond)
		}

		*s = Spec{Value: value, Cond: cond}

		return nil
	}

	value, err := decodeValue(node)
	if err != nil {
		return err
	}

	*s = Spec{Value: value}

	return nil
}

func decodeValue(node *yaml.Node) (Value, error) {
	switch node.Kind {
	case 0:
		return Unset(), nil
	case yaml.AliasNode:
		return decodeValue(node.Alias)
	case yaml.ScalarNode:
		return decodeScalar(node)
	case yaml.SequenceNode:
		if len(node.Content) != 3 {
			return Value{}, errors.Newf(errors.ErrCodeInvalidFilterValue,
				"line %d: tuple must have three values, got %d", node.Line, len(node.Content))
		}

		var bounds [3]float64

		for i, item := range node.Content {
			v, err := decodeScalar(item)
			if err != nil {
				return Value{}, err
			}

			if v.Kind != ValueScalar {
				return Value{}, errors.Newf(errors.ErrCodeInvalidFilterValue,
					"line %d: tuple values must be numbers", item.Line)
			}

			bounds[i] = v.Scalar
		}

		return Range(bounds[0], bounds[1], bounds[2]), nil
	default:
		return Value{}, errors.Newf(errors.ErrCodeInvalidFilterValue, "line %d: unsupported filter value", node.Line)
	}
}

func decodeScalar(node *yaml.Node) (Value, error) {
	switch node.ShortTag() {
	case "!!null":
		return Unset(), nil
	case "!!int":
		var v int
		if err := node.Decode(&v); err != nil {
			return Value{}, errors.Wrap(errors.ErrCodeInvalidFilterValue, "invalid integer", err)
		}

		return Integer(v), nil
	case "!!float":
		var v float64
		if err := node.Decode(&v); err != nil {
			return Value{}, errors.Wrap(errors.ErrCodeInvalidFilterValue, "invalid number", err)
		}

		return Scalar(v), nil
	case "!!timestamp":
		var v time.Time
		if err := node.Decode(&v); err != nil {
			return Value{}, errors.Wrap(errors.ErrCodeInvalidFilterValue, "invalid date", err)
		}

		return Date(v), nil
	case "!!str":
		if days, ok := ParsePeriod(node.Value); ok {
			return Integer(days), nil
		}

		if t, err := time.Parse(time.DateOnly, node.Value); err == nil {
			return Date(t), nil
		}

		return Value{}, errors.Newf(errors.ErrCodeInvalidFilterValue,
			"line %d: %q is not a number, period or date", node.Line, node.Value)
	default:
		return Value{}, errors.Newf(errors.ErrCodeInvalidFilterValue,
			"line %d: unsupported value %q", node.Line, node.Value)
	}
}
