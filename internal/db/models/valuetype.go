package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ValueType is the discriminator telling consumers how to parse a setting value.
type ValueType string

// Known value types.
const (
	ValueTypeString  ValueType = "string"
	ValueTypeInteger ValueType = "integer"
	ValueTypeBoolean ValueType = "boolean"
	ValueTypeNull    ValueType = "null"
	ValueTypeJSON    ValueType = "json"
)

var (
	// ErrUnknownValueType is returned for a value type outside the known set.
	ErrUnknownValueType = errors.New("unknown value type")
	// ErrValueMismatch is returned when a value can not be parsed as its value type.
	ErrValueMismatch = errors.New("value does not match value type")
)

// ValueTypes lists all known value types.
func ValueTypes() []ValueType {
	return []ValueType{ValueTypeString, ValueTypeInteger, ValueTypeBoolean, ValueTypeNull, ValueTypeJSON}
}

// ParseValueType returns the ValueType named s.
func ParseValueType(s string) (ValueType, error) {
	for _, vt := range ValueTypes() {
		if string(vt) == s {
			return vt, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownValueType, s)
}

// Check verifies that value can be read as vt.
// A null value type requires a nil value; every other type requires a value.
func (vt ValueType) Check(value *string) error {
	if vt == ValueTypeNull {
		if value != nil {
			return fmt.Errorf("%w: null takes no value", ErrValueMismatch)
		}

		return nil
	}

	if value == nil {
		return fmt.Errorf("%w: %s requires a value", ErrValueMismatch, vt)
	}

	var err error

	switch vt {
	case ValueTypeString:
	case ValueTypeInteger:
		_, err = strconv.ParseInt(*value, 10, 64)
	case ValueTypeBoolean:
		_, err = strconv.ParseBool(*value)
	case ValueTypeJSON:
		if !json.Valid([]byte(*value)) {
			err = errors.New("invalid json")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownValueType, string(vt))
	}

	if err != nil {
		return fmt.Errorf("%w: %q is not %s: %w", ErrValueMismatch, *value, vt, err)
	}

	return nil
}
