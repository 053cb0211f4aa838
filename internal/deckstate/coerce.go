package deckstate

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Coercion helpers for loosely typed protocol values.
//
// Inbound values are whatever a JSON decoder or protocol adapter produced:
// nil, bool, string, float64 or a Go integer kind. None of these helpers
// fail; unparseable input yields the zero value.

// coerceString converts a value to a string. nil becomes "".
func coerceString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// coerceFloat parses a value as a float64, returning 0 on failure.
func coerceFloat(v any) float64 {
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// coerceInt parses a value as an integer, truncating toward zero.
func coerceInt(v any) int {
	return int(coerceFloat(v))
}

// coerceBool applies permissive truthiness.
func coerceBool(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		s := strings.TrimSpace(t)
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f != 0 && !math.IsNaN(f)
		}
		return s != ""
	default:
		f, ok := toFloat(v)
		return ok && f != 0 && !math.IsNaN(f)
	}
}

// coerceKeyLock treats literal true or any positive number as on.
// Firmware variants report key lock either as a boolean or as a numeric state.
func coerceKeyLock(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	if s, ok := v.(string); ok && strings.EqualFold(strings.TrimSpace(s), "true") {
		return true
	}
	f, ok := toFloat(v)
	return ok && f > 0
}

// toFloat extracts a float64 from numeric kinds and numeric strings.
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
