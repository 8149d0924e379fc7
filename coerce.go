package tabload

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/xerrors"
)

// TimestampLayouts are the layouts tried, in order, when a string is coerced
// to Timestamp.
var TimestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
}

var coercers = map[Type]CoerceFunc{
	String:    coerceString,
	Text:      coerceText,
	Int:       coerceInt,
	Float:     coerceFloat,
	Bool:      coerceBool,
	Timestamp: coerceTimestamp,
}

// isNull reports whether v is a null cell: nil, NaN or a blank string.
func isNull(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(x)
	case float32:
		return math.IsNaN(float64(x))
	case string:
		return strings.TrimSpace(x) == ""
	default:
		return false
	}
}

func errCannotCoerce(v any, t Type) error {
	return xerrors.Errorf("cannot coerce %T(%v) to %s", v, v, t)
}

func coerceString(v any) (any, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return nil, errCannotCoerce(v, String)
}

func coerceText(v any) (any, error) {
	if i, ok := asInt64(v); ok {
		return strconv.FormatInt(i, 10), nil
	}
	if u, ok := asUint64(v); ok {
		return strconv.FormatUint(u, 10), nil
	}

	switch x := v.(type) {
	case string:
		return x, nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
	case bool:
		return strconv.FormatBool(x), nil
	case time.Time:
		return x.Format(time.RFC3339Nano), nil
	case fmt.Stringer:
		return x.String(), nil
	}

	return nil, errCannotCoerce(v, Text)
}

func coerceInt(v any) (any, error) {
	if i, ok := asInt64(v); ok {
		return i, nil
	}
	if u, ok := asUint64(v); ok {
		if u > math.MaxInt64 {
			return nil, xerrors.Errorf("%d overflows int64", u)
		}
		return int64(u), nil
	}

	switch x := v.(type) {
	case float64:
		return floatToInt(x)
	case float32:
		return floatToInt(float64(x))
	case string:
		s := cleanNumber(x)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, xerrors.Errorf("%q is not an integer", x)
		}
		return floatToInt(f)
	}

	return nil, errCannotCoerce(v, Int)
}

func floatToInt(f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil, xerrors.Errorf("%v is not an integer", f)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return nil, xerrors.Errorf("%v overflows int64", f)
	}
	return int64(f), nil
}

func coerceFloat(v any) (any, error) {
	if i, ok := asInt64(v); ok {
		return float64(i), nil
	}
	if u, ok := asUint64(v); ok {
		return float64(u), nil
	}

	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case string:
		f, err := strconv.ParseFloat(cleanNumber(x), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, xerrors.Errorf("%q is not a number", x)
		}
		return f, nil
	}

	return nil, errCannotCoerce(v, Float)
}

func coerceBool(v any) (any, error) {
	if i, ok := asInt64(v); ok && (i == 0 || i == 1) {
		return i == 1, nil
	}

	switch x := v.(type) {
	case bool:
		return x, nil
	case float64:
		if x == 0 || x == 1 {
			return x == 1, nil
		}
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "t", "yes", "y", "1":
			return true, nil
		case "false", "f", "no", "n", "0":
			return false, nil
		}
	}

	return nil, errCannotCoerce(v, Bool)
}

func coerceTimestamp(v any) (any, error) {
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case string:
		s := strings.TrimSpace(x)
		for _, layout := range TimestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return nil, xerrors.Errorf("%q does not match any timestamp layout", x)
	}

	return nil, errCannotCoerce(v, Timestamp)
}

// cleanNumber trims spaces and thousands separators from a numeric string.
func cleanNumber(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), ",", "")
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	}
	return 0, false
}

func asUint64(v any) (uint64, bool) {
	switch x := v.(type) {
	case uint:
		return uint64(x), true
	case uint8:
		return uint64(x), true
	case uint16:
		return uint64(x), true
	case uint32:
		return uint64(x), true
	case uint64:
		return x, true
	}
	return 0, false
}
