package activerest

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
)

// buildParams serializes the query's filter state into a flat parameter
// mapping: one entry per where condition, the select list joined under the
// schema's fields parameter, and limit/offset when set.
func buildParams(schema *Schema, selects []string, where map[string]interface{}, limit, offset *int) (url.Values, error) {
	values := url.Values{}

	for field, condition := range where {
		coerced, err := coerceCondition(condition)
		if err != nil {
			return nil, fmt.Errorf("condition %q: %w", field, err)
		}

		values.Set(field, formatParam(coerced))
	}

	if len(selects) > 0 {
		values.Set(schema.FieldsParam, strings.Join(selects, ","))
	}

	if limit != nil {
		values.Set(schema.LimitParam, strconv.Itoa(*limit))
	}

	if offset != nil {
		values.Set(schema.OffsetParam, strconv.Itoa(*offset))
	}

	return values, nil
}

// coerceCondition applies the numeric coercion rule: values whose string
// form is purely numeric become integers (floats truncate toward zero),
// everything else passes through. Slice and map values are an explicit
// unsupported case.
func coerceCondition(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		if n, ok := numericToInt(v); ok {
			return n, nil
		}

		return v, nil
	case int:
		return v, nil
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return v, nil
	case float32:
		return int(v), nil
	case float64:
		return int(v), nil
	case bool:
		return v, nil
	default:
		kind := reflect.ValueOf(value).Kind()
		if kind == reflect.Slice || kind == reflect.Array || kind == reflect.Map {
			return nil, ErrUnsupportedConditionValue
		}

		return v, nil
	}
}

// numericToInt reports whether s is purely numeric and, if so, its integer
// value. Integer strings parse directly; float strings truncate.
func numericToInt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}

	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f), true
	}

	return 0, false
}

func formatParam(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}
