package engine

import (
	"fmt"
	"strconv"
)

// Text converts an evaluated value to the text placed in output.
//
// Nil yields the empty string, floats use their shortest exact form, and
// everything else prints as with [fmt.Sprint].
func Text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case fmt.Stringer:
		return t.String()
	case error:
		return t.Error()
	}

	return fmt.Sprint(v)
}
