package persistence

import (
	"fmt"
	"strconv"
)

// String retorna la columna i como texto. NULL es "".
func (r Row) String(i int) string {
	if i >= len(r) || r[i] == nil {
		return ""
	}
	switch v := r[i].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

// Int64 retorna la columna i como entero. Con el protocolo de texto los enteros
// llegan como string.
func (r Row) Int64(i int) (int64, error) {
	if i >= len(r) || r[i] == nil {
		return 0, fmt.Errorf("column %d is NULL", i)
	}
	switch v := r[i].(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	case []byte:
		return strconv.ParseInt(string(v), 10, 64)
	default:
		return 0, fmt.Errorf("column %d: unexpected type %T", i, v)
	}
}

// IsNull reporta si la columna i es NULL.
func (r Row) IsNull(i int) bool { return i >= len(r) || r[i] == nil }
