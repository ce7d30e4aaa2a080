package db

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// udf is a scalar function registered on every connection.
type udf struct {
	name string
	impl any
	pure bool
}

// RegisterMySQLFunctions registers the MySQL functions SQLite lacks or
// implements differently. It runs from the driver's ConnectHook.
func RegisterMySQLFunctions(conn *sqlite3.SQLiteConn) error {
	for _, set := range [][]udf{dateTimeFunctions, stringFunctions, mathFunctions} {
		for _, f := range set {
			if err := conn.RegisterFunc(f.name, f.impl, f.pure); err != nil {
				return fmt.Errorf("register function %s: %w", f.name, err)
			}
		}
	}
	return nil
}

// SQLite hands functions int64, float64, string or []byte. SQL NULL
// arrives as a nil []byte. The helpers below coerce those the way MySQL
// coerces arguments.

// null reports whether v is SQL NULL.
func null(v any) bool {
	if v == nil {
		return true
	}
	b, ok := v.([]byte)
	return ok && b == nil
}

func toText(v any) (string, bool) {
	if null(v) {
		return "", false
	}
	switch x := v.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		if x {
			return "1", true
		}
		return "0", true
	}
	return fmt.Sprint(v), true
}

func toFloat(v any) (float64, bool) {
	if null(v) {
		return 0, false
	}
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	s, _ := toText(v)
	return leadingNumber(s), true
}

func toInt(v any) (int64, bool) {
	if null(v) {
		return 0, false
	}
	switch x := v.(type) {
	case int64:
		return x, true
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, false
	}
	return int64(math.Round(f)), true
}

// leadingNumber reads the numeric prefix of s, as MySQL does for '12abc'.
func leadingNumber(s string) float64 {
	s = strings.TrimSpace(s)
	end := 0
	seenDigit, seenDot, seenExp := false, false, false
scan:
	for end < len(s) {
		c := s[end]
		switch {
		case c >= '0' && c <= '9':
			seenDigit = true
		case (c == '+' || c == '-') && (end == 0 || s[end-1] == 'e' || s[end-1] == 'E'):
		case c == '.' && !seenDot && !seenExp:
			seenDot = true
		case (c == 'e' || c == 'E') && seenDigit && !seenExp:
			seenExp = true
		default:
			break scan
		}
		end++
	}
	for end > 0 {
		if f, err := strconv.ParseFloat(s[:end], 64); err == nil {
			return f
		}
		end--
	}
	return 0
}

func isNull(args ...any) bool {
	for _, a := range args {
		if null(a) {
			return true
		}
	}
	return false
}
