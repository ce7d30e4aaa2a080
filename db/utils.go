package db

import (
	"database/sql"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

type EnhancedRows struct {
	*sql.Rows
}

func (rs *EnhancedRows) Finalize() {
	err := rs.Close()
	if err != nil {
		log.Error().Err(err).Msg("Unable to close result set")
	}
}

// scanAll reads every row of rs as driver values.
func scanAll(rs *sql.Rows) ([]string, [][]any, error) {
	rows := &EnhancedRows{rs}
	defer rows.Finalize()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var out [][]any
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range columns {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, nil, err
		}
		out = append(out, values)
	}
	return columns, out, rows.Err()
}

// versionAtLeast compares a dotted SQLite version with major.minor.patch.
func versionAtLeast(version string, want ...int) bool {
	parts := strings.Split(version, ".")
	for i, w := range want {
		if i >= len(parts) {
			return w == 0
		}
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return false
		}
		if n != w {
			return n > w
		}
	}
	return true
}

// truthy interprets a system variable value as MySQL does for ON/OFF
// switches.
func truthy(v any) bool {
	switch x := v.(type) {
	case int64:
		return x != 0
	case float64:
		return x != 0
	case bool:
		return x
	case []byte:
		return truthy(string(x))
	case string:
		switch strings.ToUpper(strings.TrimSpace(x)) {
		case "ON", "TRUE", "YES":
			return true
		}
		n, err := strconv.ParseFloat(x, 64)
		return err == nil && n != 0
	}
	return false
}
