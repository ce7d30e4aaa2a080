package transform

import (
	"sort"
	"strings"

	"github.com/maxpert/mylite/catalog"
)

// DefaultSQLMode is MySQL 8.0's default sql_mode.
const DefaultSQLMode = "ONLY_FULL_GROUP_BY,STRICT_TRANS_TABLES,NO_ZERO_IN_DATE,NO_ZERO_DATE,ERROR_FOR_DIVISION_BY_ZERO,NO_ENGINE_SUBSTITUTION"

// ServerVersion is reported by VERSION() and @@version.
const ServerVersion = "8.0.38-mylite"

// SystemVariables holds the values @@name reads when the session has not
// set the variable.
var SystemVariables = map[string]any{
	"auto_increment_increment":        int64(1),
	"auto_increment_offset":           int64(1),
	"autocommit":                      int64(1),
	"big_tables":                      int64(0),
	"character_set_client":            "utf8mb4",
	"character_set_connection":        "utf8mb4",
	"character_set_database":          "utf8mb4",
	"character_set_filesystem":        "binary",
	"character_set_results":           "utf8mb4",
	"character_set_server":            "utf8mb4",
	"character_set_system":            "utf8mb3",
	"collation_connection":            catalog.DefaultCollation,
	"collation_database":              catalog.DefaultCollation,
	"collation_server":                catalog.DefaultCollation,
	"default_storage_engine":          catalog.DefaultEngine,
	"default_week_format":             int64(0),
	"div_precision_increment":         int64(4),
	"error_count":                     int64(0),
	"explicit_defaults_for_timestamp": int64(1),
	"foreign_key_checks":              int64(1),
	"group_concat_max_len":            int64(1024),
	"hostname":                        "localhost",
	"interactive_timeout":             int64(28800),
	"lc_messages":                     "en_US",
	"lc_time_names":                   "en_US",
	"lower_case_table_names":          int64(0),
	"max_allowed_packet":              int64(67108864),
	"max_connections":                 int64(151),
	"net_read_timeout":                int64(30),
	"net_write_timeout":               int64(60),
	"port":                            int64(3306),
	"read_only":                       int64(0),
	"sql_auto_is_null":                int64(0),
	"sql_mode":                        DefaultSQLMode,
	"sql_safe_updates":                int64(0),
	"sql_select_limit":                uint64(18446744073709551615),
	"storage_engine":                  catalog.DefaultEngine,
	"system_time_zone":                "UTC",
	"time_zone":                       "SYSTEM",
	"transaction_isolation":           "SERIALIZABLE",
	"transaction_read_only":           int64(0),
	"tx_isolation":                    "SERIALIZABLE",
	"unique_checks":                   int64(1),
	"version":                         ServerVersion,
	"version_comment":                 "mylite (SQLite)",
	"version_compile_os":              "Linux",
	"wait_timeout":                    int64(28800),
	"warning_count":                   int64(0),
}

// KnownSystemVariable reports whether SET may assign name.
func KnownSystemVariable(name string) bool {
	_, ok := SystemVariables[strings.ToLower(name)]
	return ok
}

// StrictMode reports whether an sql_mode value rejects implicit defaults.
func StrictMode(mode string) bool {
	for _, m := range strings.Split(strings.ToUpper(mode), ",") {
		switch strings.TrimSpace(m) {
		case "STRICT_TRANS_TABLES", "STRICT_ALL_TABLES", "TRADITIONAL":
			return true
		}
	}
	return false
}

func systemVariableNames() []string {
	names := make([]string, 0, len(SystemVariables))
	for n := range SystemVariables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
