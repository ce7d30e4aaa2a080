package catalog

import "strings"

// Table defaults applied when CREATE TABLE names no engine or collation.
const (
	DefaultEngine    = "InnoDB"
	DefaultCollation = "utf8mb4_0900_ai_ci"
	DefaultRowFormat = "Dynamic"
)

var charsetDefaults = map[string]string{
	"utf8mb4": "utf8mb4_0900_ai_ci",
	"utf8mb3": "utf8mb3_general_ci",
	"latin1":  "latin1_swedish_ci",
	"ascii":   "ascii_general_ci",
	"binary":  "binary",
	"ucs2":    "ucs2_general_ci",
	"utf16":   "utf16_general_ci",
	"utf32":   "utf32_general_ci",
}

var charsetBytes = map[string]int{
	"utf8mb4": 4,
	"utf8mb3": 3,
	"latin1":  1,
	"ascii":   1,
	"binary":  1,
	"ucs2":    2,
	"utf16":   4,
	"utf32":   4,
}

// NormalizeCharset maps the utf8 alias to utf8mb3.
func NormalizeCharset(cs string) string {
	cs = strings.ToLower(cs)
	if cs == "utf8" {
		return "utf8mb3"
	}
	return cs
}

// NormalizeCollation maps utf8_* collations to their utf8mb3_* names.
func NormalizeCollation(c string) string {
	c = strings.ToLower(c)
	if strings.HasPrefix(c, "utf8_") {
		return "utf8mb3_" + c[len("utf8_"):]
	}
	return c
}

// CharsetOf returns the charset a collation belongs to.
func CharsetOf(collation string) string {
	if collation == "" {
		return ""
	}
	if i := strings.IndexByte(collation, '_'); i > 0 {
		return NormalizeCharset(collation[:i])
	}
	return NormalizeCharset(collation)
}

// CollationFor returns the default collation of a charset.
func CollationFor(charset string) string {
	charset = NormalizeCharset(charset)
	if c, ok := charsetDefaults[charset]; ok {
		return c
	}
	return charset + "_general_ci"
}

// CharsetMaxBytes returns the maximum bytes per character of a charset.
func CharsetMaxBytes(charset string) int {
	if n, ok := charsetBytes[NormalizeCharset(charset)]; ok {
		return n
	}
	return 4
}

// CaseSensitive reports whether a collation compares case-sensitively, in
// which case text columns are stored without NOCASE.
func CaseSensitive(collation string) bool {
	return collation == "binary" || strings.HasSuffix(collation, "_bin") || strings.HasSuffix(collation, "_cs")
}
