package transform

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/maxpert/mylite/protocol"
	"github.com/maxpert/mylite/protocol/ast"
)

// passThrough lists functions SQLite or the registered UDFs accept as
// written.
var passThrough = map[string]bool{
	// SQLite built-ins
	"ABS": true, "COALESCE": true, "IFNULL": true, "NULLIF": true, "REPLACE": true,
	"INSTR": true, "LTRIM": true, "RTRIM": true, "ROUND": true, "HEX": true,
	"UNHEX": true, "CHAR": true, "DATE": true, "TIME": true,
	"COUNT": true, "SUM": true, "AVG": true, "MIN": true, "MAX": true,
	"ROW_NUMBER": true, "RANK": true, "DENSE_RANK": true, "PERCENT_RANK": true,
	"CUME_DIST": true, "NTILE": true, "LAG": true, "LEAD": true,
	"FIRST_VALUE": true, "LAST_VALUE": true, "NTH_VALUE": true,
	"JSON_EXTRACT": true, "JSON_OBJECT": true, "JSON_ARRAY": true, "JSON_VALID": true,
	"JSON_SET": true, "JSON_INSERT": true, "JSON_REPLACE": true, "JSON_REMOVE": true,
	"JSON_QUOTE": true,

	// registered UDFs
	"YEAR": true, "MONTH": true, "DAY": true, "HOUR": true, "MINUTE": true, "SECOND": true,
	"DAYOFWEEK": true, "DAYOFYEAR": true, "WEEKDAY": true, "WEEK": true, "QUARTER": true,
	"DAYNAME": true, "MONTHNAME": true, "TO_DAYS": true,
	"DATE_FORMAT": true, "FROM_UNIXTIME": true, "UNIX_TIMESTAMP": true,
	"DATEDIFF": true, "LAST_DAY": true,
	"CONCAT_WS": true, "LEFT": true, "RIGHT": true, "REVERSE": true, "LPAD": true,
	"RPAD": true, "REPEAT": true, "SPACE": true, "FIND_IN_SET": true, "FIELD": true,
	"ELT": true, "SUBSTRING_INDEX": true, "STRCMP": true,
	"RAND": true, "SIGN": true, "TRUNCATE": true, "DEGREES": true, "RADIANS": true,
	"PI": true, "COT": true, "LOG": true, "LOG2": true, "LOG10": true, "LN": true,
	"EXP": true, "SQRT": true, "POW": true, "POWER": true, "MOD": true, "CEIL": true,
	"CEILING": true, "FLOOR": true, "SIN": true, "COS": true, "TAN": true, "ASIN": true,
	"ACOS": true, "ATAN": true, "ATAN2": true,
	"MD5": true, "SHA1": true, "SHA": true, "SHA2": true, "UUID": true,
}

// renamed maps MySQL names to the SQLite function with the same arguments.
var renamed = map[string]string{
	"UCASE":            "upper",
	"UPPER":            "upper",
	"LCASE":            "lower",
	"LOWER":            "lower",
	"CHAR_LENGTH":      "length",
	"CHARACTER_LENGTH": "length",
	"SUBSTRING":        "substr",
	"SUBSTR":           "substr",
	"MID":              "substr",
	"DAYOFMONTH":       "day",
	"ASCII":            "unicode",
	"ORD":              "unicode",
	"TIMESTAMP":        "datetime",
	"NOW":              "now",
	"SYSDATE":          "now",
	"CURRENT_TIMESTAMP": "now",
	"LOCALTIME":        "now",
	"LOCALTIMESTAMP":   "now",
	"CURDATE":          "curdate",
	"CURRENT_DATE":     "curdate",
	"CURTIME":          "curtime",
	"CURRENT_TIME":     "curtime",
	"UTC_TIMESTAMP":    "utc_timestamp",
	"UTC_DATE":         "utc_date",
	"UTC_TIME":         "utc_time",
	"JSON_ARRAYAGG":    "json_group_array",
	"JSON_OBJECTAGG":   "json_group_object",
	"ROW_COUNT":        "changes",
}

type funcRewrite func(s *SQLiteSerializer, fn *ast.FuncCall)

var functionRewrites map[string]funcRewrite

func init() {
	functionRewrites = map[string]funcRewrite{
		"CONCAT":         rewriteConcat,
		"IF":             rewriteIf,
		"ISNULL":         rewriteIsNull,
		"DATE_ADD":       rewriteDateAdd(false),
		"ADDDATE":        rewriteDateAdd(false),
		"DATE_SUB":       rewriteDateAdd(true),
		"SUBDATE":        rewriteDateAdd(true),
		"TIMESTAMPADD":   rewriteTimestampAdd,
		"TIMESTAMPDIFF":  rewriteTimestampDiff,
		"EXTRACT":        rewriteExtract,
		"LENGTH":         rewriteOctetLength,
		"OCTET_LENGTH":   rewriteOctetLength,
		"LOCATE":         rewriteLocate,
		"POSITION":       rewritePosition,
		"TRIM":           rewriteTrim,
		"GROUP_CONCAT":   rewriteGroupConcat,
		"GREATEST":       rewriteExtremum("max"),
		"LEAST":          rewriteExtremum("min"),
		"DATABASE":       rewriteDatabase,
		"SCHEMA":         rewriteDatabase,
		"FOUND_ROWS":     rewriteFoundRows,
		"LAST_INSERT_ID": rewriteLastInsertID,
		"VERSION":        rewriteVersion,
		"USER":           rewriteUser,
		"CURRENT_USER":   rewriteUser,
		"SESSION_USER":   rewriteUser,
		"SYSTEM_USER":    rewriteUser,
		"CONNECTION_ID":  rewriteConnectionID,
		"JSON_UNQUOTE":   rewriteJSONUnquote,
		"JSON_TYPE":      rewriteJSONType,
		"REGEXP_LIKE":    rewriteRegexpLike,
	}
}

// IsSupportedFunction reports whether a MySQL function has a lowering.
func IsSupportedFunction(name string) bool {
	name = strings.ToUpper(name)
	_, rw := functionRewrites[name]
	_, rn := renamed[name]
	return rw || rn || passThrough[name]
}

func (s *SQLiteSerializer) funcCall(fn *ast.FuncCall) {
	name := strings.ToUpper(fn.Name)
	if r, ok := functionRewrites[name]; ok {
		r(s, fn)
		return
	}
	if to, ok := renamed[name]; ok {
		s.callAs(to, fn)
		return
	}
	if passThrough[name] {
		if name == "COUNT" && fn.Distinct && len(fn.Args) > 1 {
			s.fail(unsupported("COUNT(DISTINCT) of several expressions"))
		}
		s.callAs(fn.Name, fn)
		return
	}
	s.fail(unsupported("function %s", name))
}

// callAs renders fn's arguments, aggregate options and window under name.
func (s *SQLiteSerializer) callAs(name string, fn *ast.FuncCall) {
	s.w.call(name)
	if fn.Distinct {
		s.w.kw("DISTINCT")
	}
	if fn.Star {
		s.w.tok("*")
	} else {
		s.exprList(fn.Args)
	}
	if len(fn.OrderBy) > 0 {
		s.w.kw("ORDER BY")
		s.orderItems(fn.OrderBy)
	}
	s.w.close()
	if fn.Over != nil {
		s.over(fn.Over)
	}
}

func (s *SQLiteSerializer) over(w *ast.WindowSpec) {
	s.w.kw("OVER")
	if w.Name != "" && len(w.PartitionBy) == 0 && len(w.OrderBy) == 0 && w.Frame == "" {
		s.w.ident(w.Name)
		return
	}
	s.w.open()
	if w.Name != "" {
		s.w.ident(w.Name)
	}
	if len(w.PartitionBy) > 0 {
		s.w.kw("PARTITION BY")
		s.exprList(w.PartitionBy)
	}
	if len(w.OrderBy) > 0 {
		s.w.kw("ORDER BY")
		s.orderItems(w.OrderBy)
	}
	if w.Frame != "" {
		s.w.tok(w.Frame)
	}
	s.w.close()
}

// arity checks the argument count; max < 0 means unbounded.
func (s *SQLiteSerializer) arity(fn *ast.FuncCall, min, max int) bool {
	n := len(fn.Args)
	if n < min || (max >= 0 && n > max) {
		s.fail(protocol.Errorf(protocol.ErrCodeWrongParamCount, protocol.SQLStateSyntax,
			"Incorrect parameter count in the call to native function '%s'", fn.Name))
		return false
	}
	return true
}

func rewriteConcat(s *SQLiteSerializer, fn *ast.FuncCall) {
	if !s.arity(fn, 1, -1) {
		return
	}
	s.w.open()
	for i, a := range fn.Args {
		if i > 0 {
			s.w.kw("||")
		}
		s.expr(a, precConcat+1)
	}
	s.w.close()
}

func rewriteIf(s *SQLiteSerializer, fn *ast.FuncCall) {
	if !s.arity(fn, 3, 3) {
		return
	}
	s.w.kw("CASE", "WHEN")
	s.expr(fn.Args[0], precLowest)
	s.w.kw("THEN")
	s.expr(fn.Args[1], precLowest)
	s.w.kw("ELSE")
	s.expr(fn.Args[2], precLowest)
	s.w.kw("END")
}

func rewriteIsNull(s *SQLiteSerializer, fn *ast.FuncCall) {
	if !s.arity(fn, 1, 1) {
		return
	}
	s.w.open()
	s.expr(fn.Args[0], precEquality+1)
	s.w.kw("IS", "NULL")
	s.w.close()
}

// intervalUnits maps MySQL units to a SQLite date modifier unit and a
// multiplier.
var intervalUnits = map[string]struct {
	unit string
	mult int64
}{
	"SECOND":  {"seconds", 1},
	"MINUTE":  {"minutes", 1},
	"HOUR":    {"hours", 1},
	"DAY":     {"days", 1},
	"WEEK":    {"days", 7},
	"MONTH":   {"months", 1},
	"QUARTER": {"months", 3},
	"YEAR":    {"years", 1},
}

func rewriteDateAdd(subtract bool) funcRewrite {
	return func(s *SQLiteSerializer, fn *ast.FuncCall) {
		if !s.arity(fn, 2, 2) {
			return
		}
		iv, ok := fn.Args[1].(*ast.Interval)
		if !ok {
			// ADDDATE(d, n) adds days
			iv = &ast.Interval{Value: fn.Args[1], Unit: "DAY"}
		}
		s.dateArith(fn.Args[0], iv, subtract)
	}
}

func rewriteTimestampAdd(s *SQLiteSerializer, fn *ast.FuncCall) {
	if !s.arity(fn, 3, 3) {
		return
	}
	s.dateArith(fn.Args[2], &ast.Interval{Value: fn.Args[1], Unit: unitArg(fn.Args[0])}, false)
}

func rewriteTimestampDiff(s *SQLiteSerializer, fn *ast.FuncCall) {
	if !s.arity(fn, 3, 3) {
		return
	}
	unit := unitArg(fn.Args[0])
	if _, ok := intervalUnits[unit]; !ok {
		s.fail(unsupported("TIMESTAMPDIFF unit %s", unit))
		return
	}
	s.w.call("timestampdiff")
	s.w.str(unit)
	s.w.comma()
	s.expr(fn.Args[1], precLowest)
	s.w.comma()
	s.expr(fn.Args[2], precLowest)
	s.w.close()
}

// unitArg reads a unit written as a bare word or a string.
func unitArg(e ast.Expr) string {
	switch v := e.(type) {
	case *ast.ColumnRef:
		return strings.ToUpper(v.Name)
	case *ast.Literal:
		return strings.ToUpper(v.Value)
	}
	return ""
}

// dateArith renders base ± INTERVAL as datetime(base, modifier).
func (s *SQLiteSerializer) dateArith(base ast.Expr, iv *ast.Interval, subtract bool) {
	u, ok := intervalUnits[strings.ToUpper(iv.Unit)]
	if !ok {
		s.fail(unsupported("INTERVAL unit %s", iv.Unit))
		return
	}
	s.w.call("datetime")
	s.expr(base, precLowest)
	s.w.comma()
	if n, ok := intervalNumber(iv.Value); ok {
		if subtract {
			n = -n
		}
		s.w.str(formatModifier(n, u.mult, u.unit))
	} else {
		s.w.call("CAST")
		if subtract {
			s.w.prefix("-")
			s.expr(iv.Value, precAtom)
		} else {
			s.expr(iv.Value, precMultiplicative)
		}
		if u.mult != 1 {
			s.w.kw("*", strconv.FormatInt(u.mult, 10))
		}
		s.w.kw("AS", "TEXT")
		s.w.close()
		s.w.kw("||")
		s.w.str(" " + u.unit)
	}
	s.w.close()
}

// intervalNumber reads a literal interval amount such as 1, -2 or '3'.
func intervalNumber(e ast.Expr) (float64, bool) {
	neg := false
	if u, ok := e.(*ast.Unary); ok && (u.Op == "-" || u.Op == "+") {
		neg = u.Op == "-"
		e = u.X
	}
	lit, ok := e.(*ast.Literal)
	if !ok {
		return 0, false
	}
	switch lit.Kind {
	case ast.LiteralInteger, ast.LiteralDecimal, ast.LiteralString:
	default:
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(lit.Value), 64)
	if err != nil {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}

func formatModifier(n float64, mult int64, unit string) string {
	n *= float64(mult)
	sign := "+"
	if n < 0 {
		sign = ""
	}
	return fmt.Sprintf("%s%s %s", sign, strconv.FormatFloat(n, 'f', -1, 64), unit)
}

// extractFunctions are the UDFs EXTRACT(unit FROM x) maps to.
var extractFunctions = map[string]string{
	"YEAR":    "year",
	"QUARTER": "quarter",
	"MONTH":   "month",
	"WEEK":    "week",
	"DAY":     "day",
	"HOUR":    "hour",
	"MINUTE":  "minute",
	"SECOND":  "second",
}

func rewriteExtract(s *SQLiteSerializer, fn *ast.FuncCall) {
	to, ok := extractFunctions[strings.ToUpper(fn.Keyword)]
	if !ok || len(fn.Args) != 1 {
		s.fail(unsupported("EXTRACT(%s FROM ...)", fn.Keyword))
		return
	}
	s.w.call(to)
	s.expr(fn.Args[0], precLowest)
	s.w.close()
}

// rewriteOctetLength counts bytes, as MySQL's LENGTH does.
func rewriteOctetLength(s *SQLiteSerializer, fn *ast.FuncCall) {
	if !s.arity(fn, 1, 1) {
		return
	}
	s.w.call("length")
	s.w.call("CAST")
	s.expr(fn.Args[0], precLowest)
	s.w.kw("AS", "BLOB")
	s.w.close()
	s.w.close()
}

func rewriteLocate(s *SQLiteSerializer, fn *ast.FuncCall) {
	if !s.arity(fn, 2, 3) {
		return
	}
	if len(fn.Args) == 3 {
		s.callAs("locate", fn)
		return
	}
	s.w.call("instr")
	s.expr(fn.Args[1], precLowest)
	s.w.comma()
	s.expr(fn.Args[0], precLowest)
	s.w.close()
}

func rewritePosition(s *SQLiteSerializer, fn *ast.FuncCall) {
	if !s.arity(fn, 2, 2) {
		return
	}
	s.w.call("instr")
	s.expr(fn.Args[1], precLowest)
	s.w.comma()
	s.expr(fn.Args[0], precLowest)
	s.w.close()
}

func rewriteTrim(s *SQLiteSerializer, fn *ast.FuncCall) {
	if !s.arity(fn, 1, 2) {
		return
	}
	name := "trim"
	switch strings.ToUpper(fn.Keyword) {
	case "LEADING":
		name = "ltrim"
	case "TRAILING":
		name = "rtrim"
	}
	s.w.call(name)
	s.exprList(fn.Args)
	s.w.close()
}

func rewriteGroupConcat(s *SQLiteSerializer, fn *ast.FuncCall) {
	if !s.arity(fn, 1, -1) {
		return
	}
	if fn.Distinct && fn.Separator != nil {
		s.fail(unsupported("GROUP_CONCAT(DISTINCT ... SEPARATOR)"))
		return
	}
	s.w.call("group_concat")
	if fn.Distinct {
		s.w.kw("DISTINCT")
	}
	if len(fn.Args) == 1 {
		s.expr(fn.Args[0], precLowest)
	} else {
		// several arguments are concatenated per row
		for i, a := range fn.Args {
			if i > 0 {
				s.w.kw("||")
			}
			s.expr(a, precConcat+1)
		}
	}
	if fn.Separator != nil {
		s.w.comma()
		s.w.str(fn.Separator.Value)
	}
	if len(fn.OrderBy) > 0 {
		s.w.kw("ORDER BY")
		s.orderItems(fn.OrderBy)
	}
	s.w.close()
}

func rewriteExtremum(name string) funcRewrite {
	return func(s *SQLiteSerializer, fn *ast.FuncCall) {
		if !s.arity(fn, 2, -1) {
			return
		}
		s.callAs(name, fn)
	}
}

func rewriteDatabase(s *SQLiteSerializer, fn *ast.FuncCall) {
	if !s.arity(fn, 0, 0) {
		return
	}
	s.w.str(s.database())
}

func rewriteFoundRows(s *SQLiteSerializer, fn *ast.FuncCall) {
	if !s.arity(fn, 0, 0) {
		return
	}
	s.dynamic = true
	var n int64
	if s.env != nil && s.env.Session != nil {
		n = s.env.Session.FoundRows()
	}
	s.value(n)
}

func rewriteLastInsertID(s *SQLiteSerializer, fn *ast.FuncCall) {
	if len(fn.Args) > 0 {
		s.fail(unsupported("LAST_INSERT_ID(expr)"))
		return
	}
	s.w.call("last_insert_rowid")
	s.w.close()
}

func rewriteVersion(s *SQLiteSerializer, fn *ast.FuncCall) {
	if !s.arity(fn, 0, 0) {
		return
	}
	v, _ := s.lookupSystemVar("version", false)
	s.value(v)
}

func rewriteUser(s *SQLiteSerializer, fn *ast.FuncCall) {
	s.w.str("root@localhost")
}

func rewriteConnectionID(s *SQLiteSerializer, fn *ast.FuncCall) {
	s.w.tok("1")
}

// rewriteJSONUnquote unwraps a JSON string and leaves anything else as is.
func rewriteJSONUnquote(s *SQLiteSerializer, fn *ast.FuncCall) {
	if !s.arity(fn, 1, 1) {
		return
	}
	x := fn.Args[0]
	s.w.kw("CASE", "WHEN")
	s.w.call("json_valid")
	s.expr(x, precLowest)
	s.w.close()
	s.w.kw("AND")
	s.w.call("json_type")
	s.expr(x, precLowest)
	s.w.close()
	s.w.kw("=")
	s.w.str("text")
	s.w.kw("THEN")
	s.w.call("json_extract")
	s.expr(x, precLowest)
	s.w.comma()
	s.w.str("$")
	s.w.close()
	s.w.kw("ELSE")
	s.expr(x, precLowest)
	s.w.kw("END")
}

// jsonTypes maps SQLite json_type names to MySQL's.
var jsonTypes = [][2]string{
	{"object", "OBJECT"},
	{"array", "ARRAY"},
	{"text", "STRING"},
	{"integer", "INTEGER"},
	{"real", "DOUBLE"},
	{"true", "BOOLEAN"},
	{"false", "BOOLEAN"},
	{"null", "NULL"},
}

func rewriteJSONType(s *SQLiteSerializer, fn *ast.FuncCall) {
	if !s.arity(fn, 1, 1) {
		return
	}
	s.w.kw("CASE")
	s.w.call("json_type")
	s.expr(fn.Args[0], precLowest)
	s.w.close()
	for _, t := range jsonTypes {
		s.w.kw("WHEN")
		s.w.str(t[0])
		s.w.kw("THEN")
		s.w.str(t[1])
	}
	s.w.kw("END")
}

func rewriteRegexpLike(s *SQLiteSerializer, fn *ast.FuncCall) {
	if !s.arity(fn, 2, 2) {
		return
	}
	s.w.open()
	s.expr(fn.Args[0], precEquality+1)
	s.w.kw("REGEXP")
	s.expr(fn.Args[1], precEquality+1)
	s.w.close()
}
