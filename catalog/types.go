package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/maxpert/mylite/protocol/ast"
	"github.com/maxpert/mylite/protocol/grammar"
	"github.com/maxpert/mylite/protocol/parser"
)

// SQLite column affinities.
const (
	AffinityInteger = "INTEGER"
	AffinityReal    = "REAL"
	AffinityText    = "TEXT"
	AffinityBlob    = "BLOB"
)

type typeClass int

const (
	classInteger typeClass = iota
	classBit
	classYear
	classDecimal
	classFloat
	classChar
	classText
	classEnum
	classBinary
	classBlob
	classTemporal
	classJSON
	classSpatial
)

type typeInfo struct {
	class typeClass
	// size is the fixed maximum length of TEXT and BLOB types.
	size int64
}

var typeTable = map[string]typeInfo{
	"tinyint":   {class: classInteger},
	"smallint":  {class: classInteger},
	"mediumint": {class: classInteger},
	"int":       {class: classInteger},
	"bigint":    {class: classInteger},
	"bit":       {class: classBit},
	"year":      {class: classYear},

	"decimal": {class: classDecimal},
	"float":   {class: classFloat},
	"double":  {class: classFloat},

	"char":       {class: classChar},
	"varchar":    {class: classChar},
	"tinytext":   {class: classText, size: 255},
	"text":       {class: classText, size: 65535},
	"mediumtext": {class: classText, size: 16777215},
	"longtext":   {class: classText, size: 4294967295},
	"enum":       {class: classEnum},
	"set":        {class: classEnum},

	"binary":     {class: classBinary},
	"varbinary":  {class: classBinary},
	"tinyblob":   {class: classBlob, size: 255},
	"blob":       {class: classBlob, size: 65535},
	"mediumblob": {class: classBlob, size: 16777215},
	"longblob":   {class: classBlob, size: 4294967295},

	"date":      {class: classTemporal},
	"time":      {class: classTemporal},
	"datetime":  {class: classTemporal},
	"timestamp": {class: classTemporal},

	"json": {class: classJSON},

	"geometry":        {class: classSpatial},
	"point":           {class: classSpatial},
	"linestring":      {class: classSpatial},
	"polygon":         {class: classSpatial},
	"multipoint":      {class: classSpatial},
	"multilinestring": {class: classSpatial},
	"multipolygon":    {class: classSpatial},
	"geomcollection":  {class: classSpatial},
}

// integer precision as reported by information_schema, signed and unsigned.
var integerPrecision = map[string][2]int64{
	"tinyint":   {3, 3},
	"smallint":  {5, 5},
	"mediumint": {7, 8},
	"int":       {10, 10},
	"bigint":    {19, 20},
}

// Type is a MySQL column type. Name is the lower-case data_type.
type Type struct {
	Name     string
	Args     []string
	Values   []string
	Unsigned bool
	Zerofill bool
}

// TypeFromAST converts a parsed data type, expanding the BOOLEAN and SERIAL
// aliases and filling in MySQL's implicit arguments.
func TypeFromAST(dt *ast.DataType) Type {
	t := Type{
		Name:     strings.ToLower(dt.Name),
		Args:     append([]string(nil), dt.Args...),
		Values:   append([]string(nil), dt.Values...),
		Unsigned: dt.Unsigned,
		Zerofill: dt.Zerofill,
	}
	switch t.Name {
	case "boolean":
		t.Name, t.Args = "tinyint", []string{"1"}
	case "serial":
		t.Name, t.Unsigned = "bigint", true
	case "decimal":
		switch len(t.Args) {
		case 0:
			t.Args = []string{"10", "0"}
		case 1:
			t.Args = append(t.Args, "0")
		}
	case "char", "binary", "bit":
		if len(t.Args) == 0 {
			t.Args = []string{"1"}
		}
	}
	if !t.class().numeric() {
		t.Unsigned, t.Zerofill = false, false
	}
	if t.Zerofill {
		t.Unsigned = true
	}
	return t
}

// ParseType parses a column_type string such as "varchar(255)" or
// "bigint(20) unsigned".
func ParseType(text string) (Type, error) {
	dt, err := parser.New(grammar.Default()).ParseDataType(text)
	if err != nil {
		return Type{}, fmt.Errorf("parse type %q: %w", text, err)
	}
	return TypeFromAST(dt), nil
}

// Known reports whether the type name is in the type table.
func (t Type) Known() bool {
	_, ok := typeTable[t.Name]
	return ok
}

func (t Type) class() typeClass {
	return typeTable[t.Name].class
}

func (c typeClass) numeric() bool {
	switch c {
	case classInteger, classDecimal, classFloat:
		return true
	}
	return false
}

// Affinity returns the SQLite affinity the type is stored with.
func (t Type) Affinity() string {
	switch t.class() {
	case classInteger, classBit, classYear:
		return AffinityInteger
	case classDecimal, classFloat:
		return AffinityReal
	case classBinary, classBlob:
		return AffinityBlob
	}
	return AffinityText
}

// IsInteger reports an integer type, including BIT and YEAR.
func (t Type) IsInteger() bool {
	return t.Affinity() == AffinityInteger
}

// IsString reports a character type, which carries a charset and collation.
func (t Type) IsString() bool {
	switch t.class() {
	case classChar, classText, classEnum:
		return true
	}
	return false
}

// IsBinary reports BINARY, VARBINARY and the BLOB types.
func (t Type) IsBinary() bool {
	c := t.class()
	return c == classBinary || c == classBlob
}

// IsLOB reports the TEXT and BLOB families, which can only be indexed by
// prefix.
func (t Type) IsLOB() bool {
	c := t.class()
	return c == classText || c == classBlob
}

// IsTemporal reports DATE, TIME, DATETIME and TIMESTAMP.
func (t Type) IsTemporal() bool {
	return t.class() == classTemporal
}

// HasImplicitDefault reports whether SHOW CREATE TABLE prints DEFAULT NULL
// for a nullable column of this type.
func (t Type) HasImplicitDefault() bool {
	switch t.class() {
	case classText, classBlob, classJSON, classSpatial:
		return false
	}
	return true
}

// ImplicitDefault is the value MySQL stores for an omitted NOT NULL column
// without a default when sql_mode is not strict.
func (t Type) ImplicitDefault() any {
	switch t.class() {
	case classInteger, classBit, classYear, classDecimal, classFloat:
		return int64(0)
	case classEnum:
		if t.Name == "enum" && len(t.Values) > 0 {
			return t.Values[0]
		}
		return ""
	case classTemporal:
		switch t.Name {
		case "date":
			return "0000-00-00"
		case "time":
			return "00:00:00"
		}
		return "0000-00-00 00:00:00"
	case classJSON:
		return "null"
	case classSpatial:
		return nil
	}
	return ""
}

// ColumnType renders the information_schema column_type.
func (t Type) ColumnType() string {
	var b strings.Builder
	b.WriteString(t.Name)
	switch {
	case len(t.Values) > 0:
		b.WriteByte('(')
		for i, v := range t.Values {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(QuoteString(v))
		}
		b.WriteByte(')')
	case len(t.Args) > 0:
		b.WriteByte('(')
		b.WriteString(strings.Join(t.Args, ","))
		b.WriteByte(')')
	}
	if t.Unsigned {
		b.WriteString(" unsigned")
	}
	if t.Zerofill {
		b.WriteString(" zerofill")
	}
	return b.String()
}

func (t Type) arg(i int) (int64, bool) {
	if i >= len(t.Args) {
		return 0, false
	}
	n, err := strconv.ParseInt(t.Args[i], 10, 64)
	return n, err == nil
}

// CharLength is character_maximum_length, in characters for string types
// and bytes for binary ones.
func (t Type) CharLength() (int64, bool) {
	info := typeTable[t.Name]
	switch info.class {
	case classChar, classBinary:
		return t.arg(0)
	case classText, classBlob:
		return info.size, true
	case classEnum:
		var n int64
		for i, v := range t.Values {
			l := int64(len([]rune(v)))
			if t.Name == "set" {
				if i > 0 {
					n++
				}
				n += l
			} else if l > n {
				n = l
			}
		}
		return n, true
	}
	return 0, false
}

// OctetLength is character_octet_length for the given charset.
func (t Type) OctetLength(charset string) (int64, bool) {
	n, ok := t.CharLength()
	if !ok {
		return 0, false
	}
	switch t.class() {
	case classChar, classEnum:
		return n * int64(CharsetMaxBytes(charset)), true
	}
	return n, true
}

// NumericPrecision returns numeric_precision and numeric_scale.
func (t Type) NumericPrecision() (precision, scale *int64) {
	switch t.class() {
	case classInteger:
		p := integerPrecision[t.Name]
		if t.Unsigned {
			return ptr(p[1]), ptr[int64](0)
		}
		return ptr(p[0]), ptr[int64](0)
	case classBit:
		n, _ := t.arg(0)
		return ptr(n), nil
	case classDecimal:
		p, _ := t.arg(0)
		s, _ := t.arg(1)
		return ptr(p), ptr(s)
	case classFloat:
		if p, ok := t.arg(0); ok {
			s, _ := t.arg(1)
			return ptr(p), ptr(s)
		}
		if t.Name == "float" {
			return ptr[int64](12), nil
		}
		return ptr[int64](22), nil
	}
	return nil, nil
}

// Scale returns the declared decimal scale, or -1.
func (t Type) Scale() int {
	if t.class() != classDecimal {
		return -1
	}
	s, _ := t.arg(1)
	return int(s)
}

// DatetimePrecision returns the fractional seconds precision of temporal
// types other than DATE.
func (t Type) DatetimePrecision() *int64 {
	switch t.Name {
	case "time", "datetime", "timestamp":
		n, _ := t.arg(0)
		return ptr(n)
	}
	return nil
}

func ptr[T any](v T) *T {
	return &v
}

// QuoteString quotes s as a MySQL string literal.
func QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// QuoteIdent quotes a MySQL identifier with backticks.
func QuoteIdent(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}
