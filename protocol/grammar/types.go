package grammar

// ArgShape describes what may follow a type name in parentheses.
type ArgShape int

const (
	ArgsNone ArgShape = iota
	// ArgsLength is an optional (n).
	ArgsLength
	// ArgsPrecision is an optional (p) or (p, s).
	ArgsPrecision
	// ArgsValues is a required list of quoted strings (ENUM, SET).
	ArgsValues
)

// TypeProduction is one data type spelling.
type TypeProduction struct {
	Name  string
	Words []string
	Args  ArgShape
}

var dataTypes = []TypeProduction{
	{"TINYINT", []string{"TINYINT"}, ArgsLength},
	{"TINYINT", []string{"INT1"}, ArgsLength},
	{"SMALLINT", []string{"SMALLINT"}, ArgsLength},
	{"SMALLINT", []string{"INT2"}, ArgsLength},
	{"MEDIUMINT", []string{"MEDIUMINT"}, ArgsLength},
	{"MEDIUMINT", []string{"MIDDLEINT"}, ArgsLength},
	{"MEDIUMINT", []string{"INT3"}, ArgsLength},
	{"INT", []string{"INT"}, ArgsLength},
	{"INT", []string{"INT4"}, ArgsLength},
	{"INT", []string{"INTEGER"}, ArgsLength},
	{"BIGINT", []string{"BIGINT"}, ArgsLength},
	{"BIGINT", []string{"INT8"}, ArgsLength},
	{"SERIAL", []string{"SERIAL"}, ArgsNone},
	{"BIT", []string{"BIT"}, ArgsLength},
	{"BOOLEAN", []string{"BOOL"}, ArgsNone},
	{"BOOLEAN", []string{"BOOLEAN"}, ArgsNone},

	{"FLOAT", []string{"FLOAT"}, ArgsPrecision},
	{"FLOAT", []string{"FLOAT4"}, ArgsPrecision},
	{"DOUBLE", []string{"DOUBLE"}, ArgsPrecision},
	{"DOUBLE", []string{"DOUBLE", "PRECISION"}, ArgsPrecision},
	{"DOUBLE", []string{"FLOAT8"}, ArgsPrecision},
	{"DOUBLE", []string{"REAL"}, ArgsPrecision},
	{"DECIMAL", []string{"DECIMAL"}, ArgsPrecision},
	{"DECIMAL", []string{"DEC"}, ArgsPrecision},
	{"DECIMAL", []string{"NUMERIC"}, ArgsPrecision},
	{"DECIMAL", []string{"FIXED"}, ArgsPrecision},

	{"CHAR", []string{"CHAR"}, ArgsLength},
	{"CHAR", []string{"CHARACTER"}, ArgsLength},
	{"CHAR", []string{"NCHAR"}, ArgsLength},
	{"CHAR", []string{"NATIONAL", "CHAR"}, ArgsLength},
	{"CHAR", []string{"NATIONAL", "CHARACTER"}, ArgsLength},
	{"VARCHAR", []string{"VARCHAR"}, ArgsLength},
	{"VARCHAR", []string{"VARCHARACTER"}, ArgsLength},
	{"VARCHAR", []string{"CHARACTER", "VARYING"}, ArgsLength},
	{"VARCHAR", []string{"CHAR", "VARYING"}, ArgsLength},
	{"VARCHAR", []string{"NVARCHAR"}, ArgsLength},
	{"VARCHAR", []string{"NATIONAL", "VARCHAR"}, ArgsLength},
	{"VARCHAR", []string{"NATIONAL", "CHARACTER", "VARYING"}, ArgsLength},
	{"VARCHAR", []string{"NATIONAL", "CHAR", "VARYING"}, ArgsLength},
	{"VARCHAR", []string{"NCHAR", "VARCHAR"}, ArgsLength},
	{"VARCHAR", []string{"NCHAR", "VARYING"}, ArgsLength},
	{"MEDIUMTEXT", []string{"LONG", "VARCHAR"}, ArgsNone},
	{"MEDIUMTEXT", []string{"LONG"}, ArgsNone},
	{"TINYTEXT", []string{"TINYTEXT"}, ArgsNone},
	{"TEXT", []string{"TEXT"}, ArgsLength},
	{"MEDIUMTEXT", []string{"MEDIUMTEXT"}, ArgsNone},
	{"LONGTEXT", []string{"LONGTEXT"}, ArgsNone},
	{"ENUM", []string{"ENUM"}, ArgsValues},
	{"SET", []string{"SET"}, ArgsValues},
	{"JSON", []string{"JSON"}, ArgsNone},

	{"BINARY", []string{"BINARY"}, ArgsLength},
	{"VARBINARY", []string{"VARBINARY"}, ArgsLength},
	{"MEDIUMBLOB", []string{"LONG", "VARBINARY"}, ArgsNone},
	{"TINYBLOB", []string{"TINYBLOB"}, ArgsNone},
	{"BLOB", []string{"BLOB"}, ArgsLength},
	{"MEDIUMBLOB", []string{"MEDIUMBLOB"}, ArgsNone},
	{"LONGBLOB", []string{"LONGBLOB"}, ArgsNone},

	{"DATE", []string{"DATE"}, ArgsNone},
	{"TIME", []string{"TIME"}, ArgsLength},
	{"DATETIME", []string{"DATETIME"}, ArgsLength},
	{"TIMESTAMP", []string{"TIMESTAMP"}, ArgsLength},
	{"YEAR", []string{"YEAR"}, ArgsLength},

	{"GEOMETRY", []string{"GEOMETRY"}, ArgsNone},
	{"POINT", []string{"POINT"}, ArgsNone},
	{"LINESTRING", []string{"LINESTRING"}, ArgsNone},
	{"POLYGON", []string{"POLYGON"}, ArgsNone},
	{"MULTIPOINT", []string{"MULTIPOINT"}, ArgsNone},
	{"MULTILINESTRING", []string{"MULTILINESTRING"}, ArgsNone},
	{"MULTIPOLYGON", []string{"MULTIPOLYGON"}, ArgsNone},
	{"GEOMCOLLECTION", []string{"GEOMCOLLECTION"}, ArgsNone},
	{"GEOMCOLLECTION", []string{"GEOMETRYCOLLECTION"}, ArgsNone},
}

var castTypes = []TypeProduction{
	{"SIGNED", []string{"SIGNED"}, ArgsNone},
	{"SIGNED", []string{"SIGNED", "INTEGER"}, ArgsNone},
	{"SIGNED", []string{"SIGNED", "INT"}, ArgsNone},
	{"UNSIGNED", []string{"UNSIGNED"}, ArgsNone},
	{"UNSIGNED", []string{"UNSIGNED", "INTEGER"}, ArgsNone},
	{"UNSIGNED", []string{"UNSIGNED", "INT"}, ArgsNone},
	{"CHAR", []string{"CHAR"}, ArgsLength},
	{"CHAR", []string{"NCHAR"}, ArgsLength},
	{"CHAR", []string{"CHARACTER"}, ArgsLength},
	{"BINARY", []string{"BINARY"}, ArgsLength},
	{"DATE", []string{"DATE"}, ArgsNone},
	{"DATETIME", []string{"DATETIME"}, ArgsLength},
	{"TIME", []string{"TIME"}, ArgsLength},
	{"DECIMAL", []string{"DECIMAL"}, ArgsPrecision},
	{"DOUBLE", []string{"DOUBLE"}, ArgsNone},
	{"DOUBLE", []string{"REAL"}, ArgsNone},
	{"FLOAT", []string{"FLOAT"}, ArgsPrecision},
	{"JSON", []string{"JSON"}, ArgsNone},
	{"YEAR", []string{"YEAR"}, ArgsNone},
}

var intervalUnits = []string{
	"MICROSECOND", "SECOND", "MINUTE", "HOUR", "DAY", "WEEK", "MONTH", "QUARTER", "YEAR",
	"SECOND_MICROSECOND", "MINUTE_MICROSECOND", "MINUTE_SECOND", "HOUR_MICROSECOND",
	"HOUR_SECOND", "HOUR_MINUTE", "DAY_MICROSECOND", "DAY_SECOND", "DAY_MINUTE",
	"DAY_HOUR", "YEAR_MONTH",
}
