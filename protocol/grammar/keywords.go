package grammar

// reservedWords cannot appear as unquoted identifiers.
var reservedWords = []string{
	"ADD", "ALL", "ALTER", "ANALYZE", "AND", "AS", "ASC", "BEFORE", "BETWEEN",
	"BIGINT", "BINARY", "BLOB", "BOTH", "BY", "CALL", "CASCADE", "CASE", "CHANGE",
	"CHAR", "CHARACTER", "CHECK", "COLLATE", "COLUMN", "CONDITION", "CONSTRAINT",
	"CONTINUE", "CONVERT", "CREATE", "CROSS", "CUBE", "CURRENT_DATE",
	"CURRENT_TIME", "CURRENT_TIMESTAMP", "CURRENT_USER", "CURSOR", "DATABASE",
	"DATABASES", "DAY_HOUR", "DAY_MICROSECOND", "DAY_MINUTE", "DAY_SECOND", "DEC",
	"DECIMAL", "DECLARE", "DEFAULT", "DELAYED", "DELETE", "DESC", "DESCRIBE",
	"DETERMINISTIC", "DISTINCT", "DISTINCTROW", "DIV", "DOUBLE", "DROP", "DUAL",
	"EACH", "ELSE", "ELSEIF", "ENCLOSED", "ESCAPED", "EXCEPT", "EXISTS", "EXIT",
	"EXPLAIN", "FALSE", "FETCH", "FLOAT", "FLOAT4", "FLOAT8", "FOR", "FORCE",
	"FOREIGN", "FROM", "FULLTEXT", "FUNCTION", "GENERATED", "GET", "GRANT", "GROUP",
	"GROUPING", "GROUPS", "HAVING", "HIGH_PRIORITY", "HOUR_MICROSECOND",
	"HOUR_MINUTE", "HOUR_SECOND", "IF", "IGNORE", "IN", "INDEX", "INFILE", "INNER",
	"INOUT", "INSENSITIVE", "INSERT", "INT", "INT1", "INT2", "INT3", "INT4", "INT8",
	"INTEGER", "INTERSECT", "INTERVAL", "INTO", "IS", "ITERATE", "JOIN", "KEY",
	"KEYS", "KILL", "LATERAL", "LEADING", "LEAVE", "LEFT", "LIKE", "LIMIT",
	"LINEAR", "LINES", "LOAD", "LOCALTIME", "LOCALTIMESTAMP", "LOCK", "LONG",
	"LONGBLOB", "LONGTEXT", "LOOP", "LOW_PRIORITY", "MATCH", "MAXVALUE",
	"MEDIUMBLOB", "MEDIUMINT", "MEDIUMTEXT", "MIDDLEINT", "MINUTE_MICROSECOND",
	"MINUTE_SECOND", "MOD", "MODIFIES", "NATURAL", "NOT", "NO_WRITE_TO_BINLOG",
	"NULL", "NUMERIC", "OF", "ON", "OPTIMIZE", "OPTION", "OPTIONALLY", "OR",
	"ORDER", "OUT", "OUTER", "OUTFILE", "OVER", "PARTITION", "PRECISION",
	"PRIMARY", "PROCEDURE", "PURGE", "RANGE", "READ", "READS", "REAL",
	"RECURSIVE", "REFERENCES", "REGEXP", "RELEASE", "RENAME", "REPEAT", "REPLACE",
	"REQUIRE", "RESIGNAL", "RESTRICT", "RETURN", "REVOKE", "RIGHT", "RLIKE",
	"SCHEMA", "SCHEMAS", "SECOND_MICROSECOND", "SELECT", "SENSITIVE", "SEPARATOR",
	"SET", "SHOW", "SIGNAL", "SMALLINT", "SPATIAL", "SPECIFIC", "SQL",
	"SQLEXCEPTION", "SQLSTATE", "SQLWARNING", "SQL_BIG_RESULT",
	"SQL_CALC_FOUND_ROWS", "SQL_SMALL_RESULT", "SSL", "STARTING", "STORED",
	"STRAIGHT_JOIN", "TABLE", "TERMINATED", "THEN", "TINYBLOB", "TINYINT",
	"TINYTEXT", "TO", "TRAILING", "TRIGGER", "TRUE", "UNDO", "UNION", "UNIQUE",
	"UNLOCK", "UNSIGNED", "UPDATE", "USAGE", "USE", "USING", "UTC_DATE",
	"UTC_TIME", "UTC_TIMESTAMP", "VALUES", "VARBINARY", "VARCHAR", "VARCHARACTER",
	"VARYING", "VIRTUAL", "WHEN", "WHERE", "WHILE", "WINDOW", "WITH", "WRITE",
	"XOR", "YEAR_MONTH", "ZEROFILL",
}

// nonReservedWords are keywords the parser recognizes that may still be used
// as identifiers.
var nonReservedWords = []string{
	"ACTION", "AFTER", "AGAINST", "ALGORITHM", "ANY", "AUTO_INCREMENT", "AVG_ROW_LENGTH",
	"BEGIN", "BIT", "BOOL", "BOOLEAN", "BTREE", "CAST", "CHARSET", "CHECKSUM", "COLUMNS",
	"COMMENT", "COMMIT", "COMPACT", "COMPRESSED", "CONNECTION", "COPY", "DATA",
	"DATE", "DATETIME", "DAY", "DELAY_KEY_WRITE", "DIRECTORY", "DISABLE", "DISCARD",
	"DYNAMIC", "ENABLE", "ENFORCED", "ENGINE", "ENUM", "ESCAPE", "EXCLUSIVE",
	"EXTENDED", "FIELDS", "FIRST", "FIXED", "FOLLOWING", "FULL", "GEOMCOLLECTION",
	"GEOMETRY", "GEOMETRYCOLLECTION", "GLOBAL", "HASH", "HOUR", "IMPORT", "INDEXES",
	"INPLACE", "INSERT_METHOD", "INSTANT", "INVISIBLE", "JSON", "KEY_BLOCK_SIZE",
	"LAST", "LINESTRING", "LOCAL", "MAX_ROWS", "MEMBER", "MEMORY", "MERGE",
	"MICROSECOND", "MIN_ROWS", "MINUTE", "MODE", "MODIFY", "MONTH", "MULTILINESTRING",
	"MULTIPOINT", "MULTIPOLYGON", "NAMES", "NATIONAL", "NCHAR", "NO", "NONE",
	"NVARCHAR", "OFFSET", "PACK_KEYS", "PARSER", "PERSIST", "POINT", "POLYGON",
	"PRECEDING", "QUARTER", "QUICK", "REDUNDANT", "REPAIR", "ROLLBACK", "ROLLUP",
	"ROW_FORMAT", "SAVEPOINT", "SECOND", "SERIAL", "SESSION", "SHARE", "SHARED",
	"SIGNED", "SOUNDS", "SQL_BUFFER_RESULT", "SQL_CACHE", "SQL_NO_CACHE", "START",
	"STATS_AUTO_RECALC", "STATS_PERSISTENT", "STATS_SAMPLE_PAGES", "STATUS",
	"STORAGE", "TABLES", "TABLESPACE", "TEMPORARY", "TEXT", "TIME", "TIMESTAMP",
	"TRANSACTION", "TRUNCATE", "UNBOUNDED", "UNKNOWN", "VALIDATION", "VARIABLES",
	"VISIBLE", "WEEK", "WITHOUT", "WORK", "YEAR",
}

// keywordFunctions are reserved words that are also function names, so that
// LEFT(...) parses as a call rather than a join keyword.
var keywordFunctions = []string{
	"CHAR", "CONVERT", "CURRENT_DATE", "CURRENT_TIME", "CURRENT_TIMESTAMP",
	"CURRENT_USER", "DATABASE", "DEFAULT", "IF", "INSERT", "INTERVAL", "LEFT",
	"LOCALTIME", "LOCALTIMESTAMP", "MATCH", "MOD", "REPEAT", "REPLACE", "RIGHT",
	"SCHEMA", "UTC_DATE", "UTC_TIME", "UTC_TIMESTAMP", "VALUES",
}
