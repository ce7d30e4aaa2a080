package grammar

import "sort"

// Production maps a sequence of leading words to a statement rule.
type Production struct {
	Name string
	Lead []string
}

// Statement production names, dispatched on by the parser.
const (
	RuleSelect           = "select"
	RuleInsert           = "insert"
	RuleReplace          = "replace"
	RuleUpdate           = "update"
	RuleDelete           = "delete"
	RuleCreateTable      = "create_table"
	RuleCreateIndex      = "create_index"
	RuleAlterTable       = "alter_table"
	RuleDropTable        = "drop_table"
	RuleDropIndex        = "drop_index"
	RuleRenameTable      = "rename_table"
	RuleTruncate         = "truncate"
	RuleShow             = "show"
	RuleDescribe         = "describe"
	RuleTableMaintenance = "table_maintenance"
	RuleBegin            = "begin"
	RuleCommit           = "commit"
	RuleRollback         = "rollback"
	RuleSavepoint        = "savepoint"
	RuleRelease          = "release"
	RuleSet              = "set"
	RuleUse              = "use"
	RuleLockTables       = "lock_tables"
	RuleUnlockTables     = "unlock_tables"
)

var statementProductions = []Production{
	{RuleSelect, []string{"SELECT"}},
	{RuleSelect, []string{"WITH"}},
	{RuleSelect, []string{"("}},
	{RuleInsert, []string{"INSERT"}},
	{RuleReplace, []string{"REPLACE"}},
	{RuleUpdate, []string{"UPDATE"}},
	{RuleDelete, []string{"DELETE"}},
	{RuleCreateTable, []string{"CREATE", "TABLE"}},
	{RuleCreateTable, []string{"CREATE", "TEMPORARY", "TABLE"}},
	{RuleCreateIndex, []string{"CREATE", "INDEX"}},
	{RuleCreateIndex, []string{"CREATE", "UNIQUE", "INDEX"}},
	{RuleCreateIndex, []string{"CREATE", "UNIQUE", "KEY"}},
	{RuleCreateIndex, []string{"CREATE", "FULLTEXT", "INDEX"}},
	{RuleCreateIndex, []string{"CREATE", "SPATIAL", "INDEX"}},
	{RuleAlterTable, []string{"ALTER", "TABLE"}},
	{RuleAlterTable, []string{"ALTER", "IGNORE", "TABLE"}},
	{RuleDropTable, []string{"DROP", "TABLE"}},
	{RuleDropTable, []string{"DROP", "TEMPORARY", "TABLE"}},
	{RuleDropIndex, []string{"DROP", "INDEX"}},
	{RuleRenameTable, []string{"RENAME", "TABLE"}},
	{RuleTruncate, []string{"TRUNCATE"}},
	{RuleShow, []string{"SHOW"}},
	{RuleDescribe, []string{"DESCRIBE"}},
	{RuleDescribe, []string{"DESC"}},
	{RuleDescribe, []string{"EXPLAIN"}},
	{RuleTableMaintenance, []string{"CHECK", "TABLE"}},
	{RuleTableMaintenance, []string{"OPTIMIZE", "TABLE"}},
	{RuleTableMaintenance, []string{"OPTIMIZE", "LOCAL", "TABLE"}},
	{RuleTableMaintenance, []string{"OPTIMIZE", "NO_WRITE_TO_BINLOG", "TABLE"}},
	{RuleTableMaintenance, []string{"REPAIR", "TABLE"}},
	{RuleTableMaintenance, []string{"ANALYZE", "TABLE"}},
	{RuleBegin, []string{"START", "TRANSACTION"}},
	{RuleBegin, []string{"BEGIN"}},
	{RuleCommit, []string{"COMMIT"}},
	{RuleRollback, []string{"ROLLBACK"}},
	{RuleSavepoint, []string{"SAVEPOINT"}},
	{RuleRelease, []string{"RELEASE", "SAVEPOINT"}},
	{RuleSet, []string{"SET"}},
	{RuleUse, []string{"USE"}},
	{RuleLockTables, []string{"LOCK", "TABLES"}},
	{RuleLockTables, []string{"LOCK", "TABLE"}},
	{RuleUnlockTables, []string{"UNLOCK", "TABLES"}},
	{RuleUnlockTables, []string{"UNLOCK", "TABLE"}},
}

// ShowProduction maps the words after SHOW to a SHOW form.
type ShowProduction struct {
	Form  string
	Words []string
	Full  bool
}

// SHOW forms.
const (
	ShowTables      = "tables"
	ShowColumns     = "columns"
	ShowIndex       = "index"
	ShowTableStatus = "table_status"
	ShowCreateTable = "create_table"
	ShowDatabases   = "databases"
	ShowVariables   = "variables"
	ShowGlobalVars  = "global_variables"
)

var showProductions = []ShowProduction{
	{ShowTables, []string{"TABLES"}, false},
	{ShowTables, []string{"FULL", "TABLES"}, true},
	{ShowColumns, []string{"COLUMNS"}, false},
	{ShowColumns, []string{"FIELDS"}, false},
	{ShowColumns, []string{"FULL", "COLUMNS"}, true},
	{ShowColumns, []string{"FULL", "FIELDS"}, true},
	{ShowColumns, []string{"EXTENDED", "COLUMNS"}, false},
	{ShowColumns, []string{"EXTENDED", "FULL", "COLUMNS"}, true},
	{ShowIndex, []string{"INDEX"}, false},
	{ShowIndex, []string{"INDEXES"}, false},
	{ShowIndex, []string{"KEYS"}, false},
	{ShowIndex, []string{"EXTENDED", "INDEX"}, false},
	{ShowTableStatus, []string{"TABLE", "STATUS"}, false},
	{ShowCreateTable, []string{"CREATE", "TABLE"}, false},
	{ShowDatabases, []string{"DATABASES"}, false},
	{ShowDatabases, []string{"SCHEMAS"}, false},
	{ShowVariables, []string{"VARIABLES"}, false},
	{ShowVariables, []string{"SESSION", "VARIABLES"}, false},
	{ShowVariables, []string{"LOCAL", "VARIABLES"}, false},
	{ShowGlobalVars, []string{"GLOBAL", "VARIABLES"}, false},
}

// Clause is an optional clause introduced by a fixed word sequence.
type Clause struct {
	Name  string
	Words []string
}

// Clause names.
const (
	ClauseFrom    = "from"
	ClauseWhere   = "where"
	ClauseGroupBy = "group_by"
	ClauseHaving  = "having"
	ClauseWindow  = "window"
	ClauseOrderBy = "order_by"
	ClauseLimit   = "limit"
	ClauseLock    = "lock"
)

// selectClauses is the clause order of a query specification.
var selectClauses = []Clause{
	{ClauseFrom, []string{"FROM"}},
	{ClauseWhere, []string{"WHERE"}},
	{ClauseGroupBy, []string{"GROUP", "BY"}},
	{ClauseHaving, []string{"HAVING"}},
	{ClauseWindow, []string{"WINDOW"}},
}

// queryTailClauses follow a complete query body, including set operations.
var queryTailClauses = []Clause{
	{ClauseOrderBy, []string{"ORDER", "BY"}},
	{ClauseLimit, []string{"LIMIT"}},
	{ClauseLock, []string{"FOR"}},
	{ClauseLock, []string{"LOCK", "IN"}},
}

func sortedProductions(in []Production) []Production {
	out := append([]Production(nil), in...)
	sort.SliceStable(out, func(i, j int) bool { return len(out[i].Lead) > len(out[j].Lead) })
	return out
}

func sortedShows(in []ShowProduction) []ShowProduction {
	out := append([]ShowProduction(nil), in...)
	sort.SliceStable(out, func(i, j int) bool { return len(out[i].Words) > len(out[j].Words) })
	return out
}

func sortedTypes(in []TypeProduction) []TypeProduction {
	out := append([]TypeProduction(nil), in...)
	sort.SliceStable(out, func(i, j int) bool { return len(out[i].Words) > len(out[j].Words) })
	return out
}
