package ast

// DataType is a MySQL column or cast type. Name is canonical upper case
// (CHARACTER VARYING becomes VARCHAR, DOUBLE PRECISION becomes DOUBLE).
type DataType struct {
	NodeInfo
	Name     string
	Args     []string
	Values   []string
	Unsigned bool
	Zerofill bool
	Binary   bool
	Charset  string
	Collate  string
}

// ColumnDef is a column definition inside CREATE/ALTER TABLE.
type ColumnDef struct {
	NodeInfo
	Name          string
	Type          *DataType
	NotNull       bool
	Null          bool
	Default       Expr
	AutoIncrement bool
	Unique        bool
	PrimaryKey    bool
	Comment       *string
	Collate       string
	OnUpdate      Expr
	Generated     *Generated
	Checks        []*CheckDef
	Invisible     bool
}

// Generated is GENERATED ALWAYS AS (expr) [VIRTUAL|STORED].
type Generated struct {
	NodeInfo
	Expr   Expr
	Stored bool
}

// IndexKind enumerates key kinds.
type IndexKind int

const (
	IndexPlain IndexKind = iota
	IndexUnique
	IndexPrimary
	IndexFulltext
	IndexSpatial
)

func (k IndexKind) String() string {
	switch k {
	case IndexUnique:
		return "UNIQUE"
	case IndexPrimary:
		return "PRIMARY"
	case IndexFulltext:
		return "FULLTEXT"
	case IndexSpatial:
		return "SPATIAL"
	}
	return "KEY"
}

// IndexDef is a key definition: table-level in CREATE TABLE, ALTER TABLE ADD,
// or CREATE INDEX.
type IndexDef struct {
	NodeInfo
	Kind       IndexKind
	Name       string
	Constraint string
	Columns    []*IndexPart
	Using      string
	Comment    string
}

// IndexPart is one key part. Length is the prefix length, 0 when absent.
type IndexPart struct {
	NodeInfo
	Column string
	Length int
	Desc   bool
	Expr   Expr
}

// ForeignKeyDef is [CONSTRAINT name] FOREIGN KEY [index] (cols) REFERENCES t (cols).
type ForeignKeyDef struct {
	NodeInfo
	Name       string
	IndexName  string
	Columns    []string
	RefTable   *TableName
	RefColumns []string
	OnDelete   string
	OnUpdate   string
}

// CheckDef is [CONSTRAINT name] CHECK (expr) [[NOT] ENFORCED].
type CheckDef struct {
	NodeInfo
	Name        string
	Expr        Expr
	NotEnforced bool
}

// TableOption is a table option; Name is canonical (ENGINE, CHARSET,
// COLLATE, COMMENT, AUTO_INCREMENT, ROW_FORMAT, ...).
type TableOption struct {
	NodeInfo
	Name  string
	Value string
}

// CreateTable is CREATE [TEMPORARY] TABLE.
type CreateTable struct {
	NodeInfo
	Temporary   bool
	IfNotExists bool
	Table       *TableName
	Columns     []*ColumnDef
	Indexes     []*IndexDef
	ForeignKeys []*ForeignKeyDef
	Checks      []*CheckDef
	Options     []*TableOption
	Like        *TableName
	AsSelect    *Select
}

// AlterTable is ALTER TABLE with one or more specs.
type AlterTable struct {
	NodeInfo
	Table *TableName
	Specs []AlterSpec
}

// AddColumns is ADD [COLUMN] def [FIRST|AFTER col] or ADD [COLUMN] (defs).
type AddColumns struct {
	NodeInfo
	Columns []*ColumnDef
	First   bool
	After   string
}

// DropColumn is DROP [COLUMN] name.
type DropColumn struct {
	NodeInfo
	Name string
}

// ChangeColumn is CHANGE old def or MODIFY def (Modify set, Old = def name).
type ChangeColumn struct {
	NodeInfo
	Old    string
	Column *ColumnDef
	Modify bool
	First  bool
	After  string
}

// RenameColumn is RENAME COLUMN old TO new.
type RenameColumn struct {
	NodeInfo
	Old string
	New string
}

// AlterColumnDefault is ALTER [COLUMN] c SET DEFAULT x | DROP DEFAULT.
type AlterColumnDefault struct {
	NodeInfo
	Column  string
	Default Expr
	Drop    bool
}

// AddIndex is ADD {INDEX|KEY|UNIQUE|PRIMARY KEY|FULLTEXT|SPATIAL} ...
type AddIndex struct {
	NodeInfo
	Index *IndexDef
}

// DropIndex is DROP {INDEX|KEY} name inside ALTER TABLE.
type DropIndex struct {
	NodeInfo
	Name string
}

// DropPrimaryKey is DROP PRIMARY KEY.
type DropPrimaryKey struct {
	NodeInfo
}

// RenameIndex is RENAME {INDEX|KEY} old TO new.
type RenameIndex struct {
	NodeInfo
	Old string
	New string
}

// AddForeignKey is ADD [CONSTRAINT name] FOREIGN KEY ...
type AddForeignKey struct {
	NodeInfo
	ForeignKey *ForeignKeyDef
}

// DropForeignKey is DROP FOREIGN KEY name.
type DropForeignKey struct {
	NodeInfo
	Name string
}

// AddCheck is ADD [CONSTRAINT name] CHECK (expr).
type AddCheck struct {
	NodeInfo
	Check *CheckDef
}

// DropConstraint is DROP CHECK name or DROP CONSTRAINT name.
type DropConstraint struct {
	NodeInfo
	Name string
}

// RenameTo is RENAME [TO|AS] new_name.
type RenameTo struct {
	NodeInfo
	Table *TableName
}

// TableOptions is a list of table options inside ALTER TABLE.
type TableOptions struct {
	NodeInfo
	Options []*TableOption
}

// ConvertCharset is CONVERT TO CHARACTER SET cs [COLLATE c].
type ConvertCharset struct {
	NodeInfo
	Charset string
	Collate string
}

// AlterOption is ALGORITHM=, LOCK=, FORCE and similar options that do not
// change the table definition.
type AlterOption struct {
	NodeInfo
	Name  string
	Value string
}

// DropTable is DROP [TEMPORARY] TABLE [IF EXISTS] t, ...
type DropTable struct {
	NodeInfo
	Temporary bool
	IfExists  bool
	Tables    []*TableName
}

// RenamePair is one "a TO b" of RENAME TABLE.
type RenamePair struct {
	NodeInfo
	From *TableName
	To   *TableName
}

// RenameTable is RENAME TABLE a TO b[, c TO d].
type RenameTable struct {
	NodeInfo
	Pairs []*RenamePair
}

// CreateIndex is CREATE [UNIQUE|FULLTEXT|SPATIAL] INDEX name ON t (...).
type CreateIndex struct {
	NodeInfo
	Table *TableName
	Index *IndexDef
}

// DropIndexStmt is DROP INDEX name ON t.
type DropIndexStmt struct {
	NodeInfo
	Name  string
	Table *TableName
}

// Truncate is TRUNCATE [TABLE] t.
type Truncate struct {
	NodeInfo
	Table *TableName
}

func (*CreateTable) statementNode()   {}
func (*AlterTable) statementNode()    {}
func (*DropTable) statementNode()     {}
func (*RenameTable) statementNode()   {}
func (*CreateIndex) statementNode()   {}
func (*DropIndexStmt) statementNode() {}
func (*Truncate) statementNode()      {}

func (*AddColumns) alterSpecNode()         {}
func (*DropColumn) alterSpecNode()         {}
func (*ChangeColumn) alterSpecNode()       {}
func (*RenameColumn) alterSpecNode()       {}
func (*AlterColumnDefault) alterSpecNode() {}
func (*AddIndex) alterSpecNode()           {}
func (*DropIndex) alterSpecNode()          {}
func (*DropPrimaryKey) alterSpecNode()     {}
func (*RenameIndex) alterSpecNode()        {}
func (*AddForeignKey) alterSpecNode()      {}
func (*DropForeignKey) alterSpecNode()     {}
func (*AddCheck) alterSpecNode()           {}
func (*DropConstraint) alterSpecNode()     {}
func (*RenameTo) alterSpecNode()           {}
func (*TableOptions) alterSpecNode()       {}
func (*ConvertCharset) alterSpecNode()     {}
func (*AlterOption) alterSpecNode()        {}
