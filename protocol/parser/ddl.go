package parser

import (
	"strconv"
	"strings"

	"github.com/maxpert/mylite/protocol/ast"
	"github.com/maxpert/mylite/protocol/grammar"
	"github.com/maxpert/mylite/protocol/lexer"
)

func (s *state) parseCreateTable() *ast.CreateTable {
	start := s.startPos()
	s.expect("CREATE")
	ct := &ast.CreateTable{Temporary: s.accept("TEMPORARY")}
	s.expect("TABLE")
	ct.IfNotExists = s.acceptSeq("IF", "NOT", "EXISTS")
	ct.Table = s.tableName()

	switch {
	case s.accept("LIKE"):
		ct.Like = s.tableName()
	case s.is("(") && s.isAt(1, "LIKE"):
		s.advance()
		s.advance()
		ct.Like = s.tableName()
		s.expect(")")
	case s.is("(") && !s.isAt(1, "SELECT") && !s.isAt(1, "WITH"):
		s.parseCreateDefinitions(ct)
		ct.Options = s.parseTableOptions(true)
		s.parseCreateSelect(ct)
	default:
		ct.Options = s.parseTableOptions(true)
		s.parseCreateSelect(ct)
		if ct.AsSelect == nil {
			s.fail("(", "LIKE", "AS")
		}
	}
	ct.Span = s.span(start)
	return ct
}

func (s *state) parseCreateSelect(ct *ast.CreateTable) {
	s.accept("IGNORE")
	s.accept("REPLACE")
	if s.accept("AS") || s.isAny("SELECT", "WITH", "(") {
		ct.AsSelect = s.parseSelect()
	}
}

func (s *state) parseCreateDefinitions(ct *ast.CreateTable) {
	s.expect("(")
	for {
		switch {
		case s.isAny("PRIMARY", "KEY", "INDEX", "UNIQUE", "FULLTEXT", "SPATIAL"):
			ct.Indexes = append(ct.Indexes, s.parseIndexDef(""))
		case s.is("CONSTRAINT") || s.is("FOREIGN") || s.is("CHECK"):
			s.parseConstraintDef(func(idx *ast.IndexDef) {
				ct.Indexes = append(ct.Indexes, idx)
			}, func(fk *ast.ForeignKeyDef) {
				ct.ForeignKeys = append(ct.ForeignKeys, fk)
			}, func(ck *ast.CheckDef) {
				ct.Checks = append(ct.Checks, ck)
			})
		default:
			ct.Columns = append(ct.Columns, s.parseColumnDef())
		}
		if !s.accept(",") || s.failed() {
			break
		}
	}
	s.expect(")")
}

// parseConstraintDef handles [CONSTRAINT [name]] followed by PRIMARY KEY,
// UNIQUE, FOREIGN KEY or CHECK.
func (s *state) parseConstraintDef(onIndex func(*ast.IndexDef), onFK func(*ast.ForeignKeyDef), onCheck func(*ast.CheckDef)) {
	start := s.startPos()
	name := ""
	if s.accept("CONSTRAINT") {
		if s.isIdent(s.cur()) {
			name = s.ident()
		}
	}
	switch {
	case s.isAny("PRIMARY", "UNIQUE"):
		idx := s.parseIndexDef(name)
		idx.Span = s.span(start)
		onIndex(idx)
	case s.is("FOREIGN"):
		fk := s.parseForeignKey(name)
		fk.Span = s.span(start)
		onFK(fk)
	case s.is("CHECK"):
		ck := s.parseCheck(name)
		ck.Span = s.span(start)
		onCheck(ck)
	default:
		s.fail("PRIMARY KEY", "UNIQUE", "FOREIGN KEY", "CHECK")
	}
}

// parseIndexDef parses a key definition starting at PRIMARY, UNIQUE, KEY,
// INDEX, FULLTEXT or SPATIAL.
func (s *state) parseIndexDef(constraint string) *ast.IndexDef {
	start := s.startPos()
	idx := &ast.IndexDef{Constraint: constraint}
	switch {
	case s.acceptSeq("PRIMARY", "KEY"):
		idx.Kind = ast.IndexPrimary
	case s.accept("UNIQUE"):
		idx.Kind = ast.IndexUnique
		if !s.accept("INDEX") {
			s.accept("KEY")
		}
	case s.accept("FULLTEXT"):
		idx.Kind = ast.IndexFulltext
		if !s.accept("INDEX") {
			s.accept("KEY")
		}
	case s.accept("SPATIAL"):
		idx.Kind = ast.IndexSpatial
		if !s.accept("INDEX") {
			s.accept("KEY")
		}
	case s.accept("INDEX"), s.accept("KEY"):
		idx.Kind = ast.IndexPlain
	default:
		s.fail("INDEX", "KEY")
		return idx
	}
	if idx.Kind != ast.IndexPrimary && s.isIdent(s.cur()) && !s.is("USING") {
		idx.Name = s.ident()
	}
	if idx.Name == "" && constraint != "" && idx.Kind != ast.IndexPrimary {
		idx.Name = constraint
	}
	s.parseIndexType(idx)
	idx.Columns = s.parseIndexParts()
	s.parseIndexOptions(idx)
	idx.Span = s.span(start)
	return idx
}

func (s *state) parseIndexType(idx *ast.IndexDef) {
	if s.accept("USING") || s.accept("TYPE") {
		idx.Using = strings.ToUpper(s.ident())
	}
}

func (s *state) parseIndexParts() []*ast.IndexPart {
	s.expect("(")
	var parts []*ast.IndexPart
	for {
		start := s.startPos()
		part := &ast.IndexPart{}
		if s.is("(") {
			s.advance()
			part.Expr = s.parseExpr()
			s.expect(")")
		} else {
			part.Column = s.ident()
			if s.accept("(") {
				n, err := strconv.Atoi(s.number())
				if err != nil && !s.failed() {
					s.failf("invalid key part length")
				}
				part.Length = n
				s.expect(")")
			}
		}
		if s.accept("DESC") {
			part.Desc = true
		} else {
			s.accept("ASC")
		}
		part.Span = s.span(start)
		parts = append(parts, part)
		if !s.accept(",") || s.failed() {
			break
		}
	}
	s.expect(")")
	return parts
}

func (s *state) parseIndexOptions(idx *ast.IndexDef) {
	for !s.failed() {
		switch {
		case s.is("USING") || s.is("TYPE"):
			s.parseIndexType(idx)
		case s.accept("COMMENT"):
			idx.Comment = s.stringLit()
		case s.accept("KEY_BLOCK_SIZE"):
			s.accept("=")
			s.number()
		case s.acceptSeq("WITH", "PARSER"):
			s.ident()
		case s.accept("VISIBLE"), s.accept("INVISIBLE"):
		case s.accept("ALGORITHM"), s.accept("LOCK"):
			s.accept("=")
			s.optionValue()
		default:
			return
		}
	}
}

func (s *state) parseForeignKey(name string) *ast.ForeignKeyDef {
	start := s.startPos()
	s.expectSeq("FOREIGN", "KEY")
	fk := &ast.ForeignKeyDef{Name: name}
	if s.isIdent(s.cur()) {
		fk.IndexName = s.ident()
	}
	fk.Columns = s.identList()
	s.parseReferences(fk)
	fk.Span = s.span(start)
	return fk
}

func (s *state) parseReferences(fk *ast.ForeignKeyDef) {
	s.expect("REFERENCES")
	fk.RefTable = s.tableName()
	fk.RefColumns = s.identList()
	if s.accept("MATCH") {
		s.advance()
	}
	for !s.failed() {
		switch {
		case s.acceptSeq("ON", "DELETE"):
			fk.OnDelete = s.parseReferenceAction()
		case s.acceptSeq("ON", "UPDATE"):
			fk.OnUpdate = s.parseReferenceAction()
		default:
			return
		}
	}
}

func (s *state) parseReferenceAction() string {
	switch {
	case s.accept("RESTRICT"):
		return "RESTRICT"
	case s.accept("CASCADE"):
		return "CASCADE"
	case s.acceptSeq("SET", "NULL"):
		return "SET NULL"
	case s.acceptSeq("SET", "DEFAULT"):
		return "SET DEFAULT"
	case s.acceptSeq("NO", "ACTION"):
		return "NO ACTION"
	}
	s.fail("RESTRICT", "CASCADE", "SET NULL", "SET DEFAULT", "NO ACTION")
	return ""
}

func (s *state) parseCheck(name string) *ast.CheckDef {
	start := s.startPos()
	s.expect("CHECK")
	s.expect("(")
	ck := &ast.CheckDef{Name: name, Expr: s.parseExpr()}
	s.expect(")")
	if s.acceptSeq("NOT", "ENFORCED") {
		ck.NotEnforced = true
	} else {
		s.accept("ENFORCED")
	}
	ck.Span = s.span(start)
	return ck
}

func (s *state) parseColumnDef() *ast.ColumnDef {
	start := s.startPos()
	col := &ast.ColumnDef{Name: s.ident()}
	col.Type = s.parseDataType()
	s.parseColumnAttributes(col)
	col.Span = s.span(start)
	return col
}

func (s *state) parseDataType() *ast.DataType {
	start := s.startPos()
	prod, ok := s.g.MatchType(s.words(4))
	if !ok {
		s.fail("data type")
		return nil
	}
	for range prod.Words {
		s.advance()
	}
	dt := &ast.DataType{Name: prod.Name}
	switch prod.Args {
	case grammar.ArgsLength, grammar.ArgsPrecision:
		if s.is("(") {
			dt.Args = s.parseTypeArgs()
		}
	case grammar.ArgsValues:
		s.expect("(")
		for {
			dt.Values = append(dt.Values, s.stringLit())
			if !s.accept(",") || s.failed() {
				break
			}
		}
		s.expect(")")
	}
	for !s.failed() {
		switch {
		case s.accept("UNSIGNED"):
			dt.Unsigned = true
		case s.accept("SIGNED"):
		case s.accept("ZEROFILL"):
			dt.Zerofill = true
			dt.Unsigned = true
		case s.is("BINARY") && prod.Name != "BINARY":
			s.advance()
			dt.Binary = true
		case s.accept("ASCII"), s.accept("UNICODE"), s.accept("BYTE"):
		default:
			if !s.parseCharsetAttrs(dt) {
				dt.Span = s.span(start)
				return dt
			}
		}
	}
	dt.Span = s.span(start)
	return dt
}

// parseCharsetAttrs consumes CHARACTER SET x / CHARSET x / COLLATE x
// attached to a type. It reports whether anything was consumed.
func (s *state) parseCharsetAttrs(dt *ast.DataType) bool {
	consumed := false
	for !s.failed() {
		switch {
		case s.acceptSeq("CHARACTER", "SET"), s.accept("CHARSET"):
			dt.Charset = strings.ToLower(s.identOrString())
		case s.acceptSeq("CHAR", "SET"):
			dt.Charset = strings.ToLower(s.identOrString())
		case s.accept("COLLATE"):
			dt.Collate = strings.ToLower(s.identOrString())
		default:
			return consumed
		}
		consumed = true
	}
	return consumed
}

func (s *state) parseTypeArgs() []string {
	s.expect("(")
	var args []string
	for {
		t := s.cur()
		if t.Kind != lexer.Number {
			s.fail("number")
			return nil
		}
		s.advance()
		args = append(args, t.Text)
		if !s.accept(",") || s.failed() {
			break
		}
	}
	s.expect(")")
	return args
}

func (s *state) parseColumnAttributes(col *ast.ColumnDef) {
	for !s.failed() {
		start := s.startPos()
		switch {
		case s.acceptSeq("NOT", "NULL"):
			col.NotNull = true
		case s.accept("NULL"):
			col.Null = true
		case s.accept("DEFAULT"):
			col.Default = s.parseUnary()
		case s.accept("AUTO_INCREMENT"):
			col.AutoIncrement = true
		case s.accept("UNIQUE"):
			s.accept("KEY")
			col.Unique = true
		case s.acceptSeq("PRIMARY", "KEY"), s.accept("KEY"):
			col.PrimaryKey = true
		case s.accept("COMMENT"):
			c := s.stringLit()
			col.Comment = &c
		case s.accept("COLLATE"):
			col.Collate = strings.ToLower(s.identOrString())
			col.Type.Collate = col.Collate
		case s.acceptSeq("ON", "UPDATE"):
			col.OnUpdate = s.parseUnary()
		case s.is("GENERATED") || s.is("AS"):
			if s.accept("GENERATED") {
				s.expect("ALWAYS")
			}
			s.expect("AS")
			s.expect("(")
			g := &ast.Generated{Expr: s.parseExpr()}
			s.expect(")")
			if s.accept("STORED") {
				g.Stored = true
			} else {
				s.accept("VIRTUAL")
			}
			g.Span = s.span(start)
			col.Generated = g
		case s.is("CHECK"), s.is("CONSTRAINT") && (s.isAt(1, "CHECK") || s.isAt(2, "CHECK")):
			name := ""
			if s.accept("CONSTRAINT") && !s.is("CHECK") {
				name = s.ident()
			}
			col.Checks = append(col.Checks, s.parseCheck(name))
		case s.is("REFERENCES"):
			// inline references are accepted and ignored, as MySQL does
			s.parseReferences(&ast.ForeignKeyDef{})
		case s.accept("VISIBLE"):
		case s.accept("INVISIBLE"):
			col.Invisible = true
		case s.accept("COLUMN_FORMAT"), s.accept("STORAGE"):
			s.advance()
		case s.accept("SRID"):
			s.number()
		case s.acceptSeq("SERIAL", "DEFAULT", "VALUE"):
			col.NotNull = true
			col.AutoIncrement = true
			col.Unique = true
		default:
			return
		}
	}
}

// parseTableOptions reads table options. Commas between options are only
// consumed when separated lists are allowed, which is not the case inside
// ALTER TABLE where the comma separates specifications.
func (s *state) parseTableOptions(commas bool) []*ast.TableOption {
	var opts []*ast.TableOption
	for !s.failed() {
		start := s.startPos()
		opt := &ast.TableOption{}
		s.accept("DEFAULT")
		switch {
		case s.acceptSeq("CHARACTER", "SET"), s.accept("CHARSET"):
			opt.Name = "CHARSET"
		case s.accept("COLLATE"):
			opt.Name = "COLLATE"
		case s.isAny("ENGINE", "COMMENT", "AUTO_INCREMENT", "ROW_FORMAT", "AVG_ROW_LENGTH",
			"CHECKSUM", "KEY_BLOCK_SIZE", "MAX_ROWS", "MIN_ROWS", "PACK_KEYS",
			"STATS_AUTO_RECALC", "STATS_PERSISTENT", "STATS_SAMPLE_PAGES",
			"DELAY_KEY_WRITE", "INSERT_METHOD", "COMPRESSION", "ENCRYPTION", "TABLESPACE", "CONNECTION"):
			opt.Name = word(s.advance())
		case s.isAnyAt(0, "DATA", "INDEX") && s.isAt(1, "DIRECTORY"):
			opt.Name = word(s.advance()) + " DIRECTORY"
			s.advance()
		default:
			return opts
		}
		s.accept("=")
		opt.Value = s.optionValue()
		if opt.Name == "CHARSET" || opt.Name == "COLLATE" || opt.Name == "ENGINE" || opt.Name == "ROW_FORMAT" {
			if opt.Name == "ENGINE" || opt.Name == "ROW_FORMAT" {
				opt.Value = canonicalOptionCase(opt.Value)
			} else {
				opt.Value = strings.ToLower(opt.Value)
			}
		}
		opt.Span = s.span(start)
		opts = append(opts, opt)
		if commas {
			s.accept(",")
		}
	}
	return opts
}

var engineNames = map[string]string{
	"INNODB": "InnoDB", "MYISAM": "MyISAM", "MEMORY": "MEMORY", "HEAP": "MEMORY",
	"CSV": "CSV", "ARCHIVE": "ARCHIVE", "ARIA": "Aria",
	"DYNAMIC": "Dynamic", "FIXED": "Fixed", "COMPRESSED": "Compressed",
	"REDUNDANT": "Redundant", "COMPACT": "Compact", "DEFAULT": "Default",
}

func canonicalOptionCase(v string) string {
	if c, ok := engineNames[strings.ToUpper(v)]; ok {
		return c
	}
	return v
}

func (s *state) parseCreateIndex() *ast.CreateIndex {
	start := s.startPos()
	s.expect("CREATE")
	ci := &ast.CreateIndex{}
	idx := &ast.IndexDef{Kind: ast.IndexPlain}
	switch {
	case s.accept("UNIQUE"):
		idx.Kind = ast.IndexUnique
	case s.accept("FULLTEXT"):
		idx.Kind = ast.IndexFulltext
	case s.accept("SPATIAL"):
		idx.Kind = ast.IndexSpatial
	}
	if !s.accept("INDEX") {
		s.expect("KEY")
	}
	idx.Name = s.ident()
	s.parseIndexType(idx)
	s.expect("ON")
	ci.Table = s.tableName()
	idx.Columns = s.parseIndexParts()
	s.parseIndexOptions(idx)
	idx.Span = s.span(start)
	ci.Index = idx
	ci.Span = s.span(start)
	return ci
}

func (s *state) parseDropTable() *ast.DropTable {
	start := s.startPos()
	s.expect("DROP")
	dt := &ast.DropTable{Temporary: s.accept("TEMPORARY")}
	s.expect("TABLE")
	dt.IfExists = s.acceptSeq("IF", "EXISTS")
	dt.Tables = s.tableNameList()
	if !s.accept("RESTRICT") {
		s.accept("CASCADE")
	}
	dt.Span = s.span(start)
	return dt
}

func (s *state) parseDropIndex() *ast.DropIndexStmt {
	start := s.startPos()
	s.expectSeq("DROP", "INDEX")
	di := &ast.DropIndexStmt{}
	if s.accept("PRIMARY") {
		di.Name = "PRIMARY"
	} else {
		di.Name = s.ident()
	}
	s.expect("ON")
	di.Table = s.tableName()
	for s.isAny("ALGORITHM", "LOCK") {
		s.advance()
		s.accept("=")
		s.optionValue()
	}
	di.Span = s.span(start)
	return di
}

func (s *state) parseRenameTable() *ast.RenameTable {
	start := s.startPos()
	s.expectSeq("RENAME", "TABLE")
	rt := &ast.RenameTable{}
	for {
		pstart := s.startPos()
		pair := &ast.RenamePair{From: s.tableName()}
		s.expect("TO")
		pair.To = s.tableName()
		pair.Span = s.span(pstart)
		rt.Pairs = append(rt.Pairs, pair)
		if !s.accept(",") || s.failed() {
			break
		}
	}
	rt.Span = s.span(start)
	return rt
}

func (s *state) parseTruncate() *ast.Truncate {
	start := s.startPos()
	s.expect("TRUNCATE")
	s.accept("TABLE")
	tr := &ast.Truncate{Table: s.tableName()}
	tr.Span = s.span(start)
	return tr
}

func (s *state) parseAlterTable() *ast.AlterTable {
	start := s.startPos()
	s.expect("ALTER")
	s.accept("IGNORE")
	s.expect("TABLE")
	at := &ast.AlterTable{Table: s.tableName()}
	if s.eof() || s.is(";") {
		s.fail("alter specification")
	}
	for !s.failed() && !s.eof() && !s.is(";") {
		spec := s.parseAlterSpec()
		if spec != nil {
			at.Specs = append(at.Specs, spec)
		}
		if !s.accept(",") {
			break
		}
	}
	at.Span = s.span(start)
	return at
}

func (s *state) parseAlterSpec() ast.AlterSpec {
	start := s.startPos()
	info := func() ast.NodeInfo { return ast.NodeInfo{Span: s.span(start)} }

	switch {
	case s.accept("ADD"):
		return s.parseAlterAdd(start)

	case s.accept("DROP"):
		switch {
		case s.acceptSeq("PRIMARY", "KEY"):
			return &ast.DropPrimaryKey{NodeInfo: info()}
		case s.accept("INDEX"), s.accept("KEY"):
			return &ast.DropIndex{Name: s.ident(), NodeInfo: info()}
		case s.acceptSeq("FOREIGN", "KEY"):
			return &ast.DropForeignKey{Name: s.ident(), NodeInfo: info()}
		case s.accept("CHECK"), s.accept("CONSTRAINT"):
			return &ast.DropConstraint{Name: s.ident(), NodeInfo: info()}
		}
		s.accept("COLUMN")
		name := s.ident()
		if !s.accept("RESTRICT") {
			s.accept("CASCADE")
		}
		return &ast.DropColumn{Name: name, NodeInfo: info()}

	case s.accept("CHANGE"):
		s.accept("COLUMN")
		cc := &ast.ChangeColumn{Old: s.ident()}
		cc.Column = s.parseColumnDef()
		cc.First, cc.After = s.parseColumnPosition()
		cc.Span = s.span(start)
		return cc

	case s.accept("MODIFY"):
		s.accept("COLUMN")
		cc := &ast.ChangeColumn{Modify: true}
		cc.Column = s.parseColumnDef()
		if cc.Column != nil {
			cc.Old = cc.Column.Name
		}
		cc.First, cc.After = s.parseColumnPosition()
		cc.Span = s.span(start)
		return cc

	case s.accept("RENAME"):
		switch {
		case s.accept("COLUMN"):
			rc := &ast.RenameColumn{Old: s.ident()}
			s.expect("TO")
			rc.New = s.ident()
			rc.Span = s.span(start)
			return rc
		case s.accept("INDEX"), s.accept("KEY"):
			ri := &ast.RenameIndex{Old: s.ident()}
			s.expect("TO")
			ri.New = s.ident()
			ri.Span = s.span(start)
			return ri
		}
		if !s.accept("TO") {
			s.accept("AS")
		}
		return &ast.RenameTo{Table: s.tableName(), NodeInfo: info()}

	case s.accept("ALTER"):
		s.accept("COLUMN")
		ad := &ast.AlterColumnDefault{Column: s.ident()}
		switch {
		case s.acceptSeq("SET", "DEFAULT"):
			ad.Default = s.parseUnary()
		case s.acceptSeq("DROP", "DEFAULT"):
			ad.Drop = true
		case s.acceptSeq("SET", "VISIBLE"), s.acceptSeq("SET", "INVISIBLE"):
			return &ast.AlterOption{Name: "VISIBILITY", Value: ad.Column, NodeInfo: info()}
		default:
			s.fail("SET DEFAULT", "DROP DEFAULT")
		}
		ad.Span = s.span(start)
		return ad

	case s.acceptSeq("CONVERT", "TO"):
		cc := &ast.ConvertCharset{}
		if !s.acceptSeq("CHARACTER", "SET") {
			s.expect("CHARSET")
		}
		cc.Charset = strings.ToLower(s.identOrString())
		if s.accept("COLLATE") {
			cc.Collate = strings.ToLower(s.identOrString())
		}
		cc.Span = s.span(start)
		return cc

	case s.isAny("ALGORITHM", "LOCK"):
		opt := &ast.AlterOption{Name: word(s.advance())}
		s.accept("=")
		opt.Value = strings.ToUpper(s.optionValue())
		opt.Span = s.span(start)
		return opt

	case s.accept("FORCE"):
		return &ast.AlterOption{Name: "FORCE", NodeInfo: info()}

	case s.isAny("ENABLE", "DISABLE") && s.isAt(1, "KEYS"):
		opt := &ast.AlterOption{Name: word(s.advance()) + " KEYS"}
		s.advance()
		opt.Span = s.span(start)
		return opt
	}

	if opts := s.parseTableOptions(false); len(opts) > 0 {
		return &ast.TableOptions{Options: opts, NodeInfo: info()}
	}
	s.fail("alter specification")
	return nil
}

func (s *state) parseAlterAdd(start int) ast.AlterSpec {
	info := func() ast.NodeInfo { return ast.NodeInfo{Span: s.span(start)} }
	switch {
	case s.isAny("INDEX", "KEY", "FULLTEXT", "SPATIAL", "PRIMARY", "UNIQUE"):
		return &ast.AddIndex{Index: s.parseIndexDef(""), NodeInfo: info()}
	case s.isAny("CONSTRAINT", "FOREIGN", "CHECK"):
		var spec ast.AlterSpec
		s.parseConstraintDef(func(idx *ast.IndexDef) {
			spec = &ast.AddIndex{Index: idx}
		}, func(fk *ast.ForeignKeyDef) {
			spec = &ast.AddForeignKey{ForeignKey: fk}
		}, func(ck *ast.CheckDef) {
			spec = &ast.AddCheck{Check: ck}
		})
		switch v := spec.(type) {
		case *ast.AddIndex:
			v.Span = s.span(start)
		case *ast.AddForeignKey:
			v.Span = s.span(start)
		case *ast.AddCheck:
			v.Span = s.span(start)
		}
		return spec
	}
	s.accept("COLUMN")
	add := &ast.AddColumns{}
	if s.accept("(") {
		for {
			add.Columns = append(add.Columns, s.parseColumnDef())
			if !s.accept(",") || s.failed() {
				break
			}
		}
		s.expect(")")
	} else {
		add.Columns = []*ast.ColumnDef{s.parseColumnDef()}
		add.First, add.After = s.parseColumnPosition()
	}
	add.Span = s.span(start)
	return add
}

func (s *state) parseColumnPosition() (first bool, after string) {
	if s.accept("FIRST") {
		return true, ""
	}
	if s.accept("AFTER") {
		return false, s.ident()
	}
	return false, ""
}
