package grammar

// Assoc is operator associativity.
type Assoc int

const (
	AssocLeft Assoc = iota
	AssocRight
	AssocNone
)

// Precedence levels, lowest binding first. They follow the MySQL manual's
// operator precedence table.
const (
	PrecNone = iota
	PrecAssign
	PrecOr
	PrecXor
	PrecAnd
	PrecNot
	PrecPredicate
	PrecComparison
	PrecBitOr
	PrecBitAnd
	PrecShift
	PrecAdditive
	PrecMultiplicative
	PrecBitXor
	PrecUnary
	PrecBang
	PrecCollate
	PrecInterval
)

// OpInfo describes one operator spelling. Op is the canonical operator the
// AST records for it.
type OpInfo struct {
	Token string
	Op    string
	Prec  int
	Assoc Assoc
}

var binaryOperators = []OpInfo{
	{":=", ":=", PrecAssign, AssocRight},
	{"OR", "OR", PrecOr, AssocLeft},
	{"||", "OR", PrecOr, AssocLeft},
	{"XOR", "XOR", PrecXor, AssocLeft},
	{"AND", "AND", PrecAnd, AssocLeft},
	{"&&", "AND", PrecAnd, AssocLeft},

	// BETWEEN, IN, LIKE, REGEXP, RLIKE, IS, NOT, SOUNDS and MEMBER are
	// predicate introducers; the parser handles their operands.
	{"BETWEEN", "BETWEEN", PrecPredicate, AssocNone},
	{"=", "=", PrecComparison, AssocLeft},
	{"<=>", "<=>", PrecComparison, AssocLeft},
	{">=", ">=", PrecComparison, AssocLeft},
	{">", ">", PrecComparison, AssocLeft},
	{"<=", "<=", PrecComparison, AssocLeft},
	{"<", "<", PrecComparison, AssocLeft},
	{"<>", "!=", PrecComparison, AssocLeft},
	{"!=", "!=", PrecComparison, AssocLeft},
	{"IS", "IS", PrecComparison, AssocNone},
	{"LIKE", "LIKE", PrecComparison, AssocNone},
	{"REGEXP", "REGEXP", PrecComparison, AssocNone},
	{"RLIKE", "REGEXP", PrecComparison, AssocNone},
	{"IN", "IN", PrecComparison, AssocNone},
	{"NOT", "NOT", PrecComparison, AssocNone},
	{"SOUNDS", "SOUNDS", PrecComparison, AssocNone},
	{"MEMBER", "MEMBER", PrecComparison, AssocNone},

	{"|", "|", PrecBitOr, AssocLeft},
	{"&", "&", PrecBitAnd, AssocLeft},
	{"<<", "<<", PrecShift, AssocLeft},
	{">>", ">>", PrecShift, AssocLeft},
	{"+", "+", PrecAdditive, AssocLeft},
	{"-", "-", PrecAdditive, AssocLeft},
	{"*", "*", PrecMultiplicative, AssocLeft},
	{"/", "/", PrecMultiplicative, AssocLeft},
	{"DIV", "DIV", PrecMultiplicative, AssocLeft},
	{"%", "%", PrecMultiplicative, AssocLeft},
	{"MOD", "%", PrecMultiplicative, AssocLeft},
	{"^", "^", PrecBitXor, AssocLeft},
	{"COLLATE", "COLLATE", PrecCollate, AssocLeft},
	{"->", "->", PrecCollate, AssocLeft},
	{"->>", "->>", PrecCollate, AssocLeft},
}

var unaryOperators = []OpInfo{
	{"NOT", "NOT", PrecNot, AssocRight},
	{"-", "-", PrecUnary, AssocRight},
	{"+", "+", PrecUnary, AssocRight},
	{"~", "~", PrecUnary, AssocRight},
	{"!", "NOT", PrecBang, AssocRight},
	{"BINARY", "BINARY", PrecCollate, AssocRight},
}
