package telemetry

// Histogram bucket definitions for different latency profiles
var (
	// TranslateBuckets for parsing and lowering one query string
	TranslateBuckets = []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05}

	// QueryBuckets for running the lowered statements on SQLite
	QueryBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1}

	// RowBuckets for rows returned or affected
	RowBuckets = []float64{0, 1, 10, 100, 1000, 10000, 100000}
)

// Translation Metrics
var (
	// StatementsTranslatedTotal counts MySQL statements by type (SELECT, CREATE_TABLE, ...)
	StatementsTranslatedTotal CounterVec = noopCounterVec{}

	// TranslationErrorsTotal counts failures by class (lex, syntax, unsupported, engine, transaction)
	TranslationErrorsTotal CounterVec = noopCounterVec{}

	// TranslationCacheTotal counts transpilation cache lookups by result (hit, miss)
	TranslationCacheTotal CounterVec = noopCounterVec{}

	// TranslationDurationSeconds measures parse and rewrite latency
	TranslationDurationSeconds Histogram = NoopStat{}

	// CachedTranslations tracks entries in the transpilation cache
	CachedTranslations Gauge = NoopStat{}
)

// Execution Metrics
var (
	// SQLiteStatementsTotal counts executed SQLite statements by kind (exec, query, ...)
	SQLiteStatementsTotal CounterVec = noopCounterVec{}

	// QueryDurationSeconds measures the SQLite side of a query by statement type
	QueryDurationSeconds HistogramVec = noopHistogramVec{}

	// RowsAffected measures rows affected per write query
	RowsAffected Histogram = NoopStat{}

	// RowsReturned measures rows returned per read query
	RowsReturned Histogram = NoopStat{}

	// TransactionDepth tracks the current transaction nesting level
	TransactionDepth Gauge = NoopStat{}
)

// Catalog Metrics
var (
	// ReconstructedTablesTotal counts tables whose catalog rows were regenerated
	ReconstructedTablesTotal Counter = NoopStat{}

	// CatalogTables tracks tables recorded in the information schema catalog
	CatalogTables Gauge = NoopStat{}
)

// InitMetrics initializes all Prometheus metrics.
// Must be called after InitializeTelemetry().
func InitMetrics() {
	StatementsTranslatedTotal = NewCounterVec(
		"statements_translated_total",
		"MySQL statements translated by type",
		[]string{"type"},
	)
	TranslationErrorsTotal = NewCounterVec(
		"translation_errors_total",
		"Failed queries by error class",
		[]string{"class"},
	)
	TranslationCacheTotal = NewCounterVec(
		"translation_cache_total",
		"Transpilation cache lookups by result",
		[]string{"result"},
	)
	TranslationDurationSeconds = NewHistogramWithBuckets(
		"translation_duration_seconds",
		"Time to parse and rewrite a query in seconds",
		TranslateBuckets,
	)
	CachedTranslations = NewGauge(
		"cached_translations",
		"Entries in the transpilation cache",
	)

	SQLiteStatementsTotal = NewCounterVec(
		"sqlite_statements_total",
		"SQLite statements executed by kind",
		[]string{"kind"},
	)
	QueryDurationSeconds = NewHistogramVec(
		"query_duration_seconds",
		"Time spent in SQLite per query in seconds",
		[]string{"type"},
		QueryBuckets,
	)
	RowsAffected = NewHistogramWithBuckets(
		"rows_affected",
		"Number of rows affected per write query",
		RowBuckets,
	)
	RowsReturned = NewHistogramWithBuckets(
		"rows_returned",
		"Number of rows returned per read query",
		RowBuckets,
	)
	TransactionDepth = NewGauge(
		"transaction_depth",
		"Current transaction nesting level",
	)

	ReconstructedTablesTotal = NewCounter(
		"reconstructed_tables_total",
		"Tables whose catalog rows were regenerated",
	)
	CatalogTables = NewGauge(
		"catalog_tables",
		"Tables recorded in the information schema catalog",
	)
}
