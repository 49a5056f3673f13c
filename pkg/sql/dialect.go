package sql

import "regexp"

// dialectDetector flags a construct that is valid in some other SQL engine
// but not in MySQL. Detectors are an ordered table so new entries can be
// added without touching control flow.
type dialectDetector struct {
	name       string
	pattern    *regexp.Regexp
	message    string
	suggestion string
}

// foreignDialectDetectors is the ordered library of foreign-construct scans.
// Each match appends a high-severity dialect error. The repair rules in
// repair.go mirror this table entry by entry.
var foreignDialectDetectors = []dialectDetector{
	{
		name:       "cast_operator",
		pattern:    regexp.MustCompile(`::\s*[A-Za-z_][A-Za-z0-9_]*`),
		message:    "PostgreSQL '::' cast syntax is not supported",
		suggestion: "use CAST(expr AS type)",
	},
	{
		name:       "ilike_operator",
		pattern:    regexp.MustCompile(`(?i)\bILIKE\b`),
		message:    "ILIKE is PostgreSQL-specific",
		suggestion: "use LOWER(expr) LIKE LOWER(pattern)",
	},
	{
		name:       "ci_regex_operator",
		pattern:    regexp.MustCompile(`~\*`),
		message:    "'~*' case-insensitive regex match is PostgreSQL-specific",
		suggestion: "use REGEXP",
	},
	{
		name:       "pipe_concat",
		pattern:    regexp.MustCompile(`\|\|`),
		message:    "'||' string concatenation is not supported; MySQL treats || as logical OR",
		suggestion: "use CONCAT(a, b)",
	},
	{
		name:       "numbered_placeholder",
		pattern:    regexp.MustCompile(`\$\d+`),
		message:    "numbered placeholders ($1, $2, ...) are PostgreSQL-specific",
		suggestion: "use ? placeholders",
	},
	{
		name:       "string_agg",
		pattern:    regexp.MustCompile(`(?i)\b(STRING_AGG|ARRAY_AGG|LISTAGG)\s*\(`),
		message:    "STRING_AGG/ARRAY_AGG/LISTAGG aggregation is not supported",
		suggestion: "use GROUP_CONCAT(expr SEPARATOR sep)",
	},
	{
		name:       "select_top",
		pattern:    regexp.MustCompile(`(?i)\bSELECT\s+(DISTINCT\s+)?TOP\s+\(?\d+\)?`),
		message:    "SELECT TOP n is SQL Server syntax",
		suggestion: "use LIMIT n",
	},
	{
		name:       "offset_fetch",
		pattern:    regexp.MustCompile(`(?i)\bFETCH\s+(FIRST|NEXT)\s+\d+\s+ROWS?\s+ONLY\b`),
		message:    "OFFSET ... FETCH pagination is not supported",
		suggestion: "use LIMIT n OFFSET m",
	},
	{
		name:       "date_part",
		pattern:    regexp.MustCompile(`(?i)\bDATE_PART\s*\(`),
		message:    "DATE_PART is PostgreSQL-specific",
		suggestion: "use EXTRACT(field FROM expr)",
	},
	{
		name:       "to_char",
		pattern:    regexp.MustCompile(`(?i)\bTO_CHAR\s*\(`),
		message:    "TO_CHAR formatting is not supported",
		suggestion: "use DATE_FORMAT(expr, format)",
	},
	{
		name:       "nvl",
		pattern:    regexp.MustCompile(`(?i)\bNVL\s*\(`),
		message:    "NVL is Oracle-specific",
		suggestion: "use IFNULL(a, b)",
	},
	{
		name: "isnull_two_arg",
		// MySQL's own ISNULL takes a single argument; two arguments is T-SQL.
		pattern:    regexp.MustCompile(`(?i)\bISNULL\s*\([^()]*,`),
		message:    "two-argument ISNULL is SQL Server syntax",
		suggestion: "use IFNULL(a, b)",
	},
	{
		name:       "bracket_identifier",
		pattern:    regexp.MustCompile(`\[[A-Za-z_][A-Za-z0-9_ ]*\]`),
		message:    "bracketed identifiers are SQL Server syntax",
		suggestion: "use backtick quoting",
	},
	{
		name:       "unicode_literal",
		pattern:    regexp.MustCompile(`\bN'`),
		message:    "N'...' Unicode literals are SQL Server syntax",
		suggestion: "use a plain string literal",
	},
	{
		name:       "double_quoted_identifier",
		pattern:    regexp.MustCompile(`"[A-Za-z_][A-Za-z0-9_]*"`),
		message:    "double-quoted identifiers are read as string literals by MySQL",
		suggestion: "use backtick quoting",
	},
	{
		name:       "getdate",
		pattern:    regexp.MustCompile(`(?i)\b(GETDATE|SYSDATETIME)\s*\(\s*\)`),
		message:    "GETDATE()/SYSDATETIME() is SQL Server syntax",
		suggestion: "use NOW()",
	},
	{
		name:       "sysdate",
		pattern:    regexp.MustCompile(`(?i)\bSYSDATE\b`),
		message:    "bare SYSDATE is Oracle syntax",
		suggestion: "use NOW()",
	},
}

// smellDetector flags style and performance smells. Matches become warnings
// and never block execution.
type smellDetector struct {
	name       string
	kind       WarningKind
	pattern    *regexp.Regexp
	message    string
	suggestion string
}

var querySmellDetectors = []smellDetector{
	{
		name:       "select_star",
		kind:       WarningKindPerformance,
		pattern:    regexp.MustCompile(`(?i)^\s*SELECT\s+\*`),
		message:    "SELECT * fetches every column",
		suggestion: "name the columns you need",
	},
	{
		name:       "leading_wildcard",
		kind:       WarningKindPerformance,
		pattern:    regexp.MustCompile(`(?i)\bLIKE\s+(LOWER\s*\(\s*)?'%`),
		message:    "leading-wildcard LIKE cannot use an index",
		suggestion: "anchor the pattern or use a full-text index",
	},
	{
		name:       "random_order",
		kind:       WarningKindPerformance,
		pattern:    regexp.MustCompile(`(?i)\bORDER\s+BY\s+(RAND|RANDOM)\s*\(`),
		message:    "ORDER BY RAND() sorts the whole result set",
		suggestion: "sample with a bounded subquery instead",
	},
	{
		name:       "ordinal_order_by",
		kind:       WarningKindStyle,
		pattern:    regexp.MustCompile(`(?i)\bORDER\s+BY\s+\d+\b`),
		message:    "ordinal ORDER BY is fragile when the select list changes",
		suggestion: "order by column name",
	},
	{
		name:       "not_in_subquery",
		kind:       WarningKindStyle,
		pattern:    regexp.MustCompile(`(?i)\bNOT\s+IN\s*\(\s*SELECT\b`),
		message:    "NOT IN with a subquery mishandles NULLs",
		suggestion: "use NOT EXISTS",
	},
}

// havingPattern and groupByPattern support the HAVING-without-GROUP-BY smell,
// which needs two coordinated matches and so lives outside the table.
var (
	havingPattern  = regexp.MustCompile(`(?i)\bHAVING\b`)
	groupByPattern = regexp.MustCompile(`(?i)\bGROUP\s+BY\b`)
)
