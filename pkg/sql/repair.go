package sql

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultRowBound is appended to read statements that carry no LIMIT clause.
const DefaultRowBound = 100

// operand matches the simple expressions the rewrite rules operate on:
// a quoted literal, a possibly qualified (and backticked) name, or a single
// function call without nested parentheses.
const operand = "('(?:[^']|'')*'" + "|[A-Za-z0-9_]+\\([^()]*\\)" + "|[A-Za-z0-9_.`?]+)"

// repairRule is one deterministic rewrite. Rules run in order and mirror the
// detector table in dialect.go.
type repairRule struct {
	name  string
	apply func(stmt string) (string, []RepairAction)
}

// regexRule builds a rule that applies re, recording one action per match.
func regexRule(name string, confidence Confidence, re *regexp.Regexp, template string) repairRule {
	return repairRule{
		name: name,
		apply: func(stmt string) (string, []RepairAction) {
			var actions []RepairAction
			out := re.ReplaceAllStringFunc(stmt, func(match string) string {
				replacement := re.ReplaceAllString(match, template)
				actions = append(actions, RepairAction{
					Rule:        name,
					Original:    match,
					Replacement: replacement,
					Confidence:  confidence,
				})
				return replacement
			})
			return out, actions
		},
	}
}

// castTypeMap translates foreign cast target types onto MySQL CAST types.
var castTypeMap = map[string]string{
	"text":        "CHAR",
	"varchar":     "CHAR",
	"char":        "CHAR",
	"bpchar":      "CHAR",
	"int":         "SIGNED",
	"int2":        "SIGNED",
	"int4":        "SIGNED",
	"int8":        "SIGNED",
	"integer":     "SIGNED",
	"smallint":    "SIGNED",
	"bigint":      "SIGNED",
	"numeric":     "DECIMAL",
	"decimal":     "DECIMAL",
	"float":       "DOUBLE",
	"float4":      "DOUBLE",
	"float8":      "DOUBLE",
	"real":        "DOUBLE",
	"double":      "DOUBLE",
	"date":        "DATE",
	"timestamp":   "DATETIME",
	"timestamptz": "DATETIME",
	"datetime":    "DATETIME",
}

// Cast operands additionally admit $n placeholders so the whole token is
// consumed; the placeholder rule later rewrites it to '?' inside the CAST.
var castRe = regexp.MustCompile(`('(?:[^']|'')*'|\$\d+|[A-Za-z0-9_]+\([^()]*\)|[A-Za-z0-9_.` + "`" + `]+|\([^()]*\))\s*::\s*([A-Za-z_][A-Za-z0-9_]*)`)

func castRule() repairRule {
	return repairRule{
		name: "cast_operator",
		apply: func(stmt string) (string, []RepairAction) {
			var actions []RepairAction
			out := castRe.ReplaceAllStringFunc(stmt, func(match string) string {
				sub := castRe.FindStringSubmatch(match)
				target := sub[2]
				if mapped, ok := castTypeMap[strings.ToLower(target)]; ok {
					target = mapped
				} else {
					target = strings.ToUpper(target)
				}
				replacement := fmt.Sprintf("CAST(%s AS %s)", sub[1], target)
				actions = append(actions, RepairAction{
					Rule:        "cast_operator",
					Original:    match,
					Replacement: replacement,
					Confidence:  ConfidenceHigh,
				})
				return replacement
			})
			return out, actions
		},
	}
}

var ilikeRe = regexp.MustCompile(`(?i)` + operand + `\s+(NOT\s+)?ILIKE\s+` + operand)

func ilikeRule() repairRule {
	return repairRule{
		name: "ilike_operator",
		apply: func(stmt string) (string, []RepairAction) {
			var actions []RepairAction
			out := ilikeRe.ReplaceAllStringFunc(stmt, func(match string) string {
				sub := ilikeRe.FindStringSubmatch(match)
				op := "LIKE"
				if sub[2] != "" {
					op = "NOT LIKE"
				}
				replacement := fmt.Sprintf("LOWER(%s) %s LOWER(%s)", sub[1], op, sub[3])
				actions = append(actions, RepairAction{
					Rule:        "ilike_operator",
					Original:    match,
					Replacement: replacement,
					Confidence:  ConfidenceHigh,
				})
				return replacement
			})
			return out, actions
		},
	}
}

var concatRe = regexp.MustCompile(operand + `\s*\|\|\s*` + operand)

// concatRule folds '||' chains into CONCAT calls, one pair per pass. Each
// pass produces a call expression the operand pattern accepts, so chains
// converge left to right.
func concatRule() repairRule {
	return repairRule{
		name: "pipe_concat",
		apply: func(stmt string) (string, []RepairAction) {
			var actions []RepairAction
			for i := 0; i < 10 && concatRe.MatchString(stmt); i++ {
				stmt = concatRe.ReplaceAllStringFunc(stmt, func(match string) string {
					replacement := concatRe.ReplaceAllString(match, "CONCAT($1, $2)")
					actions = append(actions, RepairAction{
						Rule:        "pipe_concat",
						Original:    match,
						Replacement: replacement,
						Confidence:  ConfidenceHigh,
					})
					return replacement
				})
			}
			return stmt, actions
		},
	}
}

var (
	topRe         = regexp.MustCompile(`(?i)\b(SELECT)(\s+DISTINCT)?\s+TOP\s+\(?(\d+)\)?\s+`)
	offsetFetchRe = regexp.MustCompile(`(?i)\bOFFSET\s+(\d+)\s+ROWS?\s+FETCH\s+(?:FIRST|NEXT)\s+(\d+)\s+ROWS?\s+ONLY\b`)
	fetchOnlyRe   = regexp.MustCompile(`(?i)\bFETCH\s+(?:FIRST|NEXT)\s+(\d+)\s+ROWS?\s+ONLY\b`)
)

// topRule strips SELECT TOP n and moves the bound to a trailing LIMIT.
func topRule() repairRule {
	return repairRule{
		name: "select_top",
		apply: func(stmt string) (string, []RepairAction) {
			sub := topRe.FindStringSubmatch(stmt)
			if sub == nil {
				return stmt, nil
			}
			original := strings.TrimRight(sub[0], " ")
			stripped := topRe.ReplaceAllString(stmt, "$1$2 ")
			if !limitPattern.MatchString(stripped) {
				stripped = strings.TrimRight(stripped, " ") + " LIMIT " + sub[3]
			}
			return stripped, []RepairAction{{
				Rule:        "select_top",
				Original:    original,
				Replacement: "LIMIT " + sub[3],
				Confidence:  ConfidenceHigh,
			}}
		},
	}
}

var datePartRe = regexp.MustCompile(`(?i)\bDATE_PART\s*\(\s*'([A-Za-z]+)'\s*,\s*([^()]+?)\s*\)`)

func datePartRule() repairRule {
	return repairRule{
		name: "date_part",
		apply: func(stmt string) (string, []RepairAction) {
			var actions []RepairAction
			out := datePartRe.ReplaceAllStringFunc(stmt, func(match string) string {
				sub := datePartRe.FindStringSubmatch(match)
				replacement := fmt.Sprintf("EXTRACT(%s FROM %s)", strings.ToUpper(sub[1]), sub[2])
				actions = append(actions, RepairAction{
					Rule:        "date_part",
					Original:    match,
					Replacement: replacement,
					Confidence:  ConfidenceHigh,
				})
				return replacement
			})
			return out, actions
		},
	}
}

// toCharFormatTokens maps Oracle/PostgreSQL format tokens onto DATE_FORMAT
// specifiers. Longest tokens first so YYYY wins over YY.
var toCharFormatTokens = []struct{ from, to string }{
	{"YYYY", "%Y"},
	{"YY", "%y"},
	{"MON", "%b"},
	{"MM", "%m"},
	{"DD", "%d"},
	{"HH24", "%H"},
	{"HH12", "%h"},
	{"HH", "%H"},
	{"MI", "%i"},
	{"SS", "%s"},
}

var toCharRe = regexp.MustCompile(`(?i)\bTO_CHAR\s*\(\s*([^,()]+?)\s*,\s*'([^']*)'\s*\)`)

func toCharRule() repairRule {
	return repairRule{
		name: "to_char",
		apply: func(stmt string) (string, []RepairAction) {
			var actions []RepairAction
			out := toCharRe.ReplaceAllStringFunc(stmt, func(match string) string {
				sub := toCharRe.FindStringSubmatch(match)
				format := sub[2]
				for _, tok := range toCharFormatTokens {
					format = strings.ReplaceAll(format, tok.from, tok.to)
				}
				replacement := fmt.Sprintf("DATE_FORMAT(%s, '%s')", sub[1], format)
				actions = append(actions, RepairAction{
					Rule:        "to_char",
					Original:    match,
					Replacement: replacement,
					Confidence:  ConfidenceMedium,
				})
				return replacement
			})
			return out, actions
		},
	}
}

// repairRules is the ordered rewrite library. Order mirrors the detector
// table; placeholder numbering is discarded before identifier rules run so
// the '?' tokens cannot be re-quoted.
var repairRules = []repairRule{
	castRule(),
	ilikeRule(),
	regexRule("ci_regex_operator", ConfidenceMedium,
		regexp.MustCompile(operand+`\s*~\*\s*`+operand), "$1 REGEXP $2"),
	concatRule(),
	regexRule("numbered_placeholder", ConfidenceHigh,
		regexp.MustCompile(`\$\d+`), "?"),
	regexRule("string_agg", ConfidenceHigh,
		regexp.MustCompile(`(?i)\b(?:STRING_AGG|LISTAGG)\s*\(\s*([^,()]+?)\s*,\s*('[^']*')\s*\)`),
		"GROUP_CONCAT($1 SEPARATOR $2)"),
	regexRule("array_agg", ConfidenceMedium,
		regexp.MustCompile(`(?i)\bARRAY_AGG\s*\(\s*([^()]+?)\s*\)`), "GROUP_CONCAT($1)"),
	topRule(),
	regexRule("offset_fetch", ConfidenceHigh, offsetFetchRe, "LIMIT $2 OFFSET $1"),
	regexRule("offset_fetch", ConfidenceHigh, fetchOnlyRe, "LIMIT $1"),
	datePartRule(),
	toCharRule(),
	regexRule("nvl", ConfidenceHigh,
		regexp.MustCompile(`(?i)\bNVL\s*\(`), "IFNULL("),
	regexRule("isnull_two_arg", ConfidenceHigh,
		regexp.MustCompile(`(?i)\bISNULL(\s*\([^()]*,)`), "IFNULL$1"),
	regexRule("bracket_identifier", ConfidenceHigh,
		regexp.MustCompile(`\[([A-Za-z_][A-Za-z0-9_ ]*)\]`), "`$1`"),
	regexRule("unicode_literal", ConfidenceHigh,
		regexp.MustCompile(`\bN('(?:[^']|'')*')`), "$1"),
	regexRule("double_quoted_identifier", ConfidenceMedium,
		regexp.MustCompile(`"([A-Za-z_][A-Za-z0-9_]*)"`), "`$1`"),
	regexRule("getdate", ConfidenceHigh,
		regexp.MustCompile(`(?i)\b(?:GETDATE|SYSDATETIME)\s*\(\s*\)`), "NOW()"),
	regexRule("sysdate", ConfidenceHigh,
		regexp.MustCompile(`(?i)\bSYSDATE\b`), "NOW()"),
}

// Repair applies the ordered rewrite library with the default row bound.
func Repair(statement string) RepairResult {
	return RepairWithBound(statement, DefaultRowBound)
}

// RepairWithBound applies every rewrite rule in order, then appends a LIMIT
// clause to read statements that still lack one. Every substitution is
// recorded; repair is idempotent on already-native, already-bounded input.
func RepairWithBound(statement string, bound int) RepairResult {
	stmt := stripTrailingSemicolon(statement)

	var actions []RepairAction
	for _, rule := range repairRules {
		var applied []RepairAction
		stmt, applied = rule.apply(stmt)
		actions = append(actions, applied...)
	}

	if needsRowBound(stmt) && !limitPattern.MatchString(stmt) {
		bounded := fmt.Sprintf("%s LIMIT %d", strings.TrimSpace(stmt), bound)
		actions = append(actions, RepairAction{
			Rule:        "append_row_bound",
			Original:    stmt,
			Replacement: bounded,
			Confidence:  ConfidenceHigh,
		})
		stmt = bounded
	}

	return RepairResult{
		Statement: stmt,
		Actions:   actions,
		Repaired:  len(actions) > 0,
	}
}

// stripTrailingSemicolon removes a trailing statement terminator so rewrites
// that append clauses cannot produce a dangling semicolon mid-statement.
func stripTrailingSemicolon(statement string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(statement), " \t\n\r")
	if strings.HasSuffix(trimmed, ";") {
		trimmed = strings.TrimRight(strings.TrimSuffix(trimmed, ";"), " \t\n\r")
	}
	return trimmed
}
