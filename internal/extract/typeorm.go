package extract

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	typeormUpFuncRe           = regexp.MustCompile(`\basync\s+up\s*\(\s*([A-Za-z_$][A-Za-z0-9_$]*)\s*:`)
	typeormDownFuncRe         = regexp.MustCompile(`\basync\s+down\s*\(`)
	typeormTransactionFalseRe = regexp.MustCompile(`\btransaction\s*=\s*false\b`)
	typeormConditionalOpenRe  = regexp.MustCompile(`\b(if|switch)\s*\(|\?[^:]*:`)
)

// extractTypeORM implements spec §4.2's TypeORM rule: locate the `up`
// method, record its query-runner parameter name, and lift every literal
// argument to `<paramName>.query(...)`. The conditional-depth counter is a
// brace-counting heuristic over the method body's source lines rather than
// a true syntax-tree walk.
func extractTypeORM(content []byte) Result {
	text := string(content)
	res := Result{AutoCommit: typeormTransactionFalseRe.MatchString(text)}

	m := typeormUpFuncRe.FindStringSubmatchIndex(text)
	if m == nil {
		return res
	}
	paramName := text[m[2]:m[3]]
	bodyStart := m[1]

	bodyEnd := len(text)
	if rest := typeormDownFuncRe.FindStringIndex(text[bodyStart:]); rest != nil {
		bodyEnd = bodyStart + rest[0]
	}
	body := text[bodyStart:bodyEnd]
	startLine := strings.Count(text[:bodyStart], "\n") + 1

	callRe := regexp.MustCompile(regexp.QuoteMeta(paramName) + `\.query\(`)

	depth := 0
	var sql strings.Builder
	for i, line := range strings.Split(body, "\n") {
		lineNo := startLine + i

		if typeormConditionalOpenRe.MatchString(line) {
			depth++
		}
		for j := 0; j < strings.Count(line, "}") && depth > 0; j++ {
			depth--
		}

		loc := callRe.FindStringIndex(line)
		if loc == nil {
			continue
		}

		arg, lit := firstArgument(line[loc[1]:])
		value, isLiteral := sqlLiteral(arg)
		if !lit || !isLiteral {
			res.Warnings = append(res.Warnings, Warning{
				Message: "Dynamic SQL — cannot statically analyze queryRunner.query() argument",
				Line:    lineNo,
			})
			continue
		}

		if depth > 0 {
			res.Warnings = append(res.Warnings, Warning{
				Message: fmt.Sprintf("Conditional SQL at line %d — statement may or may not execute depending on runtime condition", lineNo),
				Line:    lineNo,
			})
		}

		literalValue := unquote(arg)
		if strings.Contains(arg, "${") {
			res.Warnings = append(res.Warnings, Warning{
				Message: "Dynamic SQL — cannot statically analyze queryRunner.query() argument",
				Line:    lineNo,
			})
			continue
		}
		sql.WriteString(literalValue)
		if !strings.HasSuffix(strings.TrimSpace(literalValue), ";") {
			sql.WriteString(";")
		}
		sql.WriteString("\n")
	}

	res.SQL = sql.String()
	return res
}

// firstArgument extracts the first top-level argument of a call whose
// opening paren has already been consumed, along with whether it is a
// plain string or no-interpolation template literal.
func firstArgument(rest string) (string, bool) {
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return "", false
	}
	quote := rest[0]
	if quote != '\'' && quote != '"' && quote != '`' {
		return "", false
	}
	for i := 1; i < len(rest); i++ {
		if rest[i] == quote && rest[i-1] != '\\' {
			return rest[:i+1], true
		}
	}
	return "", false
}
