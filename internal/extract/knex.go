package extract

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	knexUpHeaderRe  = regexp.MustCompile(`\bup\s*(?:=\s*(?:async\s*)?(?:function\s*)?)?\(\s*([A-Za-z_$][A-Za-z0-9_$]*)`)
	knexDownHeaderRe = regexp.MustCompile(`\bdown\s*(?:=\s*(?:async\s*)?(?:function\s*)?)?\(`)
	knexRawRe       = regexp.MustCompile(`\.(?:raw)\(`)
	knexSchemaCallRe = regexp.MustCompile(`([A-Za-z_$][A-Za-z0-9_$]*)\.schema\.(createTable|createTableIfNotExists|alterTable|dropTable|dropTableIfExists|renameTable)\(`)
	knexChainCallRe = regexp.MustCompile(`\.([A-Za-z_$][A-Za-z0-9_$]*)\(([^()]*)\)`)
	knexCallbackParamRe = regexp.MustCompile(`function\s*\(\s*([A-Za-z_$][A-Za-z0-9_$]*)\s*\)|\(\s*([A-Za-z_$][A-Za-z0-9_$]*)\s*\)\s*=>`)
)

var knexTypeMap = map[string]func(args []string) string{
	"string": func(args []string) string {
		if len(args) > 1 {
			return fmt.Sprintf("varchar(%s)", args[1])
		}
		return "varchar(255)"
	},
	"text":         func(args []string) string { return "text" },
	"integer":      func(args []string) string { return "integer" },
	"bigInteger":   func(args []string) string { return "bigint" },
	"increments":   func(args []string) string { return "serial PRIMARY KEY" },
	"bigIncrements": func(args []string) string { return "bigserial PRIMARY KEY" },
	"boolean":      func(args []string) string { return "boolean" },
	"decimal": func(args []string) string {
		if len(args) > 1 {
			return fmt.Sprintf("decimal(%s)", strings.Join(args, ","))
		}
		return "decimal"
	},
	"float":    func(args []string) string { return "real" },
	"double":   func(args []string) string { return "double precision" },
	"date":     func(args []string) string { return "date" },
	"datetime": func(args []string) string { return "timestamp" },
	"timestamp": func(args []string) string { return "timestamp" },
	"time":     func(args []string) string { return "time" },
	"json":     func(args []string) string { return "json" },
	"jsonb":    func(args []string) string { return "jsonb" },
	"uuid":     func(args []string) string { return "uuid" },
	"specificType": func(args []string) string {
		if len(args) > 1 {
			return unquote(args[1])
		}
		return "text"
	},
}

// extractKnex implements spec §4.2's Knex rule: locate the `up` function,
// lift literal arguments to `.raw(...)` calls, and transpile
// `knex.schema.<method>` builder chains per §4.2.1.
func extractKnex(content []byte) Result {
	text := string(content)
	res := Result{}

	m := knexUpHeaderRe.FindStringSubmatchIndex(text)
	if m == nil {
		return res
	}
	bodyStart := m[1]
	bodyEnd := len(text)
	if rest := knexDownHeaderRe.FindStringIndex(text[bodyStart:]); rest != nil {
		bodyEnd = bodyStart + rest[0]
	}
	body := text[bodyStart:bodyEnd]
	startLine := strings.Count(text[:bodyStart], "\n") + 1

	var sql strings.Builder

	for _, loc := range knexRawRe.FindAllStringIndex(body, -1) {
		arg, lit := firstArgument(body[loc[1]:])
		value, isLiteral := sqlLiteral(arg)
		if !lit || !isLiteral {
			lineNo := startLine + strings.Count(body[:loc[0]], "\n")
			res.Warnings = append(res.Warnings, Warning{
				Message: "Dynamic SQL — cannot statically analyze .raw() argument",
				Line:    lineNo,
			})
			continue
		}
		_ = value
		sql.WriteString(unquote(arg))
		sql.WriteString(";\n")
	}

	for _, loc := range knexSchemaCallRe.FindAllStringSubmatchIndex(body, -1) {
		method := body[loc[4]:loc[5]]
		argsStart := loc[1]
		argsRaw, ok := matchingParenBody(body, argsStart-1)
		if !ok {
			continue
		}
		lineNo := startLine + strings.Count(body[:loc[0]], "\n")

		switch method {
		case "createTable", "createTableIfNotExists":
			stmt, warn := transpileKnexCreateTable(argsRaw, method == "createTableIfNotExists")
			if warn != "" {
				res.Warnings = append(res.Warnings, Warning{Message: warn, Line: lineNo})
				continue
			}
			sql.WriteString(stmt)
		case "alterTable":
			stmts, warn := transpileKnexAlterTable(argsRaw)
			if warn != "" {
				res.Warnings = append(res.Warnings, Warning{Message: warn, Line: lineNo})
				continue
			}
			for _, s := range stmts {
				sql.WriteString(s)
			}
		case "dropTable", "dropTableIfExists":
			args := splitArgs(argsRaw)
			if len(args) == 0 {
				continue
			}
			ifExists := ""
			if method == "dropTableIfExists" {
				ifExists = "IF EXISTS "
			}
			sql.WriteString(fmt.Sprintf("DROP TABLE %s%s;\n", ifExists, unquote(args[0])))
		case "renameTable":
			args := splitArgs(argsRaw)
			if len(args) < 2 {
				continue
			}
			sql.WriteString(fmt.Sprintf("ALTER TABLE %s RENAME TO %s;\n", unquote(args[0]), unquote(args[1])))
		}
	}

	res.SQL = sql.String()
	return res
}

// matchingParenBody returns the contents between the parenthesis opening
// at openIdx (which must point at '(') and its matching close, tracking
// nested parens/brackets/braces and quoted strings.
func matchingParenBody(s string, openIdx int) (string, bool) {
	if openIdx < 0 || openIdx >= len(s) || s[openIdx] != '(' {
		return "", false
	}
	depth := 0
	var quote byte
	for i := openIdx; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote && s[i-1] != '\\' {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return s[openIdx+1 : i], true
			}
		}
	}
	return "", false
}

func transpileKnexCreateTable(argsRaw string, ifNotExists bool) (string, string) {
	args := splitArgsTopLevel(argsRaw)
	if len(args) < 2 {
		return "", "createTable call missing table name or callback"
	}
	tableName := unquote(args[0])

	m := knexCallbackParamRe.FindStringSubmatch(args[1])
	if m == nil {
		return "", fmt.Sprintf("unsupported createTable callback form for %s", tableName)
	}
	param := m[1]
	if param == "" {
		param = m[2]
	}

	cols, warn := transpileKnexColumns(args[1], param)
	if warn != "" {
		return "", warn
	}

	clause := "CREATE TABLE "
	if ifNotExists {
		clause += "IF NOT EXISTS "
	}
	return fmt.Sprintf("%s%s (\n  %s\n);\n", clause, tableName, strings.Join(cols, ",\n  ")), ""
}

func transpileKnexAlterTable(argsRaw string) ([]string, string) {
	args := splitArgsTopLevel(argsRaw)
	if len(args) < 2 {
		return nil, "alterTable call missing table name or callback"
	}
	tableName := unquote(args[0])

	m := knexCallbackParamRe.FindStringSubmatch(args[1])
	if m == nil {
		return nil, fmt.Sprintf("unsupported alterTable callback form for %s", tableName)
	}
	param := m[1]
	if param == "" {
		param = m[2]
	}

	var stmts []string
	chainRe := regexp.MustCompile(regexp.QuoteMeta(param) + `\.([A-Za-z_$][A-Za-z0-9_$]*)\(([^()]*)\)`)
	for _, call := range chainRe.FindAllStringSubmatch(args[1], -1) {
		method := call[1]
		callArgs := splitArgs(call[2])
		switch method {
		case "dropColumn":
			if len(callArgs) > 0 {
				stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;\n", tableName, unquote(callArgs[0])))
			}
		case "renameColumn":
			if len(callArgs) > 1 {
				stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s;\n", tableName, unquote(callArgs[0]), unquote(callArgs[1])))
			}
		default:
			if _, known := knexTypeMap[method]; known && len(callArgs) > 0 {
				colDef, err := knexColumnDef(method, callArgs, args[1])
				if err == "" {
					stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s;\n", tableName, colDef))
				}
			}
		}
	}
	return stmts, ""
}

// transpileKnexColumns scans callbackBody for `<param>.<typeMethod>(col, ...)`
// chains and renders each as a column definition string.
func transpileKnexColumns(callbackBody, param string) ([]string, string) {
	chainRe := regexp.MustCompile(regexp.QuoteMeta(param) + `\.([A-Za-z_$][A-Za-z0-9_$]*)\(([^()]*)\)([^;\n]*)`)
	var cols []string
	for _, line := range strings.Split(callbackBody, "\n") {
		m := chainRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		method := m[1]
		if _, known := knexTypeMap[method]; !known {
			continue
		}
		args := splitArgs(m[2])
		if len(args) == 0 {
			continue
		}
		colDef, err := knexColumnDef(method, args, line)
		if err != "" {
			return nil, err
		}
		cols = append(cols, colDef)
	}
	if len(cols) == 0 {
		return nil, "no recognizable column definitions in createTable callback"
	}
	return cols, ""
}

func knexColumnDef(method string, args []string, chainTail string) (string, string) {
	typeFn, ok := knexTypeMap[method]
	if !ok {
		return "", fmt.Sprintf("unsupported builder method %s", method)
	}
	colName := unquote(args[0])
	sqlType := typeFn(args)

	var clauses []string
	for _, call := range knexChainCallRe.FindAllStringSubmatch(chainTail, -1) {
		mod := call[1]
		modArgs := splitArgs(call[2])
		switch mod {
		case "notNullable":
			clauses = append(clauses, "NOT NULL")
		case "nullable":
			// default nullability; nothing to emit
		case "defaultTo":
			if len(modArgs) == 0 {
				continue
			}
			val, isLiteral := sqlLiteral(modArgs[0])
			if isLiteral {
				clauses = append(clauses, "DEFAULT "+val)
			} else {
				clauses = append(clauses, "DEFAULT pgfence_volatile_expr()")
			}
		case "primary":
			clauses = append(clauses, "PRIMARY KEY")
		case "unique":
			clauses = append(clauses, "UNIQUE")
		case "references":
			if len(modArgs) > 0 {
				clauses = append(clauses, "REFERENCES "+unquote(modArgs[0]))
			}
		case "onDelete":
			if len(modArgs) > 0 {
				clauses = append(clauses, "ON DELETE "+unquote(modArgs[0]))
			}
		case "onUpdate":
			if len(modArgs) > 0 {
				clauses = append(clauses, "ON UPDATE "+unquote(modArgs[0]))
			}
		}
	}

	def := colName + " " + sqlType
	if len(clauses) > 0 {
		def += " " + strings.Join(clauses, " ")
	}
	return def, ""
}

// splitArgsTopLevel is splitArgs but tolerant of a callback's own internal
// commas (it only splits at depth 0, same as splitArgs — named separately
// here for readability at Knex/Sequelize call sites).
func splitArgsTopLevel(raw string) []string {
	return splitArgs(raw)
}
