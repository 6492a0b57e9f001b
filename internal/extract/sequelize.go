package extract

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	sequelizeQueryRe        = regexp.MustCompile(`\.sequelize\.query\(`)
	sequelizeQueryInterfaceRe = regexp.MustCompile(`queryInterface\.(createTable|addColumn|removeColumn|renameColumn|changeColumn|addIndex|removeIndex|dropTable|renameTable)\(`)
	sequelizeDataTypeRe      = regexp.MustCompile(`DataTypes\.([A-Z_]+)(?:\(([^()]*)\))?`)
)

var sequelizeTypeMap = map[string]func(args []string) string{
	"STRING": func(args []string) string {
		if len(args) > 0 {
			return fmt.Sprintf("varchar(%s)", args[0])
		}
		return "varchar(255)"
	},
	"TEXT":      func(args []string) string { return "text" },
	"INTEGER":   func(args []string) string { return "integer" },
	"BIGINT":    func(args []string) string { return "bigint" },
	"BOOLEAN":   func(args []string) string { return "boolean" },
	"DATE":      func(args []string) string { return "timestamp" },
	"DATEONLY":  func(args []string) string { return "date" },
	"JSON":      func(args []string) string { return "json" },
	"JSONB":     func(args []string) string { return "jsonb" },
	"UUID":      func(args []string) string { return "uuid" },
	"FLOAT":     func(args []string) string { return "real" },
	"DOUBLE":    func(args []string) string { return "double precision" },
	"DECIMAL": func(args []string) string {
		if len(args) > 1 {
			return fmt.Sprintf("decimal(%s)", strings.Join(args, ","))
		}
		return "decimal"
	},
}

// extractSequelize implements spec §4.2's Sequelize rule: lift literal
// `.sequelize.query(...)` arguments directly, and transpile bare
// `queryInterface.<method>(...)` calls per §4.2.2.
func extractSequelize(content []byte) Result {
	text := string(content)
	res := Result{}
	var sql strings.Builder

	for _, loc := range sequelizeQueryRe.FindAllStringIndex(text, -1) {
		arg, lit := firstArgument(text[loc[1]:])
		value, isLiteral := sqlLiteral(arg)
		if !lit || !isLiteral {
			lineNo := strings.Count(text[:loc[0]], "\n") + 1
			res.Warnings = append(res.Warnings, Warning{
				Message: "Dynamic SQL — cannot statically analyze sequelize.query() argument",
				Line:    lineNo,
			})
			continue
		}
		_ = value
		sql.WriteString(unquote(arg))
		sql.WriteString(";\n")
	}

	for _, loc := range sequelizeQueryInterfaceRe.FindAllStringSubmatchIndex(text, -1) {
		method := text[loc[2]:loc[3]]
		argsStart := loc[1]
		argsRaw, ok := matchingParenBody(text, argsStart-1)
		if !ok {
			continue
		}
		lineNo := strings.Count(text[:loc[0]], "\n") + 1

		stmt, warn := transpileSequelizeCall(method, argsRaw)
		if warn != "" {
			res.Warnings = append(res.Warnings, Warning{Message: warn, Line: lineNo})
			continue
		}
		sql.WriteString(stmt)
	}

	res.SQL = sql.String()
	return res
}

func transpileSequelizeCall(method, argsRaw string) (string, string) {
	args := splitArgs(argsRaw)

	switch method {
	case "createTable":
		return transpileSequelizeCreateTable(args)
	case "addColumn":
		if len(args) < 3 {
			return "", "addColumn call missing table, column, or definition"
		}
		colDef, warn := sequelizeColumnDefFromDefinition(unquote(args[1]), args[2])
		if warn != "" {
			return "", warn
		}
		return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s;\n", unquote(args[0]), colDef), ""
	case "removeColumn":
		if len(args) < 2 {
			return "", "removeColumn call missing table or column"
		}
		return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;\n", unquote(args[0]), unquote(args[1])), ""
	case "renameColumn":
		if len(args) < 3 {
			return "", "renameColumn call missing table or column names"
		}
		return fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s;\n", unquote(args[0]), unquote(args[1]), unquote(args[2])), ""
	case "changeColumn":
		if len(args) < 3 {
			return "", "changeColumn call missing table, column, or definition"
		}
		colDef, warn := sequelizeColumnDefFromDefinition(unquote(args[1]), args[2])
		if warn != "" {
			return "", warn
		}
		return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s;\n", unquote(args[0]), colDef), ""
	case "addIndex":
		if len(args) < 2 {
			return "", "addIndex call missing table or columns"
		}
		return fmt.Sprintf("CREATE INDEX ON %s (%s);\n", unquote(args[0]), stripQuotesJoined(args[1])), ""
	case "removeIndex":
		if len(args) < 2 {
			return "", "removeIndex call missing table or index name"
		}
		return fmt.Sprintf("DROP INDEX %s;\n", unquote(args[1])), ""
	case "dropTable":
		if len(args) < 1 {
			return "", "dropTable call missing table name"
		}
		return fmt.Sprintf("DROP TABLE %s;\n", unquote(args[0])), ""
	case "renameTable":
		if len(args) < 2 {
			return "", "renameTable call missing table names"
		}
		return fmt.Sprintf("ALTER TABLE %s RENAME TO %s;\n", unquote(args[0]), unquote(args[1])), ""
	default:
		return "", fmt.Sprintf("unsupported queryInterface method %s", method)
	}
}

func transpileSequelizeCreateTable(args []string) (string, string) {
	if len(args) < 2 {
		return "", "createTable call missing table name or column map"
	}
	tableName := unquote(args[0])
	colsRaw, ok := matchingBraceBody(args[1])
	if !ok {
		return "", fmt.Sprintf("unsupported createTable column-map form for %s", tableName)
	}

	var cols []string
	for _, entry := range splitArgs(colsRaw) {
		parts := strings.SplitN(entry, ":", 2)
		if len(parts) != 2 {
			continue
		}
		colName := strings.Trim(strings.TrimSpace(parts[0]), `'"`)
		colDef, warn := sequelizeColumnDefFromDefinition(colName, strings.TrimSpace(parts[1]))
		if warn != "" {
			return "", warn
		}
		cols = append(cols, colDef)
	}
	if len(cols) == 0 {
		return "", fmt.Sprintf("no recognizable columns in createTable definition for %s", tableName)
	}
	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n);\n", tableName, strings.Join(cols, ",\n  ")), ""
}

// sequelizeColumnDefFromDefinition renders one column's SQL definition from
// either a bare DataTypes.X reference or a {type, allowNull, defaultValue,
// primaryKey, unique, references} object literal.
func sequelizeColumnDefFromDefinition(colName, def string) (string, string) {
	def = strings.TrimSpace(def)

	if braceBody, ok := matchingBraceBody(def); ok {
		return sequelizeColumnDefFromObject(colName, braceBody)
	}

	sqlType, warn := sequelizeTypeFromExpr(def)
	if warn != "" {
		return "", warn
	}
	return colName + " " + sqlType, ""
}

func sequelizeColumnDefFromObject(colName, body string) (string, string) {
	fields := map[string]string{}
	for _, entry := range splitArgs(body) {
		parts := strings.SplitN(entry, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		fields[key] = strings.TrimSpace(parts[1])
	}

	typeExpr, ok := fields["type"]
	if !ok {
		return "", fmt.Sprintf("column %s definition missing type", colName)
	}
	sqlType, warn := sequelizeTypeFromExpr(typeExpr)
	if warn != "" {
		return "", warn
	}

	def := colName + " " + sqlType
	if allow, ok := fields["allowNull"]; ok && strings.TrimSpace(allow) == "false" {
		def += " NOT NULL"
	}
	if dv, ok := fields["defaultValue"]; ok {
		val, isLiteral := sqlLiteral(dv)
		if isLiteral {
			def += " DEFAULT " + val
		} else {
			def += " DEFAULT pgfence_volatile_expr()"
		}
	}
	if pk, ok := fields["primaryKey"]; ok && strings.TrimSpace(pk) == "true" {
		def += " PRIMARY KEY"
	}
	if uq, ok := fields["unique"]; ok && strings.TrimSpace(uq) == "true" {
		def += " UNIQUE"
	}
	if refs, ok := fields["references"]; ok {
		if refBody, ok2 := matchingBraceBody(refs); ok2 {
			var model, key string
			for _, entry := range splitArgs(refBody) {
				parts := strings.SplitN(entry, ":", 2)
				if len(parts) != 2 {
					continue
				}
				k := strings.TrimSpace(parts[0])
				v := strings.TrimSpace(parts[1])
				switch k {
				case "model":
					model = unquote(v)
				case "key":
					key = unquote(v)
				}
			}
			if model != "" {
				ref := "REFERENCES " + model
				if key != "" {
					ref += "(" + key + ")"
				}
				def += " " + ref
			}
		}
	}

	return def, ""
}

func sequelizeTypeFromExpr(expr string) (string, string) {
	m := sequelizeDataTypeRe.FindStringSubmatch(expr)
	if m == nil {
		return "", fmt.Sprintf("unrecognized DataTypes expression %q", expr)
	}
	name := m[1]
	fn, ok := sequelizeTypeMap[name]
	if !ok {
		return "", fmt.Sprintf("unsupported DataTypes.%s", name)
	}
	var args []string
	if m[2] != "" {
		args = splitArgs(m[2])
	}
	return fn(args), ""
}

func matchingBraceBody(s string) (string, bool) {
	s = strings.TrimSpace(s)
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return "", false
	}
	depth := 0
	var quote byte
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote && s[i-1] != '\\' {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start+1 : i], true
			}
		}
	}
	return "", false
}

func stripQuotesJoined(arrayLiteral string) string {
	body := strings.Trim(strings.TrimSpace(arrayLiteral), "[]")
	var cols []string
	for _, a := range splitArgs(body) {
		cols = append(cols, unquote(a))
	}
	return strings.Join(cols, ", ")
}
