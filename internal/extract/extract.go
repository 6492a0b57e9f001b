// Package extract turns a migration file of any supported authoring format
// into plain SQL text the parser can consume, per spec §4.2. No JS/TS AST
// library exists anywhere in the reference corpus, so TypeORM/Knex/
// Sequelize extraction is regexp- and line-scan-based rather than a true
// parse — each extractor documents the shortcut it takes.
package extract

import (
	"os"
	"path/filepath"
	"strings"
)

// Warning is a single ExtractionWarning from spec §3: something the
// extractor could not resolve statically.
type Warning struct {
	Message string
	Line    int
}

// Result is what every extractor function produces: the lifted SQL text,
// any warnings, and whether the host migration framework runs outside a
// wrapping transaction (autoCommit).
type Result struct {
	SQL        string
	Warnings   []Warning
	AutoCommit bool
}

// Format names the migration-authoring dialect an extractor recognizes.
type Format string

const (
	FormatRawSQL    Format = "raw"
	FormatTypeORM   Format = "typeorm"
	FormatKnex      Format = "knex"
	FormatSequelize Format = "sequelize"
)

// DetectFormat sniffs path and content to pick an extractor. A .sql
// extension (or anything not recognized as a JS/TS migration shape) is
// treated as raw SQL, matching Prisma and Drizzle migration files.
func DetectFormat(path string, content []byte) Format {
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".sql" {
		return FormatRawSQL
	}

	text := string(content)
	switch {
	case strings.Contains(text, "MigrationInterface") || strings.Contains(text, "queryRunner"):
		return FormatTypeORM
	case strings.Contains(text, "queryInterface"):
		return FormatSequelize
	case strings.Contains(text, "knex") || strings.Contains(text, ".schema."):
		return FormatKnex
	default:
		return FormatRawSQL
	}
}

// ExtractFile reads path and extracts it according to its detected format.
func ExtractFile(path string) (Result, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Result{}, err
	}
	return Extract(path, content)
}

// Extract dispatches content (read from path, used only for its extension
// and for format sniffing) to the matching extractor.
func Extract(path string, content []byte) (Result, error) {
	switch DetectFormat(path, content) {
	case FormatTypeORM:
		return extractTypeORM(content), nil
	case FormatKnex:
		return extractKnex(content), nil
	case FormatSequelize:
		return extractSequelize(content), nil
	default:
		return extractRaw(content), nil
	}
}
