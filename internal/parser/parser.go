// Package parser turns raw migration SQL text into ParsedStatement records
// using PostgreSQL's own grammar (via pg_query_go), and extracts the
// inline suppression directives attached to each statement.
package parser

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

const (
	bomSize           = 3
	initialLineNumber = 1
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Statement is a single parsed SQL statement together with the metadata
// the rest of the pipeline needs: its AST node kind tag, the underlying
// AST node, the trimmed source text, its starting line, and any rule IDs
// suppressed for it via an inline directive.
type Statement struct {
	// SQL is the trimmed statement text, with one trailing semicolon
	// (if present) stripped.
	SQL string

	// Kind is the AST node kind tag, e.g. "AlterTableStmt".
	Kind string

	// Node is the statement's AST node, as produced by pg_query_go.
	Node *pg_query.Node

	// AST is the full per-statement parse result, kept for callers that
	// need more than the top-level node.
	AST *pg_query.ParseResult

	// LineNumber is the 1-based line on which the statement starts in
	// the original source.
	LineNumber int

	// Suppress lists rule IDs suppressed by an inline directive attached
	// to this statement. The sentinel "*" suppresses every finding for
	// the statement.
	Suppress []string
}

// Suppresses reports whether ruleID is suppressed for this statement,
// either by name or via the "*" (suppress-all) sentinel.
func (s Statement) Suppresses(ruleID string) bool {
	for _, id := range s.Suppress {
		if id == "*" || id == ruleID {
			return true
		}
	}
	return false
}

// Result is the outcome of parsing one migration file (or SQL blob): an
// ordered sequence of Statements.
type Result struct {
	Statements []Statement
}

// Parser is the contract implemented by the PostgreSQL grammar adapter.
type Parser interface {
	ParseSQL(sql string) (*Result, error)
	ParseFile(filepath string) (*Result, error)
	ParseFiles(filepaths []string) (*Result, error)
}

type parser struct{}

// New creates a Parser backed by the real PostgreSQL grammar.
func New() Parser {
	return &parser{}
}

// ParseSQL parses a single SQL blob (typically one migration file's
// contents) and returns its statements in order. Parse errors fail fast;
// an empty input yields an empty Result without error, per spec §4.1.
func (p *parser) ParseSQL(sql string) (*Result, error) {
	if sql == "" {
		return emptyResult(), nil
	}

	sql = cleanSQL(sql)

	statements, err := pg_query.SplitWithScanner(sql, true)
	if err != nil {
		return nil, fmt.Errorf("failed to split SQL statements: %w", err)
	}
	if len(statements) == 0 {
		return emptyResult(), nil
	}

	return p.parseStatements(sql, statements)
}

// ParseFile reads filepath and parses its contents.
func (p *parser) ParseFile(filepath string) (*Result, error) {
	if filepath == "" {
		return nil, fmt.Errorf("filepath cannot be empty")
	}
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %q: %w", filepath, err)
	}
	return p.ParseSQL(string(content))
}

// ParseFiles reads and parses multiple files, concatenating their
// statements in the order the paths were supplied.
func (p *parser) ParseFiles(filepaths []string) (*Result, error) {
	if len(filepaths) == 0 {
		return emptyResult(), nil
	}
	all := make([]Statement, 0, len(filepaths)*10)
	for _, fp := range filepaths {
		r, err := p.ParseFile(fp)
		if err != nil {
			return nil, fmt.Errorf("failed to parse file %q: %w", fp, err)
		}
		all = append(all, r.Statements...)
	}
	return &Result{Statements: all}, nil
}

// parseStatements locates each split statement's offset in the original
// text, computes its line number, parses it individually to obtain its
// AST, and scans the preceding gap plus its own text for suppression
// directives.
func (p *parser) parseStatements(originalSQL string, statements []string) (*Result, error) {
	result := &Result{Statements: make([]Statement, 0, len(statements))}

	offset := 0
	prevEnd := 0
	for i, stmtSQL := range statements {
		idx := strings.Index(originalSQL[offset:], stmtSQL)
		if idx == -1 {
			continue
		}
		stmtStart := offset + idx
		stmtEnd := stmtStart + len(stmtSQL)
		lineNum := calculateLineNumber(originalSQL, stmtStart)

		ast, err := pg_query.Parse(stmtSQL)
		if err != nil {
			return nil, fmt.Errorf("parse error at line %d, statement %d: %w", lineNum, i+1, err)
		}

		var node *pg_query.Node
		if len(ast.Stmts) > 0 {
			node = ast.Stmts[0].Stmt
		}

		gap := originalSQL[prevEnd:stmtStart]
		suppress := scanSuppressions(gap, stmtSQL)

		result.Statements = append(result.Statements, Statement{
			SQL:        trimTrailingSemicolon(stmtSQL),
			Kind:       NodeKind(node),
			Node:       node,
			AST:        ast,
			LineNumber: lineNum,
			Suppress:   suppress,
		})

		offset = stmtEnd
		prevEnd = stmtEnd
	}

	return result, nil
}

func trimTrailingSemicolon(sql string) string {
	trimmed := strings.TrimSpace(sql)
	trimmed = strings.TrimSuffix(trimmed, ";")
	return strings.TrimSpace(trimmed)
}

func cleanSQL(sql string) string {
	return string(stripBOM([]byte(sql)))
}

func emptyResult() *Result {
	return &Result{Statements: []Statement{}}
}

func calculateLineNumber(sql string, position int) int {
	if position == 0 {
		return initialLineNumber
	}
	lineNumber := initialLineNumber
	for i := 0; i < position && i < len(sql); i++ {
		if sql[i] == '\n' {
			lineNumber++
		}
	}
	return lineNumber
}

func stripBOM(content []byte) []byte {
	if len(content) >= bomSize && bytes.HasPrefix(content, utf8BOM) {
		return content[bomSize:]
	}
	return content
}
