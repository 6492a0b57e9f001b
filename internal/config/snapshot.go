package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pgfence/pgfence/internal/pgferr"
)

// SnapshotColumn is one column of one table in a schema snapshot, per
// spec §6's schema-snapshot format.
type SnapshotColumn struct {
	ColumnName             string `json:"columnName"`
	DataType               string `json:"dataType"`
	UDTName                string `json:"udtName"`
	CharacterMaximumLength *int   `json:"characterMaximumLength"`
	NumericPrecision       *int   `json:"numericPrecision"`
	NumericScale           *int   `json:"numericScale"`
	IsNullable             bool   `json:"isNullable"`
	ColumnDefault          *string `json:"columnDefault"`
}

// SnapshotTable is one table's columns, constraints, and indexes as of the
// time the snapshot was generated.
type SnapshotTable struct {
	SchemaName  string           `json:"schemaName"`
	TableName   string           `json:"tableName"`
	Columns     []SnapshotColumn `json:"columns"`
	Constraints []interface{}    `json:"constraints"`
	Indexes     []interface{}    `json:"indexes"`
}

// Snapshot is a --snapshot file: the schema state collaborator rules (e.g.
// confirming a varchar-widening migration is actually widening, not
// narrowing) consult.
type Snapshot struct {
	Version     string          `json:"version"`
	GeneratedAt string          `json:"generatedAt"`
	Tables      []SnapshotTable `json:"tables"`
}

// Table looks up a table by unqualified or schema-qualified name.
func (s *Snapshot) Table(name string) (SnapshotTable, bool) {
	if s == nil {
		return SnapshotTable{}, false
	}
	for _, t := range s.Tables {
		if t.TableName == name || t.SchemaName+"."+t.TableName == name {
			return t, true
		}
	}
	return SnapshotTable{}, false
}

// LoadSnapshot reads and validates a --snapshot file.
func LoadSnapshot(path string) (*Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, pgferr.IO("read snapshot file", err)
	}

	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, pgferr.Argument("parse snapshot file", err)
	}

	sch, err := compileSchema("snapshot.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile snapshot schema: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return nil, pgferr.Argument("validate snapshot file", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, pgferr.Argument("decode snapshot file", err)
	}
	return &snap, nil
}
