package config

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/pgfence/pgfence/internal/pgferr"
	"github.com/pgfence/pgfence/internal/risk"
)

//go:embed schema/stats.schema.json
//go:embed schema/snapshot.schema.json
var schemaFS embed.FS

func compileSchema(name string) (*jsonschema.Schema, error) {
	raw, err := schemaFS.ReadFile("schema/" + name)
	if err != nil {
		return nil, err
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, doc); err != nil {
		return nil, err
	}
	return c.Compile(name)
}

// statsEnvelope accepts both the bare-array and {tables:[...]} stats file
// shapes spec §6 allows.
type statsEnvelope struct {
	Tables []json.RawMessage `json:"tables"`
}

// LoadStats reads and validates a --stats-file, returning the flat list of
// risk.TableStats it describes. Ignored by the caller when --db-url is
// given.
func LoadStats(path string) ([]risk.TableStats, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, pgferr.IO("read stats file", err)
	}

	var entries []json.RawMessage
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, pgferr.Argument("parse stats file", err)
		}
	} else {
		var env statsEnvelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, pgferr.Argument("parse stats file", err)
		}
		entries = env.Tables
	}

	sch, err := compileSchema("stats.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile stats schema: %w", err)
	}

	var normalized []interface{}
	for _, e := range entries {
		var v interface{}
		if err := json.Unmarshal(e, &v); err != nil {
			return nil, pgferr.Argument("parse stats entry", err)
		}
		normalized = append(normalized, v)
	}
	if err := sch.Validate(normalized); err != nil {
		return nil, pgferr.Argument("validate stats file", err)
	}

	stats := make([]risk.TableStats, 0, len(entries))
	for _, e := range entries {
		var s risk.TableStats
		if err := json.Unmarshal(e, &s); err != nil {
			return nil, pgferr.Argument("decode stats entry", err)
		}
		stats = append(stats, s)
	}
	return stats, nil
}
