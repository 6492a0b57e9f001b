package risk

import "strings"

// TableStats is a row-count/byte-size snapshot for one table, as loaded
// from --stats-file or fetched live via --db-url.
type TableStats struct {
	SchemaName string `json:"schemaName"`
	TableName  string `json:"tableName"`
	RowCount   int64  `json:"rowCount"`
	TotalBytes int64  `json:"totalBytes"`
}

// StatsIndex indexes a set of TableStats for lookup by unqualified name or
// by schema-qualified name, both case-folded. Per spec §3, the unqualified
// name takes precedence on lookup.
type StatsIndex struct {
	byUnqualified map[string]TableStats
	byQualified   map[string]TableStats
}

// NewStatsIndex builds a StatsIndex from a flat list of TableStats.
func NewStatsIndex(stats []TableStats) *StatsIndex {
	idx := &StatsIndex{
		byUnqualified: make(map[string]TableStats, len(stats)),
		byQualified:   make(map[string]TableStats, len(stats)),
	}
	for _, s := range stats {
		name := strings.ToLower(s.TableName)
		idx.byUnqualified[name] = s
		if s.SchemaName != "" {
			qualified := strings.ToLower(s.SchemaName) + "." + name
			idx.byQualified[qualified] = s
		}
	}
	return idx
}

// Lookup finds stats for a table name, which may be unqualified
// ("users") or schema-qualified ("public.users"). Unqualified lookup takes
// precedence: if both the bare name and the fully-qualified name have
// entries, the bare-name entry wins.
func (idx *StatsIndex) Lookup(tableName string) (TableStats, bool) {
	if idx == nil {
		return TableStats{}, false
	}
	name := strings.ToLower(tableName)
	if i := strings.LastIndex(name, "."); i >= 0 {
		unqualified := name[i+1:]
		if s, ok := idx.byUnqualified[unqualified]; ok {
			return s, true
		}
		if s, ok := idx.byQualified[name]; ok {
			return s, true
		}
		return TableStats{}, false
	}
	if s, ok := idx.byUnqualified[name]; ok {
		return s, true
	}
	return TableStats{}, false
}
