package risk

import (
	"encoding/json"
	"fmt"
	"os"
)

// statsFileEnvelope accepts either a bare JSON array of TableStats or an
// object wrapping them under "tables", per spec §6's stats-file format.
type statsFileEnvelope struct {
	Tables []TableStats `json:"tables"`
}

// LoadStatsFile reads and parses a --stats-file payload. It does no JSON
// Schema validation of its own and only handles the two accepted JSON
// shapes; the CLI loads --stats-file through internal/config.LoadStats,
// which validates the payload against the embedded schema.
func LoadStatsFile(path string) ([]TableStats, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stats file %q: %w", path, err)
	}

	var asArray []TableStats
	if err := json.Unmarshal(raw, &asArray); err == nil {
		return asArray, nil
	}

	var wrapped statsFileEnvelope
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("parse stats file %q: %w", path, err)
	}
	return wrapped.Tables, nil
}
