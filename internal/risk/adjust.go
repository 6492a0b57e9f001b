package risk

// Adjust applies the row-count-based step function from spec §4.6 to a base
// risk level, returning the adjusted level. Bumps saturate at Critical.
func Adjust(base Level, rowCount int64) Level {
	switch {
	case rowCount < 10_000:
		return base
	case rowCount < 1_000_000:
		return Bump(base, 1)
	case rowCount < 10_000_000:
		return Bump(base, 2)
	default:
		return Critical
	}
}

// AdjustForTable looks up tableName in idx and, if present, returns the
// adjusted risk and true. If idx is nil or the table has no stats entry,
// returns (base, false) meaning no adjustment was made.
func AdjustForTable(idx *StatsIndex, tableName string, base Level) (Level, bool) {
	if idx == nil || tableName == "" {
		return base, false
	}
	stats, ok := idx.Lookup(tableName)
	if !ok {
		return base, false
	}
	return Adjust(base, stats.RowCount), true
}
