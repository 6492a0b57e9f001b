package risk

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cloudflare/backoff"
	_ "github.com/lib/pq"
)

// pgStatUserTablesQuery mirrors pg_stat_user_tables, the view PostgreSQL
// maintains for live row-count estimates, per spec §6's --db-url contract.
const pgStatUserTablesQuery = `
SELECT schemaname, relname, n_live_tup,
       pg_total_relation_size(relid)
FROM pg_stat_user_tables
`

// FetchDBStats connects to dbURL, applies the read-only/application-name
// session guards spec §6 requires, and returns one TableStats row per
// entry in pg_stat_user_tables. The connection is opened once, retried
// with bounded backoff, and closed before returning — this is the only
// I/O the analysis pipeline's core ever performs outside of file reads,
// and it runs entirely before the statement walk begins (see spec §5).
func FetchDBStats(ctx context.Context, dbURL string) ([]TableStats, error) {
	db, err := connectWithRetry(ctx, dbURL)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, "SET default_transaction_read_only = on"); err != nil {
		return nil, fmt.Errorf("set read-only session: %w", err)
	}
	if _, err := db.ExecContext(ctx, "SET application_name = 'pgfence'"); err != nil {
		return nil, fmt.Errorf("set application_name: %w", err)
	}

	rows, err := db.QueryContext(ctx, pgStatUserTablesQuery)
	if err != nil {
		return nil, fmt.Errorf("query pg_stat_user_tables: %w", err)
	}
	defer rows.Close()

	var stats []TableStats
	for rows.Next() {
		var s TableStats
		if err := rows.Scan(&s.SchemaName, &s.TableName, &s.RowCount, &s.TotalBytes); err != nil {
			return nil, fmt.Errorf("scan pg_stat_user_tables row: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func connectWithRetry(ctx context.Context, dbURL string) (*sql.DB, error) {
	b := backoff.New(5*time.Second, 100*time.Millisecond)
	var lastErr error
	for attempt := 0; attempt < 5; attempt++ {
		db, err := sql.Open("postgres", dbURL)
		if err == nil {
			if pingErr := db.PingContext(ctx); pingErr == nil {
				return db, nil
			} else {
				lastErr = pingErr
				db.Close()
			}
		} else {
			lastErr = err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(b.Duration()):
		}
	}
	return nil, fmt.Errorf("connect to %s after retries: %w", dbURL, lastErr)
}
