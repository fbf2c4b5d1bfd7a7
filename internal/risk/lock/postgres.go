package lock

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	id "custodia/pkg/domain"
)

const advisoryNamespace = "custodia:remediation:"

// Postgres uses session-level advisory locks on a pinned connection. The
// lock dies with the connection, so a crashed holder never blocks a record.
type Postgres struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPostgres(db *sql.DB, logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Postgres{db: db, logger: logger}
}

func (p *Postgres) Acquire(ctx context.Context, recordID id.RecordID) (func(), error) {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("lock record %s: pin connection: %w", recordID, err)
	}
	key := advisoryNamespace + recordID.String()
	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock(hashtext($1))`, key); err != nil {
		conn.Close() //nolint:errcheck // best-effort cleanup after failed acquire
		if ctx.Err() != nil {
			return nil, waitError(recordID, ctx.Err())
		}
		return nil, fmt.Errorf("lock record %s: %w", recordID, err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_unlock(hashtext($1))`, key); err != nil {
				p.logger.Warn("failed to release advisory lock", "record_id", recordID.String(), "error", err)
			}
			conn.Close() //nolint:errcheck // closing the session drops any lock left behind
		})
	}, nil
}
