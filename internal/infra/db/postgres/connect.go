package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS analysis_audit (
  id           UUID         PRIMARY KEY,
  kind         VARCHAR(16)  NOT NULL,
  query        TEXT         NOT NULL,
  result_id    BIGINT       NULL,
  product_name TEXT         NOT NULL,
  verdict      VARCHAR(16)  NOT NULL,
  health_score INTEGER      NOT NULL DEFAULT 0,
  cause        VARCHAR(32)  NULL,
  result_json  JSONB        NOT NULL,
  archive_url  TEXT         NULL,
  created_at   TIMESTAMPTZ  NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analysis_audit_created ON analysis_audit (created_at DESC);`

// Migrate creates the audit table when it does not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
