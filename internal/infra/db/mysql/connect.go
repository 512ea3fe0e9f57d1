package mysql

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	// test ping
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
  id           CHAR(36)     NOT NULL PRIMARY KEY,
  kind         VARCHAR(16)  NOT NULL,
  query        VARCHAR(512) NOT NULL,
  result_id    BIGINT       NULL,
  product_name VARCHAR(255) NOT NULL,
  verdict      VARCHAR(16)  NOT NULL,
  health_score INT          NOT NULL DEFAULT 0,
  cause        VARCHAR(32)  NULL,
  result_json  JSON         NOT NULL,
  archive_url  VARCHAR(1024) NULL,
  created_at   DATETIME(3)  NOT NULL,
  KEY idx_analysis_audit_created (created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`

// Migrate creates the audit table when it does not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
