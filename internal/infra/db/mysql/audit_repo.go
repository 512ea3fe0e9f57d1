package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/bryanwahyu/pureplate/internal/domain/analysis"
)

type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Record inserts an audit entry
func (r *AuditRepository) Record(ctx context.Context, e *domain.AuditEntry) error {
	const q = `
INSERT INTO analysis_audit
  (id, kind, query, result_id, product_name, verdict, health_score, cause, result_json, archive_url, created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  result_json=VALUES(result_json), archive_url=VALUES(archive_url);
`
	// Ensure non-nullable fields have safe defaults
	product := stringOrDash(e.ProductName)
	verdict := stringOrDash(string(e.Verdict))
	result := e.ResultJSON
	if strings.TrimSpace(result) == "" {
		// result_json column requires valid JSON; use empty object
		result = "{}"
	}
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, q,
		e.ID, string(e.Kind), e.Query, nullInt64(int64(e.ResultID)), product, verdict,
		e.HealthScore, nullString(e.Cause), result, nullString(e.ArchiveURL), createdAt.UTC(),
	)
	return err
}

// Paginate returns a page of audit entries ordered by created_at desc
func (r *AuditRepository) Paginate(ctx context.Context, page, pageSize int) ([]*domain.AuditEntry, error) {
	limit, offset := pageBounds(page, pageSize)

	const q = `
SELECT id, kind, query, result_id, product_name, verdict, health_score, cause, result_json, archive_url, created_at
FROM analysis_audit
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?;
`
	rows, err := r.db.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.AuditEntry{}
	for rows.Next() {
		var (
			e                 domain.AuditEntry
			kind, verdict     string
			resultID          sql.NullInt64
			cause, archiveURL sql.NullString
			created           time.Time
		)
		if err := rows.Scan(&e.ID, &kind, &e.Query, &resultID, &e.ProductName, &verdict,
			&e.HealthScore, &cause, &e.ResultJSON, &archiveURL, &created); err != nil {
			return nil, err
		}
		e.Kind = domain.AuditKind(kind)
		e.Verdict = domain.Verdict(verdict)
		e.ResultID = domain.ResultID(resultID.Int64)
		e.Cause = cause.String
		e.ArchiveURL = archiveURL.String
		e.CreatedAt = created
		out = append(out, &e)
	}
	return out, rows.Err()
}

// Count returns the number of audit entries, optionally limited to one kind.
func (r *AuditRepository) Count(ctx context.Context, kind domain.AuditKind) (int, error) {
	q := `SELECT COUNT(*) FROM analysis_audit`
	args := []any{}
	if kind != "" {
		q += ` WHERE kind=?`
		args = append(args, string(kind))
	}
	var n int
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
