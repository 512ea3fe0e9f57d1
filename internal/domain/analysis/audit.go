package analysis

import "time"

type AuditKind string

const (
	AuditFresh    AuditKind = "fresh"
	AuditDegraded AuditKind = "degraded"
)

// AuditEntry is an operator-facing record of one outbound analysis. It is
// never read back into the history.
type AuditEntry struct {
	ID          string    `json:"id"`
	Kind        AuditKind `json:"kind"`
	Query       string    `json:"query"`
	ResultID    ResultID  `json:"result_id,omitempty"`
	ProductName string    `json:"product_name"`
	Verdict     Verdict   `json:"verdict"`
	HealthScore int       `json:"health_score"`
	Cause       string    `json:"cause,omitempty"`
	ResultJSON  string    `json:"result_json"` // JSON string of the returned Result
	ArchiveURL  string    `json:"archive_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
