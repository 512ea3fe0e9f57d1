package analysis

import "context"

// Credential is an opaque API key for the reasoning service.
type Credential string

// CredentialPool port
type CredentialPool interface {
	Select() (Credential, error)
}

// Instruction is what gets sent to the reasoning service for one analysis.
type Instruction struct {
	System string
	User   string

	// optional label photo
	Image     []byte
	ImageMIME string
}

// InstructionBuilder port (context builder)
type InstructionBuilder interface {
	Build(query string, uc UserContext) Instruction
	BuildLabel(image []byte, mimeType string, uc UserContext) Instruction
}

// Reasoner port. Implementations return the raw text payload, ErrEmptyResponse
// when the envelope carries none, and wrap transport failures in
// ErrNetworkFailure (ErrQuotaExceeded for quota replies).
type Reasoner interface {
	Generate(ctx context.Context, cred Credential, in Instruction) (string, error)
}

// Matcher decides whether a stored product name answers a query.
type Matcher interface {
	Match(productName, query string) bool
}

// AuditLog port (persistence for operator-facing records)
type AuditLog interface {
	Record(ctx context.Context, e *AuditEntry) error
	Paginate(ctx context.Context, page, pageSize int) ([]*AuditEntry, error)
	Count(ctx context.Context, kind AuditKind) (int, error)
}

// Archive port (object storage for result snapshots)
type Archive interface {
	Put(ctx context.Context, r Result) (string, error)
}
