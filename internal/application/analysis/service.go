package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bryanwahyu/pureplate/internal/application"
	domain "github.com/bryanwahyu/pureplate/internal/domain/analysis"
)

// State of one analysis, logged at debug level as the request moves along.
type State string

const (
	StateCacheCheck State = "cache_check"
	StateRequesting State = "requesting"
	StateParsing    State = "parsing"
	StateDone       State = "done"
	StateDegraded   State = "degraded"
)

type Outcome string

const (
	OutcomeFresh    Outcome = "fresh"
	OutcomeCached   Outcome = "cached"
	OutcomeDegraded Outcome = "degraded"
)

// Recorder receives one observation per finished analysis.
type Recorder interface {
	ObserveAnalysis(outcome Outcome, cause string)
}

// RetryPolicy is off by default. When Retries > 0, transport failures (not
// quota, empty or schema errors) are retried with the same credential after
// a jittered exponential backoff.
type RetryPolicy struct {
	Retries int
	Backoff time.Duration
}

func (p RetryPolicy) wait(attempt int) time.Duration {
	base := p.Backoff
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	d := base << (attempt - 1)
	return d + rand.N(base)
}

func retryable(err error) bool {
	return errors.Is(err, domain.ErrNetworkFailure) && !errors.Is(err, domain.ErrQuotaExceeded)
}

// auditTimeout bounds the best-effort audit and archive writes.
const auditTimeout = 5 * time.Second

// Service is the analysis orchestrator. It is safe for concurrent use.
type Service struct {
	Pool     domain.CredentialPool
	Builder  domain.InstructionBuilder
	Reasoner domain.Reasoner
	History  *History
	Clock    application.Clock

	// optional
	Audit   domain.AuditLog
	Archive domain.Archive
	Metrics Recorder
	Logger  *zap.Logger
	Retry   RetryPolicy
}

// Analyze answers query from the history when possible, otherwise asks the
// reasoning service once. Failures never surface as errors: the caller gets a
// degraded placeholder instead. The only error is ErrEmptyQuery.
func (s *Service) Analyze(ctx context.Context, query string, uc domain.UserContext) (domain.Result, error) {
	if strings.TrimSpace(query) == "" {
		return domain.Result{}, domain.ErrEmptyQuery
	}
	log := s.logger().With(zap.String("query", query))

	log.Debug("analysis state", zap.String("state", string(StateCacheCheck)))
	if cached, ok := s.History.Lookup(query); ok {
		log.Debug("analysis state", zap.String("state", string(StateDone)),
			zap.Int64("id", int64(cached.ID)), zap.Bool("cached", true))
		s.observe(OutcomeCached, "")
		return cached, nil
	}

	in := s.Builder.Build(query, uc)
	return s.run(ctx, log, query, in, uc), nil
}

// AnalyzeLabel analyses a photo of a food label. There is no query text, so
// the cache is not consulted; the rest of the lifecycle matches Analyze.
func (s *Service) AnalyzeLabel(ctx context.Context, image []byte, mimeType string, uc domain.UserContext) (domain.Result, error) {
	if len(image) == 0 {
		return domain.Result{}, domain.ErrEmptyImage
	}
	log := s.logger().With(zap.String("label_mime", mimeType), zap.Int("label_bytes", len(image)))
	in := s.Builder.BuildLabel(image, mimeType, uc)
	return s.run(ctx, log, "", in, uc), nil
}

func (s *Service) run(ctx context.Context, log *zap.Logger, query string, in domain.Instruction, uc domain.UserContext) domain.Result {
	start := time.Now()

	raw, err := s.request(ctx, log, in)
	if err != nil {
		return s.degrade(ctx, log, query, err)
	}

	log.Debug("analysis state", zap.String("state", string(StateParsing)), zap.Int("bytes", len(raw)))
	parsed, err := domain.Validate(raw)
	if err != nil {
		return s.degrade(ctx, log, query, err)
	}
	parsed.AllergyAlerts = uc.MatchAllergies(parsed.AllergyAlerts)

	stored := s.History.Append(parsed, s.now())
	log.Info("analysis done",
		zap.Int64("id", int64(stored.ID)),
		zap.String("product", stored.ProductName),
		zap.String("verdict", string(stored.Verdict)),
		zap.Duration("took", time.Since(start)),
	)
	s.observe(OutcomeFresh, "")
	s.record(ctx, log, domain.AuditFresh, query, stored, nil)
	return stored
}

// request issues the outbound call. The credential is picked once; retries,
// when enabled, reuse it.
func (s *Service) request(ctx context.Context, log *zap.Logger, in domain.Instruction) (string, error) {
	if s.Pool == nil {
		return "", domain.ErrPoolExhausted
	}
	cred, err := s.Pool.Select()
	if err != nil {
		return "", err
	}

	attempts := 1
	if s.Retry.Retries > 0 {
		attempts += s.Retry.Retries
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			wait := s.Retry.wait(attempt)
			log.Debug("retrying reasoning request", zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", domain.ErrNetworkFailure, ctx.Err())
			case <-time.After(wait):
			}
		}

		log.Debug("analysis state", zap.String("state", string(StateRequesting)), zap.Int("attempt", attempt))
		raw, err := s.Reasoner.Generate(ctx, cred, in)
		if err == nil {
			if strings.TrimSpace(raw) == "" {
				return "", domain.ErrEmptyResponse
			}
			return raw, nil
		}
		lastErr = err
		if !retryable(err) {
			return "", err
		}
	}
	return "", lastErr
}

func (s *Service) degrade(ctx context.Context, log *zap.Logger, query string, cause error) domain.Result {
	r := domain.NewDegraded(cause, s.now())
	log.Warn("analysis degraded",
		zap.String("state", string(StateDegraded)),
		zap.String("cause", domain.Cause(cause)),
		zap.Error(cause),
	)
	s.observe(OutcomeDegraded, domain.Cause(cause))
	s.record(ctx, log, domain.AuditDegraded, query, r, cause)
	return r
}

// record archives and audits one outbound analysis. Both are best-effort.
func (s *Service) record(ctx context.Context, log *zap.Logger, kind domain.AuditKind, query string, r domain.Result, cause error) {
	if s.Audit == nil && s.Archive == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()

	var archiveURL string
	if s.Archive != nil && kind == domain.AuditFresh {
		url, err := s.Archive.Put(ctx, r)
		if err != nil {
			log.Warn("archive result failed", zap.Error(err))
		} else {
			archiveURL = url
		}
	}

	if s.Audit == nil {
		return
	}
	b, err := json.Marshal(r)
	if err != nil {
		log.Warn("marshal audit result failed", zap.Error(err))
		return
	}
	entry := &domain.AuditEntry{
		ID:          uuid.New().String(),
		Kind:        kind,
		Query:       query,
		ResultID:    r.ID,
		ProductName: r.ProductName,
		Verdict:     r.Verdict,
		HealthScore: r.HealthScore,
		Cause:       domain.Cause(cause),
		ResultJSON:  string(b),
		ArchiveURL:  archiveURL,
		CreatedAt:   r.Timestamp,
	}
	if err := s.Audit.Record(ctx, entry); err != nil {
		log.Warn("audit record failed", zap.Error(err))
	}
}

// ListHistory returns up to limit entries, newest first. limit <= 0 means all.
func (s *Service) ListHistory(limit int) []domain.Result {
	return s.History.List(limit)
}

func (s *Service) ClearHistory() {
	s.History.Clear()
	s.logger().Info("history cleared")
}

// SelectFromHistory looks an entry up by id without touching the network.
func (s *Service) SelectFromHistory(id domain.ResultID) (domain.Result, error) {
	r, ok := s.History.Get(id)
	if !ok {
		return domain.Result{}, fmt.Errorf("%w: %d", domain.ErrNotFound, id)
	}
	return r, nil
}

// AuditPage lists audit entries when an audit log is configured.
func (s *Service) AuditPage(ctx context.Context, page, pageSize int) ([]*domain.AuditEntry, error) {
	if s.Audit == nil {
		return []*domain.AuditEntry{}, nil
	}
	return s.Audit.Paginate(ctx, page, pageSize)
}

// AuditTotal counts audit entries of kind, or all of them when kind is empty.
func (s *Service) AuditTotal(ctx context.Context, kind domain.AuditKind) (int, error) {
	if s.Audit == nil {
		return 0, nil
	}
	return s.Audit.Count(ctx, kind)
}

func (s *Service) observe(o Outcome, cause string) {
	if s.Metrics != nil {
		s.Metrics.ObserveAnalysis(o, cause)
	}
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock.Now()
}

func (s *Service) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
