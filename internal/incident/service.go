package incident

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"
)

var tracer = otel.Tracer("github.com/linnemanlabs/warden/internal/incident")

// CreateResult is the outcome of running the pipeline for one raw payload.
type CreateResult struct {
	Incident *Incident
	Action   *ActionResult
	Degraded bool
}

// Service is the business boundary for incidents: it runs the creation
// pipeline and owns every status change.
type Service struct {
	store    Store
	pipeline Pipeline
	logger   log.Logger
	hooks    PipelineHooks
	opts     Options
	now      func() time.Time
}

// NewService creates a new incident service.
func NewService(store Store, p Pipeline, logger log.Logger, hooks PipelineHooks, opts Options) *Service {
	if store == nil {
		panic(xerrors.New("incident store is required"))
	}
	if p.Normalizer == nil || p.Classifier == nil || p.Validator == nil {
		panic(xerrors.New("normalizer, classifier and validator are required"))
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Service{
		store:    store,
		pipeline: p,
		logger:   logger,
		hooks:    hooks,
		opts:     opts,
		now:      time.Now,
	}
}

// Create normalizes, classifies and validates a raw payload, persists the
// resulting incident and runs the optional notification and remediation tail.
// Only a schema violation or a store failure returns an error.
func (s *Service) Create(ctx context.Context, raw json.RawMessage) (*CreateResult, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "incident.Create")
	defer span.End()

	var degraded bool

	t := time.Now()
	draft, err := s.pipeline.Normalizer.Normalize(ctx, raw)
	s.hooks.stage("normalize", time.Since(t).Seconds())
	if err != nil {
		degraded = true
		s.hooks.fallback("normalize")
		s.logger.Warn(ctx, "normalization fell back to degraded incident", "error", err)
	}

	t = time.Now()
	analysis, err := s.pipeline.Classifier.Classify(ctx, draft)
	s.hooks.stage("classify", time.Since(t).Seconds())
	if err != nil {
		degraded = true
		s.hooks.fallback("classify")
		s.logger.Warn(ctx, "classification fell back to manual review", "error", err)
	}

	analysis, err = s.pipeline.Validator.Validate(analysis)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "schema violation")
		s.hooks.complete("schema_violation", time.Since(start).Seconds())
		s.logger.Error(ctx, err, "analysis rejected", "title", draft.Title)
		return nil, fmt.Errorf("validate analysis: %w", err)
	}

	now := s.now()
	inc := &Incident{
		ID:          ulid.Make().String(),
		Title:       draft.Title,
		Description: draft.Description,
		Status:      StatusOpen,
		Priority:    analysis.Priority,
		CreatedAt:   now,
		UpdatedAt:   now,
		Analysis:    &analysis,
	}

	span.SetAttributes(
		attribute.String("warden.incident.id", inc.ID),
		attribute.String("warden.incident.priority", string(inc.Priority)),
		attribute.String("warden.analysis.action", string(analysis.Action)),
		attribute.Bool("warden.degraded", degraded),
	)

	if err := s.store.Create(ctx, inc); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store create")
		s.hooks.complete("store_error", time.Since(start).Seconds())
		return nil, fmt.Errorf("create incident: %w", err)
	}

	L := s.logger.With("incident_id", inc.ID, "action", analysis.Action)
	L.Info(ctx, "incident created",
		"type", analysis.Type,
		"priority", inc.Priority,
		"target", analysis.TargetOrEmpty(),
		"assigned_to", analysis.AssigneeOrEmpty(),
		"degraded", degraded,
	)

	res := &CreateResult{Incident: inc, Degraded: degraded}

	if s.opts.NotifyOnAssign && s.pipeline.Notifier != nil {
		err := s.pipeline.Notifier.NotifyAssignment(ctx, inc.Clone())
		s.hooks.notify("assignment", err)
		if err != nil {
			L.Warn(ctx, "assignment notification failed", "error", err)
		}
	}

	if s.opts.AutoRemediate && s.pipeline.Dispatcher != nil && s.pipeline.Dispatcher.CanExecute(inc) {
		ar, updated := s.execute(ctx, inc)
		res.Action = ar
		if updated != nil {
			res.Incident = updated
		}
	}

	s.hooks.complete("created", time.Since(start).Seconds())
	return res, nil
}

// ExecuteAction dispatches the stored analysis action for one incident.
func (s *Service) ExecuteAction(ctx context.Context, id string) (*ActionResult, error) {
	if s.pipeline.Dispatcher == nil {
		return nil, fmt.Errorf("%w: no dispatcher configured", ErrNotExecutable)
	}
	inc, ok, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find incident: %w", err)
	}
	if !ok {
		return nil, ErrNotFound
	}
	if !s.pipeline.Dispatcher.CanExecute(inc) {
		return nil, fmt.Errorf("%w: status %s", ErrNotExecutable, inc.Status)
	}
	ar, _ := s.execute(ctx, inc)
	return ar, nil
}

// execute runs the dispatcher and, when enabled, advances the incident after a
// successful dispatch. It returns the updated incident when a transition happened.
func (s *Service) execute(ctx context.Context, inc *Incident) (*ActionResult, *Incident) {
	t := time.Now()
	ar := s.pipeline.Dispatcher.Execute(ctx, inc.Clone())
	s.hooks.stage("dispatch", time.Since(t).Seconds())
	s.hooks.dispatch(ar)

	L := s.logger.With("incident_id", inc.ID, "action", ar.Action)
	if !ar.Success {
		L.Warn(ctx, "remediation failed", "reason", ar.Reason, "message", ar.Message)
		return ar, nil
	}
	L.Info(ctx, "remediation dispatched", "message", ar.Message)

	if !s.opts.AdvanceOnSuccess || ar.Skipped() || inc.Status != StatusOpen {
		return ar, nil
	}
	updated, err := s.UpdateStatus(ctx, inc.ID, StatusInvestigating)
	if err != nil {
		L.Warn(ctx, "could not advance incident after remediation", "error", err)
		return ar, nil
	}
	return ar, updated
}

// List returns every stored incident.
func (s *Service) List(ctx context.Context) ([]*Incident, error) {
	return s.store.FindAll(ctx)
}

// Get retrieves an incident by ID.
func (s *Service) Get(ctx context.Context, id string) (*Incident, bool, error) {
	return s.store.FindByID(ctx, id)
}

// UpdateStatus applies a lifecycle transition. Nothing is mutated on error.
func (s *Service) UpdateStatus(ctx context.Context, id string, to Status) (*Incident, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrSchemaViolation, to)
	}

	var from Status
	inc, err := s.store.Update(ctx, id, func(inc *Incident) error {
		from = inc.Status
		if err := Transition(inc, to); err != nil {
			return err
		}
		inc.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrInvalidTransition) {
			s.logger.Error(ctx, err, "status update failed", "incident_id", id, "status", to)
		}
		return nil, err
	}

	s.hooks.transition(from, to)
	s.logger.Info(ctx, "incident status changed", "incident_id", id, "from", from, "to", to)
	return inc, nil
}
