// Package incidentapi exposes the incident pipeline over HTTP.
package incidentapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/warden/internal/incident"
)

// DefaultMaxBodyBytes caps ingestion payloads when no limit is configured.
const DefaultMaxBodyBytes = 1 << 20

// IncidentService defines the business operations incidentapi needs.
type IncidentService interface {
	Create(ctx context.Context, raw json.RawMessage) (*incident.CreateResult, error)
	List(ctx context.Context) ([]*incident.Incident, error)
	Get(ctx context.Context, id string) (*incident.Incident, bool, error)
	UpdateStatus(ctx context.Context, id string, to incident.Status) (*incident.Incident, error)
	ExecuteAction(ctx context.Context, id string) (*incident.ActionResult, error)
	ExecuteAll(ctx context.Context, limit int) ([]*incident.ActionResult, error)
}

// StatusParser validates a requested status string.
type StatusParser interface {
	ValidateStatus(s string) (incident.Status, error)
}

// SampleSource produces synthetic log excerpts.
type SampleSource interface {
	Generate() string
}

// Options tunes the API.
type Options struct {
	MaxBodyBytes int64

	// BatchLimit bounds concurrent dispatches for POST /incidents/actions.
	BatchLimit int
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger  log.Logger
	svc     IncidentService
	status  StatusParser
	samples SampleSource
	opts    Options
}

// New creates a new API handler. samples may be nil, which disables the
// sample endpoint.
func New(logger log.Logger, svc IncidentService, status StatusParser, samples SampleSource, opts Options) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if svc == nil {
		panic(xerrors.New("incident service is required"))
	}
	if status == nil {
		panic(xerrors.New("status parser is required"))
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return &API{
		logger:  logger,
		svc:     svc,
		status:  status,
		samples: samples,
		opts:    opts,
	}
}

// RegisterRoutes attaches API endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/incidents", func(r chi.Router) {
			r.Get("/", a.handleList)
			r.Post("/", a.handleCreate)
			r.Post("/actions", a.handleExecuteAll)
			r.Get("/{id}", a.handleGet)
			r.Patch("/{id}", a.handleUpdateStatus)
			r.Post("/{id}/actions", a.handleExecute)
		})
		if a.samples != nil {
			r.Get("/samples/random-error", a.handleRandomError)
		}
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// nothing to do with errors here
	_ = json.NewEncoder(w).Encode(v)
}
