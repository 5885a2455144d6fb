package incidentapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/warden/internal/incident"
)

type createRequest struct {
	Description json.RawMessage `json:"description"`
}

type createResponse struct {
	Data     *incident.Incident     `json:"data"`
	Action   *incident.ActionResult `json:"action,omitempty"`
	Degraded bool                   `json:"degraded,omitempty"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type batchResponse struct {
	Data    []*incident.ActionResult `json:"data"`
	Summary incident.Summary         `json:"summary"`
}

func (a *API) handleList(w http.ResponseWriter, r *http.Request) {
	incs, err := a.svc.List(r.Context())
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to list incidents")
		writeError(w, err)
		return
	}
	if len(incs) == 0 {
		writeJSON(w, http.StatusNotFound, errorBody{Message: "no incidents"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": incs})
}

func (a *API) handleCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.opts.MaxBodyBytes)

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Message: "payload too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "invalid payload"})
		return
	}
	if len(req.Description) == 0 || bytes.Equal(req.Description, []byte("null")) {
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "description is required"})
		return
	}

	res, err := a.svc.Create(r.Context(), req.Description)
	if err != nil {
		a.logger.Error(r.Context(), err, "incident creation failed")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "AI analysis failed"})
		return
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("warden.incident.id", res.Incident.ID))

	writeJSON(w, http.StatusCreated, createResponse{
		Data:     res.Incident,
		Action:   res.Action,
		Degraded: res.Degraded,
	})
}

func (a *API) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("warden.incident.id", id))

	inc, ok, err := a.svc.Get(r.Context(), id)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to get incident", "id", id)
		writeError(w, err)
		return
	}
	if !ok {
		writeError(w, incident.ErrNotFound)
		return
	}

	span.SetAttributes(attribute.String("warden.incident.status", string(inc.Status)))
	writeJSON(w, http.StatusOK, map[string]any{"data": inc})
}

func (a *API) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	r.Body = http.MaxBytesReader(w, r.Body, a.opts.MaxBodyBytes)

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "invalid payload"})
		return
	}
	to, err := a.status.ValidateStatus(req.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	inc, err := a.svc.UpdateStatus(r.Context(), id, to)
	if err != nil {
		if writeError(w, err) == http.StatusInternalServerError {
			a.logger.Error(r.Context(), err, "failed to update incident status", "id", id, "status", to)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"incident": inc})
}

func (a *API) handleExecute(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	res, err := a.svc.ExecuteAction(r.Context(), id)
	if err != nil {
		if writeError(w, err) == http.StatusInternalServerError {
			a.logger.Error(r.Context(), err, "failed to execute incident action", "id", id)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": res})
}

func (a *API) handleExecuteAll(w http.ResponseWriter, r *http.Request) {
	results, err := a.svc.ExecuteAll(r.Context(), a.opts.BatchLimit)
	if err != nil {
		if writeError(w, err) == http.StatusInternalServerError {
			a.logger.Error(r.Context(), err, "batch execution failed")
		}
		return
	}
	if results == nil {
		results = []*incident.ActionResult{}
	}
	writeJSON(w, http.StatusOK, batchResponse{Data: results, Summary: incident.Summarize(results)})
}

func (a *API) handleRandomError(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(a.samples.Generate()))
}
