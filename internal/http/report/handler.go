package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/ledgerly/internal/accounting"
	"github.com/MrJamesThe3rd/ledgerly/internal/period"
	"github.com/MrJamesThe3rd/ledgerly/internal/pipeline"
	"github.com/MrJamesThe3rd/ledgerly/internal/report"
)

// Handler previews reports without sending them.
type Handler struct {
	svc *pipeline.Service
}

func NewHandler(svc *pipeline.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/{period}", h.get)
	r.Get("/{period}/pdf", h.pdf)
}

func parseRequest(r *http.Request) (pipeline.Request, error) {
	token, err := period.ParseToken(chi.URLParam(r, "period"))
	if err != nil {
		return pipeline.Request{}, err
	}

	req := pipeline.Request{Token: token}

	q := r.URL.Query()
	if start, end := q.Get("start"), q.Get("end"); start != "" || end != "" {
		req.Custom = &period.Range{Start: start, End: end}
	}

	return req, nil
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	data, err := h.svc.Build(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) pdf(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	data, pdf, err := h.svc.Render(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", report.FileName(data)))

	if _, err := w.Write(pdf); err != nil {
		slog.Error("failed to write pdf", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, period.ErrUnknownPeriod), errors.Is(err, period.ErrInvalidConfiguration):
		status = http.StatusBadRequest
	case errors.Is(err, accounting.ErrUpstream):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		slog.Error("report request failed", "error", err)
		http.Error(w, "internal error", status)

		return
	}

	http.Error(w, err.Error(), status)
}
