package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"sentinel/fraud-monitor/internal/alerts"
	"sentinel/fraud-monitor/internal/domain"
	"sentinel/fraud-monitor/internal/report"
	"sentinel/fraud-monitor/internal/webhook"
)

// DatasetReader loads a fresh snapshot of the user records, either decoded
// or as the validated file bytes.
type DatasetReader interface {
	Load() ([]domain.User, error)
	ReadRaw() ([]byte, error)
}

// ReportReader loads the last saved fraud report.
type ReportReader interface {
	Load() ([]domain.FraudReportEntry, error)
}

// ReportGenerator rebuilds and saves the fraud report.
type ReportGenerator interface {
	Regenerate(users []domain.User) ([]domain.FraudReportEntry, error)
}

// Deps are the collaborators a Handler needs.
type Deps struct {
	Dataset  DatasetReader
	Reports  ReportReader
	Builder  ReportGenerator
	Engine   *alerts.Engine
	Webhooks *webhook.Registry
	Logger   *slog.Logger
}

// Handler holds the dependencies shared across all HTTP handlers. It never
// writes the dataset; every request reads its own snapshot.
type Handler struct {
	dataset  DatasetReader
	reports  ReportReader
	builder  ReportGenerator
	engine   *alerts.Engine
	webhooks *webhook.Registry
	logger   *slog.Logger
}

// NewHandler creates a Handler wired to the given dependencies.
func NewHandler(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		dataset:  d.Dataset,
		reports:  d.Reports,
		builder:  d.Builder,
		engine:   d.Engine,
		webhooks: d.Webhooks,
		logger:   logger,
	}
}

// loadUsers reads the dataset or writes a 503 and returns false.
func (h *Handler) loadUsers(w http.ResponseWriter) ([]domain.User, bool) {
	users, err := h.dataset.Load()
	if err != nil {
		h.logger.Error("dataset unavailable", "error", err)
		datasetUnavailable(w, err.Error())
		return nil, false
	}
	return users, true
}

// ─── Static artifacts ─────────────────────────────────────────────────────────

// DatasetFile serves the dataset file byte for byte.
func (h *Handler) DatasetFile(w http.ResponseWriter, r *http.Request) {
	raw, err := h.dataset.ReadRaw()
	if err != nil {
		h.logger.Error("dataset unavailable", "error", err)
		datasetUnavailable(w, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

// ReportFile serves the last saved fraud report as a bare JSON array.
func (h *Handler) ReportFile(w http.ResponseWriter, r *http.Request) {
	entries, err := h.reports.Load()
	if err != nil {
		h.logger.Error("fraud report unreadable", "error", err)
		internalError(w, "REPORT_UNREADABLE", "fraud report could not be read")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// ─── GET /api/users ───────────────────────────────────────────────────────────

// ListUsers returns the current dataset snapshot.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, loaded := h.loadUsers(w)
	if !loaded {
		return
	}
	ok(w, users)
}

// ─── /api/generate-fraud-report ───────────────────────────────────────────────

type generateResponse struct {
	FraudCount int                       `json:"fraudCount"`
	Entries    []domain.FraudReportEntry `json:"entries"`
}

// GenerateFraudReport rebuilds the report from the current dataset.
func (h *Handler) GenerateFraudReport(w http.ResponseWriter, r *http.Request) {
	users, loaded := h.loadUsers(w)
	if !loaded {
		return
	}

	entries, err := h.builder.Regenerate(users)
	if err != nil {
		internalError(w, "REPORT_NOT_SAVED", "fraud report could not be saved")
		return
	}
	ok(w, generateResponse{FraudCount: len(entries), Entries: entries})
}

// ─── GET /api/search ──────────────────────────────────────────────────────────

type searchResponse struct {
	User   *domain.User   `json:"user"`
	Alerts *alerts.Result `json:"alerts"`
	Series alerts.Series  `json:"series"`
}

// SearchAccount looks up one account and evaluates its alert rules.
func (h *Handler) SearchAccount(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("account"))
	if query == "" {
		badRequest(w, "MISSING_ACCOUNT", "account query parameter is required")
		return
	}

	users, loaded := h.loadUsers(w)
	if !loaded {
		return
	}

	res := h.engine.Search(users, query)
	if !res.Found {
		notFound(w, fmt.Sprintf("account '%s' not found", res.Query))
		return
	}
	ok(w, searchResponse{User: res.User, Alerts: res.Result, Series: h.engine.Series(res.User)})
}

// ─── GET /api/reports/fraud ───────────────────────────────────────────────────

type fraudReportResponse struct {
	FraudCount      int                       `json:"fraud_count"`
	TotalFraudMoney int64                     `json:"total_fraud_money"`
	Entries         []domain.FraudReportEntry `json:"entries"`
}

// GetFraudReport returns the last saved report with summary totals.
func (h *Handler) GetFraudReport(w http.ResponseWriter, r *http.Request) {
	entries, err := h.reports.Load()
	if err != nil {
		h.logger.Error("fraud report unreadable", "error", err)
		internalError(w, "REPORT_UNREADABLE", "fraud report could not be read")
		return
	}
	ok(w, fraudReportResponse{
		FraudCount:      len(entries),
		TotalFraudMoney: report.TotalFraudMoney(entries),
		Entries:         entries,
	})
}

// ─── Webhooks ─────────────────────────────────────────────────────────────────

// ListWebhooks returns every registered webhook.
func (h *Handler) ListWebhooks(w http.ResponseWriter, r *http.Request) {
	ok(w, h.webhooks.List())
}

// RegisterWebhook adds a new webhook endpoint.
func (h *Handler) RegisterWebhook(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL         string `json:"url"`
		MinAccounts int    `json:"min_accounts"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "INVALID_JSON", "request body must be valid JSON")
		return
	}
	if req.URL == "" {
		badRequest(w, "MISSING_URL", "url is required")
		return
	}

	hook, err := h.webhooks.Register(req.URL, req.MinAccounts)
	switch {
	case errors.Is(err, webhook.ErrInvalidURL):
		badRequest(w, "INVALID_URL", err.Error())
		return
	case errors.Is(err, webhook.ErrInvalidMinAccounts):
		badRequest(w, "INVALID_MIN_ACCOUNTS", err.Error())
		return
	case err != nil:
		internalError(w, "INTERNAL_ERROR", "an unexpected error occurred")
		return
	}
	created(w, hook)
}

// DeleteWebhook removes a webhook.
func (h *Handler) DeleteWebhook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.webhooks.Delete(id); err != nil {
		notFound(w, fmt.Sprintf("webhook '%s' not found", id))
		return
	}
	noContent(w)
}
