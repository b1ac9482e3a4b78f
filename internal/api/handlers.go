package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/quantfolio/paper-trading-service/internal/ledger"
	"github.com/quantfolio/paper-trading-service/internal/models"
)

// PortfolioService defines the trading operations the handlers expose.
type PortfolioService interface {
	SubmitTrade(ctx context.Context, t *models.Trade) error
	Positions(ctx context.Context, accountID string) (map[string]models.ValuedPosition, error)
	ClosePosition(ctx context.Context, accountID, symbol string) (*models.Trade, error)
	History(ctx context.Context, accountID string, limit int) ([]models.Trade, error)
}

// WatchlistStore defines the watchlist persistence the handlers need.
type WatchlistStore interface {
	GetWatchlist() ([]*models.WatchlistEntry, error)
	UpsertWatchlistEntry(w *models.WatchlistEntry) error
	DeleteWatchlistEntry(symbol string) error
}

// AlertStore defines the alert persistence the handlers need.
type AlertStore interface {
	GetAllAlertRules() ([]*models.AlertRule, error)
	CreateAlertRule(a *models.AlertRule) error
	DeleteAlertRule(id int) error
	GetAlertHistory(limit int) ([]*models.AlertHistory, error)
}

// PriceBarStore defines the recorded bar history the handlers need.
type PriceBarStore interface {
	GetPriceBars(symbol string, limit int) ([]*models.PriceBar, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	portfolio PortfolioService
	watchlist WatchlistStore
	alerts    AlertStore
	prices    ledger.PriceSource
	bars      PriceBarStore
}

// NewHandler creates a new Handler
func NewHandler(portfolio PortfolioService, watchlist WatchlistStore, alerts AlertStore, prices ledger.PriceSource, bars PriceBarStore) *Handler {
	return &Handler{
		portfolio: portfolio,
		watchlist: watchlist,
		alerts:    alerts,
		prices:    prices,
		bars:      bars,
	}
}

// SubmitTrade handles POST /accounts/{account}/trades
func (h *Handler) SubmitTrade(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req struct {
		Symbol     string          `json:"symbol"`
		Side       string          `json:"side"`
		Quantity   decimal.Decimal `json:"quantity"`
		Price      decimal.Decimal `json:"price"`
		Notes      string          `json:"notes"`
		ExecutedAt string          `json:"executed_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	trade := &models.Trade{
		AccountID: vars["account"],
		Symbol:    req.Symbol,
		Side:      strings.ToUpper(req.Side),
		Quantity:  req.Quantity,
		Price:     req.Price,
		Notes:     req.Notes,
	}
	if req.ExecutedAt != "" {
		executedAt, err := parseTimestamp(req.ExecutedAt)
		if err != nil {
			http.Error(w, "invalid executed_at", http.StatusBadRequest)
			return
		}
		trade.ExecutedAt = executedAt
	}

	if err := h.portfolio.SubmitTrade(r.Context(), trade); err != nil {
		writeTradeError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, trade)
}

// GetTradeHistory handles GET /accounts/{account}/trades
func (h *Handler) GetTradeHistory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	trades, err := h.portfolio.History(r.Context(), vars["account"], limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, trades)
}

// GetPositions handles GET /accounts/{account}/positions
func (h *Handler) GetPositions(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	positions, err := h.portfolio.Positions(r.Context(), vars["account"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, positions)
}

// ClosePosition handles POST /accounts/{account}/positions/{symbol}/close
func (h *Handler) ClosePosition(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	trade, err := h.portfolio.ClosePosition(r.Context(), vars["account"], strings.ToUpper(vars["symbol"]))
	if err != nil {
		writeTradeError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, trade)
}

// GetWatchlist handles GET /watchlist
func (h *Handler) GetWatchlist(w http.ResponseWriter, r *http.Request) {
	entries, err := h.watchlist.GetWatchlist()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, entries)
}

// AddWatchlistEntry handles POST /watchlist
func (h *Handler) AddWatchlistEntry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol      string   `json:"symbol"`
		Priority    int      `json:"priority"`
		TargetPrice *float64 `json:"target_price"`
		StopPrice   *float64 `json:"stop_price"`
		Notes       string   `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}

	entry := &models.WatchlistEntry{
		Symbol:      symbol,
		Enabled:     true,
		Priority:    req.Priority,
		TargetPrice: req.TargetPrice,
		StopPrice:   req.StopPrice,
		Notes:       req.Notes,
	}
	if err := h.watchlist.UpsertWatchlistEntry(entry); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusCreated, entry)
}

// RemoveWatchlistEntry handles DELETE /watchlist/{symbol}
func (h *Handler) RemoveWatchlistEntry(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := h.watchlist.DeleteWatchlistEntry(strings.ToUpper(vars["symbol"])); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetAlertRules handles GET /alerts
func (h *Handler) GetAlertRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.alerts.GetAllAlertRules()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, rules)
}

// CreateAlertRule handles POST /alerts
func (h *Handler) CreateAlertRule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol          string          `json:"symbol"`
		RuleType        string          `json:"rule_type"`
		Threshold       decimal.Decimal `json:"threshold"`
		CooldownMinutes int             `json:"cooldown_minutes"`
		Priority        string          `json:"priority"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}
	if req.RuleType != models.RuleTypePriceAbove && req.RuleType != models.RuleTypePriceBelow {
		http.Error(w, "rule_type must be PRICE_ABOVE or PRICE_BELOW", http.StatusBadRequest)
		return
	}
	if !req.Threshold.IsPositive() {
		http.Error(w, "threshold must be positive", http.StatusBadRequest)
		return
	}

	rule := &models.AlertRule{
		Symbol:          symbol,
		RuleType:        req.RuleType,
		Threshold:       req.Threshold,
		Enabled:         true,
		CooldownMinutes: req.CooldownMinutes,
		Priority:        req.Priority,
	}
	if rule.CooldownMinutes <= 0 {
		rule.CooldownMinutes = 60
	}
	if rule.Priority == "" {
		rule.Priority = models.PriorityNormal
	}

	if err := h.alerts.CreateAlertRule(rule); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusCreated, rule)
}

// DeleteAlertRule handles DELETE /alerts/{id}
func (h *Handler) DeleteAlertRule(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	id, err := strconv.Atoi(vars["id"])
	if err != nil {
		http.Error(w, "invalid alert id", http.StatusBadRequest)
		return
	}

	if err := h.alerts.DeleteAlertRule(id); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetAlertHistory handles GET /alerts/history
func (h *Handler) GetAlertHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	history, err := h.alerts.GetAlertHistory(limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, history)
}

// GetQuote handles GET /quotes/{symbol}
func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	quote, err := h.prices.Quote(r.Context(), strings.ToUpper(vars["symbol"]))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	respondJSON(w, http.StatusOK, quote)
}

// GetQuoteHistory handles GET /quotes/{symbol}/history
func (h *Handler) GetQuoteHistory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	limit := 30
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	bars, err := h.bars.GetPriceBars(strings.ToUpper(vars["symbol"]), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, bars)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// writeTradeError maps ledger errors to HTTP statuses: malformed trades are
// the caller's fault (400), oversells conflict with the ledger state (409),
// a missing price is an upstream failure (502).
func writeTradeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidTrade):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ledger.ErrInsufficientPosition):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ledger.ErrPriceUnavailable):
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", s)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
