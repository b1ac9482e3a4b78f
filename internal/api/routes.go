package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	// Trading routes
	api.HandleFunc("/accounts/{account}/trades", handler.SubmitTrade).Methods("POST")
	api.HandleFunc("/accounts/{account}/trades", handler.GetTradeHistory).Methods("GET")
	api.HandleFunc("/accounts/{account}/positions", handler.GetPositions).Methods("GET")
	api.HandleFunc("/accounts/{account}/positions/{symbol}/close", handler.ClosePosition).Methods("POST")

	// Watchlist routes
	api.HandleFunc("/watchlist", handler.GetWatchlist).Methods("GET")
	api.HandleFunc("/watchlist", handler.AddWatchlistEntry).Methods("POST")
	api.HandleFunc("/watchlist/{symbol}", handler.RemoveWatchlistEntry).Methods("DELETE")

	// Alert routes
	api.HandleFunc("/alerts", handler.GetAlertRules).Methods("GET")
	api.HandleFunc("/alerts", handler.CreateAlertRule).Methods("POST")
	api.HandleFunc("/alerts/{id}", handler.DeleteAlertRule).Methods("DELETE")
	api.HandleFunc("/alerts/history", handler.GetAlertHistory).Methods("GET")

	// Quote routes
	api.HandleFunc("/quotes/{symbol}", handler.GetQuote).Methods("GET")
	api.HandleFunc("/quotes/{symbol}/history", handler.GetQuoteHistory).Methods("GET")

	return r
}
