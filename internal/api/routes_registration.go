package api

import (
	"time"

	"github.com/gorilla/mux"
)

func registerBaseRoutes(r *mux.Router, s *Server) {
	r.HandleFunc("/health", s.handleHealth).Methods("GET", "OPTIONS")
	r.HandleFunc("/metrics", s.handleMetrics).Methods("GET", "OPTIONS")
	r.HandleFunc("/ws", s.handleWebSocket).Methods("GET", "OPTIONS")
}

func registerMarketRoutes(r *mux.Router, s *Server) {
	r.HandleFunc("/upload/{apiKey}", s.handleUpload).Methods("POST", "OPTIONS")

	r.HandleFunc("/api/v2/tax-rates", cachedHandler(30*time.Second, s.handleTaxRates)).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/v2/extra/stats/upload-history", cachedHandler(time.Minute, s.handleUploadHistory)).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/v2/worlds", cachedHandler(time.Hour, s.handleWorlds)).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/v2/data-centers", cachedHandler(time.Hour, s.handleDataCenters)).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/v2/marketable", cachedHandler(time.Hour, s.handleMarketable)).Methods("GET", "OPTIONS")

	r.HandleFunc("/api/v2/history/{itemId}/{worldOrDc}", s.handleHistory).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/v2/{itemId}/{worldOrDc}", s.handleListings).Methods("GET", "OPTIONS")
}

func registerAdminRoutes(r *mux.Router, s *Server) {
	auth := newAdminAuthFromEnv(s.log)
	r.Handle("/admin/blacklist", auth.middleware(s.handleAdminBlacklist)).Methods("POST", "OPTIONS")
	r.Handle("/api/v2/listings/{worldOrDc}/{itemId}", auth.middleware(s.handleAdminDeleteListings)).Methods("DELETE", "OPTIONS")
}
