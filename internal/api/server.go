// Package api exposes the public market-board HTTP surface: price and
// history queries, the client upload endpoint, catalog metadata, and the
// websocket event feed.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"marketboard/internal/aggregator"
	"marketboard/internal/catalog"
	"marketboard/internal/eventbus"
	"marketboard/internal/metrics"
	"marketboard/internal/models"
)

type marketAggregator interface {
	ResolveAndFetchListings(ctx context.Context, itemID int32, token string) (*aggregator.ListingsView, error)
	ResolveAndFetchSales(ctx context.Context, itemID int32, token string, limit int) (*aggregator.SalesView, error)
}

type uploadProcessor interface {
	Process(ctx context.Context, apiKey string, body []byte) error
}

type taxReader interface {
	Retrieve(ctx context.Context, worldID int32) (*models.TaxRates, error)
}

type uploadHistoryReader interface {
	History(ctx context.Context) (models.UploadCountHistory, error)
}

type catalogView interface {
	WorldsByID() map[int32]string
	DataCenters() []models.DataCenter
	MarketableItems() []int32
	Resolve(token string) (catalog.WorldOrDc, error)
}

type blacklistWriter interface {
	Add(ctx context.Context, uploaderHash string) error
}

type listingDeleter interface {
	DeleteLive(ctx context.Context, key models.WorldItem) error
}

type Server struct {
	agg        marketAggregator
	pipeline   uploadProcessor
	taxRates   taxReader
	history    uploadHistoryReader
	catalog    catalogView
	blacklist  blacklistWriter
	listings   listingDeleter
	hub        *hub
	log        *zap.Logger
	httpServer *http.Server
}

func NewServer(
	agg marketAggregator,
	pipeline uploadProcessor,
	taxRates taxReader,
	history uploadHistoryReader,
	cat catalogView,
	blacklist blacklistWriter,
	listings listingDeleter,
	bus *eventbus.Bus,
	port string,
	log *zap.Logger,
) *Server {
	r := mux.NewRouter()

	s := &Server{
		agg:       agg,
		pipeline:  pipeline,
		taxRates:  taxRates,
		history:   history,
		catalog:   cat,
		blacklist: blacklist,
		listings:  listings,
		hub:       newHub(log),
		log:       log.Named("api"),
	}

	r.Use(commonMiddleware)
	r.Use(rateLimitMiddleware)

	registerBaseRoutes(r, s)
	registerMarketRoutes(r, s)
	registerAdminRoutes(r, s)

	go s.hub.run()
	if bus != nil {
		go s.hub.consume(bus)
	}

	s.httpServer = &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	return s
}

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]interface{}{
		"counters":     metrics.Snapshot(),
		"generated_at": time.Now().UTC().Format(time.RFC3339),
	})
}

func commonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
