package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"marketboard/internal/aggregator"
	"marketboard/internal/apperr"
	"marketboard/internal/catalog"
	"marketboard/internal/models"
)

type fakeAggregator struct {
	listingsErr error
	salesErr    error
	lastLimit   int
}

func (f *fakeAggregator) ResolveAndFetchListings(ctx context.Context, itemID int32, token string) (*aggregator.ListingsView, error) {
	if f.listingsErr != nil {
		return nil, f.listingsErr
	}
	return &aggregator.ListingsView{ItemID: itemID, DcName: token, Listings: []aggregator.AnnotatedListing{}}, nil
}

func (f *fakeAggregator) ResolveAndFetchSales(ctx context.Context, itemID int32, token string, limit int) (*aggregator.SalesView, error) {
	f.lastLimit = limit
	if f.salesErr != nil {
		return nil, f.salesErr
	}
	return &aggregator.SalesView{ItemID: itemID, DcName: token, Entries: []aggregator.AnnotatedSale{}}, nil
}

type fakePipeline struct {
	err    error
	bodies [][]byte
	keys   []string
}

func (f *fakePipeline) Process(ctx context.Context, apiKey string, body []byte) error {
	f.keys = append(f.keys, apiKey)
	f.bodies = append(f.bodies, body)
	return f.err
}

type fakeTaxReader struct {
	rates map[int32]*models.TaxRates
}

func (f *fakeTaxReader) Retrieve(ctx context.Context, worldID int32) (*models.TaxRates, error) {
	return f.rates[worldID], nil
}

type fakeHistoryReader struct{ counts []int64 }

func (f *fakeHistoryReader) History(ctx context.Context) (models.UploadCountHistory, error) {
	return models.UploadCountHistory{Counts: f.counts}, nil
}

type fakeCatalogView struct{}

func (fakeCatalogView) WorldsByID() map[int32]string { return map[int32]string{73: "Adamantoise"} }
func (fakeCatalogView) DataCenters() []models.DataCenter {
	return []models.DataCenter{{Name: "Aether", Region: "North-America", WorldIDs: []int32{73}}}
}
func (fakeCatalogView) MarketableItems() []int32 { return []int32{5} }
func (fakeCatalogView) Resolve(token string) (catalog.WorldOrDc, error) {
	switch token {
	case "73", "Adamantoise":
		return catalog.WorldOrDc{World: &models.World{ID: 73, Name: "Adamantoise"}}, nil
	case "Aether":
		return catalog.WorldOrDc{Dc: &models.DataCenter{Name: "Aether", WorldIDs: []int32{73}}}, nil
	}
	return catalog.WorldOrDc{}, apperr.NotFound("unknown token " + token)
}

type fakeBlacklistWriter struct{ added []string }

func (f *fakeBlacklistWriter) Add(ctx context.Context, uploaderHash string) error {
	f.added = append(f.added, uploaderHash)
	return nil
}

type fakeListingDeleter struct{ deleted []models.WorldItem }

func (f *fakeListingDeleter) DeleteLive(ctx context.Context, key models.WorldItem) error {
	f.deleted = append(f.deleted, key)
	return nil
}

type testServer struct {
	srv       *Server
	agg       *fakeAggregator
	pipeline  *fakePipeline
	blacklist *fakeBlacklistWriter
	deleter   *fakeListingDeleter
}

func newTestServer() *testServer {
	agg := &fakeAggregator{}
	pipeline := &fakePipeline{}
	blacklist := &fakeBlacklistWriter{}
	deleter := &fakeListingDeleter{}
	taxes := &fakeTaxReader{rates: map[int32]*models.TaxRates{
		73: {LimsaLominsa: 5, Source: "test-client"},
	}}
	history := &fakeHistoryReader{counts: []int64{12, 7}}

	srv := NewServer(agg, pipeline, taxes, history, fakeCatalogView{}, blacklist, deleter, nil, "0", zap.NewNop())
	return &testServer{srv: srv, agg: agg, pipeline: pipeline, blacklist: blacklist, deleter: deleter}
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	ts.srv.httpServer.Handler.ServeHTTP(w, req)
	return w
}

func TestListingsEndpoint(t *testing.T) {
	ts := newTestServer()

	w := ts.do("GET", "/api/v2/5/Aether", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var view aggregator.ListingsView
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	if view.ItemID != 5 || view.DcName != "Aether" {
		t.Fatalf("view = %+v", view)
	}
}

func TestListingsEndpointNotFound(t *testing.T) {
	ts := newTestServer()
	ts.agg.listingsErr = apperr.NotFound("item is not marketable")

	if w := ts.do("GET", "/api/v2/999/Aether", ""); w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestListingsEndpointBadItemID(t *testing.T) {
	ts := newTestServer()

	if w := ts.do("GET", "/api/v2/abc/Aether", ""); w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if w := ts.do("GET", "/api/v2/-1/Aether", ""); w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestHistoryEndpointLimit(t *testing.T) {
	ts := newTestServer()

	if w := ts.do("GET", "/api/v2/history/5/Aether?entries=50", ""); w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ts.agg.lastLimit != 50 {
		t.Errorf("limit = %d, want 50", ts.agg.lastLimit)
	}

	ts.do("GET", "/api/v2/history/5/Aether", "")
	if ts.agg.lastLimit != defaultHistoryEntries {
		t.Errorf("default limit = %d, want %d", ts.agg.lastLimit, defaultHistoryEntries)
	}
}

func TestUploadEndpoint(t *testing.T) {
	ts := newTestServer()

	w := ts.do("POST", "/upload/some-key", `{"uploader_id":"u1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if len(ts.pipeline.keys) != 1 || ts.pipeline.keys[0] != "some-key" {
		t.Fatalf("pipeline keys = %v", ts.pipeline.keys)
	}
}

func TestUploadEndpointErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apperr.ErrForbidden, http.StatusForbidden},
		{apperr.BadRequest("nope"), http.StatusBadRequest},
		{apperr.ErrCancelled, http.StatusGatewayTimeout},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
	}
	for _, tc := range cases {
		ts := newTestServer()
		ts.pipeline.err = tc.err
		if w := ts.do("POST", "/upload/k", `{}`); w.Code != tc.want {
			t.Errorf("err %v: status = %d, want %d", tc.err, w.Code, tc.want)
		}
	}
}

func TestTaxRatesEndpoint(t *testing.T) {
	ts := newTestServer()

	w := ts.do("GET", "/api/v2/tax-rates?world=Adamantoise", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var rates models.TaxRates
	if err := json.Unmarshal(w.Body.Bytes(), &rates); err != nil {
		t.Fatal(err)
	}
	if rates.LimsaLominsa != 5 || rates.Source != "test-client" {
		t.Fatalf("rates = %+v", rates)
	}

	if w := ts.do("GET", "/api/v2/tax-rates?world=Aether", ""); w.Code != http.StatusBadRequest {
		t.Errorf("DC token: status = %d, want 400", w.Code)
	}
	if w := ts.do("GET", "/api/v2/tax-rates?world=Nowhere", ""); w.Code != http.StatusNotFound {
		t.Errorf("unknown token: status = %d, want 404", w.Code)
	}
}

func TestUploadHistoryEndpoint(t *testing.T) {
	ts := newTestServer()

	w := ts.do("GET", "/api/v2/extra/stats/upload-history", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Count []int64 `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Count) != 2 || resp.Count[0] != 12 {
		t.Fatalf("count = %v", resp.Count)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	ts := newTestServer()

	w := ts.do("GET", "/api/v2/worlds", "")
	if w.Code != http.StatusOK {
		t.Fatalf("worlds status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Adamantoise") {
		t.Errorf("worlds body = %s", w.Body.String())
	}

	if w := ts.do("GET", "/api/v2/data-centers", ""); w.Code != http.StatusOK {
		t.Errorf("data-centers status = %d", w.Code)
	}
	if w := ts.do("GET", "/api/v2/marketable", ""); w.Code != http.StatusOK {
		t.Errorf("marketable status = %d", w.Code)
	}
	if w := ts.do("GET", "/health", ""); w.Code != http.StatusOK {
		t.Errorf("health status = %d", w.Code)
	}
}

func TestAdminDisabledWithoutSecret(t *testing.T) {
	ts := newTestServer()

	w := ts.do("POST", "/admin/blacklist", `{"uploader_id":"u1"}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403 when no admin secret is configured", w.Code)
	}
	if len(ts.blacklist.added) != 0 {
		t.Error("blacklist must not be written without auth")
	}
}
