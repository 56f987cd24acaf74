package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"RSITracker/internal/metrics"
	"RSITracker/internal/model"
	"RSITracker/internal/recorder"
	"RSITracker/internal/scheduler"
	"RSITracker/internal/watchlist"

	"github.com/gorilla/websocket"
)

type fakeRefresher struct {
	forgotten []string
}

func (f *fakeRefresher) RefreshNow(context.Context) (*scheduler.CycleResult, error) {
	return &scheduler.CycleResult{ID: "c1", Trigger: scheduler.TriggerManual, Symbols: 1, OK: 1}, nil
}

func (f *fakeRefresher) Forget(symbol string) { f.forgotten = append(f.forgotten, symbol) }

type fixture struct {
	srv   *Server
	wl    *watchlist.Store
	board *scheduler.Board
	ref   *fakeRefresher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	wl := watchlist.Open(filepath.Join(t.TempDir(), "watchlist.json"))
	board := scheduler.NewBoard()
	ref := &fakeRefresher{}
	return &fixture{
		srv:   NewServer(":0", wl, board, ref, metrics.New()),
		wl:    wl,
		board: board,
		ref:   ref,
	}
}

func (f *fixture) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.srv.Echo().ServeHTTP(rec, req)

	var resp Response
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return rec, resp
}

func TestAPI_WatchlistLifecycle(t *testing.T) {
	f := newFixture(t)

	rec, _ := f.do(t, http.MethodPost, "/api/watchlist", `{"symbol":"aapl"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body)
	}
	if !f.wl.Contains("AAPL") {
		t.Fatal("symbol not stored")
	}

	rec, _ = f.do(t, http.MethodPost, "/api/watchlist", `{"symbol":"AAPL"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 for duplicate, got %d", rec.Code)
	}

	rec, _ = f.do(t, http.MethodPost, "/api/watchlist", `{"symbol":"no way"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for invalid symbol, got %d", rec.Code)
	}

	rec, _ = f.do(t, http.MethodPost, "/api/watchlist", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing symbol, got %d", rec.Code)
	}

	rec, resp := f.do(t, http.MethodGet, "/api/watchlist", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if list, ok := resp.Data.([]interface{}); !ok || len(list) != 1 || list[0] != "AAPL" {
		t.Errorf("unexpected watchlist: %v", resp.Data)
	}

	rec, _ = f.do(t, http.MethodDelete, "/api/watchlist/aapl", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if len(f.ref.forgotten) != 1 || f.ref.forgotten[0] != "AAPL" {
		t.Errorf("removed symbol not forgotten: %v", f.ref.forgotten)
	}

	rec, _ = f.do(t, http.MethodDelete, "/api/watchlist/AAPL", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for absent symbol, got %d", rec.Code)
	}
}

func TestAPI_Readings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, s := range []string{"AAPL", "MSFT"} {
		if _, err := f.wl.Add(ctx, s); err != nil {
			t.Fatal(err)
		}
	}
	f.board.Put(model.IndicatorReading{Symbol: "MSFT", RSI: 28, Classification: model.Oversold, Status: model.StatusOK})

	rec, resp := f.do(t, http.MethodGet, "/api/readings", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rows, ok := resp.Data.([]interface{})
	if !ok || len(rows) != 2 {
		t.Fatalf("expected 2 readings, got %v", resp.Data)
	}
	first := rows[0].(map[string]interface{})
	second := rows[1].(map[string]interface{})
	if first["symbol"] != "AAPL" || first["status"] != "pending" {
		t.Errorf("unexpected first reading: %v", first)
	}
	if second["classification"] != "OVERSOLD" {
		t.Errorf("unexpected second reading: %v", second)
	}

	rec, _ = f.do(t, http.MethodGet, "/api/readings/msft", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	rec, _ = f.do(t, http.MethodGet, "/api/readings/TSLA", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for untracked symbol, got %d", rec.Code)
	}
}

func TestAPI_RefreshHealthAndMetrics(t *testing.T) {
	f := newFixture(t)

	rec, resp := f.do(t, http.MethodPost, "/api/refresh", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if data := resp.Data.(map[string]interface{}); data["trigger"] != "manual" {
		t.Errorf("unexpected refresh result: %v", data)
	}

	rec, _ = f.do(t, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected healthz 200, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	mrec := httptest.NewRecorder()
	f.srv.Echo().ServeHTTP(mrec, req)
	if mrec.Code != http.StatusOK || !strings.Contains(mrec.Body.String(), "rsitracker_watchlist_size") {
		t.Errorf("metrics endpoint not served: %d", mrec.Code)
	}
}

func TestAPI_WebsocketStream(t *testing.T) {
	f := newFixture(t)
	if _, err := f.wl.Add(context.Background(), "AAPL"); err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(f.srv.Echo())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/readings"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if msg.Type != "snapshot" {
		t.Fatalf("expected snapshot first, got %q", msg.Type)
	}

	f.board.Put(model.IndicatorReading{Symbol: "AAPL", RSI: 81, Classification: model.Overbought, Status: model.StatusOK})
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read update: %v", err)
	}
	var r model.IndicatorReading
	if err := json.Unmarshal(msg.Data, &r); err != nil {
		t.Fatal(err)
	}
	if msg.Type != "reading" || r.Symbol != "AAPL" || r.RSI != 81 {
		t.Errorf("unexpected update: %s %+v", msg.Type, r)
	}
}

func TestAPI_QuoteHistory(t *testing.T) {
	f := newFixture(t)

	rec, _ := f.do(t, http.MethodGet, "/api/quotes/AAPL", "")
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501 without a recorder, got %d", rec.Code)
	}

	db, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open recorder: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	base := time.Date(2024, 5, 1, 15, 0, 0, 0, time.UTC)
	for i, p := range []float64{100, 101, 102} {
		if err := db.RecordQuote(&recorder.Quote{CycleID: "c", Symbol: "AAPL", Price: p, FetchedAt: base.Add(time.Duration(i) * time.Minute)}); err != nil {
			t.Fatal(err)
		}
	}
	if err := db.RecordQuote(&recorder.Quote{CycleID: "c", Symbol: "MSFT", Price: 400, FetchedAt: base}); err != nil {
		t.Fatal(err)
	}
	f.srv.SetQuoteHistory(db)

	tests := []struct {
		name       string
		path       string
		wantCode   int
		wantPrices []float64
	}{
		{"newest first with limit", "/api/quotes/aapl?limit=2", http.StatusOK, []float64{102, 101}},
		{"default limit", "/api/quotes/MSFT", http.StatusOK, []float64{400}},
		{"unknown symbol is empty", "/api/quotes/TSLA", http.StatusOK, []float64{}},
		{"bad limit", "/api/quotes/AAPL?limit=0", http.StatusBadRequest, nil},
		{"limit too large", "/api/quotes/AAPL?limit=100000", http.StatusBadRequest, nil},
		{"bad symbol", "/api/quotes/not%20a%20ticker", http.StatusBadRequest, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := f.do(t, http.MethodGet, tt.path, "")
			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, rec.Code, rec.Body)
			}
			if tt.wantPrices == nil {
				return
			}
			raw, _ := json.Marshal(resp.Data)
			var quotes []recorder.Quote
			if err := json.Unmarshal(raw, &quotes); err != nil {
				t.Fatal(err)
			}
			if len(quotes) != len(tt.wantPrices) {
				t.Fatalf("expected %d quotes, got %d", len(tt.wantPrices), len(quotes))
			}
			for i, q := range quotes {
				if q.Price != tt.wantPrices[i] {
					t.Errorf("quote %d: expected price %v, got %v", i, tt.wantPrices[i], q.Price)
				}
			}
		})
	}
}
