package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/onemedia/broadcast-service/internal/config"
	"github.com/onemedia/broadcast-service/internal/domain"
	"github.com/onemedia/broadcast-service/internal/hub"
	"github.com/onemedia/broadcast-service/internal/service"
	"github.com/onemedia/broadcast-service/internal/state"
)

func newAPIFixture(t *testing.T) (*mux.Router, *state.MatchRegistry) {
	t.Helper()

	wsHub := hub.NewHub(config.WebSocketConfig{}, []string{"oneevent1", "oneevent2"})
	matches := state.NewMatchRegistry(5)
	svc := service.NewBroadcastService(
		wsHub,
		state.NewAuthority("modkit-secret"),
		state.NewBroadcastState(),
		matches,
		state.NewVisitorTracker(time.Now()),
	)

	router := mux.NewRouter()
	NewHTTPHandler(svc).RegisterRoutes(router)
	return router, matches
}

func TestHTTP_Health(t *testing.T) {
	router, _ := newAPIFixture(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestHTTP_MatchListing(t *testing.T) {
	router, matches := newAPIFixture(t)

	matches.Add(domain.MatchFields{HomeTeam: "reds", AwayTeam: "blues", League: "cup"})
	matches.Add(domain.MatchFields{HomeTeam: "greens", AwayTeam: "golds"})
	matches.Delete(1)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/matches", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp MatchListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if resp.Total != 1 || len(resp.Matches) != 1 {
		t.Fatalf("expected 1 active match, got %+v", resp)
	}
	if resp.Matches[0].WatchNumber != 2 {
		t.Errorf("tombstoned slot must not shift identifiers, got %d", resp.Matches[0].WatchNumber)
	}
}

func TestHTTP_MatchByID(t *testing.T) {
	router, matches := newAPIFixture(t)
	matches.Add(domain.MatchFields{HomeTeam: "reds", AwayTeam: "blues"})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/matches/1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var match domain.Match
	if err := json.Unmarshal(w.Body.Bytes(), &match); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if match.HomeTeam != "reds" || match.WatchNumber != 1 {
		t.Errorf("unexpected match: %+v", match)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/matches/4", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("empty slot is a 404, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/matches/abc", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("non-integer id is a 400, got %d", w.Code)
	}
}

func TestHTTP_Stats(t *testing.T) {
	router, matches := newAPIFixture(t)
	matches.Add(domain.MatchFields{HomeTeam: "reds", AwayTeam: "blues"})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var stats StatsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if len(stats.Channels) != 2 {
		t.Errorf("stats must cover every declared channel: %v", stats.Channels)
	}
	if len(stats.Matches) != 1 {
		t.Errorf("stats must include the active schedule: %v", stats.Matches)
	}
	if stats.MatchCapacity != 5 {
		t.Errorf("stats must report the schedule capacity, got %d", stats.MatchCapacity)
	}

	// Visitor counts and display state are admin-only.
	for _, field := range []string{"daily_unique", "current_unique", "ad_playing", "images"} {
		if strings.Contains(w.Body.String(), field) {
			t.Errorf("public stats must not expose %q", field)
		}
	}
}
