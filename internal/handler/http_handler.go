package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/onemedia/broadcast-service/internal/domain"
	"github.com/onemedia/broadcast-service/internal/service"
)

// HTTPHandler exposes the public read API. Match data and occupancy are
// viewer-facing; nothing here mutates state.
type HTTPHandler struct {
	service service.BroadcastService
}

func NewHTTPHandler(svc service.BroadcastService) *HTTPHandler {
	return &HTTPHandler{
		service: svc,
	}
}

// MatchListResponse is the API response for the schedule listing.
type MatchListResponse struct {
	Matches []domain.Match `json:"matches"`
	Total   int            `json:"total"`
}

// GetMatches handles GET /api/v1/matches
func (h *HTTPHandler) GetMatches(w http.ResponseWriter, r *http.Request) {
	matches := h.service.Matches()

	response := MatchListResponse{
		Matches: matches,
		Total:   len(matches),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// GetMatch handles GET /api/v1/matches/{id}
// An unoccupied slot is a 404, never a server fault.
func (h *HTTPHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.Atoi(vars["id"])
	if err != nil {
		http.Error(w, "id must be an integer", http.StatusBadRequest)
		return
	}

	match, ok := h.service.MatchByID(id)
	if !ok {
		http.Error(w, "no match scheduled", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(match)
}

// StatsResponse is the public occupancy view. Visitor counts and display
// state are admin data and stay on the websocket admin group.
type StatsResponse struct {
	Channels      map[string]int `json:"channels"`
	Matches       []domain.Match `json:"matches"`
	MatchCapacity int            `json:"match_capacity"`
}

// GetStats handles GET /api/v1/stats
func (h *HTTPHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := h.service.Stats()

	response := StatsResponse{
		Channels:      stats.Channels,
		Matches:       stats.Matches,
		MatchCapacity: stats.MatchCapacity,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// HealthCheck handles GET /health
func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// RegisterRoutes attaches the read API to the router.
func (h *HTTPHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/matches", h.GetMatches).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/matches/{id}", h.GetMatch).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/stats", h.GetStats).Methods(http.MethodGet)
}
