package timeline

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

const defaultStorylineWidth = 1000

func (s *Server) handleCreateTimeline(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CampaignID string `json:"campaignId"`
		Name       string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	tl, err := createTimeline(r.Context(), s.store, s.rdb, body.CampaignID, body.Name)
	if err != nil {
		writeStoreError(w, "create timeline", err)
		return
	}
	writeJSON(w, http.StatusCreated, tl)
}

func (s *Server) handleGetTimeline(w http.ResponseWriter, r *http.Request) {
	tl, err := loadTimeline(r.Context(), s.store, chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, "get timeline", err)
		return
	}
	writeJSON(w, http.StatusOK, tl)
}

func (s *Server) handleDeleteTimeline(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := deleteTimeline(r.Context(), s.store, s.rdb, id); err != nil {
		writeStoreError(w, "delete timeline", err)
		return
	}
	userID, _ := userIDFromContext(r)
	log.Printf("timeline-service: timeline %s deleted by %s", id, userID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateChannel(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ch, err := createChannel(r.Context(), s.store, s.rdb, chi.URLParam(r, "id"), body.Name)
	if err != nil {
		writeStoreError(w, "create channel", err)
		return
	}
	writeJSON(w, http.StatusCreated, ch)
}

// handleStoryline lays the timeline out for a strip of ?width= pixels.
func (s *Server) handleStoryline(w http.ResponseWriter, r *http.Request) {
	width := float64(defaultStorylineWidth)
	if raw := r.URL.Query().Get("width"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || v > 100000 {
			writeError(w, http.StatusBadRequest, "width must be a number between 0 and 100000")
			return
		}
		width = v
	}

	sl, err := storyline(r.Context(), s.store, chi.URLParam(r, "id"), width)
	if err != nil {
		writeStoreError(w, "storyline", err)
		return
	}
	writeJSON(w, http.StatusOK, sl)
}
