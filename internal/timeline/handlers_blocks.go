package timeline

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListBlocks(w http.ResponseWriter, r *http.Request) {
	blocks, err := listBlocks(r.Context(), s.store, chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, "list blocks", err)
		return
	}

	// The channel total is the sum of durations, whatever the stored offsets.
	var total float64
	for _, b := range blocks {
		total += b.Duration
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"blocks":        blocks,
		"totalDuration": total,
		"totalLabel":    FormatClock(total),
	})
}

func (s *Server) handleAddBlock(w http.ResponseWriter, r *http.Request) {
	var body struct {
		BlockCode  int     `json:"blockCode"`
		Name       string  `json:"name"`
		Duration   float64 `json:"duration"`
		ResourceID *string `json:"resourceId"`
		SceneID    *string `json:"sceneId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	b, layout, err := addBlock(r.Context(), s.store, s.rdb, chi.URLParam(r, "id"), NewBlock{
		BlockCode:  body.BlockCode,
		Name:       body.Name,
		Duration:   body.Duration,
		ResourceID: body.ResourceID,
		SceneID:    body.SceneID,
	})
	if err != nil {
		writeStoreError(w, "add block", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"block":  b,
		"layout": layout,
	})
}

// handleReorderBlocks takes the channel's blocks in their new visual order
// and lays them back to back.
func (s *Server) handleReorderBlocks(w http.ResponseWriter, r *http.Request) {
	var body struct {
		BlockIDs []string `json:"blockIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.BlockIDs == nil {
		writeError(w, http.StatusBadRequest, "blockIds is required")
		return
	}

	layout, err := reorderBlocks(r.Context(), s.store, s.rdb, chi.URLParam(r, "id"), body.BlockIDs)
	if err != nil {
		writeStoreError(w, "reorder blocks", err)
		return
	}
	writeJSON(w, http.StatusOK, layout)
}

func (s *Server) handleDeleteBlock(w http.ResponseWriter, r *http.Request) {
	layout, err := deleteBlock(r.Context(), s.store, s.rdb, chi.URLParam(r, "id"), chi.URLParam(r, "blockId"))
	if err != nil {
		writeStoreError(w, "delete block", err)
		return
	}
	writeJSON(w, http.StatusOK, layout)
}

func (s *Server) handleSetBlockDuration(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Duration *float64 `json:"duration"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.Duration == nil {
		writeError(w, http.StatusBadRequest, "duration is required")
		return
	}

	layout, err := setBlockDuration(r.Context(), s.store, s.rdb, chi.URLParam(r, "id"), *body.Duration)
	if err != nil {
		writeStoreError(w, "set block duration", err)
		return
	}
	writeJSON(w, http.StatusOK, layout)
}

func (s *Server) handleTotalDuration(w http.ResponseWriter, r *http.Request) {
	var body struct {
		BlockIDs []string `json:"blockIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	total, err := totalDurationOf(r.Context(), s.store, body.BlockIDs)
	if err != nil {
		writeStoreError(w, "total duration", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"totalDuration": total,
		"totalLabel":    FormatClock(total),
	})
}
