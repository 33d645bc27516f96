package timeline

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	store Store
	rdb   *redis.Client

	// authSecret verifies bearer tokens on mutations. Empty trusts X-User-Id.
	authSecret []byte
}

func NewServer(store Store, rdb *redis.Client) *Server {
	return &Server{
		store: store,
		rdb:   rdb,
	}
}

// WithAuthSecret makes mutations require an access token signed with secret.
func (s *Server) WithAuthSecret(secret []byte) *Server {
	s.authSecret = secret
	return s
}

func (s *Server) Router(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	for _, mw := range middlewares {
		r.Use(mw)
	}

	r.Get("/health", s.handleHealth)

	r.Get("/timelines/{id}", s.handleGetTimeline)
	r.Get("/timelines/{id}/storyline", s.handleStoryline)
	r.Get("/channels/{id}/blocks", s.handleListBlocks)
	r.Post("/blocks/duration", s.handleTotalDuration)

	r.Group(func(r chi.Router) {
		r.Use(requireUser(s.authSecret))

		r.Post("/timelines", s.handleCreateTimeline)
		r.Delete("/timelines/{id}", s.handleDeleteTimeline)
		r.Post("/timelines/{id}/channels", s.handleCreateChannel)

		r.Post("/channels/{id}/blocks", s.handleAddBlock)
		r.Put("/channels/{id}/order", s.handleReorderBlocks)
		r.Delete("/channels/{id}/blocks/{blockId}", s.handleDeleteBlock)
		r.Patch("/blocks/{id}", s.handleSetBlockDuration)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "timeline-service",
	})
}
