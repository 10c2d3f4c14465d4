package api

import (
	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether the static Bearer token is enforced.
func NewRouter(h *Handler, authEnabled bool, token string) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Operator identity.
	r.Post("/auth/login", h.Login)
	r.Post("/auth/logout", h.Logout)
	r.Get("/auth/status", h.AuthStatus)

	// Collections (token classes).
	r.Route("/collections", func(r chi.Router) {
		r.Post("/", h.CreateCollection)
		r.Get("/", h.ListCollections)
		r.Get("/{collectionID}", h.GetCollection)
		r.Get("/{collectionID}/assets", h.ListCollectionAssets)
		r.Post("/{collectionID}/assets", h.CreateAsset)
	})

	// Assets (minted units).
	r.Route("/assets", func(r chi.Router) {
		r.Get("/{identity}", h.GetAsset)
		r.Post("/{identity}/events", h.AppendEvent)
		r.Get("/{identity}/history", h.GetAssetHistory)
	})

	// Media blobs.
	r.Post("/media", h.UploadMedia)
	r.Get("/media/{handle}", h.GetMedia)

	return r
}
