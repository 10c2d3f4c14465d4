package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gabipgz/haras-project/internal/asset"
	"github.com/gabipgz/haras-project/internal/assetservice"
	"github.com/gabipgz/haras-project/internal/contentstore"
	"github.com/gabipgz/haras-project/internal/mirror"
	"github.com/gabipgz/haras-project/internal/registry"
)

// OperatorSession is the slice of the ledger session the API needs.
type OperatorSession interface {
	SetOperator(accountRef, privateKey string) error
	Clear()
	Active() bool
	Operator() string
}

// Handler holds the API route handlers.
type Handler struct {
	assets  *assetservice.Service
	session OperatorSession
	media   contentstore.Store
	cache   *registry.DB   // may be nil
	mirror  *mirror.Client // may be nil
}

// NewHandler creates a Handler. cache and mirrorClient are optional.
func NewHandler(assets *assetservice.Service, session OperatorSession,
	media contentstore.Store, cache *registry.DB, mirrorClient *mirror.Client) *Handler {
	return &Handler{
		assets:  assets,
		session: session,
		media:   media,
		cache:   cache,
		mirror:  mirrorClient,
	}
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := body.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if err := h.session.SetOperator(body.AccountID, body.PrivateKey); err != nil {
		writeError(w, "login", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "credentials set successfully"})
}

// Logout handles POST /auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, _ *http.Request) {
	h.session.Clear()
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out successfully"})
}

// AuthStatus handles GET /auth/status.
func (h *Handler) AuthStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"active":   h.session.Active(),
		"operator": h.session.Operator(),
	})
}

// CreateCollection handles POST /collections.
func (h *Handler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var body CreateCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := body.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	info, err := h.assets.CreateClass(r.Context(), body.Name, body.Symbol, body.Description)
	if err != nil {
		writeError(w, "create collection", err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

// ListCollections handles GET /collections. Locally created
// collections come from the registry cache; when an operator is active
// the mirror node adds anything else the wallet holds.
func (h *Handler) ListCollections(w http.ResponseWriter, r *http.Request) {
	seen := make(map[string]bool)
	out := []registry.Collection{}

	if h.cache != nil {
		cached, err := h.cache.ListCollections()
		if err != nil {
			writeError(w, "list collections", err)
			return
		}
		for _, c := range cached {
			seen[c.TokenID] = true
			out = append(out, c)
		}
	}

	if h.mirror != nil && h.session.Active() {
		tokens, err := h.mirror.AccountTokens(r.Context(), h.session.Operator())
		if err != nil {
			// Discovery is best-effort; the cached list still stands.
			slog.Warn("mirror discovery failed", slog.String("error", err.Error()))
		}
		for _, t := range tokens {
			if seen[t.TokenID] {
				continue
			}
			info, err := h.assets.GetClass(r.Context(), t.TokenID)
			if err != nil {
				slog.Warn("skipping undescribable collection",
					slog.String("token_id", t.TokenID),
					slog.String("error", err.Error()))
				continue
			}
			out = append(out, registry.Collection{
				TokenID: info.TokenID,
				Name:    info.Name,
				Symbol:  info.Symbol,
				Memo:    info.Memo,
			})
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"collections": out})
}

// GetCollection handles GET /collections/{collectionID}.
func (h *Handler) GetCollection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "collectionID")
	info, err := h.assets.GetClass(r.Context(), id)
	if err != nil {
		writeError(w, "get collection", err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// ListCollectionAssets handles GET /collections/{collectionID}/assets.
func (h *Handler) ListCollectionAssets(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "collectionID")
	records, err := h.assets.ListUnits(r.Context(), id)
	if err != nil {
		writeError(w, "list collection assets", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"assets": records})
}

// CreateAsset handles POST /collections/{collectionID}/assets.
func (h *Handler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	id := chi.URLParam(r, "collectionID")

	var body CreateAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := body.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	identity, err := h.assets.CreateAsset(r.Context(), id, body.Metadata)
	if err != nil {
		writeError(w, "create asset", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"identity": identity.String()})
}

// GetAsset handles GET /assets/{identity}.
func (h *Handler) GetAsset(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")
	record, err := h.assets.GetRecord(r.Context(), identity)
	if err != nil {
		writeError(w, "get asset", err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// AppendEvent handles POST /assets/{identity}/events.
func (h *Handler) AppendEvent(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")

	var body AppendEventRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := body.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	ev := asset.Event{
		Name:        body.Name,
		Description: body.Description,
		Timestamp:   body.Timestamp,
		EventType:   body.EventType,
		Data:        body.Data,
	}
	if err := h.assets.AppendEvent(r.Context(), identity, ev); err != nil {
		writeError(w, "append event", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "event appended"})
}

// GetAssetHistory handles GET /assets/{identity}/history.
func (h *Handler) GetAssetHistory(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")
	record, err := h.assets.GetRecord(r.Context(), identity)
	if err != nil {
		writeError(w, "get asset history", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": record.Events})
}

// UploadMedia handles POST /media (multipart, field "files").
func (h *Handler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid multipart body"))
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("no files in request"))
		return
	}

	handles := make([]string, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("unreadable file "+fh.Filename))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("unreadable file "+fh.Filename))
			return
		}
		handle, err := h.media.Put(r.Context(), data)
		if err != nil {
			writeError(w, "upload media", err)
			return
		}
		handles = append(handles, handle)
	}
	writeJSON(w, http.StatusCreated, MediaUploadResponse{Handles: handles})
}

// GetMedia handles GET /media/{handle}.
func (h *Handler) GetMedia(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")
	data, err := h.media.Get(r.Context(), handle)
	if err != nil {
		writeError(w, "get media", err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
