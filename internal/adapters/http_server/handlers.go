// internal/adapters/http_server/handlers.go
package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"reviewhub/internal/app"
	"reviewhub/internal/domain"
	"reviewhub/internal/platform"
)

type Handlers struct {
	Q   *app.QueryService
	S   *app.SyncService
	Reg *platform.Registry
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/platforms", h.listPlatforms)
	s.mux.Get("/v1/platforms/yelp/businesses", h.searchYelpBusinesses)
	s.mux.Get("/v1/platforms/{name}/pages", h.listPages)
	s.mux.Post("/v1/locations/{id}/platforms/{name}/sync", h.syncPlatform)
	s.mux.Get("/v1/connections/{id}/reviews", h.listReviews)
	s.mux.Get("/v1/connections/{id}/sync-logs", h.listSyncLogs)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// ---- platform catalog ----

type platformDTO struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Status      string `json:"status"`
}

func (h *Handlers) listPlatforms(w http.ResponseWriter, r *http.Request) {
	var descs []platform.Descriptor
	if r.URL.Query().Get("status") == "active" {
		descs = h.Reg.Active()
	} else {
		descs = h.Reg.All()
	}
	out := make([]platformDTO, 0, len(descs))
	for _, d := range descs {
		out = append(out, platformDTO{Name: d.Name, DisplayName: d.DisplayName, Status: d.Status})
	}
	writeJSON(w, http.StatusOK, out)
}

// ---- page discovery ----

type pageDTO struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	PictureURL *string           `json:"pictureUrl,omitempty"`
	PageURL    *string           `json:"pageUrl,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

func pageDTOs(pages []domain.PlatformPage) []pageDTO {
	out := make([]pageDTO, 0, len(pages))
	for _, p := range pages {
		out = append(out, pageDTO{ID: p.ID, Name: p.Name, PictureURL: p.PictureURL, PageURL: p.PageURL, Metadata: p.Metadata})
	}
	return out
}

func (h *Handlers) listPages(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	provider, err := h.Reg.Provider(name)
	if err != nil {
		writeProblem(w, http.StatusServiceUnavailable, "Platform Unavailable", err.Error())
		return
	}
	if provider == nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "unknown platform "+name)
		return
	}
	token := bearerToken(r)
	if token == "" {
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "platform access token required")
		return
	}
	pages, err := provider.GetUserPages(r.Context(), token)
	if err != nil {
		writeProblem(w, http.StatusBadGateway, "Upstream Error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, pageDTOs(pages))
}

// businessSearcher is the side door for platforms without an authenticated
// "list my pages" call.
type businessSearcher interface {
	SearchBusinesses(ctx context.Context, name, location string) ([]domain.PlatformPage, error)
}

func (h *Handlers) searchYelpBusinesses(w http.ResponseWriter, r *http.Request) {
	provider, err := h.Reg.Provider("yelp")
	if err != nil {
		writeProblem(w, http.StatusServiceUnavailable, "Platform Unavailable", err.Error())
		return
	}
	searcher, ok := provider.(businessSearcher)
	if !ok {
		writeProblem(w, http.StatusNotFound, "Not Found", "business search is not supported")
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid request", "name query parameter is required")
		return
	}
	pages, err := searcher.SearchBusinesses(r.Context(), name, r.URL.Query().Get("location"))
	if err != nil {
		writeProblem(w, http.StatusBadGateway, "Upstream Error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, pageDTOs(pages))
}

// ---- sync trigger ----

type syncRequestDTO struct {
	PageID      string     `json:"pageId"`
	PageURL     string     `json:"pageUrl"`
	AccessToken string     `json:"accessToken"`
	AuthCode    string     `json:"authCode"`
	RedirectURI string     `json:"redirectUri"`
	UserToken   string     `json:"userToken"`
	PlaceID     string     `json:"placeId"`
	PostedAfter *time.Time `json:"postedAfter"`
}

func (h *Handlers) syncPlatform(w http.ResponseWriter, r *http.Request) {
	locationID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "location id must be a number")
		return
	}
	var body syncRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", err.Error())
		return
	}
	if body.PageID == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "pageId is required")
		return
	}

	res := h.S.Sync(r.Context(), app.SyncRequest{
		LocationID:  locationID,
		Platform:    chi.URLParam(r, "name"),
		PageID:      body.PageID,
		PageURL:     body.PageURL,
		AccessToken: body.AccessToken,
		AuthCode:    body.AuthCode,
		RedirectURI: body.RedirectURI,
		UserToken:   body.UserToken,
		PlaceID:     body.PlaceID,
		PostedAfter: body.PostedAfter,
	})

	status := http.StatusOK
	if !res.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, res)
}

// ---- reads ----

type reviewDTO struct {
	ID           int64      `json:"id"`
	ExternalID   string     `json:"externalId"`
	AuthorName   string     `json:"authorName"`
	AuthorAvatar *string    `json:"authorAvatar,omitempty"`
	Rating       float64    `json:"rating"`
	Content      string     `json:"content"`
	Title        *string    `json:"title,omitempty"`
	PublishedAt  time.Time  `json:"publishedAt"`
	ReplyContent *string    `json:"replyContent,omitempty"`
	ReplyAt      *time.Time `json:"replyAt,omitempty"`
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "connection id must be a number")
		return
	}

	limit := 50
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 200 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 200")
			return
		}
		limit = l
	}

	// Newest first; aligns with the index on (platform_connection_id, published_at, id)
	page := domain.PageQuery{Limit: limit, Sort: "-published_at"}
	out, err := h.Q.ListReviews(r.Context(), id, page)
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "reviews not found")
		return
	}

	dtos := make([]reviewDTO, 0, len(out.Items))
	for _, rv := range out.Items {
		dtos = append(dtos, reviewDTO{
			ID:           rv.ID,
			ExternalID:   rv.ExternalID,
			AuthorName:   rv.AuthorName,
			AuthorAvatar: rv.AuthorAvatar,
			Rating:       rv.Rating,
			Content:      rv.Content,
			Title:        rv.Title,
			PublishedAt:  rv.PublishedAt,
			ReplyContent: rv.ReplyContent,
			ReplyAt:      rv.ReplyAt,
		})
	}

	etag, body := calcETagAndBody(dtos)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write listReviews body")
	}
}

type syncLogDTO struct {
	ID             int64     `json:"id"`
	ReviewsFetched int       `json:"reviewsFetched"`
	ReviewsNew     int       `json:"reviewsNew"`
	ReviewsUpdated int       `json:"reviewsUpdated"`
	ErrorMessage   *string   `json:"errorMessage,omitempty"`
	Status         string    `json:"status"`
	StartedAt      time.Time `json:"startedAt"`
	CompletedAt    time.Time `json:"completedAt"`
}

func (h *Handlers) listSyncLogs(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "connection id must be a number")
		return
	}
	limit := 20
	if ls := r.URL.Query().Get("limit"); ls != "" {
		if l, err := strconv.Atoi(ls); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}
	logs, err := h.Q.ListSyncLogs(r.Context(), id, limit)
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "sync logs not found")
		return
	}
	out := make([]syncLogDTO, 0, len(logs))
	for _, sl := range logs {
		out = append(out, syncLogDTO{
			ID:             sl.ID,
			ReviewsFetched: sl.ReviewsFetched,
			ReviewsNew:     sl.ReviewsNew,
			ReviewsUpdated: sl.ReviewsUpdated,
			ErrorMessage:   sl.ErrorMessage,
			Status:         sl.Status,
			StartedAt:      sl.StartedAt,
			CompletedAt:    sl.CompletedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
