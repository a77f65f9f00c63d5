package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/kiln/internal/apperr"
	"github.com/starford/kiln/internal/docservice"
	"github.com/starford/kiln/internal/index"
	"github.com/starford/kiln/internal/logfields"
	"github.com/starford/kiln/internal/models"
)

const maxPageSize = 500

// Handler holds API route handlers.
type Handler struct {
	svc *docservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *docservice.Service) *Handler {
	return &Handler{svc: svc}
}

// documentPath extracts the document path from the URL (everything after
// /api/documents/). Supports encoded slashes (e.g. posts%2Fhello.md).
func documentPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// page reads limit and offset, clamping limit to maxPageSize.
func page(r *http.Request) (limit, offset int) {
	q := r.URL.Query()
	limit, _ = strconv.Atoi(q.Get("limit"))
	offset, _ = strconv.Atoi(q.Get("offset"))
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	return limit, max(offset, 0)
}

// ListDocuments handles GET /api/documents.
//
//	@Summary		List built documents with optional group filter
//	@Tags			documents
//	@Produce		json
//	@Param			limit		query		int		false	"Page size"
//	@Param			offset		query		int		false	"Page offset"
//	@Param			tag			query		string	false	"Only members of this collection"
//	@Param			taxonomy	query		string	false	"Only members of this taxonomy"
//	@Success		200			{object}	DocumentListResponse
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := page(r)
	f := index.Filter{Limit: limit, Offset: offset}

	tag, taxonomy := q.Get("tag"), q.Get("taxonomy")
	switch {
	case tag != "" && taxonomy != "":
		writeJSON(w, http.StatusBadRequest, errorBody("tag and taxonomy are mutually exclusive"))
		return
	case tag != "":
		f.Kind, f.Name = models.GroupCollection, tag
	case taxonomy != "":
		f.Kind, f.Name = models.GroupTaxonomy, taxonomy
	}

	docs, total, err := h.svc.ListDocuments(r.Context(), f)
	if err != nil {
		slog.Error("list documents failed", logfields.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: docs, Total: total})
}

// GetDocument handles GET /api/documents/*.
//
//	@Summary		Get one document with a live parse of its metadata
//	@Tags			documents
//	@Produce		json
//	@Param			path	path		string	true	"Document path"
//	@Success		200		{object}	DocumentDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{path} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	path := documentPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	doc, err := h.svc.GetDocument(r.Context(), path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get document failed", logfields.Path(path), logfields.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// ListCollections handles GET /api/collections.
//
//	@Summary		List collections (declared tags)
//	@Tags			groups
//	@Produce		json
//	@Success		200	{object}	GroupListResponse
//	@Security		BearerAuth
//	@Router			/collections [get]
func (h *Handler) ListCollections(w http.ResponseWriter, r *http.Request) {
	h.listGroups(w, r, models.GroupCollection)
}

// ListTaxonomies handles GET /api/taxonomies.
//
//	@Summary		List taxonomies (directory segments)
//	@Tags			groups
//	@Produce		json
//	@Success		200	{object}	GroupListResponse
//	@Security		BearerAuth
//	@Router			/taxonomies [get]
func (h *Handler) ListTaxonomies(w http.ResponseWriter, r *http.Request) {
	h.listGroups(w, r, models.GroupTaxonomy)
}

func (h *Handler) listGroups(w http.ResponseWriter, r *http.Request, kind string) {
	groups, err := h.svc.Groups(r.Context(), kind)
	if err != nil {
		slog.Error("list groups failed", slog.String("kind", kind), logfields.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, GroupListResponse{Groups: groups})
}

// GetCollection handles GET /api/collections/{name}.
//
//	@Summary		Get the members of one collection
//	@Tags			groups
//	@Produce		json
//	@Param			name	path		string	true	"Collection name"
//	@Success		200		{object}	GroupResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/collections/{name} [get]
func (h *Handler) GetCollection(w http.ResponseWriter, r *http.Request) {
	h.getGroup(w, r, models.GroupCollection)
}

// GetTaxonomy handles GET /api/taxonomies/{name}.
//
//	@Summary		Get the members of one taxonomy
//	@Tags			groups
//	@Produce		json
//	@Param			name	path		string	true	"Taxonomy name"
//	@Success		200		{object}	GroupResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/taxonomies/{name} [get]
func (h *Handler) GetTaxonomy(w http.ResponseWriter, r *http.Request) {
	h.getGroup(w, r, models.GroupTaxonomy)
}

func (h *Handler) getGroup(w http.ResponseWriter, r *http.Request, kind string) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil || name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid name"))
		return
	}
	limit, offset := page(r)
	docs, total, err := h.svc.Group(r.Context(), kind, name, limit, offset)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get group failed", slog.String("kind", kind), slog.String("name", name), logfields.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, GroupResponse{Kind: kind, Name: name, Documents: docs, Total: total})
}

// Build handles POST /api/build.
//
//	@Summary		Run a build now
//	@Tags			build
//	@Produce		json
//	@Success		200	{object}	BuildResponse
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/build [post]
func (h *Handler) Build(w http.ResponseWriter, r *http.Request) {
	rep, err := h.svc.Rebuild(context.WithoutCancel(r.Context()))
	if err != nil {
		if errors.Is(err, apperr.ErrBuildRunning) {
			writeJSON(w, http.StatusConflict, errorBody("build already running"))
		} else {
			slog.Error("build failed", logfields.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
