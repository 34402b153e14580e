package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/webgraphe/phollow/internal/ledger"
	"github.com/webgraphe/phollow/internal/runtime"
	docsvc "github.com/webgraphe/phollow/internal/services/documents"
)

// DocumentsController serves the document pull surface: listing, lookup,
// the aggregate meta view, and session forgetting.
type DocumentsController struct {
	rt  *runtime.Runtime
	svc *docsvc.Service
}

// NewDocumentsController creates a new documents controller.
func NewDocumentsController(rt *runtime.Runtime, svc *docsvc.Service) *DocumentsController {
	return &DocumentsController{rt: rt, svc: svc}
}

// RegisterRoutes registers document routes with the given mux.
func (c *DocumentsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/data/meta", c.handleMeta)
	mux.HandleFunc("/data/documents", c.handleList)
	mux.HandleFunc("/data/documents/", c.handleGet)
	mux.HandleFunc("/data/scripts/", c.handleForget)
}

// handleMeta returns the aggregate counters and session views.
func (c *DocumentsController) handleMeta(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	writeJSON(w, c.svc.Meta())
}

// handleList returns held documents in acceptance order. Supports ?filter=
// (CEL) and ?limit= query parameters.
func (c *DocumentsController) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	docs, err := c.svc.ListDocuments(docsvc.ListOptions{
		Filter: r.URL.Query().Get("filter"),
		Limit:  parseLimit(r.URL.Query().Get("limit")),
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, map[string]any{"documents": docs, "count": len(docs)})
}

// handleGet returns one document by identifier.
func (c *DocumentsController) handleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	idStr := strings.TrimPrefix(r.URL.Path, "/data/documents/")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid document id")
		return
	}
	env, ok := c.svc.GetDocument(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Document not found")
		return
	}
	writeJSON(w, env)
}

// handleForget drops the documents of a terminated session.
func (c *DocumentsController) handleForget(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	sessionID := strings.TrimPrefix(r.URL.Path, "/data/scripts/")
	if sessionID == "" || strings.Contains(sessionID, "/") {
		writeError(w, http.StatusBadRequest, "Invalid session id")
		return
	}
	removed, err := c.svc.ForgetSession(sessionID)
	switch {
	case errors.Is(err, ledger.ErrUnknownSession):
		writeError(w, http.StatusNotFound, "Unknown session")
		return
	case errors.Is(err, ledger.ErrSessionActive):
		writeError(w, http.StatusConflict, "Session still active")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to forget session")
		return
	}
	writeJSON(w, map[string]any{"session": sessionID, "removed": removed})
}
