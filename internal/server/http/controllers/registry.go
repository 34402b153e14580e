package controllers

import (
	"net/http"

	"github.com/webgraphe/phollow/internal/runtime"
	docsvc "github.com/webgraphe/phollow/internal/services/documents"
)

// ControllerRegistry manages all HTTP controllers.
type ControllerRegistry struct {
	general   *GeneralController
	documents *DocumentsController
}

// NewControllerRegistry creates a new controller registry.
func NewControllerRegistry(rt *runtime.Runtime, svc *docsvc.Service) *ControllerRegistry {
	return &ControllerRegistry{
		general:   NewGeneralController(rt),
		documents: NewDocumentsController(rt, svc),
	}
}

// RegisterAllRoutes registers all controller routes with the given mux.
func (r *ControllerRegistry) RegisterAllRoutes(mux *http.ServeMux) {
	r.general.RegisterRoutes(mux)
	r.documents.RegisterRoutes(mux)
}
