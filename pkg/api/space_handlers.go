package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/dataspace/pkg/httputil"
	"github.com/platinummonkey/dataspace/pkg/tenancy"
)

// SpaceHandlers handles space-related HTTP requests
type SpaceHandlers struct {
	tenancy *tenancy.Service
}

// NewSpaceHandlers creates a new SpaceHandlers
func NewSpaceHandlers(service *tenancy.Service) *SpaceHandlers {
	return &SpaceHandlers{
		tenancy: service,
	}
}

// RegisterRoutes registers space routes under their organization
func (h *SpaceHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/organization/{name}/space/", h.CreateSpace).Methods("POST")
	router.HandleFunc("/organization/{name}/space/", h.ListSpaces).Methods("GET")
	router.HandleFunc("/organization/{name}/space/{space}", h.GetSpace).Methods("GET")
	router.HandleFunc("/organization/{name}/space/{space}", h.UpdateSpace).Methods("PUT")
	router.HandleFunc("/organization/{name}/space/{space}", h.DeleteSpace).Methods("DELETE")
}

// CreateSpace creates a new space under an organization and drives
// downstream propagation
func (h *SpaceHandlers) CreateSpace(w http.ResponseWriter, r *http.Request) {
	view, ok := viewOrUnauthorized(w, r)
	if !ok {
		return
	}

	orgName, ok := httputil.ParsePathStringOrError(w, r, "name")
	if !ok {
		return
	}

	var req tenancy.CreateSpaceRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	space, err := h.tenancy.CreateSpace(r.Context(), view, orgName, req)
	if err != nil {
		if space != nil {
			writePartialPropagation(w, space, err)
			return
		}
		writeServiceError(w, err)
		return
	}

	httputil.WriteCreated(w, space)
}

// ListSpaces lists the spaces in an organization the caller may see at the
// requested permission level
func (h *SpaceHandlers) ListSpaces(w http.ResponseWriter, r *http.Request) {
	view, ok := viewOrUnauthorized(w, r)
	if !ok {
		return
	}

	orgName, ok := httputil.ParsePathStringOrError(w, r, "name")
	if !ok {
		return
	}

	level, ok := permissionLevel(w, r)
	if !ok {
		return
	}

	result, err := h.tenancy.ListSpaces(r.Context(), view, orgName, level)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httputil.WriteSuccess(w, result)
}

// GetSpace retrieves a space by name
func (h *SpaceHandlers) GetSpace(w http.ResponseWriter, r *http.Request) {
	view, ok := viewOrUnauthorized(w, r)
	if !ok {
		return
	}

	orgName, ok := httputil.ParsePathStringOrError(w, r, "name")
	if !ok {
		return
	}
	spaceName, ok := httputil.ParsePathStringOrError(w, r, "space")
	if !ok {
		return
	}

	space, err := h.tenancy.GetSpace(r.Context(), view, orgName, spaceName)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httputil.WriteSuccess(w, space)
}

// UpdateSpace updates a space's mutable fields
func (h *SpaceHandlers) UpdateSpace(w http.ResponseWriter, r *http.Request) {
	view, ok := viewOrUnauthorized(w, r)
	if !ok {
		return
	}

	orgName, ok := httputil.ParsePathStringOrError(w, r, "name")
	if !ok {
		return
	}
	spaceName, ok := httputil.ParsePathStringOrError(w, r, "space")
	if !ok {
		return
	}

	var req tenancy.UpdateSpaceRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	space, err := h.tenancy.UpdateSpace(r.Context(), view, orgName, spaceName, req)
	if err != nil {
		if space != nil {
			writePartialPropagation(w, space, err)
			return
		}
		writeServiceError(w, err)
		return
	}

	httputil.WriteSuccess(w, space)
}

// DeleteSpace deletes a space and tears down its downstream contexts
func (h *SpaceHandlers) DeleteSpace(w http.ResponseWriter, r *http.Request) {
	view, ok := viewOrUnauthorized(w, r)
	if !ok {
		return
	}

	orgName, ok := httputil.ParsePathStringOrError(w, r, "name")
	if !ok {
		return
	}
	spaceName, ok := httputil.ParsePathStringOrError(w, r, "space")
	if !ok {
		return
	}

	if err := h.tenancy.DeleteSpace(r.Context(), view, orgName, spaceName); err != nil {
		writeServiceError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}
