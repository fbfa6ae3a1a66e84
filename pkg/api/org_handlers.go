package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/dataspace/pkg/auth"
	"github.com/platinummonkey/dataspace/pkg/httputil"
	"github.com/platinummonkey/dataspace/pkg/middleware"
	"github.com/platinummonkey/dataspace/pkg/tenancy"
)

// OrgHandlers handles organization-related HTTP requests
type OrgHandlers struct {
	tenancy *tenancy.Service
}

// NewOrgHandlers creates a new OrgHandlers
func NewOrgHandlers(service *tenancy.Service) *OrgHandlers {
	return &OrgHandlers{
		tenancy: service,
	}
}

// RegisterRoutes registers organization routes
func (h *OrgHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/organization/", h.CreateOrganization).Methods("POST")
	router.HandleFunc("/organization/", h.ListOrganizations).Methods("GET")
	router.HandleFunc("/organization/{name}", h.GetOrganization).Methods("GET")
	router.HandleFunc("/organization/{name}", h.UpdateOrganization).Methods("PUT")
	router.HandleFunc("/organization/{name}", h.DeleteOrganization).Methods("DELETE")
	router.HandleFunc("/organization/{name}/resync", h.ResyncOrganization).Methods("POST")
}

// viewOrUnauthorized pulls the caller's access view off the request, writing
// a 401 when the auth middleware did not establish one.
func viewOrUnauthorized(w http.ResponseWriter, r *http.Request) (auth.AccessView, bool) {
	view, ok := middleware.GetAccessView(r)
	if !ok {
		httputil.WriteUnauthorized(w, "authentication required")
	}
	return view, ok
}

// permissionLevel resolves the ?permission= query parameter for list
// endpoints, defaulting to get.
func permissionLevel(w http.ResponseWriter, r *http.Request) (auth.PermissionLevel, bool) {
	raw := httputil.ParseQueryString(r, "permission", string(auth.LevelGet))
	level, ok := auth.ParsePermissionLevel(raw)
	if !ok {
		httputil.WriteValidationError(w, "unknown permission level: "+raw)
		return "", false
	}
	return level, true
}

// CreateOrganization creates a new organization and drives downstream
// propagation
func (h *OrgHandlers) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	view, ok := viewOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req tenancy.CreateOrganizationRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	org, err := h.tenancy.CreateOrganization(r.Context(), view, req)
	if err != nil {
		if org != nil {
			writePartialPropagation(w, org, err)
			return
		}
		writeServiceError(w, err)
		return
	}

	httputil.WriteCreated(w, org)
}

// ListOrganizations lists the organizations the caller may see at the
// requested permission level
func (h *OrgHandlers) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	view, ok := viewOrUnauthorized(w, r)
	if !ok {
		return
	}

	level, ok := permissionLevel(w, r)
	if !ok {
		return
	}

	result, err := h.tenancy.ListOrganizations(r.Context(), view, level)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httputil.WriteSuccess(w, result)
}

// GetOrganization retrieves an organization by name
func (h *OrgHandlers) GetOrganization(w http.ResponseWriter, r *http.Request) {
	view, ok := viewOrUnauthorized(w, r)
	if !ok {
		return
	}

	name, ok := httputil.ParsePathStringOrError(w, r, "name")
	if !ok {
		return
	}

	org, err := h.tenancy.GetOrganization(r.Context(), view, name)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httputil.WriteSuccess(w, org)
}

// UpdateOrganization updates an organization's mutable fields
func (h *OrgHandlers) UpdateOrganization(w http.ResponseWriter, r *http.Request) {
	view, ok := viewOrUnauthorized(w, r)
	if !ok {
		return
	}

	name, ok := httputil.ParsePathStringOrError(w, r, "name")
	if !ok {
		return
	}

	var req tenancy.UpdateOrganizationRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	org, err := h.tenancy.UpdateOrganization(r.Context(), view, name, req)
	if err != nil {
		if org != nil {
			writePartialPropagation(w, org, err)
			return
		}
		writeServiceError(w, err)
		return
	}

	httputil.WriteSuccess(w, org)
}

// DeleteOrganization deletes an organization and cascades to its spaces
func (h *OrgHandlers) DeleteOrganization(w http.ResponseWriter, r *http.Request) {
	view, ok := viewOrUnauthorized(w, r)
	if !ok {
		return
	}

	name, ok := httputil.ParsePathStringOrError(w, r, "name")
	if !ok {
		return
	}

	if err := h.tenancy.DeleteOrganization(r.Context(), view, name); err != nil {
		writeServiceError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}

// ResyncOrganization re-drives downstream propagation for an organization
// left partially propagated
func (h *OrgHandlers) ResyncOrganization(w http.ResponseWriter, r *http.Request) {
	view, ok := viewOrUnauthorized(w, r)
	if !ok {
		return
	}

	name, ok := httputil.ParsePathStringOrError(w, r, "name")
	if !ok {
		return
	}

	if err := h.tenancy.Resync(r.Context(), view, name); err != nil {
		writeServiceError(w, err)
		return
	}

	httputil.WriteSuccess(w, map[string]string{"status": "resynced"})
}
