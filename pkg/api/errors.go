package api

import (
	"net/http"

	"github.com/platinummonkey/dataspace/pkg/httputil"
	"github.com/platinummonkey/dataspace/pkg/orgs"
	"github.com/platinummonkey/dataspace/pkg/propagation"
)

// writeServiceError maps the tenancy service's typed errors onto HTTP status
// codes. Unknown errors become 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case orgs.IsValidation(err):
		httputil.WriteValidationError(w, err.Error())
	case orgs.IsAuthorization(err):
		httputil.WriteForbidden(w, err.Error())
	case orgs.IsNotFound(err):
		httputil.WriteNotFoundError(w, err.Error())
	case orgs.IsConflict(err):
		httputil.WriteConflict(w, err.Error())
	default:
		if _, ok := propagation.AsAdapterError(err); ok {
			httputil.WriteBadGateway(w, err.Error())
			return
		}
		httputil.WriteInternalError(w, err)
	}
}

// writePartialPropagation reports a mutation whose entity persisted but whose
// downstream propagation stopped early. The entity rides along so the caller
// can see its sync status.
func writePartialPropagation(w http.ResponseWriter, entity interface{}, err error) {
	httputil.WriteJSON(w, http.StatusBadGateway, map[string]interface{}{
		"error":  err.Error(),
		"entity": entity,
	})
}
