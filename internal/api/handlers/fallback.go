package handlers

import (
	"net/http"

	"github.com/PxPatel/crossing-engine/internal/api/models"
)

// NotFoundHandler answers requests that match no route
func NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	writeErrorResponse(w, models.NewHTTPError(http.StatusNotFound, models.ErrRouteNotFound,
		"No route for "+r.URL.Path, nil))
}

// MethodNotAllowedHandler answers requests whose path exists under another method
func MethodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	writeErrorResponse(w, models.NewHTTPError(http.StatusMethodNotAllowed, models.ErrMethodNotAllowed,
		r.Method+" is not supported on "+r.URL.Path, nil))
}
