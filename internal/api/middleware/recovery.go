package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/PxPatel/crossing-engine/internal/api/logger"
	"github.com/PxPatel/crossing-engine/internal/api/models"
)

// Recovery turns a handler panic into a 500 response. Installed inside the
// router, the log line names the order being handled.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				fields := requestFields(r)
				fields["error"] = fmt.Sprintf("%v", err)
				fields["stacktrace"] = string(debug.Stack())
				logger.Error("Panic recovered", fields)

				// Return 500 error response
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)

				response := models.BaseResponse{
					Success:   false,
					Timestamp: time.Now().UTC(),
					Message:   "Internal server error",
					Error: &models.APIError{
						Code:    models.ErrInternalError,
						Message: "An unexpected error occurred",
					},
				}

				json.NewEncoder(w).Encode(response)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
