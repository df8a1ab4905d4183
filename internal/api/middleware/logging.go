package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/PxPatel/crossing-engine/internal/api/logger"
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// requestFields describes a request for the log. It must run inside the
// router so the matched route and path variables are available.
func requestFields(r *http.Request) map[string]interface{} {
	fields := map[string]interface{}{
		"method": r.Method,
		"path":   r.URL.Path,
	}
	if route := mux.CurrentRoute(r); route != nil {
		if template, err := route.GetPathTemplate(); err == nil {
			fields["route"] = template
		}
	}
	if id := orderID(r); id != "" {
		fields["order_id"] = id
	}
	return fields
}

// orderID is the order a request targets: the {id} path variable, or the
// id header accepted by cancel
func orderID(r *http.Request) string {
	if id := mux.Vars(r)["id"]; id != "" {
		return id
	}
	if r.Method == http.MethodDelete {
		return r.Header.Get("id")
	}
	return ""
}

// Logging logs every request and its outcome. Install it with router.Use.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		incoming := requestFields(r)
		incoming["remote"] = r.RemoteAddr
		logger.Info("Incoming request", incoming)

		// Wrap response writer to capture status code
		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		completed := requestFields(r)
		completed["status"] = wrapped.statusCode
		completed["duration_ms"] = time.Since(start).Milliseconds()
		if wrapped.statusCode >= http.StatusInternalServerError {
			logger.Warn("Request completed with server error", completed)
			return
		}
		logger.Info("Request completed", completed)
	})
}
