package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/PxPatel/crossing-engine/internal/api/handlers"
	"github.com/PxPatel/crossing-engine/internal/api/middleware"
)

// SetupRoutes configures all API routes with middleware
func SetupRoutes(engineHolder *handlers.EngineHolder, allowedOrigins []string) http.Handler {
	router := mux.NewRouter()
	router.Use(middleware.Logging, middleware.Recovery)
	// mux skips router middleware for unmatched requests
	router.NotFoundHandler = middleware.Logging(http.HandlerFunc(handlers.NotFoundHandler))
	router.MethodNotAllowedHandler = middleware.Logging(http.HandlerFunc(handlers.MethodNotAllowedHandler))

	api := router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", handlers.HealthHandler).Methods(http.MethodGet)

	// Order endpoints
	api.HandleFunc("/orders", engineHolder.SubmitOrderHandler).Methods(http.MethodPost)
	api.HandleFunc("/orders", engineHolder.GetAllOrdersHandler).Methods(http.MethodGet)
	api.HandleFunc("/orders", engineHolder.CancelOrderHandler).Methods(http.MethodDelete)
	api.HandleFunc("/orders/select", engineHolder.SelectOrdersHandler).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}", engineHolder.GetOrderHandler).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}", engineHolder.CancelOrderHandler).Methods(http.MethodDelete)

	// Execution endpoints
	api.HandleFunc("/executions", engineHolder.GetExecutionsHandler).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "id", "fromDate", "toDate"},
	})

	// CORS -> router (Logging -> Recovery -> handler)
	return c.Handler(router)
}
