package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/PxPatel/crossing-engine/internal/api/logger"
	"github.com/PxPatel/crossing-engine/internal/api/models"
	"github.com/PxPatel/crossing-engine/internal/identity"
	"github.com/PxPatel/crossing-engine/internal/matching"
	"github.com/PxPatel/crossing-engine/internal/types"
	"github.com/PxPatel/crossing-engine/internal/validation"
)

// Limits bounds list endpoints
type Limits struct {
	DefaultExecutions int
	MaxExecutions     int
}

// EngineHolder wraps the matching engine and its collaborators for dependency injection
type EngineHolder struct {
	Engine    *matching.Engine
	Identity  *identity.Provider
	Validator *validation.Validator
	Limits    Limits
}

// NewEngineHolder creates a new engine holder
func NewEngineHolder(engine *matching.Engine, ids *identity.Provider, validator *validation.Validator, limits Limits) *EngineHolder {
	return &EngineHolder{
		Engine:    engine,
		Identity:  ids,
		Validator: validator,
		Limits:    limits,
	}
}

// writeErrorResponse writes an error response
func writeErrorResponse(w http.ResponseWriter, httpErr *models.HTTPError) {
	logger.Warn("Request failed", map[string]interface{}{
		"error_code": httpErr.Error.Code,
		"status":     httpErr.StatusCode,
	})

	writeJSON(w, httpErr.StatusCode, models.BaseResponse{
		Success:   false,
		Timestamp: time.Now().UTC(),
		Message:   httpErr.Error.Message,
		Error:     &httpErr.Error,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func ok() models.BaseResponse {
	return models.BaseResponse{Success: true, Timestamp: time.Now().UTC()}
}

func toDTOs(orders []*types.Order) []models.OrderDTO {
	dtos := make([]models.OrderDTO, len(orders))
	for i, order := range orders {
		dtos[i] = models.NewOrderDTO(order)
	}
	return dtos
}

// SubmitOrderHandler handles single order submission
func (eh *EngineHolder) SubmitOrderHandler(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitOrderRequest

	// Parse request body
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, models.ErrBadRequest("Invalid JSON format", map[string]interface{}{"error": err.Error()}))
		return
	}

	// Validate request
	if fieldErrors := eh.Validator.Validate(req.Fields()); len(fieldErrors) > 0 {
		writeErrorResponse(w, models.ErrValidation(fieldErrors))
		return
	}

	order, err := req.ToOrder()
	if err != nil {
		writeErrorResponse(w, models.FromError(err))
		return
	}
	order.Instrument = strings.ToUpper(strings.TrimSpace(order.Instrument))
	eh.Identity.Assign(order)

	result, err := eh.Engine.PlaceOrder(r.Context(), order)
	if err != nil {
		writeErrorResponse(w, models.FromError(err))
		return
	}
	if !result.Success {
		writeErrorResponse(w, models.ErrNoFillError(result.Message))
		return
	}

	response := models.SubmitOrderResponse{
		BaseResponse: ok(),
		OrderID:      order.ID,
	}
	response.Message = result.Message
	writeJSON(w, http.StatusOK, response)
}

// CancelOrderHandler handles order cancellation. The id comes from the path
// or, on the collection route, from an "id" header.
func (eh *EngineHolder) CancelOrderHandler(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["id"]
	if orderID == "" {
		orderID = strings.TrimSpace(r.Header.Get("id"))
	}
	if orderID == "" {
		writeErrorResponse(w, models.ErrBadRequest("Order id is required", map[string]interface{}{"field": "id"}))
		return
	}

	result, err := eh.Engine.CancelOrder(r.Context(), orderID)
	if err != nil {
		writeErrorResponse(w, models.FromError(err))
		return
	}
	if !result.Success {
		writeErrorResponse(w, models.ErrOrderNotFoundError(orderID))
		return
	}

	writeJSON(w, http.StatusOK, models.CancelOrderResponse{
		BaseResponse: ok(),
		OrderID:      orderID,
	})
}

// GetOrderHandler handles retrieving a single order
func (eh *EngineHolder) GetOrderHandler(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["id"]

	order, err := eh.Engine.GetOrder(r.Context(), orderID)
	if err != nil {
		writeErrorResponse(w, models.FromError(err))
		return
	}

	dto := models.NewOrderDTO(order)
	writeJSON(w, http.StatusOK, models.GetOrderResponse{
		BaseResponse: ok(),
		Order:        &dto,
	})
}

// GetAllOrdersHandler handles retrieving all open orders
func (eh *EngineHolder) GetAllOrdersHandler(w http.ResponseWriter, r *http.Request) {
	orders, err := eh.Engine.AllOpenOrders(r.Context())
	if err != nil {
		writeErrorResponse(w, models.FromError(err))
		return
	}

	logger.Debug("Retrieved orders", map[string]interface{}{
		"count": len(orders),
	})

	writeJSON(w, http.StatusOK, models.GetOrdersResponse{
		BaseResponse: ok(),
		Orders:       toDTOs(orders),
		Count:        len(orders),
	})
}

// SelectOrdersHandler returns open orders created in [fromDate, toDate).
// Both bounds are RFC3339 and may come from headers or the query string.
func (eh *EngineHolder) SelectOrdersHandler(w http.ResponseWriter, r *http.Request) {
	from, httpErr := dateParam(r, "fromDate")
	if httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}
	to, httpErr := dateParam(r, "toDate")
	if httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}

	orders, err := eh.Engine.OpenOrders(r.Context(), from, to)
	if err != nil {
		writeErrorResponse(w, models.FromError(err))
		return
	}

	writeJSON(w, http.StatusOK, models.GetOrdersResponse{
		BaseResponse: ok(),
		Orders:       toDTOs(orders),
		Count:        len(orders),
	})
}

func dateParam(r *http.Request, name string) (time.Time, *models.HTTPError) {
	raw := strings.TrimSpace(r.Header.Get(name))
	if raw == "" {
		raw = strings.TrimSpace(r.URL.Query().Get(name))
	}
	if raw == "" {
		return time.Time{}, models.ErrInvalidDateRangeError(name+" is required", map[string]interface{}{"field": name})
	}
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, models.ErrInvalidDateRangeError(name+" must be an RFC3339 timestamp",
			map[string]interface{}{"field": name, "provided_value": raw})
	}
	return parsed, nil
}
