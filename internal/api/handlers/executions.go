package handlers

import (
	"net/http"
	"strconv"

	"github.com/PxPatel/crossing-engine/internal/api/models"
)

// GetExecutionsHandler returns the most recent fills, newest first
func (eh *EngineHolder) GetExecutionsHandler(w http.ResponseWriter, r *http.Request) {
	limit := eh.Limits.DefaultExecutions
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsedLimit, err := strconv.Atoi(limitStr)
		if err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}
	if eh.Limits.MaxExecutions > 0 && limit > eh.Limits.MaxExecutions {
		limit = eh.Limits.MaxExecutions
	}

	executions, err := eh.Engine.RecentExecutions(r.Context(), limit)
	if err != nil {
		writeErrorResponse(w, models.FromError(err))
		return
	}

	dtos := make([]models.ExecutionDTO, len(executions))
	for i, execution := range executions {
		dtos[i] = models.NewExecutionDTO(execution)
	}

	writeJSON(w, http.StatusOK, models.GetExecutionsResponse{
		BaseResponse: ok(),
		Executions:   dtos,
		Count:        len(dtos),
	})
}
