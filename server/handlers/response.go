// Package handlers implements the HTTP handlers of the live-server
// gateway: login, logout, session introspection and upload file serving.
package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// ResponseModel is the structured result returned by the async endpoints:
// a success flag and a user-facing message.
type ResponseModel struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SendResponse writes a ResponseModel as JSON with the given status code
func SendResponse(w http.ResponseWriter, logger *zap.Logger, statusCode int, model ResponseModel) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(model); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

// SendJSONResponse sends a JSON response with any data structure
func SendJSONResponse(w http.ResponseWriter, logger *zap.Logger, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}
