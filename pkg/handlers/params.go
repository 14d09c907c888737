package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ParseBoolQuery reads an optional boolean query parameter. Absent means false.
// Returns false for ok after writing a 422 response when the value is not a boolean.
func ParseBoolQuery(w http.ResponseWriter, r *http.Request, name string, logger *zap.Logger) (value bool, ok bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return false, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		writeParamError(w, name, fmt.Sprintf("%s must be true or false", name), logger)
		return false, false
	}
	return v, true
}

// ParseIntQuery reads an optional integer query parameter. Absent means 0.
// Returns false for ok after writing a 422 response when the value is not an integer.
func ParseIntQuery(w http.ResponseWriter, r *http.Request, name string, logger *zap.Logger) (value int, ok bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		writeParamError(w, name, fmt.Sprintf("%s must be an integer", name), logger)
		return 0, false
	}
	return v, true
}

func writeParamError(w http.ResponseWriter, name, message string, logger *zap.Logger) {
	if err := ErrorResponse(w, http.StatusUnprocessableEntity, "invalid_"+name, message); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}
