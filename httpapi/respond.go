package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"speedbet/transport"

	log "github.com/sirupsen/logrus"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func parseIntParam(r *http.Request, param string, defaultValue int) int {
	valueStr := r.URL.Query().Get(param)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil || value <= 0 {
		return defaultValue
	}

	return value
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		entry := log.WithFields(log.Fields{
			"status": status,
			"error":  err,
		})
		if status >= http.StatusInternalServerError {
			entry.Error(message)
		} else {
			entry.Debug(message)
		}
	}

	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}

// respondFailure maps an operation error to its status code
func respondFailure(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error(), err)
}

func statusFor(err error) int {
	var (
		precondition *transport.PreconditionError
		connErr      *transport.ConnectionError
		transportErr *transport.TransportError
		gqlErr       *transport.GraphQLError
	)
	switch {
	case errors.As(err, &precondition):
		return http.StatusBadRequest
	case errors.As(err, &connErr):
		return http.StatusServiceUnavailable
	case errors.As(err, &transportErr):
		return http.StatusBadGateway
	case errors.As(err, &gqlErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
