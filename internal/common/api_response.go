package common

import (
	"encoding/json"
	"net/http"
	"time"

	"infinite-experiment/roster/internal/constants"
	"infinite-experiment/roster/internal/logging"
	"infinite-experiment/roster/internal/models/dtos"
)

// RespondSuccess sends a standardized JSON success response.
func RespondSuccess(w http.ResponseWriter, initTime time.Time, message string, data any, statusCode ...int) {
	code := http.StatusOK
	if len(statusCode) > 0 {
		code = statusCode[0]
	}

	response := dtos.APIResponse{
		Status:       string(constants.APIStatusOk),
		Message:      message,
		ResponseTime: GetResponseTime(initTime),
		Data:         data,
	}

	writeJSON(w, code, response)
}

// RespondError sends a standardized JSON error response.
func RespondError(w http.ResponseWriter, initTime time.Time, err error, message string, statusCode ...int) {
	code := http.StatusInternalServerError
	if len(statusCode) > 0 {
		code = statusCode[0]
	}

	msg := message
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}

	response := dtos.APIResponse{
		Status:       string(constants.APIStatusError),
		Message:      msg,
		ResponseTime: GetResponseTime(initTime),
	}

	writeJSON(w, code, response)
}

// RespondRosterError writes err with the status its kind maps to. Only the
// member-facing message is exposed; the wrapped cause is logged.
func RespondRosterError(w http.ResponseWriter, initTime time.Time, err error) {
	code := HTTPStatus(err)
	response := dtos.APIResponse{
		Status:       string(constants.APIStatusError),
		Message:      UserMessage(err),
		ResponseTime: GetResponseTime(initTime),
	}
	if re, ok := AsRosterError(err); ok {
		response.Data = dtos.ErrorDetail{Kind: string(re.Kind), Code: re.Code}
	}
	if code >= http.StatusInternalServerError {
		logging.Error("request failed", "status", code, "error", err)
	}
	writeJSON(w, code, response)
}

// writeJSON marshals data and writes it to the HTTP response.
func writeJSON(w http.ResponseWriter, code int, body dtos.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error("JSON encode failed", "error", err)
	}
}
