package common

import (
	"encoding/json"
	"net/http"
)

type ErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorResponse{Code: "error", Error: message})
}

// RespondWithAppError translates a domain error into the stable code/message
// denial body. Internal errors are masked so no wrapped detail leaks.
func RespondWithAppError(w http.ResponseWriter, err error) {
	status := HTTPStatusFromError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = ErrInternalServer.Error()
	}
	RespondWithJSON(w, status, ErrorResponse{Code: CodeFromError(err), Error: message})
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"code": "internal_error", "error": "Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
