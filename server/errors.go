package server

import (
	"net/http"
)

// APIError is the error body for malformed requests. Domain rejections never use it.
type APIError struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeError(w http.ResponseWriter, code int, errMsg, codeStr string) {
	writeJSON(w, code, APIError{
		Error:   errMsg,
		Code:    codeStr,
		Message: errMsg,
	})
}
