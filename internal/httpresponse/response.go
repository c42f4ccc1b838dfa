package httpresponse

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Response is the envelope of every JSON answer of the HTTP API.
type Response struct {
	Status int `json:"status"`
	Body   any `json:"body,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

const internalErrorJSON = "{\"status\": 500,\"body\":{\"error\": \"Internal server error\"}}"

func WriteResponseWithStatus(w http.ResponseWriter, status int, body any) {
	jsonByte, err := json.Marshal(Response{Status: status, Body: body})
	if err != nil {
		WriteInternalErrorResponse(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(jsonByte)
}

func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteResponseWithStatus(w, status, ErrorResponse{Error: msg})
}

// WriteInternalErrorResponse mirrors http.Error with a JSON content type.
func WriteInternalErrorResponse(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = fmt.Fprintln(w, internalErrorJSON)
}
