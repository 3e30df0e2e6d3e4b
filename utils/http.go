package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// MaxBodyBytes caps request bodies read by DecodeJSON.
const MaxBodyBytes = 1 << 20

// ErrorResponse is the body of every error reply: a human readable detail,
// plus per-field messages for validation failures.
type ErrorResponse struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return nil
	}

	return json.NewEncoder(w).Encode(data)
}

// WriteRawJSON writes an already encoded JSON document unchanged.
func WriteRawJSON(w http.ResponseWriter, status int, body json.RawMessage) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(body)
	return err
}

// WriteDetail writes {"detail": detail} with the given status code
func WriteDetail(w http.ResponseWriter, status int, detail string) error {
	return WriteJSON(w, status, ErrorResponse{Detail: detail})
}

// WriteValidationError writes a 422 with the offending fields
func WriteValidationError(w http.ResponseWriter, detail string, fields map[string]string) error {
	if detail == "" {
		detail = "Validation failed"
	}
	return WriteJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
		Detail: detail,
		Fields: fields,
	})
}

// WriteNotFound writes a 404 Not Found response
func WriteNotFound(w http.ResponseWriter, detail string) error {
	if detail == "" {
		detail = "Not Found"
	}
	return WriteDetail(w, http.StatusNotFound, detail)
}

// WriteMethodNotAllowed writes a 405 response
func WriteMethodNotAllowed(w http.ResponseWriter) error {
	return WriteDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
}

// WriteInternalServerError writes a 500 Internal Server Error response
func WriteInternalServerError(w http.ResponseWriter, detail string) error {
	if detail == "" {
		detail = "Internal server error"
	}
	return WriteDetail(w, http.StatusInternalServerError, detail)
}

// DecodeJSON reads a single JSON object from the request body into dst.
// Malformed or oversized bodies come back as a *ValidationError.
func DecodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return &ValidationError{Message: "request body is required", Fields: map[string]string{"body": "body is required"}}
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return &ValidationError{Message: "request body is required", Fields: map[string]string{"body": "body is required"}}
		case errors.As(err, &typeErr) && typeErr.Field != "":
			return &ValidationError{
				Message: "Validation failed",
				Fields:  map[string]string{typeErr.Field: fmt.Sprintf("%s must be of type %s", typeErr.Field, typeErr.Type)},
			}
		default:
			return &ValidationError{Message: "invalid JSON body", Fields: map[string]string{"body": err.Error()}}
		}
	}
	return nil
}
