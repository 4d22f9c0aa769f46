package codec

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tjfontaine/opchain-gateway/internal/core/domain"
)

// ErrorResponse is a serialized error ready to be written to a client.
type ErrorResponse struct {
	StatusCode int
	Body       []byte
}

// ToCanonicalError converts any error to a domain.APIError.
// If the error is already a domain.APIError, it returns it directly.
// Otherwise, it wraps the error in a generic server error.
func ToCanonicalError(err error) *domain.APIError {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return domain.ErrServer(err.Error())
}

// FormatError renders err as {"error": {"type", "code", "message"}}.
func FormatError(err error) *ErrorResponse {
	apiErr := ToCanonicalError(err)

	body, _ := json.Marshal(map[string]any{
		"error": apiErr,
	})

	return &ErrorResponse{
		StatusCode: apiErr.HTTPStatusCode(),
		Body:       body,
	}
}

// WriteError writes err as a JSON error response.
func WriteError(w http.ResponseWriter, err error) {
	resp := FormatError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	w.Write(resp.Body)
}
