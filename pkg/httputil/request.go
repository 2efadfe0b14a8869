package httputil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxBodyBytes caps request bodies to keep a single request from
// exhausting memory.
const maxBodyBytes = 1 << 20

// ParseJSON decodes JSON from the request body into the destination
func ParseJSON(r *http.Request, dest interface{}) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// ParseJSONOrError decodes JSON and writes an error response on failure
func ParseJSONOrError(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := ParseJSON(r, dest); err != nil {
		WriteBadRequest(w, err.Error())
		return false
	}
	return true
}

// ReadText reads the request body as a plain text string
func ReadText(r *http.Request) (string, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("reading request body: %w", err)
	}
	return string(body), nil
}

// ReadTextOrError reads the body as text and writes an error response on failure
func ReadTextOrError(w http.ResponseWriter, r *http.Request) (string, bool) {
	body, err := ReadText(r)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return "", false
	}
	return body, true
}
