package main

import (
	"encoding/json"
	"net/http"

	"lyricsync-api-go/logcolors"

	log "github.com/sirupsen/logrus"
)

// APIResponse handles consistent header setting and JSON responses
type APIResponse struct {
	w       http.ResponseWriter
	r       *http.Request
	headers map[string]string
}

// Respond creates a response helper for one request
func Respond(w http.ResponseWriter, r *http.Request) *APIResponse {
	return &APIResponse{w: w, r: r}
}

// Header queues an extra response header
func (a *APIResponse) Header(key, value string) *APIResponse {
	if a.headers == nil {
		a.headers = make(map[string]string)
	}
	a.headers[key] = value
	return a
}

func (a *APIResponse) writeHeaders(contentType string) {
	a.w.Header().Set("Content-Type", contentType)
	for k, v := range a.headers {
		a.w.Header().Set(k, v)
	}
}

// JSON writes data with 200 OK
func (a *APIResponse) JSON(data interface{}) error {
	return a.Status(http.StatusOK, data)
}

// Status writes data with the given status code
func (a *APIResponse) Status(statusCode int, data interface{}) error {
	a.writeHeaders("application/json")
	a.w.WriteHeader(statusCode)
	if err := json.NewEncoder(a.w).Encode(data); err != nil {
		log.Errorf("%s Failed to encode response for %s: %v", logcolors.LogRequest, a.r.URL.Path, err)
		return err
	}
	return nil
}

// Error writes {"error": message} with the given status code
func (a *APIResponse) Error(statusCode int, message string) error {
	return a.Status(statusCode, map[string]string{"error": message})
}

// NoContent writes 204
func (a *APIResponse) NoContent() {
	for k, v := range a.headers {
		a.w.Header().Set(k, v)
	}
	a.w.WriteHeader(http.StatusNoContent)
}

// Text writes a non-JSON body with 200 OK
func (a *APIResponse) Text(contentType, body string) error {
	a.writeHeaders(contentType)
	a.w.WriteHeader(http.StatusOK)
	_, err := a.w.Write([]byte(body))
	return err
}

// decodeJSON reads the request body into v, rejecting unknown fields.
// A false return means a 400 has already been written.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		Respond(w, r).Error(http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return false
	}
	return true
}

const maxBodyBytes = 2 << 20
