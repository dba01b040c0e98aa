package middleware

import (
	"net/http"
	"time"

	"lyricsync-api-go/logcolors"
	"lyricsync-api-go/stats"

	log "github.com/sirupsen/logrus"
)

// ResponseRecorder wraps http.ResponseWriter to capture status code and body size
type ResponseRecorder struct {
	http.ResponseWriter
	StatusCode  int
	BodySize    int
	wroteHeader bool
}

// NewResponseRecorder creates a recorder that defaults to 200 OK
func NewResponseRecorder(w http.ResponseWriter) *ResponseRecorder {
	return &ResponseRecorder{
		ResponseWriter: w,
		StatusCode:     http.StatusOK,
	}
}

func (r *ResponseRecorder) WriteHeader(statusCode int) {
	if !r.wroteHeader {
		r.StatusCode = statusCode
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *ResponseRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	n, err := r.ResponseWriter.Write(b)
	r.BodySize += n
	return n, err
}

func getStatusColor(statusCode int) string {
	switch {
	case statusCode >= 500:
		return logcolors.Red
	case statusCode >= 400:
		return logcolors.Yellow
	case statusCode >= 300:
		return logcolors.Cyan
	case statusCode >= 200:
		return logcolors.Green
	default:
		return logcolors.Reset
	}
}

// LoggingMiddleware logs every request and feeds the request stats
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := NewResponseRecorder(w)

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		s := stats.Get()
		s.RecordRequest(r.URL.Path)
		s.RecordStatusCode(rec.StatusCode)
		s.RecordResponseTime(duration, r.URL.Path)

		entry := log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.StatusCode,
			"bytes":    rec.BodySize,
			"duration": duration.String(),
			"ip":       ClientIP(r),
		})

		msg := "%s %s %s %s%d%s %v"
		args := []interface{}{logcolors.LogRequest, r.Method, r.URL.Path, getStatusColor(rec.StatusCode), rec.StatusCode, logcolors.Reset, duration}

		// Playback ticks are too chatty for Info
		if TierFor(r.URL.Path) == TierSync && rec.StatusCode < 400 {
			entry.Debugf(msg, args...)
			return
		}
		entry.Infof(msg, args...)
	})
}
