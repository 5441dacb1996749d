package calendar_api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"ms-calendar/internal/logger"
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// RequestLogger tags every request with a generated id, echoes it in the
// X-Request-ID header and logs method, path, status and duration.
func RequestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := uuid.New().String()
			w.Header().Set("X-Request-ID", requestID)

			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(ww, r)

			if log != nil {
				log.LogAPI(requestID, r.Method, r.URL.Path,
					fmt.Sprintf("%d", ww.status), time.Since(start).String())
			}
		})
	}
}
