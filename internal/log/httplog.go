package log

import (
	"time"
)

// LogHTTPRequest records one served HTTP request. Server errors log at error
// level, everything else at debug so polling clients don't flood the log.
func LogHTTPRequest(method, path string, status int, duration time.Duration, size int, remoteAddr string) {
	fields := []any{
		"method", method,
		"path", path,
		"status", status,
		"duration_ms", duration.Milliseconds(),
		"size", size,
		"remote_addr", remoteAddr,
	}

	if status >= 500 {
		GetSugaredLogger().Errorw("http request", fields...)
		return
	}
	GetSugaredLogger().Debugw("http request", fields...)
}
