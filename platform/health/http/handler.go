package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"
)

// Check проверяет одну зависимость (postgres, redis ...). nil = ок.
type Check func(ctx context.Context) error

// Handler отдаёт {"status":"ok"} или 503 {"status":"not ready","checks":{...}}.
// Каждая проверка получает общий таймаут timeout; nil-карта = всегда ок.
func Handler(checks map[string]Check, timeout time.Duration) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		results := make(map[string]string, len(names))
		ready := true
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				results[name] = err.Error()
				ready = false
				continue
			}
			results[name] = "ok"
		}

		w.Header().Set("Content-Type", "application/json")
		body := map[string]any{"status": "ok"}
		if len(results) > 0 {
			body["checks"] = results
		}
		if !ready {
			body["status"] = "not ready"
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(body)
	}
}
