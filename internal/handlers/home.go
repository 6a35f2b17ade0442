package handlers

import (
	"net/http"
	"time"

	"github.com/diewo77/go-school/httpx"
	"github.com/diewo77/go-school/view"
	"gorm.io/gorm"
)

// Home renders the public landing page.
func Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		view.Error(w, r, http.StatusNotFound, "error.not_found")
		return
	}
	render(w, r, "index.html", map[string]any{"Title": "landing.title"})
}

// Health reports liveness and database reachability.
func Health(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, code := "ok", http.StatusOK
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(r.Context()) != nil {
			status, code = "degraded", http.StatusServiceUnavailable
		}
		httpx.JSON(w, code, map[string]any{
			"status": status,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}
