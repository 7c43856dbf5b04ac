package handlers

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// HealthCheck probes the database and the cache. A dead cache degrades the
// response but not the status; a dead database makes the service unhealthy.
func HealthCheck(db *sql.DB, cacheDB *badger.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		status := http.StatusOK
		database := "up"
		if err := db.Ping(); err != nil {
			log.Println("Health check database ping failed:", err)
			database = "down"
			status = http.StatusServiceUnavailable
		}

		cacheStatus := "up"
		if cacheDB == nil || cacheDB.IsClosed() {
			cacheStatus = "down"
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}

		jsonResponse, err := json.Marshal(map[string]interface{}{
			"status":    overall,
			"database":  database,
			"cache":     cacheStatus,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		if err != nil {
			log.Println("Error encoding JSON:", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write(jsonResponse)
	}
}
