package timeline

import (
	"encoding/json"
	"log"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{
		"error": msg,
	})
}

// writeStoreError answers with the status matching err. Unexpected errors
// are logged under op and hidden from the client.
func writeStoreError(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("timeline-service: %s: %v", op, err)
		writeError(w, status, "database error")
		return
	}
	writeError(w, status, err.Error())
}
