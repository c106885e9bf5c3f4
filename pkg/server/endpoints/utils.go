package endpoints

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
)

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

func respondWithInternalError(w http.ResponseWriter, r *http.Request, err error) {
	log.Printf("%s %s failed: %v", r.Method, r.URL.RequestURI(), err)
	respondWithError(w, http.StatusInternalServerError, "Internal server error")
}

func acceptsNDJSON(r *http.Request) bool {
	for _, accept := range r.Header.Values("Accept") {
		for _, part := range strings.Split(accept, ",") {
			mediaType := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
			if mediaType == "application/x-ndjson" {
				return true
			}
		}
	}
	return false
}
