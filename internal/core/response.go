package core

import (
	"encoding/json"
	"net/http"
)

// The API envelope spreads the payload's fields next to the success
// flag: {"success": true, ...data}. Lists and scalars are therefore
// always handed in wrapped in a named field.
func writeSuccess(w http.ResponseWriter, status int, data any) {
	body := map[string]any{}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			writeFailure(w, http.StatusInternalServerError, "failed to encode response")
			return
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			writeFailure(w, http.StatusInternalServerError, "failed to encode response")
			return
		}
	}
	body["success"] = true

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": message,
	})
}
