package middleware

import (
	"encoding/json"
	"net/http"
)

// writeJSONError writes the service's {ok,message} envelope with the correct Content-Type.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"ok": false, "message": msg})
}
