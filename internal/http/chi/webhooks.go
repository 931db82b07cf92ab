package chi

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/tuikaDLC/Kincord/relay"
)

// TokenHeader carries the shared secret configured on the kintone side.
const TokenHeader = "X-Cybozu-Webhook-Token"

/* HTTP layer DTOs for the relay API
 * Separate from relay.Result so the wire shape stays stable
 */

type acceptedResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	EventID string `json:"event_id"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// postKintone handles POST /webhook/kintone
func postKintone(svc relay.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid payload", Detail: err.Error()})
			return
		}

		res := svc.Receive(r.Context(), body, r.Header.Get(TokenHeader))

		switch res.Status {
		case relay.Accepted:
			writeJSON(w, http.StatusOK, acceptedResponse{Success: true, Message: res.Message, EventID: res.EventID})
		case relay.Unauthorized:
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: res.Message})
		case relay.Malformed, relay.Invalid:
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: res.Message, Detail: res.Detail})
		default:
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: res.Message, Detail: res.Detail})
		}
	})
}

// getHealth handles GET /webhook/health
func getHealth(svc relay.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Health())
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
