package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type openProvisioningResponse struct {
	SessionID string `json:"session_id"`
	State     any    `json:"state"`
}

// provisioningPatch applies form edits as field/value pairs, the same
// shape the dashboard emits per keystroke. Values are strings; the
// controller parses amount fields strictly.
type provisioningPatch struct {
	Updates map[string]string `json:"updates"`
}

type searchPatch struct {
	Query string `json:"query"`
}

type selectUserRequest struct {
	UserID string `json:"user_id"`
}

func openProvisioningHandler(sessions *Sessions, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, d := sessions.OpenProvisioning()
		logger.Info("provisioning dialog opened", zap.String("session_id", id))
		writeJSON(w, http.StatusCreated, openProvisioningResponse{
			SessionID: id,
			State:     d.State(),
		})
	}
}

func getProvisioningHandler(sessions *Sessions, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, ok := sessions.GetProvisioning(chi.URLParam(r, "sessionId"))
		if !ok {
			writeError(w, http.StatusNotFound, "provisioning dialog session not found")
			return
		}
		writeJSON(w, http.StatusOK, d.State())
	}
}

func patchProvisioningHandler(sessions *Sessions, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, ok := sessions.GetProvisioning(chi.URLParam(r, "sessionId"))
		if !ok {
			writeError(w, http.StatusNotFound, "provisioning dialog session not found")
			return
		}

		var patch provisioningPatch
		if err := decodeJSON(r, &patch); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}

		// Apply every edit; field errors land in the dialog state, so a
		// failing amount field does not abort the remaining updates.
		for field, value := range patch.Updates {
			if err := d.SetField(field, value); err != nil {
				logger.Debug("provisioning field rejected",
					zap.String("field", field),
					zap.String("error", err.Error()),
				)
			}
		}

		writeJSON(w, http.StatusOK, d.State())
	}
}

func submitProvisioningHandler(sessions *Sessions, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/dialogs/provisioning/{sessionId}/submit")
		defer span.End()

		sessionID := chi.URLParam(r, "sessionId")
		d, ok := sessions.GetProvisioning(sessionID)
		if !ok {
			writeError(w, http.StatusNotFound, "provisioning dialog session not found")
			return
		}

		if err := d.Submit(ctx); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		logger.Info("account provisioned", zap.String("session_id", sessionID))
		writeJSON(w, http.StatusOK, d.State())
	}
}

func closeProvisioningHandler(sessions *Sessions, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !sessions.CloseProvisioning(chi.URLParam(r, "sessionId")) {
			writeError(w, http.StatusNotFound, "provisioning dialog session not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func searchProvisioningHandler(sessions *Sessions, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, ok := sessions.GetProvisioning(chi.URLParam(r, "sessionId"))
		if !ok {
			writeError(w, http.StatusNotFound, "provisioning dialog session not found")
			return
		}

		var patch searchPatch
		if err := decodeJSON(r, &patch); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}

		if err := d.SetQuery(patch.Query); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		// The search runs after the debounce window; the dashboard polls
		// the search state for results.
		writeJSON(w, http.StatusAccepted, d.SearchState())
	}
}

func getSearchStateHandler(sessions *Sessions, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, ok := sessions.GetProvisioning(chi.URLParam(r, "sessionId"))
		if !ok {
			writeError(w, http.StatusNotFound, "provisioning dialog session not found")
			return
		}
		writeJSON(w, http.StatusOK, d.SearchState())
	}
}

func selectUserHandler(sessions *Sessions, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, ok := sessions.GetProvisioning(chi.URLParam(r, "sessionId"))
		if !ok {
			writeError(w, http.StatusNotFound, "provisioning dialog session not found")
			return
		}

		var req selectUserRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
		if req.UserID == "" {
			writeError(w, http.StatusBadRequest, "user_id is required")
			return
		}

		if err := d.SelectUser(req.UserID); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, d.State())
	}
}
