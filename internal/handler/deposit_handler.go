package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// openDepositResponse is returned when a deposit dialog session opens.
type openDepositResponse struct {
	SessionID string `json:"session_id"`
	State     any    `json:"state"`
}

// depositPatch is the partial-update body for the deposit form.
// Absent fields are left untouched.
type depositPatch struct {
	AccountID *string  `json:"account_id"`
	Amount    *float64 `json:"amount"`
	Remarks   *string  `json:"remarks"`
}

func openDepositHandler(sessions *Sessions, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/dialogs/deposit")
		defer span.End()

		id, d, err := sessions.OpenDeposit(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		logger.Info("deposit dialog opened", zap.String("session_id", id))
		writeJSON(w, http.StatusCreated, openDepositResponse{
			SessionID: id,
			State:     d.State(),
		})
	}
}

func getDepositHandler(sessions *Sessions, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, ok := sessions.GetDeposit(chi.URLParam(r, "sessionId"))
		if !ok {
			writeError(w, http.StatusNotFound, "deposit dialog session not found")
			return
		}
		writeJSON(w, http.StatusOK, d.State())
	}
}

func patchDepositHandler(sessions *Sessions, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, ok := sessions.GetDeposit(chi.URLParam(r, "sessionId"))
		if !ok {
			writeError(w, http.StatusNotFound, "deposit dialog session not found")
			return
		}

		var patch depositPatch
		if err := decodeJSON(r, &patch); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}

		if patch.AccountID != nil {
			if err := d.SetAccount(*patch.AccountID); err != nil {
				handleServiceError(w, err, logger)
				return
			}
		}
		if patch.Amount != nil {
			if err := d.SetAmount(*patch.Amount); err != nil {
				handleServiceError(w, err, logger)
				return
			}
		}
		if patch.Remarks != nil {
			if err := d.SetRemarks(*patch.Remarks); err != nil {
				handleServiceError(w, err, logger)
				return
			}
		}

		writeJSON(w, http.StatusOK, d.State())
	}
}

func submitDepositHandler(sessions *Sessions, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/dialogs/deposit/{sessionId}/submit")
		defer span.End()

		sessionID := chi.URLParam(r, "sessionId")
		d, ok := sessions.GetDeposit(sessionID)
		if !ok {
			writeError(w, http.StatusNotFound, "deposit dialog session not found")
			return
		}

		if err := d.Submit(ctx); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		logger.Info("deposit submitted", zap.String("session_id", sessionID))
		writeJSON(w, http.StatusOK, d.State())
	}
}

func closeDepositHandler(sessions *Sessions, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !sessions.CloseDeposit(chi.URLParam(r, "sessionId")) {
			writeError(w, http.StatusNotFound, "deposit dialog session not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
