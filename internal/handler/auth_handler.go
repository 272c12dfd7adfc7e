package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/pedidofacil/pix-checkout-go/internal/service"
)

// ============================================================
// Admin login — POST /v1/admin/login
// ============================================================

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int    `json:"expiresIn"`
}

func adminLoginHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/admin/login")
		defer span.End()

		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Password == "" {
			writeError(w, http.StatusBadRequest, "password is required")
			return
		}

		token, expiresIn, err := authSvc.Login(ctx, req.Password)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, loginResponse{AccessToken: token, ExpiresIn: expiresIn})
	}
}
