package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/pedidofacil/pix-checkout-go/internal/domain"
	"github.com/pedidofacil/pix-checkout-go/internal/service"
)

// ============================================================
// Merchant config — GET/PUT /v1/config/pix
// ============================================================

func getPixConfigHandler(cfg *service.ConfigService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /v1/config/pix")
		defer span.End()

		writeJSON(w, http.StatusOK, cfg.Response())
	}
}

func updatePixConfigHandler(cfg *service.ConfigService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/config/pix")
		defer span.End()

		var req domain.MerchantConfig
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		resp, err := cfg.Update(ctx, req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
