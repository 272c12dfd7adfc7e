package service

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/pedidofacil/pix-checkout-go/internal/brcode"
	"github.com/pedidofacil/pix-checkout-go/internal/domain"
)

// ConfigService holds the merchant's Pix configuration. The startup
// values come from the environment; admins may replace them at runtime,
// so reads take a copy under a lock. Every accepted update bumps the
// revision, which cache keys derived from the config must include.
type ConfigService struct {
	mu       sync.RWMutex
	cfg      domain.MerchantConfig
	revision uint64
	logger   *zap.Logger
}

// NewConfigService creates the config service with the initial merchant
// configuration. The initial values are not validated here; Response
// reports whether the key currently parses, so a misconfigured key shows
// up in the admin panel instead of blocking startup.
func NewConfigService(initial domain.MerchantConfig, logger *zap.Logger) *ConfigService {
	return &ConfigService{cfg: initial, logger: logger}
}

// Get returns the current merchant configuration.
func (s *ConfigService) Get() domain.MerchantConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Revision returns a counter that changes on every accepted update.
func (s *ConfigService) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Update replaces the merchant configuration after validating it the
// same way payload building would.
func (s *ConfigService) Update(ctx context.Context, cfg domain.MerchantConfig) (*domain.PixConfigResponse, error) {
	_, span := orderTracer.Start(ctx, "ConfigService.Update")
	defer span.End()

	cfg.Key = strings.TrimSpace(cfg.Key)

	if !cfg.KeyType.Valid() {
		return nil, &domain.ErrValidation{Field: "keyType", Message: "unknown key type " + string(cfg.KeyType)}
	}
	if cfg.Key == "" {
		return nil, &domain.ErrValidation{Field: "key", Message: "pix key is required"}
	}
	if !brcode.ValidateKey(cfg.Key, cfg.KeyType) {
		return nil, &domain.ErrValidation{Field: "key", Message: "key does not match type " + string(cfg.KeyType)}
	}
	if _, err := brcode.Normalize(cfg.RecipientName, 25); err != nil {
		return nil, &domain.ErrValidation{Field: "recipientName", Message: "recipient name is required"}
	}
	if _, err := brcode.Normalize(cfg.City, 15); err != nil {
		return nil, &domain.ErrValidation{Field: "city", Message: "city is required"}
	}

	s.mu.Lock()
	s.cfg = cfg
	s.revision++
	s.mu.Unlock()

	s.logger.Info("merchant pix config updated",
		zap.String("key_type", string(cfg.KeyType)),
		zap.String("recipient", cfg.RecipientName),
	)

	resp := s.Response()
	return &resp, nil
}

// Response builds the config view for the admin panel, including whether
// the current key passes shape validation.
func (s *ConfigService) Response() domain.PixConfigResponse {
	cfg := s.Get()
	return domain.PixConfigResponse{
		Key:           cfg.Key,
		KeyType:       cfg.KeyType,
		RecipientName: cfg.RecipientName,
		City:          cfg.City,
		KeyValid:      brcode.ValidateKey(cfg.Key, cfg.KeyType),
	}
}
