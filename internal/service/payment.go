package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/pedidofacil/pix-checkout-go/internal/brcode"
	"github.com/pedidofacil/pix-checkout-go/internal/domain"
	"github.com/pedidofacil/pix-checkout-go/internal/infra/observability"
	"github.com/pedidofacil/pix-checkout-go/internal/infra/resilience"
	"github.com/pedidofacil/pix-checkout-go/internal/port"
)

// PaymentService builds the payment view for an order: the BR Code
// payload plus its QR code image. Payloads are deterministic, so the QR
// image is cached per order and config revision; rendering runs behind a
// bulkhead to bound concurrent image encoding.
type PaymentService struct {
	store    port.OrderStore
	config   *ConfigService
	renderer port.QRRenderer
	qrCache  port.Cache[[]byte]
	bulkhead *resilience.Bulkhead
	qrOpts   port.QROptions
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewPaymentService creates the payment view service.
func NewPaymentService(store port.OrderStore, config *ConfigService, renderer port.QRRenderer, qrCache port.Cache[[]byte], bulkhead *resilience.Bulkhead, qrOpts port.QROptions, metrics *observability.Metrics, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		store:    store,
		config:   config,
		renderer: renderer,
		qrCache:  qrCache,
		bulkhead: bulkhead,
		qrOpts:   qrOpts,
		metrics:  metrics,
		logger:   logger,
	}
}

// PaymentInfo returns the Pix payload and QR code for an order still
// awaiting payment. Orders in any other status get a conflict, since
// showing a payable code for a paid or expired order would invite double
// payment.
func (s *PaymentService) PaymentInfo(ctx context.Context, orderID string) (*domain.PixPaymentResponse, error) {
	ctx, span := orderTracer.Start(ctx, "PaymentService.PaymentInfo")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID))

	start := time.Now()

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.StatusPendingPayment {
		return nil, &domain.ErrStatusConflict{
			OrderID:  orderID,
			Expected: domain.StatusPendingPayment,
			Actual:   order.Status,
		}
	}

	cfg := s.config.Get()
	payload, err := brcode.BuildPayload(cfg, domain.PaymentRequest{
		Amount:      order.Total,
		ReferenceID: strings.TrimPrefix(order.OrderNumber, "#"),
	})
	if err != nil {
		s.metrics.IncrPayloadBuild(buildFailureReason(err))
		s.logger.Error("payload build failed", zap.String("order_id", orderID), zap.Error(err))
		return nil, err
	}

	png, err := s.renderQR(ctx, orderID, payload)
	if err != nil {
		s.metrics.IncrPayloadBuild("render")
		return nil, err
	}

	s.metrics.IncrPayloadBuild("success")
	s.metrics.RecordPayloadDuration(time.Since(start))

	return &domain.PixPaymentResponse{
		OrderID:          order.ID,
		Payload:          payload,
		QRCodeBase64:     base64.StdEncoding.EncodeToString(png),
		Amount:           order.Total,
		ExpiresAt:        order.ExpiresAt.UTC().Format(time.RFC3339),
		SecondsRemaining: order.SecondsRemaining(time.Now()),
	}, nil
}

// renderQR returns the cached QR image for this order and config
// revision, rendering it once behind the bulkhead on a miss.
func (s *PaymentService) renderQR(ctx context.Context, orderID, payload string) ([]byte, error) {
	key := fmt.Sprintf("qr:%s:%d", orderID, s.config.Revision())
	if png, ok := s.qrCache.Get(key); ok {
		return png, nil
	}

	if err := s.bulkhead.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.bulkhead.Release()

	png, err := s.renderer.RenderPNG(payload, s.qrOpts)
	if err != nil {
		s.logger.Error("qr render failed", zap.String("order_id", orderID), zap.Error(err))
		return nil, err
	}
	s.qrCache.Set(key, png)
	return png, nil
}

func buildFailureReason(err error) string {
	var validation *domain.ErrValidation
	var normalization *domain.ErrNormalization
	var encoding *domain.ErrEncoding
	switch {
	case errors.As(err, &validation), errors.As(err, &normalization):
		return "validation"
	case errors.As(err, &encoding):
		return "encoding"
	}
	return "error"
}
