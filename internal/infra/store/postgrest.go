package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/pedidofacil/pix-checkout-go/internal/domain"
	"github.com/pedidofacil/pix-checkout-go/internal/infra/resilience"
	"github.com/pedidofacil/pix-checkout-go/internal/port"
)

var tracer = otel.Tracer("store")

const ordersTable = "orders"

// PostgREST is an order store backed by a PostgREST API (e.g. Supabase).
// All requests run through a circuit breaker with retry; compare-and-set
// is pushed down to the server with a status filter, so the conditional
// update is atomic at the database.
type PostgREST struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	serviceKey string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	logger     *zap.Logger
}

var _ port.OrderStore = (*PostgREST)(nil)

// NewPostgREST creates a PostgREST-backed order store.
func NewPostgREST(httpClient *http.Client, baseURL, apiKey, serviceKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *PostgREST {
	return &PostgREST{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		serviceKey: serviceKey,
		cb:         cb,
		cfg:        cfg,
		logger:     logger,
	}
}

// orderRow maps the orders table columns to the domain type.
type orderRow struct {
	ID           string             `json:"id"`
	OrderNumber  string             `json:"order_number"`
	CustomerName string             `json:"customer_name,omitempty"`
	Items        []domain.OrderItem `json:"items"`
	Total        float64            `json:"total"`
	Status       string             `json:"status"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
	PaidAt       *time.Time         `json:"paid_at,omitempty"`
	ExpiresAt    time.Time          `json:"expires_at"`
}

func rowFromOrder(o *domain.Order) orderRow {
	return orderRow{
		ID:           o.ID,
		OrderNumber:  o.OrderNumber,
		CustomerName: o.CustomerName,
		Items:        o.Items,
		Total:        o.Total,
		Status:       string(o.Status),
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
		PaidAt:       o.PaidAt,
		ExpiresAt:    o.ExpiresAt,
	}
}

func (r orderRow) toOrder() domain.Order {
	return domain.Order{
		ID:           r.ID,
		OrderNumber:  r.OrderNumber,
		CustomerName: r.CustomerName,
		Items:        r.Items,
		Total:        r.Total,
		Status:       domain.OrderStatus(r.Status),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		PaidAt:       r.PaidAt,
		ExpiresAt:    r.ExpiresAt,
	}
}

// CreateOrder inserts the order.
func (s *PostgREST) CreateOrder(ctx context.Context, order *domain.Order) error {
	ctx, span := tracer.Start(ctx, "PostgREST.CreateOrder")
	defer span.End()

	payload, err := json.Marshal(rowFromOrder(order))
	if err != nil {
		return err
	}

	return resilience.Execute(ctx, s.cb, s.cfg, "order-store", func() error {
		_, err := s.do(ctx, http.MethodPost, ordersTable, payload)
		return err
	})
}

// GetOrder fetches one order by id.
func (s *PostgREST) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "PostgREST.GetOrder")
	defer span.End()

	var rows []orderRow
	err := resilience.Execute(ctx, s.cb, s.cfg, "order-store", func() error {
		body, err := s.do(ctx, http.MethodGet, ordersTable+"?id=eq."+url.QueryEscape(orderID), nil)
		if err != nil {
			return err
		}
		rows = nil
		return json.Unmarshal(body, &rows)
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "order", ID: orderID}
	}

	o := rows[0].toOrder()
	return &o, nil
}

// ListOrders fetches orders newest first, optionally filtered by status.
func (s *PostgREST) ListOrders(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	ctx, span := tracer.Start(ctx, "PostgREST.ListOrders")
	defer span.End()

	path := ordersTable + "?order=created_at.desc"
	if status != "" {
		path += "&status=eq." + url.QueryEscape(string(status))
	}

	var rows []orderRow
	err := resilience.Execute(ctx, s.cb, s.cfg, "order-store", func() error {
		body, err := s.do(ctx, http.MethodGet, path, nil)
		if err != nil {
			return err
		}
		rows = nil
		return json.Unmarshal(body, &rows)
	})
	if err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(rows))
	for _, r := range rows {
		orders = append(orders, r.toOrder())
	}
	return orders, nil
}

// CompareAndSetStatus patches the order filtered by the expected status.
// PostgREST applies the filter and the update in one statement, so an
// empty result means another writer got there first.
func (s *PostgREST) CompareAndSetStatus(ctx context.Context, orderID string, expected, next domain.OrderStatus, paidAt *time.Time) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "PostgREST.CompareAndSetStatus")
	defer span.End()

	update := map[string]any{
		"status":     string(next),
		"updated_at": time.Now().Format(time.RFC3339Nano),
	}
	if paidAt != nil {
		update["paid_at"] = paidAt.Format(time.RFC3339Nano)
	}
	payload, err := json.Marshal(update)
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("%s?id=eq.%s&status=eq.%s",
		ordersTable, url.QueryEscape(orderID), url.QueryEscape(string(expected)))

	var rows []orderRow
	err = resilience.Execute(ctx, s.cb, s.cfg, "order-store", func() error {
		body, err := s.do(ctx, http.MethodPatch, path, payload)
		if err != nil {
			return err
		}
		rows = nil
		return json.Unmarshal(body, &rows)
	})
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		// Nothing matched: the order is gone or its status moved on.
		current, getErr := s.GetOrder(ctx, orderID)
		if getErr != nil {
			return nil, getErr
		}
		return nil, &domain.ErrStatusConflict{OrderID: orderID, Expected: expected, Actual: current.Status}
	}

	o := rows[0].toOrder()
	return &o, nil
}

// do executes an authenticated PostgREST request and returns the body.
func (s *PostgREST) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/rest/v1/%s", s.baseURL, path)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("order store: request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, &domain.ErrExternalService{Service: "order-store", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "order-store", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Warn("order store: non-2xx response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(respBody)),
		)
		return nil, &domain.ErrExternalService{
			Service: "order-store",
			Err:     fmt.Errorf("postgrest returned status %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	return respBody, nil
}
