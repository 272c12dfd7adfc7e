package domain

// ============================================================
// Pix merchant configuration
// ============================================================

// PixKeyType is the closed set of Pix key types.
type PixKeyType string

const (
	KeyTypeEmail  PixKeyType = "email"
	KeyTypeCPF    PixKeyType = "cpf"
	KeyTypeCNPJ   PixKeyType = "cnpj"
	KeyTypePhone  PixKeyType = "phone"
	KeyTypeRandom PixKeyType = "random"
)

// Valid reports whether t is a known key type.
func (t PixKeyType) Valid() bool {
	switch t {
	case KeyTypeEmail, KeyTypeCPF, KeyTypeCNPJ, KeyTypePhone, KeyTypeRandom:
		return true
	}
	return false
}

// MerchantConfig is the process-wide Pix beneficiary configuration,
// shared by all concurrent payload builds.
type MerchantConfig struct {
	Key           string     `json:"key"`
	KeyType       PixKeyType `json:"keyType"`
	RecipientName string     `json:"recipientName"`
	City          string     `json:"city"`
}

// PaymentRequest carries the per-order inputs of a payload build.
type PaymentRequest struct {
	Amount      float64 `json:"amount"`
	ReferenceID string  `json:"referenceId,omitempty"`
}

// ============================================================
// API request/response types
// ============================================================

// PixConfigResponse is returned by GET /v1/config/pix.
type PixConfigResponse struct {
	Key           string     `json:"key"`
	KeyType       PixKeyType `json:"keyType"`
	RecipientName string     `json:"recipientName"`
	City          string     `json:"city"`
	KeyValid      bool       `json:"keyValid"`
}

// PixPaymentResponse is returned by GET /v1/orders/{orderId}/pix.
type PixPaymentResponse struct {
	OrderID          string  `json:"orderId"`
	Payload          string  `json:"payload"`
	QRCodeBase64     string  `json:"qrCodeBase64"`
	Amount           float64 `json:"amount"`
	ExpiresAt        string  `json:"expiresAt"`
	SecondsRemaining int64   `json:"secondsRemaining"`
}
