package brcode_test

import (
	"errors"
	"strconv"
	"testing"

	"github.com/pedidofacil/pix-checkout-go/internal/brcode"
	"github.com/pedidofacil/pix-checkout-go/internal/domain"
)

var testConfig = domain.MerchantConfig{
	Key:           "merchant@example.com",
	KeyType:       domain.KeyTypeEmail,
	RecipientName: "BURGER HOUSE",
	City:          "SAO PAULO",
}

// decodeTLV parses a flat TLV stream into ordered (tag, value) pairs the
// way a conformant reader would, verifying every length prefix on the way.
func decodeTLV(t *testing.T, payload string) []struct{ tag, value string } {
	t.Helper()

	var fields []struct{ tag, value string }
	for i := 0; i < len(payload); {
		if i+4 > len(payload) {
			t.Fatalf("truncated field header at offset %d", i)
		}
		tag := payload[i : i+2]
		length, err := strconv.Atoi(payload[i+2 : i+4])
		if err != nil {
			t.Fatalf("bad length prefix %q at offset %d", payload[i+2:i+4], i)
		}
		if i+4+length > len(payload) {
			t.Fatalf("field %s claims %d chars past end of payload", tag, length)
		}
		fields = append(fields, struct{ tag, value string }{tag, payload[i+4 : i+4+length]})
		i += 4 + length
	}
	return fields
}

func TestBuildPayload_Golden(t *testing.T) {
	got, err := brcode.BuildPayload(testConfig, domain.PaymentRequest{Amount: 23.50, ReferenceID: "A1B2C3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "00020101021226420014br.gov.bcb.pix0120merchant@example.com520400005303986540523.505802BR5912BURGER HOUSE6009SAO PAULO62100506A1B2C363047032"
	if got != want {
		t.Errorf("payload mismatch:\n got %s\nwant %s", got, want)
	}
}

func TestBuildPayload_Deterministic(t *testing.T) {
	req := domain.PaymentRequest{Amount: 23.50, ReferenceID: "A1B2C3"}

	first, err := brcode.BuildPayload(testConfig, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := brcode.BuildPayload(testConfig, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Errorf("payload not deterministic:\n first %s\nsecond %s", first, second)
	}
}

func TestBuildPayload_RoundTrip(t *testing.T) {
	payload, err := brcode.BuildPayload(testConfig, domain.PaymentRequest{Amount: 23.50, ReferenceID: "A1B2C3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fields := decodeTLV(t, payload)

	byTag := map[string]string{}
	var order []string
	for _, f := range fields {
		byTag[f.tag] = f.value
		order = append(order, f.tag)
	}

	wantOrder := []string{"00", "01", "26", "52", "53", "54", "58", "59", "60", "62", "63"}
	if len(order) != len(wantOrder) {
		t.Fatalf("expected %d top-level fields, got %d (%v)", len(wantOrder), len(order), order)
	}
	for i, tag := range wantOrder {
		if order[i] != tag {
			t.Errorf("field %d: expected tag %s, got %s", i, tag, order[i])
		}
	}

	// The six logical fields parse back to exactly the inputs.
	account := decodeTLV(t, byTag["26"])
	if len(account) != 2 || account[0].value != "br.gov.bcb.pix" || account[1].value != "merchant@example.com" {
		t.Errorf("field 26 sub-fields wrong: %+v", account)
	}
	if byTag["54"] != "23.50" {
		t.Errorf("amount = %q, want 23.50", byTag["54"])
	}
	if byTag["59"] != "BURGER HOUSE" {
		t.Errorf("name = %q", byTag["59"])
	}
	if byTag["60"] != "SAO PAULO" {
		t.Errorf("city = %q", byTag["60"])
	}
	additional := decodeTLV(t, byTag["62"])
	if len(additional) != 1 || additional[0].tag != "05" || additional[0].value != "A1B2C3" {
		t.Errorf("field 62 sub-fields wrong: %+v", additional)
	}

	// Trailing four characters match an independent recomputation.
	if want := brcode.CRC16(payload[:len(payload)-4]); byTag["63"] != want {
		t.Errorf("checksum = %s, recomputed %s", byTag["63"], want)
	}
}

func TestBuildPayload_OmitsEmptyAdditionalData(t *testing.T) {
	for _, ref := range []string{"", "   ", "!!!"} {
		payload, err := brcode.BuildPayload(testConfig, domain.PaymentRequest{Amount: 10, ReferenceID: ref})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, f := range decodeTLV(t, payload) {
			if f.tag == "62" {
				t.Errorf("referenceId %q: field 62 must be omitted entirely, got value %q", ref, f.value)
			}
		}
	}
}

func TestBuildPayload_AmountFormatting(t *testing.T) {
	cases := []struct {
		amount float64
		want   string
	}{
		{23.5, "23.50"},
		{10, "10.00"},
		{0.01, "0.01"},
		{1234.56, "1234.56"},
	}

	for _, tc := range cases {
		payload, err := brcode.BuildPayload(testConfig, domain.PaymentRequest{Amount: tc.amount})
		if err != nil {
			t.Fatalf("amount %v: %v", tc.amount, err)
		}
		var got string
		for _, f := range decodeTLV(t, payload) {
			if f.tag == "54" {
				got = f.value
			}
		}
		if got != tc.want {
			t.Errorf("amount %v rendered %q, want %q", tc.amount, got, tc.want)
		}
	}
}

func TestBuildPayload_ValidationErrors(t *testing.T) {
	cases := []struct {
		name      string
		config    domain.MerchantConfig
		request   domain.PaymentRequest
		wantField string
	}{
		{
			name:      "empty key",
			config:    domain.MerchantConfig{Key: "   ", KeyType: domain.KeyTypeEmail, RecipientName: "LOJA", City: "CIDADE"},
			request:   domain.PaymentRequest{Amount: 10},
			wantField: "key",
		},
		{
			name:      "key fails shape check",
			config:    domain.MerchantConfig{Key: "not-an-email", KeyType: domain.KeyTypeEmail, RecipientName: "LOJA", City: "CIDADE"},
			request:   domain.PaymentRequest{Amount: 10},
			wantField: "key",
		},
		{
			name:      "unknown key type",
			config:    domain.MerchantConfig{Key: "merchant@example.com", KeyType: "iban", RecipientName: "LOJA", City: "CIDADE"},
			request:   domain.PaymentRequest{Amount: 10},
			wantField: "keyType",
		},
		{
			name:      "empty name",
			config:    domain.MerchantConfig{Key: "merchant@example.com", KeyType: domain.KeyTypeEmail, RecipientName: "  ", City: "CIDADE"},
			request:   domain.PaymentRequest{Amount: 10},
			wantField: "recipientName",
		},
		{
			name:      "empty city",
			config:    domain.MerchantConfig{Key: "merchant@example.com", KeyType: domain.KeyTypeEmail, RecipientName: "LOJA", City: "***"},
			request:   domain.PaymentRequest{Amount: 10},
			wantField: "city",
		},
		{
			name:      "zero amount",
			config:    testConfig,
			request:   domain.PaymentRequest{Amount: 0},
			wantField: "amount",
		},
		{
			name:      "negative amount",
			config:    testConfig,
			request:   domain.PaymentRequest{Amount: -5},
			wantField: "amount",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := brcode.BuildPayload(tc.config, tc.request)
			var valErr *domain.ErrValidation
			if !errors.As(err, &valErr) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if valErr.Field != tc.wantField {
				t.Errorf("error field = %q, want %q", valErr.Field, tc.wantField)
			}
		})
	}
}

func TestBuildPayload_NormalizesMerchantFields(t *testing.T) {
	cfg := domain.MerchantConfig{
		Key:           "merchant@example.com",
		KeyType:       domain.KeyTypeEmail,
		RecipientName: "Hamburgueria do João",
		City:          "São Paulo",
	}

	payload, err := brcode.BuildPayload(cfg, domain.PaymentRequest{Amount: 42})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var name, city string
	for _, f := range decodeTLV(t, payload) {
		switch f.tag {
		case "59":
			name = f.value
		case "60":
			city = f.value
		}
	}
	if name != "HAMBURGUERIA DO JOAO" {
		t.Errorf("name = %q", name)
	}
	if city != "SAO PAULO" {
		t.Errorf("city = %q", city)
	}
}
