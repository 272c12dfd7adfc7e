package brcode

import (
	"math"
	"strconv"
	"strings"

	"github.com/pedidofacil/pix-checkout-go/internal/domain"
)

// Top-level field tags of the BR Code payload, in emission order.
const (
	tagFormatIndicator = "00"
	tagInitMethod      = "01"
	tagMerchantAccount = "26"
	tagCategoryCode    = "52"
	tagCurrency        = "53"
	tagAmount          = "54"
	tagCountry         = "58"
	tagRecipientName   = "59"
	tagRecipientCity   = "60"
	tagAdditionalData  = "62"
	tagCRC             = "63"
)

// Sub-field tags.
const (
	subTagGUI         = "00" // domain identifier inside field 26
	subTagKey         = "01" // pix key inside field 26
	subTagReferenceID = "05" // reference id inside field 62
)

// Fixed field values.
const (
	formatIndicator  = "01"
	initMethodStatic = "12" // static, reusable code (11 would be single-use)
	pixGUI           = "br.gov.bcb.pix"
	categoryUnknown  = "0000"
	currencyBRL      = "986"
	countryBR        = "BR"
)

// Maximum lengths of the normalized human-readable fields.
const (
	maxNameLen      = 25
	maxCityLen      = 15
	maxReferenceLen = 25
)

// BuildPayload assembles the complete static BR Code for the given
// merchant configuration and payment request. The output is deterministic:
// identical inputs always yield a byte-identical payload.
//
// All validation happens up front and fails with a typed error before any
// encoding work: an empty or malformed key, an empty name or city after
// normalization, or a non-positive/non-finite amount.
func BuildPayload(cfg domain.MerchantConfig, req domain.PaymentRequest) (string, error) {
	key := strings.TrimSpace(cfg.Key)
	if key == "" {
		return "", &domain.ErrValidation{Field: "key", Message: "pix key is required"}
	}
	if !cfg.KeyType.Valid() {
		return "", &domain.ErrValidation{Field: "keyType", Message: "must be email, cpf, cnpj, phone or random"}
	}
	if !ValidateKey(key, cfg.KeyType) {
		return "", &domain.ErrValidation{Field: "key", Message: "key does not match type " + string(cfg.KeyType)}
	}

	name, err := Normalize(cfg.RecipientName, maxNameLen)
	if err != nil {
		return "", &domain.ErrValidation{Field: "recipientName", Message: "must not be empty after normalization"}
	}
	city, err := Normalize(cfg.City, maxCityLen)
	if err != nil {
		return "", &domain.ErrValidation{Field: "city", Message: "must not be empty after normalization"}
	}

	if req.Amount <= 0 || math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) {
		return "", &domain.ErrValidation{Field: "amount", Message: "must be a positive finite value"}
	}
	// Exactly two fraction digits, no separators, no symbol, locale-free.
	amount := strconv.FormatFloat(req.Amount, 'f', 2, 64)

	fields := make([]string, 0, 10)

	appendField := func(tag, value string) error {
		f, err := TLV(tag, value)
		if err != nil {
			return err
		}
		fields = append(fields, f)
		return nil
	}

	if err := appendField(tagFormatIndicator, formatIndicator); err != nil {
		return "", err
	}
	if err := appendField(tagInitMethod, initMethodStatic); err != nil {
		return "", err
	}

	// Field 26: merchant account information, GUI + key sub-fields.
	gui, err := TLV(subTagGUI, pixGUI)
	if err != nil {
		return "", err
	}
	keyField, err := TLV(subTagKey, key)
	if err != nil {
		return "", err
	}
	account, err := Composite(tagMerchantAccount, gui, keyField)
	if err != nil {
		return "", err
	}
	fields = append(fields, account)

	if err := appendField(tagCategoryCode, categoryUnknown); err != nil {
		return "", err
	}
	if err := appendField(tagCurrency, currencyBRL); err != nil {
		return "", err
	}
	if err := appendField(tagAmount, amount); err != nil {
		return "", err
	}
	if err := appendField(tagCountry, countryBR); err != nil {
		return "", err
	}
	if err := appendField(tagRecipientName, name); err != nil {
		return "", err
	}
	if err := appendField(tagRecipientCity, city); err != nil {
		return "", err
	}

	// Field 62: emitted only when a reference id survives normalization.
	// An empty composite is never emitted.
	if ref, err := Normalize(req.ReferenceID, maxReferenceLen); err == nil && ref != "" {
		refField, err := TLV(subTagReferenceID, ref)
		if err != nil {
			return "", err
		}
		additional, err := Composite(tagAdditionalData, refField)
		if err != nil {
			return "", err
		}
		fields = append(fields, additional)
	}

	// The CRC field's tag and length prefix are hashed; its value is not.
	body := strings.Join(fields, "") + tagCRC + "04"
	return body + CRC16(body), nil
}
