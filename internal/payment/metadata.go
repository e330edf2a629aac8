package payment

import (
	"time"

	"github.com/google/uuid"

	"github.com/mvcampos/oticaflow-backend/pkg/enums"
	pkgerrors "github.com/mvcampos/oticaflow-backend/pkg/errors"
)

// Metadata is the method-specific data of one allocation. Exactly one branch
// is set, matching the allocation's method; the rest stay nil so the session
// JSON carries only the relevant fields.
type Metadata struct {
	Card        *CardMetadata        `json:"card,omitempty"`
	Pix         *PixMetadata         `json:"pix,omitempty"`
	Boleto      *BoletoMetadata      `json:"boleto,omitempty"`
	Installment *InstallmentMetadata `json:"installment,omitempty"`
	Crypto      *CryptoMetadata      `json:"crypto,omitempty"`
}

// CardMetadata covers debit and credit card entries.
type CardMetadata struct {
	Token        string `json:"token"`
	Installments int    `json:"installments"`
}

// PixMetadata holds the transaction id or expiry of a PIX charge.
type PixMetadata struct {
	TxID  string     `json:"txid,omitempty"`
	DueAt *time.Time `json:"due_at,omitempty"`
}

// BoletoMetadata holds the boleto due date and, once issued, its our-number.
type BoletoMetadata struct {
	DueDate   *time.Time `json:"due_date,omitempty"`
	OurNumber string     `json:"our_number,omitempty"`
}

// InstallmentMetadata covers in-house installment credit.
type InstallmentMetadata struct {
	Count    int       `json:"count"`
	ClientID uuid.UUID `json:"client_id"`
}

// CryptoMetadata holds the destination for a crypto settlement.
type CryptoMetadata struct {
	Address string         `json:"address"`
	Asset   enums.Currency `json:"asset"`
}

// DefaultMetadata builds the zero-value metadata branch for a method, the
// shape the UI fills in afterwards.
func DefaultMetadata(method enums.PaymentMethod) Metadata {
	switch method {
	case enums.PaymentMethodDebitCard:
		return Metadata{Card: &CardMetadata{Installments: 1}}
	case enums.PaymentMethodCreditCard:
		return Metadata{Card: &CardMetadata{Installments: 1}}
	case enums.PaymentMethodPix:
		return Metadata{Pix: &PixMetadata{}}
	case enums.PaymentMethodBoleto:
		return Metadata{Boleto: &BoletoMetadata{}}
	case enums.PaymentMethodInstallmentCredit:
		return Metadata{Installment: &InstallmentMetadata{Count: 1}}
	case enums.PaymentMethodCrypto:
		return Metadata{Crypto: &CryptoMetadata{Asset: enums.CurrencyBTC}}
	default:
		return Metadata{}
	}
}

func (m Metadata) validateFor(method enums.PaymentMethod) error {
	switch method {
	case enums.PaymentMethodCash:
		return nil
	case enums.PaymentMethodDebitCard:
		if m.Card == nil || m.Card.Token == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "card token required")
		}
		if m.Card.Installments != 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "debit card cannot be split in installments")
		}
		return nil
	case enums.PaymentMethodCreditCard:
		if m.Card == nil || m.Card.Token == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "card token required")
		}
		if m.Card.Installments < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "installments must be at least 1")
		}
		return nil
	case enums.PaymentMethodPix:
		if m.Pix == nil || (m.Pix.TxID == "" && m.Pix.DueAt == nil) {
			return pkgerrors.New(pkgerrors.CodeValidation, "pix entry needs a txid or an expiry")
		}
		return nil
	case enums.PaymentMethodBoleto:
		if m.Boleto == nil || m.Boleto.DueDate == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "boleto due date required")
		}
		return nil
	case enums.PaymentMethodInstallmentCredit:
		if m.Installment == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "installment metadata required")
		}
		if m.Installment.Count < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "installment count must be at least 1")
		}
		if m.Installment.ClientID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "installment credit requires a client")
		}
		return nil
	case enums.PaymentMethodCrypto:
		if m.Crypto == nil || m.Crypto.Address == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "crypto destination address required")
		}
		if m.Crypto.Asset != enums.CurrencyBTC && m.Crypto.Asset != enums.CurrencyETH {
			return pkgerrors.New(pkgerrors.CodeValidation, "unsupported crypto asset")
		}
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}
}
