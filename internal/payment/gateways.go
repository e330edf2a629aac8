package payment

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	pkgerrors "github.com/mvcampos/oticaflow-backend/pkg/errors"

	"github.com/mvcampos/oticaflow-backend/pkg/enums"
)

// The stub gateways below settle locally. They mimic the external acquirer
// contracts closely enough for the counter flow: cards need a vault token,
// PIX charges get a generated txid, boletos get an our-number.

// CashGateway confirms immediately, cash needs no acquirer.
type CashGateway struct{}

func (CashGateway) Authorize(_ context.Context, allocation Allocation) (Confirmation, error) {
	return Confirmation{
		Ref:          fmt.Sprintf("cash-%s", randomRef()),
		AuthorizedAt: time.Now().UTC(),
	}, nil
}

// CardGateway authorizes debit and credit entries against a vault token.
type CardGateway struct{}

func (CardGateway) Authorize(ctx context.Context, allocation Allocation) (Confirmation, error) {
	if err := ctx.Err(); err != nil {
		return Confirmation{}, err
	}
	if allocation.Metadata.Card == nil || allocation.Metadata.Card.Token == "" {
		return Confirmation{}, pkgerrors.New(pkgerrors.CodePaymentAuthorization, "missing card token")
	}
	return Confirmation{
		Ref:          fmt.Sprintf("card-%s", randomRef()),
		AuthorizedAt: time.Now().UTC(),
	}, nil
}

// PixGateway issues a txid when the charge does not carry one yet.
type PixGateway struct{}

func (PixGateway) Authorize(ctx context.Context, allocation Allocation) (Confirmation, error) {
	if err := ctx.Err(); err != nil {
		return Confirmation{}, err
	}
	txid := ""
	if allocation.Metadata.Pix != nil {
		txid = allocation.Metadata.Pix.TxID
	}
	if txid == "" {
		txid = randomRef()
	}
	return Confirmation{
		Ref:          fmt.Sprintf("pix-%s", txid),
		AuthorizedAt: time.Now().UTC(),
	}, nil
}

// BoletoGateway registers the slip and returns its our-number.
type BoletoGateway struct{}

func (BoletoGateway) Authorize(ctx context.Context, allocation Allocation) (Confirmation, error) {
	if err := ctx.Err(); err != nil {
		return Confirmation{}, err
	}
	if allocation.Metadata.Boleto == nil || allocation.Metadata.Boleto.DueDate == nil {
		return Confirmation{}, pkgerrors.New(pkgerrors.CodePaymentAuthorization, "missing boleto due date")
	}
	ourNumber := allocation.Metadata.Boleto.OurNumber
	if ourNumber == "" {
		ourNumber = randomRef()
	}
	return Confirmation{
		Ref:          fmt.Sprintf("boleto-%s", ourNumber),
		AuthorizedAt: time.Now().UTC(),
	}, nil
}

// InstallmentGateway books in-house credit; headroom was already validated.
type InstallmentGateway struct{}

func (InstallmentGateway) Authorize(ctx context.Context, allocation Allocation) (Confirmation, error) {
	if err := ctx.Err(); err != nil {
		return Confirmation{}, err
	}
	if allocation.Metadata.Installment == nil {
		return Confirmation{}, pkgerrors.New(pkgerrors.CodePaymentAuthorization, "missing installment metadata")
	}
	return Confirmation{
		Ref:          fmt.Sprintf("crediario-%s", randomRef()),
		AuthorizedAt: time.Now().UTC(),
	}, nil
}

// CryptoGateway verifies a destination address is present.
type CryptoGateway struct{}

func (CryptoGateway) Authorize(ctx context.Context, allocation Allocation) (Confirmation, error) {
	if err := ctx.Err(); err != nil {
		return Confirmation{}, err
	}
	if allocation.Metadata.Crypto == nil || allocation.Metadata.Crypto.Address == "" {
		return Confirmation{}, pkgerrors.New(pkgerrors.CodePaymentAuthorization, "missing destination address")
	}
	return Confirmation{
		Ref:          fmt.Sprintf("crypto-%s", randomRef()),
		AuthorizedAt: time.Now().UTC(),
	}, nil
}

// DefaultGateways wires every supported method to its stub gateway.
func DefaultGateways() GatewayRegistry {
	return GatewayRegistry{
		enums.PaymentMethodCash:              CashGateway{},
		enums.PaymentMethodDebitCard:         CardGateway{},
		enums.PaymentMethodCreditCard:        CardGateway{},
		enums.PaymentMethodPix:               PixGateway{},
		enums.PaymentMethodBoleto:            BoletoGateway{},
		enums.PaymentMethodInstallmentCredit: InstallmentGateway{},
		enums.PaymentMethodCrypto:            CryptoGateway{},
	}
}

func randomRef() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
