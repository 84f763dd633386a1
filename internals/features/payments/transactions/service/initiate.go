package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/shopspring/decimal"

	"pollku_backend/internals/features/payments/transactions/model"
)

var (
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrUnsupportedMethod  = errors.New("unsupported payment method")
	ErrGatewayUnavailable = errors.New("payment gateway is not configured")
	ErrGateway            = errors.New("payment gateway error")
)

// failure_reason untuk transaksi pending yang digantikan checkout baru.
const FailureSuperseded = "superseded"

// Metode bayar yang bisa dipilih client.
const (
	MethodPaystack = "paystack"
	MethodMidtrans = "midtrans"
	MethodWallet   = "wallet"
)

/* =========================================================
   Midtrans Snap handle (di-inject, bukan global)
========================================================= */

type SnapCreator interface {
	CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error)
}

// NewSnapClient dipanggil sekali saat bootstrap. serverKey kosong → nil (midtrans nonaktif).
func NewSnapClient(serverKey string, useProduction bool) *snap.Client {
	if serverKey == "" {
		return nil
	}
	var c snap.Client
	if useProduction {
		c.New(serverKey, midtrans.Production)
	} else {
		c.New(serverKey, midtrans.Sandbox)
	}
	return &c
}

type CustomerInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type InitiateInput struct {
	UserID         uuid.UUID
	PromotedPollID *uuid.UUID
	Amount         decimal.Decimal
	Currency       string
	Method         string
	Description    string
	Customer       CustomerInput
}

// Checkout = info yang dibutuhkan client untuk menyelesaikan pembayaran.
type Checkout struct {
	TransactionID uuid.UUID               `json:"transaction_id"`
	Provider      string                  `json:"provider"`
	Reference     string                  `json:"reference"`
	Status        model.TransactionStatus `json:"status"`
	Amount        decimal.Decimal         `json:"amount"`
	AmountMinor   int64                   `json:"amount_minor"`
	Currency      string                  `json:"currency"`
	PublicKey     string                  `json:"public_key,omitempty"`
	SnapToken     string                  `json:"snap_token,omitempty"`
	RedirectURL   string                  `json:"redirect_url,omitempty"`
}

type Initiator struct {
	Store             InitiationStore
	Snap              SnapCreator
	PaystackPublicKey string
	DefaultCurrency   string
	NewReference      func(prefix string) string
	Now               func() time.Time
}

func NewReference(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Start membuat transaksi pending (atau completed untuk wallet) beserta reference gateway-nya.
// Row transaksi selalu tersimpan sebelum client diarahkan ke gateway.
func (s *Initiator) Start(ctx context.Context, in InitiateInput) (*model.Transaction, Checkout, error) {
	if !in.Amount.IsPositive() {
		return nil, Checkout{}, ErrInvalidAmount
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = s.DefaultCurrency
	}
	now := s.now()

	meta := map[string]interface{}{}
	if d := strings.TrimSpace(in.Description); d != "" {
		meta["description"] = d
	}

	t := &model.Transaction{
		TransactionID:             uuid.New(),
		TransactionUserID:         in.UserID,
		TransactionPromotedPollID: in.PromotedPollID,
		TransactionAmount:         in.Amount.Round(2),
		TransactionCurrency:       currency,
		TransactionStatus:         model.TransactionStatusPending,
		TransactionMetadata:       model.MergeMetadata(nil, meta),
	}

	switch strings.ToLower(strings.TrimSpace(in.Method)) {
	case MethodPaystack:
		t.TransactionGatewayProvider = model.ProviderPaystack
		t.TransactionPaymentMethod = model.PaymentMethodCard
		t.TransactionGatewayTransactionID = s.reference("ref_")
		if err := s.Store.Create(ctx, t); err != nil {
			return nil, Checkout{}, err
		}
		co := checkoutFor(t)
		co.PublicKey = s.PaystackPublicKey
		return t, co, nil

	case MethodMidtrans:
		if s.Snap == nil {
			return nil, Checkout{}, ErrGatewayUnavailable
		}
		t.TransactionGatewayProvider = model.ProviderMidtrans
		t.TransactionPaymentMethod = model.PaymentMethodGateway
		t.TransactionGatewayTransactionID = s.reference("mid_")
		if err := s.Store.Create(ctx, t); err != nil {
			return nil, Checkout{}, err
		}

		resp, merr := s.Snap.CreateTransaction(buildSnapRequest(t, in))
		if merr != nil {
			reason := merr.Error()
			if err := s.Store.UpdateStatus(ctx, t.TransactionID, model.TransactionStatusFailed,
				map[string]interface{}{"failure_reason": reason}, now); err != nil {
				log.Printf("[PAYMENT][ERROR] gagal menandai transaksi %s failed: %v", t.TransactionID, err)
			}
			return nil, Checkout{}, fmt.Errorf("%w: %s", ErrGateway, reason)
		}

		patch := map[string]interface{}{"snap_token": resp.Token, "redirect_url": resp.RedirectURL}
		if err := s.Store.MergeMetadata(ctx, t.TransactionID, patch); err != nil {
			log.Printf("[PAYMENT][WARN] simpan snap token transaksi %s gagal: %v", t.TransactionID, err)
		}
		t.TransactionMetadata = model.MergeMetadata(t.TransactionMetadata, patch)

		co := checkoutFor(t)
		co.SnapToken = resp.Token
		co.RedirectURL = resp.RedirectURL
		return t, co, nil

	case MethodWallet:
		t.TransactionGatewayProvider = model.ProviderWallet
		t.TransactionPaymentMethod = model.PaymentMethodWallet
		t.TransactionGatewayTransactionID = s.reference("wal_")
		t.TransactionStatus = model.TransactionStatusCompleted
		t.TransactionCompletedAt = &now
		if err := s.Store.PayFromWallet(ctx, t); err != nil {
			return nil, Checkout{}, err
		}
		return t, checkoutFor(t), nil
	}

	return nil, Checkout{}, fmt.Errorf("%w: %q", ErrUnsupportedMethod, in.Method)
}

// Supersede menutup transaksi pending lama sebelum checkout baru dibuat (retry pembayaran poll).
// Transaksi yang sudah settle → model.ErrTransactionNotPending; pemanggil tidak boleh membuat checkout baru.
func (s *Initiator) Supersede(ctx context.Context, id uuid.UUID) error {
	return s.Store.FailIfPending(ctx, id, map[string]interface{}{"failure_reason": FailureSuperseded}, s.now())
}

func checkoutFor(t *model.Transaction) Checkout {
	return Checkout{
		TransactionID: t.TransactionID,
		Provider:      t.TransactionGatewayProvider,
		Reference:     t.TransactionGatewayTransactionID,
		Status:        t.TransactionStatus,
		Amount:        t.TransactionAmount,
		AmountMinor:   t.TransactionAmount.Shift(2).IntPart(),
		Currency:      t.TransactionCurrency,
	}
}

func buildSnapRequest(t *model.Transaction, in InitiateInput) *snap.Request {
	gross := t.TransactionAmount.Ceil().IntPart()
	name := "Promoted poll"
	if d, ok := t.TransactionMetadata["description"].(string); ok && d != "" {
		name = truncate(d, 50)
	}

	return &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  t.TransactionGatewayTransactionID,
			GrossAmt: gross,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: in.Customer.FirstName,
			LName: in.Customer.LastName,
			Email: in.Customer.Email,
			Phone: in.Customer.Phone,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:       t.TransactionID.String(),
				Price:    gross,
				Qty:      1,
				Name:     name,
				Category: "promoted_poll",
			},
		},
	}
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}

func (s *Initiator) reference(prefix string) string {
	if s.NewReference != nil {
		return s.NewReference(prefix)
	}
	return NewReference(prefix)
}

func (s *Initiator) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
