package service_test

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/shopspring/decimal"

	"pollku_backend/internals/features/payments/transactions/model"
	"pollku_backend/internals/features/payments/transactions/service"
)

/* ===================== memStore: TransactionStore + InitiationStore ===================== */

type memStore struct {
	txs   map[uuid.UUID]*model.Transaction
	polls map[uuid.UUID]string
	// poll → transaksi yang di-link; tidak ada entry = belum di-link
	pollLinks map[uuid.UUID]uuid.UUID
	wallets   map[uuid.UUID]decimal.Decimal

	updateErr error
	pollErr   error
	createErr error
	walletErr error

	statusUpdates int
	pollWrites    int
	txCalls       int
}

func newMemStore() *memStore {
	return &memStore{
		txs:       map[uuid.UUID]*model.Transaction{},
		polls:     map[uuid.UUID]string{},
		pollLinks: map[uuid.UUID]uuid.UUID{},
		wallets:   map[uuid.UUID]decimal.Decimal{},
	}
}

func (m *memStore) addTransaction(t *model.Transaction) *model.Transaction {
	if t.TransactionID == uuid.Nil {
		t.TransactionID = uuid.New()
	}
	m.txs[t.TransactionID] = t
	return t
}

func (m *memStore) WithinTx(ctx context.Context, fn func(store service.TransactionStore) error) error {
	m.txCalls++
	return fn(m)
}

func (m *memStore) LockByGatewayReference(ctx context.Context, provider, reference string) (*model.Transaction, error) {
	for _, t := range m.txs {
		if t.TransactionGatewayProvider == provider && t.TransactionGatewayTransactionID == reference {
			cp := *t
			return &cp, nil
		}
	}
	return nil, model.ErrTransactionNotFound
}

func (m *memStore) LockByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	t, ok := m.txs[id]
	if !ok {
		return nil, model.ErrTransactionNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memStore) UpdateStatus(ctx context.Context, id uuid.UUID, status model.TransactionStatus, metaPatch map[string]interface{}, at time.Time) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	t, ok := m.txs[id]
	if !ok {
		return model.ErrTransactionNotFound
	}
	m.statusUpdates++
	t.TransactionStatus = status
	t.TransactionMetadata = model.MergeMetadata(t.TransactionMetadata, metaPatch)
	switch status {
	case model.TransactionStatusCompleted:
		t.TransactionCompletedAt = &at
	case model.TransactionStatusFailed:
		t.TransactionFailedAt = &at
	case model.TransactionStatusRefunded:
		t.TransactionRefundedAt = &at
	}
	return nil
}

func (m *memStore) SetPollPaymentStatus(ctx context.Context, pollID, transactionID uuid.UUID, status string) error {
	if m.pollErr != nil {
		return m.pollErr
	}
	if _, ok := m.polls[pollID]; !ok {
		return model.ErrPollNotFound
	}
	if linked, ok := m.pollLinks[pollID]; ok && linked != transactionID {
		return model.ErrPollLinkChanged
	}
	m.pollWrites++
	m.polls[pollID] = status
	m.pollLinks[pollID] = transactionID
	return nil
}

func (m *memStore) CreditWallet(ctx context.Context, userID uuid.UUID, currency string, amount decimal.Decimal) error {
	if m.walletErr != nil {
		return m.walletErr
	}
	bal, ok := m.wallets[userID]
	if !ok {
		return model.ErrWalletNotFound
	}
	m.wallets[userID] = bal.Add(amount)
	return nil
}

func (m *memStore) FailIfPending(ctx context.Context, id uuid.UUID, metaPatch map[string]interface{}, at time.Time) error {
	t, ok := m.txs[id]
	if !ok {
		return model.ErrTransactionNotFound
	}
	if t.TransactionStatus != model.TransactionStatusPending {
		return model.ErrTransactionNotPending
	}
	return m.UpdateStatus(ctx, id, model.TransactionStatusFailed, metaPatch, at)
}

func (m *memStore) Create(ctx context.Context, t *model.Transaction) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.addTransaction(t)
	return nil
}

func (m *memStore) MergeMetadata(ctx context.Context, id uuid.UUID, patch map[string]interface{}) error {
	t, ok := m.txs[id]
	if !ok {
		return model.ErrTransactionNotFound
	}
	t.TransactionMetadata = model.MergeMetadata(t.TransactionMetadata, patch)
	return nil
}

func (m *memStore) PayFromWallet(ctx context.Context, t *model.Transaction) error {
	if m.walletErr != nil {
		return m.walletErr
	}
	m.addTransaction(t)
	if t.TransactionPromotedPollID != nil {
		m.polls[*t.TransactionPromotedPollID] = model.PollPaymentPaid
		m.pollLinks[*t.TransactionPromotedPollID] = t.TransactionID
	}
	return nil
}

/* ===================== publisher ===================== */

type publishedMsg struct {
	topic   string
	key     string
	payload any
}

type recordingPublisher struct {
	msgs []publishedMsg
	err  error
}

func (p *recordingPublisher) Publish(ctx context.Context, topic, key string, payload any) error {
	p.msgs = append(p.msgs, publishedMsg{topic: topic, key: key, payload: payload})
	return p.err
}

/* ===================== snap ===================== */

type stubSnap struct {
	createFn func(req *snap.Request) (*snap.Response, *midtrans.Error)
	lastReq  *snap.Request
}

func (s *stubSnap) CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error) {
	s.lastReq = req
	if s.createFn != nil {
		return s.createFn(req)
	}
	return &snap.Response{Token: "snap-token", RedirectURL: "https://app.sandbox.midtrans.com/snap/v2/vtweb/snap-token"}, nil
}

var errBoom = errors.New("boom")
