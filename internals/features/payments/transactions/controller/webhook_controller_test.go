package controller_test

import (
	"bytes"
	"context"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"pollku_backend/internals/configs"
	"pollku_backend/internals/features/payments/transactions/controller"
	"pollku_backend/internals/features/payments/transactions/model"
	"pollku_backend/internals/features/payments/transactions/service"
)

const (
	testSecret    = "sk_test_secret"
	testServerKey = "SB-Mid-server-test"
)

/* ===================== stubs ===================== */

type stubSettler struct {
	fn    func(provider string, ev service.WebhookEvent) (service.SettlementResult, error)
	calls []service.WebhookEvent
}

func (s *stubSettler) Apply(ctx context.Context, provider string, ev service.WebhookEvent) (service.SettlementResult, error) {
	s.calls = append(s.calls, ev)
	if s.fn != nil {
		return s.fn(provider, ev)
	}
	return service.SettlementResult{TransactionID: uuid.New(), Status: model.TransactionStatusCompleted, Changed: true}, nil
}

type stubEventLog struct {
	recorded []*model.GatewayEvent
	finished []model.GatewayEventOutcome
}

func (s *stubEventLog) Record(ctx context.Context, ev *model.GatewayEvent) error {
	s.recorded = append(s.recorded, ev)
	return nil
}

func (s *stubEventLog) Finish(ctx context.Context, id uuid.UUID, out model.GatewayEventOutcome) error {
	s.finished = append(s.finished, out)
	return nil
}

func (s *stubEventLog) last() model.GatewayEventOutcome {
	if len(s.finished) == 0 {
		return model.GatewayEventOutcome{}
	}
	return s.finished[len(s.finished)-1]
}

type memGuard struct {
	keys map[string]time.Duration
}

func (g *memGuard) Seen(ctx context.Context, key string) (bool, error) {
	_, ok := g.keys[key]
	return ok, nil
}

func (g *memGuard) Remember(ctx context.Context, key string, ttl time.Duration) error {
	g.keys[key] = ttl
	return nil
}

type fixture struct {
	app     *fiber.App
	settler *stubSettler
	events  *stubEventLog
	guard   *memGuard
}

func newFixture() *fixture {
	f := &fixture{
		settler: &stubSettler{},
		events:  &stubEventLog{},
		guard:   &memGuard{keys: map[string]time.Duration{}},
	}
	ctl := controller.NewWebhookController(f.settler, f.events, f.guard, configs.PaymentConfig{
		PaystackSecretKey: testSecret,
		MidtransServerKey: testServerKey,
		DeliveryTTL:       time.Hour,
	})
	f.app = fiber.New()
	f.app.Post("/api/webhooks/paystack", ctl.Paystack)
	f.app.Post("/api/webhooks/midtrans", ctl.Midtrans)
	return f
}

func (f *fixture) paystack(t *testing.T, body []byte, sig string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/api/webhooks/paystack", bytes.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if sig != "" {
		req.Header.Set(service.PaystackSignatureHeader, sig)
	}
	return do(t, f.app, req)
}

func (f *fixture) midtrans(t *testing.T, body []byte) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/api/webhooks/midtrans", bytes.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return do(t, f.app, req)
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	out := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("response is not json: %s", raw)
		}
	}
	return resp.StatusCode, out
}

func signed(body []byte) string { return service.ComputeSignature(body, testSecret) }

const chargeSuccess = `{"event":"charge.success","data":{"id":302961,"reference":"ref_abc123","status":"success","gateway_response":"Successful","channel":"card"}}`

/* ===================== paystack ===================== */

func TestPaystackWebhook_Success(t *testing.T) {
	f := newFixture()
	body := []byte(chargeSuccess)

	code, out := f.paystack(t, body, signed(body))
	if code != fiber.StatusOK || out["success"] != true {
		t.Fatalf("got %d %v", code, out)
	}
	if len(f.settler.calls) != 1 {
		t.Fatalf("expected one settlement, got %d", len(f.settler.calls))
	}
	ev := f.settler.calls[0]
	if ev.Kind != service.EventChargeSuccess || ev.Reference != "ref_abc123" || ev.GatewayID != "302961" {
		t.Fatalf("unexpected event %+v", ev)
	}
	if len(f.events.recorded) != 1 || f.events.last().Status != model.GatewayEventStatusProcessed {
		t.Fatalf("gateway event not recorded as processed: %+v", f.events.finished)
	}
	if f.events.last().TransactionID == nil {
		t.Fatal("processed gateway event must be linked to the transaction")
	}
	if ttl, ok := f.guard.keys[service.DeliveryKey(model.ProviderPaystack, body)]; !ok || ttl != time.Hour {
		t.Fatal("delivery must be remembered with the configured ttl")
	}
}

func TestPaystackWebhook_InvalidSignature(t *testing.T) {
	body := []byte(chargeSuccess)
	cases := map[string]struct {
		body []byte
		sig  string
	}{
		"missing header": {body: body, sig: ""},
		"wrong secret":   {body: body, sig: service.ComputeSignature(body, "other")},
		"tampered body":  {body: []byte(string(body) + " "), sig: signed(body)},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			code, out := f.paystack(t, tc.body, tc.sig)
			if code != fiber.StatusBadRequest || out["error"] != "invalid signature" {
				t.Fatalf("got %d %v", code, out)
			}
			if len(f.settler.calls) != 0 {
				t.Fatal("unsigned request must never reach settlement")
			}
			if f.events.last().Status != model.GatewayEventStatusRejected {
				t.Fatalf("gateway event status = %s", f.events.last().Status)
			}
		})
	}
}

func TestPaystackWebhook_MalformedPayload(t *testing.T) {
	for name, body := range map[string]string{
		"not json":          `{"event":`,
		"missing reference": `{"event":"charge.success","data":{"id":1}}`,
		"missing event":     `{"data":{"reference":"ref_abc123"}}`,
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			code, out := f.paystack(t, []byte(body), signed([]byte(body)))
			if code != fiber.StatusBadRequest {
				t.Fatalf("got %d %v", code, out)
			}
			if _, ok := out["error"]; !ok {
				t.Fatalf("expected error body, got %v", out)
			}
			if len(f.settler.calls) != 0 {
				t.Fatal("malformed payload must not be settled")
			}
		})
	}
}

func TestPaystackWebhook_UnknownEventIsAcknowledged(t *testing.T) {
	f := newFixture()
	body := []byte(`{"event":"transfer.success","data":{"reference":"trf_1"}}`)

	code, out := f.paystack(t, body, signed(body))
	if code != fiber.StatusOK || out["received"] != true {
		t.Fatalf("got %d %v", code, out)
	}
	if len(f.settler.calls) != 0 {
		t.Fatal("unknown events must not be settled")
	}
	if f.events.last().Status != model.GatewayEventStatusIgnored {
		t.Fatalf("gateway event status = %s", f.events.last().Status)
	}
}

func TestPaystackWebhook_TransactionNotFound(t *testing.T) {
	f := newFixture()
	f.settler.fn = func(string, service.WebhookEvent) (service.SettlementResult, error) {
		return service.SettlementResult{}, model.ErrTransactionNotFound
	}
	body := []byte(chargeSuccess)

	code, out := f.paystack(t, body, signed(body))
	if code != fiber.StatusNotFound || out["error"] != "transaction not found" {
		t.Fatalf("got %d %v", code, out)
	}
	if _, ok := f.guard.keys[service.DeliveryKey(model.ProviderPaystack, body)]; ok {
		t.Fatal("failed deliveries must not be remembered")
	}
}

func TestPaystackWebhook_SettlementError(t *testing.T) {
	f := newFixture()
	f.settler.fn = func(string, service.WebhookEvent) (service.SettlementResult, error) {
		return service.SettlementResult{}, errors.New("connection reset")
	}
	body := []byte(chargeSuccess)

	code, out := f.paystack(t, body, signed(body))
	if code != fiber.StatusInternalServerError || out["error"] != "failed to update transaction" {
		t.Fatalf("got %d %v", code, out)
	}
	if f.events.last().Status != model.GatewayEventStatusFailed {
		t.Fatalf("gateway event status = %s", f.events.last().Status)
	}
}

func TestPaystackWebhook_DuplicateDeliveryIsAcknowledged(t *testing.T) {
	f := newFixture()
	body := []byte(chargeSuccess)

	if code, _ := f.paystack(t, body, signed(body)); code != fiber.StatusOK {
		t.Fatalf("first delivery got %d", code)
	}
	code, out := f.paystack(t, body, signed(body))
	if code != fiber.StatusOK || out["received"] != true {
		t.Fatalf("got %d %v", code, out)
	}
	if len(f.settler.calls) != 1 {
		t.Fatalf("duplicate delivery must not be settled again, calls=%d", len(f.settler.calls))
	}
}

func TestPaystackWebhook_IgnoredSettlementStillSucceeds(t *testing.T) {
	f := newFixture()
	f.settler.fn = func(string, service.WebhookEvent) (service.SettlementResult, error) {
		return service.SettlementResult{TransactionID: uuid.New(), Status: model.TransactionStatusCompleted, Ignored: true}, nil
	}
	body := []byte(`{"event":"charge.failed","data":{"reference":"ref_abc123","gateway_response":"Declined"}}`)

	code, out := f.paystack(t, body, signed(body))
	if code != fiber.StatusOK || out["success"] != true {
		t.Fatalf("got %d %v", code, out)
	}
	if f.events.last().Status != model.GatewayEventStatusIgnored {
		t.Fatalf("gateway event status = %s", f.events.last().Status)
	}
}

/* ===================== midtrans ===================== */

func midtransBody(t *testing.T, status, fraud, key string) []byte {
	t.Helper()
	orderID, code, gross := "mid_abc123", "200", "5000.00"
	sum := sha512.Sum512([]byte(orderID + code + gross + key))
	b, err := json.Marshal(map[string]string{
		"order_id":           orderID,
		"status_code":        code,
		"gross_amount":       gross,
		"transaction_status": status,
		"fraud_status":       fraud,
		"transaction_id":     "b4f1c2",
		"payment_type":       "bank_transfer",
		"signature_key":      hex.EncodeToString(sum[:]),
	})
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestMidtransWebhook_Settlement(t *testing.T) {
	f := newFixture()

	code, out := f.midtrans(t, midtransBody(t, "settlement", "", testServerKey))
	if code != fiber.StatusOK || out["success"] != true {
		t.Fatalf("got %d %v", code, out)
	}
	if len(f.settler.calls) != 1 || f.settler.calls[0].Kind != service.EventChargeSuccess {
		t.Fatalf("unexpected settlement calls %+v", f.settler.calls)
	}
	if f.settler.calls[0].Reference != "mid_abc123" {
		t.Fatalf("reference = %s", f.settler.calls[0].Reference)
	}
}

func TestMidtransWebhook_InvalidSignature(t *testing.T) {
	f := newFixture()

	code, out := f.midtrans(t, midtransBody(t, "settlement", "", "wrong-key"))
	if code != fiber.StatusUnauthorized || out["error"] != "invalid signature" {
		t.Fatalf("got %d %v", code, out)
	}
	if len(f.settler.calls) != 0 {
		t.Fatal("invalid signature must not be settled")
	}
}

func TestMidtransWebhook_PendingIsAcknowledged(t *testing.T) {
	f := newFixture()

	code, out := f.midtrans(t, midtransBody(t, "pending", "", testServerKey))
	if code != fiber.StatusOK || out["received"] != true {
		t.Fatalf("got %d %v", code, out)
	}
	if len(f.settler.calls) != 0 {
		t.Fatal("pending notification must not be settled")
	}
}

func TestMidtransWebhook_Malformed(t *testing.T) {
	f := newFixture()

	code, _ := f.midtrans(t, []byte(`{"transaction_status":"settlement"}`))
	if code != fiber.StatusBadRequest {
		t.Fatalf("got %d", code)
	}
}
