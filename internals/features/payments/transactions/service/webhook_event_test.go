package service_test

import (
	"errors"
	"testing"

	"pollku_backend/internals/features/payments/transactions/service"
)

func TestParseWebhookEvent_ChargeSuccess(t *testing.T) {
	raw := []byte(`{
		"event": "charge.success",
		"data": {
			"id": 302961,
			"reference": "ref_abc123",
			"gateway_response": "Successful",
			"channel": "card",
			"currency": "NGN",
			"paid_at": "2024-03-01T10:00:00.000Z"
		}
	}`)

	ev, err := service.ParseWebhookEvent(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Kind != service.EventChargeSuccess {
		t.Fatalf("expected charge success, got %s", ev.Kind)
	}
	if ev.Reference != "ref_abc123" {
		t.Fatalf("unexpected reference %q", ev.Reference)
	}
	if ev.GatewayID != "302961" {
		t.Fatalf("expected numeric id as string, got %q", ev.GatewayID)
	}

	patch := ev.MetadataPatch()
	want := map[string]string{
		"gateway_event":    "charge.success",
		"gateway_id":       "302961",
		"gateway_channel":  "card",
		"gateway_paid_at":  "2024-03-01T10:00:00.000Z",
		"gateway_response": "Successful",
	}
	for k, v := range want {
		if patch[k] != v {
			t.Fatalf("patch[%s] = %v, want %v", k, patch[k], v)
		}
	}
	if _, ok := patch["failure_reason"]; ok {
		t.Fatal("success patch must not carry failure_reason")
	}
}

func TestParseWebhookEvent_StringID(t *testing.T) {
	ev, err := service.ParseWebhookEvent([]byte(`{"event":"charge.success","data":{"id":"abc-1","reference":"ref_1"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.GatewayID != "abc-1" {
		t.Fatalf("unexpected id %q", ev.GatewayID)
	}
}

func TestParseWebhookEvent_ChargeFailedReason(t *testing.T) {
	ev, err := service.ParseWebhookEvent([]byte(`{"event":"charge.failed","data":{"reference":"ref_x","gateway_response":"Declined"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Kind != service.EventChargeFailed {
		t.Fatalf("expected charge failed, got %s", ev.Kind)
	}
	if got := ev.MetadataPatch()["failure_reason"]; got != "Declined" {
		t.Fatalf("failure_reason = %v", got)
	}

	ev, err = service.ParseWebhookEvent([]byte(`{"event":"charge.failed","data":{"reference":"ref_x"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ev.MetadataPatch()["failure_reason"]; got != "unknown" {
		t.Fatalf("expected default failure_reason, got %v", got)
	}
}

func TestParseWebhookEvent_UnknownEventIsNotAnError(t *testing.T) {
	ev, err := service.ParseWebhookEvent([]byte(`{"event":"transfer.success","data":{}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Kind != service.EventUnknown {
		t.Fatalf("expected unknown kind, got %s", ev.Kind)
	}
}

func TestParseWebhookEvent_Malformed(t *testing.T) {
	cases := map[string]string{
		"not json":          `not-json`,
		"truncated":         `{"event":"charge.success","data":{`,
		"missing event":     `{"data":{"reference":"ref_1"}}`,
		"missing reference": `{"event":"charge.success","data":{"id":1}}`,
		"object id":         `{"event":"charge.success","data":{"id":{"x":1},"reference":"ref_1"}}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := service.ParseWebhookEvent([]byte(raw))
			if !errors.Is(err, service.ErrMalformedPayload) {
				t.Fatalf("expected ErrMalformedPayload, got %v", err)
			}
		})
	}
}

func TestMidtransNotification_ToWebhookEvent(t *testing.T) {
	tests := []struct {
		status string
		fraud  string
		want   service.EventKind
	}{
		{"settlement", "", service.EventChargeSuccess},
		{"capture", "accept", service.EventChargeSuccess},
		{"capture", "challenge", service.EventUnknown},
		{"capture", "deny", service.EventChargeFailed},
		{"deny", "", service.EventChargeFailed},
		{"cancel", "", service.EventChargeFailed},
		{"expire", "", service.EventChargeFailed},
		{"failure", "", service.EventChargeFailed},
		{"pending", "", service.EventUnknown},
		{"refund", "", service.EventUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.status+"/"+tt.fraud, func(t *testing.T) {
			n := service.MidtransNotification{OrderID: "mid_1", TransactionStatus: tt.status, FraudStatus: tt.fraud}
			ev := n.ToWebhookEvent()
			if ev.Kind != tt.want {
				t.Fatalf("kind = %s, want %s", ev.Kind, tt.want)
			}
			if ev.Reference != "mid_1" {
				t.Fatalf("reference = %q", ev.Reference)
			}
		})
	}
}

func TestParseMidtransNotification_Malformed(t *testing.T) {
	for _, raw := range []string{`{}`, `{"order_id":"mid_1"}`, `[]`, `nope`} {
		if _, err := service.ParseMidtransNotification([]byte(raw)); !errors.Is(err, service.ErrMalformedPayload) {
			t.Fatalf("%s: expected ErrMalformedPayload, got %v", raw, err)
		}
	}
}
