package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

var ErrMalformedPayload = errors.New("malformed webhook payload")

type EventKind int

const (
	EventUnknown EventKind = iota
	EventChargeSuccess
	EventChargeFailed
)

const (
	EventNameChargeSuccess = "charge.success"
	EventNameChargeFailed  = "charge.failed"
)

func (k EventKind) String() string {
	switch k {
	case EventChargeSuccess:
		return "charge_success"
	case EventChargeFailed:
		return "charge_failed"
	default:
		return "unknown"
	}
}

// WebhookEvent = event gateway yang sudah dinormalisasi (paystack / midtrans).
type WebhookEvent struct {
	Name            string
	Kind            EventKind
	Reference       string
	GatewayID       string
	GatewayResponse string
	Channel         string
	Currency        string
	PaidAt          string
}

// flexString menerima string atau number JSON (paystack kirim data.id sebagai angka).
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	switch {
	case raw == "" || raw == "null":
		return nil
	case raw[0] == '"':
		var s string
		if err := sonic.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	case raw[0] == '{' || raw[0] == '[' || raw == "true" || raw == "false":
		return fmt.Errorf("unexpected json value %s", raw)
	default:
		*f = flexString(raw)
		return nil
	}
}

type paystackPayload struct {
	Event string `json:"event"`
	Data  struct {
		ID              flexString `json:"id"`
		Reference       string     `json:"reference"`
		GatewayResponse string     `json:"gateway_response"`
		Channel         string     `json:"channel"`
		Currency        string     `json:"currency"`
		PaidAt          string     `json:"paid_at"`
	} `json:"data"`
}

// ParseWebhookEvent parse body paystack. Event di luar charge.success/charge.failed
// dikembalikan sebagai EventUnknown tanpa error.
func ParseWebhookEvent(raw []byte) (WebhookEvent, error) {
	var p paystackPayload
	if err := sonic.Unmarshal(raw, &p); err != nil {
		return WebhookEvent{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	ev := WebhookEvent{
		Name:            strings.TrimSpace(p.Event),
		Reference:       strings.TrimSpace(p.Data.Reference),
		GatewayID:       strings.TrimSpace(string(p.Data.ID)),
		GatewayResponse: strings.TrimSpace(p.Data.GatewayResponse),
		Channel:         strings.TrimSpace(p.Data.Channel),
		Currency:        strings.TrimSpace(p.Data.Currency),
		PaidAt:          strings.TrimSpace(p.Data.PaidAt),
	}
	if ev.Name == "" {
		return ev, fmt.Errorf("%w: missing event", ErrMalformedPayload)
	}

	switch ev.Name {
	case EventNameChargeSuccess:
		ev.Kind = EventChargeSuccess
	case EventNameChargeFailed:
		ev.Kind = EventChargeFailed
	default:
		ev.Kind = EventUnknown
		return ev, nil
	}

	if ev.Reference == "" {
		return ev, fmt.Errorf("%w: missing data.reference", ErrMalformedPayload)
	}
	return ev, nil
}

// MetadataPatch berisi data gateway yang di-merge ke transaction_metadata.
func (ev WebhookEvent) MetadataPatch() map[string]interface{} {
	patch := map[string]interface{}{
		"gateway_event": ev.Name,
	}
	put := func(k, v string) {
		if v != "" {
			patch[k] = v
		}
	}

	put("gateway_id", ev.GatewayID)
	switch ev.Kind {
	case EventChargeSuccess:
		put("gateway_channel", ev.Channel)
		put("gateway_paid_at", ev.PaidAt)
		put("gateway_response", ev.GatewayResponse)
	case EventChargeFailed:
		reason := ev.GatewayResponse
		if reason == "" {
			reason = "unknown"
		}
		patch["failure_reason"] = reason
	}
	return patch
}
