package service

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// MidtransNotification = body HTTP notification midtrans (field lain diabaikan).
type MidtransNotification struct {
	TransactionStatus string `json:"transaction_status"`
	StatusCode        string `json:"status_code"`
	SignatureKey      string `json:"signature_key"`
	OrderID           string `json:"order_id"`
	GrossAmount       string `json:"gross_amount"`
	PaymentType       string `json:"payment_type"`
	FraudStatus       string `json:"fraud_status"`
	TransactionID     string `json:"transaction_id"`
	Currency          string `json:"currency"`
	SettlementTime    string `json:"settlement_time"`
	StatusMessage     string `json:"status_message"`
}

func ParseMidtransNotification(raw []byte) (MidtransNotification, error) {
	var n MidtransNotification
	if err := sonic.Unmarshal(raw, &n); err != nil {
		return n, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	n.OrderID = strings.TrimSpace(n.OrderID)
	if n.OrderID == "" || strings.TrimSpace(n.TransactionStatus) == "" {
		return n, fmt.Errorf("%w: missing order_id/transaction_status", ErrMalformedPayload)
	}
	return n, nil
}

func (n MidtransNotification) VerifySignature(serverKey string) bool {
	return VerifyMidtransSignature(n.OrderID, n.StatusCode, n.GrossAmount, serverKey, n.SignatureKey)
}

/*
ToWebhookEvent memetakan status midtrans ke event settlement:

	settlement, capture+accept           → charge.success
	deny, cancel, expire, failure,
	capture+deny                         → charge.failed
	pending, capture+challenge, refund…  → unknown (di-ack saja)
*/
func (n MidtransNotification) ToWebhookEvent() WebhookEvent {
	status := strings.ToLower(strings.TrimSpace(n.TransactionStatus))
	fraud := strings.ToLower(strings.TrimSpace(n.FraudStatus))

	ev := WebhookEvent{
		Name:            "midtrans." + status,
		Kind:            EventUnknown,
		Reference:       n.OrderID,
		GatewayID:       strings.TrimSpace(n.TransactionID),
		GatewayResponse: strings.TrimSpace(n.StatusMessage),
		Channel:         strings.TrimSpace(n.PaymentType),
		Currency:        strings.TrimSpace(n.Currency),
		PaidAt:          strings.TrimSpace(n.SettlementTime),
	}

	switch status {
	case "settlement":
		ev.Kind = EventChargeSuccess
	case "capture":
		switch fraud {
		case "accept", "":
			ev.Kind = EventChargeSuccess
		case "deny":
			ev.Kind = EventChargeFailed
			ev.GatewayResponse = "fraud_denied"
		}
	case "deny", "cancel", "expire", "failure":
		ev.Kind = EventChargeFailed
		if ev.GatewayResponse == "" {
			ev.GatewayResponse = status
		}
	}
	return ev
}
