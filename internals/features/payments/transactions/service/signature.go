package service

import (
	"crypto/hmac"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"
)

const PaystackSignatureHeader = "x-paystack-signature"

var ErrInvalidSignature = errors.New("invalid signature")

// ComputeSignature = hex(HMAC-SHA512(secret, rawBody)), lower-case.
func ComputeSignature(rawBody []byte, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(rawBody)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature wajib dipanggil atas body mentah (sebelum parse JSON).
// Signature kosong atau secret kosong selalu ditolak.
func VerifySignature(rawBody []byte, signature string, secret string) bool {
	sig := strings.ToLower(strings.TrimSpace(signature))
	if sig == "" || secret == "" {
		return false
	}
	want := ComputeSignature(rawBody, secret)
	return hmac.Equal([]byte(want), []byte(sig))
}

// VerifyMidtransSignature: SHA512(order_id + status_code + gross_amount + server_key).
func VerifyMidtransSignature(orderID, statusCode, grossAmount, serverKey, signature string) bool {
	sig := strings.ToLower(strings.TrimSpace(signature))
	if sig == "" || serverKey == "" {
		return false
	}
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	want := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(want), []byte(sig)) == 1
}
