package helpdesk

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// SignWebhookPayload computes the base64-encoded HMAC-SHA256 of a
// payload under the shared webhook secret. This is the signature the
// provider places in its webhook header.
func SignWebhookPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifyWebhookSignature reports whether signature authenticates the
// raw payload bytes under secret. The comparison is constant time in
// the signature contents; mismatched lengths and malformed inputs
// verify as false rather than erroring. The payload must be the exact
// bytes received on the wire, not re-serialized JSON.
func VerifyWebhookSignature(payload []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}
	expected := SignWebhookPayload(payload, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
