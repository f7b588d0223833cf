package mpesa

import (
	"encoding/base64"
	"time"
)

// Password builds the STK push request password:
// base64(shortCode + passkey + timestamp). Pure and deterministic.
func Password(shortCode, passkey, timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(shortCode + passkey + timestamp))
}

// Timestamp renders t as the 14-digit YYYYMMDDHHMMSS form the gateway
// validates signatures against. Each signed request needs a fresh one;
// a stale timestamp is rejected by the gateway, not locally.
func Timestamp(t time.Time) string {
	return t.Format("20060102150405")
}
