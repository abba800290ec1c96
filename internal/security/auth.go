package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"
)

var (
	ErrInvalidSignature = errors.New("invalid request signature")
	ErrRequestExpired   = errors.New("request timestamp expired or too far in future")
)

// MaxClockDrift bounds how far a signed timestamp may be from the server clock.
const MaxClockDrift = 5 * time.Minute

// Sign returns the hex HMAC-SHA256 of method + path + body + timestamp.
func Sign(secret, method, path, body, timestamp string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(method + path + body + timestamp))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyHMAC checks a request signature produced by Sign.
//
// Arguments:
//   - secret: the shared secret; empty disables verification.
//   - method, path, body: the request being verified.
//   - timestamp: Unix seconds from the X-Timestamp header.
//   - signature: hex signature from the X-Signature header.
func VerifyHMAC(secret, method, path, body, timestamp, signature string) error {
	return verifyAt(time.Now(), secret, method, path, body, timestamp, signature)
}

func verifyAt(now time.Time, secret, method, path, body, timestamp, signature string) error {
	if secret == "" {
		return nil
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp: %w", err)
	}

	drift := now.Sub(time.Unix(ts, 0))
	if drift < -MaxClockDrift || drift > MaxClockDrift {
		return ErrRequestExpired
	}

	expected := Sign(secret, method, path, body, timestamp)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return ErrInvalidSignature
	}

	return nil
}
