// Package billing verifies and applies webhook events from the hosted
// billing provider.
package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// signatureTolerance bounds how stale a signed timestamp may be. Replays of
// old deliveries outside the window are rejected.
const signatureTolerance = 5 * time.Minute

// Signature verification failures. All of them mean the request body must
// not be trusted or processed.
var (
	ErrMalformedSignature = errors.New("malformed signature header")
	ErrStaleSignature     = errors.New("signature timestamp outside tolerance")
	ErrInvalidSignature   = errors.New("signature mismatch")
)

// VerifySignature checks a provider signature header of the form
// "t=<unix>,v1=<hex hmac>" against the raw request body. The HMAC-SHA256 is
// computed over "<unix>.<body>" with the shared webhook secret.
func VerifySignature(secret, header string, body []byte, now time.Time) error {
	timestamp, provided, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}

	age := now.Sub(time.Unix(timestamp, 0))
	if age > signatureTolerance || age < -signatureTolerance {
		return ErrStaleSignature
	}

	expected := ComputeSignature(secret, timestamp, body)
	if !hmac.Equal([]byte(expected), []byte(provided)) {
		return ErrInvalidSignature
	}
	return nil
}

// ComputeSignature returns the hex HMAC-SHA256 the provider would send for
// this timestamp and body.
func ComputeSignature(secret string, timestamp int64, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func parseSignatureHeader(header string) (int64, string, error) {
	var timestamp int64
	var signature string
	var sawTimestamp bool

	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			return 0, "", ErrMalformedSignature
		}
		switch key {
		case "t":
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, "", ErrMalformedSignature
			}
			timestamp = parsed
			sawTimestamp = true
		case "v1":
			signature = value
		}
	}

	if !sawTimestamp || signature == "" {
		return 0, "", ErrMalformedSignature
	}
	return timestamp, signature, nil
}
