package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignedURLSigner creates and validates signed download tokens.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &SignedURLSigner{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Generate returns a token binding a resource reference (e.g. "notes:42") to its stored file name.
func (s *SignedURLSigner) Generate(ref, storedName string) (string, time.Time, error) {
	if ref == "" || storedName == "" {
		return "", time.Time{}, fmt.Errorf("ref and stored name required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := time.Now().Add(s.ttl)
	encodedRef := base64.RawURLEncoding.EncodeToString([]byte(ref))
	encodedName := base64.RawURLEncoding.EncodeToString([]byte(storedName))
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	signature := s.sign(encodedRef, ts, encodedName)
	return strings.Join([]string{encodedRef, ts, encodedName, signature}, "."), expiresAt, nil
}

// Parse validates a token and returns the embedded reference and stored name.
func (s *SignedURLSigner) Parse(token string) (ref, storedName string, expiresAt time.Time, err error) {
	if len(s.secret) == 0 {
		return "", "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return "", "", time.Time{}, fmt.Errorf("invalid token format")
	}
	encodedRef, ts, encodedName, signature := parts[0], parts[1], parts[2], parts[3]

	expected := s.sign(encodedRef, ts, encodedName)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return "", "", time.Time{}, fmt.Errorf("invalid token signature")
	}

	expUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("invalid timestamp")
	}
	expiresAt = time.Unix(expUnix, 0)
	if time.Now().After(expiresAt) {
		return "", "", time.Time{}, fmt.Errorf("token expired")
	}

	rawRef, err := base64.RawURLEncoding.DecodeString(encodedRef)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("decode ref: %w", err)
	}
	rawName, err := base64.RawURLEncoding.DecodeString(encodedName)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("decode stored name: %w", err)
	}
	return string(rawRef), string(rawName), expiresAt, nil
}

func (s *SignedURLSigner) sign(parts ...string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(mac.Sum(nil))
}
