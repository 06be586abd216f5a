package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidResetToken = errors.New("invalid or expired reset token")

// GenerateResetToken signs email and issue time together with the current
// password hash, so the token stops working once the password changes.
// Format: base64url(email ":" unix ":" sig).
func GenerateResetToken(secret, email, passwordHash string, now time.Time) string {
	msg := email + ":" + strconv.FormatInt(now.Unix(), 10)
	sig := resetSignature(secret, msg, passwordHash)
	payload := append([]byte(msg+":"), sig...)
	return base64.RawURLEncoding.EncodeToString(payload)
}

// ParseResetToken extracts the email without checking the signature; callers
// look the user up and then call VerifyResetToken.
func ParseResetToken(token string) (email string, issued time.Time, err error) {
	msg, _, err := splitResetToken(token)
	if err != nil {
		return "", time.Time{}, err
	}
	i := strings.LastIndexByte(msg, ':')
	ts, perr := strconv.ParseInt(msg[i+1:], 10, 64)
	if i <= 0 || perr != nil || ts <= 0 {
		return "", time.Time{}, ErrInvalidResetToken
	}
	return msg[:i], time.Unix(ts, 0).UTC(), nil
}

func VerifyResetToken(secret, token, passwordHash string, maxAge time.Duration, now time.Time) error {
	msg, sig, err := splitResetToken(token)
	if err != nil {
		return err
	}
	if !hmac.Equal(sig, resetSignature(secret, msg, passwordHash)) {
		return ErrInvalidResetToken
	}
	_, issued, err := ParseResetToken(token)
	if err != nil {
		return err
	}
	if now.Sub(issued) > maxAge || issued.After(now.Add(time.Minute)) {
		return ErrInvalidResetToken
	}
	return nil
}

func splitResetToken(token string) (string, []byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil || len(raw) <= sha256.Size+1 {
		return "", nil, ErrInvalidResetToken
	}
	body := raw[:len(raw)-sha256.Size]
	sig := raw[len(raw)-sha256.Size:]
	if body[len(body)-1] != ':' {
		return "", nil, ErrInvalidResetToken
	}
	return string(body[:len(body)-1]), sig, nil
}

func resetSignature(secret, msg, passwordHash string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("password-reset\x00"))
	mac.Write([]byte(msg))
	mac.Write([]byte{0})
	mac.Write([]byte(passwordHash))
	return mac.Sum(nil)
}
