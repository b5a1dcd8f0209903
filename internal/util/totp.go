package util

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

const (
	totpSecretBytes = 20
	totpPeriod      = 30
	totpDigits      = 6
	totpSkew        = 1
)

var totpEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// GenerateTOTPSecret returns a fresh base32-encoded shared secret for
// authenticator-app enrollment.
func GenerateTOTPSecret() (string, error) {
	raw := make([]byte, totpSecretBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return totpEncoding.EncodeToString(raw), nil
}

// TOTPCode computes the current 6-digit code for a shared secret.
func TOTPCode(secretBase32 string, now time.Time) (string, error) {
	secret, err := totpEncoding.DecodeString(secretBase32)
	if err != nil {
		return "", err
	}
	return hotpCode(secret, now.Unix()/totpPeriod), nil
}

// VerifyTOTP checks a submitted 6-digit code against the shared secret at the
// given time, tolerating one 30-second step of clock skew either side. Input
// that is not exactly six ASCII digits is invalid, never an error.
func VerifyTOTP(secretBase32, code string, now time.Time) bool {
	if len(code) != totpDigits || !isDigits(code) {
		return false
	}
	secret, err := totpEncoding.DecodeString(secretBase32)
	if err != nil || len(secret) == 0 {
		return false
	}

	base := now.Unix() / totpPeriod
	for step := int64(-totpSkew); step <= totpSkew; step++ {
		counter := base + step
		if counter < 0 {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(hotpCode(secret, counter)), []byte(code)) == 1 {
			return true
		}
	}
	return false
}

// TOTPProvisionURI builds the otpauth:// enrollment URI rendered as a QR code
// by the client. It is returned once at registration and never persisted.
func TOTPProvisionURI(secretBase32, account, issuer string) string {
	label := url.PathEscape(issuer + ":" + account)

	v := url.Values{}
	v.Set("secret", secretBase32)
	v.Set("issuer", issuer)
	v.Set("algorithm", "SHA1")
	v.Set("digits", strconv.Itoa(totpDigits))
	v.Set("period", strconv.Itoa(totpPeriod))

	return "otpauth://totp/" + label + "?" + v.Encode()
}

func hotpCode(secret []byte, counter int64) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(counter))

	mac := hmac.New(sha1.New, secret)
	_, _ = mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	bin := (int(sum[offset])&0x7f)<<24 |
		(int(sum[offset+1])&0xff)<<16 |
		(int(sum[offset+2])&0xff)<<8 |
		(int(sum[offset+3]) & 0xff)

	return fmt.Sprintf("%06d", bin%1000000)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
