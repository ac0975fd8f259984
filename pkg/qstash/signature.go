package qstash

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidSignature = errors.New("invalid qstash signature")

const signatureIssuer = "Upstash"

// signatureClaims is the payload of an Upstash-Signature token. Body is the
// base64url sha256 of the request body.
type signatureClaims struct {
	Body string `json:"body"`
	jwt.RegisteredClaims
}

// Verify checks the Upstash-Signature header of a delivery against the current
// signing key, then the next one during key rotation. url is matched against the
// token subject when non-empty.
func (c *Client) Verify(signature string, body []byte, url string) error {
	var errs []error
	for _, key := range []string{c.currentSigningKey, c.nextSigningKey} {
		if key == "" {
			continue
		}
		err := verifyWithKey(signature, key, body, url, c.now())
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return fmt.Errorf("%w: no signing key configured", ErrInvalidSignature)
	}
	return errors.Join(errs...)
}

func verifyWithKey(token, key string, body []byte, url string, now time.Time) error {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(signatureIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	}
	if url != "" {
		opts = append(opts, jwt.WithSubject(url))
	}

	var claims signatureClaims
	_, err := jwt.ParseWithClaims(strings.TrimSpace(token), &claims, func(*jwt.Token) (any, error) {
		return []byte(key), nil
	}, opts...)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	sum := sha256.Sum256(body)
	if strings.TrimRight(claims.Body, "=") != base64.RawURLEncoding.EncodeToString(sum[:]) {
		return fmt.Errorf("%w: body hash mismatch", ErrInvalidSignature)
	}
	return nil
}
