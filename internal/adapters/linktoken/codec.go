// Package linktoken implements the self-service link tokens embedded in CRM emails.
//
// A token is the authenticated encryption of "email|user_id|unix_expiry" under a versioned
// XChaCha20-Poly1305 key. The wire form is
//
//	base64url(version || nonce || ciphertext)
//
// percent-escaped for use in a query string. The version byte is bound to the ciphertext as
// additional data, so it cannot be swapped without failing authentication.
package linktoken

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/chacha20poly1305"

	"eventcrm/internal/domain"
)

const fieldSep = "|"

type codec struct {
	aeads  map[byte]cipher.AEAD
	active byte
	loc    *time.Location
	now    func() time.Time
}

// Option configures a codec.
type Option func(*codec)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *codec) { c.now = now }
}

// New returns a LinkTokenCodec. keys maps a key version to a 32-byte key; active selects the
// version used by Issue. All versions are accepted by Redeem, which allows key rotation.
// Expiry is evaluated in loc (UTC when nil).
func New(keys map[byte][]byte, active byte, loc *time.Location, opts ...Option) (domain.LinkTokenCodec, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("link token: no keys configured")
	}
	c := &codec{aeads: make(map[byte]cipher.AEAD, len(keys)), active: active, loc: loc, now: time.Now}
	if c.loc == nil {
		c.loc = time.UTC
	}
	for version, key := range keys {
		aead, err := chacha20poly1305.NewX(key)
		if err != nil {
			return nil, fmt.Errorf("link token key %d: %w", version, err)
		}
		c.aeads[version] = aead
	}
	if _, ok := c.aeads[active]; !ok {
		return nil, fmt.Errorf("link token: active key %d is not configured", active)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *codec) Issue(email, userID string, expiresAt time.Time) (string, error) {
	if strings.TrimSpace(email) == "" {
		return "", domain.NewValidationError("email", "is required")
	}
	if _, err := uuid.Parse(userID); err != nil {
		return "", domain.NewValidationError("user_id", "must be a UUID")
	}
	expiry := expiresAt.In(c.loc).Unix()
	plaintext := []byte(email + fieldSep + userID + fieldSep + strconv.FormatInt(expiry, 10))

	aead := c.aeads[c.active]
	nonce := make([]byte, aead.NonceSize(), 1+aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	header := []byte{c.active}
	sealed := aead.Seal(nil, nonce, plaintext, header)

	raw := make([]byte, 0, 1+len(nonce)+len(sealed))
	raw = append(raw, c.active)
	raw = append(raw, nonce...)
	raw = append(raw, sealed...)
	return url.QueryEscape(base64.RawURLEncoding.EncodeToString(raw)), nil
}

func (c *codec) Redeem(token string) (*domain.LinkClaims, error) {
	unescaped, err := url.QueryUnescape(strings.TrimSpace(token))
	if err != nil || unescaped == "" {
		return nil, domain.ErrInvalidToken
	}
	raw, err := base64.RawURLEncoding.DecodeString(unescaped)
	if err != nil || len(raw) < 1 {
		return nil, domain.ErrInvalidToken
	}
	aead, ok := c.aeads[raw[0]]
	if !ok {
		return nil, domain.ErrInvalidToken
	}
	body := raw[1:]
	if len(body) < aead.NonceSize()+aead.Overhead() {
		return nil, domain.ErrInvalidToken
	}
	nonce, sealed := body[:aead.NonceSize()], body[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, raw[:1])
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	claims, err := parseClaims(string(plaintext), c.loc)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}
	if c.now().In(c.loc).After(claims.ExpiresAt) {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}

// parseClaims splits from the right: user ids and timestamps never contain the separator,
// email local parts may.
func parseClaims(s string, loc *time.Location) (*domain.LinkClaims, error) {
	i := strings.LastIndex(s, fieldSep)
	if i < 0 {
		return nil, fmt.Errorf("missing expiry")
	}
	rest, expiryStr := s[:i], s[i+1:]
	j := strings.LastIndex(rest, fieldSep)
	if j < 0 {
		return nil, fmt.Errorf("missing user id")
	}
	email, userID := rest[:j], rest[j+1:]
	if email == "" {
		return nil, fmt.Errorf("missing email")
	}
	if _, err := uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("user id: %w", err)
	}
	expiry, err := strconv.ParseInt(expiryStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("expiry: %w", err)
	}
	return &domain.LinkClaims{
		Email:     email,
		UserID:    userID,
		ExpiresAt: time.Unix(expiry, 0).In(loc),
	}, nil
}
