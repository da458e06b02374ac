package netsuite

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"strconv"
	"time"
)

// SignatureAlgorithm is the only signing algorithm SuiteTalk token passports
// are issued with here.
const SignatureAlgorithm = "HMAC-SHA256"

// RecordRef wraps a role id the way the SuiteTalk schema expects it.
type RecordRef struct {
	InternalID string `xml:"internalId,attr" json:"internalId"`
}

// Passport is the plaintext email/password SOAP authentication envelope.
type Passport struct {
	XMLName  xml.Name   `xml:"passport" json:"-"`
	Email    string     `xml:"email" json:"email"`
	Password string     `xml:"password" json:"password"`
	Account  string     `xml:"account" json:"account"`
	Role     *RecordRef `xml:"role,omitempty" json:"role,omitempty"`
}

// TokenPassportSignature carries the HMAC-SHA256 signature value and its
// declared algorithm.
type TokenPassportSignature struct {
	Algorithm string `xml:"algorithm,attr" json:"algorithm"`
	Value     string `xml:",chardata" json:"value"`
}

// TokenPassport is the OAuth1-style SOAP authentication envelope. The nonce
// and timestamp it declares are the ones its signature was computed over.
type TokenPassport struct {
	XMLName     xml.Name               `xml:"tokenPassport" json:"-"`
	Account     string                 `xml:"account" json:"account"`
	ConsumerKey string                 `xml:"consumerKey" json:"consumerKey"`
	Token       string                 `xml:"token" json:"token"`
	Nonce       string                 `xml:"nonce" json:"nonce"`
	Timestamp   string                 `xml:"timestamp" json:"timestamp"`
	Signature   TokenPassportSignature `xml:"signature" json:"signature"`
}

// SOAPCredentials is the tagged union handed to the SOAP client: exactly one
// of the two passports is set.
type SOAPCredentials struct {
	Passport      *Passport
	TokenPassport *TokenPassport
}

// PassportBuilder constructs SOAP passports. The nonce source and clock are
// injectable so signatures are reproducible under test.
type PassportBuilder struct {
	nonce func() (string, error)
	now   func() time.Time
}

// NewPassportBuilder returns a builder using crypto/rand nonces and the
// system clock.
func NewPassportBuilder() *PassportBuilder {
	return &PassportBuilder{nonce: generateNonce, now: time.Now}
}

// NewPassportBuilderWithSources is the test hook: both sources must be
// non-nil.
func NewPassportBuilderWithSources(nonce func() (string, error), now func() time.Time) *PassportBuilder {
	return &PassportBuilder{nonce: nonce, now: now}
}

// Build produces the passport matching the config's auth type.
//
// For token passports the nonce and timestamp are generated exactly once and
// used for both the declared fields and the signature base string; a passport
// whose signature does not match its own nonce would be rejected by a strict
// server.
func (b *PassportBuilder) Build(cfg *AccountConfig) (*SOAPCredentials, error) {
	switch cfg.AuthType() {
	case AuthPassword:
		passport := &Passport{
			Email:    cfg.Email,
			Password: cfg.Password,
			Account:  cfg.Account,
		}
		if cfg.Role != "" {
			passport.Role = &RecordRef{InternalID: cfg.Role}
		}
		return &SOAPCredentials{Passport: passport}, nil

	case AuthOAuth:
		nonce, err := b.nonce()
		if err != nil {
			return nil, NewGeneric(fmt.Sprintf("generate nonce: %v", err), err)
		}
		timestamp := strconv.FormatInt(b.now().Unix(), 10)
		return &SOAPCredentials{TokenPassport: &TokenPassport{
			Account:     cfg.Account,
			ConsumerKey: cfg.ConsumerKey,
			Token:       cfg.TokenID,
			Nonce:       nonce,
			Timestamp:   timestamp,
			Signature: TokenPassportSignature{
				Algorithm: SignatureAlgorithm,
				Value:     SignTokenPassport(cfg, nonce, timestamp),
			},
		}}, nil

	default:
		return nil, NewAuthentication("Unsupported auth type: none")
	}
}

// SignTokenPassport computes base64(HMAC-SHA256(key, base)) where the base
// string is account&consumerKey&token&nonce&timestamp and the key is
// consumerSecret&tokenSecret.
func SignTokenPassport(cfg *AccountConfig, nonce, timestamp string) string {
	base := fmt.Sprintf("%s&%s&%s&%s&%s",
		cfg.Account, cfg.ConsumerKey, cfg.TokenID, nonce, timestamp)
	key := cfg.ConsumerSecret + "&" + cfg.TokenSecret
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// generateNonce returns a URL-safe string carrying 32 bytes of entropy.
func generateNonce() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
