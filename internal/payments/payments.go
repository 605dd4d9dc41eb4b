// Package payments verifies payment confirmation tokens. The payment
// provider signs a short-lived HS256 token once a charge settles; the case
// core accepts the token as proof of payment without calling the provider.
package payments

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "attache/pkg/domain-errors"
)

const statusSettled = "settled"

// Claims are the payment provider's token claims.
type Claims struct {
	PaymentID   string `json:"payment_id"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
	jwt.RegisteredClaims
}

// Verifier validates payment confirmation tokens against a shared key.
type Verifier struct {
	signingKey []byte
	issuer     string
}

// NewVerifier creates a verifier for tokens signed with the given key.
func NewVerifier(signingKey string, issuer string) *Verifier {
	return &Verifier{
		signingKey: []byte(signingKey),
		issuer:     issuer,
	}
}

// Verify checks the token's signature, expiry and settlement status.
// A nil return means the payment is confirmed.
func (v *Verifier) Verify(_ context.Context, token string) error {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return v.signingKey, nil
	}, jwt.WithIssuer(v.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return dErrors.New(dErrors.CodeValidation, "payment token has expired")
		}
		return dErrors.New(dErrors.CodeValidation, "invalid payment token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return dErrors.New(dErrors.CodeValidation, "invalid payment token")
	}
	if claims.Status != statusSettled {
		return dErrors.Newf(dErrors.CodeValidation, "payment is %s, not settled", claims.Status)
	}
	return nil
}

// IssueToken signs a confirmation token. Used by the payment callback path
// and by tests.
func (v *Verifier) IssueToken(paymentID string, amountCents int64, currency, status string, validFor time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		PaymentID:   paymentID,
		AmountCents: amountCents,
		Currency:    currency,
		Status:      status,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validFor)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    v.issuer,
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(v.signingKey)
}
