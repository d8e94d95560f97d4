// Package receipt issues signed proofs that a transaction was committed.
package receipt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"landlocked/internal/txn"
	dErrors "landlocked/pkg/domain-errors"
)

// Claims bind a transaction hash to the ledger position it committed at.
type Claims struct {
	TxHash      string `json:"tx_hash"`
	Instruction string `json:"instruction"`
	Height      uint64 `json:"height"`
	Root        string `json:"root"`
	jwt.RegisteredClaims
}

// Issuer signs receipts with an HMAC key shared with verifiers.
type Issuer struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
	now        func() time.Time
}

func NewIssuer(signingKey, issuer string, ttl time.Duration) *Issuer {
	return &Issuer{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Issue signs a receipt for res. The subject is the signer's identity.
func (i *Issuer) Issue(res *txn.Result) (string, error) {
	now := i.now()
	claims := Claims{
		TxHash:      res.Hash,
		Instruction: string(res.Instruction),
		Height:      res.Commit.Height,
		Root:        res.Commit.Root.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  res.Signer.String(),
			IssuedAt: jwt.NewNumericDate(now),
			Issuer:   i.issuer,
			ID:       uuid.NewString(),
		},
	}
	if i.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(i.ttl))
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign receipt")
	}
	return signed, nil
}

// Verify parses a receipt and checks its signature, issuer and expiry.
func (i *Issuer) Verify(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return i.signingKey, nil
	}, jwt.WithIssuer(i.issuer), jwt.WithTimeFunc(i.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "receipt has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid receipt")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid receipt claims")
	}
	return claims, nil
}
