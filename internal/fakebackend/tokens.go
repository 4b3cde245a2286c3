package fakebackend

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-tareas-client/apiclient"
	"golang.org/x/crypto/bcrypt"
)

const refreshTokenBytes = 32

// accessClaims are the claims carried by issued access tokens.
type accessClaims struct {
	Email     string `json:"email"`
	SessionID string `json:"sid"`
	jwtlib.RegisteredClaims
}

// issuePair creates an access token and a rotated refresh token for a session.
// Callers hold b.mu.
func (b *Backend) issuePair(u *userRecord, sessionID string) (apiclient.TokenPair, error) {
	now := b.now()
	claims := accessClaims{
		Email:     u.Email,
		SessionID: sessionID,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    "fakebackend",
			Subject:   u.ID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(b.accessTTL)),
			ID:        uuid.NewString(),
		},
	}
	access, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(b.secret)
	if err != nil {
		return apiclient.TokenPair{}, fmt.Errorf("failed to sign access token: %w", err)
	}

	raw := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return apiclient.TokenPair{}, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	refresh := hex.EncodeToString(raw)

	// Single refresh token per session: rotating drops the old one.
	for tok, rec := range b.refreshTokens {
		if rec.SessionID == sessionID {
			delete(b.refreshTokens, tok)
		}
	}
	b.refreshTokens[refresh] = &refreshRecord{Token: refresh, UserID: u.ID, SessionID: sessionID, IssuedAt: now.Unix()}

	return apiclient.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    apiclient.FlexString(b.accessTTL.String()),
	}, nil
}

// parseAccess validates signature and expiry against the backend clock.
func (b *Backend) parseAccess(token string) (*accessClaims, error) {
	claims := &accessClaims{}
	_, err := jwtlib.ParseWithClaims(token, claims, func(*jwtlib.Token) (any, error) {
		return b.secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithTimeFunc(b.nowTime),
		jwtlib.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (b *Backend) refreshExpired(rec *refreshRecord) bool {
	return b.now().Sub(time.Unix(rec.IssuedAt, 0)) > b.refreshTTL
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(hash), err
}

func checkPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
