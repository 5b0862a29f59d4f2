package authflow_test

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"net/url"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-oauth-gateway/authflow"
	apperrors "github.com/jrsteele09/go-oauth-gateway/internal/errors"
	"github.com/stretchr/testify/require"
)

const testIssuer = "https://accounts.example.com"

func newSigningKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func mintIDToken(t *testing.T, key *rsa.PrivateKey, nonce string) string {
	t.Helper()
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iss":            testIssuer,
		"aud":            testClientID,
		"sub":            "user-42",
		"email":          "jane@example.com",
		"email_verified": true,
		"name":           "Jane Doe",
		"nonce":          nonce,
		"iat":            now.Unix(),
		"exp":            now.Add(time.Hour).Unix(),
	})
	raw, err := token.SignedString(key)
	require.NoError(t, err)
	return raw
}

func newVerifier(key *rsa.PrivateKey) *authflow.OIDCVerifier {
	keySet := &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&key.PublicKey}}
	return authflow.NewOIDCVerifierWithKeySet(testIssuer, keySet, testClientID, nil)
}

func TestOIDCVerifier_Verify(t *testing.T) {
	key := newSigningKey(t)
	v := newVerifier(key)

	claims, err := v.Verify(context.Background(), mintIDToken(t, key, "nonce-1"), "nonce-1")
	require.NoError(t, err)
	require.Equal(t, "user-42", claims.Subject)
	require.Equal(t, "jane@example.com", claims.Email)
	require.True(t, claims.EmailVerified)

	_, err = v.Verify(context.Background(), mintIDToken(t, key, "nonce-1"), "other-nonce")
	require.ErrorIs(t, err, apperrors.ErrInvalidIDToken)

	_, err = v.Verify(context.Background(), mintIDToken(t, newSigningKey(t), "nonce-1"), "nonce-1")
	require.ErrorIs(t, err, apperrors.ErrInvalidIDToken)
}

func TestExchanger_VerifiesIDToken(t *testing.T) {
	key := newSigningKey(t)
	provider := newStubProvider(t)
	f := setupExchange(t, provider.URL, authflow.WithIDTokenVerifier(newVerifier(key)))
	authURL := f.issue(t)

	u, err := url.Parse(authURL.URL)
	require.NoError(t, err)
	nonce := u.Query().Get("nonce")

	provider.setIDToken(func(url.Values) string { return mintIDToken(t, key, nonce) })

	tok, err := f.exchanger.Exchange(context.Background(), acceptedCode, authURL.State)
	require.NoError(t, err)
	require.NotNil(t, tok.Claims)
	require.Equal(t, "jane@example.com", tok.Claims.Email)
}

func TestExchanger_RejectsReplayedIDToken(t *testing.T) {
	key := newSigningKey(t)
	provider := newStubProvider(t)
	provider.setIDToken(func(url.Values) string { return mintIDToken(t, key, "stale-nonce") })
	f := setupExchange(t, provider.URL, authflow.WithIDTokenVerifier(newVerifier(key)))
	authURL := f.issue(t)

	_, err := f.exchanger.Exchange(context.Background(), acceptedCode, authURL.State)
	require.ErrorIs(t, err, apperrors.ErrInvalidIDToken)
	require.Equal(t, apperrors.KindTokenExchangeFailed, apperrors.KindOf(err))
}

func TestExchanger_RequiresIDTokenWhenVerifying(t *testing.T) {
	key := newSigningKey(t)
	provider := newStubProvider(t)
	f := setupExchange(t, provider.URL, authflow.WithIDTokenVerifier(newVerifier(key)))
	authURL := f.issue(t)

	tok, err := f.exchanger.Exchange(context.Background(), acceptedCode, authURL.State)
	require.Nil(t, tok)
	require.ErrorIs(t, err, apperrors.ErrInvalidIDToken)
	require.Equal(t, apperrors.KindTokenExchangeFailed, apperrors.KindOf(err))
	require.Equal(t, int32(1), provider.calls.Load())
}
