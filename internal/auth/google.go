package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// maxJWKSBodySize は公開鍵レスポンスとして読み込む最大バイト数。
	maxJWKSBodySize = 1 << 20
	// minRefreshInterval は未知のkidによる再取得の最短間隔。
	minRefreshInterval = time.Minute
)

// googleIssuers はGoogle IDトークンのissとして受け付ける値。
var googleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

var (
	// ErrUnknownKeyID はトークンのkidに対応する公開鍵が見つからないことを表す。
	ErrUnknownKeyID = errors.New("unknown signing key id")
	// ErrIssuerMismatch はissがGoogleでないことを表す。
	ErrIssuerMismatch = errors.New("issuer mismatch")
	// ErrAudienceMismatch はaudが受け付けるクライアントIDに含まれないことを表す。
	ErrAudienceMismatch = errors.New("audience mismatch")
	// ErrMissingClaims はsubまたはemailが欠けていることを表す。
	ErrMissingClaims = errors.New("required claims missing")
)

// GoogleIdentity はGoogle IDトークンから取り出した本人情報。
type GoogleIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	GivenName     string
	FamilyName    string
}

// googleClaims はGoogle IDトークンのペイロード。
type googleClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	jwt.RegisteredClaims
}

// jwk はRSA公開鍵のJSON Web Key表現。
type jwk struct {
	Kty string `json:"kty"`
	Alg string `json:"alg,omitempty"`
	Use string `json:"use,omitempty"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

// GoogleVerifierConfig はGoogle IDトークン検証の設定。
type GoogleVerifierConfig struct {
	CertsURL  string
	ClientIDs []string      // web/Android/iOSのクライアントID
	CacheTTL  time.Duration // 公開鍵のキャッシュ期間
	Leeway    time.Duration // exp/iat判定で許容する時計のずれ
}

// GoogleVerifier はGoogleの公開鍵（JWKS）でIDトークンのRS256署名を検証する。
// 公開鍵はCacheTTLの間キャッシュし、未知のkidを受け取った場合は再取得する。
type GoogleVerifier struct {
	client *http.Client
	config GoogleVerifierConfig
	now    func() time.Time

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

// NewGoogleVerifier はGoogleVerifierを生成する。
// clientには外部接続用のHTTPクライアントを渡す。
func NewGoogleVerifier(client *http.Client, config GoogleVerifierConfig) *GoogleVerifier {
	if config.CacheTTL <= 0 {
		config.CacheTTL = time.Hour
	}
	return &GoogleVerifier{
		client: client,
		config: config,
		now:    time.Now,
		keys:   make(map[string]*rsa.PublicKey),
	}
}

// Verify はIDトークンの署名・iss・aud・expを検証し、本人情報を返す。
func (v *GoogleVerifier) Verify(ctx context.Context, idToken string) (*GoogleIdentity, error) {
	if len(v.config.ClientIDs) == 0 {
		return nil, fmt.Errorf("%w: no client ids configured", ErrAudienceMismatch)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.config.Leeway),
		jwt.WithTimeFunc(v.now),
	)
	token, err := parser.ParseWithClaims(idToken, &googleClaims{}, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("missing kid")
		}
		return v.keyFor(ctx, kid)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to verify google id token: %w", err)
	}

	claims, ok := token.Claims.(*googleClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid google id token claims")
	}
	if !slices.Contains(googleIssuers, claims.Issuer) {
		return nil, ErrIssuerMismatch
	}
	if !audienceAccepted(claims.Audience, v.config.ClientIDs) {
		return nil, ErrAudienceMismatch
	}
	if claims.Subject == "" || claims.Email == "" {
		return nil, ErrMissingClaims
	}

	return &GoogleIdentity{
		Subject:       claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		GivenName:     claims.GivenName,
		FamilyName:    claims.FamilyName,
	}, nil
}

func audienceAccepted(aud jwt.ClaimStrings, clientIDs []string) bool {
	for _, want := range clientIDs {
		if slices.Contains(aud, want) {
			return true
		}
	}
	return false
}

// keyFor はkidに対応する公開鍵を返す。
// キャッシュが古い場合、またはkidが未知の場合は公開鍵を再取得する。
// 未知のkidによる再取得はminRefreshIntervalに1回までとする。
func (v *GoogleVerifier) keyFor(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	key, ok := v.keys[kid]
	age := v.now().Sub(v.fetchedAt)
	loaded := !v.fetchedAt.IsZero()
	v.mu.RUnlock()
	if ok && age < v.config.CacheTTL {
		return key, nil
	}
	if !ok && loaded && age < minRefreshInterval {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKeyID, kid)
	}

	if err := v.refresh(ctx); err != nil {
		return nil, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	key, ok = v.keys[kid]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKeyID, kid)
	}
	return key, nil
}

// refresh はJWKSエンドポイントから公開鍵を取得してキャッシュを置き換える。
func (v *GoogleVerifier) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.config.CertsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create jwks request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("jwks request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jwks fetch failed with status %d", resp.StatusCode)
	}

	var set jwks
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxJWKSBodySize)).Decode(&set); err != nil {
		return fmt.Errorf("failed to parse jwks response: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := k.rsaPublicKey()
		if err != nil {
			return fmt.Errorf("invalid jwk %q: %w", k.Kid, err)
		}
		keys[k.Kid] = pub
	}

	v.mu.Lock()
	v.keys = keys
	v.fetchedAt = v.now()
	v.mu.Unlock()
	return nil
}

func (k jwk) rsaPublicKey() (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	eb, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}
	e := new(big.Int).SetBytes(eb)
	if !e.IsInt64() || e.Int64() < 3 {
		return nil, errors.New("invalid exponent")
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nb), E: int(e.Int64())}, nil
}
