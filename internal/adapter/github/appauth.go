package github

import (
	"bytes"
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var base64Pattern = regexp.MustCompile(`^[A-Za-z0-9+/]+=*$`)

// AppAuth authenticates as a GitHub App installation: a short-lived RS256
// app JWT is exchanged for an installation access token, which is cached
// until shortly before it expires.
type AppAuth struct {
	appID          string
	installationID string
	key            *rsa.PrivateKey
	baseURL        string
	httpClient     *http.Client

	mu     sync.Mutex
	token  string
	expiry time.Time
}

// NewAppAuth builds an App token source. The private key may be supplied
// inline (PEM or base64-encoded PEM) or as a file path.
func NewAppAuth(appID, installationID, privateKey, keyPath string) (*AppAuth, error) {
	pem := privateKey
	if pem == "" {
		if keyPath == "" {
			return nil, fmt.Errorf("either a private key or a private key path must be provided")
		}
		data, err := os.ReadFile(keyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read App private key: %w", err)
		}
		pem = string(data)
	} else if base64Pattern.MatchString(pem) {
		decoded, err := base64.StdEncoding.DecodeString(pem)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 App private key: %w", err)
		}
		pem = string(decoded)
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(pem))
	if err != nil {
		return nil, fmt.Errorf("failed to parse App private key: %w", err)
	}
	return &AppAuth{
		appID:          appID,
		installationID: installationID,
		key:            key,
		baseURL:        defaultBaseURL,
		httpClient:     &http.Client{Timeout: 10 * time.Second},
	}, nil
}

var _ TokenSource = (*AppAuth)(nil)

// Token returns a valid installation access token, refreshing if the cached
// one expires within a minute.
func (a *AppAuth) Token(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.token != "" && time.Until(a.expiry) > time.Minute {
		return a.token, nil
	}

	appJWT, err := a.appJWT()
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/app/installations/%s/access_tokens", a.baseURL, a.installationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(nil))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+appJWT)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to request installation token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusCreated {
		var apiErr struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return "", &APIError{StatusCode: resp.StatusCode, Message: apiErr.Message}
	}

	var tok struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}
	a.token = tok.Token
	a.expiry = tok.ExpiresAt
	return a.token, nil
}

// appJWT signs the App authentication JWT. GitHub rejects tokens valid for
// more than ten minutes; clock skew is absorbed by backdating iat.
func (a *AppAuth) appJWT() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now.Add(-time.Minute)),
		ExpiresAt: jwt.NewNumericDate(now.Add(9 * time.Minute)),
		Issuer:    a.appID,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(a.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign App JWT: %w", err)
	}
	return signed, nil
}
