package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

const (
	// DefaultTokenURL is the IBM Cloud IAM token endpoint.
	DefaultTokenURL = "https://iam.cloud.ibm.com/identity/token"
	// DefaultServiceURL is the default watsonx.ai region endpoint.
	DefaultServiceURL = "https://us-south.ml.cloud.ibm.com"

	iamGrantType = "urn:ibm:params:oauth:grant-type:apikey"

	// expiryMargin refreshes tokens slightly before the server-side deadline.
	expiryMargin = 60 * time.Second
)

// ErrMissingAPIKey is returned when no API key can be resolved.
var ErrMissingAPIKey = errors.New("an IBM Cloud API key is required to authenticate")

// Credentials hold the service URL and API key for watsonx.ai.
type Credentials struct {
	URL    string
	APIKey string
}

// LoadCredentials resolves credentials from the given values, falling back to
// the AGENTLAB_API_KEY / WATSONX_APIKEY and WATSONX_URL environment variables.
func LoadCredentials(apiKey, serviceURL string) (Credentials, error) {
	if apiKey == "" {
		apiKey = os.Getenv("AGENTLAB_API_KEY")
	}
	if apiKey == "" {
		apiKey = os.Getenv("WATSONX_APIKEY")
	}
	if apiKey == "" {
		return Credentials{}, ErrMissingAPIKey
	}

	if serviceURL == "" {
		serviceURL = os.Getenv("WATSONX_URL")
	}
	if serviceURL == "" {
		serviceURL = DefaultServiceURL
	}
	return Credentials{URL: serviceURL, APIKey: apiKey}, nil
}

// TokenSource exchanges an API key for IAM bearer tokens and caches them
// until shortly before expiry.
type TokenSource struct {
	credentials Credentials
	tokenURL    string
	client      *retryablehttp.Client
	logger      *zap.Logger

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewTokenSource builds a caching token source for the credentials.
func NewTokenSource(credentials Credentials, logger *zap.Logger) *TokenSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.Logger = nil
	client.HTTPClient.Timeout = 30 * time.Second
	return &TokenSource{credentials: credentials, tokenURL: DefaultTokenURL, client: client, logger: logger}
}

// Token returns a valid bearer token, reusing the cached one when possible.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && time.Now().Before(s.expires.Add(-expiryMargin)) {
		return s.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", iamGrantType)
	form.Set("apikey", s.credentials.APIKey)

	request, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(request)
	if err != nil {
		return "", fmt.Errorf("obtain IAM token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("obtain IAM token: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode IAM token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", errors.New("IAM token response did not include an access_token field")
	}

	s.token = payload.AccessToken
	s.expires = time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	s.logger.Debug("IAM token refreshed", zap.Time("expires", s.expires))
	return s.token, nil
}
