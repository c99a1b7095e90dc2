// Package watsonx implements the remote collaborators consumed by the
// toolkit: the utility-agent-tool API and the image resource endpoint.
package watsonx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Team-Armadillo-IBM/Team-Armadillo-Final/internal/tools"
	"github.com/Team-Armadillo-IBM/Team-Armadillo-Final/internal/util"
	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// DefaultBaseURL is the data platform endpoint serving utility agent tools.
const DefaultBaseURL = "https://api.dataplatform.cloud.ibm.com"

const toolsPath = "/wx/v1-beta/utility_agent_tools"

// TokenProvider supplies bearer tokens for outgoing requests.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// Client talks to the utility-agent-tool service. A single remote failure
// surfaces immediately; no retries are attempted on tool runs or uploads.
type Client struct {
	baseURL   string
	tokens    TokenProvider
	workspace tools.Workspace
	client    *retryablehttp.Client
	logger    *zap.Logger
}

// NewClient constructs a client against baseURL (DefaultBaseURL when empty).
func NewClient(baseURL string, tokens TokenProvider, workspace tools.Workspace, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client := retryablehttp.NewClient()
	client.RetryMax = 0
	client.Logger = nil
	client.HTTPClient.Timeout = 30 * time.Second
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), tokens: tokens, workspace: workspace, client: client, logger: logger}
}

// GetTool fetches a remote capability descriptor by name.
func (c *Client) GetTool(ctx context.Context, name string) (tools.RemoteToolDescriptor, error) {
	body, err := c.do(ctx, http.MethodGet, toolsPath+"/"+url.PathEscape(name), nil, nil)
	if err != nil {
		return tools.RemoteToolDescriptor{}, err
	}

	var payload struct {
		Name             string         `json:"name"`
		Description      string         `json:"description"`
		AgentDescription string         `json:"agent_description"`
		InputSchema      map[string]any `json:"input_schema"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return tools.RemoteToolDescriptor{}, fmt.Errorf("decode tool descriptor: %w", err)
	}
	if payload.Name == "" {
		payload.Name = name
	}
	return tools.RemoteToolDescriptor{
		Name:             payload.Name,
		Description:      payload.Description,
		AgentDescription: payload.AgentDescription,
		InputSchema:      payload.InputSchema,
	}, nil
}

// RunTool invokes a named capability and returns the raw result mapping.
func (c *Client) RunTool(ctx context.Context, name string, input any, config map[string]any) (map[string]any, error) {
	request := map[string]any{"input": input}
	if config != nil {
		request["config"] = config
	}
	body, err := c.do(ctx, http.MethodPost, toolsPath+"/run/"+url.PathEscape(name), request, nil)
	if err != nil {
		return nil, err
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode tool result: %w", err)
	}
	return result, nil
}

// UploadImage stores an encoded figure as a utility-agent-tool resource and
// returns its durable reference URL.
func (c *Client) UploadImage(ctx context.Context, name, base64Content string) (string, error) {
	params := url.Values{}
	if c.workspace.ProjectID != "" {
		params.Set("project_id", c.workspace.ProjectID)
	}
	request := map[string]any{"name": name, "blob": base64Content}
	body, err := c.do(ctx, http.MethodPost, toolsPath+"/resources", request, params)
	if err != nil {
		return "", err
	}

	var payload struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode resource response: %w", err)
	}
	return payload.URI, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any, params url.Values) ([]byte, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	request, err := retryablehttp.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	request.Header.Set("Authorization", "Bearer "+token)
	request.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(request)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("utility agent tool request failed",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", util.RedactSecrets(util.Preview(string(body), 4, 2000))))
		return nil, fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	return body, nil
}
