//go:build integration

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Client talks to a running bookings service. Every request made through As
// carries a bearer token for that user.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	jwtSecret  string
	user       string
}

func NewClient(baseURL, jwtSecret string) *Client {
	return &Client{
		BaseURL:   baseURL,
		jwtSecret: jwtSecret,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// As returns a copy of the client acting for user.
func (c *Client) As(user string) *Client {
	cp := *c
	cp.user = user
	return &cp
}

type Response struct {
	*http.Response
	Body []byte
}

func (r *Response) UnmarshalJSON(target any) error {
	return json.Unmarshal(r.Body, target)
}

// Data decodes the "data" field of a success envelope into target.
func (r *Response) Data(t *testing.T, target any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(r.Body, &envelope); err != nil {
		t.Fatalf("failed to unmarshal envelope: %v. Body: %s", err, string(r.Body))
	}
	if err := json.Unmarshal(envelope.Data, target); err != nil {
		t.Fatalf("failed to unmarshal data: %v. Body: %s", err, string(r.Body))
	}
}

func (c *Client) GET(t *testing.T, path string) *Response {
	t.Helper()
	return c.request(t, http.MethodGet, path, nil, nil)
}

func (c *Client) POST(t *testing.T, path string, body any) *Response {
	t.Helper()
	return c.request(t, http.MethodPost, path, body, nil)
}

// Webhook posts payload to the payment webhook signed with secret.
func (c *Client) Webhook(t *testing.T, secret string, payload []byte) *Response {
	t.Helper()
	sp := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	})
	return c.raw(t, http.MethodPost, "/webhook/payment", sp.Payload, map[string]string{
		"Content-Type":     "application/json",
		"Stripe-Signature": sp.Header,
	})
}

func (c *Client) request(t *testing.T, method, path string, body any, headers map[string]string) *Response {
	t.Helper()

	var data []byte
	if body != nil {
		var err error
		data, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		if headers == nil {
			headers = map[string]string{}
		}
		headers["Content-Type"] = "application/json"
	}
	if c.user != "" {
		if headers == nil {
			headers = map[string]string{}
		}
		headers["Authorization"] = "Bearer " + c.token(t)
	}
	return c.raw(t, method, path, data, headers)
}

func (c *Client) raw(t *testing.T, method, path string, body []byte, headers map[string]string) *Response {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, c.BaseURL+path, reqBody)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}

	return &Response{Response: resp, Body: respBody}
}

func (c *Client) token(t *testing.T) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": c.user,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(c.jwtSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

// WaitForHealthy polls the health endpoint until the service is ready.
func (c *Client) WaitForHealthy(t *testing.T, maxWait time.Duration) {
	t.Helper()

	deadline := time.Now().Add(maxWait)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		resp, err := c.HTTPClient.Get(c.BaseURL + "/health")
		if err == nil && resp.StatusCode == http.StatusOK {
			resp.Body.Close()
			t.Log("Service is healthy")
			return
		}
		if resp != nil {
			resp.Body.Close()
		}
		<-ticker.C
	}

	t.Fatalf("service did not become healthy within %v", maxWait)
}

func AssertStatusCode(t *testing.T, resp *Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d. Body: %s", expected, resp.StatusCode, string(resp.Body))
	}
}

// ErrorCode extracts the code of an error response.
func ErrorCode(t *testing.T, resp *Response) string {
	t.Helper()
	var errResp struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := resp.UnmarshalJSON(&errResp); err != nil {
		return fmt.Sprintf("failed to unmarshal error: %v", err)
	}
	return errResp.Code
}
