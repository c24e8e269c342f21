package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/andybalholm/brotli"
)

type Config struct {
	APIURL string
	APIKey string
	From   string
}

// Client talks to the transactional mail provider's REST API.
type Client struct {
	client *http.Client
	config Config
}

func NewClient(cfg Config) *Client {
	return &Client{
		client: &http.Client{
			Transport: &AuthTransport{
				APIKey: cfg.APIKey,
				Base:   http.DefaultTransport,
			},
			Timeout: 10 * time.Second,
		},
		config: cfg,
	}
}

// AuthTransport adds Basic Auth headers
type AuthTransport struct {
	APIKey string
	Base   http.RoundTripper
}

func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	auth := "api:" + t.APIKey
	encodedAuth := base64.StdEncoding.EncodeToString([]byte(auth))
	req.Header.Set("Authorization", "Basic "+encodedAuth)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "br")
	return t.Base.RoundTrip(req)
}

// SendText sends a plain text email and returns the provider message id.
func (c *Client) SendText(ctx context.Context, to, subject, text string) (string, error) {
	return c.send(ctx, message{
		From:    c.config.From,
		To:      to,
		Subject: subject,
		Text:    text,
	})
}

// SendHTML sends an HTML email and returns the provider message id.
func (c *Client) SendHTML(ctx context.Context, to, subject, html string) (string, error) {
	return c.send(ctx, message{
		From:    c.config.From,
		To:      to,
		Subject: subject,
		HTML:    html,
	})
}

func (c *Client) send(ctx context.Context, msg message) (string, error) {
	url := fmt.Sprintf("%s/messages", c.config.APIURL)

	body, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}

	if resp.Header.Get("Content-Encoding") == "br" {
		resp.Body = &readCloserWrapper{Reader: brotli.NewReader(resp.Body), Closer: resp.Body}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Message != "" {
			return "", &apiErr
		}
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(raw))
	}

	var result sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.ID, nil
}

type readCloserWrapper struct {
	io.Reader
	io.Closer
}

func (r *readCloserWrapper) Read(p []byte) (n int, err error) {
	return r.Reader.Read(p)
}

func (r *readCloserWrapper) Close() error {
	return r.Closer.Close()
}
