package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"studentmarket/internal/cart"
	"studentmarket/internal/model"
)

type Config struct {
	BaseURL string
}

// Client is a programmatic consumer of the marketplace REST API. It keeps
// the session token from Login and attaches it to subsequent requests.
type Client struct {
	client  *http.Client
	baseURL string

	mu     sync.RWMutex
	token  string
	userID int
}

func NewClient(cfg Config) *Client {
	c := &Client{
		baseURL: cfg.BaseURL,
	}
	c.client = &http.Client{
		Transport: &BearerTransport{
			Token: c.sessionToken,
			Base:  http.DefaultTransport,
		},
		Timeout: 10 * time.Second,
	}
	return c
}

// BearerTransport attaches the session token when one is present.
type BearerTransport struct {
	Token func() string
	Base  http.RoundTripper
}

func (t *BearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if token := t.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")
	return t.Base.RoundTrip(req)
}

func (c *Client) sessionToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// UserID reports the identity of the logged-in session, zero before Login.
func (c *Client) UserID() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

func (c *Client) Register(ctx context.Context, username, usermail, password string) (*model.User, error) {
	var out userEnvelope
	err := c.do(ctx, "POST", "/users/register", map[string]string{
		"username": username,
		"usermail": usermail,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *Client) Login(ctx context.Context, username, password string) (*model.User, error) {
	var out loginEnvelope
	err := c.do(ctx, "POST", "/users/login", map[string]string{
		"username": username,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.token = out.Token
	if out.User != nil {
		c.userID = out.User.ID
	}
	c.mu.Unlock()
	return out.User, nil
}

func (c *Client) ListItems(ctx context.Context) ([]model.Item, error) {
	var out itemsEnvelope
	if err := c.do(ctx, "GET", "/items/all", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) GetItem(ctx context.Context, id string) (*model.Item, error) {
	var out itemEnvelope
	if err := c.do(ctx, "GET", "/items/"+id, nil, &out); err != nil {
		return nil, err
	}
	return out.Item, nil
}

func (c *Client) Balance(ctx context.Context) (float64, error) {
	var out balanceEnvelope
	if err := c.do(ctx, "GET", "/users/balance", nil, &out); err != nil {
		return 0, err
	}
	return out.Balance, nil
}

// Checkout verifies the cart against the live catalog and balance before
// placing the order. The balance and every cart item are re-fetched
// concurrently so a stale local copy never drives the purchase.
func (c *Client) Checkout(ctx context.Context, ct cart.Cart, deliveryAddress string) (*model.Order, error) {
	if len(ct.Lines) == 0 {
		return nil, fmt.Errorf("cart is empty")
	}

	g, gctx := errgroup.WithContext(ctx)

	var balance float64
	g.Go(func() error {
		var err error
		balance, err = c.Balance(gctx)
		if err != nil {
			return fmt.Errorf("failed to fetch balance: %w", err)
		}
		return nil
	})

	items := make([]*model.Item, len(ct.Lines))
	for i, line := range ct.Lines {
		i, line := i, line
		g.Go(func() error {
			item, err := c.GetItem(gctx, line.ItemID)
			if err != nil {
				return fmt.Errorf("failed to fetch item %s: %w", line.ItemID, err)
			}
			items[i] = item
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total float64
	orderItems := make([]orderItem, 0, len(ct.Lines))
	for i, line := range ct.Lines {
		item := items[i]
		if !item.Available {
			return nil, fmt.Errorf("item %q is no longer available", item.Name)
		}
		// Current catalog price wins over whatever the cart remembered.
		total += item.Price * float64(line.Quantity)
		orderItems = append(orderItems, orderItem{ItemID: item.ID, Quantity: line.Quantity})
	}

	if balance < total {
		return nil, fmt.Errorf("Insufficient balance")
	}

	var out orderEnvelope
	err := c.do(ctx, "POST", "/orders/add", placeOrderPayload{
		DeliveryAddress: deliveryAddress,
		Items:           orderItems,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Order, nil
}

// AddComments submits post-purchase reviews, one per purchased item.
func (c *Client) AddComments(ctx context.Context, comments map[string]string) error {
	if len(comments) == 0 {
		return nil
	}
	payload := commentsPayload{}
	for itemID, text := range comments {
		payload.Comments = append(payload.Comments, commentEntry{ItemID: itemID, Comment: text})
	}
	return c.do(ctx, "POST", "/items/add_comment", payload, nil)
}

// RequestDonations looks up the given users' addresses and sends each one a
// donation-request email.
func (c *Client) RequestDonations(ctx context.Context, userIDs []int, subject, text string) error {
	var out emailsEnvelope
	err := c.do(ctx, "POST", "/users/emails", map[string][]int{"userIds": userIDs}, &out)
	if err != nil {
		return err
	}
	for _, to := range out.Emails {
		err := c.do(ctx, "POST", "/email/text", map[string]string{
			"to":      to,
			"subject": subject,
			"text":    text,
		}, nil)
		if err != nil {
			return fmt.Errorf("failed to email %s: %w", to, err)
		}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr APIError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Message != "" {
			apiErr.StatusCode = resp.StatusCode
			return &apiErr
		}
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(raw))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
