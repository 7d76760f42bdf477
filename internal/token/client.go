package token

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Client talks to the external token service over HTTP/JSON. The pool is
// an ordinary account there; premium collection and payouts are plain
// transfers against its API.
type Client struct {
	baseURL string
	pool    uuid.UUID
	http    *http.Client
}

var _ Ledger = (*Client)(nil)

func NewClient(baseURL string, pool uuid.UUID, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		pool:    pool,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) BalanceOf(ctx context.Context, holder uuid.UUID) (int64, error) {
	url := fmt.Sprintf("%s/v1/accounts/%s/balance", c.baseURL, holder)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("balance request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("balance request: status %d: %s", resp.StatusCode, readBody(resp.Body))
	}

	var out struct {
		Balance int64 `json:"balance"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode balance: %w", err)
	}
	return out.Balance, nil
}

func (c *Client) TransferFrom(ctx context.Context, payer, recipient uuid.UUID, amount int64) error {
	return c.transfer(ctx, payer, recipient, amount)
}

func (c *Client) Transfer(ctx context.Context, recipient uuid.UUID, amount int64) error {
	return c.transfer(ctx, c.pool, recipient, amount)
}

func (c *Client) transfer(ctx context.Context, from, to uuid.UUID, amount int64) error {
	body, err := json.Marshal(map[string]interface{}{
		"from":   from,
		"to":     to,
		"amount": amount,
	})
	if err != nil {
		return err
	}

	url := c.baseURL + "/v1/transfers"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%w: status %d: %s", ErrTransferFailed, resp.StatusCode, readBody(resp.Body))
	}
	return nil
}

func readBody(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 512))
	return string(data)
}
