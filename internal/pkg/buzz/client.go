package buzz

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/artvaultapp/ArtVault/internal/pkg/env"
)

// SystemAccountID is the platform-owned ledger account credits are granted
// from.
const SystemAccountID = 0

const TransactionTypePurchase = "purchase"

// Transaction is one buzz ledger movement between two accounts.
type Transaction struct {
	Amount        int64  `json:"amount"`
	Type          string `json:"type"`
	FromAccountID int64  `json:"fromAccountId"`
	ToAccountID   int64  `json:"toAccountId"`
	Details       string `json:"details,omitempty"`
}

// Client talks to the buzz ledger service.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClientFromEnv() *Client {
	return &Client{
		BaseURL: strings.TrimRight(env.GetEnv("BUZZ_SERVICE_URL", ""), "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// CreateTransaction posts a ledger movement. Failures are returned to the
// caller so the triggering event can be retried; credits are never dropped
// silently.
func (c *Client) CreateTransaction(ctx context.Context, tx Transaction) error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("BUZZ_SERVICE_URL is not configured")
	}
	if tx.Amount <= 0 {
		return errors.New("transaction amount must be positive")
	}

	payload, err := json.Marshal(tx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/transactions", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("buzz transaction failed: status=%d body=%s", resp.StatusCode, string(body))
	}
	return nil
}
