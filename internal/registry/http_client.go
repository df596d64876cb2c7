package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rxtech-lab/table-studio/internal/constants"
	appErr "github.com/rxtech-lab/table-studio/pkg/errors"
	"go.uber.org/zap"
)

// Options configures an HTTPClient.
type Options struct {
	// Timeout bounds every single request
	Timeout time.Duration
	// MaxRetries is the number of extra attempts made for unavailable responses
	MaxRetries      int
	InitialInterval time.Duration
	// BaseURLs overrides the validator URL of a chain
	BaseURLs   map[int64]string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// HTTPClient implements Client against the validator REST API.
type HTTPClient struct {
	client          *http.Client
	baseURLs        map[int64]string
	maxRetries      int
	initialInterval time.Duration
	logger          *zap.Logger
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a registry client with bounded timeouts and retries.
func NewHTTPClient(o Options) *HTTPClient {
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.InitialInterval <= 0 {
		o.InitialInterval = 500 * time.Millisecond
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}

	client := &http.Client{Timeout: o.Timeout}
	if o.HTTPClient != nil {
		// copy so a shared client such as http.DefaultClient is left untouched
		c := *o.HTTPClient
		if c.Timeout == 0 {
			c.Timeout = o.Timeout
		}
		client = &c
	}

	return &HTTPClient{
		client:          client,
		baseURLs:        o.BaseURLs,
		maxRetries:      o.MaxRetries,
		initialInterval: o.InitialInterval,
		logger:          o.Logger,
	}
}

// GetTableByID fetches table metadata by chain and token id.
func (c *HTTPClient) GetTableByID(ctx context.Context, chainID int64, tableID string) (*Table, error) {
	base, err := c.baseURL(chainID)
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/api/v1/tables/%d/%s", base, chainID, tableID)

	var table Table
	err = c.getWithRetry(ctx, "get_table", url, &table, func() error {
		return appErr.Newf(appErr.CodeNotFound, "table %s does not exist on chain %d", tableID, chainID).
			WithMeta("chain_id", chainID).
			WithMeta("table_id", tableID)
	})
	if err != nil {
		return nil, err
	}
	return &table, nil
}

// GetReceiptByTxnHash fetches the validator receipt of a transaction. A
// transaction the validator has not processed yet yields CodePending.
func (c *HTTPClient) GetReceiptByTxnHash(ctx context.Context, chainID int64, txnHash string) (*Receipt, error) {
	base, err := c.baseURL(chainID)
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/api/v1/receipt/%d/%s", base, chainID, txnHash)

	var receipt Receipt
	err = c.getWithRetry(ctx, "get_receipt", url, &receipt, func() error {
		return appErr.Newf(appErr.CodePending, "receipt for %s on chain %d is not available yet", txnHash, chainID).
			WithMeta("chain_id", chainID).
			WithMeta("txn_hash", txnHash)
	})
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (c *HTTPClient) baseURL(chainID int64) (string, error) {
	if u, ok := c.baseURLs[chainID]; ok && u != "" {
		return strings.TrimRight(u, "/"), nil
	}
	chain, ok := constants.SupportedChains[chainID]
	if !ok {
		return "", appErr.Newf(appErr.CodeInvalid, "chain %d is not supported", chainID).WithMeta("chain_id", chainID)
	}
	return chain.ValidatorURL, nil
}

func (c *HTTPClient) getWithRetry(ctx context.Context, operation, url string, dest any, onNotFound func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialInterval
	b.MaxElapsedTime = 0

	attempt := 0
	op := func() error {
		attempt++
		err := c.get(ctx, url, dest, onNotFound)
		if err == nil {
			return nil
		}
		if appErr.Retryable(err) && ctx.Err() == nil {
			return err
		}
		return backoff.Permanent(err)
	}
	notify := func(err error, next time.Duration) {
		c.logger.Warn("registry request failed, retrying",
			zap.String("operation", operation),
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", next),
			zap.Error(err))
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.maxRetries)), ctx)
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		// context cancellation surfaces as a bare error from the backoff loop
		if appErr.CodeOf(err) == appErr.CodeUnknown {
			return appErr.Wrap(err, appErr.CodeUnavailable, "registry request aborted").WithMeta("url", url)
		}
		return err
	}
	return nil
}

func (c *HTTPClient) get(ctx context.Context, url string, dest any, onNotFound func() error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "failed to create registry request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return appErr.Wrap(err, appErr.CodeUnavailable, "registry is unreachable").WithMeta("url", url)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return onNotFound()
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return appErr.Newf(appErr.CodeUnavailable, "registry responded with status %d", resp.StatusCode).
			WithMeta("url", url)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return appErr.Newf(appErr.CodeInternal, "registry responded with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))).
			WithMeta("url", url)
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	if err := decoder.Decode(dest); err != nil {
		return appErr.Wrap(err, appErr.CodeUnavailable, "failed to decode registry response").WithMeta("url", url)
	}
	return nil
}
