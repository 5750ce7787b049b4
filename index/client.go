// Package index is a best effort client of the indexed query service that
// mirrors registry and resolver state. Nothing it returns is authoritative.
package index

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru"
)

const (
	DefaultTimeout = 3 * time.Second
	memoSize       = 256
	maxBodySize    = 1 << 20
)

var (
	ErrNotConfigured = errors.New("index service not configured")
	ErrNotFound      = errors.New("not found in index")
)

// Domain is what the index knows about one name. Zero addresses mean the
// index did not report the field.
type Domain struct {
	Name     string
	Owner    common.Address
	Resolver common.Address
	Address  common.Address
	Texts    map[string]string
}

type Client struct {
	url     string
	http    *http.Client
	timeout time.Duration
	memo    *lru.Cache
	logger  *slog.Logger
}

// NewClient returns a client for url. An empty url gives a client whose
// every lookup fails with ErrNotConfigured.
func NewClient(url string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	memo, _ := lru.New(memoSize)
	return &Client{
		url:     url,
		http:    &http.Client{Timeout: timeout},
		timeout: timeout,
		memo:    memo,
		logger:  logger,
	}
}

func (c *Client) URL() string {
	if c == nil {
		return ""
	}
	return c.url
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type gqlError struct {
	Message string `json:"message"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

func (c *Client) post(ctx context.Context, query string, vars map[string]any, out any) error {
	if c == nil || c.url == "" {
		return ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(gqlRequest{Query: query, Variables: vars})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("index %s: %w", c.url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("index %s: couldn't read body: %w", c.url, err)
	}
	c.logger.Debug("index query", "url", c.url, "status", resp.StatusCode, "duration", time.Since(start))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("index %s: unexpected status %d", c.url, resp.StatusCode)
	}

	var gr gqlResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return fmt.Errorf("index %s: couldn't decode response: %w", c.url, err)
	}
	if len(gr.Errors) > 0 {
		msgs := make([]string, 0, len(gr.Errors))
		for _, e := range gr.Errors {
			msgs = append(msgs, e.Message)
		}
		return fmt.Errorf("index %s: %s", c.url, strings.Join(msgs, "; "))
	}
	if err := json.Unmarshal(gr.Data, out); err != nil {
		return fmt.Errorf("index %s: couldn't decode data: %w", c.url, err)
	}
	return nil
}

const domainQuery = `query Domain($name: String!) {
  domain(name: $name) { name owner resolver address texts { key value } }
}`

type domainData struct {
	Domain *struct {
		Name     string `json:"name"`
		Owner    string `json:"owner"`
		Resolver string `json:"resolver"`
		Address  string `json:"address"`
		Texts    []struct {
			Key   string `json:"key"`
			Value string `json:"value"`
		} `json:"texts"`
	} `json:"domain"`
}

func parseAddress(s string) common.Address {
	if !common.IsHexAddress(s) {
		return common.Address{}
	}
	return common.HexToAddress(s)
}

func domainKey(name string) string { return "domain:" + name }

func primaryKey(addr common.Address) string { return "primary:" + strings.ToLower(addr.Hex()) }

// Domain looks name up. Results are memoized until Invalidate.
func (c *Client) Domain(ctx context.Context, name string) (*Domain, error) {
	if c != nil {
		if v, ok := c.memo.Get(domainKey(name)); ok {
			return v.(*Domain), nil
		}
	}
	var data domainData
	if err := c.post(ctx, domainQuery, map[string]any{"name": name}, &data); err != nil {
		return nil, err
	}
	if data.Domain == nil {
		return nil, ErrNotFound
	}
	d := &Domain{
		Name:     data.Domain.Name,
		Owner:    parseAddress(data.Domain.Owner),
		Resolver: parseAddress(data.Domain.Resolver),
		Address:  parseAddress(data.Domain.Address),
		Texts:    map[string]string{},
	}
	for _, t := range data.Domain.Texts {
		d.Texts[t.Key] = t.Value
	}
	c.memo.Add(domainKey(name), d)
	return d, nil
}

const primaryNameQuery = `query PrimaryName($address: String!) {
  primaryName(address: $address) { name }
}`

type primaryNameData struct {
	PrimaryName *struct {
		Name string `json:"name"`
	} `json:"primaryName"`
}

func (c *Client) PrimaryName(ctx context.Context, addr common.Address) (string, error) {
	if c != nil {
		if v, ok := c.memo.Get(primaryKey(addr)); ok {
			return v.(string), nil
		}
	}
	var data primaryNameData
	if err := c.post(ctx, primaryNameQuery, map[string]any{"address": strings.ToLower(addr.Hex())}, &data); err != nil {
		return "", err
	}
	if data.PrimaryName == nil || data.PrimaryName.Name == "" {
		return "", ErrNotFound
	}
	c.memo.Add(primaryKey(addr), data.PrimaryName.Name)
	return data.PrimaryName.Name, nil
}

// Invalidate drops memoized results for name.
func (c *Client) Invalidate(name string) {
	if c == nil {
		return
	}
	c.memo.Remove(domainKey(name))
}

// InvalidateAddress drops the memoized primary name of addr.
func (c *Client) InvalidateAddress(addr common.Address) {
	if c == nil {
		return
	}
	c.memo.Remove(primaryKey(addr))
}
