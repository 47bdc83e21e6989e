// Package baserow reads rows from a Baserow table. It is used for the
// hand-maintained table of exceptional opening hours.
package baserow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"salofyi/internal/config"
	appLog "salofyi/internal/log"
	"salofyi/internal/model"
)

// ErrDisabled is returned when no token or table is configured.
var ErrDisabled = errors.New("baserow: not configured")

// maxPages guards against a server that keeps returning a next link.
const maxPages = 50

// Client is a Baserow database token client.
type Client struct {
	host  string
	token string
	http  *http.Client
}

type page[T any] struct {
	Count    int    `json:"count"`
	Next     string `json:"next"`
	Previous string `json:"previous"`
	Results  []T    `json:"results"`
}

// NewClient creates a client for cfg.Host authenticated with cfg.Token.
func NewClient(cfg config.BaserowConfig) *Client {
	return &Client{
		host:  strings.TrimRight(cfg.Host, "/"),
		token: cfg.Token,
		http:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Rows returns every row of the table, following the next links.
func Rows[T any](ctx context.Context, c *Client, tableID string) ([]T, error) {
	if c.token == "" || tableID == "" {
		return nil, ErrDisabled
	}

	next := c.host + "/database/rows/table/" + url.PathEscape(tableID) + "/?user_field_names=true"

	var rows []T
	for i := 0; next != ""; i++ {
		if i == maxPages {
			return rows, fmt.Errorf("baserow table %s: more than %d pages", tableID, maxPages)
		}
		var p page[T]
		if err := c.get(ctx, next, &p); err != nil {
			return nil, fmt.Errorf("baserow table %s: %w", tableID, err)
		}
		rows = append(rows, p.Results...)
		next = p.Next
	}
	return rows, nil
}

func (c *Client) get(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// ExtraOpenHours fetches the override rows. Any failure is logged and
// yields no overrides.
func ExtraOpenHours(ctx context.Context, cfg config.BaserowConfig) []model.ExtraOpenHours {
	rows, err := Rows[model.ExtraOpenHours](ctx, NewClient(cfg), cfg.TableID)
	switch {
	case errors.Is(err, ErrDisabled):
		appLog.Debug("baserow overrides disabled")
		return nil
	case err != nil:
		appLog.Warn("extra open hours unavailable", "err", err)
		return nil
	}
	appLog.Info("extra open hours fetched", "rows", len(rows))
	return rows
}
