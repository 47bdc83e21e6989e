// Package timmi talks to the Timmi room booking system used by the city
// of Salo. Timmi keeps the currently selected calendar day in the server
// side session, so a Client must be used sequentially.
package timmi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"salofyi/internal/config"
	appLog "salofyi/internal/log"
	"salofyi/internal/model"
)

var (
	// ErrSession is returned when Timmi answers a data request with its
	// HTML login page instead of JSON.
	ErrSession = errors.New("timmi: session not logged in")
	// ErrStatus is wrapped by errors for non-2xx responses.
	ErrStatus = errors.New("timmi: unexpected status")
)

// Client is a logged-in Timmi session.
type Client struct {
	base    *url.URL
	http    *http.Client
	limiter *rate.Limiter

	login config.LoginConfig
	parts config.RoomPartsConfig

	// now is replaceable in tests.
	now func() time.Time
}

// NewClient creates a client for cfg.Host. No request is made until the
// first call.
func NewClient(cfg config.SwimmiConfig) (*Client, error) {
	base, err := url.Parse(cfg.Host)
	if err != nil {
		return nil, fmt.Errorf("parse timmi host: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("timmi host %q is not absolute", cfg.Host)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}

	return &Client{
		base: base,
		http: &http.Client{
			Timeout: 15 * time.Second,
			Jar:     jar,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		login:   cfg.Login,
		parts:   cfg.RoomParts,
		now:     time.Now,
	}, nil
}

func (c *Client) epoch() string {
	return strconv.FormatInt(c.now().UnixMilli(), 10)
}

func (c *Client) loggedIn() bool {
	return len(c.http.Jar.Cookies(c.base)) > 0
}

// Login opens a guest session. It is called automatically before the
// first data request.
func (c *Client) Login(ctx context.Context) error {
	q := url.Values{}
	q.Set("loginName", c.login.LoginName)
	q.Set("password", c.login.Password)
	q.Set("roomId", strconv.Itoa(c.login.RoomID))
	q.Set("adminAreaId", strconv.Itoa(c.login.AdminAreaID))

	// The response is an HTML page; only the session cookie matters.
	if _, err := c.get(ctx, "login.do", q); err != nil {
		return fmt.Errorf("timmi login: %w", err)
	}
	if !c.loggedIn() {
		return fmt.Errorf("timmi login: %w", ErrSession)
	}
	appLog.Info("timmi login ok", "host", c.base.Host)
	return nil
}

// ChangeDay moves the session's selected day by delta days and returns
// the epoch (ms) of the newly selected day.
func (c *Client) ChangeDay(ctx context.Context, delta int) (int64, error) {
	q := url.Values{}
	q.Set("actionCode", "changeDay")
	q.Set("numberOfDaysToMove", strconv.Itoa(delta))
	q.Set("_", c.epoch())

	var resp struct {
		NewDate int64 `json:"newDate"`
	}
	if err := c.getJSON(ctx, "calendarAjax.do", q, &resp); err != nil {
		return 0, fmt.Errorf("change day by %d: %w", delta, err)
	}
	return resp.NewDate, nil
}

// Episodes returns the bookings of the selected day.
func (c *Client) Episodes(ctx context.Context) ([]model.Episode, error) {
	q := url.Values{}
	q.Set("actionCode", "getEpisodes")
	q.Set("_", c.epoch())

	var episodes []model.Episode
	if err := c.getJSON(ctx, "calendarAjax.do", q, &episodes); err != nil {
		return nil, fmt.Errorf("get episodes: %w", err)
	}
	return episodes, nil
}

// RoomParts returns the pools and lanes of the selected day.
func (c *Client) RoomParts(ctx context.Context) ([]model.RoomPart, error) {
	q := url.Values{}
	q.Set("actionCode", "getRoomPartInfos")
	q.Set("type", strconv.Itoa(c.parts.Type))
	q.Set("ids", strconv.Itoa(c.parts.IDs))
	q.Set("interpreterLangId", "0")
	q.Set("cumulativeMode", "1")
	q.Set("_", c.epoch())

	var parts []model.RoomPart
	if err := c.getJSON(ctx, "getRoomPartsForCalendarAjax.do", q, &parts); err != nil {
		return nil, fmt.Errorf("get room parts: %w", err)
	}
	return parts, nil
}

// Day fetches the room parts and episodes of the selected day and stamps
// them with epoch.
func (c *Client) Day(ctx context.Context, epoch int64) (model.RawDay, error) {
	parts, err := c.RoomParts(ctx)
	if err != nil {
		return model.RawDay{}, err
	}
	episodes, err := c.Episodes(ctx)
	if err != nil {
		return model.RawDay{}, err
	}
	return model.RawDay{Epoch: epoch, RoomParts: parts, Episodes: episodes}, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, q url.Values, out any) error {
	if !c.loggedIn() {
		if err := c.Login(ctx); err != nil {
			return err
		}
	}

	body, err := c.get(ctx, endpoint, q)
	if err != nil {
		return err
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '<' {
		return ErrSession
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, endpoint string, q url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := c.base.ResolveReference(&url.URL{Path: endpoint, RawQuery: q.Encode()})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json, text/javascript, */*")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	appLog.Debug("timmi request", "endpoint", endpoint, "action", q.Get("actionCode"))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s %s", ErrStatus, endpoint, resp.Status)
	}
	return body, nil
}
