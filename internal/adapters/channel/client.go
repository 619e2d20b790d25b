// Package channel pushes rates and inventory to an external channel manager over HTTP.
package channel

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"hotel_pms/internal/adapters/observability"
	"hotel_pms/internal/domain"
)

const maxAttempts = 4

type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

func New(base, key string, rps int) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("channel base URL is required")
	}
	if key == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 20 * time.Second},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// Day is one date of the pushed calendar as the channel manager expects it.
type Day struct {
	Date              string `json:"date"`
	Available         int    `json:"available"`
	Price             string `json:"price"`
	MinStay           int    `json:"minStay"`
	MaxStay           int    `json:"maxStay,omitempty"`
	ClosedToArrival   bool   `json:"closedToArrival"`
	ClosedToDeparture bool   `json:"closedToDeparture"`
	StopSell          bool   `json:"stopSell"`
}

type pushRequest struct {
	RoomType string `json:"roomType"`
	Days     []Day  `json:"days"`
}

func toDays(rows []domain.RoomAvailability) []Day {
	out := make([]Day, 0, len(rows))
	for _, r := range rows {
		out = append(out, Day{
			Date:              r.Date.Format(domain.DateLayout),
			Available:         r.Available(),
			Price:             r.Price.StringFixed(2),
			MinStay:           r.MinStay,
			MaxStay:           r.MaxStay,
			ClosedToArrival:   r.ClosedToArrival,
			ClosedToDeparture: r.ClosedToDeparture,
			StopSell:          r.StopSell || r.Available() == 0,
		})
	}
	return out
}

// PushAvailability sends the calendar of one room type. The ARI endpoint is tried first,
// then the legacy inventory path. An unknown room type maps to domain.ErrNotFound.
func (c *Client) PushAvailability(ctx context.Context, roomTypeCode string, rows []domain.RoomAvailability) error {
	if len(rows) == 0 {
		return nil
	}
	body, err := json.Marshal(pushRequest{RoomType: roomTypeCode, Days: toDays(rows)})
	if err != nil {
		return err
	}
	code := url.PathEscape(roomTypeCode)
	candidates := []string{
		fmt.Sprintf("%s/ari/room-types/%s", c.base, code),
		fmt.Sprintf("%s/inventory/%s", c.base, code),
	}
	return c.postFirst(ctx, candidates, body)
}

func (c *Client) postFirst(ctx context.Context, urls []string, body []byte) error {
	var last error
	for _, u := range urls {
		if err := c.post(ctx, u, body); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				last = err
				continue
			}
			return err
		}
		return nil
	}
	if last != nil {
		return last
	}
	return errors.New("no candidate URL succeeded")
}

func endpoint(u string) string {
	if strings.Contains(u, "/ari/") {
		return "ari"
	}
	return "inventory"
}

// post sends body with client-side rate limiting and retries on 429 and transient 5xx,
// honouring Retry-After when provided.
func (c *Client) post(ctx context.Context, url string, body []byte) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("X-API-Key", c.key)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "hotel-pms/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("channel", endpoint(url), 0, time.Since(start))
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < maxAttempts-1 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}

		observability.ObserveExternal("channel", endpoint(url), resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated, http.StatusAccepted, http.StatusNoContent:
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil

		case http.StatusNotFound:
			resp.Body.Close()
			return fmt.Errorf("channel: %w", domain.ErrNotFound)

		case http.StatusUnauthorized:
			resp.Body.Close()
			return fmt.Errorf("channel: %w", domain.ErrUnauthorized)

		case http.StatusForbidden:
			resp.Body.Close()
			return fmt.Errorf("channel: %w", domain.ErrForbidden)

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("channel: remote %d", resp.StatusCode)
			if i < maxAttempts-1 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("channel: bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}
	return lastErr
}

// sleepCtx waits for d or returns false once ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After in seconds or HTTP-date form; 0 if absent or invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 200ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}

var _ domain.ChannelClient = (*Client)(nil)
