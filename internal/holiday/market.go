package holiday

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"golang.org/x/sync/singleflight"

	"openhours/internal/hours"
	"openhours/internal/util"
)

var _ hours.HolidayOracle = (*MarketCalendar)(nil)

const (
	marketFetchTimeout  = 20 * time.Second
	marketRatePerMinute = 180
)

var marketBackoff = util.Backoff{
	Attempts:  3,
	BaseDelay: 500 * time.Millisecond,
	MaxDelay:  4 * time.Second,
}

// calendarClient is the subset of the Alpaca trading client used here.
type calendarClient interface {
	GetCalendar(req alpaca.GetCalendarRequest) ([]alpaca.CalendarDay, error)
}

// MarketCalendar treats every weekday on which the exchange does not trade
// as a holiday. Trading days are fetched from the Alpaca calendar API one
// month at a time and kept for the lifetime of the oracle.
type MarketCalendar struct {
	client  calendarClient
	limiter *util.RateLimiter
	log     *slog.Logger

	fetches singleflight.Group

	mu     sync.Mutex
	months map[monthKey]map[date]bool
}

type monthKey struct {
	year  int
	month time.Month
}

// NewMarketCalendar creates an oracle backed by the Alpaca trading API.
func NewMarketCalendar(apiKey, apiSecret, baseURL string, log *slog.Logger) *MarketCalendar {
	client := alpaca.NewClient(alpaca.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
		BaseURL:   baseURL,
	})
	return newMarketCalendar(client, log)
}

func newMarketCalendar(client calendarClient, log *slog.Logger) *MarketCalendar {
	if log == nil {
		log = slog.Default()
	}
	return &MarketCalendar{
		client:  client,
		limiter: util.NewRateLimiter(marketRatePerMinute),
		log:     log,
		months:  make(map[monthKey]map[date]bool),
	}
}

// IsHoliday reports whether t falls on a weekday without a trading session.
// Weekends are never holidays; the weekly rules already cover them.
func (m *MarketCalendar) IsHoliday(t time.Time) (bool, error) {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false, nil
	}
	trading, err := m.month(monthKey{year: t.Year(), month: t.Month()})
	if err != nil {
		return false, err
	}
	return !trading[dateOf(t)], nil
}

// month returns the trading days of one month. Concurrent callers asking
// for the same month share one fetch; the lock is only held to read and
// store the cache.
func (m *MarketCalendar) month(key monthKey) (map[date]bool, error) {
	m.mu.Lock()
	days, ok := m.months[key]
	m.mu.Unlock()
	if ok {
		return days, nil
	}

	v, err, _ := m.fetches.Do(fmt.Sprintf("%04d-%02d", key.year, key.month), func() (any, error) {
		days, err := m.fetch(key)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.months[key] = days
		m.mu.Unlock()
		return days, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[date]bool), nil
}

func (m *MarketCalendar) fetch(key monthKey) (map[date]bool, error) {
	start := time.Date(key.year, key.month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)

	ctx, cancel := context.WithTimeout(context.Background(), marketFetchTimeout)
	defer cancel()

	var calendar []alpaca.CalendarDay
	err := util.Retry(ctx, marketBackoff, func(attempt int) error {
		if err := m.limiter.Wait(ctx); err != nil {
			return err
		}
		var err error
		calendar, err = m.client.GetCalendar(alpaca.GetCalendarRequest{Start: start, End: end})
		if err != nil {
			m.log.Warn("fetching trading calendar", "attempt", attempt, "error", err)
			if rejected(err) {
				return util.Permanent(err)
			}
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("GetCalendar %04d-%02d: %w", key.year, key.month, err)
	}

	days := make(map[date]bool, len(calendar))
	for _, day := range calendar {
		t, err := time.Parse("2006-01-02", day.Date)
		if err != nil {
			m.log.Warn("skipping calendar day", "date", day.Date, "error", err)
			continue
		}
		days[dateOf(t)] = true
	}
	m.log.Info("loaded trading calendar", "month", start.Format("2006-01"), "sessions", len(days))
	return days, nil
}

// rejected reports whether Alpaca refused the request itself (bad
// credentials, forbidden, malformed), which another attempt cannot fix.
// Rate limiting is the exception and stays retryable.
func rejected(err error) bool {
	var apiErr *alpaca.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 &&
		apiErr.StatusCode != http.StatusTooManyRequests
}
