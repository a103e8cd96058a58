package milestonereport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/catalyst-tools/milestone-report/internal/poller"
)

// runConfig holds mutable state during Reporter construction.
type runConfig struct {
	logger *slog.Logger
	sleep  poller.SleepFunc
	now    func() time.Time
	client *poller.Client
}

// Option is a function that configures a [Reporter] during construction.
//
// Option implements the functional options pattern. Options return an
// error if validation fails.
//
// Built-in options: [WithLogger], [WithSleep], [WithClock],
// [WithHTTPClient].
type Option func(*runConfig) error

// WithLogger sets a custom [slog.Logger] for the Reporter.
//
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(rc *runConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		rc.logger = logger
		return nil
	}
}

// WithSleep replaces the inter-attempt wait used by the poll loop.
//
// The default sleeps on a real timer. Tests inject a recording stub so
// the loop runs without wall-clock delay.
//
// Returns an error if the function is nil.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(rc *runConfig) error {
		if sleep == nil {
			return errors.New("sleep function cannot be nil")
		}
		rc.sleep = sleep
		return nil
	}
}

// WithClock replaces the wall clock used for the report document's
// generation timestamp.
//
// Returns an error if the function is nil.
func WithClock(now func() time.Time) Option {
	return func(rc *runConfig) error {
		if now == nil {
			return errors.New("clock function cannot be nil")
		}
		rc.now = now
		return nil
	}
}

// WithHTTPClient replaces the underlying [http.Client], for callers that
// need custom transports.
//
// Returns an error if the client is nil.
func WithHTTPClient(hc *http.Client) Option {
	return func(rc *runConfig) error {
		if hc == nil {
			return errors.New("http client cannot be nil")
		}
		rc.client = poller.NewClientFrom(hc)
		return nil
	}
}
