package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/catalyst-tools/milestone-report/internal/report"
)

// Job status values reported by the remote service. These mirror the
// public milestonereport.JobStatus constants; the poller keeps its own
// copies to avoid a circular dependency on the root package.
const (
	statusCompleted = "completed"
	statusPartial   = "partial"
)

// ErrPollTimeout is returned when the attempt cap is exhausted before the
// remote job reports completion. Wrapped errors add whether the final
// attempt itself failed or the job simply never finished.
var ErrPollTimeout = errors.New("report job did not complete in time")

// TriggerError is returned when the trigger endpoint answers with a
// non-2xx status. Triggering is never retried.
type TriggerError struct {
	StatusCode int
	Body       string
}

func (e *TriggerError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("trigger request rejected with status %d", e.StatusCode)
	}
	return fmt.Sprintf("trigger request rejected with status %d: %s", e.StatusCode, e.Body)
}

// SleepFunc waits for the given duration or until the context is
// cancelled, whichever comes first. Injectable so tests can run the poll
// loop without wall-clock delay.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default [SleepFunc], backed by a real timer.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Config holds everything a [Poller] needs for one report job.
type Config struct {
	// TriggerURL starts the report job (POST).
	TriggerURL string

	// StatusURL is polled for job progress (GET).
	StatusURL string

	// ProposalsURL serves the full result set once the status endpoint
	// signals data availability (GET). When empty, the poller expects
	// the status response to carry the results inline.
	ProposalsURL string

	// ProjectIDs are encoded as a comma-separated projectIds query
	// parameter on every request.
	ProjectIDs []string

	// Interval is the fixed delay between status checks. No backoff.
	Interval time.Duration

	// MaxAttempts caps the number of status checks.
	MaxAttempts int

	// RequestTimeout is the per-request timeout.
	RequestTimeout time.Duration

	// Sleep overrides the inter-attempt wait. Defaults to [Sleep].
	Sleep SleepFunc

	// Client overrides the HTTP client. Defaults to [NewClient].
	Client *Client
}

// Result is the outcome of a successful poll.
type Result struct {
	// Records is the raw project result set.
	Records []report.RawProject

	// Status is the terminal job status ("completed" or "partial").
	Status string

	// Attempts is how many status checks were made.
	Attempts int
}

// Poller drives one remote report job: trigger, fixed-interval status
// polling with an attempt cap, then the results fetch.
type Poller struct {
	cfg    Config
	client *Client
	sleep  SleepFunc
	logger *slog.Logger
}

// New creates a [Poller]. The config is assumed validated by the caller.
func New(cfg Config, logger *slog.Logger) *Poller {
	client := cfg.Client
	if client == nil {
		client = NewClient()
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{cfg: cfg, client: client, sleep: sleep, logger: logger}
}

// Close releases the poller's idle HTTP connections.
func (p *Poller) Close() {
	p.client.Close()
}

// query builds the projectIds query parameter shared by all endpoints.
func (p *Poller) query() url.Values {
	return url.Values{"projectIds": []string{strings.Join(p.cfg.ProjectIDs, ",")}}
}

// Trigger starts the remote report job.
//
// Any non-2xx response is a hard failure (*TriggerError); the response
// body is advisory only, so empty and non-JSON bodies count as success.
func (p *Poller) Trigger(ctx context.Context) error {
	resp := p.client.Fetch(ctx, http.MethodPost, p.cfg.TriggerURL, p.query(), p.cfg.RequestTimeout)
	if resp.Error != nil {
		return fmt.Errorf("trigger request: %w", resp.Error)
	}
	if !resp.OK() {
		return &TriggerError{StatusCode: resp.StatusCode, Body: resp.Payload.Text}
	}

	switch resp.Payload.Kind {
	case PayloadJSON:
		p.logger.Debug("trigger acknowledged", "body", string(resp.Payload.JSON))
	case PayloadRaw:
		p.logger.Debug("trigger acknowledged with non-JSON body", "body", resp.Payload.Text)
	case PayloadEmpty:
		p.logger.Debug("trigger acknowledged with empty body")
	}
	return nil
}

// statusResponse is the status endpoint's JSON shape.
type statusResponse struct {
	Status  string          `json:"status"`
	HasData bool            `json:"hasData"`
	Results json.RawMessage `json:"results"`
}

// finished is the completion predicate: data is available and the job is
// completed or partial. Partial results are accepted as terminal.
func (s statusResponse) finished() bool {
	return s.HasData && (s.Status == statusCompleted || s.Status == statusPartial)
}

// Wait polls the status endpoint until the job finishes, then fetches and
// returns the result set.
//
// Each attempt that fails (transport error, non-2xx, undecodable body) is
// logged and retried after the configured interval, unless it was the
// final attempt. Exhausting all attempts yields an error wrapping
// [ErrPollTimeout]; the message distinguishes a job that never completed
// from a final attempt that itself failed.
func (p *Poller) Wait(ctx context.Context) (Result, error) {
	var lastErr error

	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		st, err := p.checkStatus(ctx)
		if err != nil {
			lastErr = err
			p.logger.Warn("status check failed",
				"attempt", attempt,
				"max_attempts", p.cfg.MaxAttempts,
				"error", err.Error(),
			)
		} else {
			lastErr = nil
			if st.finished() {
				records, err := p.collect(ctx, st)
				if err != nil {
					return Result{}, err
				}
				return Result{Records: records, Status: st.Status, Attempts: attempt}, nil
			}
			p.logger.Info("report job still running",
				"attempt", attempt,
				"max_attempts", p.cfg.MaxAttempts,
				"status", st.Status,
				"has_data", st.HasData,
			)
		}

		if attempt == p.cfg.MaxAttempts {
			break
		}
		if err := p.sleep(ctx, p.cfg.Interval); err != nil {
			return Result{}, err
		}
	}

	if lastErr != nil {
		return Result{}, fmt.Errorf("final status check failed (%v) after %d attempts: %w",
			lastErr, p.cfg.MaxAttempts, ErrPollTimeout)
	}
	return Result{}, fmt.Errorf("job not finished after %d attempts: %w",
		p.cfg.MaxAttempts, ErrPollTimeout)
}

// checkStatus performs one status request and decodes it.
func (p *Poller) checkStatus(ctx context.Context) (statusResponse, error) {
	resp := p.client.Fetch(ctx, http.MethodGet, p.cfg.StatusURL, p.query(), p.cfg.RequestTimeout)
	if resp.Error != nil {
		return statusResponse{}, fmt.Errorf("status request: %w", resp.Error)
	}
	if !resp.OK() {
		return statusResponse{}, fmt.Errorf("status endpoint returned %d", resp.StatusCode)
	}
	if resp.Payload.Kind != PayloadJSON {
		return statusResponse{}, fmt.Errorf("status endpoint returned a non-JSON body")
	}

	var st statusResponse
	if err := json.Unmarshal(resp.Payload.JSON, &st); err != nil {
		return statusResponse{}, fmt.Errorf("failed to decode status response: %w", err)
	}
	return st, nil
}

// collect returns the result set for a finished job: either the inline
// results carried by the status response, or a fetch from the proposals
// endpoint.
func (p *Poller) collect(ctx context.Context, st statusResponse) ([]report.RawProject, error) {
	if p.cfg.ProposalsURL == "" {
		if len(st.Results) == 0 {
			return nil, errors.New("status response signalled data but carried no results")
		}
		var records []report.RawProject
		if err := json.Unmarshal(st.Results, &records); err != nil {
			return nil, fmt.Errorf("failed to decode inline results: %w", err)
		}
		return records, nil
	}

	resp := p.client.Fetch(ctx, http.MethodGet, p.cfg.ProposalsURL, p.query(), p.cfg.RequestTimeout)
	if resp.Error != nil {
		return nil, fmt.Errorf("proposals request: %w", resp.Error)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("proposals endpoint returned %d", resp.StatusCode)
	}
	if resp.Payload.Kind != PayloadJSON {
		return nil, errors.New("proposals endpoint returned a non-JSON body")
	}

	var out struct {
		Proposals []report.RawProject `json:"proposals"`
	}
	if err := json.Unmarshal(resp.Payload.JSON, &out); err != nil {
		return nil, fmt.Errorf("failed to decode proposals response: %w", err)
	}
	return out.Proposals, nil
}
