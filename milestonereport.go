package milestonereport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/catalyst-tools/milestone-report/config"
	"github.com/catalyst-tools/milestone-report/internal/poller"
	"github.com/catalyst-tools/milestone-report/internal/report"
)

// Reporter runs one report job end to end: trigger the remote job, poll
// its status at a fixed interval, fetch the result set, normalize it, and
// write the report file.
//
// Reporter is created with [New] from a validated [config.Config] plus
// functional options, and executed with [Reporter.Run]. Each run is
// stateless and idempotent with respect to the remote service's own
// state; a Reporter may be reused for multiple runs.
//
// The typical lifecycle is:
//
//	r, err := milestonereport.New(cfg, milestonereport.WithLogger(logger))
//	if err != nil {
//	    slog.Error("failed to create reporter", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	result, err := r.Run(ctx)
type Reporter struct {
	cfg    *config.Config
	logger *slog.Logger
	client *poller.Client
	sleep  poller.SleepFunc
	now    func() time.Time
}

// RunResult summarizes a successful run.
type RunResult struct {
	// Status is the terminal job status (completed or partial).
	Status JobStatus

	// Attempts is how many status checks the poll loop made.
	Attempts int

	// Projects is the number of normalized records written.
	Projects int

	// Path is the output file path.
	Path string
}

// New creates a [Reporter] from a config and options.
//
// The config is validated here, so callers that already layered file,
// environment, and flag values just pass the result in. Defaults for the
// ambient pieces: [slog.Default] logger, a real-timer sleep, wall-clock
// time.
func New(cfg *config.Config, opts ...Option) (*Reporter, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	rc := &runConfig{}
	for _, opt := range opts {
		if err := opt(rc); err != nil {
			return nil, err
		}
	}

	logger := rc.logger
	if logger == nil {
		logger = slog.Default()
	}
	sleep := rc.sleep
	if sleep == nil {
		sleep = poller.Sleep
	}
	now := rc.now
	if now == nil {
		now = time.Now
	}
	client := rc.client
	if client == nil {
		client = poller.NewClient()
	}

	return &Reporter{
		cfg:    cfg,
		logger: logger,
		client: client,
		sleep:  sleep,
		now:    now,
	}, nil
}

// Run executes the pipeline and blocks until the report file is written
// or a fatal error occurs.
//
// Control flows strictly forward: the trigger completes before polling
// begins, the poll loop's completion predicate gates the results fetch,
// and the transform completes before the write. Cancelling the context
// aborts the run at the next request or sleep boundary.
//
// Errors are returned unwrapped enough for classification:
// [poller.ErrPollTimeout] via errors.Is, *[poller.TriggerError] via
// errors.As.
func (r *Reporter) Run(ctx context.Context) (*RunResult, error) {
	p := poller.New(poller.Config{
		TriggerURL:     r.cfg.TriggerURL(),
		StatusURL:      r.cfg.StatusURL(),
		ProposalsURL:   r.cfg.ProposalsURL(),
		ProjectIDs:     r.cfg.ProjectIDs,
		Interval:       r.cfg.PollInterval.Duration(),
		MaxAttempts:    r.cfg.MaxAttempts,
		RequestTimeout: r.cfg.RequestTimeout.Duration(),
		Sleep:          r.sleep,
		Client:         r.client,
	}, r.logger)
	defer p.Close()

	r.logger.Info("triggering report job",
		"projects", len(r.cfg.ProjectIDs),
		"trigger_url", r.cfg.TriggerURL(),
	)
	if err := p.Trigger(ctx); err != nil {
		return nil, err
	}

	r.logger.Info("polling for completion",
		"interval", r.cfg.PollInterval.Duration().String(),
		"max_attempts", r.cfg.MaxAttempts,
	)
	res, err := p.Wait(ctx)
	if err != nil {
		return nil, err
	}

	status := JobStatus(res.Status)
	r.logger.Info("report job finished",
		"status", status.String(),
		"attempts", res.Attempts,
		"records", len(res.Records),
	)

	doc := report.Transform(res.Records, r.now())
	if err := report.Write(doc, r.cfg.Output); err != nil {
		return nil, err
	}

	r.logger.Info("report written",
		"path", r.cfg.Output,
		"projects", len(doc.Projects),
	)

	return &RunResult{
		Status:   status,
		Attempts: res.Attempts,
		Projects: len(doc.Projects),
		Path:     r.cfg.Output,
	}, nil
}
