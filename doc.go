// Package milestonereport triggers a remote milestone report job,
// polls it to completion, and writes the normalized result as JSON.
//
// The package is a thin, strictly sequential pipeline over the remote
// report service's three HTTP endpoints: trigger, status, and proposals.
// It exists so CI pipelines can snapshot project milestone data into a
// committed JSON file.
//
// # Quick Start
//
//	cfg := config.Default()
//	cfg.ProjectIDs = []string{"1000107", "1100214"}
//
//	r, err := milestonereport.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := r.Run(context.Background())
//
// # Configuration
//
// Ambient pieces are injected via functional options:
//
//	r, err := milestonereport.New(cfg,
//	    milestonereport.WithLogger(logger),
//	    milestonereport.WithClock(time.Now),
//	)
//
// See the config package for file- and environment-based configuration.
//
// For the standalone binary, see cmd/milestone-report.
package milestonereport
