package validate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/gcp-etl-ops/internal/outputs"
)

// Probes is the resource-inspection surface the runner fans out over.
// Each method returns a human-readable detail on success and an error when
// the resource is absent, unreachable, or unhealthy. The GCP
// implementation lives in gcp.go; tests substitute a fake.
type Probes interface {
	Bucket(ctx context.Context, name string) (string, error)
	SecretVersions(ctx context.Context, secretID string) (int, error)
	SQLInstance(ctx context.Context, name string) (string, error)
	Cluster(ctx context.Context, name string) (string, error)
	Dataset(ctx context.Context, id string) (string, error)
	Environment(ctx context.Context, name string) (string, error)
}

// Runner executes the check battery.
type Runner struct {
	probes  Probes
	timeout time.Duration // per check
}

// NewRunner builds a runner. timeout bounds each individual check.
func NewRunner(probes Probes, timeout time.Duration) *Runner {
	return &Runner{probes: probes, timeout: timeout}
}

// probeCheck is one scheduled resource check. An empty target means the
// identifier was not exported, which yields a skipped result.
type probeCheck struct {
	name   string
	target string
	run    func(ctx context.Context) (string, error)
}

// Run executes every check and aggregates a snapshot. Checks run
// concurrently but report in declaration order; overall OK is true iff
// every non-skipped check passed.
func (r *Runner) Run(ctx context.Context, out *outputs.Outputs) *Snapshot {
	snap := &Snapshot{Taken: time.Now().UTC()}

	checks := []probeCheck{
		{
			name:   "terraform outputs",
			target: "-",
			run: func(context.Context) (string, error) {
				if missing := out.Missing(); len(missing) > 0 {
					return "", fmt.Errorf("missing identifiers: %s", strings.Join(missing, ", "))
				}
				return "all required identifiers present", nil
			},
		},
		{
			name:   "data bucket",
			target: out.DataBucket,
			run: func(ctx context.Context) (string, error) {
				return r.probes.Bucket(ctx, out.DataBucket)
			},
		},
		{
			name:   "scripts bucket",
			target: out.ScriptsBucket,
			run: func(ctx context.Context) (string, error) {
				return r.probes.Bucket(ctx, out.ScriptsBucket)
			},
		},
		{
			name:   "sql password secret",
			target: out.SecretID,
			run: func(ctx context.Context) (string, error) {
				n, err := r.probes.SecretVersions(ctx, out.SecretID)
				if err != nil {
					return "", err
				}
				if n < 1 {
					return "", fmt.Errorf("secret %q has no versions", out.SecretID)
				}
				return fmt.Sprintf("%d version(s)", n), nil
			},
		},
		{
			name:   "cloud sql instance",
			target: out.SQLInstance,
			run: func(ctx context.Context) (string, error) {
				return r.probes.SQLInstance(ctx, out.SQLInstance)
			},
		},
		{
			name:   "dataproc cluster",
			target: out.DataprocCluster,
			run: func(ctx context.Context) (string, error) {
				return r.probes.Cluster(ctx, out.DataprocCluster)
			},
		},
		{
			name:   "bigquery dataset",
			target: out.BigQueryDataset,
			run: func(ctx context.Context) (string, error) {
				return r.probes.Dataset(ctx, out.BigQueryDataset)
			},
		},
		{
			name:   "composer environment",
			target: out.ComposerEnvironment,
			run: func(ctx context.Context) (string, error) {
				return r.probes.Environment(ctx, out.ComposerEnvironment)
			},
		},
	}

	results := make([]Check, len(checks))

	// Fixed-index fan-out keeps presentation order stable regardless of
	// completion order. Goroutines never return an error: a failing check
	// is a result, not an abort.
	var g errgroup.Group
	for i, c := range checks {
		g.Go(func() error {
			results[i] = r.runOne(ctx, c)
			return nil
		})
	}
	g.Wait()

	snap.Checks = results
	snap.OK = true
	for _, c := range results {
		if c.Result == ResultFail {
			snap.OK = false
		}
	}
	return snap
}

// runOne executes a single check under its own timeout and converts any
// error into a fail result carrying the resource identifier.
func (r *Runner) runOne(ctx context.Context, c probeCheck) Check {
	if c.target == "" {
		return Check{
			Name:    c.name,
			Result:  ResultSkipped,
			Message: "not configured in terraform outputs",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	msg, err := c.run(ctx)
	if err != nil {
		return Check{Name: c.name, Result: ResultFail, Message: err.Error()}
	}
	return Check{Name: c.name, Result: ResultPass, Message: msg}
}
