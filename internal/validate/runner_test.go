package validate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/blackwell-systems/gcp-etl-ops/internal/outputs"
)

// fakeProbes answers each probe from canned maps. A missing key means the
// resource does not exist.
type fakeProbes struct {
	buckets  map[string]string // name -> detail
	versions map[string]int    // secret id -> version count
	sql      map[string]string // instance -> state
	clusters map[string]string // cluster -> state
	datasets map[string]string // dataset -> location
	envs     map[string]string // environment -> state

	secretErr error // overrides the versions map when set
}

func (f *fakeProbes) Bucket(_ context.Context, name string) (string, error) {
	detail, ok := f.buckets[name]
	if !ok {
		return "", fmt.Errorf("bucket %q: not found", name)
	}
	return detail, nil
}

func (f *fakeProbes) SecretVersions(_ context.Context, secretID string) (int, error) {
	if f.secretErr != nil {
		return 0, f.secretErr
	}
	n, ok := f.versions[secretID]
	if !ok {
		return 0, fmt.Errorf("secret %q: not found", secretID)
	}
	return n, nil
}

func (f *fakeProbes) SQLInstance(_ context.Context, name string) (string, error) {
	state, ok := f.sql[name]
	if !ok {
		return "", fmt.Errorf("instance %q: not found", name)
	}
	if state != "RUNNABLE" {
		return "", fmt.Errorf("instance %q state is %s, want RUNNABLE", name, state)
	}
	return name + ", state RUNNABLE", nil
}

func (f *fakeProbes) Cluster(_ context.Context, name string) (string, error) {
	state, ok := f.clusters[name]
	if !ok {
		return "", fmt.Errorf("cluster %q: not found", name)
	}
	if state != "RUNNING" {
		return "", fmt.Errorf("cluster %q state is %s, want RUNNING", name, state)
	}
	return name + ", state RUNNING", nil
}

func (f *fakeProbes) Dataset(_ context.Context, id string) (string, error) {
	loc, ok := f.datasets[id]
	if !ok {
		return "", fmt.Errorf("dataset %q: not found", id)
	}
	return id + ", location " + loc, nil
}

func (f *fakeProbes) Environment(_ context.Context, name string) (string, error) {
	state, ok := f.envs[name]
	if !ok {
		return "", fmt.Errorf("environment %q: not found", name)
	}
	if state != "RUNNING" {
		return "", fmt.Errorf("environment %q state is %s, want RUNNING", name, state)
	}
	return name + ", state RUNNING", nil
}

func healthyStack() *fakeProbes {
	return &fakeProbes{
		buckets:  map[string]string{"dev-sales-data": "dev-sales-data, location US", "dev-etl-scripts": "dev-etl-scripts, location US"},
		versions: map[string]int{"dev-sql-password": 2},
		sql:      map[string]string{"dev-sales-postgres": "RUNNABLE"},
		clusters: map[string]string{"dev-etl-cluster": "RUNNING"},
		datasets: map[string]string{"sales_analytics_dev": "US"},
		envs:     map[string]string{"dev-etl-composer": "RUNNING"},
	}
}

func fullOutputs() *outputs.Outputs {
	return &outputs.Outputs{
		Region:              "us-central1",
		DataBucket:          "dev-sales-data",
		ScriptsBucket:       "dev-etl-scripts",
		SQLInstance:         "dev-sales-postgres",
		DataprocCluster:     "dev-etl-cluster",
		BigQueryDataset:     "sales_analytics_dev",
		ComposerEnvironment: "dev-etl-composer",
		SecretID:            "dev-sql-password",
	}
}

func findCheck(t *testing.T, snap *Snapshot, name string) Check {
	t.Helper()
	for _, c := range snap.Checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("snapshot has no check named %q", name)
	return Check{}
}

func TestRunAllHealthy(t *testing.T) {
	r := NewRunner(healthyStack(), time.Second)
	snap := r.Run(context.Background(), fullOutputs())

	if !snap.OK {
		t.Errorf("snapshot OK = false, want true; checks: %+v", snap.Checks)
	}
	if len(snap.Checks) != 8 {
		t.Fatalf("got %d checks, want 8", len(snap.Checks))
	}
	passed, failed, skipped := snap.Counts()
	if passed != 8 || failed != 0 || skipped != 0 {
		t.Errorf("Counts() = %d/%d/%d, want 8/0/0", passed, failed, skipped)
	}
}

func TestRunCheckOrderIsStable(t *testing.T) {
	wantOrder := []string{
		"terraform outputs",
		"data bucket",
		"scripts bucket",
		"sql password secret",
		"cloud sql instance",
		"dataproc cluster",
		"bigquery dataset",
		"composer environment",
	}

	r := NewRunner(healthyStack(), time.Second)
	for run := 0; run < 5; run++ {
		snap := r.Run(context.Background(), fullOutputs())
		for i, c := range snap.Checks {
			if c.Name != wantOrder[i] {
				t.Fatalf("run %d: check[%d] = %q, want %q", run, i, c.Name, wantOrder[i])
			}
		}
	}
}

func TestRunMissingBucketIsolated(t *testing.T) {
	probes := healthyStack()
	delete(probes.buckets, "dev-sales-data")

	r := NewRunner(probes, time.Second)
	snap := r.Run(context.Background(), fullOutputs())

	if snap.OK {
		t.Error("snapshot OK = true, want false")
	}

	bucket := findCheck(t, snap, "data bucket")
	if bucket.Result != ResultFail {
		t.Errorf("data bucket result = %s, want fail", bucket.Result)
	}
	if !strings.Contains(bucket.Message, "dev-sales-data") {
		t.Errorf("fail message %q should name the bucket", bucket.Message)
	}

	// Every other check still ran and reported its own result.
	for _, c := range snap.Checks {
		if c.Name == "data bucket" {
			continue
		}
		if c.Result != ResultPass {
			t.Errorf("check %q = %s, want pass", c.Name, c.Result)
		}
	}
}

func TestRunSecretProbeErrorIsolated(t *testing.T) {
	probes := healthyStack()
	probes.secretErr = errors.New("connection refused")

	r := NewRunner(probes, time.Second)
	snap := r.Run(context.Background(), fullOutputs())

	if snap.OK {
		t.Error("snapshot OK = true, want false")
	}

	secret := findCheck(t, snap, "sql password secret")
	if secret.Result != ResultFail {
		t.Errorf("secret check = %s, want fail", secret.Result)
	}
	if !strings.Contains(secret.Message, "connection refused") {
		t.Errorf("fail message %q should carry the error text", secret.Message)
	}

	passed, failed, _ := snap.Counts()
	if failed != 1 || passed != 7 {
		t.Errorf("Counts() = %d passed, %d failed; want 7 passed, 1 failed", passed, failed)
	}
}

func TestRunSecretWithNoVersionsFails(t *testing.T) {
	probes := healthyStack()
	probes.versions["dev-sql-password"] = 0

	r := NewRunner(probes, time.Second)
	snap := r.Run(context.Background(), fullOutputs())

	secret := findCheck(t, snap, "sql password secret")
	if secret.Result != ResultFail {
		t.Errorf("secret check = %s, want fail", secret.Result)
	}
	if !strings.Contains(secret.Message, "no versions") {
		t.Errorf("fail message %q should mention missing versions", secret.Message)
	}
}

func TestRunSkippedChecksDoNotFailSnapshot(t *testing.T) {
	out := fullOutputs()
	out.ScriptsBucket = "" // feature not configured

	r := NewRunner(healthyStack(), time.Second)
	snap := r.Run(context.Background(), out)

	scripts := findCheck(t, snap, "scripts bucket")
	if scripts.Result != ResultSkipped {
		t.Errorf("scripts bucket = %s, want skipped", scripts.Result)
	}
	if !snap.OK {
		t.Error("snapshot OK = false, want true: skipped checks must not count against pass/fail")
	}
}

func TestRunMissingOutputsCheckFails(t *testing.T) {
	out := fullOutputs()
	out.DataprocCluster = ""
	out.BigQueryDataset = ""

	r := NewRunner(healthyStack(), time.Second)
	snap := r.Run(context.Background(), out)

	presence := findCheck(t, snap, "terraform outputs")
	if presence.Result != ResultFail {
		t.Errorf("outputs presence check = %s, want fail", presence.Result)
	}
	if !strings.Contains(presence.Message, "dataproc_cluster") || !strings.Contains(presence.Message, "bigquery_dataset") {
		t.Errorf("fail message %q should list the missing identifiers", presence.Message)
	}

	// The unresolved resources themselves are skipped, not failed.
	if c := findCheck(t, snap, "dataproc cluster"); c.Result != ResultSkipped {
		t.Errorf("dataproc cluster = %s, want skipped", c.Result)
	}

	if snap.OK {
		t.Error("snapshot OK = true, want false")
	}
}

func TestRunIdempotent(t *testing.T) {
	probes := healthyStack()
	delete(probes.clusters, "dev-etl-cluster")
	r := NewRunner(probes, time.Second)

	first := r.Run(context.Background(), fullOutputs())
	second := r.Run(context.Background(), fullOutputs())

	if len(first.Checks) != len(second.Checks) {
		t.Fatalf("check counts differ: %d vs %d", len(first.Checks), len(second.Checks))
	}
	for i := range first.Checks {
		if first.Checks[i] != second.Checks[i] {
			t.Errorf("check %d differs across runs: %+v vs %+v", i, first.Checks[i], second.Checks[i])
		}
	}
	if first.OK != second.OK {
		t.Errorf("overall result differs across runs: %v vs %v", first.OK, second.OK)
	}
}
