package validate

import (
	"context"
	"fmt"

	bigquery "google.golang.org/api/bigquery/v2"
	composer "google.golang.org/api/composer/v1"
	dataproc "google.golang.org/api/dataproc/v1"
	"google.golang.org/api/option"
	sqladmin "google.golang.org/api/sqladmin/v1beta4"
	storage "google.golang.org/api/storage/v1"

	"github.com/blackwell-systems/gcp-etl-ops/internal/operr"
	"github.com/blackwell-systems/gcp-etl-ops/internal/secrets"
)

// GCPProbes implements Probes against the live GCP APIs using ambient
// credentials.
type GCPProbes struct {
	storage  *storage.Service
	sqladmin *sqladmin.Service
	dataproc *dataproc.Service
	bigquery *bigquery.Service
	composer *composer.Service
	secrets  secrets.Store

	project string
	region  string
}

var _ Probes = (*GCPProbes)(nil)

// NewGCPProbes dials every service the checklist needs.
func NewGCPProbes(ctx context.Context, project, region string, store secrets.Store, opts ...option.ClientOption) (*GCPProbes, error) {
	storageSvc, err := storage.NewService(ctx, opts...)
	if err != nil {
		return nil, operr.Classify("validate.connect", "storage", err)
	}
	sqlSvc, err := sqladmin.NewService(ctx, opts...)
	if err != nil {
		return nil, operr.Classify("validate.connect", "sqladmin", err)
	}
	dataprocSvc, err := dataproc.NewService(ctx, opts...)
	if err != nil {
		return nil, operr.Classify("validate.connect", "dataproc", err)
	}
	bigquerySvc, err := bigquery.NewService(ctx, opts...)
	if err != nil {
		return nil, operr.Classify("validate.connect", "bigquery", err)
	}
	composerSvc, err := composer.NewService(ctx, opts...)
	if err != nil {
		return nil, operr.Classify("validate.connect", "composer", err)
	}

	return &GCPProbes{
		storage:  storageSvc,
		sqladmin: sqlSvc,
		dataproc: dataprocSvc,
		bigquery: bigquerySvc,
		composer: composerSvc,
		secrets:  store,
		project:  project,
		region:   region,
	}, nil
}

// Bucket verifies the bucket exists and is reachable.
func (p *GCPProbes) Bucket(ctx context.Context, name string) (string, error) {
	b, err := p.storage.Buckets.Get(name).Context(ctx).Do()
	if err != nil {
		return "", operr.Classify("validate.bucket", name, err)
	}
	return fmt.Sprintf("%s, location %s, class %s", name, b.Location, b.StorageClass), nil
}

// SecretVersions counts stored versions of the secret.
func (p *GCPProbes) SecretVersions(ctx context.Context, secretID string) (int, error) {
	n := 0
	for _, err := range p.secrets.Versions(ctx, secretID) {
		if err != nil {
			return 0, err
		}
		n++
	}
	return n, nil
}

// SQLInstance verifies the Cloud SQL instance exists and is RUNNABLE.
func (p *GCPProbes) SQLInstance(ctx context.Context, name string) (string, error) {
	inst, err := p.sqladmin.Instances.Get(p.project, name).Context(ctx).Do()
	if err != nil {
		return "", operr.Classify("validate.sql", name, err)
	}
	if inst.State != "RUNNABLE" {
		return "", fmt.Errorf("instance %q state is %s, want RUNNABLE", name, inst.State)
	}
	detail := fmt.Sprintf("%s, %s, state RUNNABLE", name, inst.DatabaseVersion)
	if inst.ConnectionName != "" {
		detail += ", connection " + inst.ConnectionName
	}
	return detail, nil
}

// Cluster verifies the Dataproc cluster exists and is RUNNING.
func (p *GCPProbes) Cluster(ctx context.Context, name string) (string, error) {
	cl, err := p.dataproc.Projects.Regions.Clusters.Get(p.project, p.region, name).Context(ctx).Do()
	if err != nil {
		return "", operr.Classify("validate.cluster", name, err)
	}
	state := ""
	if cl.Status != nil {
		state = cl.Status.State
	}
	if state != "RUNNING" {
		return "", fmt.Errorf("cluster %q state is %s, want RUNNING", name, state)
	}
	return fmt.Sprintf("%s, state RUNNING", name), nil
}

// Dataset verifies the BigQuery dataset exists and is reachable.
func (p *GCPProbes) Dataset(ctx context.Context, id string) (string, error) {
	ds, err := p.bigquery.Datasets.Get(p.project, id).Context(ctx).Do()
	if err != nil {
		return "", operr.Classify("validate.dataset", id, err)
	}
	return fmt.Sprintf("%s, location %s", id, ds.Location), nil
}

// Environment verifies the Composer environment exists and is RUNNING.
func (p *GCPProbes) Environment(ctx context.Context, name string) (string, error) {
	full := fmt.Sprintf("projects/%s/locations/%s/environments/%s", p.project, p.region, name)
	env, err := p.composer.Projects.Locations.Environments.Get(full).Context(ctx).Do()
	if err != nil {
		return "", operr.Classify("validate.composer", name, err)
	}
	if env.State != "RUNNING" {
		return "", fmt.Errorf("environment %q state is %s, want RUNNING", name, env.State)
	}
	return fmt.Sprintf("%s, state RUNNING", name), nil
}
