// Package etlops documents the etl-ops deployment operations tool.
//
// etl-ops operates an already-provisioned GCP ETL stack (VPC, GCS,
// Cloud SQL, Dataproc, BigQuery, Cloud Composer, Secret Manager) from the
// operator's workstation or CI. It replaces the ad-hoc shell scripts that
// previously handled credential rotation and post-apply validation.
//
// # Overview
//
// The tool has two responsibilities:
//   - Secret lifecycle: get, update, rotate, and list versions of the
//     per-environment database password held in Secret Manager.
//   - Deployment validation: a read-only checklist across the provisioned
//     resources, producing a pass/fail snapshot.
//
// # Installation
//
//	go install github.com/blackwell-systems/gcp-etl-ops/cmd/etl-ops@latest
//
// # Quick Start
//
//	etl-ops -p my-project -e dev rotate-password
//	etl-ops -p my-project -e dev list-versions
//	etl-ops -p my-project -e dev validate
//
// # Architecture
//
// Thin cobra CLI over three domain packages:
//   - internal/secrets: versioned credential lifecycle (Secret Manager)
//   - internal/validate: resource checklist (GCS, SQL, Dataproc, BigQuery, Composer)
//   - internal/outputs: terraform output resolution
//
// Configuration follows the disciplined Viper pattern: viper stays inside
// internal/config and everything else receives explicit structs.
//
// # Exit codes
//
//	0  success
//	1  operational failure, including a failed validation snapshot
//	2  usage error
//
// # License
//
// Apache 2.0 - See LICENSE file for details.
package etlops
