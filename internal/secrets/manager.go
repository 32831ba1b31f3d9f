// Package secrets implements the credential lifecycle against Secret
// Manager: get, update, rotate, and list versions of the per-environment
// database password.
//
// Every operation is a live round trip. Nothing is cached, nothing retries
// internally; callers see classified errors (see internal/operr) and decide
// for themselves.
package secrets

import (
	"context"
	"iter"
	"strings"
	"time"

	"github.com/blackwell-systems/gcp-etl-ops/internal/operr"
)

// Version describes one stored version of a secret.
type Version struct {
	// ID is the short version identifier, e.g. "3".
	ID string `json:"id"`
	// State is the provider state: ENABLED, DISABLED, or DESTROYED.
	State string `json:"state"`
	// Created is the version creation time.
	Created time.Time `json:"created"`
}

// Enabled reports whether the version is usable.
func (v Version) Enabled() bool {
	return v.State == "ENABLED"
}

// Store is the narrow secret-store surface the manager needs. The GCP
// implementation lives in gcp.go; tests substitute a fake.
type Store interface {
	// AccessLatest returns the payload of the latest version.
	AccessLatest(ctx context.Context, secretID string) ([]byte, error)
	// AddVersion appends a new version holding payload.
	AddVersion(ctx context.Context, secretID string, payload []byte) (Version, error)
	// Versions yields versions in creation order. Ranging the sequence
	// again re-issues the listing.
	Versions(ctx context.Context, secretID string) iter.Seq2[Version, error]
}

// Manager runs lifecycle operations against one secret, resolved from the
// environment name.
type Manager struct {
	store    Store
	secretID string
	policy   PasswordPolicy
}

// NewManager builds a manager for the secret named by applying env to the
// name template (e.g. "{env}-sql-password" -> "dev-sql-password").
func NewManager(store Store, nameTemplate, env string, policy PasswordPolicy) *Manager {
	return &Manager{
		store:    store,
		secretID: strings.ReplaceAll(nameTemplate, "{env}", env),
		policy:   policy,
	}
}

// SecretID returns the resolved secret name.
func (m *Manager) SecretID() string {
	return m.secretID
}

// GetPassword fetches the latest version's payload.
func (m *Manager) GetPassword(ctx context.Context) (string, error) {
	data, err := m.store.AccessLatest(ctx, m.secretID)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// UpdatePassword appends a new version holding value. Repeated calls with
// the same value still create new versions; history is never mutated.
func (m *Manager) UpdatePassword(ctx context.Context, value string) (Version, error) {
	if value == "" {
		return Version{}, operr.Validationf("secrets.update", "new password value must not be empty")
	}
	return m.store.AddVersion(ctx, m.secretID, []byte(value))
}

// RotatePassword generates a fresh credential per the policy and appends it
// as a new version. The returned value is the only copy the caller will
// ever see; it must not be logged.
func (m *Manager) RotatePassword(ctx context.Context) (string, Version, error) {
	if err := m.policy.Validate(); err != nil {
		return "", Version{}, operr.Validationf("secrets.rotate", "password policy: %v", err)
	}
	value, err := GeneratePassword(m.policy)
	if err != nil {
		// Policy was validated above, so this is an entropy-source failure.
		return "", Version{}, operr.Classify("secrets.rotate", m.secretID, err)
	}
	ver, err := m.UpdatePassword(ctx, value)
	if err != nil {
		return "", Version{}, err
	}
	return value, ver, nil
}

// Versions yields stored versions in creation order. The sequence is lazy
// and restartable: each range issues a fresh listing.
func (m *Manager) Versions(ctx context.Context) iter.Seq2[Version, error] {
	return m.store.Versions(ctx, m.secretID)
}

// CountVersions drains the version sequence and returns how many versions
// exist. Used by the deployment validator's secret check.
func (m *Manager) CountVersions(ctx context.Context) (int, error) {
	n := 0
	for _, err := range m.Versions(ctx) {
		if err != nil {
			return 0, err
		}
		n++
	}
	return n, nil
}
