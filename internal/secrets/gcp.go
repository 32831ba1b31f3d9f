package secrets

import (
	"context"
	"fmt"
	"iter"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/blackwell-systems/gcp-etl-ops/internal/operr"
)

// GCPStore is the Secret Manager implementation of Store. It authenticates
// with ambient credentials (Application Default Credentials).
type GCPStore struct {
	client  *secretmanager.Client
	project string
}

var _ Store = (*GCPStore)(nil)

// NewGCPStore dials Secret Manager for the given project.
func NewGCPStore(ctx context.Context, project string, opts ...option.ClientOption) (*GCPStore, error) {
	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, operr.Classify("secrets.connect", project, err)
	}
	return &GCPStore{client: client, project: project}, nil
}

// Close releases the underlying gRPC connection.
func (s *GCPStore) Close() error {
	return s.client.Close()
}

func (s *GCPStore) secretPath(secretID string) string {
	return fmt.Sprintf("projects/%s/secrets/%s", s.project, secretID)
}

// AccessLatest returns the payload of the latest version. Secret Manager
// reports NotFound both for a missing secret and for a secret with no
// versions, which is exactly the contract callers expect.
func (s *GCPStore) AccessLatest(ctx context.Context, secretID string) ([]byte, error) {
	resp, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: s.secretPath(secretID) + "/versions/latest",
	})
	if err != nil {
		return nil, operr.Classify("secrets.get", secretID, err)
	}
	return resp.GetPayload().GetData(), nil
}

// AddVersion appends a new version holding payload.
func (s *GCPStore) AddVersion(ctx context.Context, secretID string, payload []byte) (Version, error) {
	resp, err := s.client.AddSecretVersion(ctx, &secretmanagerpb.AddSecretVersionRequest{
		Parent: s.secretPath(secretID),
		Payload: &secretmanagerpb.SecretPayload{
			Data: payload,
		},
	})
	if err != nil {
		return Version{}, operr.Classify("secrets.update", secretID, err)
	}
	return versionFromProto(resp), nil
}

// Versions yields versions in creation order. Secret Manager lists newest
// first, so one page-walk buffers the listing before yielding; each range
// over the sequence re-issues the listing.
func (s *GCPStore) Versions(ctx context.Context, secretID string) iter.Seq2[Version, error] {
	return func(yield func(Version, error) bool) {
		it := s.client.ListSecretVersions(ctx, &secretmanagerpb.ListSecretVersionsRequest{
			Parent: s.secretPath(secretID),
		})

		var versions []Version
		for {
			sv, err := it.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				yield(Version{}, operr.Classify("secrets.list", secretID, err))
				return
			}
			versions = append(versions, versionFromProto(sv))
		}

		for i := len(versions) - 1; i >= 0; i-- {
			if !yield(versions[i], nil) {
				return
			}
		}
	}
}

func versionFromProto(sv *secretmanagerpb.SecretVersion) Version {
	v := Version{
		ID:    sv.GetName(),
		State: sv.GetState().String(),
	}
	if i := strings.LastIndex(v.ID, "/"); i >= 0 {
		v.ID = v.ID[i+1:]
	}
	if ct := sv.GetCreateTime(); ct != nil {
		v.Created = ct.AsTime()
	}
	return v
}
