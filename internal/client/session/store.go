// Package session provides typed session persistence over the storage
// backend: exactly two logical fields, the bearer credential and the user
// profile, treated as one session record.
package session

import (
	"context"

	"github.com/dmitrijs2005/spendtrack/internal/client/models"
	"github.com/dmitrijs2005/spendtrack/internal/client/storage"
	"github.com/dmitrijs2005/spendtrack/internal/logging"
	"github.com/dmitrijs2005/spendtrack/internal/metrics"
)

// Persisted state layout: two string entries in a fixed namespace. No other
// fields are part of this contract.
const (
	KeyCredential = "token"
	KeyProfile    = "user"
)

// Store is the only component that writes the session keys. All other
// components go through its methods.
type Store struct {
	backend storage.Backend
	log     logging.Logger
	metrics *metrics.Metrics
}

func NewStore(backend storage.Backend, log logging.Logger, m *metrics.Metrics) *Store {
	return &Store{backend: backend, log: log, metrics: m}
}

// SetSession persists the record wholesale. Both writes must succeed; if the
// profile write fails after the credential write succeeded, the credential is
// rolled back so a dangling single-field record is never treated as stored.
func (s *Store) SetSession(ctx context.Context, cred models.Credential, profile *models.UserProfile) bool {
	if cred.IsZero() || profile == nil {
		return false
	}

	encoded, err := models.MarshalProfile(profile)
	if err != nil {
		s.log.Error(ctx, "session.profile.encode_failed", "error", err)
		return false
	}

	if !s.backend.Put(ctx, KeyCredential, string(cred)) {
		return false
	}
	if !s.backend.Put(ctx, KeyProfile, encoded) {
		s.backend.Remove(ctx, KeyCredential)
		return false
	}
	return true
}

// GetSession reads both keys. A profile value that fails to deserialize is
// purged immediately and the session is reported absent (self-healing).
// Absence of either key is not an error, just "no session".
func (s *Store) GetSession(ctx context.Context) (*models.SessionRecord, bool) {
	rawCred, credOK := s.backend.Get(ctx, KeyCredential)

	encoded, profileOK := s.backend.Get(ctx, KeyProfile)
	if profileOK {
		profile, err := models.UnmarshalProfile(encoded)
		if err != nil {
			s.log.Warn(ctx, "session.corrupt.purged", "key", KeyProfile, "error", err)
			s.metrics.SessionCorruptPurged.Inc()
			s.backend.Remove(ctx, KeyProfile)
			return nil, false
		}
		if credOK {
			return &models.SessionRecord{Credential: models.Credential(rawCred), Profile: profile}, true
		}
	}

	return nil, false
}

// ClearSession removes both keys unconditionally. Idempotent.
func (s *Store) ClearSession(ctx context.Context) {
	s.backend.Remove(ctx, KeyCredential)
	s.backend.Remove(ctx, KeyProfile)
}

// HasValidSession reports whether GetSession would return a complete record.
func (s *Store) HasValidSession(ctx context.Context) bool {
	rec, ok := s.GetSession(ctx)
	return ok && rec.Valid()
}

// Credential returns the stored bearer credential, if any. Read-only; used
// by the request gateway to attach the Authorization header.
func (s *Store) Credential(ctx context.Context) (models.Credential, bool) {
	raw, ok := s.backend.Get(ctx, KeyCredential)
	if !ok || raw == "" {
		return "", false
	}
	return models.Credential(raw), true
}
