// Package models defines the client-side data types: the persisted session
// record and the resource payloads returned by the expense API.
package models

import "encoding/json"

// Credential is the opaque bearer token granting authenticated access.
// No structure is assumed beyond its string value.
type Credential string

// IsZero reports whether the credential is absent.
func (c Credential) IsZero() bool { return c == "" }

// Len returns the byte length of the raw credential. Diagnostics only.
func (c Credential) Len() int { return len(c) }

// UserProfile is the minimal identity record returned by login/verify.
type UserProfile struct {
	ID        int    `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
}

// MarshalProfile serializes a profile for persistence.
func MarshalProfile(p *UserProfile) (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// UnmarshalProfile deserializes a persisted profile. A non-nil error means
// the stored value is corrupt and must be purged, never returned.
func UnmarshalProfile(s string) (*UserProfile, error) {
	var p UserProfile
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SessionRecord pairs the credential with the user profile. It is persisted
// as one logical unit: written wholesale on login, destroyed wholesale on
// logout or invalidation.
type SessionRecord struct {
	Credential Credential
	Profile    *UserProfile
}

// Valid reports whether both fields are present.
func (r *SessionRecord) Valid() bool {
	return r != nil && !r.Credential.IsZero() && r.Profile != nil
}
