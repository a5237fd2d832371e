package domain

import "time"

// Credential is a platform access token together with a label naming the
// connected identity that owns it. Tokens are ephemeral in memory; they are
// persisted only encrypted and decrypted just before use.
type Credential struct {
	Token      string
	OwnerLabel string
}

// CredentialResolution records which credential the platform accepted for a
// given ad account. It is cached only after a remote-verified success
// against that exact account id.
type CredentialResolution struct {
	AccountID  string
	Credential Credential
	ResolvedAt time.Time
}

// TeamMember links a user to a team. Owner relationships are stored once
// per (owner, member) pair; a member's pool includes the owner's credential
// and an owner's pool includes every member's.
type TeamMember struct {
	UserID string
	Name   string
}
