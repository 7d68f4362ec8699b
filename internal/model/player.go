package model

import "time"

// PlayerID uniquely identifies a player across the system.
// It is the Network-issued external id, so one Network account
// maps to exactly one local player.
type PlayerID string

// Role is a server-assigned player attribute, never derived from
// anything the Network sends us.
type Role string

// Player roles
const (
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
)

// Player represents a local player record provisioned from a
// verified Network identity
type Player struct {
	ID            PlayerID
	DisplayName   string
	WalletAddress *string
	Role          Role
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// VerifiedIdentity is the result of a successful credential
// verification. It is produced fresh on every verification and never
// persisted directly; it only drives player lookup/creation.
type VerifiedIdentity struct {
	ExternalID    string
	DisplayName   string
	WalletAddress *string
}
