package auth

// Package auth contains domain-level types for authentication, sessions, and
// admin role resolution. It is pure and free of framework/adapter concerns.

import "time"

// Role represents an application's authorization role.
// Keep string form for easy persistence and cookies.
// Valid values are defined as constants below.
type Role string

const (
	RoleSuperadmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleStaff      Role = "staff"
	RoleGuest      Role = "guest"
)

// IsAdmin reports whether the role grants access to the admin dashboard.
// Staff accounts exist in the roles table but do not get admin access.
func (r Role) IsAdmin() bool { return r == RoleSuperadmin || r == RoleAdmin }

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperadmin, RoleAdmin, RoleStaff, RoleGuest:
		return true
	default:
		return false
	}
}

// RoleRecord is the per-user role row fetched from the roles source.
// Only the derived admin boolean and check timestamps are retained on the
// session; the raw record is never cached.
type RoleRecord struct {
	Role     Role `json:"role"`
	IsActive bool `json:"is_active"`
}

// Grants reports whether the record grants admin access: the role must be
// an admin-class role and the record must be active.
func (r RoleRecord) Grants() bool { return r.IsActive && r.Role.IsAdmin() }

// Identity represents the authenticated principal returned by the auth
// provider. Adapters map provider-specific payloads into this shape.
type Identity struct {
	UserID       string // stable user identifier (provider subject)
	Email        string
	DisplayName  string
	Groups       []string  // optional IdP group claims (SSO mode only)
	ExpiresAt    time.Time // absolute expiry from provider token
	RefreshToken string    // opaque; used by the session monitor for silent refresh
}

// Session is the server-side record persisted for an authenticated user.
// ID is an opaque session identifier (random URL-safe string).
//
// Role resolution state lives on the session so that concurrent requests and
// the background monitor converge on the same record: RoleResolved becomes
// true after a lookup definitively succeeded or definitively failed, and
// stays true across infrastructure failures that preserve the prior role.
type Session struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`

	// RoleResolved is true once a role lookup definitively succeeded or
	// definitively failed. A timed-out lookup also sets it (to unblock
	// callers on last-known state) without touching Role.
	RoleResolved bool `json:"role_resolved"`

	// LastRoleCheckAt is the time of the most recent role lookup attempt,
	// successful or not. Used for the re-check throttle.
	LastRoleCheckAt *time.Time `json:"last_role_check_at,omitempty"`

	// AdminVerifiedAt is the time admin access was last positively
	// confirmed. Cleared on authorization denial. Used for the optimistic
	// trust window at sign-in.
	AdminVerifiedAt *time.Time `json:"admin_verified_at,omitempty"`

	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// IsAdmin reports whether the session currently grants admin access.
func (s Session) IsAdmin() bool { return s.Role.IsAdmin() }

// IsGuest returns true if the session role is guest.
func (s Session) IsGuest() bool { return s.Role == RoleGuest }

// State is the explicit session state machine. The four public booleans the
// dashboard consumes are derived views (see Snapshot); keeping the state as a
// tagged value makes illegal combinations unrepresentable.
type State string

const (
	StateUnknown         State = "unknown"
	StateCheckingSession State = "checking_session"
	StateRoleUnknown     State = "authenticated_role_unknown"
	StateAdmin           State = "authenticated_admin"
	StateNonAdmin        State = "authenticated_non_admin"
	StateUnauthenticated State = "unauthenticated"
)

// Snapshot is the flattened view of a session state handed to clients.
// Invariant: Admin implies Authenticated, by construction.
type Snapshot struct {
	Authenticated   bool       `json:"authenticated"`
	Admin           bool       `json:"admin"`
	RoleLoading     bool       `json:"role_loading"`
	RoleResolved    bool       `json:"role_resolved"`
	LastRoleCheckAt *time.Time `json:"last_role_check_at,omitempty"`
}

// SnapshotOf derives the client-facing snapshot for a session. A nil session
// means unauthenticated.
func SnapshotOf(s *Session) Snapshot {
	if s == nil {
		return Snapshot{}
	}
	return Snapshot{
		Authenticated:   true,
		Admin:           s.IsAdmin(),
		RoleLoading:     !s.RoleResolved,
		RoleResolved:    s.RoleResolved,
		LastRoleCheckAt: s.LastRoleCheckAt,
	}
}

// StateOf maps a session to the explicit state machine value.
func StateOf(s *Session) State {
	switch {
	case s == nil:
		return StateUnauthenticated
	case !s.RoleResolved:
		return StateRoleUnknown
	case s.IsAdmin():
		return StateAdmin
	default:
		return StateNonAdmin
	}
}
