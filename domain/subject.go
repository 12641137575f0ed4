package domain

// Role is supplied by the upstream authentication layer.
type Role string

const (
	RoleCitizen   Role = "citizen"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
	// RoleService identifies another engine instance talking to the relay.
	RoleService Role = "service"
)

// Subject is the authenticated caller behind a request or a stream.
type Subject struct {
	ID   string
	Role Role
}

func (s Subject) IsZero() bool {
	return s.ID == ""
}
