package domain

// Role represents a player's role in a game
type Role string

const (
	RoleImpostor Role = "IMPOSTOR"
	RoleCitizen  Role = "CITIZEN"
)

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// IsImpostor returns true if this role is the impostor
func (r Role) IsImpostor() bool {
	return r == RoleImpostor
}

// Winner is the round-level outcome
type Winner string

const (
	WinnerImpostor Winner = "IMPOSTOR"
	WinnerCitizens Winner = "CITIZENS"
)
