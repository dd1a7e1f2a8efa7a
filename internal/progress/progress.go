// Package progress tracks per-user experience, levels, review notes, and the
// leaderboard.
package progress

// Role is a user's access tier.
type Role string

const (
	RoleGuest  Role = "GUEST"
	RoleMember Role = "MEMBER"
	RolePro    Role = "PRO"
	RoleAdmin  Role = "ADMIN"
)

// roleNames maps roles to their display names.
var roleNames = map[Role]string{
	RoleGuest:  "비예우(비회원)",
	RoleMember: "공인회계사(무료)",
	RolePro:    "등록공인회계사(유료)",
	RoleAdmin:  "관리자",
}

// DisplayName returns the role's user-facing name, or the raw role string
// for unknown roles.
func (r Role) DisplayName() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return string(r)
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// Progress is a user's cumulative experience and derived level.
type Progress struct {
	Experience float64
	Level      int
}

// Apply folds a submission's scores into the progression. Level crosses at
// exact multiples of 100 experience.
func Apply(current Progress, scores []float64) Progress {
	exp := current.Experience
	for _, s := range scores {
		exp += s
	}
	return Progress{
		Experience: exp,
		Level:      1 + int(exp/100),
	}
}
