package models

// RoleType defines the platform-wide user role
type RoleType string

const (
	RoleLearner RoleType = "learner"
	RoleTrainer RoleType = "trainer"
)

// Valid reports whether r is a known role.
func (r RoleType) Valid() bool {
	return r == RoleLearner || r == RoleTrainer
}
