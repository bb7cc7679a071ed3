package domain

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID string
	Role   Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

func (a Actor) Validate() error {
	if a.UserID == "" {
		return ErrInvalidActor
	}

	if a.Role != RoleCustomer && a.Role != RoleAdmin {
		return ErrInvalidActor
	}

	return nil
}

func ToRole(s string) (Role, error) {
	switch Role(s) {
	case RoleCustomer, RoleAdmin:
		return Role(s), nil
	}
	return "", ErrInvalidActor
}
