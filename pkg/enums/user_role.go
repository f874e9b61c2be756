package enums

// UserRole identifies the actor class carried in access tokens.
type UserRole string

const (
	RoleBuyer  UserRole = "buyer"
	RoleFarmer UserRole = "farmer"
	RoleDriver UserRole = "driver"
	RoleAdmin  UserRole = "admin"
)

func (r UserRole) IsValid() bool {
	switch r {
	case RoleBuyer, RoleFarmer, RoleDriver, RoleAdmin:
		return true
	}
	return false
}
