package enums

// StaffRole is the counter-side role carried in access tokens.
type StaffRole string

const (
	StaffRoleCashier StaffRole = "cashier"
	StaffRoleManager StaffRole = "manager"
)

func (s StaffRole) String() string {
	return string(s)
}

func (s StaffRole) IsValid() bool {
	switch s {
	case StaffRoleCashier, StaffRoleManager:
		return true
	}
	return false
}

func ParseStaffRole(value string) (StaffRole, bool) {
	role := StaffRole(value)
	return role, role.IsValid()
}
