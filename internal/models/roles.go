package models

import "sort"

// Role is one of the four authorization categories a user can hold.
type Role string

const (
	BasicUser     Role = "basic-user"
	PremiumUser   Role = "premium-user"
	Administrator Role = "administrator"
	Auditor       Role = "auditor"
)

// RoleInfo describes a role for display alongside its resolved permissions.
type RoleInfo struct {
	Role            Role         `json:"role"`
	RoleName        string       `json:"name"`
	RoleDescription string       `json:"description"`
	Permission      []Permission `json:"permission"`
}

type permissionSet map[Permission]struct{}

func newSet(perms ...Permission) permissionSet {
	set := make(permissionSet, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

func (s permissionSet) with(perms ...Permission) permissionSet {
	out := make(permissionSet, len(s)+len(perms))
	for p := range s {
		out[p] = struct{}{}
	}
	for _, p := range perms {
		out[p] = struct{}{}
	}
	return out
}

var (
	basicPermissions   = newSet(CreateTransaction, ViewOwnTransactions, EditProfile)
	premiumPermissions = basicPermissions.with(ExportData, AdvancedReports, CloudBackup, CustomCategories)
	adminPermissions   = premiumPermissions.with(ManageUsers, ViewGlobalStats, DeleteAccounts)
	// Auditor does not inherit from the user chain.
	auditorPermissions = newSet(ViewAllTransactions, GenerateAuditReports, ExportAuditData)
)

var registry = map[Role]permissionSet{
	BasicUser:     basicPermissions,
	PremiumUser:   premiumPermissions,
	Administrator: adminPermissions,
	Auditor:       auditorPermissions,
}

var roleOrder = []Role{BasicUser, PremiumUser, Administrator, Auditor}

var roleText = map[Role][2]string{
	BasicUser:     {"Basic User", "Can record up to 50 transactions per month"},
	PremiumUser:   {"Premium User", "Full access without limits plus advanced reports"},
	Administrator: {"Administrator", "Manages users and views global statistics"},
	Auditor:       {"Auditor", "Read-only access with audit reporting"},
}

// Roles returns the four roles in privilege order, auditor last.
func Roles() []Role {
	out := make([]Role, len(roleOrder))
	copy(out, roleOrder)
	return out
}

// ParseRole maps a stored role name back to a Role.
func ParseRole(value string) (Role, bool) {
	r := Role(value)
	return r, r.Valid()
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := registry[r]
	return ok
}

// HasPermission reports whether r grants p.
func (r Role) HasPermission(p Permission) bool {
	set, ok := registry[r]
	if !ok {
		return false
	}
	_, ok = set[p]
	return ok
}

// Permissions lists the permissions of r in catalog order.
func (r Role) Permissions() []Permission {
	set := registry[r]
	out := make([]Permission, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return catalogIndex(out[i]) < catalogIndex(out[j])
	})
	return out
}

// Info returns the display entry for r.
func (r Role) Info() RoleInfo {
	text := roleText[r]
	return RoleInfo{
		Role:            r,
		RoleName:        text[0],
		RoleDescription: text[1],
		Permission:      r.Permissions(),
	}
}

// HasPermission answers whether role is allowed to perform permission.
func HasPermission(role Role, permission Permission) bool {
	return role.HasPermission(permission)
}

func catalogIndex(p Permission) int {
	for i, candidate := range allPermissions {
		if candidate == p {
			return i
		}
	}
	return len(allPermissions)
}
