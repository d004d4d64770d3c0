package models

// Permission is one atomic capability a role may hold.
type Permission string

const (
	CreateTransaction   Permission = "transaction:create"
	ViewOwnTransactions Permission = "transaction:read-own"
	EditProfile         Permission = "profile:edit"

	ExportData       Permission = "data:export"
	AdvancedReports  Permission = "reports:advanced"
	CloudBackup      Permission = "backup:cloud"
	CustomCategories Permission = "categories:custom"

	ManageUsers     Permission = "users:manage"
	ViewGlobalStats Permission = "stats:global"
	DeleteAccounts  Permission = "accounts:delete"

	ViewAllTransactions  Permission = "transaction:read-all"
	GenerateAuditReports Permission = "audit:report"
	ExportAuditData      Permission = "audit:export"
)

var allPermissions = []Permission{
	CreateTransaction,
	ViewOwnTransactions,
	EditProfile,
	ExportData,
	AdvancedReports,
	CloudBackup,
	CustomCategories,
	ManageUsers,
	ViewGlobalStats,
	DeleteAccounts,
	ViewAllTransactions,
	GenerateAuditReports,
	ExportAuditData,
}

// AllPermissions returns every permission the system defines.
func AllPermissions() []Permission {
	out := make([]Permission, len(allPermissions))
	copy(out, allPermissions)
	return out
}

// Valid reports whether p belongs to the catalog.
func (p Permission) Valid() bool {
	for _, candidate := range allPermissions {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePermission maps a wire value back to a catalog permission.
func ParsePermission(value string) (Permission, bool) {
	p := Permission(value)
	return p, p.Valid()
}
