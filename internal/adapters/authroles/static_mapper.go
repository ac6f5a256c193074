package authroles

import (
	domainauth "github.com/atlastours/agency-api/internal/domain/auth"
)

// StaticRoleMapper maps IdP groups to application roles by simple string
// membership rules. Used in SSO mode where group claims arrive with the
// identity; password mode resolves roles from the database instead.
type StaticRoleMapper struct {
	SuperadminGroup string
	AdminGroup      string
	StaffGroup      string
}

func (m StaticRoleMapper) Map(groups []string) domainauth.Role {
	for _, g := range groups {
		if m.SuperadminGroup != "" && g == m.SuperadminGroup {
			return domainauth.RoleSuperadmin
		}
	}
	for _, g := range groups {
		if m.AdminGroup != "" && g == m.AdminGroup {
			return domainauth.RoleAdmin
		}
	}
	for _, g := range groups {
		if m.StaffGroup != "" && g == m.StaffGroup {
			return domainauth.RoleStaff
		}
	}
	return domainauth.RoleGuest
}
