package timesheet

import "strings"

// =============================================================================
// ROLE POLICY - Role set to entry mode and capabilities
// =============================================================================

// roleAliases maps the identifiers issued by the session layer onto roles.
// Legacy ROLE_* names are accepted alongside the canonical ones.
var roleAliases = map[string]Role{
	"ADMIN":           RoleAdmin,
	"ROLE_ADMIN":      RoleAdmin,
	"EMPLOYEE":        RoleEmployee,
	"USER_EMP":        RoleEmployee,
	"ROLE_USER_EMP":   RoleEmployee,
	"PAYMENT_MANAGER": RolePaymentManager,
	"USER_PAY":        RolePaymentManager,
	"ROLE_USER_PAY":   RolePaymentManager,
	"SUBCONTRACTOR":   RoleSubcontractor,
	"USER_SUB":        RoleSubcontractor,
	"ROLE_USER_SUB":   RoleSubcontractor,
}

// ParseRole normalizes a role name. Unknown names report false.
func ParseRole(s string) (Role, bool) {
	r, ok := roleAliases[strings.ToUpper(strings.TrimSpace(s))]
	return r, ok
}

// ParseRoles drops names it does not recognize.
func ParseRoles(names []string) []Role {
	roles := make([]Role, 0, len(names))
	for _, n := range names {
		if r, ok := ParseRole(n); ok {
			roles = append(roles, r)
		}
	}
	return roles
}

func hasRole(roles []Role, want ...Role) bool {
	for _, r := range roles {
		for _, w := range want {
			if r == w {
				return true
			}
		}
	}
	return false
}

// EntryModeFor is total over role sets:
//
//	PAYMENT_MANAGER or SUBCONTRACTOR present -> UPLOAD
//	otherwise EMPLOYEE or ADMIN present      -> DETAILED
//	otherwise                                -> NONE
//
// UPLOAD-qualifying roles win when both kinds are present.
func EntryModeFor(roles []Role) EntryMode {
	switch {
	case hasRole(roles, RolePaymentManager, RoleSubcontractor):
		return ModeUpload
	case hasRole(roles, RoleEmployee, RoleAdmin):
		return ModeDetailed
	default:
		return ModeNone
	}
}

// IsAdmin reports whether the role set may approve, reject and pay.
func IsAdmin(roles []Role) bool {
	return hasRole(roles, RoleAdmin)
}

// CanKeepTimesheet reports whether the caller has any timesheet capability.
func CanKeepTimesheet(roles []Role) bool {
	return EntryModeFor(roles) != ModeNone
}
