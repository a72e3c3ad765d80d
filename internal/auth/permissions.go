package auth

import "strings"

// RequiredRole returns the minimum role for an API path, nil when any
// authenticated caller may use it. Longest prefix wins; method-specific
// entries ("POST /api/...") beat plain ones at the same length.
var apiRoleMap = map[string]UserRole{
	"POST /api/sources/refresh":   RoleAdmin,
	"/api/sources":                RoleViewer,
	"/api/dashboard":              RoleViewer,
	"DELETE /api/dashboard/cache": RoleAdmin,
}

func RequiredRole(path string, method string) *UserRole {
	method = strings.ToUpper(strings.TrimSpace(method))

	var bestPath string
	var bestRole *UserRole
	var bestMethodSpecific bool

	for key, role := range apiRoleMap {
		keyMethod := ""
		keyPath := key
		methodSpecific := false
		if strings.Contains(key, " ") {
			parts := strings.SplitN(key, " ", 2)
			keyMethod = strings.ToUpper(strings.TrimSpace(parts[0]))
			keyPath = strings.TrimSpace(parts[1])
			methodSpecific = true
			if method == "" || method != keyMethod {
				continue
			}
		}

		if !strings.HasPrefix(path, keyPath) {
			continue
		}

		if bestRole == nil || len(keyPath) > len(bestPath) || (len(keyPath) == len(bestPath) && methodSpecific && !bestMethodSpecific) {
			bestPath = keyPath
			bestMethodSpecific = methodSpecific
			roleCopy := role
			bestRole = &roleCopy
		}
	}

	return bestRole
}

// Allows reports whether a caller's role satisfies a requirement. Admin
// satisfies everything; viewer satisfies viewer-level paths only.
func Allows(have UserRole, need UserRole) bool {
	if have == RoleAdmin {
		return true
	}
	return have == need
}
