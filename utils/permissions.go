package utils

import "strings"

// MatchesPermission reports whether a granted permission covers the required one.
// Permissions are "resource:action". A granted "*" covers everything, and
// either half may be "*":
//
//   - "complaint:*" covers complaint:read, complaint:close, ...
//   - "*:read" covers complaint:read, user:read, role:read, ...
//
// Names without a colon only match exactly.
func MatchesPermission(granted, required string) bool {
	if granted == required {
		return true
	}
	if granted == "*" || granted == "*:*" {
		return true
	}

	g := strings.SplitN(granted, ":", 2)
	req := strings.SplitN(required, ":", 2)
	if len(g) < 2 || len(req) < 2 {
		return false
	}

	resourceOK := g[0] == "*" || g[0] == req[0]
	actionOK := g[1] == "*" || g[1] == req[1]
	return resourceOK && actionOK
}

// HasPermission checks required against every granted name.
func HasPermission(granted []string, required string) bool {
	for _, g := range granted {
		if MatchesPermission(g, required) {
			return true
		}
	}
	return false
}
