package routes

import (
	"slices"

	"scribemarket/api/internal/models"
)

// NavItem is one sidebar entry for a role's portal.
type NavItem struct {
	Path  string `json:"path"`
	Label string `json:"label"`
	View  string `json:"view"`
}

// homePath is the portal landing page per role.
var homePath = map[models.Role]string{
	models.RoleAdmin:  "/admin",
	models.RoleClient: "/dashboard",
	models.RoleWriter: "/writer",
}

func HomePath(role models.Role) string {
	return homePath[role]
}

// NavItems derives a role's navigation list from the route table. A writer
// sees the writer portal only, not the generic client pages, so entries are
// matched on the route's own prefix.
func NavItems(role models.Role) []NavItem {
	prefix := homePath[role]
	var items []NavItem
	for _, route := range table {
		if !slices.Contains(route.Roles, role) {
			continue
		}
		if route.Path != prefix && !hasPathPrefix(route.Path, prefix) {
			continue
		}
		items = append(items, NavItem{Path: route.Path, Label: route.Label, View: route.View})
	}
	return items
}

func hasPathPrefix(path, prefix string) bool {
	return len(path) > len(prefix) && path[:len(prefix)] == prefix && path[len(prefix)] == '/'
}
