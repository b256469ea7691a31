// Package routes holds the static route surface: every guarded path, the
// role set allowed to see it, and the navigation labels derived from it.
// Guards and sidebars are both driven from this one table.
package routes

import "scribemarket/api/internal/models"

type Namespace string

const (
	NamespaceAdmin Namespace = "admin"
	NamespaceUser  Namespace = "user"
)

// Route maps a path to the roles that may view it.
type Route struct {
	Path      string
	Namespace Namespace
	Roles     []models.Role
	View      string
	Label     string
}

var (
	adminOnly  = []models.Role{models.RoleAdmin}
	userRoles  = []models.Role{models.RoleClient, models.RoleWriter}
	writerOnly = []models.Role{models.RoleWriter}
)

var table = []Route{
	{Path: "/admin", Namespace: NamespaceAdmin, Roles: adminOnly, View: "admin_dashboard", Label: "Dashboard"},
	{Path: "/admin/orders", Namespace: NamespaceAdmin, Roles: adminOnly, View: "admin_orders", Label: "Orders"},
	{Path: "/admin/users", Namespace: NamespaceAdmin, Roles: adminOnly, View: "admin_users", Label: "Users"},
	{Path: "/admin/payments", Namespace: NamespaceAdmin, Roles: adminOnly, View: "admin_payments", Label: "Payments"},
	{Path: "/admin/reports", Namespace: NamespaceAdmin, Roles: adminOnly, View: "admin_reports", Label: "Reports"},
	{Path: "/admin/disputes", Namespace: NamespaceAdmin, Roles: adminOnly, View: "admin_disputes", Label: "Disputes"},
	{Path: "/admin/messages", Namespace: NamespaceAdmin, Roles: adminOnly, View: "admin_messages", Label: "Messages"},
	{Path: "/admin/support", Namespace: NamespaceAdmin, Roles: adminOnly, View: "admin_support", Label: "Support"},
	{Path: "/admin/settings", Namespace: NamespaceAdmin, Roles: adminOnly, View: "admin_settings", Label: "Settings"},

	{Path: "/dashboard", Namespace: NamespaceUser, Roles: userRoles, View: "client_dashboard", Label: "Dashboard"},
	{Path: "/dashboard/orders", Namespace: NamespaceUser, Roles: userRoles, View: "client_orders", Label: "Orders"},
	{Path: "/dashboard/revisions", Namespace: NamespaceUser, Roles: userRoles, View: "client_revisions", Label: "Revisions"},
	{Path: "/dashboard/disputes", Namespace: NamespaceUser, Roles: userRoles, View: "client_disputes", Label: "Disputes"},
	{Path: "/dashboard/billing", Namespace: NamespaceUser, Roles: userRoles, View: "client_billing", Label: "Billing"},
	{Path: "/dashboard/messages", Namespace: NamespaceUser, Roles: userRoles, View: "client_messages", Label: "Messages"},
	{Path: "/dashboard/settings", Namespace: NamespaceUser, Roles: userRoles, View: "client_settings", Label: "Settings"},
	{Path: "/dashboard/support", Namespace: NamespaceUser, Roles: userRoles, View: "client_support", Label: "Support"},

	{Path: "/writer", Namespace: NamespaceUser, Roles: writerOnly, View: "writer_dashboard", Label: "Dashboard"},
	{Path: "/writer/available-orders", Namespace: NamespaceUser, Roles: writerOnly, View: "writer_available_orders", Label: "Available Orders"},
	{Path: "/writer/bids", Namespace: NamespaceUser, Roles: writerOnly, View: "writer_bids", Label: "My Bids"},
	{Path: "/writer/revisions", Namespace: NamespaceUser, Roles: writerOnly, View: "writer_revisions", Label: "Revisions"},
	{Path: "/writer/disputes", Namespace: NamespaceUser, Roles: writerOnly, View: "writer_disputes", Label: "Disputes"},
	{Path: "/writer/earnings", Namespace: NamespaceUser, Roles: writerOnly, View: "writer_earnings", Label: "Earnings"},
	{Path: "/writer/messages", Namespace: NamespaceUser, Roles: writerOnly, View: "writer_messages", Label: "Messages"},
	{Path: "/writer/statistics", Namespace: NamespaceUser, Roles: writerOnly, View: "writer_statistics", Label: "Statistics"},
	{Path: "/writer/settings", Namespace: NamespaceUser, Roles: writerOnly, View: "writer_settings", Label: "Settings"},
}

// Table returns the full guarded route surface.
func Table() []Route {
	out := make([]Route, len(table))
	copy(out, table)
	return out
}

// ByNamespace filters the table to one session namespace.
func ByNamespace(ns Namespace) []Route {
	var out []Route
	for _, route := range table {
		if route.Namespace == ns {
			out = append(out, route)
		}
	}
	return out
}
