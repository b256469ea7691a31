package routes

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scribemarket/api/internal/models"
)

func TestTablePartitionedByNamespacePrefix(t *testing.T) {
	for _, route := range Table() {
		switch {
		case strings.HasPrefix(route.Path, "/admin"):
			assert.Equal(t, NamespaceAdmin, route.Namespace, route.Path)
			assert.Equal(t, []models.Role{models.RoleAdmin}, route.Roles, route.Path)
		case strings.HasPrefix(route.Path, "/writer"):
			assert.Equal(t, NamespaceUser, route.Namespace, route.Path)
			assert.Equal(t, []models.Role{models.RoleWriter}, route.Roles, route.Path)
		case strings.HasPrefix(route.Path, "/dashboard"):
			assert.Equal(t, NamespaceUser, route.Namespace, route.Path)
			assert.ElementsMatch(t, []models.Role{models.RoleClient, models.RoleWriter}, route.Roles, route.Path)
		default:
			t.Errorf("route %s outside every role namespace", route.Path)
		}
	}
}

func TestTableHasNoDuplicatePaths(t *testing.T) {
	seen := make(map[string]bool)
	for _, route := range Table() {
		require.False(t, seen[route.Path], "duplicate path %s", route.Path)
		seen[route.Path] = true
	}
}

func TestNavItemsPerRole(t *testing.T) {
	adminNav := NavItems(models.RoleAdmin)
	require.Len(t, adminNav, 9)
	assert.Equal(t, "/admin", adminNav[0].Path)

	clientNav := NavItems(models.RoleClient)
	require.Len(t, clientNav, 8)
	for _, item := range clientNav {
		assert.True(t, strings.HasPrefix(item.Path, "/dashboard"), item.Path)
	}

	// Writers navigate their own portal, not the client pages they could
	// also reach.
	writerNav := NavItems(models.RoleWriter)
	require.Len(t, writerNav, 9)
	for _, item := range writerNav {
		assert.True(t, strings.HasPrefix(item.Path, "/writer"), item.Path)
	}
}

func TestHomePath(t *testing.T) {
	assert.Equal(t, "/admin", HomePath(models.RoleAdmin))
	assert.Equal(t, "/dashboard", HomePath(models.RoleClient))
	assert.Equal(t, "/writer", HomePath(models.RoleWriter))
}
