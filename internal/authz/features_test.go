package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func featureByName(t *testing.T, name string) FeatureBlock {
	t.Helper()
	for _, feature := range Features() {
		if feature.Name == name {
			return feature
		}
	}
	t.Fatalf("feature %q not declared", name)
	return FeatureBlock{}
}

func TestCheckFeaturePartialGrantDenies(t *testing.T) {
	// Only the action is granted; the route is still missing, so the feature
	// stays blocked and the diagnosis names exactly what is absent.
	feature := featureByName(t, "Control de Calidad")
	set := NewPermissionSet([]DepartmentPermission{
		{PermissionType: ActionValidateQuality, PermissionValue: "true"},
	})

	result := CheckFeature(feature, set)

	assert.False(t, result.Granted)
	assert.Equal(t, []string{"/calidad"}, result.MissingRoutes)
	assert.Empty(t, result.MissingPermissions)
	assert.NotNil(t, result.MissingPermissions)
}

func TestCheckFeatureFullGrant(t *testing.T) {
	feature := featureByName(t, "Gestión de Ventas")
	set := NewPermissionSet([]DepartmentPermission{
		{PermissionType: PermTypeRouteAccess, PermissionValue: "/ventas"},
		{PermissionType: PermTypeRouteAccess, PermissionValue: "/clientes"},
		{PermissionType: ActionApproveSales, PermissionValue: "true"},
	})

	result := CheckFeature(feature, set)

	assert.True(t, result.Granted)
	assert.Empty(t, result.MissingRoutes)
	assert.Empty(t, result.MissingPermissions)
}

func TestCheckFeatureZeroSetReportsFullRequirements(t *testing.T) {
	var set PermissionSet
	for _, feature := range Features() {
		result := CheckFeature(feature, set)
		assert.Falsef(t, result.Granted, "feature %q", feature.Name)
		assert.Equalf(t, feature.Routes, result.MissingRoutes, "feature %q", feature.Name)
		assert.Equalf(t, feature.Permissions, result.MissingPermissions, "feature %q", feature.Name)
	}
}

func TestCheckFeatureMissingListsPreserveDeclaredOrder(t *testing.T) {
	feature := featureByName(t, "Informes")
	require.Equal(t, []string{ActionViewReports, ActionExportReports}, feature.Permissions)

	var set PermissionSet
	result := CheckFeature(feature, set)
	assert.Equal(t, []string{ActionViewReports, ActionExportReports}, result.MissingPermissions)
}

func TestCheckAllFeaturesCoversTable(t *testing.T) {
	set := NewPermissionSet([]DepartmentPermission{
		{PermissionType: PermTypeRouteAccess, PermissionValue: "/produccion"},
		{PermissionType: ActionManageProduction, PermissionValue: "true"},
	})

	access := CheckAllFeatures(set)
	require.Len(t, access, len(Features()))

	granted := map[string]bool{}
	for _, fa := range access {
		granted[fa.Feature.Name] = fa.Result.Granted
	}
	assert.True(t, granted["Producción"])
	assert.False(t, granted["Control de Calidad"])
	assert.False(t, granted["Administración"])
}

func TestFeaturesReturnsCopy(t *testing.T) {
	first := Features()
	first[0].Name = "mutated"
	assert.NotEqual(t, "mutated", Features()[0].Name)
}
