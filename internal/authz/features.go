package authz

// featureBlocks is the declarative table of product features and the grants
// each one requires. Partial grants never satisfy a feature.
var featureBlocks = []FeatureBlock{
	{
		Name:        "Control de Calidad",
		Description: "Validación de calidad de vehículos en producción",
		Routes:      []string{"/calidad"},
		Permissions: []string{ActionValidateQuality},
		Examples: []string{
			"Validar una orden de producción terminada",
			"Registrar incidencias de calidad",
		},
	},
	{
		Name:        "Gestión de Ventas",
		Description: "Pedidos de venta y cartera de clientes",
		Routes:      []string{"/ventas", "/clientes"},
		Permissions: []string{ActionApproveSales},
		Examples: []string{
			"Aprobar un pedido de venta",
			"Consultar la ficha de un cliente",
		},
	},
	{
		Name:        "Producción",
		Description: "Planificación y seguimiento de órdenes de producción",
		Routes:      []string{"/produccion"},
		Permissions: []string{ActionManageProduction},
		Examples: []string{
			"Crear una orden de producción",
			"Actualizar el estado de una línea de montaje",
		},
	},
	{
		Name:        "Informes",
		Description: "Consulta y exportación de informes operativos",
		Routes:      []string{"/informes"},
		Permissions: []string{ActionViewReports, ActionExportReports},
		Examples: []string{
			"Consultar el informe mensual de ventas",
			"Exportar resultados a PDF",
		},
	},
	{
		Name:        "Administración",
		Description: "Alta de usuarios y configuración de departamentos",
		Routes:      []string{"/admin/usuarios", "/admin/departamentos"},
		Permissions: []string{ActionManageUsers},
		Examples: []string{
			"Invitar a un nuevo usuario",
			"Asignar permisos a un departamento",
		},
	},
}

// Features returns the feature-block table. The slice is a copy; callers may
// not mutate the declared requirements.
func Features() []FeatureBlock {
	out := make([]FeatureBlock, len(featureBlocks))
	copy(out, featureBlocks)
	return out
}

// CheckFeature evaluates one feature against a permission set. Missing lists
// preserve the feature's declared order, and both are always non-nil so the
// caller can render why access was denied. An unresolved (zero) set yields
// the feature's full requirement lists.
func CheckFeature(feature FeatureBlock, set PermissionSet) EvaluationResult {
	missingRoutes := make([]string, 0, len(feature.Routes))
	for _, route := range feature.Routes {
		if !set.HasRoute(route) {
			missingRoutes = append(missingRoutes, route)
		}
	}
	missingPermissions := make([]string, 0, len(feature.Permissions))
	for _, action := range feature.Permissions {
		if !set.Can(action) {
			missingPermissions = append(missingPermissions, action)
		}
	}
	return EvaluationResult{
		Granted:            len(missingRoutes) == 0 && len(missingPermissions) == 0,
		MissingRoutes:      missingRoutes,
		MissingPermissions: missingPermissions,
	}
}

// FeatureAccess pairs a feature with its evaluation result.
type FeatureAccess struct {
	Feature FeatureBlock     `json:"feature"`
	Result  EvaluationResult `json:"result"`
}

// CheckAllFeatures evaluates the whole table, in declared order.
func CheckAllFeatures(set PermissionSet) []FeatureAccess {
	out := make([]FeatureAccess, 0, len(featureBlocks))
	for _, feature := range featureBlocks {
		out = append(out, FeatureAccess{Feature: feature, Result: CheckFeature(feature, set)})
	}
	return out
}
