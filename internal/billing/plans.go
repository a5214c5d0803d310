// Package billing wraps the Stripe API behind a small gateway interface and
// holds the commercial plan table.
package billing

import (
	"strings"

	"novalabs/internal/model"
)

// Plan bundles the commercial tier with its display label and the default
// delivery estimate used when provisioning a project.
type Plan struct {
	Type              model.PlanType
	Label             string
	EstimatedDelivery string
}

var (
	rocketPlan = Plan{Type: model.PlanRocket, Label: "Plan Rocket", EstimatedDelivery: "3 días"}
	galaxyPlan = Plan{Type: model.PlanGalaxy, Label: "Plan Galaxy", EstimatedDelivery: "5 días"}
)

// productPlans maps Stripe product ids to commercial tiers.
var productPlans = map[string]model.PlanType{
	"prod_NovaRocketM01": model.PlanRocket,
	"prod_NovaRocketY01": model.PlanRocket,
	"prod_NovaGalaxyM01": model.PlanGalaxy,
	"prod_NovaGalaxyY01": model.PlanGalaxy,
}

// PlanFromMetadata resolves the checkout metadata value. Anything that is not
// "galaxy" falls back to Rocket.
func PlanFromMetadata(value string) Plan {
	if strings.EqualFold(strings.TrimSpace(value), "galaxy") {
		return galaxyPlan
	}
	return rocketPlan
}

// PlanForProduct resolves a Stripe product id. The second return reports
// whether the product is known; unknown products default to Rocket and the
// caller logs them for manual review.
func PlanForProduct(productID string) (Plan, bool) {
	t, ok := productPlans[productID]
	if !ok {
		return rocketPlan, false
	}
	if t == model.PlanGalaxy {
		return galaxyPlan, true
	}
	return rocketPlan, true
}

// PlanForType resolves an already-validated plan type.
func PlanForType(t model.PlanType) Plan {
	if t == model.PlanGalaxy {
		return galaxyPlan
	}
	return rocketPlan
}
