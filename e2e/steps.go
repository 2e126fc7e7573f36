package e2e

import (
	"github.com/cucumber/godog"

	"sanitrack/e2e/steps/tenancy"
)

// RegisterSteps registers all step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	tenancy.RegisterSteps(ctx, tc)
}
