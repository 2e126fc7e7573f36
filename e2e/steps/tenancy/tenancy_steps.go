package tenancy

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cucumber/godog"
)

// TestContext is what the tenancy steps need from the suite context.
type TestContext interface {
	Scoped(name string) string
	SeedMember(ctx context.Context, org, user, role string) error
	Do(ctx context.Context, method, path, user string, body any) error
	Status() int
	Field(name string) (any, error)
	RememberID(alias, id string)
	RecalledID(alias string) (string, error)
}

// RegisterSteps registers organization-isolation step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &tenancySteps{tc: tc}

	ctx.Step(`^"([^"]*)" is a "([^"]*)" of organization "([^"]*)"$`, steps.seedMember)
	ctx.Step(`^"([^"]*)" creates customer "([^"]*)" in organization "([^"]*)"$`, steps.createCustomer)
	ctx.Step(`^"([^"]*)" creates customer "([^"]*)" in organization "([^"]*)" claiming organization "([^"]*)"$`, steps.createCustomerClaimingOrg)
	ctx.Step(`^"([^"]*)" lists customers in organization "([^"]*)"$`, steps.listCustomers)
	ctx.Step(`^"([^"]*)" fetches customer "([^"]*)" from organization "([^"]*)"$`, steps.getCustomer)
	ctx.Step(`^"([^"]*)" deletes customer "([^"]*)" from organization "([^"]*)"$`, steps.deleteCustomer)
	ctx.Step(`^the operator reads the audit trail of organization "([^"]*)"$`, steps.readAudit)

	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the response should list (\d+) records?$`, steps.countShouldBe)
	ctx.Step(`^the error code should be "([^"]*)"$`, steps.errorCodeShouldBe)
	ctx.Step(`^the audit trail should contain action "([^"]*)"$`, steps.auditContains)
}

type tenancySteps struct {
	tc TestContext
}

func (s *tenancySteps) orgPath(org, rest string) string {
	return "/v1/orgs/" + s.tc.Scoped(org) + rest
}

func (s *tenancySteps) seedMember(ctx context.Context, user, role, org string) error {
	return s.tc.SeedMember(ctx, org, user, role)
}

func (s *tenancySteps) createCustomer(ctx context.Context, user, name, org string) error {
	if err := s.tc.Do(ctx, http.MethodPost, s.orgPath(org, "/customers"), user, map[string]any{"name": name}); err != nil {
		return err
	}
	if s.tc.Status() == http.StatusCreated {
		id, err := s.tc.Field("id")
		if err != nil {
			return err
		}
		s.tc.RememberID(name, fmt.Sprint(id))
	}
	return nil
}

func (s *tenancySteps) createCustomerClaimingOrg(ctx context.Context, user, name, org, claimed string) error {
	body := fmt.Sprintf(`{"name":%q,"organization_id":%q}`, name, s.tc.Scoped(claimed))
	return s.tc.Do(ctx, http.MethodPost, s.orgPath(org, "/customers"), user, body)
}

func (s *tenancySteps) listCustomers(ctx context.Context, user, org string) error {
	return s.tc.Do(ctx, http.MethodGet, s.orgPath(org, "/customers"), user, nil)
}

func (s *tenancySteps) getCustomer(ctx context.Context, user, name, org string) error {
	id, err := s.tc.RecalledID(name)
	if err != nil {
		return err
	}
	return s.tc.Do(ctx, http.MethodGet, s.orgPath(org, "/customers/"+id), user, nil)
}

func (s *tenancySteps) deleteCustomer(ctx context.Context, user, name, org string) error {
	id, err := s.tc.RecalledID(name)
	if err != nil {
		return err
	}
	return s.tc.Do(ctx, http.MethodDelete, s.orgPath(org, "/customers/"+id), user, nil)
}

func (s *tenancySteps) readAudit(ctx context.Context, org string) error {
	return s.tc.Do(ctx, http.MethodGet, "/admin/audit/"+s.tc.Scoped(org), "", nil)
}

func (s *tenancySteps) statusShouldBe(want string) error {
	code, err := strconv.Atoi(want)
	if err != nil {
		return err
	}
	if s.tc.Status() != code {
		return fmt.Errorf("expected status %d, got %d", code, s.tc.Status())
	}
	return nil
}

func (s *tenancySteps) countShouldBe(want int) error {
	count, err := s.tc.Field("count")
	if err != nil {
		return err
	}
	if n, ok := count.(float64); !ok || int(n) != want {
		return fmt.Errorf("expected %d records, got %v", want, count)
	}
	return nil
}

func (s *tenancySteps) errorCodeShouldBe(want string) error {
	got, err := s.tc.Field("error")
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("expected error %q, got %v", want, got)
	}
	return nil
}

func (s *tenancySteps) auditContains(action string) error {
	raw, err := s.tc.Field("events")
	if err != nil {
		return err
	}
	events, _ := raw.([]any)
	for _, e := range events {
		if ev, ok := e.(map[string]any); ok && ev["action"] == action {
			return nil
		}
	}
	return fmt.Errorf("audit trail has no %q event among %d events", action, len(events))
}
