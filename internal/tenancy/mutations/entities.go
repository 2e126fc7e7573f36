package mutations

import (
	"context"

	"sanitrack/internal/query"
)

// CreateCustomer inserts a customer for caller's organization.
func (s *Service) CreateCustomer(ctx context.Context, caller Caller, payload query.Record) (query.Response, error) {
	return s.Create(ctx, CustomerPolicy, caller, payload)
}

// UpdateCustomer patches one of the organization's customers.
func (s *Service) UpdateCustomer(ctx context.Context, caller Caller, id string, patch query.Record) (query.Response, error) {
	return s.Update(ctx, CustomerPolicy, caller, id, patch)
}

// DeleteCustomer removes one of the organization's customers.
func (s *Service) DeleteCustomer(ctx context.Context, caller Caller, id string) (query.Response, error) {
	return s.Delete(ctx, CustomerPolicy, caller, id)
}

func (s *Service) CreateJob(ctx context.Context, caller Caller, payload query.Record) (query.Response, error) {
	return s.Create(ctx, JobPolicy, caller, payload)
}

func (s *Service) UpdateJob(ctx context.Context, caller Caller, id string, patch query.Record) (query.Response, error) {
	return s.Update(ctx, JobPolicy, caller, id, patch)
}

func (s *Service) DeleteJob(ctx context.Context, caller Caller, id string) (query.Response, error) {
	return s.Delete(ctx, JobPolicy, caller, id)
}

func (s *Service) CreateInventoryItem(ctx context.Context, caller Caller, payload query.Record) (query.Response, error) {
	return s.Create(ctx, InventoryItemPolicy, caller, payload)
}

func (s *Service) UpdateInventoryItem(ctx context.Context, caller Caller, id string, patch query.Record) (query.Response, error) {
	return s.Update(ctx, InventoryItemPolicy, caller, id, patch)
}

func (s *Service) DeleteInventoryItem(ctx context.Context, caller Caller, id string) (query.Response, error) {
	return s.Delete(ctx, InventoryItemPolicy, caller, id)
}
