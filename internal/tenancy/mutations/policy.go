package mutations

import (
	"sanitrack/internal/tenancy/rolegate"
	audit "sanitrack/pkg/platform/audit"
)

// Action is a mutation verb.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// EntityPolicy describes one tenant-owned entity: where it lives, which roles
// may perform each action, and which audit event records it.
type EntityPolicy struct {
	Entity string
	Table  string
	Roles  map[Action][]rolegate.Role
	Events map[Action]audit.AuditEvent
}

// Allowed returns the roles permitted to perform action. An action missing
// from the policy allows nobody.
func (p EntityPolicy) Allowed(action Action) []rolegate.Role {
	return p.Roles[action]
}

// Event returns the audit event for action.
func (p EntityPolicy) Event(action Action) audit.AuditEvent {
	if e, ok := p.Events[action]; ok {
		return e
	}
	return audit.AuditEvent(p.Entity + "_" + string(action))
}

var (
	managers = []rolegate.Role{rolegate.RoleOwner, rolegate.RoleAdmin}
	office   = []rolegate.Role{rolegate.RoleOwner, rolegate.RoleAdmin, rolegate.RoleDispatcher}
	field    = []rolegate.Role{rolegate.RoleOwner, rolegate.RoleAdmin, rolegate.RoleDispatcher, rolegate.RoleDriver}
)

// CustomerPolicy governs the customers table.
var CustomerPolicy = EntityPolicy{
	Entity: "customer",
	Table:  "customers",
	Roles: map[Action][]rolegate.Role{
		ActionCreate: office,
		ActionUpdate: office,
		ActionDelete: managers,
	},
	Events: map[Action]audit.AuditEvent{
		ActionCreate: audit.EventCustomerCreated,
		ActionUpdate: audit.EventCustomerUpdated,
		ActionDelete: audit.EventCustomerDeleted,
	},
}

// JobPolicy governs the jobs table. Drivers may update jobs (status changes
// from the field) but not create or delete them.
var JobPolicy = EntityPolicy{
	Entity: "job",
	Table:  "jobs",
	Roles: map[Action][]rolegate.Role{
		ActionCreate: office,
		ActionUpdate: field,
		ActionDelete: managers,
	},
	Events: map[Action]audit.AuditEvent{
		ActionCreate: audit.EventJobCreated,
		ActionUpdate: audit.EventJobUpdated,
		ActionDelete: audit.EventJobDeleted,
	},
}

// InventoryItemPolicy governs the inventory_items table.
var InventoryItemPolicy = EntityPolicy{
	Entity: "inventory_item",
	Table:  "inventory_items",
	Roles: map[Action][]rolegate.Role{
		ActionCreate: managers,
		ActionUpdate: office,
		ActionDelete: managers,
	},
	Events: map[Action]audit.AuditEvent{
		ActionCreate: audit.EventInventoryItemCreated,
		ActionUpdate: audit.EventInventoryItemUpdated,
		ActionDelete: audit.EventInventoryItemDeleted,
	},
}
