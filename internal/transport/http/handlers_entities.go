package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"sanitrack/internal/query"
	"sanitrack/internal/tenancy/mutations"
	"sanitrack/internal/tenancy/rolegate"
	dErrors "sanitrack/pkg/domain-errors"
	"sanitrack/pkg/platform/httputil"
	"sanitrack/pkg/requestcontext"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
	maxOffset       = 1_000_000
)

// MutationService is the role-gated write path.
type MutationService interface {
	CreateCustomer(ctx context.Context, caller mutations.Caller, payload query.Record) (query.Response, error)
	UpdateCustomer(ctx context.Context, caller mutations.Caller, id string, patch query.Record) (query.Response, error)
	DeleteCustomer(ctx context.Context, caller mutations.Caller, id string) (query.Response, error)
	CreateJob(ctx context.Context, caller mutations.Caller, payload query.Record) (query.Response, error)
	UpdateJob(ctx context.Context, caller mutations.Caller, id string, patch query.Record) (query.Response, error)
	DeleteJob(ctx context.Context, caller mutations.Caller, id string) (query.Response, error)
	CreateInventoryItem(ctx context.Context, caller mutations.Caller, payload query.Record) (query.Response, error)
	UpdateInventoryItem(ctx context.Context, caller mutations.Caller, id string, patch query.Record) (query.Response, error)
	DeleteInventoryItem(ctx context.Context, caller mutations.Caller, id string) (query.Response, error)
}

// TenantReader builds organization-scoped reads.
type TenantReader interface {
	Read(ctx context.Context, table string, orgID string, filters query.Filters) (*query.Builder, error)
}

type createFunc func(ctx context.Context, caller mutations.Caller, payload query.Record) (query.Response, error)
type updateFunc func(ctx context.Context, caller mutations.Caller, id string, patch query.Record) (query.Response, error)
type deleteFunc func(ctx context.Context, caller mutations.Caller, id string) (query.Response, error)
type decodeFunc func(w http.ResponseWriter, r *http.Request, logger *slog.Logger, requestID string) (query.Record, bool)

// resource binds one entity's routes to its mutations and table.
type resource struct {
	path         string
	entity       string
	table        string
	listFilters  []string
	create       createFunc
	update       updateFunc
	delete       deleteFunc
	decodeCreate decodeFunc
	decodeUpdate decodeFunc
}

// EntityHandler serves the tenant-scoped entity endpoints. Routes must be
// mounted under the organization scope middleware.
type EntityHandler struct {
	mutations MutationService
	reader    TenantReader
	gate      rolegate.Gate
	logger    *slog.Logger
	resources []resource
}

// NewEntityHandler constructs the handler. gate authorizes reads; writes are
// authorized inside the mutation service.
func NewEntityHandler(svc MutationService, reader TenantReader, gate rolegate.Gate, logger *slog.Logger) *EntityHandler {
	h := &EntityHandler{mutations: svc, reader: reader, gate: gate, logger: logger}
	h.resources = []resource{
		{
			path:         "customers",
			entity:       mutations.CustomerPolicy.Entity,
			table:        mutations.CustomerPolicy.Table,
			create:       svc.CreateCustomer,
			update:       svc.UpdateCustomer,
			delete:       svc.DeleteCustomer,
			decodeCreate: decodeRecord[CreateCustomerRequest],
			decodeUpdate: decodeRecord[UpdateCustomerRequest],
		},
		{
			path:         "jobs",
			entity:       mutations.JobPolicy.Entity,
			table:        mutations.JobPolicy.Table,
			listFilters:  []string{"status", "assigned_to", "customer_id"},
			create:       svc.CreateJob,
			update:       svc.UpdateJob,
			delete:       svc.DeleteJob,
			decodeCreate: decodeRecord[CreateJobRequest],
			decodeUpdate: decodeRecord[UpdateJobRequest],
		},
		{
			path:         "inventory-items",
			entity:       mutations.InventoryItemPolicy.Entity,
			table:        mutations.InventoryItemPolicy.Table,
			listFilters:  []string{"sku"},
			create:       svc.CreateInventoryItem,
			update:       svc.UpdateInventoryItem,
			delete:       svc.DeleteInventoryItem,
			decodeCreate: decodeRecord[CreateInventoryItemRequest],
			decodeUpdate: decodeRecord[UpdateInventoryItemRequest],
		},
	}
	return h
}

// Register mounts entity endpoints on the router.
func (h *EntityHandler) Register(r chi.Router) {
	for _, res := range h.resources {
		r.Route("/"+res.path, func(r chi.Router) {
			r.Get("/", h.handleList(res))
			r.Post("/", h.handleCreate(res))
			r.Get("/{id}", h.handleGet(res))
			r.Patch("/{id}", h.handleUpdate(res))
			r.Delete("/{id}", h.handleDelete(res))
		})
	}
}

// ListResponse wraps a page of rows.
type ListResponse struct {
	Data   []query.Record `json:"data"`
	Count  int            `json:"count"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

func (h *EntityHandler) handleCreate(res resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := requestcontext.RequestID(ctx)
		start := time.Now()

		payload, ok := res.decodeCreate(w, r, h.logger, requestID)
		if !ok {
			return
		}
		resp, err := res.create(ctx, mutations.CallerFromContext(ctx), payload)
		if err != nil {
			h.writeMutationError(ctx, w, res, "create", err)
			return
		}
		h.logger.InfoContext(ctx, res.entity+" created",
			"request_id", requestID,
			"organization_id", requestcontext.OrganizationID(ctx),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		httputil.WriteJSON(w, http.StatusCreated, resp.First())
	}
}

func (h *EntityHandler) handleUpdate(res resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := requestcontext.RequestID(ctx)

		patch, ok := res.decodeUpdate(w, r, h.logger, requestID)
		if !ok {
			return
		}
		resp, err := res.update(ctx, mutations.CallerFromContext(ctx), chi.URLParam(r, "id"), patch)
		if err != nil {
			h.writeMutationError(ctx, w, res, "update", err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, resp.First())
	}
}

func (h *EntityHandler) handleDelete(res resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if _, err := res.delete(ctx, mutations.CallerFromContext(ctx), chi.URLParam(r, "id")); err != nil {
			h.writeMutationError(ctx, w, res, "delete", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *EntityHandler) handleList(res resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		orgID, ok := h.authorizeRead(w, r)
		if !ok {
			return
		}
		limit, offset, err := pagination(r)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}

		filters := query.Filters{}
		for _, key := range res.listFilters {
			if v := strings.TrimSpace(r.URL.Query().Get(key)); v != "" {
				filters[key] = v
			}
		}
		builder, err := h.reader.Read(ctx, res.table, orgID, filters)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		resp := builder.Order("created_at", false).Range(offset, offset+limit-1).Execute(ctx)
		if resp.Err != nil {
			h.logger.ErrorContext(ctx, "list failed",
				"request_id", requestcontext.RequestID(ctx),
				"entity", res.entity,
				"organization_id", orgID,
				"error", resp.Err,
			)
			httputil.WriteError(w, dErrors.Wrap(resp.Err, dErrors.CodeInternal, "failed to list "+res.path))
			return
		}
		data := resp.Data
		if data == nil {
			data = []query.Record{}
		}
		httputil.WriteJSON(w, http.StatusOK, ListResponse{Data: data, Count: len(data), Limit: limit, Offset: offset})
	}
}

func (h *EntityHandler) handleGet(res resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		orgID, ok := h.authorizeRead(w, r)
		if !ok {
			return
		}
		builder, err := h.reader.Read(ctx, res.table, orgID, query.Filters{"id": chi.URLParam(r, "id")})
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		resp := builder.Limit(1).Execute(ctx)
		if resp.Err != nil {
			httputil.WriteError(w, dErrors.Wrap(resp.Err, dErrors.CodeInternal, "failed to load "+res.entity))
			return
		}
		row := resp.First()
		if row == nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, res.entity+" not found"))
			return
		}
		httputil.WriteJSON(w, http.StatusOK, row)
	}
}

// authorizeRead requires the caller to be a member of the scoped organization.
func (h *EntityHandler) authorizeRead(w http.ResponseWriter, r *http.Request) (string, bool) {
	ctx := r.Context()
	caller := mutations.CallerFromContext(ctx)
	_, err := h.gate.RequireRole(ctx, rolegate.Check{
		UserID:         caller.UserID,
		OrganizationID: caller.OrganizationID,
		Allowed:        rolegate.Members,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "read denied",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", caller.UserID,
			"organization_id", caller.OrganizationID,
			"error", err,
		)
		if dErrors.HasCode(err, dErrors.CodeForbidden) {
			httputil.WriteError(w, err)
		} else {
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify role"))
		}
		return "", false
	}
	return caller.OrganizationID, true
}

func (h *EntityHandler) writeMutationError(ctx context.Context, w http.ResponseWriter, res resource, action string, err error) {
	level := slog.LevelWarn
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, res.entity+" "+action+" failed",
		"request_id", requestcontext.RequestID(ctx),
		"organization_id", requestcontext.OrganizationID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}

func pagination(r *http.Request) (limit, offset int, err error) {
	limit, offset = defaultPageSize, 0
	q := r.URL.Query()
	if raw := q.Get("limit"); raw != "" {
		n, convErr := strconv.Atoi(raw)
		if convErr != nil || n <= 0 {
			return 0, 0, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer")
		}
		limit = min(n, maxPageSize)
	}
	if raw := q.Get("offset"); raw != "" {
		n, convErr := strconv.Atoi(raw)
		if convErr != nil || n < 0 {
			return 0, 0, dErrors.New(dErrors.CodeBadRequest, "offset must be a non-negative integer")
		}
		if n > maxOffset {
			return 0, 0, dErrors.New(dErrors.CodeBadRequest, "offset must not exceed "+strconv.Itoa(maxOffset))
		}
		offset = n
	}
	return limit, offset, nil
}

// decodeRecord decodes and validates a T, then converts it to a row payload.
func decodeRecord[T any, PT interface {
	*T
	Validate() error
	Record() query.Record
}](w http.ResponseWriter, r *http.Request, logger *slog.Logger, requestID string) (query.Record, bool) {
	req, ok := httputil.DecodeAndPrepare[T, PT](w, r, logger, r.Context(), requestID)
	if !ok {
		return nil, false
	}
	return PT(req).Record(), true
}
