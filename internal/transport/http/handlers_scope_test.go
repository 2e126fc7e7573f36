package httptransport_test

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"sanitrack/internal/query"
	"sanitrack/internal/tenancy"
	"sanitrack/internal/tenancy/mutations"
	"sanitrack/internal/tenancy/rolegate"
	rolemocks "sanitrack/internal/tenancy/rolegate/mocks"
	httptransport "sanitrack/internal/transport/http"
	"sanitrack/internal/transport/http/mocks"
	"sanitrack/pkg/testutil"
)

// The handlers mounted without middleware take user and organization from the
// request context only.
func TestEntityHandlerReadsScopeFromContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockMutationService(ctrl)
	gate := rolemocks.NewMockGate(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := chi.NewRouter()
	httptransport.NewEntityHandler(svc, tenancy.NewSafe(query.NewClient(query.NewMemoryExecutor())), gate, logger).Register(r)

	testutil.Given(t, "a scoped request", func(t *testing.T) {
		testutil.When(t, "creating a customer", func(t *testing.T) {
			svc.EXPECT().
				CreateCustomer(gomock.Any(), mutations.Caller{UserID: "user_1", OrganizationID: "org-9"}, query.Record{"name": "Acme"}).
				Return(query.Response{Data: []query.Record{{"id": "c-1"}}, Count: 1}, nil)

			req := testutil.WithAuth(testutil.NewJSONRequest(t, http.MethodPost, "/customers", map[string]string{"name": "Acme"}), "user_1", "org-9")
			rr := testutil.DoRequest(r, req)

			testutil.Then(t, "the mutation sees the context caller", func(t *testing.T) {
				testutil.AssertStatus(t, rr, http.StatusCreated)
				testutil.AssertJSONContains(t, rr, "id", "c-1")
			})
		})
	})

	testutil.Given(t, "a request with no organization", func(t *testing.T) {
		testutil.When(t, "listing customers", func(t *testing.T) {
			gate.EXPECT().RequireRole(gomock.Any(), gomock.Any()).Return(rolegateActor(), nil)

			req := testutil.WithUserID(testutil.NewRequest(t, http.MethodGet, "/customers"), "user_1")
			rr := testutil.DoRequest(r, req)

			testutil.Then(t, "the guard refuses before any query", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "tenant_required")
				testutil.AssertErrorDescription(t, rr, "Organization ID required")
			})
		})
	})
}

func rolegateActor() rolegate.Actor {
	return rolegate.Actor{UserID: "user_1", Role: rolegate.RoleAdmin}
}
