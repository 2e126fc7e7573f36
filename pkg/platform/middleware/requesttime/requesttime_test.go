package requesttime

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"sanitrack/pkg/requestcontext"
)

func TestMiddlewarePinsOneTimePerRequest(t *testing.T) {
	var first, second time.Time
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		first = requestcontext.Now(r.Context())
		second = requestcontext.Now(r.Context())
	}))

	before := time.Now().UTC()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, first, second)
	assert.Equal(t, time.UTC, first.Location())
	assert.False(t, first.Before(before.Add(-time.Second)))
}
