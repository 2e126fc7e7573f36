// Package e2e drives a running sanitrack server over HTTP with godog
// scenarios. Memberships are seeded directly in PostgreSQL because the API
// has no endpoint for them.
package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Config points the suite at a server and its database.
type Config struct {
	BaseURL     string
	DatabaseURL string
	SigningKey  string
	Issuer      string
	Audience    string
	AdminToken  string
}

// TestContext holds per-scenario state. Organization and user names used in
// feature files are suffixed with a run ID so scenarios never collide.
type TestContext struct {
	cfg    Config
	db     *sql.DB
	http   *http.Client
	runID  string
	status int
	body   map[string]any
	ids    map[string]string
}

func NewTestContext(cfg Config, db *sql.DB) *TestContext {
	return &TestContext{
		cfg:  cfg,
		db:   db,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// Reset clears state between scenarios.
func (tc *TestContext) Reset() {
	tc.runID = uuid.NewString()[:8]
	tc.status = 0
	tc.body = nil
	tc.ids = make(map[string]string)
}

// Scoped maps a feature-file name to this scenario's unique identifier.
func (tc *TestContext) Scoped(name string) string {
	return name + "-" + tc.runID
}

func (tc *TestContext) RememberID(alias, id string) { tc.ids[alias] = id }

func (tc *TestContext) RecalledID(alias string) (string, error) {
	id, ok := tc.ids[alias]
	if !ok {
		return "", fmt.Errorf("no id remembered as %q", alias)
	}
	return id, nil
}

// SeedMember inserts a profile row giving user role in org.
func (tc *TestContext) SeedMember(ctx context.Context, org, user, role string) error {
	_, err := tc.db.ExecContext(ctx,
		`INSERT INTO profiles (clerk_user_id, organization_id, role) VALUES ($1, $2, $3)
		 ON CONFLICT (clerk_user_id, organization_id) DO UPDATE SET role = EXCLUDED.role`,
		tc.Scoped(user), tc.Scoped(org), role)
	return err
}

// Token mints an access token for user, signed the way the server expects.
func (tc *TestContext) Token(user string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   tc.Scoped(user),
		Issuer:    tc.cfg.Issuer,
		Audience:  jwt.ClaimStrings{tc.cfg.Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(5 * time.Minute)),
		ID:        uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(tc.cfg.SigningKey))
}

// Do sends a request as user (bearer token) or, when user is empty, with the
// admin token. body may be nil, a raw string, or any JSON-encodable value.
func (tc *TestContext) Do(ctx context.Context, method, path, user string, body any) error {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, tc.cfg.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		token, err := tc.Token(user)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	} else {
		req.Header.Set("X-Admin-Token", tc.cfg.AdminToken)
	}

	resp, err := tc.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tc.status = resp.StatusCode
	tc.body = nil
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &tc.body); err != nil {
			return fmt.Errorf("decode response %s: %w", raw, err)
		}
	}
	return nil
}

func (tc *TestContext) Status() int { return tc.status }

// Field returns a top-level field of the last JSON response.
func (tc *TestContext) Field(name string) (any, error) {
	v, ok := tc.body[name]
	if !ok {
		return nil, fmt.Errorf("response has no field %q: %v", name, tc.body)
	}
	return v, nil
}
