package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fanatitra/internal/auth"
	"fanatitra/internal/directory"
	"fanatitra/internal/guard"
	"fanatitra/internal/ledger"
	"fanatitra/internal/log"
	"fanatitra/internal/stats"
	"fanatitra/internal/storage/memory"
)

var fixedNow = time.Date(2024, 6, 5, 9, 0, 0, 0, time.UTC)

type brokenStore struct{}

func (brokenStore) Ping(context.Context) error { return errors.New("disk on fire") }

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	store := memory.New()
	clock := func() time.Time { return fixedNow }
	dir := directory.New(store, log.Nop(), directory.WithClock(clock))
	led := ledger.New(store, guard.New(dir, log.Nop()), log.Nop(), ledger.WithClock(clock))
	st := stats.NewService(led, dir, log.Nop(), stats.WithClock(clock))
	authSvc := auth.New(auth.Config{
		AdminEmail:    "admin@example.mg",
		AdminPassword: "s3cret",
		Secret:        "0123456789abcdef0123",
		TTL:           time.Hour,
	}, log.Nop())
	if opts.RateLimitPerMinute == 0 {
		opts.RateLimitPerMinute = 1000
	}
	if opts.CORSAllowedOrigin == "" {
		opts.CORSAllowedOrigin = "*"
	}
	srv := NewServer(":0", Deps{
		Directory: dir,
		Ledger:    led,
		Stats:     st,
		Auth:      authSvc,
		Store:     store,
		Logger:    log.Nop(),
	}, opts)
	t.Cleanup(srv.limiter.Stop)
	return srv
}

type call struct {
	method  string
	path    string
	body    string
	headers map[string]string
}

func do(t *testing.T, srv *Server, c call) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var body *strings.Reader
	if c.body != "" {
		body = strings.NewReader(c.body)
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(c.method, c.path, body)
	if c.body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func data(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	d, ok := body["data"].(map[string]any)
	require.True(t, ok, "data missing in %v", body)
	return d
}

func createPerson(t *testing.T, srv *Server, body string) map[string]any {
	t.Helper()
	rec, out := do(t, srv, call{method: http.MethodPost, path: "/api/persons", body: body})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return data(t, out)["person"].(map[string]any)
}

func createVersement(t *testing.T, srv *Server, body string) map[string]any {
	t.Helper()
	rec, out := do(t, srv, call{method: http.MethodPost, path: "/api/versements", body: body})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return data(t, out)
}

func TestHealthAndReadiness(t *testing.T) {
	srv := newTestServer(t, Options{})
	for _, path := range []string{"/healthz", "/readyz"} {
		rec, _ := do(t, srv, call{method: http.MethodGet, path: path})
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	srv.store = brokenStore{}
	rec, out := do(t, srv, call{method: http.MethodGet, path: "/readyz"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unavailable", out["status"])
}

func TestPersonsLifecycle(t *testing.T) {
	srv := newTestServer(t, Options{})

	rec, out := do(t, srv, call{method: http.MethodPost, path: "/api/persons",
		body: `{"name":"Jean Paul","cardNumber":"C1","address":"Lot II"}`})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "success", out["status"])
	person := data(t, out)["person"].(map[string]any)
	assert.Equal(t, "Jean Paul", person["fullName"])
	assert.Equal(t, "JP", person["initials"])
	assert.Equal(t, "", person["phoneNumber"])
	id := person["id"].(string)

	rec, out = do(t, srv, call{method: http.MethodGet, path: "/api/persons/" + id})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, data(t, out)["person"].(map[string]any)["id"])

	rec, out = do(t, srv, call{method: http.MethodPatch, path: "/api/persons/" + id,
		body: `{"fullName":"Marie Rakoto"}`})
	assert.Equal(t, http.StatusOK, rec.Code)
	updated := data(t, out)["person"].(map[string]any)
	assert.Equal(t, "MR", updated["initials"])
	assert.Equal(t, "C1", updated["cardNumber"])

	rec, out = do(t, srv, call{method: http.MethodGet, path: "/api/persons"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, data(t, out)["persons"], 1)

	rec, _ = do(t, srv, call{method: http.MethodDelete, path: "/api/persons/" + id})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, rec.Body.Len())

	rec, out = do(t, srv, call{method: http.MethodGet, path: "/api/persons/" + id})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "fail", out["status"])
	assert.Equal(t, "not_found", out["code"])
}

func TestPersonsErrors(t *testing.T) {
	srv := newTestServer(t, Options{})
	createPerson(t, srv, `{"fullName":"Jean Paul","cardNumber":"C1"}`)

	tests := []struct {
		name   string
		call   call
		status int
		code   string
		field  string
	}{
		{"missing card", call{method: http.MethodPost, path: "/api/persons", body: `{"fullName":"X"}`}, 400, "validation_error", "cardNumber"},
		{"missing name", call{method: http.MethodPost, path: "/api/persons", body: `{"cardNumber":"C9"}`}, 400, "validation_error", "fullName"},
		{"duplicate card", call{method: http.MethodPost, path: "/api/persons", body: `{"fullName":"Other","cardNumber":"C1"}`}, 409, "duplicate_key", "cardNumber"},
		{"duplicate name", call{method: http.MethodPost, path: "/api/persons", body: `{"fullName":"Jean Paul","cardNumber":"C2"}`}, 409, "duplicate_key", "fullName"},
		{"malformed json", call{method: http.MethodPost, path: "/api/persons", body: `{"fullName":`}, 400, "validation_error", "body"},
		{"non-string name", call{method: http.MethodPost, path: "/api/persons", body: `{"fullName":true,"cardNumber":"C3"}`}, 400, "validation_error", "fullName"},
		{"invalid id", call{method: http.MethodGet, path: "/api/persons/not-an-id"}, 400, "invalid_identifier", "id"},
		{"unknown id", call{method: http.MethodDelete, path: "/api/persons/7f1c1e0e-9b7a-4c1e-8f1a-2f0e6c1d9a11"}, 404, "not_found", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, out := do(t, srv, tt.call)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, "fail", out["status"])
			assert.Equal(t, tt.code, out["code"])
			if tt.field != "" {
				assert.Equal(t, tt.field, out["field"])
			}
			assert.NotEmpty(t, out["message"])
		})
	}
}

func TestVersementsLifecycle(t *testing.T) {
	srv := newTestServer(t, Options{})
	jp := createPerson(t, srv, `{"fullName":"Jean Paul","cardNumber":"C1"}`)
	createPerson(t, srv, `{"fullName":"Marie Rakoto","cardNumber":"C2"}`)

	v := createVersement(t, srv, `{"date":"2024-06-03","personName":"Jean Paul","amount":1500,"numeroDeCompte":"C1","paymentType":"Sorona"}`)
	assert.Equal(t, jp["id"], v["personId"])
	assert.Equal(t, "Jean Paul", v["personName"])
	assert.Equal(t, "JP", v["personInitial"])
	assert.Equal(t, float64(1500), v["amount"])
	assert.Equal(t, "2024-06-03", v["date"])

	second := createVersement(t, srv, `{"date":"2024-05-20","personName":"Marie Rakoto","amount":"250.50","numeroDeCompte":"C2"}`)
	assert.Equal(t, 250.5, second["amount"])
	assert.Equal(t, "Ampafolokarena", second["paymentType"])

	rec, out := do(t, srv, call{method: http.MethodGet, path: "/api/versements"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["success"])
	list := data(t, out)["versements"].([]any)
	require.Len(t, list, 2)
	assert.Equal(t, second["id"], list[0].(map[string]any)["id"], "newest first")

	rec, out = do(t, srv, call{method: http.MethodGet, path: "/api/versements?startDate=2024-06-01&endDate=2024-06-30"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, data(t, out)["versements"], 1)

	rec, out = do(t, srv, call{method: http.MethodGet, path: "/api/versements?personId=" + jp["id"].(string)})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, data(t, out)["versements"], 1)

	id := v["id"].(string)
	rec, out = do(t, srv, call{method: http.MethodPatch, path: "/api/versements/" + id,
		body: `{"personName":"Marie Rakoto","amount":"2000"}`})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Versement modifié avec succès.", out["message"])
	moved := data(t, out)
	assert.Equal(t, "Marie Rakoto", moved["personName"])
	assert.Equal(t, "MR", moved["personInitial"])
	assert.Equal(t, float64(2000), moved["amount"])

	rec, out = do(t, srv, call{method: http.MethodDelete, path: "/api/versements/" + id})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "Versement supprimé avec succès.", out["message"])
	assert.Nil(t, out["data"])

	rec, out = do(t, srv, call{method: http.MethodGet, path: "/api/versements/" + id})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, out["success"])
}

func TestVersementsErrors(t *testing.T) {
	srv := newTestServer(t, Options{})
	createPerson(t, srv, `{"fullName":"Jean Paul","cardNumber":"C1"}`)

	tests := []struct {
		name   string
		call   call
		status int
		code   string
	}{
		{"unknown person", call{method: http.MethodPost, path: "/api/versements",
			body: `{"date":"2024-06-03","personName":"Nobody","amount":10,"numeroDeCompte":"X"}`}, 404, "not_found"},
		{"bad date", call{method: http.MethodPost, path: "/api/versements",
			body: `{"date":"03/06/2024","personName":"Jean Paul","amount":10,"numeroDeCompte":"X"}`}, 400, "validation_error"},
		{"zero amount", call{method: http.MethodPost, path: "/api/versements",
			body: `{"date":"2024-06-03","personName":"Jean Paul","amount":0,"numeroDeCompte":"X"}`}, 400, "validation_error"},
		{"text amount", call{method: http.MethodPost, path: "/api/versements",
			body: `{"date":"2024-06-03","personName":"Jean Paul","amount":"abc","numeroDeCompte":"X"}`}, 400, "validation_error"},
		{"unknown category", call{method: http.MethodPost, path: "/api/versements",
			body: `{"date":"2024-06-03","personName":"Jean Paul","amount":10,"numeroDeCompte":"X","paymentType":"Other"}`}, 400, "validation_error"},
		{"bad range", call{method: http.MethodGet, path: "/api/versements?startDate=2024-13-01"}, 400, "validation_error"},
		{"bad person filter", call{method: http.MethodGet, path: "/api/versements?personId=zzz"}, 400, "invalid_identifier"},
		{"invalid id", call{method: http.MethodDelete, path: "/api/versements/zzz"}, 400, "invalid_identifier"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, out := do(t, srv, tt.call)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, false, out["success"])
			assert.Equal(t, tt.code, out["code"])
		})
	}

	rec, out := do(t, srv, call{method: http.MethodGet, path: "/api/versements"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, data(t, out)["versements"], "failed creates leave nothing behind")
}

func TestStatsEndpoints(t *testing.T) {
	srv := newTestServer(t, Options{})
	a := createPerson(t, srv, `{"fullName":"Andry","cardNumber":"A"}`)
	createPerson(t, srv, `{"fullName":"Bako","cardNumber":"B"}`)
	createPerson(t, srv, `{"fullName":"Idle","cardNumber":"I"}`)

	createVersement(t, srv, `{"date":"2024-06-03","personName":"Andry","amount":100,"numeroDeCompte":"A"}`)
	createVersement(t, srv, `{"date":"2024-06-10","personName":"Bako","amount":50,"numeroDeCompte":"B"}`)
	createVersement(t, srv, `{"date":"2024-01-15","personName":"Andry","amount":25,"numeroDeCompte":"A"}`)
	createVersement(t, srv, `{"date":"2023-12-31","personName":"Bako","amount":5,"numeroDeCompte":"B"}`)

	rec, out := do(t, srv, call{method: http.MethodGet, path: "/api/stats/summary?today=2024-06-05"})
	require.Equal(t, http.StatusOK, rec.Code)
	sum := data(t, out)
	assert.Equal(t, "2024-06-05", sum["today"])
	assert.Equal(t, float64(100), sum["thisWeek"].(map[string]any)["amount"])
	assert.Equal(t, "100 ariary", sum["thisWeek"].(map[string]any)["display"])
	assert.Equal(t, float64(150), sum["thisMonth"].(map[string]any)["amount"])
	assert.Equal(t, float64(175), sum["thisYear"].(map[string]any)["amount"])
	assert.Equal(t, float64(180), sum["allTime"].(map[string]any)["amount"])

	rec, out = do(t, srv, call{method: http.MethodGet, path: "/api/stats/summary?today=june"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "today", out["field"])

	rec, out = do(t, srv, call{method: http.MethodGet, path: "/api/stats/monthly"})
	require.Equal(t, http.StatusOK, rec.Code)
	monthly := data(t, out)["monthly"].([]any)
	require.Len(t, monthly, 3)
	assert.Equal(t, "2023-12", monthly[0].(map[string]any)["month"])
	assert.Equal(t, "2024-06", monthly[2].(map[string]any)["month"])

	rec, out = do(t, srv, call{method: http.MethodGet, path: "/api/stats/top?limit=1"})
	require.Equal(t, http.StatusOK, rec.Code)
	top := data(t, out)["top"].([]any)
	require.Len(t, top, 1)
	assert.Equal(t, "Andry", top[0].(map[string]any)["personName"])
	assert.Equal(t, float64(125), top[0].(map[string]any)["total"])

	rec, _ = do(t, srv, call{method: http.MethodGet, path: "/api/stats/top?limit=-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, out = do(t, srv, call{method: http.MethodGet, path: "/api/stats/dashboard?recent=2&today=2024-06-05"})
	require.Equal(t, http.StatusOK, rec.Code)
	dash := data(t, out)
	assert.Equal(t, float64(4), dash["transactions"])
	assert.Equal(t, float64(180), dash["totalVersed"].(map[string]any)["amount"])
	recent := dash["recent"].([]any)
	require.Len(t, recent, 2)
	assert.Equal(t, "2024-06-10", recent[0].(map[string]any)["date"])

	rec, out = do(t, srv, call{method: http.MethodGet, path: "/api/persons?withTotals=true"})
	require.Equal(t, http.StatusOK, rec.Code)
	for _, p := range data(t, out)["persons"].([]any) {
		pm := p.(map[string]any)
		switch pm["fullName"] {
		case "Andry":
			assert.Equal(t, float64(125), pm["totalVersed"])
			assert.Equal(t, float64(2), pm["count"])
		case "Idle":
			assert.Equal(t, float64(0), pm["totalVersed"])
			assert.Equal(t, float64(0), pm["count"])
		}
	}

	rec, out = do(t, srv, call{method: http.MethodGet, path: "/api/persons/" + a["id"].(string) + "/summary?period=month&today=2024-06-05"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ps := data(t, out)
	assert.Equal(t, "thisMonth", ps["period"])
	assert.Len(t, ps["versements"], 1)
	assert.Equal(t, float64(125), ps["totals"].(map[string]any)["allTime"].(map[string]any)["amount"])

	rec, _ = do(t, srv, call{method: http.MethodGet, path: "/api/persons/" + a["id"].(string) + "/summary?period=decade"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminLogin(t *testing.T) {
	srv := newTestServer(t, Options{})

	rec, out := do(t, srv, call{method: http.MethodPost, path: "/api/auth/admin",
		body: `{"email":"admin@example.mg","password":"s3cret"}`})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["success"])
	assert.NotEmpty(t, out["token"])

	rec, out = do(t, srv, call{method: http.MethodPost, path: "/api/auth/admin",
		body: `{"email":"admin@example.mg","password":"nope"}`})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "Invalid credentials", out["message"])
}

func TestAuthRequiredGatesAPI(t *testing.T) {
	srv := newTestServer(t, Options{AuthRequired: true})

	rec, out := do(t, srv, call{method: http.MethodGet, path: "/api/persons"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, false, out["success"])

	rec, _ = do(t, srv, call{method: http.MethodGet, path: "/healthz"})
	assert.Equal(t, http.StatusOK, rec.Code)

	_, login := do(t, srv, call{method: http.MethodPost, path: "/api/auth/admin",
		body: `{"email":"admin@example.mg","password":"s3cret"}`})
	token := login["token"].(string)

	rec, _ = do(t, srv, call{method: http.MethodGet, path: "/api/stats/summary",
		headers: map[string]string{"Authorization": "Bearer " + token}})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, srv, call{method: http.MethodGet, path: "/api/versements",
		headers: map[string]string{"token": token}})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, srv, call{method: http.MethodGet, path: "/api/versements",
		headers: map[string]string{"token": token + "x"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimitOnWrites(t *testing.T) {
	srv := newTestServer(t, Options{RateLimitPerMinute: 1})
	createPerson(t, srv, `{"fullName":"Jean Paul","cardNumber":"C1"}`)

	rec, out := do(t, srv, call{method: http.MethodPost, path: "/api/persons", body: `{"fullName":"Marie","cardNumber":"C2"}`})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limited", out["code"])

	rec, _ = do(t, srv, call{method: http.MethodGet, path: "/api/persons"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownRouteIsJSON(t *testing.T) {
	srv := newTestServer(t, Options{})
	rec, out := do(t, srv, call{method: http.MethodGet, path: "/api/nothing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "route_not_found", out["code"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
