package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/stanstork/leadwatch-api/internal/authz"
	"github.com/stanstork/leadwatch-api/internal/models"
)

var (
	admin    = authz.Identity{UserID: "admin-1", Role: models.RoleAdmin, Email: "boss@example.com"}
	salesman = authz.Identity{UserID: "sales-1", Role: models.RoleSalesman, Email: "sam@example.com", FullName: "Sam"}
)

func newRequest(t *testing.T, method, target string, body interface{}, identity *authz.Identity, vars map[string]string) *http.Request {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if identity != nil {
		req = req.WithContext(authz.WithIdentity(req.Context(), *identity))
	}
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}
