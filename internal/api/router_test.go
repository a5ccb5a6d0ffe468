package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/metachat/accounts/internal/api"
	"github.com/metachat/accounts/internal/repository"
	"github.com/metachat/accounts/internal/service"
	"github.com/metachat/accounts/internal/testutil"
	"github.com/metachat/accounts/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) (*httptest.Server, *testutil.FakeUserRepo) {
	t.Helper()

	repo := testutil.NewFakeUserRepo()
	fc := testutil.NewFakeCache()
	tokens := token.NewService(fc, "test-secret", time.Hour, 24*time.Hour, testutil.DiscardLogger())

	services := service.NewServices(
		&repository.Repositories{User: repo},
		tokens,
		fc,
		&testutil.RecordingPublisher{},
		testutil.NewFakeIndex(),
		nil,
		5*time.Minute,
		testutil.DiscardLogger(),
	)

	srv := httptest.NewServer(api.NewRouter(services))
	t.Cleanup(srv.Close)
	return srv, repo
}

type envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	StatusCode int             `json:"statusCode"`
	Error      *string         `json:"error"`
}

func postJSON(t *testing.T, url string, body any) (*http.Response, envelope) {
	t.Helper()

	buf, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func TestHealth(t *testing.T) {
	srv, _ := newServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegisterLoginMeFlow(t *testing.T) {
	srv, _ := newServer(t)

	resp, env := postJSON(t, srv.URL+"/api/v1/auth/register", map[string]any{
		"email":     "flow@example.com",
		"password":  "secret",
		"firstName": "Flow",
		"lastName":  "Tester",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.True(t, env.Success)
	assert.Equal(t, http.StatusCreated, env.StatusCode)

	resp, env = postJSON(t, srv.URL+"/api/v1/auth/login", map[string]any{
		"email":    "flow@example.com",
		"password": "secret",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var login struct {
		ID          string `json:"id"`
		AccessToken string `json:"access_token"`
		Refresh     string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	require.NotEmpty(t, login.AccessToken)
	require.NotEmpty(t, login.Refresh)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/auth/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+login.AccessToken)

	meResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer meResp.Body.Close()
	require.Equal(t, http.StatusOK, meResp.StatusCode)

	var meEnv envelope
	require.NoError(t, json.NewDecoder(meResp.Body).Decode(&meEnv))
	var me struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(meEnv.Data, &me))
	assert.Equal(t, login.ID, me.ID)
}

func TestRegisterConflictEnvelope(t *testing.T) {
	srv, _ := newServer(t)

	resp, _ := postJSON(t, srv.URL+"/api/v1/auth/register", map[string]any{
		"email":    "dup@example.com",
		"password": "secret",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, env := postJSON(t, srv.URL+"/api/v1/auth/register", map[string]any{
		"email":    "dup@example.com",
		"password": "secret",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.False(t, env.Success)
	assert.Equal(t, http.StatusConflict, env.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "email already in use", *env.Error)
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	srv, _ := newServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/auth/me")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAnonymousSearch(t *testing.T) {
	srv, repo := newServer(t)
	testutil.NewUserBuilder().WithPhone("0901234567").WithName("Jane", "Doe").Build(t, repo)

	resp, err := http.Get(srv.URL + "/api/v1/users/search?search=0901234567")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	var page struct {
		Items []struct {
			Name string `json:"name"`
		} `json:"items"`
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Jane Doe", page.Items[0].Name)
}

func TestSearchSkipLimitConversion(t *testing.T) {
	srv, _ := newServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/users/search?search=jane&skip=10&limit=10")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	var page struct {
		Page  int `json:"page"`
		Limit int `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 10, page.Limit)
}
