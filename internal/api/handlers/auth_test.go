package handlers_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/dom/storyverse/internal/domain"
	"github.com/dom/storyverse/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postForm(t *testing.T, target string, form url.Values) *http.Response {
	t.Helper()
	resp, err := http.Post(target, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestAuthHandler_Register(t *testing.T) {
	ts := testutil.NewTestServer(t)

	tests := []struct {
		name           string
		request        map[string]any
		setup          func()
		expectedStatus int
		checkResponse  func(*testing.T, *http.Response)
	}{
		{
			name: "successful registration",
			request: map[string]any{
				"email":     "New.User@Example.com",
				"password":  "password123",
				"full_name": "New User",
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, resp *http.Response) {
				var result map[string]any
				testutil.AssertJSONResponse(t, resp, http.StatusCreated, &result)
				assert.Equal(t, "new.user@example.com", result["email"])
				assert.Equal(t, "New User", result["full_name"])
				assert.Equal(t, true, result["is_active"])
				assert.Equal(t, false, result["is_admin"])
				assert.NotContains(t, result, "password_hash")
				assert.NotContains(t, result, "password")
			},
		},
		{
			name: "full name is optional",
			request: map[string]any{
				"email":    "nameless@example.com",
				"password": "password123",
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "invalid email",
			request: map[string]any{
				"email":    "not-an-email",
				"password": "password123",
			},
			expectedStatus: http.StatusUnprocessableEntity,
			checkResponse: func(t *testing.T, resp *http.Response) {
				body := testutil.AssertErrorResponse(t, resp, http.StatusUnprocessableEntity, "Validation failed")
				assert.Equal(t, "email", body.Errors["email"])
			},
		},
		{
			name: "long passphrase",
			request: map[string]any{
				"email":    "passphrase@example.com",
				"password": strings.Repeat("x", 200),
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "short password",
			request: map[string]any{
				"email":    "short@example.com",
				"password": "short",
			},
			expectedStatus: http.StatusUnprocessableEntity,
			checkResponse: func(t *testing.T, resp *http.Response) {
				body := testutil.AssertErrorResponse(t, resp, http.StatusUnprocessableEntity, "Validation failed")
				assert.Equal(t, "min", body.Errors["password"])
			},
		},
		{
			name: "duplicate email ignores case",
			request: map[string]any{
				"email":    "EXISTING@example.com",
				"password": "password123",
			},
			setup: func() {
				testutil.NewUserBuilder().
					WithEmail("existing@example.com").
					Build(t, ts.Repos)
			},
			expectedStatus: http.StatusConflict,
			checkResponse: func(t *testing.T, resp *http.Response) {
				testutil.AssertErrorResponse(t, resp, http.StatusConflict, "User with email existing@example.com already exists")
			},
		},
		{
			name:           "empty request body",
			request:        map[string]any{},
			expectedStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts.DB.Truncate(t)

			if tt.setup != nil {
				tt.setup()
			}

			resp := testutil.Do(t, http.MethodPost, ts.APIURL("/auth/register"), "", tt.request)
			testutil.AssertStatusCode(t, resp, tt.expectedStatus)

			if tt.checkResponse != nil {
				tt.checkResponse(t, resp)
			}
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	ts := testutil.NewTestServer(t)

	t.Run("successful login", func(t *testing.T) {
		ts.DB.Truncate(t)
		user, password := testutil.NewUserBuilder().Build(t, ts.Repos)

		resp := postForm(t, ts.APIURL("/auth/login"), url.Values{
			"username": {user.Email},
			"password": {password},
		})

		var pair domain.TokenPair
		testutil.AssertJSONResponse(t, resp, http.StatusOK, &pair)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
		assert.Equal(t, "bearer", pair.TokenType)
	})

	t.Run("email is matched case-insensitively", func(t *testing.T) {
		ts.DB.Truncate(t)
		testutil.NewUserBuilder().WithEmail("mixed@example.com").Build(t, ts.Repos)

		resp := postForm(t, ts.APIURL("/auth/login"), url.Values{
			"username": {"MIXED@example.com"},
			"password": {testutil.DefaultPassword},
		})
		testutil.AssertStatusCode(t, resp, http.StatusOK)
	})

	t.Run("wrong password", func(t *testing.T) {
		ts.DB.Truncate(t)
		user, _ := testutil.NewUserBuilder().Build(t, ts.Repos)

		resp := postForm(t, ts.APIURL("/auth/login"), url.Values{
			"username": {user.Email},
			"password": {"wrongpassword"},
		})
		testutil.AssertUnauthorized(t, resp, "Incorrect email or password")
	})

	t.Run("unknown email looks like wrong password", func(t *testing.T) {
		ts.DB.Truncate(t)

		resp := postForm(t, ts.APIURL("/auth/login"), url.Values{
			"username": {"nobody@example.com"},
			"password": {"password123"},
		})
		testutil.AssertUnauthorized(t, resp, "Incorrect email or password")
	})

	t.Run("inactive user", func(t *testing.T) {
		ts.DB.Truncate(t)
		user, password := testutil.NewUserBuilder().Inactive().Build(t, ts.Repos)

		resp := postForm(t, ts.APIURL("/auth/login"), url.Values{
			"username": {user.Email},
			"password": {password},
		})
		testutil.AssertUnauthorized(t, resp, "User is inactive")
	})

	t.Run("missing fields", func(t *testing.T) {
		resp := postForm(t, ts.APIURL("/auth/login"), url.Values{})
		body := testutil.AssertErrorResponse(t, resp, http.StatusUnprocessableEntity, "Validation failed")
		assert.Equal(t, "required", body.Errors["username"])
		assert.Equal(t, "required", body.Errors["password"])
	})
}

func TestAuthHandler_Refresh(t *testing.T) {
	ts := testutil.NewTestServer(t)

	t.Run("refresh token yields a new pair", func(t *testing.T) {
		ts.DB.Truncate(t)
		_, pair := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

		resp := testutil.Do(t, http.MethodPost, ts.APIURL("/auth/refresh"), "", map[string]string{
			"refresh_token": pair.RefreshToken,
		})

		var refreshed domain.TokenPair
		testutil.AssertJSONResponse(t, resp, http.StatusOK, &refreshed)
		assert.NotEmpty(t, refreshed.AccessToken)
		assert.NotEqual(t, pair.AccessToken, refreshed.AccessToken)

		// The new access token works.
		me := testutil.Do(t, http.MethodGet, ts.APIURL("/users/me"), refreshed.AccessToken, nil)
		testutil.AssertStatusCode(t, me, http.StatusOK)
	})

	t.Run("access token is rejected", func(t *testing.T) {
		ts.DB.Truncate(t)
		_, pair := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

		resp := testutil.Do(t, http.MethodPost, ts.APIURL("/auth/refresh"), "", map[string]string{
			"refresh_token": pair.AccessToken,
		})
		testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "Invalid token type")
	})

	t.Run("garbage token", func(t *testing.T) {
		resp := testutil.Do(t, http.MethodPost, ts.APIURL("/auth/refresh"), "", map[string]string{
			"refresh_token": "not-a-token",
		})
		testutil.AssertUnauthorized(t, resp, "Invalid refresh token")
	})

	t.Run("deleted user", func(t *testing.T) {
		ts.DB.Truncate(t)
		user, pair := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
		require.NoError(t, ts.Repos.User.Delete(t.Context(), user.ID))

		resp := testutil.Do(t, http.MethodPost, ts.APIURL("/auth/refresh"), "", map[string]string{
			"refresh_token": pair.RefreshToken,
		})
		testutil.AssertUnauthorized(t, resp, "User not found")
	})

	t.Run("missing token", func(t *testing.T) {
		resp := testutil.Do(t, http.MethodPost, ts.APIURL("/auth/refresh"), "", map[string]string{})
		testutil.AssertStatusCode(t, resp, http.StatusUnprocessableEntity)
	})
}
