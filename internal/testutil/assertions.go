package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ErrorBody matches the API error envelope
type ErrorBody struct {
	Detail string            `json:"detail"`
	Errors map[string]string `json:"errors,omitempty"`
}

// AssertStatusCode verifies the HTTP response status code
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	assert.Equal(t, expected, resp.StatusCode, "unexpected status code")
}

// AssertJSONResponse verifies the status and decodes the JSON body into v
func AssertJSONResponse(t *testing.T, resp *http.Response, expectedStatus int, v any) {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")
	require.Equal(t, expectedStatus, resp.StatusCode, "unexpected status code: %s", string(body))

	err = json.Unmarshal(body, v)
	require.NoError(t, err, "failed to unmarshal response: %s", string(body))
}

// AssertErrorResponse verifies the status and the detail message of an
// error response, returning the decoded body for further checks
func AssertErrorResponse(t *testing.T, resp *http.Response, expectedStatus int, expectedDetail string) ErrorBody {
	t.Helper()

	var body ErrorBody
	AssertJSONResponse(t, resp, expectedStatus, &body)
	if expectedDetail != "" {
		assert.Equal(t, expectedDetail, body.Detail, "error detail mismatch")
	}
	return body
}

// AssertUnauthorized verifies a 401 carrying the bearer challenge
func AssertUnauthorized(t *testing.T, resp *http.Response, expectedDetail string) {
	t.Helper()
	assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
	AssertErrorResponse(t, resp, http.StatusUnauthorized, expectedDetail)
}
