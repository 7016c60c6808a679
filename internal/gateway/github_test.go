package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beam-community/org-site-data/internal/metrics"
)

func discardLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// setupTestGateway creates a GitHubGateway that communicates with a mock HTTP server.
func setupTestGateway(t *testing.T, token string, handler http.Handler) (*GitHubGateway, *metrics.Metrics) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	m := metrics.New()
	gateway, err := NewGitHubGateway(GitHubOptions{
		Token:      token,
		BaseURL:    server.URL,
		GraphQLURL: server.URL + "/graphql",
	}, discardLogger(), m)
	require.NoError(t, err)
	return gateway, m
}

func TestGitHubGateway_ListOrgRepos(t *testing.T) {
	testCases := []struct {
		name           string
		handlerFunc    func(t *testing.T) http.HandlerFunc
		expectedNames  []string
		expectError    bool
		expectedErrMsg string
	}{
		{
			name: "happy path - requests one page sorted by stars",
			handlerFunc: func(t *testing.T) http.HandlerFunc {
				return func(w http.ResponseWriter, r *http.Request) {
					assert.Equal(t, "/orgs/any-org/repos", r.URL.Path)
					assert.Equal(t, "100", r.URL.Query().Get("per_page"))
					assert.Equal(t, "stars", r.URL.Query().Get("sort"))
					assert.Equal(t, "desc", r.URL.Query().Get("direction"))
					w.WriteHeader(http.StatusOK)
					fmt.Fprint(w, `[{"name":"bamboo","stargazers_count":10},{"name":"ex_machina","stargazers_count":5,"archived":true}]`)
				}
			},
			expectedNames: []string{"bamboo", "ex_machina"},
		},
		{
			name: "error case - server error",
			handlerFunc: func(t *testing.T) http.HandlerFunc {
				return func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusInternalServerError)
					fmt.Fprint(w, `{"message": "Internal Server Error"}`)
				}
			},
			expectError:    true,
			expectedErrMsg: "failed to list repositories with REST API",
		},
		{
			name:           "error case - empty body",
			handlerFunc:    staticBody(""),
			expectError:    true,
			expectedErrMsg: "malformed payload: not a list",
		},
		{
			name:           "error case - null body",
			handlerFunc:    staticBody("null"),
			expectError:    true,
			expectedErrMsg: "malformed payload: not a list",
		},
		{
			name:           "error case - null entry",
			handlerFunc:    staticBody(`[{"name":"bamboo"},null]`),
			expectError:    true,
			expectedErrMsg: "malformed payload: null entry at index 1",
		},
		{
			name: "error case - malformed payload",
			handlerFunc: func(t *testing.T) http.HandlerFunc {
				return func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusOK)
					fmt.Fprint(w, `{"repos": "not a list"}`)
				}
			},
			expectError:    true,
			expectedErrMsg: "failed to list repositories with REST API",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gateway, m := setupTestGateway(t, "", tc.handlerFunc(t))
			repos, err := gateway.ListOrgRepos(context.Background(), "any-org")
			if tc.expectError {
				assert.Error(t, err)
				assert.Nil(t, repos)
				assert.Contains(t, err.Error(), tc.expectedErrMsg)
				assert.Equal(t, 1, testutilCount(m, metrics.EndpointRepos, metrics.OutcomeError))
				return
			}
			require.NoError(t, err)
			names := make([]string, 0, len(repos))
			for _, r := range repos {
				names = append(names, r.GetName())
			}
			assert.Equal(t, tc.expectedNames, names)
			assert.True(t, repos[1].GetArchived())
			assert.Equal(t, 1, testutilCount(m, metrics.EndpointRepos, metrics.OutcomeSuccess))
		})
	}
}

// staticBody answers every request with 200 and the given body.
func staticBody(body string) func(t *testing.T) http.HandlerFunc {
	return func(t *testing.T) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, body)
		}
	}
}

func TestGitHubGateway_ListOrgRepos_EmptyListIsValid(t *testing.T) {
	gateway, _ := setupTestGateway(t, "", http.HandlerFunc(staticBody("[]")(t)))
	repos, err := gateway.ListOrgRepos(context.Background(), "any-org")
	require.NoError(t, err)
	assert.NotNil(t, repos)
	assert.Empty(t, repos)
}

func TestGitHubGateway_SendsBearerToken(t *testing.T) {
	var gotAuth string
	gateway, _ := setupTestGateway(t, "secret-token", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `[]`)
	}))
	_, err := gateway.ListOrgRepos(context.Background(), "any-org")
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret-token", gotAuth)
}

func TestGitHubGateway_AnonymousWithoutToken(t *testing.T) {
	var gotAuth string
	gateway, _ := setupTestGateway(t, "", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `[]`)
	}))
	repos, err := gateway.ListOrgRepos(context.Background(), "any-org")
	require.NoError(t, err)
	assert.Empty(t, repos)
	assert.Empty(t, gotAuth)
}

func TestGitHubGateway_ListOrgMembers(t *testing.T) {
	testCases := []struct {
		name        string
		status      int
		body        string
		expected    int
		expectError bool
	}{
		{
			name:     "happy path - counts members",
			status:   http.StatusOK,
			body:     `[{"login":"a"},{"login":"b"},{"login":"c"}]`,
			expected: 3,
		},
		{
			name:        "error case - forbidden",
			status:      http.StatusForbidden,
			body:        `{"message":"Must have admin rights"}`,
			expectError: true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gateway, _ := setupTestGateway(t, "", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/orgs/any-org/members", r.URL.Path)
				w.WriteHeader(tc.status)
				fmt.Fprint(w, tc.body)
			}))
			count, err := gateway.ListOrgMembers(context.Background(), "any-org")
			if tc.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "failed to list members with REST API")
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, count)
		})
	}
}

func TestGitHubGateway_CountOrgMembers(t *testing.T) {
	testCases := []struct {
		name           string
		token          string
		responseBody   string
		expected       int
		expectedErr    error
		expectedErrMsg string
	}{
		{
			name:         "happy path - reads total count",
			token:        "t",
			responseBody: `{"data":{"organization":{"membersWithRole":{"totalCount":42}}}}`,
			expected:     42,
		},
		{
			name:           "error case - graphql errors",
			token:          "t",
			responseBody:   `{"errors":[{"message":"Could not resolve to an Organization"}]}`,
			expectedErrMsg: "failed to execute GraphQL query for members",
		},
		{
			name:        "error case - no token",
			expectedErr: ErrTokenRequired,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := func(w http.ResponseWriter, r *http.Request) {
				body, err := io.ReadAll(r.Body)
				require.NoError(t, err)
				assert.Equal(t, "/graphql", r.URL.Path)
				assert.Contains(t, string(body), "membersWithRole")
				w.WriteHeader(http.StatusOK)
				fmt.Fprint(w, tc.responseBody)
			}
			gateway, _ := setupTestGateway(t, tc.token, http.HandlerFunc(handler))

			count, err := gateway.CountOrgMembers(context.Background(), "any-org")
			switch {
			case tc.expectedErr != nil:
				assert.ErrorIs(t, err, tc.expectedErr)
			case tc.expectedErrMsg != "":
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectedErrMsg)
			default:
				assert.NoError(t, err)
				assert.Equal(t, tc.expected, count)
			}
		})
	}
}
