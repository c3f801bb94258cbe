package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/famtree/internal/domain"
	"github.com/ersonp/famtree/internal/domain/entities"
	"github.com/ersonp/famtree/internal/infrastructure/config"
)

const caseDetailJSON = `{
	"id": 7, "title": "山田家", "description": null, "status": "in_progress", "user_id": 1,
	"created_at": "2024-03-01T09:30:00.123456", "updated_at": "2024-03-02T10:00:00",
	"persons": [
		{"id": 1, "case_id": 7, "name": "太郎", "is_alive": false, "death_date": "2023-01-15T00:00:00",
		 "birth_date": null, "gender": "male", "is_decedent": true, "is_spouse": false,
		 "created_at": "2024-03-01T09:30:00", "updated_at": "2024-03-01T09:30:00"},
		{"id": 2, "case_id": 7, "name": "一郎", "is_alive": true, "is_decedent": false, "is_spouse": false,
		 "created_at": "2024-03-01T09:31:00Z", "updated_at": "2024-03-01T09:31:00Z"}
	],
	"relationships": [
		{"id": 3, "case_id": 7, "from_person_id": 2, "to_person_id": 1, "relationship_type": "child_of",
		 "is_biological": true, "created_at": "2024-03-01T09:32:00", "updated_at": "2024-03-01T09:32:00"}
	]
}`

type recordedRequest struct {
	method string
	path   string
	header http.Header
	body   []byte
}

// newTestServer serves a fixed status and body and records the last request.
func newTestServer(t *testing.T, status int, body string) (*Client, *recordedRequest) {
	t.Helper()
	rec := &recordedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.header = r.Header.Clone()
		rec.body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	logger, _ := test.NewNullLogger()
	client := NewClient(config.APIConfig{BaseURL: srv.URL + "/", Token: "tok", Timeout: 5 * time.Second}, logger)
	return client, rec
}

func TestClient_GetCase(t *testing.T) {
	client, rec := newTestServer(t, http.StatusOK, caseDetailJSON)

	detail, err := client.GetCase(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, rec.method)
	assert.Equal(t, "/api/cases/7", rec.path)
	assert.Equal(t, "Bearer tok", rec.header.Get("Authorization"))
	assert.NotEmpty(t, rec.header.Get(RequestIDHeader))

	assert.Equal(t, "山田家", detail.Title)
	assert.Nil(t, detail.Description)
	assert.Equal(t, entities.CaseStatusInProgress, detail.Status)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 30, 0, 123456000, time.UTC), detail.CreatedAt)

	require.Len(t, detail.Persons, 2)
	taro := detail.Persons[0]
	assert.True(t, taro.IsDecedent)
	require.NotNil(t, taro.DeathDate)
	assert.Equal(t, time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC), *taro.DeathDate)
	assert.Nil(t, taro.BirthDate)
	require.NotNil(t, taro.Gender)
	assert.Equal(t, "male", *taro.Gender)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 31, 0, 0, time.UTC), detail.Persons[1].CreatedAt.UTC())

	require.Len(t, detail.Relationships, 1)
	rel := detail.Relationships[0]
	assert.Equal(t, entities.RelationChildOf, rel.Type)
	require.NotNil(t, rel.IsBiological)
	assert.True(t, *rel.IsBiological)
}

func TestClient_Paths(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name   string
		method string
		path   string
		call   func(c *Client) error
	}{
		{"list cases", http.MethodGet, "/api/cases/", func(c *Client) error { _, err := c.ListCases(ctx); return err }},
		{"create case", http.MethodPost, "/api/cases/", func(c *Client) error {
			_, err := c.CreateCase(ctx, entities.CreateCaseData{Title: "t"})
			return err
		}},
		{"update case", http.MethodPatch, "/api/cases/4", func(c *Client) error {
			_, err := c.UpdateCase(ctx, 4, entities.UpdateCaseData{})
			return err
		}},
		{"delete case", http.MethodDelete, "/api/cases/4", func(c *Client) error { return c.DeleteCase(ctx, 4) }},
		{"create person", http.MethodPost, "/api/cases/4/persons", func(c *Client) error {
			_, err := c.CreatePerson(ctx, 4, entities.NewPersonTemplate())
			return err
		}},
		{"update person", http.MethodPatch, "/api/cases/4/persons/9", func(c *Client) error {
			_, err := c.UpdatePerson(ctx, 4, 9, entities.UpdatePersonData{})
			return err
		}},
		{"delete person", http.MethodDelete, "/api/cases/4/persons/9", func(c *Client) error { return c.DeletePerson(ctx, 4, 9) }},
		{"create relationship", http.MethodPost, "/api/cases/4/relationships", func(c *Client) error {
			_, err := c.CreateRelationship(ctx, 4, entities.CreateRelationshipData{FromPersonID: 1, ToPersonID: 2, Type: entities.RelationChildOf})
			return err
		}},
		{"delete relationship", http.MethodDelete, "/api/cases/4/relationships/11", func(c *Client) error { return c.DeleteRelationship(ctx, 4, 11) }},
		{"calculate", http.MethodPost, "/api/cases/4/calculate", func(c *Client) error {
			_, err := c.CalculateInheritance(ctx, 4)
			return err
		}},
		{"text tree", http.MethodGet, "/api/cases/4/ascii-tree", func(c *Client) error { _, err := c.TextTree(ctx, 4); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := "{}"
			if tt.name == "list cases" {
				body = "[]"
			}
			client, rec := newTestServer(t, http.StatusOK, body)

			require.NoError(t, tt.call(client))
			assert.Equal(t, tt.method, rec.method)
			assert.Equal(t, tt.path, rec.path)
		})
	}
}

func TestClient_CreatePersonBody(t *testing.T) {
	client, rec := newTestServer(t, http.StatusCreated, `{"id": 5, "case_id": 4, "name": "新しい人物", "is_alive": true,
		"is_decedent": false, "is_spouse": false, "created_at": "2024-03-01T09:30:00", "updated_at": "2024-03-01T09:30:00"}`)

	person, err := client.CreatePerson(context.Background(), 4, entities.NewPersonTemplate())
	require.NoError(t, err)
	assert.Equal(t, int64(5), person.ID)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(rec.body, &sent))
	assert.Equal(t, map[string]any{
		"name":        "新しい人物",
		"is_alive":    true,
		"is_decedent": false,
		"is_spouse":   false,
	}, sent)
	assert.Equal(t, "application/json", rec.header.Get("Content-Type"))
}

func TestClient_TextTree(t *testing.T) {
	client, _ := newTestServer(t, http.StatusOK, `{"ascii_tree": "太郎\n└─ 一郎"}`)

	tree, err := client.TextTree(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "太郎\n└─ 一郎", tree)
}

func TestClient_Calculate(t *testing.T) {
	client, _ := newTestServer(t, http.StatusOK, `{
		"decedent": {"id": "1", "name": "太郎"},
		"heirs": [{"id": "2", "name": "一郎", "relationship": "子", "rank": 1,
			"share_numerator": 1, "share_denominator": 1, "share_decimal": 1.0, "share_percentage": 100.0}],
		"has_spouse": false, "has_children": true, "calculation_basis": ["民法887条"]
	}`)

	result, err := client.CalculateInheritance(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "太郎", result.Decedent.Name)
	require.Len(t, result.Heirs, 1)
	assert.Equal(t, 1, result.Heirs[0].Rank)
	assert.True(t, result.HasChildren)
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		sentinel   error
		wantKind   domain.ErrorKind
		wantDetail string
	}{
		{"not found", 404, `{"detail": "Case not found"}`, domain.ErrNotFound, domain.KindNotFound, "Case not found"},
		{"unauthorized", 401, `{"detail": "Not authenticated"}`, domain.ErrUnauthorized, domain.KindUnauthorized, "Not authenticated"},
		{"forbidden", 403, `{}`, domain.ErrUnauthorized, domain.KindUnauthorized, ""},
		{
			"validation list", 422,
			`{"detail": [{"loc": ["body", "name"], "msg": "field required", "type": "value_error.missing"},
				{"loc": ["body", "status"], "msg": "value is not a valid enumeration member", "type": "type_error.enum"}]}`,
			domain.ErrValidation, domain.KindValidation, "field required; value is not a valid enumeration member",
		},
		{"bad request", 400, `{"detail": "No decedent (被相続人) specified in this case"}`, domain.ErrValidation, domain.KindValidation, "No decedent (被相続人) specified in this case"},
		{"server error", 500, `Internal Server Error`, nil, domain.KindServer, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestServer(t, tt.status, tt.body)

			_, err := client.GetCase(context.Background(), 1)
			require.Error(t, err)

			var gerr *domain.GatewayError
			require.True(t, errors.As(err, &gerr))
			assert.Equal(t, tt.wantKind, gerr.Kind)
			assert.Equal(t, tt.status, gerr.Status)
			assert.Equal(t, tt.wantDetail, gerr.Detail)
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			}
		})
	}
}

func TestKindForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   domain.ErrorKind
	}{
		{http.StatusBadRequest, domain.KindValidation},
		{http.StatusUnauthorized, domain.KindUnauthorized},
		{http.StatusForbidden, domain.KindUnauthorized},
		{http.StatusNotFound, domain.KindNotFound},
		{http.StatusConflict, domain.KindValidation},
		{http.StatusUnprocessableEntity, domain.KindValidation},
		{http.StatusInternalServerError, domain.KindServer},
		{http.StatusBadGateway, domain.KindServer},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, kindForStatus(tt.status))
		})
	}
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	logger, _ := test.NewNullLogger()
	client := NewClient(config.APIConfig{BaseURL: url}, logger)

	_, err := client.ListCases(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.Equal(t, "fallback", domain.UserMessage(err, "fallback"))
}

func TestClient_ContextCanceled(t *testing.T) {
	client, _ := newTestServer(t, http.StatusOK, "[]")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ListCases(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestClient_MalformedResponse(t *testing.T) {
	client, _ := newTestServer(t, http.StatusOK, `{"id": "seven"}`)

	_, err := client.GetCase(context.Background(), 7)
	require.Error(t, err)

	var gerr *domain.GatewayError
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, domain.KindServer, gerr.Kind)
}

func TestClient_NoTokenNoAuthHeader(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewClient(config.APIConfig{BaseURL: srv.URL}, nil, WithHTTPClient(srv.Client()))
	require.NoError(t, client.DeleteCase(context.Background(), 1))
	assert.Empty(t, got)
}

func TestTimestamp_Unmarshal(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
		ok    bool
	}{
		{`"2024-03-01T09:30:00Z"`, time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC), true},
		{`"2024-03-01T09:30:00"`, time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC), true},
		{`"2024-03-01"`, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), true},
		{`null`, time.Time{}, true},
		{`"yesterday"`, time.Time{}, false},
		{`12`, time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var ts timestamp
			err := json.Unmarshal([]byte(tt.input), &ts)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(ts.Time))
		})
	}
}
