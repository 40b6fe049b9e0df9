package mcptools

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inovexcorp/mobi-mcp/internal/adapter/outbound/mobi"
	"github.com/inovexcorp/mobi-mcp/internal/domain"
)

// fakeClient records the parameters of the last call and returns canned
// results.
type fakeClient struct {
	result any
	err    error

	listRecordsParams  *mobi.ListRecordsParams
	entitySearchParams *mobi.EntitySearchParams
	createParams       *mobi.CreateOntologyParams
	updateParams       *mobi.UpdateOntologyParams
	branchParams       *mobi.CreateBranchParams
	gotRecordID        string
	gotCatalogID       string
}

func (f *fakeClient) GetRecord(_ context.Context, recordID, catalogID string) (any, error) {
	f.gotRecordID, f.gotCatalogID = recordID, catalogID
	return f.result, f.err
}

func (f *fakeClient) GetOntologyData(_ context.Context, recordID string) (any, error) {
	f.gotRecordID = recordID
	return f.result, f.err
}

func (f *fakeClient) EntitySearch(_ context.Context, p mobi.EntitySearchParams) (any, error) {
	f.entitySearchParams = &p
	return f.result, f.err
}

func (f *fakeClient) ListRecords(_ context.Context, p mobi.ListRecordsParams) (any, error) {
	f.listRecordsParams = &p
	return f.result, f.err
}

func (f *fakeClient) GetRecordBranches(_ context.Context, recordIRI, catalogIRI string, offset, limit int) (any, error) {
	f.gotRecordID, f.gotCatalogID = recordIRI, catalogIRI
	return f.result, f.err
}

func (f *fakeClient) CreateBranch(_ context.Context, p mobi.CreateBranchParams) (any, error) {
	f.branchParams = &p
	return f.result, f.err
}

func (f *fakeClient) GetShapesGraph(_ context.Context, p mobi.ShapesGraphParams) (any, error) {
	return f.result, f.err
}

func (f *fakeClient) CreateOntology(_ context.Context, p mobi.CreateOntologyParams) (any, error) {
	f.createParams = &p
	return f.result, f.err
}

func (f *fakeClient) UpdateOntology(_ context.Context, p mobi.UpdateOntologyParams) (any, error) {
	f.updateParams = &p
	return f.result, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func TestRegister_AddsAllTools(t *testing.T) {
	s := server.NewMCPServer("test", "0.0.0")
	// Registration must not panic and must accept the full tool set.
	Register(s, &fakeClient{}, testLogger())
}

func TestRecordSearchHandler_ForwardsArguments(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	fake := &fakeClient{result: map[string]any{"records": []any{}}}
	handler := recordSearchHandler(fake, testLogger())

	res, err := handler(context.Background(), callRequest("record_search", map[string]any{
		"offset":      float64(5),
		"limit":       float64(10),
		"search_text": "pizza",
		"keywords":    []any{"food"},
		"types":       []any{domain.RecordTypes[0]},
	}))
	require.NoError(err)
	assert.False(res.IsError)
	assert.Contains(resultText(t, res), "records")

	require.NotNil(fake.listRecordsParams)
	assert.Equal(5, fake.listRecordsParams.Offset)
	assert.Equal(10, fake.listRecordsParams.Limit)
	assert.Equal("pizza", fake.listRecordsParams.SearchText)
	assert.Equal([]string{"food"}, fake.listRecordsParams.Keywords)
	assert.Equal([]string{domain.RecordTypes[0]}, fake.listRecordsParams.Types)
}

func TestRecordSearchHandler_Defaults(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	fake := &fakeClient{result: map[string]any{}}
	handler := recordSearchHandler(fake, testLogger())

	_, err := handler(context.Background(), callRequest("record_search", map[string]any{}))
	require.NoError(err)

	require.NotNil(fake.listRecordsParams)
	assert.Equal(0, fake.listRecordsParams.Offset)
	assert.Equal(domain.DefaultPageSize, fake.listRecordsParams.Limit)
	assert.Empty(fake.listRecordsParams.Types)
}

func TestEntitySearchHandler_FixedSort(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	fake := &fakeClient{result: map[string]any{}}
	handler := entitySearchHandler(fake, testLogger())

	_, err := handler(context.Background(), callRequest("entity_search", map[string]any{
		"search_for": "water",
		"types":      []any{"http://example.org/UnknownType"},
	}))
	require.NoError(err)

	require.NotNil(fake.entitySearchParams)
	assert.Equal("water", fake.entitySearchParams.Query)
	assert.Equal("entityName", fake.entitySearchParams.Sort)
	assert.True(fake.entitySearchParams.Ascending)
	// Unknown types are forwarded, not rejected.
	assert.Equal([]string{"http://example.org/UnknownType"}, fake.entitySearchParams.Types)
}

func TestEntitySearchHandler_MissingQuery(t *testing.T) {
	fake := &fakeClient{result: map[string]any{}}
	handler := entitySearchHandler(fake, testLogger())

	res, err := handler(context.Background(), callRequest("entity_search", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Nil(t, fake.entitySearchParams, "client must not be called without a query")
}

func TestHandler_AbsentResultIsToolError(t *testing.T) {
	fake := &fakeClient{result: nil}
	handler := fetchOntologyDataHandler(fake)

	res, err := handler(context.Background(), callRequest("fetch_ontology_data", map[string]any{
		"ontology_iri": "https://mobi.com/records#r1",
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "https://mobi.com/records#r1", fake.gotRecordID)
}

func TestCreateOntologyHandler_ForwardsMetadata(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	fake := &fakeClient{result: map[string]any{"recordId": "x"}}
	handler := createOntologyHandler(fake)

	res, err := handler(context.Background(), callRequest("create_ontology_record", map[string]any{
		"document":             `{"@id":"http://example.org/s"}`,
		"title":                "My Ontology",
		"description":          "about things",
		"markdown_description": "# heading",
		"keywords":             []any{"k1", "k2"},
	}))
	require.NoError(err)
	assert.False(res.IsError)

	require.NotNil(fake.createParams)
	assert.Equal("jsonld", fake.createParams.SourceFormat, "format defaults to jsonld")
	assert.Equal("My Ontology", fake.createParams.Title)
	assert.Equal("# heading", fake.createParams.Markdown)
	assert.Equal([]string{"k1", "k2"}, fake.createParams.Keywords)
}

func TestCreateOntologyHandler_UploadErrorIsToolError(t *testing.T) {
	fake := &fakeClient{err: &mobi.UploadError{StatusCode: 400, Reason: "Bad Request", Body: "nope"}}
	handler := createOntologyHandler(fake)

	res, err := handler(context.Background(), callRequest("create_ontology_record", map[string]any{
		"document":    "doc",
		"title":       "t",
		"description": "d",
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "400")
}

func TestUpdateOntologyHandler_RequiresSelectors(t *testing.T) {
	fake := &fakeClient{result: map[string]any{}}
	handler := updateOntologyHandler(fake)

	res, err := handler(context.Background(), callRequest("update_ontology_record", map[string]any{
		"record_iri": "https://mobi.com/records#r1",
		"document":   "doc",
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Nil(t, fake.updateParams)
}

func TestCreateBranchHandler_Defaults(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	fake := &fakeClient{result: map[string]any{}}
	handler := createBranchHandler(fake)

	_, err := handler(context.Background(), callRequest("create_branch", map[string]any{
		"record_id":   "https://mobi.com/records#r1",
		"title":       "feature",
		"description": "d",
		"commit_iri":  "https://mobi.com/commits#c1",
	}))
	require.NoError(err)

	require.NotNil(fake.branchParams)
	// Empty catalog and branch type fall through to the client defaults.
	assert.Empty(fake.branchParams.CatalogID)
	assert.Empty(fake.branchParams.BranchType)
	assert.Equal("feature", fake.branchParams.Title)
}

func TestStringSlice(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
		want []string
	}{
		{name: "absent", args: map[string]any{}, want: nil},
		{name: "nil value", args: map[string]any{"k": nil}, want: nil},
		{name: "any slice", args: map[string]any{"k": []any{"a", "b"}}, want: []string{"a", "b"}},
		{name: "string slice", args: map[string]any{"k": []string{"a"}}, want: []string{"a"}},
		{name: "mixed elements keep strings", args: map[string]any{"k": []any{"a", 1, "b"}}, want: []string{"a", "b"}},
		{name: "wrong type", args: map[string]any{"k": "a"}, want: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := callRequest("record_search", tc.args)
			assert.Equal(t, tc.want, stringSlice(req, "k"))
		})
	}
}
