// Package mcptools registers the Mobi catalog operations as MCP tools.
// Handlers validate and coerce arguments, forward them to the catalog
// client and render its uniform result as a tool result.
package mcptools

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/inovexcorp/mobi-mcp/internal/adapter/outbound/mobi"
	"github.com/inovexcorp/mobi-mcp/internal/domain"
)

// CatalogClient is the client surface the tool handlers need.
type CatalogClient interface {
	GetRecord(ctx context.Context, recordID, catalogID string) (any, error)
	GetOntologyData(ctx context.Context, recordID string) (any, error)
	EntitySearch(ctx context.Context, p mobi.EntitySearchParams) (any, error)
	ListRecords(ctx context.Context, p mobi.ListRecordsParams) (any, error)
	GetRecordBranches(ctx context.Context, recordIRI, catalogIRI string, offset, limit int) (any, error)
	CreateBranch(ctx context.Context, p mobi.CreateBranchParams) (any, error)
	GetShapesGraph(ctx context.Context, p mobi.ShapesGraphParams) (any, error)
	CreateOntology(ctx context.Context, p mobi.CreateOntologyParams) (any, error)
	UpdateOntology(ctx context.Context, p mobi.UpdateOntologyParams) (any, error)
}

var recordTypeHint = "Valid types are: " + strings.Join(domain.RecordTypes, ", ")

// Register adds every catalog tool to the MCP server.
func Register(s *server.MCPServer, client CatalogClient, logger *slog.Logger) {
	log := logger.With("component", "mcp_tools")

	s.AddTool(
		mcp.NewTool("record_search",
			mcp.WithDescription("Search the Mobi catalog for records matching the provided criteria."),
			mcp.WithNumber("offset", mcp.Description("Pagination offset, default 0")),
			mcp.WithNumber("limit", mcp.Description("Maximum number of records to return, default 100")),
			mcp.WithString("search_text", mcp.Description("Text to search for in record metadata")),
			mcp.WithArray("keywords", mcp.Description("Keywords to filter records by"), mcp.Items(map[string]any{"type": "string"})),
			mcp.WithArray("types", mcp.Description("Record type IRIs to filter by. "+recordTypeHint), mcp.Items(map[string]any{"type": "string"})),
		),
		recordSearchHandler(client, log),
	)

	s.AddTool(
		mcp.NewTool("entity_search",
			mcp.WithDescription("Search the Mobi catalog for records whose entity metadata contain the provided string."),
			mcp.WithString("search_for", mcp.Required(), mcp.Description("Substring to search for within entity metadata")),
			mcp.WithNumber("offset", mcp.Description("Pagination offset, default 0")),
			mcp.WithNumber("limit", mcp.Description("Maximum number of entities to return, default 100")),
			mcp.WithArray("types", mcp.Description("Entity type IRIs to filter by. "+recordTypeHint), mcp.Items(map[string]any{"type": "string"})),
			mcp.WithArray("keywords", mcp.Description("Keywords to filter entities by"), mcp.Items(map[string]any{"type": "string"})),
		),
		entitySearchHandler(client, log),
	)

	s.AddTool(
		mcp.NewTool("fetch_ontology_data",
			mcp.WithDescription("Fetch ontology data for a given ontology record IRI (the IRI of the record containing the ontology, not the ontology IRI itself)."),
			mcp.WithString("ontology_iri", mcp.Required(), mcp.Description("IRI of the record containing the ontology data")),
		),
		fetchOntologyDataHandler(client),
	)

	s.AddTool(
		mcp.NewTool("get_record",
			mcp.WithDescription("Retrieve a single catalog record by its IRI."),
			mcp.WithString("record_id", mcp.Required(), mcp.Description("IRI of the record to retrieve")),
			mcp.WithString("catalog_id", mcp.Description("IRI of the catalog, default "+domain.DefaultCatalog)),
		),
		getRecordHandler(client),
	)

	s.AddTool(
		mcp.NewTool("list_record_branches",
			mcp.WithDescription("List the branches of a versioned record, sorted by title ascending."),
			mcp.WithString("record_iri", mcp.Required(), mcp.Description("IRI of the record")),
			mcp.WithString("catalog_iri", mcp.Description("IRI of the catalog, default "+domain.DefaultCatalog)),
			mcp.WithNumber("offset", mcp.Description("Pagination offset, default 0")),
			mcp.WithNumber("limit", mcp.Description("Maximum number of branches to return, default 100")),
		),
		listRecordBranchesHandler(client),
	)

	s.AddTool(
		mcp.NewTool("create_branch",
			mcp.WithDescription("Create a branch on a versioned record, anchored at an existing commit."),
			mcp.WithString("record_id", mcp.Required(), mcp.Description("IRI of the record to branch")),
			mcp.WithString("title", mcp.Required(), mcp.Description("Title of the new branch")),
			mcp.WithString("description", mcp.Required(), mcp.Description("Description of the new branch")),
			mcp.WithString("commit_iri", mcp.Required(), mcp.Description("IRI of the commit the branch starts from")),
			mcp.WithString("catalog_id", mcp.Description("IRI of the catalog, default "+domain.DefaultCatalog)),
			mcp.WithString("branch_type", mcp.Description("Branch type IRI, default "+domain.DefaultBranchType)),
		),
		createBranchHandler(client),
	)

	s.AddTool(
		mcp.NewTool("get_shapes_graph",
			mcp.WithDescription("Get the shapes graph for a given record."),
			mcp.WithString("record_id", mcp.Required(), mcp.Description("IRI of the shapes graph record")),
			mcp.WithString("branch_id", mcp.Description("Branch IRI to read from")),
			mcp.WithString("commit_id", mcp.Description("Commit IRI to read at")),
			mcp.WithString("rdf_format", mcp.Description("RDF serialization of the response, default turtle")),
		),
		getShapesGraphHandler(client),
	)

	s.AddTool(
		mcp.NewTool("create_ontology_record",
			mcp.WithDescription("Create an ontology record with the specified metadata and RDF content. The content is converted to Turtle before upload; supported source formats are turtle and jsonld."),
			mcp.WithString("document", mcp.Required(), mcp.Description("The RDF document for the ontology")),
			mcp.WithString("format", mcp.Description("Syntax of the document (turtle or jsonld), default jsonld")),
			mcp.WithString("title", mcp.Required(), mcp.Description("Title of the ontology record")),
			mcp.WithString("description", mcp.Required(), mcp.Description("Description of the ontology record")),
			mcp.WithString("markdown_description", mcp.Description("Optional markdown-formatted description")),
			mcp.WithArray("keywords", mcp.Description("Keywords for the ontology record"), mcp.Items(map[string]any{"type": "string"})),
		),
		createOntologyHandler(client),
	)

	s.AddTool(
		mcp.NewTool("update_ontology_record",
			mcp.WithDescription("Replace the content of an ontology record at a branch head with the provided RDF document."),
			mcp.WithString("record_iri", mcp.Required(), mcp.Description("IRI of the ontology record")),
			mcp.WithString("branch_iri", mcp.Required(), mcp.Description("IRI of the branch to update")),
			mcp.WithString("commit_iri", mcp.Required(), mcp.Description("IRI of the current head commit")),
			mcp.WithString("document", mcp.Required(), mcp.Description("The RDF document to upload")),
			mcp.WithString("format", mcp.Description("Syntax of the document (turtle or jsonld), default jsonld")),
		),
		updateOntologyHandler(client),
	)

	log.Info("Registered Mobi catalog tools.", slog.Int("count", 9))
}

func recordSearchHandler(client CatalogClient, log *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		types := stringSlice(req, "types")
		warnUnknownTypes(log, types)
		res, err := client.ListRecords(ctx, mobi.ListRecordsParams{
			Offset:     req.GetInt("offset", 0),
			Limit:      req.GetInt("limit", domain.DefaultPageSize),
			Keywords:   stringSlice(req, "keywords"),
			SearchText: req.GetString("search_text", ""),
			Types:      types,
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(res)
	}
}

func entitySearchHandler(client CatalogClient, log *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		searchFor, err := req.RequireString("search_for")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		types := stringSlice(req, "types")
		warnUnknownTypes(log, types)
		res, err := client.EntitySearch(ctx, mobi.EntitySearchParams{
			Query:     searchFor,
			Offset:    req.GetInt("offset", 0),
			Limit:     req.GetInt("limit", domain.DefaultPageSize),
			Sort:      "entityName",
			Ascending: true,
			Types:     types,
			Keywords:  stringSlice(req, "keywords"),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(res)
	}
}

func fetchOntologyDataHandler(client CatalogClient) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		iri, err := req.RequireString("ontology_iri")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		res, err := client.GetOntologyData(ctx, iri)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(res)
	}
}

func getRecordHandler(client CatalogClient) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		recordID, err := req.RequireString("record_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		res, err := client.GetRecord(ctx, recordID, req.GetString("catalog_id", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(res)
	}
}

func listRecordBranchesHandler(client CatalogClient) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		recordIRI, err := req.RequireString("record_iri")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		res, err := client.GetRecordBranches(ctx,
			recordIRI,
			req.GetString("catalog_iri", ""),
			req.GetInt("offset", 0),
			req.GetInt("limit", domain.DefaultPageSize),
		)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(res)
	}
}

func createBranchHandler(client CatalogClient) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		recordID, err := req.RequireString("record_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		title, err := req.RequireString("title")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		description, err := req.RequireString("description")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		commitIRI, err := req.RequireString("commit_iri")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		res, err := client.CreateBranch(ctx, mobi.CreateBranchParams{
			RecordID:    recordID,
			Title:       title,
			Description: description,
			CommitIRI:   commitIRI,
			CatalogID:   req.GetString("catalog_id", ""),
			BranchType:  req.GetString("branch_type", ""),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(res)
	}
}

func getShapesGraphHandler(client CatalogClient) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		recordID, err := req.RequireString("record_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		res, err := client.GetShapesGraph(ctx, mobi.ShapesGraphParams{
			RecordID:  recordID,
			BranchID:  req.GetString("branch_id", ""),
			CommitID:  req.GetString("commit_id", ""),
			RDFFormat: req.GetString("rdf_format", ""),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(res)
	}
}

func createOntologyHandler(client CatalogClient) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		document, err := req.RequireString("document")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		title, err := req.RequireString("title")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		description, err := req.RequireString("description")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		res, err := client.CreateOntology(ctx, mobi.CreateOntologyParams{
			Document:     document,
			SourceFormat: req.GetString("format", "jsonld"),
			Title:        title,
			Description:  description,
			Markdown:     req.GetString("markdown_description", ""),
			Keywords:     stringSlice(req, "keywords"),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(res)
	}
}

func updateOntologyHandler(client CatalogClient) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		recordIRI, err := req.RequireString("record_iri")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		branchIRI, err := req.RequireString("branch_iri")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		commitIRI, err := req.RequireString("commit_iri")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		document, err := req.RequireString("document")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		res, err := client.UpdateOntology(ctx, mobi.UpdateOntologyParams{
			RecordIRI:    recordIRI,
			BranchIRI:    branchIRI,
			CommitIRI:    commitIRI,
			Document:     document,
			SourceFormat: req.GetString("format", "jsonld"),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(res)
	}
}

// jsonResult renders a normalized client result. The nil sentinel (failed
// request or non-JSON response) becomes a tool error so the model can tell
// "nothing came back" from an empty success.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	if v == nil {
		return mcp.NewToolResultError("no data returned from Mobi (request failed or response was not JSON)"), nil
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

// stringSlice extracts an optional array-of-strings argument. Non-string
// elements are skipped.
func stringSlice(req mcp.CallToolRequest, key string) []string {
	raw, ok := req.GetArguments()[key]
	if !ok || raw == nil {
		return nil
	}
	switch vals := raw.(type) {
	case []string:
		return vals
	case []any:
		out := make([]string, 0, len(vals))
		for _, v := range vals {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// warnUnknownTypes logs type filters outside the known record vocabulary.
// They are still forwarded; the backend owns validation.
func warnUnknownTypes(log *slog.Logger, types []string) {
	for _, t := range types {
		if !domain.IsRecordType(t) {
			log.Warn("Unknown record type in filter, forwarding anyway.", slog.String("type", t))
		}
	}
}
