// Package mobi implements the REST client for a single Mobi instance. It
// builds the mobirest URLs, attaches basic auth on every call and folds
// every read-path response into a uniform result (see doJSON).
package mobi

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/inovexcorp/mobi-mcp/internal/domain"
)

// restContext is the fixed path prefix every Mobi REST endpoint lives under.
const restContext = "mobirest"

// Config holds the connection settings for one Mobi instance. Immutable
// once the client is constructed.
type Config struct {
	BaseURL  string
	Username string
	Password string
	// IgnoreCert disables TLS certificate verification for self-signed
	// Mobi deployments.
	IgnoreCert bool
}

// RDFConverter converts an RDF document in the declared syntax to Turtle
// bytes. Upload operations call it before any HTTP traffic happens.
type RDFConverter func(document, sourceFormat string) ([]byte, error)

// Client is a stateless Mobi REST client. It holds no mutable state and is
// safe for concurrent use.
type Client struct {
	cfg        Config
	restURL    string
	httpClient *http.Client
	toTurtle   RDFConverter
	logger     *slog.Logger
	tracer     trace.Tracer
}

// New creates a Client. A nil httpClient falls back to http.DefaultClient;
// when cfg.IgnoreCert is set the client's transport is swapped for one that
// skips certificate verification, without mutating the caller's client.
func New(cfg Config, httpClient *http.Client, toTurtle RDFConverter, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if cfg.IgnoreCert {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		c := *httpClient
		c.Transport = tr
		httpClient = &c
	}
	return &Client{
		cfg:        cfg,
		restURL:    strings.TrimRight(cfg.BaseURL, "/") + "/" + restContext,
		httpClient: httpClient,
		toTurtle:   toTurtle,
		logger:     logger.With("component", "mobi_client"),
		tracer:     otel.Tracer("mobi-client"),
	}
}

// escapeSegment percent-encodes a caller-supplied identifier for use as a
// path segment. Nothing is treated as safe, so '/', '#' and ':' inside an
// IRI are escaped rather than interpreted.
func escapeSegment(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// GetRecord retrieves a catalog record by its identifier. An empty
// catalogID selects the local catalog.
func (c *Client) GetRecord(ctx context.Context, recordID, catalogID string) (any, error) {
	if catalogID == "" {
		catalogID = domain.DefaultCatalog
	}
	u := c.restURL + "/catalogs/" + escapeSegment(catalogID) + "/records/" + escapeSegment(recordID)
	return c.doJSON(ctx, http.MethodGet, u, nil, nil, "")
}

// GetOntologyData fetches the ontology stored under the given record
// identifier.
func (c *Client) GetOntologyData(ctx context.Context, recordID string) (any, error) {
	u := c.restURL + "/ontologies/" + escapeSegment(recordID)
	return c.doJSON(ctx, http.MethodGet, u, nil, nil, "")
}

// EntitySearchParams are the filters for EntitySearch. Zero values for
// CatalogID, Limit and Sort fall back to the catalog defaults.
type EntitySearchParams struct {
	Query     string
	CatalogID string
	Offset    int
	Limit     int
	Sort      string
	Ascending bool
	Types     []string
	Keywords  []string
}

// EntitySearch searches entity metadata across the catalog.
func (c *Client) EntitySearch(ctx context.Context, p EntitySearchParams) (any, error) {
	if p.CatalogID == "" {
		p.CatalogID = domain.DefaultCatalog
	}
	if p.Limit == 0 {
		p.Limit = domain.DefaultPageSize
	}
	if p.Sort == "" {
		p.Sort = "entityName"
	}
	query := url.Values{}
	query.Set("offset", strconv.Itoa(p.Offset))
	query.Set("limit", strconv.Itoa(p.Limit))
	query.Set("searchText", p.Query)
	query.Set("sort", p.Sort)
	query.Set("ascending", strconv.FormatBool(p.Ascending))
	if len(p.Types) > 0 {
		query.Set("type", strings.Join(p.Types, ","))
	}
	if len(p.Keywords) > 0 {
		query.Set("keywords", strings.Join(p.Keywords, ","))
	}
	u := c.restURL + "/catalogs/" + escapeSegment(p.CatalogID) + "/entities"
	return c.doJSON(ctx, http.MethodGet, u, query, nil, "")
}

// ListRecordsParams are the filters for ListRecords.
type ListRecordsParams struct {
	CatalogID  string
	Offset     int
	Limit      int
	Keywords   []string
	SearchText string
	Types      []string
}

// ListRecords lists the records of a catalog, optionally filtered by
// keywords, search text and record types.
func (c *Client) ListRecords(ctx context.Context, p ListRecordsParams) (any, error) {
	if p.CatalogID == "" {
		p.CatalogID = domain.DefaultCatalog
	}
	if p.Limit == 0 {
		p.Limit = domain.DefaultPageSize
	}
	query := url.Values{}
	query.Set("offset", strconv.Itoa(p.Offset))
	query.Set("limit", strconv.Itoa(p.Limit))
	if len(p.Keywords) > 0 {
		query.Set("keywords", strings.Join(p.Keywords, ","))
	}
	if p.SearchText != "" {
		query.Set("searchText", p.SearchText)
	}
	if len(p.Types) > 0 {
		query.Set("type", strings.Join(p.Types, ","))
	}
	u := c.restURL + "/catalogs/" + escapeSegment(p.CatalogID) + "/records"
	return c.doJSON(ctx, http.MethodGet, u, query, nil, "")
}

// GetRecordBranches lists the branches of a record, sorted by title
// ascending. A limit of 0 falls back to the default page size.
func (c *Client) GetRecordBranches(ctx context.Context, recordIRI, catalogIRI string, offset, limit int) (any, error) {
	if catalogIRI == "" {
		catalogIRI = domain.DefaultCatalog
	}
	if limit == 0 {
		limit = domain.DefaultPageSize
	}
	query := url.Values{}
	query.Set("offset", strconv.Itoa(offset))
	query.Set("limit", strconv.Itoa(limit))
	query.Set("sort", "http://purl.org/dc/terms/title")
	query.Set("ascending", "true")
	u := c.restURL + "/catalogs/" + escapeSegment(catalogIRI) + "/records/" + escapeSegment(recordIRI) + "/branches"
	return c.doJSON(ctx, http.MethodGet, u, query, nil, "")
}

// CreateBranchParams describe a branch to create on a record.
type CreateBranchParams struct {
	RecordID    string
	Title       string
	Description string
	CommitIRI   string
	CatalogID   string
	BranchType  string
}

// CreateBranch creates a branch on a record, anchored at the given commit.
func (c *Client) CreateBranch(ctx context.Context, p CreateBranchParams) (any, error) {
	if p.CatalogID == "" {
		p.CatalogID = domain.DefaultCatalog
	}
	if p.BranchType == "" {
		p.BranchType = domain.DefaultBranchType
	}
	form := url.Values{}
	form.Set("type", p.BranchType)
	form.Set("title", p.Title)
	form.Set("description", p.Description)
	form.Set("commitId", p.CommitIRI)
	u := c.restURL + "/catalogs/" + escapeSegment(p.CatalogID) + "/records/" + escapeSegment(p.RecordID) + "/branches"
	return c.doJSON(ctx, http.MethodPost, u, nil, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
}

// ShapesGraphParams select which state of a shapes graph to fetch. BranchID
// and CommitID are optional; an empty RDFFormat means Turtle.
type ShapesGraphParams struct {
	RecordID  string
	BranchID  string
	CommitID  string
	RDFFormat string
}

// GetShapesGraph fetches the shapes graph stored under a record.
func (c *Client) GetShapesGraph(ctx context.Context, p ShapesGraphParams) (any, error) {
	if p.RDFFormat == "" {
		p.RDFFormat = "turtle"
	}
	query := url.Values{}
	if p.BranchID != "" {
		query.Set("branchId", p.BranchID)
	}
	if p.CommitID != "" {
		query.Set("commitId", p.CommitID)
	}
	query.Set("rdfFormat", p.RDFFormat)
	u := c.restURL + "/shapes-graphs/" + escapeSegment(p.RecordID)
	return c.doJSON(ctx, http.MethodGet, u, query, nil, "")
}

// doJSON issues one request and normalizes the outcome. The result is one
// of: parsed JSON (success), an empty map (successful but empty body), or
// nil (transport fault, non-2xx status, non-JSON content type, or a body
// that fails to parse). Every collapsed failure is logged with its
// diagnostic detail; callers only see the nil sentinel.
func (c *Client) doJSON(ctx context.Context, method, rawURL string, query url.Values, body io.Reader, contentType string) (any, error) {
	ctx, span := c.tracer.Start(ctx, "mobi.request")
	defer span.End()

	log := c.logger.With(slog.String("method", method), slog.String("url", rawURL))
	span.SetAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.full", rawURL),
	)

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		log.Error("Failed to build request", slog.Any("error", err))
		return nil, err
	}
	if len(query) > 0 {
		req.URL.RawQuery = query.Encode()
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.SetBasicAuth(c.cfg.Username, c.cfg.Password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("Request failed", slog.Any("error", err))
		return nil, nil
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Warn("Failed to read response body", slog.Int("status_code", resp.StatusCode), slog.Any("error", err))
		return nil, nil
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	return c.normalize(resp, respBody, log), nil
}

// normalize applies the shared response contract. The empty-body check
// deliberately precedes the content-type check so an empty 2xx body comes
// back as an empty map rather than the nil sentinel.
func (c *Client) normalize(resp *http.Response, body []byte, log *slog.Logger) any {
	log = log.With(slog.Int("status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warn("HTTP error response", slog.String("status", resp.Status), slog.String("body", snippet(body)))
		return nil
	}

	if len(bytes.TrimSpace(body)) == 0 {
		log.Warn("Empty response received")
		return map[string]any{}
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if !strings.Contains(contentType, "application/json") {
		log.Warn("Response is not JSON", slog.String("content_type", contentType), slog.String("body", snippet(body)))
		return nil
	}

	var result any
	if err := json.Unmarshal(body, &result); err != nil {
		log.Warn("Failed to decode JSON response", slog.Any("error", err), slog.String("body", snippet(body)))
		return nil
	}
	return result
}

// snippet truncates a response body for logs and error messages.
func snippet(body []byte) string {
	const max = 500
	if len(body) > max {
		return string(body[:max])
	}
	return string(body)
}
