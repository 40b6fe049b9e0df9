package mobi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// UploadError is returned when the backend rejects an ontology create or
// update. Unlike the read path, write failures are never collapsed.
type UploadError struct {
	StatusCode int
	Reason     string
	// Body holds at most the first 500 characters of the response body.
	Body string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("ontology upload failed: %d %s - %s", e.StatusCode, e.Reason, e.Body)
}

// CreateOntologyParams describe a new ontology record. Document is the RDF
// payload in the declared SourceFormat; it is converted to Turtle before
// upload.
type CreateOntologyParams struct {
	Document     string
	SourceFormat string
	Title        string
	Description  string
	Markdown     string
	Keywords     []string
}

// CreateOntology converts the document to Turtle and POSTs it to the
// ontologies endpoint together with the record metadata. Any status other
// than 201 yields an *UploadError.
func (c *Client) CreateOntology(ctx context.Context, p CreateOntologyParams) (any, error) {
	turtle, err := c.toTurtle(p.Document, p.SourceFormat)
	if err != nil {
		return nil, err
	}

	fields := map[string]string{
		"title":       p.Title,
		"description": p.Description,
	}
	if p.Markdown != "" {
		fields["markdown"] = p.Markdown
	}
	if len(p.Keywords) > 0 {
		fields["keywords"] = strings.Join(p.Keywords, ",")
	}

	u := c.restURL + "/ontologies"
	return c.upload(ctx, http.MethodPost, u, nil, fields, turtle, func(status int) bool {
		return status == http.StatusCreated
	})
}

// UpdateOntologyParams identify the branch head to replace and carry the
// new RDF payload.
type UpdateOntologyParams struct {
	RecordIRI    string
	BranchIRI    string
	CommitIRI    string
	Document     string
	SourceFormat string
}

// UpdateOntology converts the document to Turtle and PUTs it to the
// ontology record, replacing the content at the given branch head. Any
// non-2xx status yields an *UploadError.
func (c *Client) UpdateOntology(ctx context.Context, p UpdateOntologyParams) (any, error) {
	turtle, err := c.toTurtle(p.Document, p.SourceFormat)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("branchId", p.BranchIRI)
	query.Set("commitId", p.CommitIRI)

	u := c.restURL + "/ontologies/" + escapeSegment(p.RecordIRI)
	return c.upload(ctx, http.MethodPut, u, query, nil, turtle, func(status int) bool {
		return status >= 200 && status < 300
	})
}

// upload writes the Turtle bytes to a fresh temporary file, sends it as a
// multipart request and normalizes the success response like the read path.
// The temporary file is removed on every exit path.
func (c *Client) upload(ctx context.Context, method, rawURL string, query url.Values, fields map[string]string, turtle []byte, accept func(int) bool) (any, error) {
	ctx, span := c.tracer.Start(ctx, "mobi.upload")
	defer span.End()

	log := c.logger.With(slog.String("method", method), slog.String("url", rawURL))
	span.SetAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.full", rawURL),
	)

	tmpPath := filepath.Join(os.TempDir(), "ontology-"+uuid.NewString()+".ttl")
	if err := os.WriteFile(tmpPath, turtle, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write temporary turtle file: %w", err)
	}
	defer func() {
		// The file may already be gone; that is fine.
		if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
			log.Warn("Failed to remove temporary turtle file", slog.String("path", tmpPath), slog.Any("error", err))
		}
	}()

	body, contentType, err := multipartBody(tmpPath, fields)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload request: %w", err)
	}
	if len(query) > 0 {
		req.URL.RawQuery = query.Encode()
	}
	req.Header.Set("Content-Type", contentType)
	req.SetBasicAuth(c.cfg.Username, c.cfg.Password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("Upload request failed", slog.Any("error", err))
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload response: %w", err)
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if !accept(resp.StatusCode) {
		log.Error("Upload rejected by backend",
			slog.Int("status_code", resp.StatusCode),
			slog.String("body", snippet(respBody)))
		return nil, &UploadError{
			StatusCode: resp.StatusCode,
			Reason:     http.StatusText(resp.StatusCode),
			Body:       snippet(respBody),
		}
	}

	return c.normalize(resp, respBody, log), nil
}

// multipartBody assembles the upload body: one file part named "file" with
// filename "ontology.ttl" and media type text/turtle, plus the given form
// fields. The boundary comes from the multipart writer, never from a
// hand-set header.
func multipartBody(filePath string, fields map[string]string) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="ontology.ttl"`)
	header.Set("Content-Type", "text/turtle")
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create file part: %w", err)
	}

	f, err := os.Open(filePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open temporary turtle file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("failed to copy turtle file into request: %w", err)
	}

	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("failed to write form field %s: %w", name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}
