// Package rdfio converts RDF documents between syntaxes for the catalog
// client. It wraps rdf2go so the rest of the code only ever deals with
// Turtle bytes.
package rdfio

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/deiu/rdf2go"
)

// FormatError indicates the input document could not be parsed as the
// declared RDF syntax, or the syntax itself is not supported.
type FormatError struct {
	Format string
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid RDF document (format %q): %v", e.Format, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// baseURI anchors relative IRIs during parsing. The value is arbitrary; the
// backend re-resolves everything on upload.
const baseURI = "https://mobi.com/"

// mimeTypes maps caller-declared syntax names onto the MIME types rdf2go
// understands.
var mimeTypes = map[string]string{
	"turtle":              "text/turtle",
	"ttl":                 "text/turtle",
	"text/turtle":         "text/turtle",
	"jsonld":              "application/ld+json",
	"json-ld":             "application/ld+json",
	"application/ld+json": "application/ld+json",
}

// ToTurtle parses document in the declared sourceFormat and serializes the
// resulting graph as Turtle. Malformed documents and unknown syntaxes
// return a *FormatError.
func ToTurtle(document, sourceFormat string) (out []byte, err error) {
	mime, ok := mimeTypes[strings.ToLower(strings.TrimSpace(sourceFormat))]
	if !ok {
		return nil, &FormatError{
			Format: sourceFormat,
			Err:    fmt.Errorf("unsupported RDF syntax, expected one of: turtle, jsonld"),
		}
	}

	// The underlying Turtle lexer panics on some malformed documents
	// instead of returning an error.
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = &FormatError{Format: sourceFormat, Err: fmt.Errorf("parse failed: %v", r)}
		}
	}()

	g := rdf2go.NewGraph(baseURI)
	if perr := g.Parse(strings.NewReader(document), mime); perr != nil {
		return nil, &FormatError{Format: sourceFormat, Err: perr}
	}

	var buf bytes.Buffer
	if serr := g.Serialize(&buf, "text/turtle"); serr != nil {
		return nil, &FormatError{Format: sourceFormat, Err: serr}
	}
	return buf.Bytes(), nil
}
