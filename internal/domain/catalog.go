package domain

// Defaults shared by the catalog client and the tool layer.
const (
	// DefaultCatalog is the IRI of the local catalog every Mobi instance has.
	DefaultCatalog = "http://mobi.com/catalog-local"

	// DefaultPageSize is the page size applied when a caller does not ask
	// for an explicit limit.
	DefaultPageSize = 100

	// DefaultBranchType is the branch class used when creating a branch
	// without an explicit type.
	DefaultBranchType = "http://mobi.com/ontologies/catalog#Branch"
)

// RecordTypes is the closed set of record classes the catalog can hold.
// It is advisory: filters are forwarded to the backend as-is, the backend
// owns validation.
var RecordTypes = []string{
	"http://mobi.com/ontologies/ontology-editor#OntologyRecord",
	"http://mobi.com/ontologies/shapes-graph-editor#ShapesGraphRecord",
	"http://mobi.com/ontologies/delimited#MappingRecord",
	"http://mobi.com/ontologies/dataset#DatasetRecord",
}

// IsRecordType reports whether iri is one of the known record classes.
func IsRecordType(iri string) bool {
	for _, t := range RecordTypes {
		if t == iri {
			return true
		}
	}
	return false
}
