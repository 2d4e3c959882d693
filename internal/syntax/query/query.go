// Package query compiles tree-sitter queries, evaluates their text
// predicates and orders the resulting captures for highlighting.
package query

import (
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// ErrorKind classifies a compile failure.
type ErrorKind int

const (
	KindSyntax ErrorKind = iota
	KindNodeType
	KindField
	KindCapture
	KindStructure
	KindLanguage
	// KindPredicate covers malformed predicate calls.
	KindPredicate
)

var kindNames = [...]string{
	KindSyntax:    "syntax",
	KindNodeType:  "node type",
	KindField:     "field",
	KindCapture:   "capture",
	KindStructure: "structure",
	KindLanguage:  "language",
	KindPredicate: "predicate",
}

// String returns the kind name.
func (k ErrorKind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// CompileError reports a query that the grammar rejected. Offset is a
// byte offset into the query source.
type CompileError struct {
	Kind    ErrorKind
	Offset  uint32
	Message string
	Err     error
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("query %s error at offset %d", e.Kind, e.Offset)
	}
	return fmt.Sprintf("query %s error at offset %d: %s", e.Kind, e.Offset, e.Message)
}

// Unwrap returns the underlying parser error.
func (e *CompileError) Unwrap() error {
	return e.Err
}

// Query is a compiled query with its predicates parsed per pattern.
type Query struct {
	q          *sitter.Query
	names      []string
	predicates [][]Predicate
	properties []map[string]string
}

// Compile compiles src for lang.
func Compile(lang *sitter.Language, src []byte) (*Query, error) {
	if lang == nil {
		return nil, &CompileError{Kind: KindLanguage, Message: "no grammar"}
	}
	sq, err := sitter.NewQuery(src, lang)
	if err != nil {
		return nil, compileError(err)
	}

	q := &Query{q: sq}
	q.names = make([]string, sq.CaptureCount())
	for i := range q.names {
		q.names[i] = sq.CaptureNameForId(uint32(i))
	}

	n := int(sq.PatternCount())
	q.predicates = make([][]Predicate, n)
	q.properties = make([]map[string]string, n)
	for i := 0; i < n; i++ {
		preds, props, err := parsePredicates(sq, uint32(i))
		if err != nil {
			return nil, &CompileError{Kind: KindPredicate, Message: fmt.Sprintf("pattern %d: %v", i, err), Err: err}
		}
		q.predicates[i] = preds
		q.properties[i] = props
	}
	return q, nil
}

func compileError(err error) *CompileError {
	var qe *sitter.QueryError
	if !errors.As(err, &qe) {
		return &CompileError{Kind: KindPredicate, Message: err.Error(), Err: err}
	}
	ce := &CompileError{Offset: qe.Offset, Message: qe.Message, Err: err}
	switch qe.Type {
	case sitter.QueryErrorNodeType:
		ce.Kind = KindNodeType
	case sitter.QueryErrorField:
		ce.Kind = KindField
	case sitter.QueryErrorCapture:
		ce.Kind = KindCapture
	case sitter.QueryErrorStructure:
		ce.Kind = KindStructure
	case sitter.QueryErrorLanguage:
		ce.Kind = KindLanguage
	default:
		ce.Kind = KindSyntax
	}
	return ce
}

// CaptureNames lists capture names by capture index.
func (q *Query) CaptureNames() []string {
	return q.names
}

// PatternCount is the number of patterns in the query.
func (q *Query) PatternCount() int {
	return len(q.predicates)
}

// Predicates returns the text predicates of a pattern.
func (q *Query) Predicates(pattern int) []Predicate {
	return q.predicates[pattern]
}

// Properties returns the #set! properties of a pattern.
func (q *Query) Properties(pattern int) map[string]string {
	return q.properties[pattern]
}

// Raw exposes the compiled tree-sitter query.
func (q *Query) Raw() *sitter.Query {
	return q.q
}

// Close releases the compiled query.
func (q *Query) Close() {
	q.q.Close()
}
