package query

import (
	"errors"
	"fmt"
	"regexp"

	sitter "github.com/smacker/go-tree-sitter"
)

// PredicateKind identifies what a predicate compares.
type PredicateKind int

const (
	// Unsupported predicates always pass.
	Unsupported PredicateKind = iota
	// EqualsString compares a capture's text with a literal.
	EqualsString
	// EqualsCapture compares the texts of two captures.
	EqualsCapture
	// MatchesPattern tests a capture's text against a regular expression.
	MatchesPattern
)

// String returns the kind name.
func (k PredicateKind) String() string {
	switch k {
	case EqualsString:
		return "equals-string"
	case EqualsCapture:
		return "equals-capture"
	case MatchesPattern:
		return "matches-pattern"
	default:
		return "unsupported"
	}
}

// Predicate is one text condition attached to a pattern.
type Predicate struct {
	Kind PredicateKind
	// Name is the operator as written, e.g. "not-match?".
	Name    string
	Negated bool
	// Capture is the capture whose text is tested.
	Capture string
	// Value is the literal, the other capture name, or the pattern source.
	Value string

	re *regexp.Regexp
}

// TextFunc returns the document text in [start, end) bytes.
type TextFunc func(start, end uint32) string

// nodeText finds the text of the first node captured under name. ok is
// false when the match has no such capture.
type nodeText func(name string) (text string, ok bool)

// eval reports whether the predicate holds. A predicate naming a capture
// absent from the match holds, so optional captures don't reject matches.
func (p Predicate) eval(text nodeText) bool {
	if p.Kind == Unsupported {
		return true
	}
	left, ok := text(p.Capture)
	if !ok {
		return true
	}
	var holds bool
	switch p.Kind {
	case EqualsString:
		holds = left == p.Value
	case EqualsCapture:
		right, ok := text(p.Value)
		if !ok {
			return true
		}
		holds = left == right
	case MatchesPattern:
		holds = p.re.MatchString(left)
	}
	return holds != p.Negated
}

var errPredicateShape = errors.New("malformed predicate")

// parsePredicates decodes the predicate steps of one pattern. #set!
// directives become properties; everything else becomes a Predicate.
func parsePredicates(q *sitter.Query, pattern uint32) ([]Predicate, map[string]string, error) {
	var (
		preds []Predicate
		props map[string]string
	)
	for _, steps := range q.PredicatesForPattern(pattern) {
		args := make([]sitter.QueryPredicateStep, 0, len(steps))
		for _, s := range steps {
			if s.Type != sitter.QueryPredicateStepTypeDone {
				args = append(args, s)
			}
		}
		if len(args) == 0 {
			continue
		}
		if args[0].Type != sitter.QueryPredicateStepTypeString {
			return nil, nil, fmt.Errorf("%w: operator is not a name", errPredicateShape)
		}
		op := q.StringValueForId(args[0].ValueId)
		args = args[1:]

		value := func(s sitter.QueryPredicateStep) string {
			if s.Type == sitter.QueryPredicateStepTypeCapture {
				return q.CaptureNameForId(s.ValueId)
			}
			return q.StringValueForId(s.ValueId)
		}

		switch op {
		case "set!":
			if len(args) < 1 || len(args) > 2 {
				return nil, nil, fmt.Errorf("%w: #set! takes a key and an optional value", errPredicateShape)
			}
			if props == nil {
				props = make(map[string]string)
			}
			v := ""
			if len(args) == 2 {
				v = value(args[1])
			}
			props[value(args[0])] = v

		case "eq?", "not-eq?":
			if len(args) != 2 || args[0].Type != sitter.QueryPredicateStepTypeCapture {
				return nil, nil, fmt.Errorf("%w: #%s takes a capture and a value", errPredicateShape, op)
			}
			p := Predicate{Name: op, Negated: op == "not-eq?", Capture: value(args[0]), Value: value(args[1])}
			if args[1].Type == sitter.QueryPredicateStepTypeCapture {
				p.Kind = EqualsCapture
			} else {
				p.Kind = EqualsString
			}
			preds = append(preds, p)

		case "match?", "not-match?":
			if len(args) != 2 || args[0].Type != sitter.QueryPredicateStepTypeCapture ||
				args[1].Type != sitter.QueryPredicateStepTypeString {
				return nil, nil, fmt.Errorf("%w: #%s takes a capture and a pattern", errPredicateShape, op)
			}
			re, err := regexp.Compile(value(args[1]))
			if err != nil {
				return nil, nil, fmt.Errorf("#%s: %w", op, err)
			}
			preds = append(preds, Predicate{
				Kind:    MatchesPattern,
				Name:    op,
				Negated: op == "not-match?",
				Capture: value(args[0]),
				Value:   value(args[1]),
				re:      re,
			})

		default:
			p := Predicate{Kind: Unsupported, Name: op}
			if len(args) > 0 {
				p.Capture = value(args[0])
			}
			preds = append(preds, p)
		}
	}
	return preds, props, nil
}
