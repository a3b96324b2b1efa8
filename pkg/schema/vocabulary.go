package schema

import (
	"fmt"
	"strings"
)

// Term is one entry in a vocabulary. Token is the form-safe representation
// submitted by item widgets; Title is the display label.
type Term struct {
	Value any
	Token string
	Title string
}

// Label returns the title, or the token when no title is set.
func (t Term) Label() string {
	if t.Title != "" {
		return t.Title
	}
	return t.Token
}

// Vocabulary enumerates the values a Choice field accepts.
type Vocabulary interface {
	Terms() []Term
	Len() int
	Contains(value any) bool
	TermByValue(value any) (Term, bool)
	TermByToken(token string) (Term, bool)
}

// SimpleVocabulary is an ordered, in-memory Vocabulary.
type SimpleVocabulary struct {
	terms   []Term
	byToken map[string]int
}

var _ Vocabulary = (*SimpleVocabulary)(nil)

// NewSimpleVocabulary builds a vocabulary from explicit terms. Tokens default
// to the formatted value and must be unique.
func NewSimpleVocabulary(terms ...Term) (*SimpleVocabulary, error) {
	v := &SimpleVocabulary{
		terms:   make([]Term, 0, len(terms)),
		byToken: make(map[string]int, len(terms)),
	}
	for _, term := range terms {
		if term.Token == "" {
			term.Token = tokenFor(term.Value)
		}
		if _, exists := v.byToken[term.Token]; exists {
			return nil, fmt.Errorf("schema: duplicate vocabulary token %q", term.Token)
		}
		v.byToken[term.Token] = len(v.terms)
		v.terms = append(v.terms, term)
	}
	return v, nil
}

// VocabularyFromValues builds a vocabulary whose tokens and titles are the
// formatted values. Duplicate values are collapsed.
func VocabularyFromValues(values ...any) *SimpleVocabulary {
	v := &SimpleVocabulary{byToken: make(map[string]int, len(values))}
	for _, value := range values {
		token := tokenFor(value)
		if _, exists := v.byToken[token]; exists {
			continue
		}
		v.byToken[token] = len(v.terms)
		v.terms = append(v.terms, Term{Value: value, Token: token, Title: fmt.Sprint(value)})
	}
	return v
}

func (v *SimpleVocabulary) Terms() []Term {
	return append([]Term(nil), v.terms...)
}

func (v *SimpleVocabulary) Len() int { return len(v.terms) }

func (v *SimpleVocabulary) Contains(value any) bool {
	_, ok := v.TermByValue(value)
	return ok
}

func (v *SimpleVocabulary) TermByValue(value any) (Term, bool) {
	for _, term := range v.terms {
		if Equal(term.Value, value) {
			return term, true
		}
	}
	return Term{}, false
}

func (v *SimpleVocabulary) TermByToken(token string) (Term, bool) {
	idx, ok := v.byToken[token]
	if !ok {
		return Term{}, false
	}
	return v.terms[idx], true
}

// tokens must survive HTML attributes and form keys, so whitespace collapses
// to dashes.
func tokenFor(value any) string {
	token := strings.TrimSpace(fmt.Sprint(value))
	return strings.Join(strings.Fields(token), "-")
}
