package schema

import (
	"errors"
	"testing"
	"time"
)

func TestTextLineValidate(t *testing.T) {
	field := NewTextLine("s1", Title("S1"), MinLength(2), MaxLength(10))

	cases := []struct {
		name  string
		value any
		want  error
	}{
		{name: "valid", value: "foo"},
		{name: "missing", value: nil, want: ErrRequiredMissing},
		{name: "too short", value: "a", want: ErrTooShort},
		{name: "too long", value: "12345678901", want: ErrTooLong},
		{name: "wrong type", value: 42, want: ErrWrongType},
		{name: "newline", value: "a\nb", want: ErrConstraintNotSatisfied},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := field.Validate(tc.value)
			if tc.want == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestOptionalFieldAcceptsMissingValue(t *testing.T) {
	field := NewTextLine("s2", Required(false), Missing(""))
	if err := field.Validate(""); err != nil {
		t.Fatalf("missing value should be accepted for optional field: %v", err)
	}
	if err := field.Validate(nil); err != nil {
		t.Fatalf("nil should be accepted for optional field: %v", err)
	}

	required := NewTextLine("s1", Missing(""))
	if err := required.Validate(""); !errors.Is(err, ErrRequiredMissing) {
		t.Fatalf("expected required missing, got %v", err)
	}
}

func TestIntRange(t *testing.T) {
	field := NewInt("count", Min(int64(1)), Max(int64(5)))
	if err := field.Validate(3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := field.Validate(int64(0)); !errors.Is(err, ErrTooSmall) {
		t.Fatalf("expected too small, got %v", err)
	}
	if err := field.Validate(uint8(9)); !errors.Is(err, ErrTooBig) {
		t.Fatalf("expected too big, got %v", err)
	}
	if err := field.Validate(1.5); !errors.Is(err, ErrWrongType) {
		t.Fatalf("expected wrong type, got %v", err)
	}
}

func TestDatetimeRange(t *testing.T) {
	lower := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	field := NewDatetime("published", Min(lower))
	if err := field.Validate(lower.Add(-time.Hour)); !errors.Is(err, ErrTooSmall) {
		t.Fatalf("expected too small, got %v", err)
	}
	if err := field.Validate(lower); err != nil {
		t.Fatalf("lower bound should be inclusive: %v", err)
	}
}

func TestChoiceValidate(t *testing.T) {
	field := NewChoice("s3", VocabularyFromValues("Bob", "is", "Your", "Uncle"), Required(false))
	if err := field.Validate("Uncle"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := field.Validate("Bob is *Not* My Uncle"); !errors.Is(err, ErrConstraintNotSatisfied) {
		t.Fatalf("expected constraint error, got %v", err)
	}
}

func TestCollectionValidate(t *testing.T) {
	field := NewList("tags", NewTextLine("tag", MaxLength(3)), MinLength(1), MaxLength(3))

	if err := field.Validate([]any{"a", "b"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := field.Validate([]string{}); !errors.Is(err, ErrTooShort) {
		t.Fatalf("expected too short, got %v", err)
	}
	err := field.Validate([]any{"ok", "toolong"})
	if !errors.Is(err, ErrWrongContainedType) {
		t.Fatalf("expected wrong contained type, got %v", err)
	}
	verr, _ := AsValidationError(err)
	if len(verr.Errors) != 1 || !errors.Is(verr.Errors[0], ErrTooLong) {
		t.Fatalf("expected nested too long error, got %#v", verr.Errors)
	}

	set := NewSet("labels", NewTextLine("label"))
	if err := set.Validate([]any{"x", "x"}); !errors.Is(err, ErrNotUnique) {
		t.Fatalf("expected not unique, got %v", err)
	}
	if err := field.Validate("nope"); !errors.Is(err, ErrWrongType) {
		t.Fatalf("expected wrong type for scalar, got %v", err)
	}
}

func TestObjectValidateNested(t *testing.T) {
	address := New("Address",
		NewTextLine("street"),
		NewTextLine("city", Required(false)),
	)
	field := NewObject("address", address)

	if err := field.Validate(map[string]any{"street": "Main"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := field.Validate(map[string]any{"city": "Springfield"})
	if !errors.Is(err, ErrWrongContainedType) {
		t.Fatalf("expected wrong contained type, got %v", err)
	}
}

func TestValidationErrorDoc(t *testing.T) {
	err := NewTextLine("s1").Validate(nil)
	verr, ok := AsValidationError(err)
	if !ok {
		t.Fatalf("expected validation error, got %T", err)
	}
	if got := verr.Doc(); got != "Required input is missing." {
		t.Fatalf("unexpected doc: %q", got)
	}
}

func TestEqual(t *testing.T) {
	now := time.Now()
	cases := []struct {
		a, b any
		want bool
	}{
		{a: 5, b: int64(5), want: true},
		{a: 5, b: 5.0, want: true},
		{a: "x", b: "x", want: true},
		{a: []any{"a", "b"}, b: []string{"a", "b"}, want: true},
		{a: []any{"a"}, b: []string{"b"}, want: false},
		{a: now, b: now.In(time.UTC), want: true},
		{a: nil, b: (*int)(nil), want: true},
		{a: nil, b: "", want: false},
	}
	for _, tc := range cases {
		if got := Equal(tc.a, tc.b); got != tc.want {
			t.Fatalf("Equal(%#v, %#v) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}
