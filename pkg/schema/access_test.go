package schema

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type article struct {
	Title    string
	Body     string `form:"content"`
	Count    int64
	Tags     []string
	Internal string `form:"-"`
	baz      string
}

func (a *article) GetBaz() string { return a.baz }

func (a *article) SetBaz(value string) error {
	if value == "" {
		return errors.New("baz must not be empty")
	}
	a.baz = value
	return nil
}

type recordContent struct {
	values map[string]any
}

func (r *recordContent) GetField(name string) (any, bool) {
	v, ok := r.values[name]
	return v, ok
}

func (r *recordContent) SetField(name string, value any) error {
	r.values[name] = value
	return nil
}

func TestStructAccess(t *testing.T) {
	content := &article{Title: "hello", Body: "world"}

	title := NewTextLine("title")
	got, err := title.Get(content)
	if err != nil {
		t.Fatalf("get title: %v", err)
	}
	if got != "hello" {
		t.Fatalf("expected case-insensitive match, got %v", got)
	}

	body := NewText("content")
	if got := body.Query(content, nil); got != "world" {
		t.Fatalf("expected tagged field, got %v", got)
	}

	if err := NewInt("count").Set(content, 7); err != nil {
		t.Fatalf("set count: %v", err)
	}
	if content.Count != 7 {
		t.Fatalf("expected converted int64, got %d", content.Count)
	}

	if err := NewList("tags", NewTextLine("tag")).Set(content, []any{"a", "b"}); err != nil {
		t.Fatalf("set tags: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, content.Tags); diff != "" {
		t.Fatalf("tags mismatch (-want +got):\n%s", diff)
	}

	if got := NewTextLine("internal").Query(content, "fallback"); got != "fallback" {
		t.Fatalf("expected excluded field to fall back, got %v", got)
	}
	if _, err := NewTextLine("missing").Get(content); !errors.Is(err, ErrNoSuchField) {
		t.Fatalf("expected no such field, got %v", err)
	}
}

func TestAccessorFields(t *testing.T) {
	content := &article{baz: "initial"}
	field := NewTextLine("baz", Accessors("GetBaz", "SetBaz"))

	got, err := field.Get(content)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "initial" {
		t.Fatalf("unexpected getter value %v", got)
	}
	if err := field.Set(content, "changed"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if content.baz != "changed" {
		t.Fatalf("setter not called, baz=%q", content.baz)
	}
	if err := field.Set(content, ""); err == nil {
		t.Fatalf("expected setter error to propagate")
	}
}

func TestReadonlySet(t *testing.T) {
	content := map[string]any{"title": "x"}
	field := NewTextLine("title", Readonly())
	if err := field.Set(content, "y"); !errors.Is(err, ErrReadonly) {
		t.Fatalf("expected read-only error, got %v", err)
	}
	if content["title"] != "x" {
		t.Fatalf("read-only field was modified")
	}
}

func TestMapAndInterfaceAccess(t *testing.T) {
	typed := map[string]int{"count": 1}
	field := NewInt("count")
	if err := field.Set(typed, int64(4)); err != nil {
		t.Fatalf("set typed map: %v", err)
	}
	if typed["count"] != 4 {
		t.Fatalf("expected 4, got %d", typed["count"])
	}

	record := &recordContent{values: map[string]any{}}
	if err := field.Set(record, 9); err != nil {
		t.Fatalf("set record: %v", err)
	}
	got, err := field.Get(record)
	if err != nil || got != 9 {
		t.Fatalf("expected 9, got %v (%v)", got, err)
	}
}

func TestSchemaOrderAndSubset(t *testing.T) {
	s := New("Foo",
		NewTextLine("foo"),
		NewTextLine("bar"),
		NewInt("baz"),
	)
	if diff := cmp.Diff([]string{"foo", "bar", "baz"}, s.FieldNamesInOrder()); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	fields, err := s.Subset([]string{"baz", "foo"})
	if err != nil {
		t.Fatalf("subset: %v", err)
	}
	if fields[0].Name() != "baz" || fields[1].Name() != "foo" {
		t.Fatalf("unexpected subset order")
	}
	if _, err := s.Subset([]string{"nope"}); err == nil {
		t.Fatalf("expected unknown field error")
	}
	if err := s.Add(NewTextLine("foo")); err == nil {
		t.Fatalf("expected duplicate error")
	}
}

func TestFactoryRegistry(t *testing.T) {
	reg := NewFactoryRegistry()
	if err := reg.Register("address", func() any { return map[string]any{} }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register("address", func() any { return nil }); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
	if _, ok := reg.Lookup("address"); !ok {
		t.Fatalf("expected factory")
	}
	if diff := cmp.Diff([]string{"address"}, reg.IDs()); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
}
