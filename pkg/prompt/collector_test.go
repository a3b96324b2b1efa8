package prompt_test

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/goliatone/go-formbind/pkg/form"
	"github.com/goliatone/go-formbind/pkg/prompt"
	"github.com/goliatone/go-formbind/pkg/schema"
)

type stubDriver struct {
	inputs    []string
	passwords []string
	confirms  []bool
	selects   []int
	multis    [][]int
	textAreas []string

	asked []string
	infos []string
}

func (s *stubDriver) Input(_ context.Context, cfg prompt.InputConfig) (string, error) {
	s.asked = append(s.asked, cfg.Message)
	if len(s.inputs) == 0 {
		return "", errors.New("no input scripted for " + cfg.Message)
	}
	val := s.inputs[0]
	s.inputs = s.inputs[1:]
	return val, nil
}

func (s *stubDriver) Password(_ context.Context, cfg prompt.InputConfig) (string, error) {
	s.asked = append(s.asked, cfg.Message)
	if len(s.passwords) == 0 {
		return "", errors.New("no password scripted")
	}
	val := s.passwords[0]
	s.passwords = s.passwords[1:]
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, cfg prompt.ConfirmConfig) (bool, error) {
	s.asked = append(s.asked, cfg.Message)
	if len(s.confirms) == 0 {
		return false, errors.New("no confirm scripted for " + cfg.Message)
	}
	val := s.confirms[0]
	s.confirms = s.confirms[1:]
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, cfg prompt.SelectConfig) (int, error) {
	s.asked = append(s.asked, cfg.Message)
	if len(s.selects) == 0 {
		return -1, errors.New("no select scripted")
	}
	val := s.selects[0]
	s.selects = s.selects[1:]
	return val, nil
}

func (s *stubDriver) MultiSelect(_ context.Context, cfg prompt.SelectConfig) ([]int, error) {
	s.asked = append(s.asked, cfg.Message)
	if len(s.multis) == 0 {
		return nil, errors.New("no multiselect scripted")
	}
	val := s.multis[0]
	s.multis = s.multis[1:]
	return val, nil
}

func (s *stubDriver) TextArea(_ context.Context, cfg prompt.TextAreaConfig) (string, error) {
	s.asked = append(s.asked, cfg.Message)
	if len(s.textAreas) == 0 {
		return "", errors.New("no textarea scripted")
	}
	val := s.textAreas[0]
	s.textAreas = s.textAreas[1:]
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infos = append(s.infos, msg)
	return nil
}

type article struct {
	Title     string   `form:"title"`
	Count     int64    `form:"count"`
	Published bool     `form:"published"`
	Status    string   `form:"status"`
	Tags      []string `form:"tags"`
	Slug      string   `form:"slug"`
}

func articleSchema() *schema.Schema {
	return schema.New("article",
		schema.NewTextLine("title", schema.Title("Title")),
		schema.NewInt("count", schema.Title("Count"), schema.Min(int64(0))),
		schema.NewBool("published", schema.Title("Published")),
		schema.NewChoice("status", schema.VocabularyFromValues("draft", "published"), schema.Title("Status")),
		schema.NewList("tags", schema.NewTextLine("tag", schema.Title("Tag")), schema.Title("Tags"), schema.Required(false)),
		schema.NewTextLine("slug", schema.Title("Slug"), schema.Readonly()),
	)
}

func newCollector(driver prompt.Driver, opts ...prompt.Option) *prompt.Collector {
	logger, _ := test.NewNullLogger()
	return prompt.New(append([]prompt.Option{prompt.WithDriver(driver), prompt.WithLogger(logger)}, opts...)...)
}

func TestCollectRecordsWidgetNames(t *testing.T) {
	driver := &stubDriver{
		inputs:   []string{"Hello", "3", "go"},
		confirms: []bool{true, true, false},
		selects:  []int{1},
	}
	req, err := newCollector(driver).Collect(context.Background(), articleSchema(), nil)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}

	want := url.Values{
		"field.title":          {"Hello"},
		"field.count":          {"3"},
		"field.published":      {"on"},
		"field.published.used": {"1"},
		"field.status":         {"published"},
		"field.tags.0.tag":     {"go"},
		"field.tags.count":     {"1"},
	}
	if diff := cmp.Diff(want, req.Form); diff != "" {
		t.Fatalf("request mismatch (-want +got):\n%s", diff)
	}
	wantAsked := []string{"Title", "Count", "Published", "Status", "Add Tag?", "Tag", "Add Tag?"}
	if diff := cmp.Diff(wantAsked, driver.asked); diff != "" {
		t.Fatalf("prompt order mismatch (-want +got):\n%s", diff)
	}
}

func TestEditAppliesThroughWidgets(t *testing.T) {
	driver := &stubDriver{
		inputs:   []string{"Hello", "3", "go"},
		confirms: []bool{false, true, false},
		selects:  []int{0},
	}
	content := &article{Published: true, Slug: "fixed"}

	changed, err := newCollector(driver).Edit(context.Background(), articleSchema(), content)
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if !changed {
		t.Fatalf("expected a change")
	}
	want := &article{Title: "Hello", Count: 3, Status: "draft", Tags: []string{"go"}, Slug: "fixed"}
	if diff := cmp.Diff(want, content); diff != "" {
		t.Fatalf("content mismatch (-want +got):\n%s", diff)
	}
}

func TestEditAsksAgainForRejectedFields(t *testing.T) {
	driver := &stubDriver{
		inputs:   []string{"", "-1", "Hello", "2"},
		confirms: []bool{false, false},
		selects:  []int{0},
	}
	content := &article{}

	changed, err := newCollector(driver).Edit(context.Background(), articleSchema(), content, "title", "count", "published", "status", "tags")
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if !changed || content.Title != "Hello" || content.Count != 2 {
		t.Fatalf("unexpected content %+v", content)
	}
	if len(driver.infos) != 2 {
		t.Fatalf("expected two error reports, got %q", driver.infos)
	}
	if !strings.HasPrefix(driver.infos[0], "Title: ") || !strings.HasPrefix(driver.infos[1], "Count: ") {
		t.Fatalf("unexpected error reports %q", driver.infos)
	}
}

func TestEditGivesUpAndRollsBack(t *testing.T) {
	driver := &stubDriver{
		inputs:   []string{"Changed", "-5"},
		confirms: []bool{true, false},
		selects:  []int{1},
	}
	content := &article{Title: "Original", Count: 1, Status: "draft"}

	_, err := newCollector(driver, prompt.WithAttempts(1)).Edit(context.Background(), articleSchema(), content)
	werr, ok := form.AsWidgetsError(err)
	if !ok {
		t.Fatalf("expected a widgets error, got %v", err)
	}
	if _, rejected := werr.ByField()["count"]; !rejected {
		t.Fatalf("expected the count error, got %v", werr.ByField())
	}
	want := &article{Title: "Original", Count: 1, Status: "draft"}
	if diff := cmp.Diff(want, content); diff != "" {
		t.Fatalf("content should be rolled back (-want +got):\n%s", diff)
	}
}

func TestEditAbort(t *testing.T) {
	driver := &abortingDriver{stubDriver: stubDriver{inputs: []string{"Hello"}}}
	content := &article{Title: "Original"}

	_, err := newCollector(driver).Edit(context.Background(), articleSchema(), content)
	if !errors.Is(err, prompt.ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	if content.Title != "Original" {
		t.Fatalf("content changed on abort: %+v", content)
	}
}

type abortingDriver struct {
	stubDriver
}

func (d *abortingDriver) Input(ctx context.Context, cfg prompt.InputConfig) (string, error) {
	if cfg.Message == "Count" {
		return "", prompt.ErrAborted
	}
	return d.stubDriver.Input(ctx, cfg)
}

func TestCollectOptionalChoiceAndChoices(t *testing.T) {
	colours := schema.VocabularyFromValues("red", "green", "blue")
	s := schema.New("palette",
		schema.NewChoice("primary", colours, schema.Title("Primary"), schema.Required(false)),
		schema.NewSet("others", schema.NewChoice("colour", colours), schema.Title("Others")),
	)
	driver := &stubDriver{selects: []int{0}, multis: [][]int{{2, 0}}}

	req, err := newCollector(driver).Collect(context.Background(), s, map[string]any{"others": []any{"green"}})
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	want := url.Values{
		"field.primary":             {""},
		"field.others":              {"red", "blue"},
		"field.others-empty-marker": {"1"},
	}
	if diff := cmp.Diff(want, req.Form); diff != "" {
		t.Fatalf("request mismatch (-want +got):\n%s", diff)
	}
}

type address struct {
	Street string `form:"street"`
	City   string `form:"city"`
}

type person struct {
	Name string   `form:"name"`
	Home *address `form:"home"`
}

func TestEditNestedObject(t *testing.T) {
	const factoryID = "prompt-test-address"
	if _, ok := schema.DefaultFactories.Lookup(factoryID); !ok {
		schema.DefaultFactories.MustRegister(factoryID, func() any { return &address{} })
	}
	home := schema.NewObject("home", schema.New("address",
		schema.NewTextLine("street", schema.Title("Street")),
		schema.NewTextLine("city", schema.Title("City")),
	), schema.Title("Home")).WithFactoryID(factoryID)
	s := schema.New("person", schema.NewTextLine("name", schema.Title("Name")), home)
	driver := &stubDriver{inputs: []string{"Ada", "Main St", "Springfield"}}
	content := &person{}

	changed, err := newCollector(driver, prompt.WithPrefix("person.")).Edit(context.Background(), s, content)
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if !changed {
		t.Fatalf("expected a change")
	}
	want := &person{Name: "Ada", Home: &address{Street: "Main St", City: "Springfield"}}
	if diff := cmp.Diff(want, content); diff != "" {
		t.Fatalf("content mismatch (-want +got):\n%s", diff)
	}
}

func TestCollectUnknownField(t *testing.T) {
	if _, err := newCollector(&stubDriver{}).Collect(context.Background(), articleSchema(), nil, "missing"); err == nil {
		t.Fatalf("expected an error for an unknown field")
	}
}
