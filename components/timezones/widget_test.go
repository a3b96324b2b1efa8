package timezones_test

import (
	"net/url"
	"strings"
	"testing"

	"github.com/goliatone/go-formbind/components/timezones"
	"github.com/goliatone/go-formbind/pkg/form"
	"github.com/goliatone/go-formbind/pkg/schema"
)

type account struct {
	Zone string `form:"zone"`
}

func TestWidgetBindsTextLineFields(t *testing.T) {
	registry := form.NewRegistry()
	timezones.Register(registry)
	factory, ok := registry.Named(timezones.WidgetName)
	if !ok {
		t.Fatalf("expected %s to be registered", timezones.WidgetName)
	}

	field := schema.NewTextLine("zone", schema.Title("Time zone"))
	req := form.NewRequest(url.Values{"field.zone": {"Europe/Paris"}})
	w, err := factory(field, req)
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	w.SetPrefix("field")

	content := &account{Zone: "UTC"}
	changed, err := w.(form.InputWidget).ApplyChanges(content)
	if err != nil {
		t.Fatalf("ApplyChanges: %v", err)
	}
	if !changed || content.Zone != "Europe/Paris" {
		t.Fatalf("unexpected content %+v", content)
	}

	html := w.Render()
	for _, want := range []string{`name="field.zone"`, `value="Europe/Paris"`, `selected="selected"`, `value="Asia/Tokyo"`} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in:\n%s", want, html)
		}
	}
}

func TestWidgetRejectsUnknownZone(t *testing.T) {
	field, err := timezones.NewField("zone")
	if err != nil {
		t.Fatalf("NewField: %v", err)
	}
	w, err := timezones.NewWidget(field, form.NewRequest(url.Values{"field.zone": {"Mars/Olympus"}}))
	if err != nil {
		t.Fatalf("NewWidget: %v", err)
	}
	w.SetPrefix("field")
	if _, err := w.(form.InputWidget).GetInputValue(); err == nil {
		t.Fatalf("expected an unknown token to be rejected")
	}
}
