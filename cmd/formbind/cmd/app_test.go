package cmd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleDoc = `
schemas:
  article:
    title: Article
    fields:
      - name: title
        type: textline
        title: Title
      - name: zone
        type: textline
        title: Time zone
      - name: count
        type: int
        title: Count
        min: 0
        required: false
`

const contentDoc = `
article:
  "1":
    title: Hello
    zone: Europe/Paris
    count: 2
  "2":
    title: Second
    zone: UTC
    count: 0
`

func newTestApp(t *testing.T, mutate func(*Config)) *app {
	t.Helper()
	dir := t.TempDir()
	schemas := filepath.Join(dir, "schemas")
	require.NoError(t, os.Mkdir(schemas, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(schemas, "article.yaml"), []byte(articleDoc), 0o644))
	content := filepath.Join(dir, "content.yaml")
	require.NoError(t, os.WriteFile(content, []byte(contentDoc), 0o644))

	cfg := defaultConfig()
	cfg.Schemas = schemas
	cfg.Content = content
	if mutate != nil {
		mutate(&cfg)
	}
	logger, _ := test.NewNullLogger()
	a, err := newApp(context.Background(), cfg, logger)
	require.NoError(t, err)
	return a
}

func serveRequest(t *testing.T, h http.Handler, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	r := httptest.NewRequest(method, target, body)
	if form != nil {
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func TestEditRouteRendersAndUpdates(t *testing.T) {
	a := newTestApp(t, func(cfg *Config) {
		cfg.Widgets = []WidgetConfig{{Schema: "article", Field: "zone", Widget: "TimezoneWidget"}}
	})
	h, err := a.routes()
	require.NoError(t, err)

	rec := serveRequest(t, h, http.MethodGet, "/edit/article/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := rec.Body.String()
	assert.Contains(t, page, `name="field.title"`)
	assert.Contains(t, page, `value="Hello"`)
	assert.Contains(t, page, `value="Asia/Tokyo"`, "zone should render as the time zone dropdown")

	rec = serveRequest(t, h, http.MethodPost, "/edit/article/1", url.Values{
		"field.title":   {"Changed"},
		"field.zone":    {"Asia/Tokyo"},
		"field.count":   {"5"},
		"UPDATE_SUBMIT": {""},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	item, ok := a.content.get("article", "1")
	require.True(t, ok)
	assert.Equal(t, "Changed", item["title"])
	assert.Equal(t, "Asia/Tokyo", item["zone"])
	assert.EqualValues(t, 5, item["count"])
}

func TestEditRouteKeepsContentOnInputErrors(t *testing.T) {
	a := newTestApp(t, nil)
	h, err := a.routes()
	require.NoError(t, err)

	rec := serveRequest(t, h, http.MethodPost, "/edit/article/2", url.Values{
		"field.title":   {"Renamed"},
		"field.zone":    {"UTC"},
		"field.count":   {"-3"},
		"UPDATE_SUBMIT": {""},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	item, _ := a.content.get("article", "2")
	assert.Equal(t, "Second", item["title"])
}

func TestEditRouteUnknownItem(t *testing.T) {
	a := newTestApp(t, nil)
	h, err := a.routes()
	require.NoError(t, err)

	rec := serveRequest(t, h, http.MethodGet, "/edit/article/404", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWizardRoute(t *testing.T) {
	a := newTestApp(t, func(cfg *Config) {
		cfg.Sessions = true
		cfg.Wizards = []WizardConfig{{
			Schema: "article",
			Panes: []PaneConfig{
				{Label: "Basics", Fields: []string{"title"}},
				{Label: "Details", Fields: []string{"zone", "count"}},
			},
		}}
	})
	h, err := a.routes()
	require.NoError(t, err)

	rec := serveRequest(t, h, http.MethodGet, "/wizard/article/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="field.title"`)
	assert.NotContains(t, rec.Body.String(), `name="field.count"`)
}

func TestWizardForUnknownSchema(t *testing.T) {
	a := newTestApp(t, func(cfg *Config) {
		cfg.Wizards = []WizardConfig{{Schema: "missing", Panes: []PaneConfig{{Label: "A", Fields: []string{"x"}}}}}
	})
	_, err := a.routes()
	assert.Error(t, err)
}

func TestSchemaIndexRoute(t *testing.T) {
	a := newTestApp(t, nil)
	h, err := a.routes()
	require.NoError(t, err)

	rec := serveRequest(t, h, http.MethodGet, "/schemas", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var index []schemaInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &index))
	require.Len(t, index, 1)
	assert.Equal(t, "article", index[0].Name)
	assert.Equal(t, "Article", index[0].Title)
	assert.Equal(t, []string{"1", "2"}, index[0].Content)
	require.Len(t, index[0].Fields, 3)
	assert.Equal(t, fieldInfo{Name: "count", Title: "Count", Kind: "int"}, index[0].Fields[2])
}

func TestTimezoneSearchRoute(t *testing.T) {
	a := newTestApp(t, nil)
	h, err := a.routes()
	require.NoError(t, err)

	rec := serveRequest(t, h, http.MethodGet, "/api/timezones?q=paris", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"value":"Europe/Paris"`)
}

func TestNewAppErrors(t *testing.T) {
	logger, _ := test.NewNullLogger()
	_, err := newApp(context.Background(), defaultConfig(), logger)
	assert.Error(t, err, "no schema source")

	for name, widget := range map[string]WidgetConfig{
		"unknown schema": {Schema: "page", Field: "zone", Widget: "TimezoneWidget"},
		"unknown field":  {Schema: "article", Field: "missing", Widget: "TimezoneWidget"},
		"unknown widget": {Schema: "article", Field: "zone", Widget: "NoSuchWidget"},
	} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, "article.yaml"), []byte(articleDoc), 0o644))
			cfg := defaultConfig()
			cfg.Schemas = dir
			cfg.Widgets = []WidgetConfig{widget}
			_, err := newApp(context.Background(), cfg, logger)
			assert.Error(t, err)
		})
	}
}

func TestNewAppImportsOpenAPI(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
openapi: 3.0.3
info: {title: Notes, version: "1.0"}
paths:
  /notes:
    post:
      operationId: createNote
      summary: Create a note
      requestBody:
        content:
          application/x-www-form-urlencoded:
            schema: {$ref: "#/components/schemas/Note"}
      responses:
        "201": {description: created}
components:
  schemas:
    Note:
      type: object
      required: [body]
      properties:
        body: {type: string}
`), 0o644))
	a := newTestApp(t, func(cfg *Config) { cfg.OpenAPI = path })

	assert.Equal(t, []string{"Note", "article"}, a.names)
	info := a.describe(false)
	require.Len(t, info, 2)
	require.NotNil(t, info[0].Form)
	assert.Equal(t, "createNote", info[0].Form.ID)
	assert.Equal(t, "Create a note", info[0].Form.Summary)
}
