package cmd

import (
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

type fieldInfo struct {
	Name     string `json:"name"`
	Title    string `json:"title,omitempty"`
	Kind     string `json:"kind"`
	Required bool   `json:"required"`
	Readonly bool   `json:"readonly,omitempty"`
}

type formInfo struct {
	ID      string `json:"id"`
	Method  string `json:"method"`
	Path    string `json:"path"`
	Summary string `json:"summary,omitempty"`
}

type schemaInfo struct {
	Name    string      `json:"name"`
	Title   string      `json:"title,omitempty"`
	Fields  []fieldInfo `json:"fields"`
	Form    *formInfo   `json:"form,omitempty"`
	Content []string    `json:"content,omitempty"`
	Wizard  bool        `json:"wizard,omitempty"`
}

func newSchemasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schemas",
		Short: "Print the loaded schemas as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(a.describe(false), "", "  ")
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(append(out, '\n'))
			return err
		},
	}
}

// describe summarises every schema; withContent adds the ids of the
// editable items.
func (a *app) describe(withContent bool) []schemaInfo {
	out := make([]schemaInfo, 0, len(a.names))
	for _, name := range a.names {
		s := a.schemas[name]
		info := schemaInfo{Name: name, Title: s.Title()}
		for _, f := range s.Fields() {
			info.Fields = append(info.Fields, fieldInfo{
				Name:     f.Name(),
				Title:    f.Title(),
				Kind:     string(f.Kind()),
				Required: f.Required(),
				Readonly: f.Readonly(),
			})
		}
		if f, ok := a.forms[name]; ok {
			info.Form = &formInfo{ID: f.ID, Method: f.Method, Path: f.Path, Summary: f.Summary}
		}
		if withContent {
			info.Content = a.content.ids(name)
			_, info.Wizard = a.cfg.wizard(name)
		}
		out = append(out, info)
	}
	return out
}
