package browser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-formbind/pkg/form"
	"github.com/goliatone/go-formbind/pkg/schema"
)

// NoValueMessage labels the entry standing for "no selection".
const NoValueMessage = "(no value)"

// ErrNoVocabulary is returned when an item widget is created for a field
// without a vocabulary.
var ErrNoVocabulary = errors.New("browser: field has no vocabulary")

// vocabularyOf finds the vocabulary of a choice field, of the choice value
// type of a collection, or the first vocabulary in args.
func vocabularyOf(field schema.Field, args []any) (schema.Vocabulary, error) {
	for _, arg := range args {
		if vocab, ok := arg.(schema.Vocabulary); ok && vocab != nil {
			return vocab, nil
		}
	}
	switch f := field.(type) {
	case *schema.Choice:
		if f.Vocabulary() != nil {
			return f.Vocabulary(), nil
		}
	case *schema.Collection:
		if choice, ok := f.ValueType().(*schema.Choice); ok && choice.Vocabulary() != nil {
			return choice.Vocabulary(), nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNoVocabulary, field.Name())
}

// ItemsWidget holds what every vocabulary-backed widget shares.
type ItemsWidget struct {
	Widget
	Vocabulary     schema.Vocabulary
	NoValueMessage string
}

func newItems(field schema.Field, req *form.Request, args []any) (ItemsWidget, error) {
	vocab, err := vocabularyOf(field, args)
	if err != nil {
		return ItemsWidget{}, err
	}
	return ItemsWidget{Widget: newWidget(field, req), Vocabulary: vocab, NoValueMessage: NoValueMessage}, nil
}

func (w *ItemsWidget) emptyMarkerName() string { return w.Name() + "-empty-marker" }

// HasInput reports whether the request carries selected tokens or the
// empty marker rendered with every edit form.
func (w *ItemsWidget) HasInput() bool {
	req := w.Request()
	return req.Has(w.Name()) || req.Has(w.emptyMarkerName())
}

func (w *ItemsWidget) emptyMarker() string {
	return fmt.Sprintf(`<input name=%s type="hidden" value="1" />`, quoteAttr(w.emptyMarkerName()))
}

func (w *ItemsWidget) textForTerm(term schema.Term) string {
	return w.Request().Translate(term.Label())
}

func (w *ItemsWidget) noValueText() string {
	return w.Request().Translate(w.NoValueMessage)
}

func (w *ItemsWidget) tokensToValues(tokens []string) ([]any, error) {
	values := make([]any, 0, len(tokens))
	for _, token := range tokens {
		term, ok := w.Vocabulary.TermByToken(token)
		if !ok {
			return nil, form.NewConversionError("Invalid value", fmt.Errorf("token %q not in vocabulary", token))
		}
		values = append(values, term.Value)
	}
	return values, nil
}

func (w *ItemsWidget) tokenFor(value any) (string, bool) {
	term, ok := w.Vocabulary.TermByValue(value)
	if !ok {
		return "", false
	}
	return term.Token, true
}

func (w *ItemsWidget) div(cssClass, contents string) string {
	if contents == "" {
		return ""
	}
	return RenderElement("div", Attrs{"cssClass": cssClass, "contents": "\n" + contents + "\n"})
}

func (w *ItemsWidget) validate(value any) (any, error) {
	field := w.Field()
	if isMissing(field, value) && !field.Required() {
		return value, nil
	}
	if err := field.Validate(value); err != nil {
		return nil, wrapValidation(field, w.Label(), err)
	}
	return value, nil
}

// SingleItemWidget selects one term of a vocabulary.
type SingleItemWidget struct {
	ItemsWidget
}

func (w *SingleItemWidget) GetInputValue() (any, error) {
	value, err := w.inputValue()
	w.setInputError(err)
	return value, err
}

func (w *SingleItemWidget) inputValue() (any, error) {
	field := w.Field()
	if !w.HasInput() {
		return nil, form.NewMissingInputError(field.Name(), w.Label(), nil)
	}
	token := w.Request().Get(w.Name())
	var value any
	if token == "" {
		value = field.MissingValue()
	} else {
		values, err := w.tokensToValues([]string{token})
		if err != nil {
			return nil, form.NewWidgetInputError(field.Name(), w.Label(), err)
		}
		value = values[0]
	}
	return w.validate(value)
}

func (w *SingleItemWidget) Validate() error { return form.Validate(w) }

func (w *SingleItemWidget) HasValidInput() bool { return form.HasValidInput(w) }

func (w *SingleItemWidget) ApplyChanges(content any) (bool, error) {
	return form.ApplyChanges(w, content)
}

// selected returns the value to mark selected and whether there is one.
func (w *SingleItemWidget) selected() (any, bool) {
	value, ok := w.RenderedValue()
	switch {
	case ok:
	case w.HasInput():
		var err error
		if value, err = w.inputValue(); err != nil {
			term, found := w.Vocabulary.TermByToken(w.Request().Get(w.Name()))
			if !found {
				return nil, false
			}
			value = term.Value
		}
	default:
		value = w.Field().Default()
	}
	if isMissing(w.Field(), value) {
		return nil, false
	}
	return value, true
}

func (w *SingleItemWidget) Hidden() string {
	token := ""
	if value, ok := w.selected(); ok {
		token, _ = w.tokenFor(value)
	}
	return RenderElement("input", Attrs{
		"type":     "hidden",
		"name":     w.Name(),
		"id":       w.Name(),
		"value":    token,
		"cssClass": w.CSSClass,
		"extra":    w.Extra,
	})
}

// renderItems renders one entry per term, preceded by a "no value" entry
// for optional fields.
func (w *SingleItemWidget) renderItems(render func(index int, text, token string, selected bool) string) []string {
	value, hasValue := w.selected()
	var items []string
	index := 0
	if !w.Field().Required() {
		items = append(items, render(index, w.noValueText(), "", !hasValue))
		index++
	}
	for _, term := range w.Vocabulary.Terms() {
		selected := hasValue && schema.Equal(term.Value, value)
		items = append(items, render(index, w.textForTerm(term), term.Token, selected))
		index++
	}
	return items
}

func (w *SingleItemWidget) wrap(value string) string {
	return w.div(w.CSSClass, w.div("value", value)+"\n"+w.emptyMarker())
}

// SelectWidget renders a select list.
type SelectWidget struct {
	SingleItemWidget
	Size int
}

// NewSelectWidget creates a select list widget. args may carry the
// vocabulary.
func NewSelectWidget(field schema.Field, req *form.Request, args ...any) (form.Widget, error) {
	items, err := newItems(field, req, args)
	if err != nil {
		return nil, err
	}
	return &SelectWidget{SingleItemWidget: SingleItemWidget{ItemsWidget: items}, Size: 5}, nil
}

// NewDropdownWidget creates a single-row select widget.
func NewDropdownWidget(field schema.Field, req *form.Request, args ...any) (form.Widget, error) {
	w, err := NewSelectWidget(field, req, args...)
	if err != nil {
		return nil, err
	}
	w.(*SelectWidget).Size = 1
	return w, nil
}

func (w *SelectWidget) Render() string {
	items := w.renderItems(func(_ int, text, token string, selected bool) string {
		return renderOption(text, token, w.CSSClass, selected)
	})
	return w.wrap(RenderElement("select", Attrs{
		"name":     w.Name(),
		"id":       w.Name(),
		"size":     w.Size,
		"contents": "\n" + strings.Join(items, "\n") + "\n",
		"extra":    w.Extra,
	}))
}

func renderOption(text, token, cssClass string, selected bool) string {
	attrs := Attrs{"contents": escape(text), "value": token, "cssClass": cssClass}
	if selected {
		attrs["selected"] = "selected"
	}
	return RenderElement("option", attrs)
}

// RadioWidget renders one radio button per term.
type RadioWidget struct {
	SingleItemWidget
	// Orientation is "vertical" or "horizontal".
	Orientation string
}

// NewRadioWidget creates a radio button widget.
func NewRadioWidget(field schema.Field, req *form.Request, args ...any) (form.Widget, error) {
	items, err := newItems(field, req, args)
	if err != nil {
		return nil, err
	}
	return &RadioWidget{SingleItemWidget: SingleItemWidget{ItemsWidget: items}, Orientation: "vertical"}, nil
}

func (w *RadioWidget) Render() string {
	items := w.renderItems(func(index int, text, token string, selected bool) string {
		return renderButton("radio", w.Name(), index, text, token, w.CSSClass, selected)
	})
	return w.wrap(joinButtons(items, w.Orientation))
}

func renderButton(kind, name string, index int, text, token, cssClass string, selected bool) string {
	id := fmt.Sprintf("%s.%d", name, index)
	attrs := Attrs{"type": kind, "name": name, "id": id, "value": token, "cssClass": cssClass}
	if selected {
		attrs["checked"] = "checked"
	}
	return RenderElement("label", Attrs{
		"for":      id,
		"contents": RenderElement("input", attrs) + "&nbsp;" + escape(text),
	})
}

func joinButtons(items []string, orientation string) string {
	if orientation == "horizontal" {
		return strings.Join(items, "&nbsp;&nbsp;")
	}
	return strings.Join(items, "<br />")
}

// MultiItemsWidget selects several terms of a vocabulary.
type MultiItemsWidget struct {
	ItemsWidget
}

func (w *MultiItemsWidget) GetInputValue() (any, error) {
	value, err := w.inputValue()
	w.setInputError(err)
	return value, err
}

func (w *MultiItemsWidget) inputValue() (any, error) {
	field := w.Field()
	if !w.HasInput() {
		return nil, form.NewMissingInputError(field.Name(), w.Label(), nil)
	}
	var tokens []string
	for _, token := range w.Request().Values(w.Name()) {
		if token != "" {
			tokens = append(tokens, token)
		}
	}
	values, err := w.tokensToValues(tokens)
	if err != nil {
		return nil, form.NewWidgetInputError(field.Name(), w.Label(), err)
	}
	return w.validate(values)
}

func (w *MultiItemsWidget) Validate() error { return form.Validate(w) }

func (w *MultiItemsWidget) HasValidInput() bool { return form.HasValidInput(w) }

func (w *MultiItemsWidget) ApplyChanges(content any) (bool, error) {
	return form.ApplyChanges(w, content)
}

// selected returns the chosen values in order.
func (w *MultiItemsWidget) selected() []any {
	value, ok := w.RenderedValue()
	switch {
	case ok:
	case w.HasInput():
		var err error
		if value, err = w.inputValue(); err != nil {
			var out []any
			for _, token := range w.Request().Values(w.Name()) {
				if term, found := w.Vocabulary.TermByToken(token); found {
					out = append(out, term.Value)
				}
			}
			return out
		}
	default:
		value = w.Field().Default()
	}
	items, _ := schema.Items(value)
	return items
}

func (w *MultiItemsWidget) isSelected(selected []any, value any) bool {
	for _, s := range selected {
		if schema.Equal(s, value) {
			return true
		}
	}
	return false
}

func (w *MultiItemsWidget) Hidden() string {
	var out []string
	for _, value := range w.selected() {
		token, ok := w.tokenFor(value)
		if !ok {
			continue
		}
		out = append(out, RenderElement("input", Attrs{
			"type":     "hidden",
			"name":     w.Name(),
			"id":       w.Name(),
			"value":    token,
			"cssClass": w.CSSClass,
			"extra":    w.Extra,
		}))
	}
	return strings.Join(append(out, w.emptyMarker()), "\n")
}

func (w *MultiItemsWidget) renderItems(render func(index int, text, token string, selected bool) string) []string {
	selected := w.selected()
	items := make([]string, 0, w.Vocabulary.Len())
	for i, term := range w.Vocabulary.Terms() {
		items = append(items, render(i, w.textForTerm(term), term.Token, w.isSelected(selected, term.Value)))
	}
	return items
}

func (w *MultiItemsWidget) wrap(value string) string {
	return w.div(w.CSSClass, w.div("value", value)+"\n"+w.emptyMarker())
}

// MultiSelectWidget renders a multiple-choice select list.
type MultiSelectWidget struct {
	MultiItemsWidget
	Size int
}

// NewMultiSelectWidget creates a multiple-choice select widget.
func NewMultiSelectWidget(field schema.Field, req *form.Request, args ...any) (form.Widget, error) {
	items, err := newItems(field, req, args)
	if err != nil {
		return nil, err
	}
	return &MultiSelectWidget{MultiItemsWidget: MultiItemsWidget{ItemsWidget: items}, Size: 5}, nil
}

func (w *MultiSelectWidget) Render() string {
	items := w.renderItems(func(_ int, text, token string, selected bool) string {
		return renderOption(text, token, w.CSSClass, selected)
	})
	return w.wrap(RenderElement("select", Attrs{
		"name":     w.Name(),
		"id":       w.Name(),
		"multiple": "multiple",
		"size":     w.Size,
		"contents": "\n" + strings.Join(items, "\n") + "\n",
		"extra":    w.Extra,
	}))
}

// MultiCheckBoxWidget renders one checkbox per term.
type MultiCheckBoxWidget struct {
	MultiItemsWidget
	Orientation string
}

// NewMultiCheckBoxWidget creates a checkbox list widget.
func NewMultiCheckBoxWidget(field schema.Field, req *form.Request, args ...any) (form.Widget, error) {
	items, err := newItems(field, req, args)
	if err != nil {
		return nil, err
	}
	return &MultiCheckBoxWidget{MultiItemsWidget: MultiItemsWidget{ItemsWidget: items}, Orientation: "vertical"}, nil
}

func (w *MultiCheckBoxWidget) Render() string {
	items := w.renderItems(func(index int, text, token string, selected bool) string {
		return renderButton("checkbox", w.Name(), index, text, token, w.CSSClass, selected)
	})
	return w.wrap(joinButtons(items, w.Orientation))
}

// OrderedMultiSelectWidget shows the available terms and the chosen terms
// in their chosen order. The order is submitted through hidden inputs
// named after the widget.
type OrderedMultiSelectWidget struct {
	MultiItemsWidget
	Size int
}

// NewOrderedMultiSelectWidget creates an ordered selection widget.
func NewOrderedMultiSelectWidget(field schema.Field, req *form.Request, args ...any) (form.Widget, error) {
	items, err := newItems(field, req, args)
	if err != nil {
		return nil, err
	}
	return &OrderedMultiSelectWidget{MultiItemsWidget: MultiItemsWidget{ItemsWidget: items}, Size: 5}, nil
}

func (w *OrderedMultiSelectWidget) Render() string {
	selected := w.selected()
	var available, chosen, hidden []string
	for _, term := range w.Vocabulary.Terms() {
		if !w.isSelected(selected, term.Value) {
			available = append(available, renderOption(w.textForTerm(term), term.Token, w.CSSClass, false))
		}
	}
	for _, value := range selected {
		term, ok := w.Vocabulary.TermByValue(value)
		if !ok {
			continue
		}
		chosen = append(chosen, renderOption(w.textForTerm(term), term.Token, w.CSSClass, false))
		hidden = append(hidden, fmt.Sprintf(`<input name=%s type="hidden" value=%s />`, quoteAttr(w.Name()), quoteAttr(term.Token)))
	}
	list := func(suffix string, options []string) string {
		return RenderElement("select", Attrs{
			"id":       w.Name() + "." + suffix,
			"name":     w.Name() + "." + suffix,
			"multiple": "multiple",
			"size":     w.Size,
			"contents": "\n" + strings.Join(options, "\n") + "\n",
		})
	}
	parts := []string{list("from", available), list("to", chosen)}
	parts = append(parts, hidden...)
	return w.wrap(RenderElement("div", Attrs{
		"cssClass": "ordered-selection",
		"contents": "\n" + strings.Join(parts, "\n") + "\n",
		"extra":    w.Extra,
	}))
}

// ItemDisplayWidget renders the title of the selected term.
type ItemDisplayWidget struct {
	ItemsWidget
}

// NewItemDisplayWidget creates a single term display widget.
func NewItemDisplayWidget(field schema.Field, req *form.Request, args ...any) (form.Widget, error) {
	items, err := newItems(field, req, args)
	if err != nil {
		return nil, err
	}
	return &ItemDisplayWidget{ItemsWidget: items}, nil
}

func (w *ItemDisplayWidget) DisplayOnly() {}

func (w *ItemDisplayWidget) Required() bool { return false }

func (w *ItemDisplayWidget) Render() string {
	value, ok := w.RenderedValue()
	if !ok {
		value = w.Field().Default()
	}
	if isMissing(w.Field(), value) || value == "" {
		return escape(w.noValueText())
	}
	term, found := w.Vocabulary.TermByValue(value)
	if !found {
		return escape(toText(value))
	}
	return escape(w.textForTerm(term))
}

// ItemsMultiDisplayWidget renders the titles of several terms as a list.
type ItemsMultiDisplayWidget struct {
	ItemsWidget
	Tag string
}

// NewItemsMultiDisplayWidget creates an ordered list display widget.
func NewItemsMultiDisplayWidget(field schema.Field, req *form.Request, args ...any) (form.Widget, error) {
	items, err := newItems(field, req, args)
	if err != nil {
		return nil, err
	}
	return &ItemsMultiDisplayWidget{ItemsWidget: items, Tag: "ol"}, nil
}

// NewListDisplayWidget creates an ordered list display widget.
func NewListDisplayWidget(field schema.Field, req *form.Request, args ...any) (form.Widget, error) {
	return NewItemsMultiDisplayWidget(field, req, args...)
}

// NewSetDisplayWidget creates an unordered list display widget.
func NewSetDisplayWidget(field schema.Field, req *form.Request, args ...any) (form.Widget, error) {
	w, err := NewItemsMultiDisplayWidget(field, req, args...)
	if err != nil {
		return nil, err
	}
	w.(*ItemsMultiDisplayWidget).Tag = "ul"
	return w, nil
}

func (w *ItemsMultiDisplayWidget) DisplayOnly() {}

func (w *ItemsMultiDisplayWidget) Required() bool { return false }

func (w *ItemsMultiDisplayWidget) Render() string {
	value, ok := w.RenderedValue()
	if !ok {
		value = w.Field().Default()
	}
	values, _ := schema.Items(value)
	if len(values) == 0 {
		return escape(w.noValueText())
	}
	itemClass := ""
	if w.CSSClass != "" {
		itemClass = w.CSSClass + "-item"
	}
	items := make([]string, 0, len(values))
	for _, v := range values {
		text := toText(v)
		if term, found := w.Vocabulary.TermByValue(v); found {
			text = w.textForTerm(term)
		}
		items = append(items, RenderElement("li", Attrs{"cssClass": itemClass, "contents": escape(text)}))
	}
	return RenderElement(w.Tag, Attrs{
		"id":       w.Name(),
		"cssClass": w.CSSClass,
		"contents": "\n" + strings.Join(items, "\n") + "\n",
		"extra":    w.Extra,
	})
}
