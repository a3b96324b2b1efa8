package browser

import (
	"fmt"
	"sort"
	"strings"
)

// Attrs holds the attributes of a rendered tag. A few keys are special:
// "cssClass" becomes the class attribute (extended with "<type>Type" when a
// type is given), "style" is rendered right after it, "extra" is appended
// verbatim and "contents" makes RenderElement emit a closing tag. A nil
// value renders the attribute name as its value.
type Attrs map[string]any

// RenderTag renders the opening part of tag without the closing bracket.
func RenderTag(tag string, attrs Attrs) string {
	kw := make(map[string]any, len(attrs))
	for k, v := range attrs {
		kw[k] = v
	}
	var parts []string

	cssClass := stringAttr(kw, "cssClass")
	delete(kw, "cssClass")
	if typ, ok := kw["type"]; ok {
		cssClass = strings.TrimSpace(fmt.Sprintf("%s %vType", cssClass, typ))
	}
	if cssClass != "" {
		parts = append(parts, `class="`+cssClass+`"`)
	}

	if style := stringAttr(kw, "style"); style != "" {
		parts = append(parts, "style="+quoteAttr(style))
	}
	delete(kw, "style")

	extra := stringAttr(kw, "extra")
	delete(kw, "extra")
	delete(kw, "contents")

	keys := make([]string, 0, len(kw))
	for k := range kw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		value := kw[key]
		if value == nil {
			value = key
		}
		parts = append(parts, key+"="+quoteAttr(fmt.Sprint(value)))
	}
	if extra != "" {
		parts = append(parts, extra)
	}
	if len(parts) == 0 {
		return "<" + tag
	}
	return "<" + tag + " " + strings.Join(parts, " ")
}

// RenderElement renders a complete element. Without "contents" the element
// self-closes.
func RenderElement(tag string, attrs Attrs) string {
	if contents, ok := attrs["contents"]; ok && contents != nil {
		return fmt.Sprintf("%s>%v</%s>", RenderTag(tag, attrs), contents, tag)
	}
	return RenderTag(tag, attrs) + " />"
}

func stringAttr(kw map[string]any, key string) string {
	v, ok := kw[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("\n", "&#10;", "\r", "&#13;", "\t", "&#9;")
)

// escape escapes text content.
func escape(s string) string {
	return textEscaper.Replace(s)
}

// quoteAttr escapes an attribute value and wraps it in quotes, switching to
// single quotes when the value holds double quotes only.
func quoteAttr(s string) string {
	s = attrEscaper.Replace(escape(s))
	if strings.Contains(s, `"`) {
		if strings.Contains(s, "'") {
			return `"` + strings.ReplaceAll(s, `"`, "&quot;") + `"`
		}
		return "'" + s + "'"
	}
	return `"` + s + `"`
}
