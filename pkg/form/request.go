package form

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/goliatone/go-formbind/pkg/i18n"
)

// DefaultMaxMemory bounds the in-memory part of multipart parsing.
const DefaultMaxMemory = 32 << 20

// Request carries the submitted form data a widget tree reads from, plus the
// locale and translator used for labels and messages.
type Request struct {
	Form       url.Values
	Files      map[string][]*multipart.FileHeader
	Locale     string
	Translator i18n.Translator
}

// RequestOption configures a Request.
type RequestOption func(*Request)

// WithLocale sets the request locale.
func WithLocale(locale string) RequestOption {
	return func(r *Request) {
		if locale = strings.TrimSpace(locale); locale != "" {
			r.Locale = locale
		}
	}
}

// WithTranslator sets the translator used by widgets bound to the request.
func WithTranslator(t i18n.Translator) RequestOption {
	return func(r *Request) {
		r.Translator = t
	}
}

// WithFiles attaches uploaded files keyed by form name.
func WithFiles(files map[string][]*multipart.FileHeader) RequestOption {
	return func(r *Request) {
		r.Files = files
	}
}

// NewRequest builds a request over already-decoded form values.
func NewRequest(values url.Values, opts ...RequestOption) *Request {
	if values == nil {
		values = url.Values{}
	}
	req := &Request{Form: values}
	for _, opt := range opts {
		if opt != nil {
			opt(req)
		}
	}
	return req
}

// FromHTTP parses the query string and body of r. Multipart bodies expose
// their files through Files. The locale defaults to the first
// Accept-Language tag.
func FromHTTP(r *http.Request, opts ...RequestOption) (*Request, error) {
	if r == nil {
		return nil, fmt.Errorf("form: http request is nil")
	}
	var files map[string][]*multipart.FileHeader
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(DefaultMaxMemory); err != nil {
			return nil, fmt.Errorf("form: parse multipart body: %w", err)
		}
		if r.MultipartForm != nil {
			files = r.MultipartForm.File
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("form: parse body: %w", err)
	}

	values := make(url.Values, len(r.Form))
	for key, vals := range r.Form {
		values[key] = append([]string(nil), vals...)
	}
	all := append([]RequestOption{
		WithLocale(acceptLanguage(r.Header.Get("Accept-Language"))),
		WithFiles(files),
	}, opts...)
	return NewRequest(values, all...), nil
}

// Has reports whether name was submitted as a value or a file.
func (r *Request) Has(name string) bool {
	if r == nil {
		return false
	}
	if _, ok := r.Form[name]; ok {
		return true
	}
	_, ok := r.Files[name]
	return ok
}

// Get returns the first submitted value for name.
func (r *Request) Get(name string) string {
	if r == nil {
		return ""
	}
	return r.Form.Get(name)
}

// Values returns every submitted value for name.
func (r *Request) Values(name string) []string {
	if r == nil {
		return nil
	}
	return r.Form[name]
}

// File returns the first uploaded file for name.
func (r *Request) File(name string) (*multipart.FileHeader, bool) {
	if r == nil || len(r.Files[name]) == 0 {
		return nil, false
	}
	return r.Files[name][0], true
}

// Set replaces the values for name.
func (r *Request) Set(name string, values ...string) {
	if r.Form == nil {
		r.Form = url.Values{}
	}
	r.Form[name] = values
}

// Del removes name from the submitted values.
func (r *Request) Del(name string) {
	if r == nil {
		return
	}
	r.Form.Del(name)
}

// Translate resolves msg for the request locale, falling back to msg itself.
func (r *Request) Translate(msg string, args ...any) string {
	if r == nil {
		return i18n.Interpolate(msg, args...)
	}
	return i18n.Translate(r.Translator, r.Locale, msg, msg, args...)
}

func acceptLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if tag != "" && tag != "*" {
			return tag
		}
	}
	return ""
}
