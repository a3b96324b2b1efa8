package timezones

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMountPathJoinsBasePath(t *testing.T) {
	cases := []struct {
		base string
		opts []Option
		want string
	}{
		{base: "/admin", want: "/admin/api/timezones"},
		{base: "admin", want: "/admin/api/timezones"},
		{base: "/admin/", opts: []Option{WithRoutePath("api/tz")}, want: "/admin/api/tz"},
		{base: "", want: "/api/timezones"},
		{base: "/", opts: []Option{WithRoutePath("zones")}, want: "/zones"},
	}
	for _, tc := range cases {
		if got := MountPath(tc.base, tc.opts...); got != tc.want {
			t.Fatalf("MountPath(%q) = %q, want %q", tc.base, got, tc.want)
		}
	}
}

func TestRegisterRoutesRegistersHandler(t *testing.T) {
	mux := http.NewServeMux()
	pattern, err := RegisterRoutes(mux, "/admin", WithZones([]string{"UTC"}))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if pattern != "/admin/api/timezones" {
		t.Fatalf("unexpected registered pattern: %q", pattern)
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, pattern+"?q=utc&limit=1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	if _, err := RegisterRoutes(nil, "/admin"); err == nil {
		t.Fatalf("expected an error for a nil mux")
	}
}
