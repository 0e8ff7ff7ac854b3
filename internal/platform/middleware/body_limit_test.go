package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestParseLimit(t *testing.T) {
	tests := map[string]int64{
		"1M":      1 << 20,
		"2mb":     2 << 20,
		"64K":     64 << 10,
		"512KB":   512 << 10,
		"300B":    300,
		"1024":    1024,
		"":        defaultBodyLimit,
		"invalid": defaultBodyLimit,
		"-5K":     defaultBodyLimit,
	}
	for input, want := range tests {
		if got := parseLimit(input); got != want {
			t.Errorf("parseLimit(%q) = %d, want %d", input, got, want)
		}
	}
}

func decodeRequest(c echo.Context) error {
	var body map[string]interface{}
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, body)
}

func TestBodyLimit(t *testing.T) {
	small := `{"qr_token":"H1-101-A","request_type":"Leaking tap"}`
	large := `{"description":"` + strings.Repeat("x", 2048) + `"}`

	tests := []struct {
		name     string
		body     string
		chunked  bool
		wantCode int
	}{
		{"small body decoded", small, false, http.StatusCreated},
		{"oversized content length", large, false, http.StatusRequestEntityTooLarge},
		{"oversized chunked stream", large, true, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/requests", bytes.NewReader([]byte(tt.body)))
			if tt.chunked {
				req.ContentLength = -1
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := BodyLimit("1K")(decodeRequest)(c)
			code := rec.Code
			if err != nil {
				httpErr, ok := err.(*echo.HTTPError)
				if !ok {
					t.Fatalf("expected echo.HTTPError, got %T (%v)", err, err)
				}
				code = httpErr.Code
			}
			if code != tt.wantCode {
				t.Errorf("status = %d, want %d", code, tt.wantCode)
			}
		})
	}
}

func TestBodyLimit_SkipsEmptyBody(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/areas", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	err := BodyLimit("1")(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})(c)
	if err != nil || !called {
		t.Fatalf("err = %v, called = %v", err, called)
	}
}
