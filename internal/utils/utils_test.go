package utils

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr error
	}{
		{in: "", want: ""},
		{in: "0414-1234567", want: "+584141234567"},
		{in: "+58 412 555 1234", want: "+584125551234"},
		{in: "hello", wantErr: ErrInvalidPhone},
		{in: "123", wantErr: ErrInvalidPhone},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizePhone(tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetPage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		query string
		want  Page
	}{
		{query: "", want: Page{Page: 1, PageSize: DefaultPageSize}},
		{query: "?page=3&page_size=10", want: Page{Page: 3, PageSize: 10}},
		{query: "?page=-1&page_size=500", want: Page{Page: 1, PageSize: MaxPageSize}},
		{query: "?page=x&page_size=y", want: Page{Page: 1, PageSize: DefaultPageSize}},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/"+tt.query, nil)
		if got := GetPage(c); got != tt.want {
			t.Errorf("%q: got %+v, want %+v", tt.query, got, tt.want)
		}
	}
}
