package querydata

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name    string
		line    string
		wantErr error
		path    string
	}{
		{name: "get", line: "GET /foo HTTP/1.1", path: "/foo"},
		{name: "get root", line: "GET / HTTP/1.0", path: "/"},
		{name: "path as is", line: "GET /a%20b.txt?x=1 HTTP/1.1", path: "/a%20b.txt?x=1"},
		{name: "post", line: "POST /foo HTTP/1.1", wantErr: ErrMethodNotAllowed},
		{name: "lowercase get", line: "get / HTTP/1.1", wantErr: ErrMethodNotAllowed},
		{name: "two tokens", line: "GET /", wantErr: ErrMalformedRequestLine},
		{name: "four tokens", line: "GET / HTTP/1.1 extra", wantErr: ErrMalformedRequestLine},
		{name: "double space", line: "GET  / HTTP/1.1", wantErr: ErrMalformedRequestLine},
		{name: "empty", line: "", wantErr: ErrMalformedRequestLine},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := Parse(tc.line)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("got %v, want %v", err, tc.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatalf("неожиданная ошибка: %v", err)
			}

			if q.Method() != MethodGet || q.Path() != tc.path {
				t.Errorf("got %s %s, want GET %s", q.Method(), q.Path(), tc.path)
			}
		})
	}
}

func TestParseMethodNotAllowedKeepsRequest(t *testing.T) {
	q, err := Parse("DELETE /x HTTP/1.1")
	if !errors.Is(err, ErrMethodNotAllowed) {
		t.Fatalf("got %v", err)
	}

	if q == nil || q.Method() != "DELETE" || q.Protocol() != "HTTP/1.1" {
		t.Errorf("got %+v", q)
	}
}

func TestNewParseQueryData(t *testing.T) {
	data := []byte("GET /sample.txt HTTP/1.1\r\nHost: localhost:10000\r\nAccept: */*\r\n\r\nignored body")

	q, err := NewParseQueryData(data)
	if err != nil {
		t.Fatal(err)
	}

	if q.Path() != "/sample.txt" || q.Protocol() != "HTTP/1.1" {
		t.Errorf("got %s %s", q.Path(), q.Protocol())
	}
}

func TestFirstLine(t *testing.T) {
	if got := FirstLine([]byte("GET / HTTP/1.1\r\n\r\n")); got != "GET / HTTP/1.1" {
		t.Errorf("got %q", got)
	}

	if got := FirstLine([]byte("no terminator")); got != "no terminator" {
		t.Errorf("got %q", got)
	}
}
