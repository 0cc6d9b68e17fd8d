package headerdata

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestSerializeOK(t *testing.T) {
	body := []byte("foo")
	got := Serialize(OK("image/bmp", body))

	want := "HTTP/1.1 200 OK\r\nContent-Type: image/bmp\r\n\r\nfoo"
	if string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSerializeBinaryBody(t *testing.T) {
	body := []byte{0x00, 0xff, '\r', '\n', '\r', '\n', 0x10}
	got := Serialize(OK("application/octet-stream", body))

	i := bytes.Index(got, []byte("\r\n\r\n"))
	if i < 0 {
		t.Fatalf("нет конца заголовков: %q", got)
	}

	if !bytes.Equal(got[i+4:], body) {
		t.Errorf("тело изменено: got %v, want %v", got[i+4:], body)
	}
}

func TestErrorResponses(t *testing.T) {
	testCases := []struct {
		name       string
		build      func() []byte
		statusLine string
		body       string
	}{
		{
			name:       "not found",
			build:      func() []byte { return Serialize(NotFound()) },
			statusLine: "HTTP/1.1 404 Not Found",
			body:       bodyNotFound,
		},
		{
			name:       "method not allowed",
			build:      func() []byte { return Serialize(MethodNotAllowed()) },
			statusLine: "HTTP/1.1 405 Method Not Allowed",
			body:       bodyMethodNotAllowed,
		},
		{
			name:       "bad request",
			build:      func() []byte { return Serialize(BadRequest()) },
			statusLine: "HTTP/1.1 400 Bad Request",
			body:       bodyBadRequest,
		},
		{
			name:       "internal server error",
			build:      func() []byte { return Serialize(InternalServerError()) },
			statusLine: "HTTP/1.1 500 Internal Server Error",
			body:       bodyInternalServerError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := string(tc.build())

			head, body, ok := strings.Cut(got, "\r\n\r\n")
			if !ok {
				t.Fatalf("нет конца заголовков: %q", got)
			}

			if head != tc.statusLine {
				t.Errorf("строка статуса: got %q, want %q", head, tc.statusLine)
			}

			if body != tc.body {
				t.Errorf("тело: got %q, want %q", body, tc.body)
			}
		})
	}
}

func TestListing(t *testing.T) {
	r := Listing([]string{"a.txt", "images", ".hidden"})

	ct, ok := r.Header("Content-Type")
	if !ok || ct != "text/plain" {
		t.Errorf("Content-Type: got %q, want text/plain", ct)
	}

	if string(r.Body) != "a.txt\nimages\n.hidden" {
		t.Errorf("тело: got %q", r.Body)
	}

	if empty := Listing(nil); len(empty.Body) != 0 {
		t.Errorf("пустой каталог: got %q", empty.Body)
	}
}

func TestHeaderOrder(t *testing.T) {
	r := OK("text/html", nil)
	r.AddHeader("X-First", "1")
	r.AddHeader("X-Second", "2")

	want := "HTTP/1.1 200 OK\r\nContent-Type: text/html\r\nX-First: 1\r\nX-Second: 2\r\n\r\n"
	if got := string(Serialize(r)); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) {
	return len(p) / 2, nil
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) {
	return 0, io.ErrClosedPipe
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer

	n, err := Write(&buf, NotFound())
	if err != nil {
		t.Fatal(err)
	}

	if n != buf.Len() {
		t.Errorf("got %d, want %d", n, buf.Len())
	}

	if _, err := Write(shortWriter{}, NotFound()); !errors.Is(err, io.ErrShortWrite) {
		t.Errorf("got %v, want io.ErrShortWrite", err)
	}

	if _, err := Write(failWriter{}, NotFound()); !errors.Is(err, io.ErrClosedPipe) {
		t.Errorf("got %v, want io.ErrClosedPipe", err)
	}
}
