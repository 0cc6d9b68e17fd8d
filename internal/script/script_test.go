package script

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Kostushka/webroot_server/internal/resolver"
)

func newRunner(t *testing.T, scripts map[string]string, entries map[string]Entry, timeout time.Duration) *Runner {
	t.Helper()

	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skipf("sh не найден: %v", err)
	}

	root := t.TempDir()
	for name, body := range scripts {
		if err := os.WriteFile(filepath.Join(root, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	for k, e := range entries {
		e.Interpreter = []string{sh}
		entries[k] = e
	}

	r, err := resolver.New(root, nil)
	if err != nil {
		t.Fatal(err)
	}

	return New(r, entries, timeout)
}

func TestRun(t *testing.T) {
	s := newRunner(t,
		map[string]string{"make_time.sh": "echo '<p>time</p>'\n"},
		map[string]Entry{"/make_time.sh": {}},
		0)

	res, err := s.Run(context.Background(), "/make_time.sh")
	if err != nil {
		t.Fatal(err)
	}

	if res.Kind != resolver.KindFile || res.MediaType != DefaultContentType {
		t.Errorf("got %v %q", res.Kind, res.MediaType)
	}

	if strings.TrimSpace(string(res.Content)) != "<p>time</p>" {
		t.Errorf("вывод: got %q", res.Content)
	}
}

func TestAllowed(t *testing.T) {
	s := newRunner(t,
		map[string]string{"a.sh": "echo a\n", "b.sh": "echo b\n"},
		map[string]Entry{"a.sh": {ContentType: "text/plain"}},
		0)

	testCases := []struct {
		target string
		want   bool
	}{
		{target: "/a.sh", want: true},
		{target: "/./a.sh", want: true},
		{target: "/b.sh", want: false},
		{target: "/a.sh/", want: true},
		{target: "/", want: false},
	}

	for _, tc := range testCases {
		if got := s.Allowed(tc.target); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.target, got, tc.want)
		}
	}

	if _, err := s.Run(context.Background(), "/b.sh"); !errors.Is(err, ErrNotAllowed) {
		t.Errorf("got %v, want ErrNotAllowed", err)
	}

	var nilRunner *Runner
	if nilRunner.Allowed("/a.sh") {
		t.Error("пустой Runner не должен разрешать скрипты")
	}
}

func TestRunOutsideRoot(t *testing.T) {
	s := newRunner(t, nil, map[string]Entry{"/link.sh": {}}, 0)

	outside := filepath.Join(filepath.Dir(s.resolver.Root()), "evil.sh")
	if err := os.WriteFile(outside, []byte("echo pwned\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := os.Symlink(outside, filepath.Join(s.resolver.Root(), "link.sh")); err != nil {
		t.Skipf("символические ссылки недоступны: %v", err)
	}

	res, err := s.Run(context.Background(), "/link.sh")
	if err != nil || res.Kind != resolver.KindMissing {
		t.Errorf("got %v, %v, want missing", res.Kind, err)
	}
}

func TestRunFailures(t *testing.T) {
	s := newRunner(t,
		map[string]string{"fail.sh": "echo oops >&2\nexit 3\n", "slow.sh": "sleep 5\n"},
		map[string]Entry{"/fail.sh": {}, "/slow.sh": {}, "/absent.sh": {}},
		200*time.Millisecond)

	if _, err := s.Run(context.Background(), "/fail.sh"); !errors.Is(err, ErrFailed) {
		t.Errorf("ненулевой код выхода: got %v", err)
	}

	start := time.Now()
	if _, err := s.Run(context.Background(), "/slow.sh"); !errors.Is(err, ErrFailed) {
		t.Errorf("таймаут: got %v", err)
	}

	if time.Since(start) > 3*time.Second {
		t.Error("скрипт не был остановлен по таймауту")
	}

	res, err := s.Run(context.Background(), "/absent.sh")
	if err != nil || res.Kind != resolver.KindMissing {
		t.Errorf("отсутствующий скрипт: got %v, %v, want missing", res.Kind, err)
	}
}
