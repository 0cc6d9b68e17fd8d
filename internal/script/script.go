// Package script - запуск скриптов из корневого каталога для явно перечисленных
// в конфигурации путей запроса. Пути, которых нет в списке, скриптами не
// считаются и отдаются как обычные файлы.
package script

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/Kostushka/webroot_server/internal/resolver"
)

// DefaultContentType - тип содержимого вывода скрипта по умолчанию
const DefaultContentType = "text/html"

// DefaultTimeout - предельное время работы скрипта по умолчанию
const DefaultTimeout = 5 * time.Second

const waitDelay = 500 * time.Millisecond

var (
	// ErrNotAllowed - путь не входит в список разрешенных скриптов
	ErrNotAllowed = errors.New("скрипт не разрешен")
	// ErrFailed - скрипт завершился с ошибкой или по таймауту
	ErrFailed = errors.New("ошибка выполнения скрипта")
)

// Entry - разрешенный скрипт
type Entry struct {
	// Interpreter - команда и аргументы, которым передается путь до скрипта;
	// если пусто, скрипт запускается напрямую
	Interpreter []string
	// ContentType - тип содержимого вывода
	ContentType string
}

// Runner - запуск разрешенных скриптов
type Runner struct {
	resolver *resolver.Resolver
	entries  map[string]Entry
	timeout  time.Duration
}

// New - создать Runner; ключи entries - пути запроса вида "/make_time.py"
func New(r *resolver.Resolver, entries map[string]Entry, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	norm := make(map[string]Entry, len(entries))
	for target, e := range entries {
		if e.ContentType == "" {
			e.ContentType = DefaultContentType
		}

		norm[cleanTarget(target)] = e
	}

	return &Runner{
		resolver: r,
		entries:  norm,
		timeout:  timeout,
	}
}

// Allowed - входит ли путь запроса в список разрешенных скриптов
func (s *Runner) Allowed(target string) bool {
	if s == nil {
		return false
	}

	_, ok := s.entries[cleanTarget(target)]

	return ok
}

// Run - выполнить скрипт для пути запроса target и вернуть его вывод как файл
func (s *Runner) Run(ctx context.Context, target string) (resolver.Resource, error) {
	e, ok := s.entries[cleanTarget(target)]
	if !ok {
		return resolver.Missing, fmt.Errorf("%q: %w", target, ErrNotAllowed)
	}

	// сам скрипт, как и любой файл, обязан лежать внутри корня
	scriptPath, err := s.resolver.RealPath(target)
	if err != nil {
		if resolver.IsMissing(err) {
			return resolver.Missing, nil
		}

		return resolver.Missing, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	args := append(append([]string(nil), e.Interpreter...), scriptPath)

	cmd := exec.CommandContext(ctx, args[0], args[1:]...) //nolint:gosec
	cmd.Dir = filepath.Dir(scriptPath)
	// дочерние процессы скрипта могут держать stdout открытым после его завершения
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}

		return resolver.Missing, fmt.Errorf("%w %q: %w: %s", ErrFailed, target, err, strings.TrimSpace(stderr.String()))
	}

	return resolver.Resource{
		Kind:      resolver.KindFile,
		Content:   stdout.Bytes(),
		MediaType: e.ContentType,
	}, nil
}

func cleanTarget(target string) string {
	return path.Clean("/" + target)
}
