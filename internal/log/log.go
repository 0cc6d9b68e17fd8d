// Package log - пакет с логером сервера
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

const permissions = 0644

// логер по умолчанию пишет в stderr, пока не вызван New
var logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

// New - создаем логер
// logFile - имя файла для записи лога или "", level - уровень логирования
func New(logFile, level string) (io.Closer, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	// создаем логер, пишущий в stdout
	if logFile == "" {
		logger = zerolog.New(consoleWriter(os.Stdout)).Level(lvl).With().Timestamp().Logger()

		return io.NopCloser(nil), nil
	}

	// создаем файл для записи лога
	f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permissions)
	if err != nil {
		return nil, err
	}

	// создаем логер, пишущий в файл
	logger = zerolog.New(f).Level(lvl).With().Timestamp().Logger()

	return f, nil
}

// ParseLevel - получить уровень логирования по имени; пустая строка - info
func ParseLevel(level string) (zerolog.Level, error) {
	if level == "" {
		return zerolog.InfoLevel, nil
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("некорректный уровень логирования %q: %w", level, err)
	}

	return lvl, nil
}

// на терминал пишем в читаемом виде, в остальных случаях - json
func consoleWriter(f *os.File) io.Writer {
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		return zerolog.ConsoleWriter{Out: f, TimeFormat: time.DateTime}
	}

	return f
}

// SetOutput - перенаправить лог в w (используется в тестах)
func SetOutput(w io.Writer) {
	logger = logger.Output(w)
}

// With - дочерний логер для добавления полей (например, идентификатора соединения)
func With() zerolog.Context {
	return logger.With()
}

// Infof - пишет информационный лог
func Infof(v ...any) {
	write(logger.Info(), v...)
}

// Debugf - пишет отладочный лог
func Debugf(v ...any) {
	write(logger.Debug(), v...)
}

// Errorf - пишет лог ошибки
func Errorf(v ...any) {
	write(logger.Error(), v...)
}

func write(e *zerolog.Event, v ...any) {
	if len(v) == 0 {
		e.Send()

		return
	}
	// строка лога без аргументов
	if len(v) == 1 {
		e.Msg(fmt.Sprint(v[0]))

		return
	}
	// строка лога с аргументами
	if r, ok := v[0].(string); ok {
		e.Msgf(r, v[1:]...)

		return
	}

	logger.Error().Msg("некорректный формат лога")
}
