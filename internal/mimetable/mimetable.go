// Package mimetable - таблица соответствия расширений файлов и типов содержимого
package mimetable

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultType - тип содержимого для неизвестных расширений
const DefaultType = "application/octet-stream"

// расширения указываются без точки, в нижнем регистре
var defaultTypes = map[string]string{
	"7z":   "application/x-7z-compressed",
	"bin":  "application/octet-stream",
	"bmp":  "image/bmp",
	"css":  "text/css",
	"csv":  "text/csv",
	"gif":  "image/gif",
	"htm":  "text/html",
	"html": "text/html",
	"ico":  "image/vnd.microsoft.icon",
	"jpeg": "image/jpeg",
	"jpg":  "image/jpeg",
	"js":   "application/javascript",
	"json": "application/json",
	"md":   "text/markdown",
	"mp3":  "audio/mpeg",
	"mp4":  "video/mp4",
	"pdf":  "application/pdf",
	"png":  "image/png",
	"py":   "text/x-python",
	"svg":  "image/svg+xml",
	"tar":  "application/x-tar",
	"txt":  "text/plain",
	"wasm": "application/wasm",
	"webm": "video/webm",
	"webp": "image/webp",
	"xml":  "text/xml",
	"zip":  "application/zip",
}

// Table - таблица типов содержимого; после создания только читается
type Table struct {
	types       map[string]string
	defaultType string
	sniff       bool
}

// Option - настройка таблицы
type Option func(*Table)

// WithTypes - добавить или переопределить типы для расширений
func WithTypes(types map[string]string) Option {
	return func(t *Table) {
		for ext, mimeType := range types {
			t.types[normalizeExt(ext)] = mimeType
		}
	}
}

// WithDefaultType - тип для неизвестных расширений
func WithDefaultType(defaultType string) Option {
	return func(t *Table) {
		if defaultType != "" {
			t.defaultType = defaultType
		}
	}
}

// WithSniffing - определять тип неизвестных расширений по содержимому файла
func WithSniffing(sniff bool) Option {
	return func(t *Table) {
		t.sniff = sniff
	}
}

// New - создать таблицу со встроенными типами
func New(opts ...Option) *Table {
	t := &Table{
		types:       make(map[string]string, len(defaultTypes)),
		defaultType: DefaultType,
	}

	for ext, mimeType := range defaultTypes {
		t.types[ext] = mimeType
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Lookup - тип содержимого по имени файла и признак того, что расширение известно
func (t *Table) Lookup(name string) (string, bool) {
	ext := normalizeExt(filepath.Ext(name))
	if ext == "" {
		return t.defaultType, false
	}

	mimeType, ok := t.types[ext]
	if !ok {
		return t.defaultType, false
	}

	return mimeType, true
}

// TypeOf - тип содержимого файла; для неизвестных расширений при включенном
// определении по содержимому смотрим на content, иначе - тип по умолчанию
func (t *Table) TypeOf(name string, content []byte) string {
	mimeType, ok := t.Lookup(name)
	if ok || !t.sniff {
		return mimeType
	}

	return mimetype.Detect(content).String()
}

// DefaultType - тип для неизвестных расширений
func (t *Table) DefaultType() string {
	return t.defaultType
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
