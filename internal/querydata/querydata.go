// Package querydata - пакет для разбора строки запроса
package querydata

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedRequestLine - строка запроса не состоит из трех элементов
	ErrMalformedRequestLine = errors.New("incorrect request format: not HTTP")
	// ErrMethodNotAllowed - метод запроса не GET
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// MethodGet - единственный поддерживаемый метод
const MethodGet = "GET"

// Request - данные строки запроса
type Request struct {
	method   string
	path     string
	protocol string
}

// Method - метод запроса
func (q *Request) Method() string {
	return q.method
}

// Path - путь запроса как есть, без декодирования
func (q *Request) Path() string {
	return q.path
}

// Protocol - версия протокола
func (q *Request) Protocol() string {
	return q.protocol
}

// FirstLine - строка запроса: все до первого \r\n (или все данные, если его нет)
func FirstLine(data []byte) string {
	if i := bytes.Index(data, []byte("\r\n")); i >= 0 {
		return string(data[:i])
	}

	return string(data)
}

// Parse - разбираем строку запроса вида "METHOD PATH VERSION"
func Parse(line string) (*Request, error) {
	// в строке должно быть 3 элемента: метод, путь, версия протокола
	buf := strings.Split(line, " ")
	if len(buf) != 3 {
		return nil, fmt.Errorf("не удалось распарсить строку запроса %q: %w", line, ErrMalformedRequestLine)
	}

	q := &Request{
		method:   buf[0],
		path:     buf[1],
		protocol: buf[2],
	}

	if q.method != MethodGet {
		return q, fmt.Errorf("метод %q: %w", q.method, ErrMethodNotAllowed)
	}

	return q, nil
}

// NewParseQueryData - разбираем строку запроса из сырых данных запроса
func NewParseQueryData(data []byte) (*Request, error) {
	return Parse(FirstLine(data))
}
