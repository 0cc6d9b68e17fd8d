// Package headerdata - пакет для формирования и отправки ответа клиенту
package headerdata

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/Kostushka/webroot_server/internal/connection/consts"
	"github.com/Kostushka/webroot_server/internal/connection/types"
)

// тела ответов с ошибкой
const (
	bodyBadRequest          = "The request could not be understood by this server."
	bodyNotFound            = "The requested resource could not be found."
	bodyMethodNotAllowed    = "You can't do that on this server!"
	bodyInternalServerError = "The server could not complete the request."
)

// StatusLine - строка статуса для кода ответа
func StatusLine(code int) string {
	return consts.Version + " " + strconv.Itoa(code) + " " + http.StatusText(code)
}

// New - ответ с кодом code и телом body без заголовков
func New(code int, body []byte) *types.Response {
	return &types.Response{
		StatusLine: StatusLine(code),
		Body:       body,
		Code:       code,
	}
}

// OK - ответ 200 с типом содержимого contentType
func OK(contentType string, body []byte) *types.Response {
	r := New(consts.StatusOK, body)
	r.AddHeader("Content-Type", contentType)

	return r
}

// Listing - ответ 200 с именами файлов каталога, по одному на строку
func Listing(entries []string) *types.Response {
	var buf bytes.Buffer

	for i, name := range entries {
		if i > 0 {
			buf.WriteByte('\n')
		}

		buf.WriteString(name)
	}

	return OK(consts.DirContentType, buf.Bytes())
}

// BadRequest - ответ 400
func BadRequest() *types.Response {
	return New(consts.StatusBadRequest, []byte(bodyBadRequest))
}

// NotFound - ответ 404
func NotFound() *types.Response {
	return New(consts.StatusNotFound, []byte(bodyNotFound))
}

// MethodNotAllowed - ответ 405
func MethodNotAllowed() *types.Response {
	return New(consts.StatusMethodNotAllowed, []byte(bodyMethodNotAllowed))
}

// InternalServerError - ответ 500
func InternalServerError() *types.Response {
	return New(consts.StatusInternalServerError, []byte(bodyInternalServerError))
}

// Serialize - строка статуса, заголовки и пустая строка через CRLF, затем тело как есть
func Serialize(r *types.Response) []byte {
	var buf bytes.Buffer

	buf.Grow(len(r.StatusLine) + len(r.Body) + 64)

	buf.WriteString(r.StatusLine)
	buf.WriteString(consts.CRLF)

	for _, h := range r.Headers {
		buf.WriteString(h.Name)
		buf.WriteString(": ")
		buf.WriteString(h.Value)
		buf.WriteString(consts.CRLF)
	}

	buf.WriteString(consts.CRLF)
	buf.Write(r.Body)

	return buf.Bytes()
}

// Write - отправить клиенту ответ целиком, возвращает число отправленных байт
func Write(w io.Writer, r *types.Response) (int, error) {
	data := Serialize(r)

	// Write обязан вернуть ошибку, если записал не все, но проверяем и длину
	n, err := w.Write(data)
	if err != nil {
		return n, fmt.Errorf("ответ отправлен не полностью (%d из %d байт): %w", n, len(data), err)
	}

	if n != len(data) {
		return n, fmt.Errorf("ответ отправлен не полностью (%d из %d байт): %w", n, len(data), io.ErrShortWrite)
	}

	return n, nil
}
