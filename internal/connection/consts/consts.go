// Package consts - пакет с константами
package consts

const (
	// StatusOK - статус ответа: хорошо
	StatusOK = 200
	// StatusBadRequest - статус ответа: некорректный запрос
	StatusBadRequest = 400
	// StatusNotFound - статус ответа: не найдено
	StatusNotFound = 404
	// StatusMethodNotAllowed - статус ответа: метод не поддерживается
	StatusMethodNotAllowed = 405
	// StatusInternalServerError - статус ответа: внутренняя ошибка сервера
	StatusInternalServerError = 500
	// BufSize - дефолтный размер буфера
	BufSize = 4096
	// MaxHeaderBytes - дефолтный предел размера заголовков запроса
	MaxHeaderBytes = 8192
)

const (
	// Version - версия протокола в строке статуса
	Version = "HTTP/1.1"
	// CRLF - разделитель строк
	CRLF = "\r\n"
	// HeaderTerminator - конец заголовков запроса
	HeaderTerminator = "\r\n\r\n"
	// DirContentType - тип содержимого для листинга каталога
	DirContentType = "text/plain"
)
