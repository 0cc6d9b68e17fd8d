// Package connection - пакет с функциями, которые работают с клиентским соединением
package connection

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Kostushka/webroot_server/internal/connection/consts"
	"github.com/Kostushka/webroot_server/internal/connection/headerdata"
	"github.com/Kostushka/webroot_server/internal/connection/types"
	"github.com/Kostushka/webroot_server/internal/log"
	"github.com/Kostushka/webroot_server/internal/querydata"
	"github.com/Kostushka/webroot_server/internal/resolver"
)

var (
	// ErrHeaderTooLarge - заголовки запроса больше допустимого размера
	ErrHeaderTooLarge = errors.New("превышен допустимый размер заголовков запроса")
	// ErrClosedEarly - клиент закрыл соединение до конца заголовков
	ErrClosedEarly = errors.New("клиент преждевременно закрыл соединение")
)

// Resolver - поиск ресурса по пути запроса
type Resolver interface {
	Resolve(target string) (resolver.Resource, error)
}

// ScriptRunner - запуск разрешенных скриптов
type ScriptRunner interface {
	Allowed(target string) bool
	Run(ctx context.Context, target string) (resolver.Resource, error)
}

// Options - настройки обработки соединения
type Options struct {
	// MaxHeaderBytes - предел размера заголовков запроса; 0 - consts.MaxHeaderBytes
	MaxHeaderBytes int
	// ReadTimeout, WriteTimeout - таймауты чтения запроса и отправки ответа; 0 - без таймаута
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Handler - общие для всех соединений данные: поиск ресурсов, скрипты, настройки
type Handler struct {
	resolver Resolver
	scripts  ScriptRunner
	opts     Options
}

// NewHandler - создать обработчик соединений; scripts может быть nil
func NewHandler(r Resolver, scripts ScriptRunner, opts Options) *Handler {
	if opts.MaxHeaderBytes <= 0 {
		opts.MaxHeaderBytes = consts.MaxHeaderBytes
	}

	return &Handler{
		resolver: r,
		scripts:  scripts,
		opts:     opts,
	}
}

// Serve - обработать одно клиентское соединение и закрыть его.
// Паника при обработке не выходит за пределы соединения
func (h *Handler) Serve(ctx context.Context, conn net.Conn) {
	c := New(ctx, conn, h)

	// закрыть клиентское соединение
	defer Close(conn, fmt.Sprintf("клиентское соединение %s закрыто", conn.RemoteAddr()))

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().Interface("panic", r).Msg("непредвиденная ошибка при обработке соединения")
		}
	}()

	// при остановке сервера прерываем зависшие чтение и запись
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	c.ProcessingConn()
}

// stateFunc - состояние обработки соединения, возвращает следующее состояние
type stateFunc func(*Connection) stateFunc

// Connection - структура с данными обрабатываемого соединения
type Connection struct {
	ctx     context.Context
	conn    net.Conn
	handler *Handler
	logger  zerolog.Logger

	data     []byte
	query    *querydata.Request
	resource resolver.Resource
	response *types.Response
	sent     int
	start    time.Time
}

// New - создать структуру с данными обрабатываемого соединения
func New(ctx context.Context, conn net.Conn, h *Handler) *Connection {
	return &Connection{
		ctx:     ctx,
		conn:    conn,
		handler: h,
		logger: log.With().
			Str("conn_id", uuid.NewString()).
			Str("remote", conn.RemoteAddr().String()).
			Logger(),
		start: time.Now(),
	}
}

// ProcessingConn - обрабатываем клиентское соединение: чтение заголовков,
// разбор строки запроса, поиск ресурса, отправка ответа. Соединение не закрывает
func (c *Connection) ProcessingConn() {
	c.logger.Debug().Msg("начинается работа с клиентским сокетом")

	for state := awaitHeaders; state != nil; {
		state = state(c)
	}
}

// Response - сформированный ответ (nil, если ответ не формировался)
func (c *Connection) Response() *types.Response {
	return c.response
}

// читаем из сокета, пока не встретим конец заголовков
func awaitHeaders(c *Connection) stateFunc {
	data, err := c.readConn()
	if err != nil {
		if errors.Is(err, ErrHeaderTooLarge) {
			c.logger.Warn().Err(err).Int("limit", c.handler.opts.MaxHeaderBytes).Msg("некорректный запрос")
			c.response = headerdata.BadRequest()

			return sendResponse
		}
		// по возвращении клиентским сокетом EOF или другой ошибки логируем ошибку,
		// так как не успели вычитать все данные, а клиент уже закрыл сокет
		c.logger.Error().Err(err).Msg("не удалось прочитать запрос")

		return nil
	}

	c.data = data

	return parseRequest
}

// разбираем первую строку запроса, остальное игнорируем
func parseRequest(c *Connection) stateFunc {
	query, err := querydata.NewParseQueryData(c.data)
	c.query = query

	switch {
	case errors.Is(err, querydata.ErrMethodNotAllowed):
		c.response = headerdata.MethodNotAllowed()

		return sendResponse
	case errors.Is(err, querydata.ErrMalformedRequestLine):
		c.logger.Warn().Err(err).Msg("некорректный запрос")
		c.response = headerdata.BadRequest()

		return sendResponse
	case err != nil:
		c.logger.Error().Err(err).Msg("не удалось разобрать запрос")
		c.response = headerdata.BadRequest()

		return sendResponse
	}

	return resolveResource
}

// ищем ресурс по пути запроса
func resolveResource(c *Connection) stateFunc {
	var (
		res resolver.Resource
		err error
	)

	target := c.query.Path()

	if scripts := c.handler.scripts; scripts != nil && scripts.Allowed(target) {
		res, err = scripts.Run(c.ctx, target)
	} else {
		res, err = c.handler.resolver.Resolve(target)
	}

	if err != nil {
		c.logger.Error().Err(err).Str("path", target).Msg("ресурс не готов к отправке")
		c.response = headerdata.InternalServerError()

		return sendResponse
	}

	c.resource = res

	switch res.Kind {
	case resolver.KindFile:
		c.response = headerdata.OK(res.MediaType, res.Content)
	case resolver.KindDirectory:
		c.response = headerdata.Listing(res.Entries)
	default:
		c.response = headerdata.NotFound()
	}

	return sendResponse
}

// отправляем ответ одной записью
func sendResponse(c *Connection) stateFunc {
	if t := c.handler.opts.WriteTimeout; t > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(t))
	}

	n, err := headerdata.Write(c.conn, c.response)
	c.sent = n

	if err != nil {
		c.logger.Error().Err(err).Msg("ответ не был отправлен клиенту")

		return nil
	}

	c.accessLog()

	return nil
}

// лог запроса: "METHOD PATH PROTO" статус размер
func (c *Connection) accessLog() {
	e := c.logger.Info()

	if c.query != nil {
		e = e.Str("method", c.query.Method()).
			Str("path", c.query.Path()).
			Str("proto", c.query.Protocol())
	}

	e.Int("status", c.response.Code).
		Int("bytes", c.sent).
		Dur("duration", time.Since(c.start)).
		Msg("клиенту отправлен ответ")
}

// прочитать из клиентского сокета данные в буфер до конца заголовков
func (c *Connection) readConn() ([]byte, error) {
	if t := c.handler.opts.ReadTimeout; t > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(t))
	}

	// буфер для чтения из клиентского сокета
	buf := make([]byte, consts.BufSize)
	terminator := []byte(consts.HeaderTerminator)
	limit := c.handler.opts.MaxHeaderBytes

	var data []byte
	// пока клиентский сокет пишет, читаем в буфер
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			// терминатор может прийти разрезанным между двумя чтениями
			from := max(len(data)-len(terminator)+1, 0)
			// добавляем к итоговому срезу считанные в буфер данные
			data = append(data, buf[:n]...)

			if i := bytes.Index(data[from:], terminator); i >= 0 {
				// предел действует и на заголовки, пришедшие одним чтением
				if end := from + i + len(terminator); end > limit {
					return nil, fmt.Errorf("прочитано %d байт: %w", end, ErrHeaderTooLarge)
				}

				return data, nil
			}

			if len(data) > limit {
				return nil, fmt.Errorf("прочитано %d байт: %w", len(data), ErrHeaderTooLarge)
			}
		}
		// обрабатываем ошибку при чтении
		if err != nil {
			// не успели вычитать все данные, клиент закрыл сокет
			if errors.Is(err, io.EOF) {
				err = fmt.Errorf("%w: %w", ErrClosedEarly, err)
			}

			return nil, err
		}
	}
}

// Close - закрытие файла или соединения
func Close(c io.Closer, m string) {
	err := c.Close()
	if err != nil {
		log.Errorf(err)

		return
	}

	if m != "" {
		log.Debugf(m)
	}
}
