// Package netf - пакет с tcp сервером: слушающий сокет и цикл приема соединений
package netf

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/Kostushka/webroot_server/internal/log"
)

// пауза после ошибки accept, чтобы не крутиться вхолостую (например, при EMFILE)
const acceptRetryDelay = 50 * time.Millisecond

// ConnHandler - обработчик клиентского соединения; закрывает соединение сам
type ConnHandler interface {
	Serve(ctx context.Context, conn net.Conn)
}

// Server - tcp сервер
type Server struct {
	addr       string
	handler    ConnHandler
	sequential bool

	mu       sync.Mutex
	listener net.Listener
	wg       sync.WaitGroup
}

// New - создать сервер для адреса addr ("host:port");
// sequential - обрабатывать соединения строго по одному
func New(addr string, handler ConnHandler, sequential bool) *Server {
	return &Server{
		addr:       addr,
		handler:    handler,
		sequential: sequential,
	}
}

// Listen - открыть слушающий сокет с SO_REUSEADDR
func (s *Server) Listen(ctx context.Context) (net.Listener, error) {
	lc := net.ListenConfig{Control: reuseAddr}

	l, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть сокет %s: %w", s.addr, err)
	}

	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()

	return l, nil
}

// Addr - адрес слушающего сокета (nil до вызова Listen)
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}

	return s.listener.Addr()
}

// ListenAndServe - открыть сокет и принимать соединения до отмены ctx
func (s *Server) ListenAndServe(ctx context.Context) error {
	l, err := s.Listen(ctx)
	if err != nil {
		return err
	}

	return s.Serve(ctx, l)
}

// Serve - принимать соединения на l до отмены ctx. После отмены закрывает
// сокет, дожидается обработки принятых соединений и возвращает nil
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	log.Infof("запуск сервера с адресом %s", l.Addr())

	// закрытие сокета прерывает блокирующий Accept
	stop := context.AfterFunc(ctx, func() { closeListener(l) })
	defer stop()

	for {
		log.Debugf("tcp сокет слушает соединения")
		// слушаем сокетные соединения (запросы)
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}

			log.Errorf("ошибка при приеме соединения: %v", err)

			select {
			case <-ctx.Done():
			case <-time.After(acceptRetryDelay):
			}

			continue
		}

		log.Debugf("запрос на соединение от клиента %s принят", conn.RemoteAddr())

		if s.sequential {
			s.handle(ctx, conn)

			continue
		}

		// обрабатываем каждое клиентское соединение в отдельной горутине
		s.wg.Add(1)

		go func() {
			defer s.wg.Done()
			s.handle(ctx, conn)
		}()
	}

	// AfterFunc могла еще не успеть закрыть сокет
	closeListener(l)

	s.wg.Wait()
	log.Infof("сервер остановлен")

	return nil
}

// повторное закрытие сокета ошибкой не считаем
func closeListener(l net.Listener) {
	if err := l.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		log.Errorf(err)
	}
}

// ошибка в одном соединении не должна останавливать сервер
func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("непредвиденная ошибка при обработке соединения %s: %v", conn.RemoteAddr(), r)
			_ = conn.Close()
		}
	}()

	s.handler.Serve(ctx, conn)
}
