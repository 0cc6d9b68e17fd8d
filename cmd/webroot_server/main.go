// webroot_server - tcp сервер, отдающий файлы и листинги каталогов из корневого каталога
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Kostushka/webroot_server/internal/config"
	"github.com/Kostushka/webroot_server/internal/connection"
	"github.com/Kostushka/webroot_server/internal/log"
	"github.com/Kostushka/webroot_server/internal/mimetable"
	"github.com/Kostushka/webroot_server/internal/netf"
	"github.com/Kostushka/webroot_server/internal/resolver"
	"github.com/Kostushka/webroot_server/internal/script"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// получаем конфигурационные данные
	cfg, err := config.NewConfigData(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}

		fmt.Fprintln(os.Stderr, err)

		return 1
	}

	// создаем логер
	logCloser, err := log.New(cfg.Log(), cfg.Level())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)

		return 1
	}
	// закрыть файл с логом
	defer connection.Close(logCloser, "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg); err != nil {
		log.Errorf(err)

		return 1
	}

	return 0
}

func serve(ctx context.Context, cfg *config.Data) error {
	table := mimetable.New(
		mimetable.WithTypes(cfg.MimeTypes()),
		mimetable.WithDefaultType(cfg.DefaultType()),
		mimetable.WithSniffing(cfg.SniffUnknown()),
	)

	r, err := resolver.New(cfg.RootPath(), table)
	if err != nil {
		return err
	}

	log.Infof("корневой каталог: %s", r.Root())

	var scripts connection.ScriptRunner

	if len(cfg.Scripts()) > 0 {
		entries := make(map[string]script.Entry, len(cfg.Scripts()))
		for target, s := range cfg.Scripts() {
			entries[target] = script.Entry{
				Interpreter: s.Command,
				ContentType: s.ContentType,
			}
		}

		scripts = script.New(r, entries, cfg.ScriptTimeout())
		log.Infof("разрешено скриптов: %d", len(entries))
	}

	h := connection.NewHandler(r, scripts, connection.Options{
		MaxHeaderBytes: cfg.MaxHeaderBytes(),
		ReadTimeout:    cfg.ReadTimeout(),
		WriteTimeout:   cfg.WriteTimeout(),
	})

	return netf.New(cfg.ServerAddress(), h, cfg.Sequential()).ListenAndServe(ctx)
}
