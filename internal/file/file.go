// Package file - пакет с функциями для работы с файлами
package file

import (
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/Kostushka/webroot_server/internal/connection/consts"
)

// Read - читаем содержимое файла целиком
func Read(f *os.File) ([]byte, error) {
	var content bytes.Buffer

	// размер известен заранее, но файл может измениться между Stat и чтением
	if fi, err := f.Stat(); err == nil && fi.Size() > 0 {
		content.Grow(int(fi.Size()))
	}

	fileBuf := make([]byte, consts.BufSize)

	for {
		n, err := f.Read(fileBuf)
		content.Write(fileBuf[:n])
		// читаем файл, пока не встретим EOF
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, err
		}
	}

	return content.Bytes(), nil
}

// ReadFile - открываем и читаем файл по пути
func ReadFile(path string) ([]byte, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Read(f)
}
