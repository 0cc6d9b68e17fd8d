// Package dirf - пакет для получения содержимого каталога
package dirf

import (
	"os"
)

// List - имена всех файлов и каталогов, непосредственно находящихся в каталоге path
func List(path string) ([]string, error) {
	files, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(files))
	for _, v := range files {
		names = append(names, v.Name())
	}

	return names, nil
}
