// Package resolver - пакет для сопоставления пути запроса с файлом или каталогом
// внутри корневого каталога сервера.
//
// Путь запроса нормализуется (убираются "." и ".."), присоединяется к корню и
// проверяется, что результат остается внутри корня как до, так и после
// разыменования символических ссылок. Все, что выходит за корень, считается
// отсутствующим. Пакет только читает файловую систему и безопасен для
// одновременного использования из нескольких горутин.
package resolver

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/Kostushka/webroot_server/internal/connection/consts"
	"github.com/Kostushka/webroot_server/internal/dirf"
	"github.com/Kostushka/webroot_server/internal/file"
	"github.com/Kostushka/webroot_server/internal/mimetable"
)

var (
	// ErrOutsideRoot - путь после нормализации выходит за корневой каталог
	ErrOutsideRoot = errors.New("путь выходит за пределы корневого каталога")
	// ErrNotDir - корень не является каталогом
	ErrNotDir = errors.New("корень не является каталогом")
)

// Kind - вид найденного ресурса
type Kind int

const (
	// KindMissing - ресурса нет
	KindMissing Kind = iota
	// KindFile - обычный файл
	KindFile
	// KindDirectory - каталог
	KindDirectory
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	default:
		return "missing"
	}
}

// Resource - результат поиска ресурса по пути запроса
type Resource struct {
	Kind Kind
	// Content и MediaType заполнены для KindFile
	Content   []byte
	MediaType string
	// Entries заполнен для KindDirectory
	Entries []string
}

// Missing - ресурс не найден
var Missing = Resource{Kind: KindMissing}

// Resolver - поиск ресурсов внутри корневого каталога
type Resolver struct {
	root  string
	table *mimetable.Table
}

// New - создать Resolver для корневого каталога root
func New(root string, table *mimetable.Table) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("не удалось получить абсолютный путь до %q: %w", root, err)
	}

	// корень сравниваем с путями после разыменования ссылок, поэтому разыменовываем и его
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("корневой каталог %q: %w", root, err)
	}

	fi, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("корневой каталог %q: %w", root, err)
	}

	if !fi.IsDir() {
		return nil, fmt.Errorf("%q: %w", root, ErrNotDir)
	}

	if table == nil {
		table = mimetable.New()
	}

	return &Resolver{
		root:  resolved,
		table: table,
	}, nil
}

// Root - абсолютный путь до корневого каталога
func (r *Resolver) Root() string {
	return r.root
}

// Path - путь в файловой системе для пути запроса target;
// ErrOutsideRoot, если путь выходит за корень
func (r *Resolver) Path(target string) (string, error) {
	clean := path.Clean("/" + target)
	full := filepath.Join(r.root, filepath.FromSlash(clean))

	if !r.within(full) {
		return "", fmt.Errorf("%q: %w", target, ErrOutsideRoot)
	}

	return full, nil
}

// RealPath - Path с разыменованными символическими ссылками, который тоже
// обязан остаться внутри корня
func (r *Resolver) RealPath(target string) (string, error) {
	full, err := r.Path(target)
	if err != nil {
		return "", err
	}

	resolved, err := filepath.EvalSymlinks(full)
	if err != nil {
		return "", err
	}

	if !r.within(resolved) {
		return "", fmt.Errorf("%q -> %q: %w", target, resolved, ErrOutsideRoot)
	}

	return resolved, nil
}

// Resolve - найти ресурс по пути запроса. Отсутствующий путь и путь за
// пределами корня дают Missing без ошибки; ошибка возвращается только для
// непредвиденных сбоев чтения (нет прав, ошибка ввода-вывода)
func (r *Resolver) Resolve(target string) (Resource, error) {
	resolved, err := r.RealPath(target)
	if err != nil {
		if IsMissing(err) {
			return Missing, nil
		}

		return Missing, err
	}

	fi, err := os.Stat(resolved)
	if err != nil {
		if IsMissing(err) {
			return Missing, nil
		}

		return Missing, err
	}

	switch {
	case fi.IsDir():
		entries, err := dirf.List(resolved)
		if err != nil {
			return Missing, fmt.Errorf("не удалось прочитать каталог %q: %w", resolved, err)
		}

		return Resource{
			Kind:      KindDirectory,
			Entries:   entries,
			MediaType: consts.DirContentType,
		}, nil
	case fi.Mode().IsRegular():
		content, err := file.ReadFile(resolved)
		if err != nil {
			if IsMissing(err) {
				return Missing, nil
			}

			return Missing, fmt.Errorf("не удалось прочитать файл %q: %w", resolved, err)
		}

		return Resource{
			Kind:      KindFile,
			Content:   content,
			MediaType: r.table.TypeOf(fi.Name(), content),
		}, nil
	default:
		// сокеты, устройства, именованные каналы не отдаем
		return Missing, nil
	}
}

func (r *Resolver) within(p string) bool {
	rel, err := filepath.Rel(r.root, p)
	if err != nil {
		return false
	}

	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// IsMissing - по пути ничего нет или путь ведет за пределы корня
func IsMissing(err error) bool {
	return errors.Is(err, ErrOutsideRoot) ||
		errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, syscall.ENOTDIR) ||
		errors.Is(err, syscall.ENAMETOOLONG) ||
		errors.Is(err, syscall.EINVAL)
}
