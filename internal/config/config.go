// Package config - пакет для получения конфигурационных данных для запуска сервера.
// Источники по возрастанию приоритета: значения по умолчанию, файл конфигурации
// (yaml или toml), переменные окружения WEBROOT_*, флаги командной строки
package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/Kostushka/webroot_server/internal/log"
)

var (
	// ErrNoRootDir - не указан путь до корневого каталога
	ErrNoRootDir = errors.New("не указан путь до *корневого* каталога")
	// ErrRootNotDir - корневой каталог не существует или не является каталогом
	ErrRootNotDir = errors.New("корневой путь не является каталогом")
	// ErrInvalidAddr - указан некорректный IP-адрес
	ErrInvalidAddr = errors.New("указан некорректный IP-адрес")
	// ErrInvalidPort - порт вне диапазона 1-65535
	ErrInvalidPort = errors.New("указан некорректный порт")
	// ErrInvalidValue - некорректное значение параметра
	ErrInvalidValue = errors.New("некорректное значение параметра")
	// ErrUnknownFormat - неизвестный формат файла конфигурации
	ErrUnknownFormat = errors.New("неизвестный формат файла конфигурации")
)

const (
	defaultAddress        = "127.0.0.1"
	portNumber            = 10000
	defaultMaxHeaderBytes = 8192
	defaultScriptTimeout  = 5 * time.Second
	defaultLevel          = "info"

	envPath = "WEBROOT_PATH"
	envIP   = "WEBROOT_IP"
	envPort = "WEBROOT_PORT"
)

// Script - разрешенный для запуска скрипт
type Script struct {
	// Command - интерпретатор и его аргументы; путь до скрипта добавляется последним
	Command     []string `yaml:"command" toml:"command"`
	ContentType string   `yaml:"content_type" toml:"content_type"`
}

// fileData - параметры в том виде, в каком они задаются в файле конфигурации
type fileData struct {
	Path           string            `yaml:"path" toml:"path"`
	IP             string            `yaml:"ip" toml:"ip"`
	Port           int               `yaml:"port" toml:"port"`
	Log            string            `yaml:"log" toml:"log"`
	Level          string            `yaml:"level" toml:"level"`
	Sequential     bool              `yaml:"sequential" toml:"sequential"`
	MaxHeaderBytes int               `yaml:"max_header_bytes" toml:"max_header_bytes"`
	ReadTimeout    string            `yaml:"read_timeout" toml:"read_timeout"`
	WriteTimeout   string            `yaml:"write_timeout" toml:"write_timeout"`
	ScriptTimeout  string            `yaml:"script_timeout" toml:"script_timeout"`
	MimeTypes      map[string]string `yaml:"mime_types" toml:"mime_types"`
	DefaultType    string            `yaml:"default_type" toml:"default_type"`
	SniffUnknown   bool              `yaml:"sniff_unknown" toml:"sniff_unknown"`
	Scripts        map[string]Script `yaml:"scripts" toml:"scripts"`
}

// Data - данные для конфигурации сервера
type Data struct {
	rootPath       string
	listenAddress  net.IP
	port           int
	log            string
	level          string
	sequential     bool
	maxHeaderBytes int
	readTimeout    time.Duration
	writeTimeout   time.Duration
	scriptTimeout  time.Duration
	mimeTypes      map[string]string
	defaultType    string
	sniffUnknown   bool
	scripts        map[string]Script
}

// RootPath - возвращает путь до корневого каталога
func (c *Data) RootPath() string {
	return c.rootPath
}

// ListenAddress - возвращает адрес, на котором будет запущен сервер
func (c *Data) ListenAddress() net.IP {
	return c.listenAddress
}

// Port - возвращает порт, на котором сервер будет принимать запросы на соединение
func (c *Data) Port() int {
	return c.port
}

// Log - возвращает имя файла для записи лога в него или ""
func (c *Data) Log() string {
	return c.log
}

// Level - уровень логирования
func (c *Data) Level() string {
	return c.level
}

// Sequential - обрабатывать соединения строго по одному
func (c *Data) Sequential() bool {
	return c.sequential
}

// MaxHeaderBytes - предел размера заголовков запроса
func (c *Data) MaxHeaderBytes() int {
	return c.maxHeaderBytes
}

// ReadTimeout - таймаут чтения запроса (0 - без таймаута)
func (c *Data) ReadTimeout() time.Duration {
	return c.readTimeout
}

// WriteTimeout - таймаут отправки ответа (0 - без таймаута)
func (c *Data) WriteTimeout() time.Duration {
	return c.writeTimeout
}

// ScriptTimeout - предельное время работы скрипта
func (c *Data) ScriptTimeout() time.Duration {
	return c.scriptTimeout
}

// MimeTypes - дополнительные соответствия расширений и типов содержимого
func (c *Data) MimeTypes() map[string]string {
	return c.mimeTypes
}

// DefaultType - тип содержимого для неизвестных расширений ("" - по умолчанию)
func (c *Data) DefaultType() string {
	return c.defaultType
}

// SniffUnknown - определять тип по содержимому для неизвестных расширений
func (c *Data) SniffUnknown() bool {
	return c.sniffUnknown
}

// Scripts - разрешенные скрипты по пути запроса
func (c *Data) Scripts() map[string]Script {
	return c.scripts
}

// ServerAddress - адрес для прослушивания в виде host:port
func (c *Data) ServerAddress() string {
	return net.JoinHostPort(c.listenAddress.String(), strconv.Itoa(c.port))
}

// NewConfigData - функция-конструктор для получения структуры с конфигурационными данными;
// args - аргументы командной строки без имени программы
func NewConfigData(args []string) (*Data, error) {
	fs := flag.NewFlagSet("webroot_server", flag.ContinueOnError)

	// путь до корневого каталога
	rootPath := fs.String("path", "", "a path to home directory")
	// адрес, на котором будет запущен сервер
	listenAddress := fs.String("IP", defaultAddress, "a listening address")
	// порт, на котором сервер будет принимать запросы на соединение
	port := fs.Int("port", portNumber, "a port")
	// имя файла для записи лога в него, иначе вывод лога будет в stdout
	logFile := fs.String("log", "", "output log to file")
	level := fs.String("level", defaultLevel, "log level: debug, info, warn, error")
	configFile := fs.String("config", "", "a path to config file (.yaml, .yml, .toml)")
	sequential := fs.Bool("sequential", false, "serve connections one at a time")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	raw := defaults()

	if *configFile != "" {
		if err := loadFile(*configFile, &raw); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(&raw); err != nil {
		return nil, err
	}

	// флаги переопределяют остальные источники, только если заданы явно
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "path":
			raw.Path = *rootPath
		case "IP":
			raw.IP = *listenAddress
		case "port":
			raw.Port = *port
		case "log":
			raw.Log = *logFile
		case "level":
			raw.Level = *level
		case "sequential":
			raw.Sequential = *sequential
		}
	})

	c, err := build(raw)
	if err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// Validate - проверка корректности конфигурации
func (c *Data) Validate() error {
	// должен быть указан путь до корневого каталога
	if c.rootPath == "" {
		return ErrNoRootDir
	}

	info, err := os.Stat(c.rootPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRootNotDir, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrRootNotDir, c.rootPath)
	}

	if c.listenAddress == nil {
		return ErrInvalidAddr
	}

	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.port)
	}

	if c.maxHeaderBytes <= 0 {
		return fmt.Errorf("%w: max_header_bytes = %d", ErrInvalidValue, c.maxHeaderBytes)
	}

	if c.readTimeout < 0 || c.writeTimeout < 0 || c.scriptTimeout < 0 {
		return fmt.Errorf("%w: отрицательный таймаут", ErrInvalidValue)
	}

	if _, err := log.ParseLevel(c.level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}

	for target, s := range c.scripts {
		if !strings.HasPrefix(target, "/") {
			return fmt.Errorf("%w: путь скрипта %q должен начинаться с /", ErrInvalidValue, target)
		}

		if len(s.Command) == 0 {
			return fmt.Errorf("%w: для скрипта %q не указана команда", ErrInvalidValue, target)
		}
	}

	return nil
}

func defaults() fileData {
	return fileData{
		IP:             defaultAddress,
		Port:           portNumber,
		Level:          defaultLevel,
		MaxHeaderBytes: defaultMaxHeaderBytes,
		ScriptTimeout:  defaultScriptTimeout.String(),
	}
}

// loadFile - прочитать файл конфигурации поверх значений по умолчанию;
// формат определяется по расширению
func loadFile(name string, raw *fileData) error {
	data, err := os.ReadFile(name)
	if err != nil {
		return fmt.Errorf("не удалось прочитать файл конфигурации: %w", err)
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, raw)
	case ".toml":
		err = toml.Unmarshal(data, raw)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, name)
	}

	if err != nil {
		return fmt.Errorf("не удалось разобрать файл конфигурации %s: %w", name, err)
	}

	return nil
}

func applyEnv(raw *fileData) error {
	raw.Path = getEnvOrDefault(envPath, raw.Path)
	raw.IP = getEnvOrDefault(envIP, raw.IP)

	port, err := getEnvAsIntOrDefault(envPort, raw.Port)
	if err != nil {
		return err
	}

	raw.Port = port

	return nil
}

// build - привести параметры к итоговым типам
func build(raw fileData) (*Data, error) {
	c := &Data{
		rootPath:       raw.Path,
		listenAddress:  net.ParseIP(raw.IP),
		port:           raw.Port,
		log:            raw.Log,
		level:          raw.Level,
		sequential:     raw.Sequential,
		maxHeaderBytes: raw.MaxHeaderBytes,
		mimeTypes:      raw.MimeTypes,
		defaultType:    raw.DefaultType,
		sniffUnknown:   raw.SniffUnknown,
		scripts:        raw.Scripts,
	}

	// IP адрес должен быть корректным
	if c.listenAddress == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddr, raw.IP)
	}

	var err error

	if c.readTimeout, err = parseDuration("read_timeout", raw.ReadTimeout); err != nil {
		return nil, err
	}

	if c.writeTimeout, err = parseDuration("write_timeout", raw.WriteTimeout); err != nil {
		return nil, err
	}

	if c.scriptTimeout, err = parseDuration("script_timeout", raw.ScriptTimeout); err != nil {
		return nil, err
	}

	return c, nil
}

func parseDuration(name, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s = %q", ErrInvalidValue, name, value)
	}

	return d, nil
}

// getEnvOrDefault - значение переменной окружения или defaultValue, если она не задана
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s = %q", ErrInvalidValue, key, value)
	}

	return n, nil
}
