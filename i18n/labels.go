// Package i18n loads UI label dictionaries and overlays stored translations
// onto display text.
package i18n

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/poiesic/carefind/cache"
)

// DefaultLabelTTL is how long a loaded dictionary is reused before the file is read again.
const DefaultLabelTTL = time.Minute

// Dictionary maps label keys to display text for one language.
type Dictionary map[string]string

// T returns the text for key, or key itself when the dictionary has no entry.
func (d Dictionary) T(key string) string {
	if v, ok := d[key]; ok && v != "" {
		return v
	}
	return key
}

// Labels loads dictionaries from <dir>/<lang>.txt files of key=value lines.
type Labels struct {
	dir    string
	cache  *cache.Cache[Dictionary]
	logger *slog.Logger
}

// LabelsOption configures Labels.
type LabelsOption func(*labelsConfig) error

type labelsConfig struct {
	ttl    time.Duration
	logger *slog.Logger
}

// WithLabelTTL sets how long dictionaries stay cached.
func WithLabelTTL(ttl time.Duration) LabelsOption {
	return func(c *labelsConfig) error {
		c.ttl = ttl
		return nil
	}
}

// WithLabelLogger sets the logger.
func WithLabelLogger(logger *slog.Logger) LabelsOption {
	return func(c *labelsConfig) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewLabels creates a loader reading from dir. A missing dir is not an error;
// every lookup then falls back to the key.
func NewLabels(dir string, opts ...LabelsOption) (*Labels, error) {
	cfg := &labelsConfig{ttl: DefaultLabelTTL, logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	c, err := cache.New[Dictionary](cache.WithTTL(cfg.ttl))
	if err != nil {
		return nil, err
	}
	return &Labels{dir: dir, cache: c, logger: cfg.logger}, nil
}

// Dictionary returns the dictionary for language. Unknown languages give an
// empty dictionary.
func (l *Labels) Dictionary(language string) Dictionary {
	language = NormalizeLanguage(language)
	if d, ok := l.cache.Get(language); ok {
		return d
	}

	d, err := l.load(language)
	if err != nil {
		l.logger.Warn("labels not loaded", "language", language, "err", err)
		d = Dictionary{}
	}
	// String keys always normalize
	_ = l.cache.Set(language, d)
	return d
}

// T is shorthand for Dictionary(language).T(key).
func (l *Labels) T(language, key string) string {
	return l.Dictionary(language).T(key)
}

func (l *Labels) load(language string) (Dictionary, error) {
	if l.dir == "" {
		return Dictionary{}, nil
	}
	f, err := os.Open(filepath.Join(l.dir, language+".txt"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Dictionary{}, nil
		}
		return nil, err
	}
	defer f.Close()
	return ParseDictionary(f)
}

// ParseDictionary reads key=value lines. Blank lines and lines without '=' are skipped.
// Only the first '=' separates key from value.
func ParseDictionary(r io.Reader) (Dictionary, error) {
	d := Dictionary{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		d[key] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading labels: %w", err)
	}
	return d, nil
}
