package profile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/charlievieth/fastwalk"
	"github.com/goccy/go-yaml"
	"github.com/hearthdesk/hearth/backend/internal/infrastructure/logging"
	"github.com/klauspost/compress/gzip"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
)

// Loader scans a directory tree for profile files and registers them.
// Supported formats: .yaml/.yml, .toml, .json, and gzipped packs
// (.json.gz) containing a JSON array of profiles.
type Loader struct {
	dir string
	log *logging.Logger
}

// NewLoader creates a loader rooted at dir.
func NewLoader(dir string, log *logging.Logger) *Loader {
	if log == nil {
		log = logging.NewNop()
	}
	return &Loader{dir: dir, log: log.Named("profile-loader")}
}

// LoadDir walks the profile directory and registers every decodable
// profile file. Individual file failures are logged and skipped; the
// walk itself failing is an error. Returns the number of profiles
// registered.
func (l *Loader) LoadDir(reg *Registry) (int, error) {
	if l.dir == "" {
		return 0, nil
	}
	if _, err := os.Stat(l.dir); os.IsNotExist(err) {
		l.log.Debug("Profile directory does not exist, skipping", zap.String("dir", l.dir))
		return 0, nil
	}

	var (
		mu    sync.Mutex
		count int
	)
	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			l.log.Warn("Profile walk error", zap.String("path", path), zap.Error(err))
			return nil
		}
		if d.IsDir() {
			return nil
		}
		profiles, derr := l.loadFile(path)
		if derr != nil {
			l.log.Warn("Skipping profile file", zap.String("path", path), zap.Error(derr))
			return nil
		}
		for _, p := range profiles {
			if rerr := reg.Register(p); rerr != nil {
				l.log.Warn("Skipping invalid profile",
					zap.String("path", path),
					zap.String("id", p.ID),
					zap.Error(rerr))
				continue
			}
			mu.Lock()
			count++
			mu.Unlock()
		}
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("walk profile dir: %w", err)
	}

	l.log.Info("Profiles loaded from disk", zap.String("dir", l.dir), zap.Int("count", count))
	return count, nil
}

// loadFile decodes a single profile file. Unknown extensions are an
// error so stray files in the directory are reported rather than
// silently ignored.
func (l *Loader) loadFile(path string) ([]Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(name, ".json.gz"):
		return decodePack(data)
	case strings.HasSuffix(name, ".json"):
		return decodeOne(data, sonic.Unmarshal)
	case strings.HasSuffix(name, ".yaml"), strings.HasSuffix(name, ".yml"):
		return decodeOne(data, yaml.Unmarshal)
	case strings.HasSuffix(name, ".toml"):
		return decodeOne(data, toml.Unmarshal)
	default:
		return nil, fmt.Errorf("unsupported profile format: %s", filepath.Ext(name))
	}
}

// decodeOne unmarshals a single profile over the default template so
// omitted fields keep their default values.
func decodeOne(data []byte, unmarshal func([]byte, interface{}) error) ([]Profile, error) {
	p := New()
	if err := unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return []Profile{p}, nil
}

// decodePack decompresses a .json.gz pack holding a JSON array of
// profiles. Each entry is decoded over the default template.
func decodePack(data []byte) ([]Profile, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}

	var entries []json.RawMessage
	if err := sonic.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode pack: %w", err)
	}

	out := make([]Profile, 0, len(entries))
	for i, entry := range entries {
		p := New()
		if err := sonic.Unmarshal(entry, &p); err != nil {
			return nil, fmt.Errorf("decode pack entry %d: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}
