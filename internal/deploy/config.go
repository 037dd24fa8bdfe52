package deploy

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Config is an immutable set of run parameters. Build one through Builder;
// a finalized Config is never mutated by the engine.
type Config struct {
	Host           string
	Port           int
	User           string
	Password       string
	Secure         bool
	SourceRoot     string
	TargetRoot     string
	Includes       []string
	Excludes       []string
	ExtraFiles     []string
	SkipEqualSize  bool
	SkipUnmodified bool
	Incremental    bool
	DryRun         bool
	Overwrite      bool
}

func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type Builder struct {
	cfg Config
}

func NewBuilder() *Builder {
	return &Builder{
		cfg: Config{
			Port:      21,
			Overwrite: true,
		},
	}
}

func (b *Builder) Host(host string) *Builder {
	b.cfg.Host = host
	return b
}

func (b *Builder) Port(port int) *Builder {
	b.cfg.Port = port
	return b
}

func (b *Builder) Credentials(user, password string) *Builder {
	b.cfg.User = user
	b.cfg.Password = password
	return b
}

func (b *Builder) Secure(enabled bool) *Builder {
	b.cfg.Secure = enabled
	return b
}

func (b *Builder) SourceRoot(dir string) *Builder {
	b.cfg.SourceRoot = dir
	return b
}

func (b *Builder) TargetRoot(dir string) *Builder {
	b.cfg.TargetRoot = dir
	return b
}

func (b *Builder) Include(patterns ...string) *Builder {
	b.cfg.Includes = append(b.cfg.Includes, patterns...)
	return b
}

func (b *Builder) Exclude(patterns ...string) *Builder {
	b.cfg.Excludes = append(b.cfg.Excludes, patterns...)
	return b
}

func (b *Builder) ExtraFile(paths ...string) *Builder {
	b.cfg.ExtraFiles = append(b.cfg.ExtraFiles, paths...)
	return b
}

func (b *Builder) SkipEqualSize(enabled bool) *Builder {
	b.cfg.SkipEqualSize = enabled
	return b
}

func (b *Builder) SkipUnmodified(enabled bool) *Builder {
	b.cfg.SkipUnmodified = enabled
	return b
}

func (b *Builder) Incremental(enabled bool) *Builder {
	b.cfg.Incremental = enabled
	return b
}

func (b *Builder) DryRun(enabled bool) *Builder {
	b.cfg.DryRun = enabled
	return b
}

func (b *Builder) Overwrite(enabled bool) *Builder {
	b.cfg.Overwrite = enabled
	return b
}

// Build validates and normalizes the accumulated parameters into a Config.
func (b *Builder) Build() (Config, error) {
	cfg := b.cfg

	if cfg.Host == "" {
		return Config{}, fmt.Errorf("host is required")
	}
	if cfg.TargetRoot == "" {
		return Config{}, fmt.Errorf("target root is required")
	}
	if cfg.SourceRoot == "" {
		return Config{}, fmt.Errorf("source root is required")
	}

	absSrc, err := filepath.Abs(cfg.SourceRoot)
	if err != nil {
		return Config{}, fmt.Errorf("invalid source root: %w", err)
	}

	info, err := os.Stat(absSrc)
	if err != nil {
		return Config{}, fmt.Errorf("source root not found: %w", err)
	}
	if !info.IsDir() {
		return Config{}, fmt.Errorf("source root %s is not a directory", absSrc)
	}
	cfg.SourceRoot = absSrc

	cfg.TargetRoot = NormalizeTarget(cfg.TargetRoot)

	for _, pattern := range append(append([]string{}, cfg.Includes...), cfg.Excludes...) {
		if !doublestar.ValidatePattern(pattern) {
			return Config{}, fmt.Errorf("invalid pattern %q", pattern)
		}
	}

	return cfg, nil
}

// NormalizeTarget collapses repeated separators, strips any trailing
// separator and guarantees a leading "/".
func NormalizeTarget(dir string) string {
	dir = strings.ReplaceAll(dir, "\\", "/")
	if !strings.HasPrefix(dir, "/") {
		dir = "/" + dir
	}

	return path.Clean(dir)
}
