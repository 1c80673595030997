package fotosida

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"k8s.io/klog/v2"
)

const (
	DefaultMaxSize         = 2560
	DefaultThumbSize       = 1024
	DefaultQuality         = 90
	DefaultCompressQuality = 0
	DefaultTitle           = "Photography"

	ExifBackendGo       = "goexif"
	ExifBackendExiftool = "exiftool"
)

// Config holds configuration for a site build.
type Config struct {
	InDir  string
	OutDir string

	// MaxSize is the longest side of a full-size render, ThumbSize of thumbnail.jpg.
	MaxSize   int
	ThumbSize int

	Quality int
	// CompressQuality is used by an optional second, lossy recompression pass;
	// 0 (the default) disables it so each image is encoded once.
	CompressQuality int

	Title       string
	Description string

	TemplateDir string
	AssetsDir   string
	ExifBackend string
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		klog.Warningf("invalid %s %q, using default %d: %v", key, s, defaultVal, err)
		return defaultVal
	}
	return v
}

// LoadConfig returns a configuration populated from FOTOSIDA_* environment
// variables. envFiles (default: .env) are loaded first if they exist.
func LoadConfig(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
		klog.V(1).Infof("loaded environment from %s", f)
	}

	return &Config{
		InDir:           os.Getenv("FOTOSIDA_IN"),
		OutDir:          os.Getenv("FOTOSIDA_OUT"),
		MaxSize:         getEnvIntOrDefault("FOTOSIDA_MAX_SIZE", DefaultMaxSize),
		ThumbSize:       getEnvIntOrDefault("FOTOSIDA_THUMB_SIZE", DefaultThumbSize),
		Quality:         getEnvIntOrDefault("FOTOSIDA_QUALITY", DefaultQuality),
		CompressQuality: getEnvIntOrDefault("FOTOSIDA_COMPRESS_QUALITY", DefaultCompressQuality),
		Title:           getEnvOrDefault("FOTOSIDA_TITLE", DefaultTitle),
		Description:     os.Getenv("FOTOSIDA_DESCRIPTION"),
		TemplateDir:     os.Getenv("FOTOSIDA_TEMPLATES"),
		AssetsDir:       os.Getenv("FOTOSIDA_ASSETS"),
		ExifBackend:     getEnvOrDefault("FOTOSIDA_EXIF", ExifBackendGo),
	}, nil
}

// Validate reports the first problem with c.
func (c *Config) Validate() error {
	switch {
	case c.InDir == "":
		return errors.New("input directory is required")
	case c.OutDir == "":
		return errors.New("output directory is required")
	case c.MaxSize <= 0:
		return fmt.Errorf("max size must be positive, got %d", c.MaxSize)
	case c.ThumbSize <= 0:
		return fmt.Errorf("thumbnail size must be positive, got %d", c.ThumbSize)
	case c.Quality < 1 || c.Quality > 100:
		return fmt.Errorf("quality must be within 1-100, got %d", c.Quality)
	case c.CompressQuality < 0 || c.CompressQuality > 100:
		return fmt.Errorf("compress quality must be within 0-100, got %d", c.CompressQuality)
	}

	switch c.ExifBackend {
	case "", ExifBackendGo, ExifBackendExiftool:
	default:
		return fmt.Errorf("unknown exif backend %q", c.ExifBackend)
	}

	st, err := os.Stat(c.InDir)
	if err != nil {
		return fmt.Errorf("stat input: %w", err)
	}
	if !st.IsDir() {
		return fmt.Errorf("input %s is not a directory", c.InDir)
	}
	return nil
}
