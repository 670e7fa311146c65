// Package cache keeps JSON manifests of expensive results, keyed by
// the parameters that produced them. Scene downloads use it to skip
// re-requesting imagery the data directory already holds.
package cache

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/heatscape/heatscape-cli/internal/properties"
)

type Entry[T any] struct {
	Data      T         `json:"data"`
	CreatedAt time.Time `json:"created_at"`
	Checksum  string    `json:"checksum"`
}

type FileCache[T any] struct {
	dir string
}

// NewFileCache stores entries under data/<subDir> below the root path.
func NewFileCache[T any](subDir string) *FileCache[T] {
	return &FileCache[T]{dir: filepath.Join(properties.RootPath(), "data", subDir)}
}

// GenerateKey derives a stable file name from the request parameters.
func (fc *FileCache[T]) GenerateKey(params ...interface{}) string {
	h := sha1.New()
	for _, param := range params {
		fmt.Fprintf(h, "%v|", param)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached entry for key, or false when it is missing or
// its checksum no longer matches.
func (fc *FileCache[T]) Get(key string) (T, bool) {
	var zero T
	data, err := os.ReadFile(filepath.Join(fc.dir, key+".json"))
	if err != nil {
		return zero, false
	}

	var entry Entry[T]
	if err := json.Unmarshal(data, &entry); err != nil {
		return zero, false
	}
	if entry.Checksum != checksum(entry.Data) {
		return zero, false
	}
	return entry.Data, true
}

// Set writes the entry through a temp file so readers never see a
// half-written manifest.
func (fc *FileCache[T]) Set(key string, data T) error {
	if err := os.MkdirAll(fc.dir, 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	entry := Entry[T]{Data: data, CreatedAt: time.Now(), Checksum: checksum(data)}
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshalling cache entry: %w", err)
	}

	target := filepath.Join(fc.dir, key+".json")
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, payload, 0644); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("publishing cache entry: %w", err)
	}
	return nil
}

func checksum[T any](data T) string {
	payload, _ := json.Marshal(data)
	sum := md5.Sum(payload)
	return hex.EncodeToString(sum[:])
}
