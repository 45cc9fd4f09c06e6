package tags

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// DefaultExtensions are the note files indexed when none are configured.
var DefaultExtensions = []string{".md"}

// Scan walks root and indexes every note matching extensions. Any file or
// directory whose name begins with "." is skipped. It returns the number of
// notes read.
func Scan(root string, extensions []string, idx *Index) (int, error) {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	fileCh := make(chan string, 100)
	var wg sync.WaitGroup
	count := 0

	// reader goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		for path := range fileCh {
			if err := IndexFile(idx, path); err != nil {
				log.Warnf("Skipping note %s: %v", path, err)
				continue
			}
			count++
		}
	}()

	log.Debugf("Scanning vault at %s", root)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Debugf("Walk error at %s: %v", path, err)
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !MatchExtension(path, extensions) {
			return nil
		}
		fileCh <- path
		return nil
	})
	close(fileCh)
	wg.Wait()

	if err != nil {
		return count, fmt.Errorf("failed to scan vault %s: %w", root, err)
	}
	log.Debugf("Indexed %d notes from %s", count, root)
	return count, nil
}

// IndexFile reads one note and records its tags under its path.
func IndexFile(idx *Index, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	idx.Set(filepath.Clean(path), Parse(data))
	return nil
}

// MatchExtension reports whether path ends in one of extensions,
// ignoring case and the leading dot.
func MatchExtension(path string, extensions []string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}
