package authgw

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// TokenSource supplies the bearer token the service uses to authenticate
// with the auth gateway.
type TokenSource interface {
	Token() (string, error)
}

// StaticTokenSource returns a fixed token.
type StaticTokenSource string

func (s StaticTokenSource) Token() (string, error) {
	return string(s), nil
}

// FileTokenSource reads the token from a file and reloads it when the file
// changes, so rotated mounted secrets are picked up without a restart.
type FileTokenSource struct {
	path string

	mu    sync.RWMutex
	token string

	watcher *fsnotify.Watcher
}

// NewFileTokenSource loads the token from path and starts watching for
// changes. Close releases the watcher.
func NewFileTokenSource(path string) (*FileTokenSource, error) {
	s := &FileTokenSource{path: path}
	if err := s.reload(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create token file watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch token file %s: %w", path, err)
	}
	s.watcher = watcher

	go s.watch()
	return s, nil
}

func (s *FileTokenSource) Token() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", fmt.Errorf("token file %s is empty", s.path)
	}
	return s.token, nil
}

// Close stops watching the token file.
func (s *FileTokenSource) Close() error {
	if s.watcher == nil {
		return nil
	}
	return s.watcher.Close()
}

func (s *FileTokenSource) reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read token file %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.token = strings.TrimSpace(string(data))
	s.mu.Unlock()
	return nil
}

func (s *FileTokenSource) watch() {
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := s.reload(); err != nil {
				// Keep serving the last good token.
				log.Printf("Failed to reload auth gateway token: %v", err)
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Token file watcher error: %v", err)
		}
	}
}
