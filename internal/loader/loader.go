// Package loader reads documents from a local directory tree.
//
// Provides functionality to:
//   - Walk a directory recursively and collect supported text files
//   - Skip hidden files and directories, plus anything matched by .gitignore
//   - Attach file metadata used later for source attribution
package loader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	ignore "github.com/sabhiram/go-gitignore"
)

// Sentinel errors returned by Load. Callers check them with errors.Is().
var (
	// ErrInvalidPath indicates the given path does not exist or is not a directory.
	ErrInvalidPath = errors.New("loader: path is not a readable directory")

	// ErrEmptyData indicates the directory contains no loadable files.
	ErrEmptyData = errors.New("loader: no supported files found")
)

// Document is one loaded file, ready for chunking.
type Document struct {
	// ID is a stable identifier derived from the file's absolute path.
	ID string

	// Content is the full file text.
	Content string

	// Metadata carries file attributes (file_name, file_path, file_ext,
	// file_size) that survive chunking and drive source attribution.
	Metadata map[string]string
}

// defaultSupportedExtensions are the file types loaded by default.
var defaultSupportedExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".go":   true,
	".py":   true,
	".js":   true,
	".ts":   true,
	".java": true,
	".c":    true,
	".cpp":  true,
	".h":    true,
	".rs":   true,
	".rb":   true,
	".sh":   true,
	".yaml": true,
	".yml":  true,
	".json": true,
	".xml":  true,
	".html": true,
	".css":  true,
	".sql":  true,
}

// Loader walks directories and produces Documents.
type Loader struct {
	supportedExtensions map[string]bool
}

// New creates a Loader.
//
// extensions: optional list of supported file extensions (e.g. [".txt", ".md"]).
// If empty, the defaults are used. Extensions are matched case-insensitively.
func New(extensions []string) *Loader {
	extMap := make(map[string]bool)

	if len(extensions) > 0 {
		for _, ext := range extensions {
			extMap[strings.ToLower(ext)] = true
		}
	} else {
		// Copy the defaults so instances never share a map.
		extMap = make(map[string]bool, len(defaultSupportedExtensions))
		for k, v := range defaultSupportedExtensions {
			extMap[strings.ToLower(k)] = v
		}
	}

	return &Loader{supportedExtensions: extMap}
}

// Load recursively reads every supported, visible file under dirPath and
// returns one Document per file.
//
// Hidden files and directories (dot-prefixed) are skipped, as is anything
// matched by a .gitignore at the directory root. Returns ErrInvalidPath when
// dirPath does not exist or is not a directory, and ErrEmptyData when the
// walk yields no documents.
func (l *Loader) Load(ctx context.Context, dirPath string) ([]Document, error) {
	absDirPath, err := filepath.Abs(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory path: %w", err)
	}

	info, err := os.Stat(absDirPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPath, dirPath)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidPath, dirPath)
	}

	// Read files through os.Root to prevent symlink escapes out of the tree.
	root, err := os.OpenRoot(absDirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open root directory: %w", err)
	}
	defer func() {
		_ = root.Close()
	}()

	// A malformed .gitignore is ignored rather than failing the whole load.
	var gitIgnore *ignore.GitIgnore
	gitignorePath := filepath.Join(absDirPath, ".gitignore")
	if _, err := os.Stat(gitignorePath); err == nil {
		gitIgnore, err = ignore.CompileIgnoreFile(gitignorePath)
		if err != nil {
			gitIgnore = nil
		}
	}

	var docs []Document

	err = filepath.Walk(absDirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // continue walking even if one entry fails
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		relPath, err := filepath.Rel(absDirPath, path)
		if err != nil {
			return nil
		}
		if relPath == "." {
			return nil
		}

		// Hidden entries are never loaded.
		if strings.HasPrefix(filepath.Base(path), ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if gitIgnore != nil && gitIgnore.MatchesPath(relPath) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if !l.supportedExtensions[ext] {
			return nil
		}

		content, err := root.ReadFile(relPath)
		if err != nil {
			return nil // unreadable file, keep going
		}

		docs = append(docs, Document{
			ID:      generateDocID(path),
			Content: string(content),
			Metadata: map[string]string{
				"file_path": path,
				"file_name": filepath.Base(path),
				"file_ext":  ext,
				"file_size": fmt.Sprintf("%d", info.Size()),
				"loaded_at": time.Now().UTC().Format(time.RFC3339),
			},
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrEmptyData, dirPath)
	}

	return docs, nil
}

// generateDocID derives a stable document ID from the file's absolute path.
func generateDocID(filePath string) string {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		absPath = filePath
	}

	hash := sha256.Sum256([]byte(absPath))
	return "file_" + hex.EncodeToString(hash[:16])
}
