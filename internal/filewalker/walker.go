package filewalker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"locforge/internal/parser"

	"github.com/rs/zerolog/log"
)

// Walker finds localization files below a root directory.
type Walker struct {
	// SkipHidden skips files and directories whose name starts with a dot.
	SkipHidden bool
}

func NewWalker() *Walker {
	return &Walker{SkipHidden: true}
}

// FileEntry is a discovered file ready for processing.
type FileEntry struct {
	Path   string
	Rel    string // path relative to the walk root
	Ext    string
	Format parser.Format
}

// Walk discovers all supported files under root, in lexical order.
func (w *Walker) Walk(root string) ([]FileEntry, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root path: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", root)
	}

	var entries []FileEntry

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error walking path")
			return nil
		}

		if w.SkipHidden && path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		format, err := parser.FormatFor(ext)
		if err != nil {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("relative path for %s: %w", path, err)
		}
		entries = append(entries, FileEntry{
			Path:   path,
			Rel:    rel,
			Ext:    ext,
			Format: format,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	log.Info().Int("count", len(entries)).Str("root", root).Msg("Discovered files")
	return entries, nil
}

// ReadFile loads a discovered file for parsing.
func ReadFile(entry FileEntry) (parser.File, error) {
	content, err := os.ReadFile(entry.Path)
	if err != nil {
		return parser.File{}, fmt.Errorf("read %s: %w", entry.Rel, err)
	}
	return parser.File{
		Name:      filepath.Base(entry.Path),
		Extension: entry.Ext,
		Content:   content,
	}, nil
}

// OutputPath mirrors entry under outRoot, creating parent directories. The
// extension follows what the file is rewritten as, so a legacy .xls lands
// as .xlsx.
func OutputPath(outRoot string, entry FileEntry) (string, error) {
	rel := strings.TrimSuffix(entry.Rel, filepath.Ext(entry.Rel)) + parser.OutputExtension(filepath.Ext(entry.Rel))
	out := filepath.Join(outRoot, rel)
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	return out, nil
}
