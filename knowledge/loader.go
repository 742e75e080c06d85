package knowledge

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Document is a chunk of source material with its provenance.
type Document struct {
	// Source is the file the chunk came from, relative to the load root.
	Source string

	// Content is the chunk text.
	Content string
}

// LoadDir reads every .txt and .md file under dir (recursively), splits the
// contents into chunks and returns the resulting documents. Files are
// visited in sorted path order so the output is deterministic.
func LoadDir(dir string, chunkSize, chunkOverlap int) ([]Document, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".txt", ".md":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("knowledge: scanning %s: %w", dir, err)
	}
	sort.Strings(paths)

	var docs []Document
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("knowledge: reading %s: %w", path, err)
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = filepath.Base(path)
		}

		for _, chunk := range Chunk(string(data), chunkSize, chunkOverlap) {
			docs = append(docs, Document{Source: rel, Content: chunk})
		}
	}
	return docs, nil
}
