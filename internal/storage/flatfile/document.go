package flatfile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// BindingEntry is one token's leaf in the bindings file
type BindingEntry struct {
	Material string `yaml:"material"`
	Uses     int32  `yaml:"uses"`
	MaxUses  int32  `yaml:"max_uses"`
	Hidden   bool   `yaml:"hidden"`
}

// BindingDocument is the bindings file layout: owner -> token id -> entry
type BindingDocument map[string]map[string]BindingEntry

// FavoriteDocument is the favorites file layout: owner -> kinds
type FavoriteDocument map[string][]string

// Records counts the token entries across all owners
func (d BindingDocument) Records() int {
	n := 0
	for _, owned := range d {
		n += len(owned)
	}
	return n
}

// ReadBindingDocument loads a bindings file. A missing or empty file is an
// empty document.
func ReadBindingDocument(path string) (BindingDocument, error) {
	doc := BindingDocument{}
	if err := readYAML(path, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		doc = BindingDocument{}
	}
	return doc, nil
}

// WriteBindingDocument replaces the bindings file atomically. An empty
// document is written as {} rather than leaving no file.
func WriteBindingDocument(path string, doc BindingDocument) error {
	if doc == nil {
		doc = BindingDocument{}
	}
	return writeYAML(path, doc)
}

// ReadFavoriteDocument loads a favorites file
func ReadFavoriteDocument(path string) (FavoriteDocument, error) {
	doc := FavoriteDocument{}
	if err := readYAML(path, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		doc = FavoriteDocument{}
	}
	return doc, nil
}

// WriteFavoriteDocument replaces the favorites file atomically, with each
// owner's kinds sorted and de-duplicated
func WriteFavoriteDocument(path string, doc FavoriteDocument) error {
	out := FavoriteDocument{}
	for owner, kinds := range doc {
		if len(kinds) == 0 {
			continue
		}
		out[owner] = sortedUnique(kinds)
	}
	return writeYAML(path, out)
}

func sortedUnique(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func readYAML(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := yaml.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeYAML(path string, v any) error {
	raw, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, raw)
}

// WriteFileAtomic writes data to a temp file next to path and renames it into
// place
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
