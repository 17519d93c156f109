package migration

import (
	"fmt"
	"os"
	"strings"

	"github.com/mcoot/chargedblocks/internal/storage/flatfile"
)

// FileStats describes one file involved in a migration
type FileStats struct {
	Path    string `json:"path"`
	Exists  bool   `json:"exists"`
	Size    int64  `json:"size_bytes"`
	Owners  int    `json:"owners"`
	Records int    `json:"records"`
	// Unreadable is set when the file exists but does not parse
	Unreadable bool `json:"unreadable,omitempty"`
}

// Stats is a snapshot of the migration files
type Stats struct {
	Legacy         FileStats `json:"legacy"`
	New            FileStats `json:"new"`
	Backup         FileStats `json:"backup"`
	NeedsMigration bool      `json:"needs_migration"`
}

// Stats inspects the legacy, new and legacy backup files
func (e *Engine) Stats() Stats {
	return Stats{
		Legacy:         fileStats(e.cfg.LegacyPath),
		New:            fileStats(e.cfg.NewPath),
		Backup:         fileStats(e.cfg.LegacyPath + BackupSuffix),
		NeedsMigration: e.NeedsMigration(),
	}
}

func fileStats(path string) FileStats {
	fs := FileStats{Path: path}
	info, err := os.Stat(path)
	if err != nil {
		return fs
	}
	fs.Exists = true
	fs.Size = info.Size()

	doc, err := flatfile.ReadBindingDocument(path)
	if err != nil {
		fs.Unreadable = true
		return fs
	}
	fs.Owners = len(doc)
	fs.Records = doc.Records()
	return fs
}

func (fs FileStats) String() string {
	if !fs.Exists {
		return fmt.Sprintf("%s: missing", fs.Path)
	}
	if fs.Unreadable {
		return fmt.Sprintf("%s: %d bytes, unreadable", fs.Path, fs.Size)
	}
	return fmt.Sprintf("%s: %d bytes, %d owners, %d records", fs.Path, fs.Size, fs.Owners, fs.Records)
}

// String renders the stats for operators
func (s Stats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "legacy: %s\n", s.Legacy)
	fmt.Fprintf(&b, "new:    %s\n", s.New)
	fmt.Fprintf(&b, "backup: %s\n", s.Backup)
	fmt.Fprintf(&b, "needs migration: %t\n", s.NeedsMigration)
	return b.String()
}
