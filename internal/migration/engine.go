// Package migration converts the legacy bindings file into the current
// flat-file layout
package migration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/mcoot/chargedblocks/internal/audit"
	"github.com/mcoot/chargedblocks/internal/model"
	"github.com/mcoot/chargedblocks/internal/storage/flatfile"
)

// BackupSuffix is appended to files moved aside by a migration
const BackupSuffix = ".backup"

// Config holds the source and destination file paths
type Config struct {
	LegacyPath string
	NewPath    string
}

// DefaultConfig returns the conventional paths under dataDir
func DefaultConfig(dataDir string) Config {
	return Config{
		LegacyPath: filepath.Join(dataDir, "data.yml"),
		NewPath:    filepath.Join(dataDir, "bindings.yml"),
	}
}

// Summary reports the outcome of a migration run
type Summary struct {
	// Skipped is set when there was nothing to migrate
	Skipped  bool
	Owners   int
	Migrated int
	Dropped  int

	// LegacyBackup is where the legacy file was moved
	LegacyBackup string
	// NewBackup is where a pre-existing new file was moved by ForceMigrate
	NewBackup string
}

// Engine runs migrations between the two layouts. It is not safe for
// concurrent use; migrations run once at startup or by operator action.
type Engine struct {
	cfg     Config
	journal audit.Journal
	logger  *slog.Logger
}

// New creates a migration engine
func New(cfg Config, logger *slog.Logger) *Engine {
	return &Engine{cfg: cfg, journal: audit.Nop{}, logger: logger}
}

// WithJournal records one entry per migrated owner to j
func (e *Engine) WithJournal(j audit.Journal) *Engine {
	if j != nil {
		e.journal = j
	}
	return e
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// NeedsMigration reports whether a legacy file is present and the new file
// is not
func (e *Engine) NeedsMigration() bool {
	return exists(e.cfg.LegacyPath) && !exists(e.cfg.NewPath)
}

// Migrate converts the legacy file when NeedsMigration holds and is a
// successful no-op otherwise. Invalid records are dropped and counted. On
// success the legacy file is renamed with BackupSuffix.
func (e *Engine) Migrate(ctx context.Context) (Summary, error) {
	if !e.NeedsMigration() {
		return Summary{Skipped: true}, nil
	}
	return e.run(ctx, e.cfg.LegacyPath)
}

// ForceMigrate migrates regardless of the gate. An existing new file is
// first moved to its backup name. With the legacy file already moved aside
// by an earlier run, its backup is used as the source and left in place.
func (e *Engine) ForceMigrate(ctx context.Context) (Summary, error) {
	source := e.cfg.LegacyPath
	if !exists(source) {
		source = e.cfg.LegacyPath + BackupSuffix
		if !exists(source) {
			return Summary{}, fmt.Errorf("%w: no legacy file at %s", model.ErrMigrationFailure, e.cfg.LegacyPath)
		}
	}

	var newBackup string
	if exists(e.cfg.NewPath) {
		newBackup = e.cfg.NewPath + BackupSuffix
		if err := os.Rename(e.cfg.NewPath, newBackup); err != nil {
			return Summary{}, e.fail("back up new file", err)
		}
		e.logger.Info("backed up existing bindings file", slog.String("path", newBackup))
	}

	sum, err := e.run(ctx, source)
	sum.NewBackup = newBackup
	return sum, err
}

func (e *Engine) fail(step string, err error) error {
	e.logger.Error("migration failed",
		slog.String("step", step),
		slog.String("legacy", e.cfg.LegacyPath),
		slog.String("error", err.Error()),
	)
	return fmt.Errorf("%w: %s: %v", model.ErrMigrationFailure, step, err)
}

func (e *Engine) run(ctx context.Context, source string) (Summary, error) {
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}

	doc, sum, err := e.convert(source)
	if err != nil {
		return Summary{}, e.fail("read legacy file", err)
	}
	if err := flatfile.WriteBindingDocument(e.cfg.NewPath, doc); err != nil {
		return Summary{}, e.fail("write bindings file", err)
	}

	// A backup used as the source stays where it is
	if source == e.cfg.LegacyPath {
		backup := e.cfg.LegacyPath + BackupSuffix
		if err := os.Rename(e.cfg.LegacyPath, backup); err != nil {
			return Summary{}, e.fail("back up legacy file", err)
		}
		sum.LegacyBackup = backup
	}

	e.record(ctx, doc)
	e.logger.Info("migrated legacy bindings",
		slog.Int("owners", sum.Owners),
		slog.Int("records", sum.Migrated),
		slog.Int("dropped", sum.Dropped),
	)
	return sum, nil
}

func (e *Engine) record(ctx context.Context, doc flatfile.BindingDocument) {
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		owner, err := uuid.Parse(k)
		if err != nil {
			continue
		}
		e.journal.Record(ctx, audit.Entry{
			Action: audit.ActionMigration,
			Owner:  owner,
			Count:  len(doc[k]),
		})
	}
}

// convert reads the legacy file into the new layout, dropping records that
// fail validation
func (e *Engine) convert(path string) (flatfile.BindingDocument, Summary, error) {
	var sum Summary
	doc := flatfile.BindingDocument{}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, sum, err
	}
	var owners map[string]yaml.Node
	if err := yaml.Unmarshal(raw, &owners); err != nil {
		return nil, sum, err
	}

	for ownerKey, node := range owners {
		var records map[string]any
		if err := node.Decode(&records); err != nil {
			sum.Dropped++
			continue
		}
		owner, err := parseKey(ownerKey)
		if err != nil {
			sum.Dropped += len(records)
			continue
		}

		owned := doc[owner]
		if owned == nil {
			owned = make(map[string]flatfile.BindingEntry, len(records))
		}
		for idKey, v := range records {
			id, err := parseKey(idKey)
			if err != nil {
				sum.Dropped++
				continue
			}
			rec, err := decodeRecord(v)
			if err != nil {
				e.logger.Debug("dropping invalid legacy record",
					slog.String("owner", ownerKey),
					slog.String("token_id", idKey),
					slog.String("error", err.Error()),
				)
				sum.Dropped++
				continue
			}
			owned[id] = flatfile.BindingEntry{
				Material: rec.Material,
				Uses:     rec.Uses,
				MaxUses:  rec.MaxUses,
				Hidden:   rec.Hidden,
			}
		}
		if len(owned) > 0 {
			doc[owner] = owned
		}
	}

	sum.Owners = len(doc)
	sum.Migrated = doc.Records()
	return doc, sum, nil
}

// parseKey checks an identifier key and returns its canonical form
func parseKey(key string) (string, error) {
	id, err := uuid.Parse(key)
	if err != nil {
		return "", errors.Join(model.ErrInvalidRecord, err)
	}
	return id.String(), nil
}

// Validate reports whether the new file parses to a non-null document
func (e *Engine) Validate() bool {
	raw, err := os.ReadFile(e.cfg.NewPath)
	if err != nil {
		return false
	}
	var v any
	if err := yaml.Unmarshal(raw, &v); err != nil {
		return false
	}
	return v != nil
}
