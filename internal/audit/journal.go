// Package audit keeps an append-only journal of registry mutations
package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/mcoot/chargedblocks/internal/dependencies/clock"
	"github.com/mcoot/chargedblocks/internal/model"
)

// Action names a journaled mutation
type Action string

const (
	ActionBind      Action = "bind"
	ActionSync      Action = "sync"
	ActionHide      Action = "hide"
	ActionUnhide    Action = "unhide"
	ActionDelete    Action = "delete"
	ActionClear     Action = "clear"
	ActionGC        Action = "gc"
	ActionRetrieve  Action = "retrieve"
	ActionDestroy   Action = "destroy"
	ActionBreak     Action = "break"
	ActionMigration Action = "migration"
)

// Entry is one journal line
type Entry struct {
	At      time.Time      `json:"at"`
	Action  Action         `json:"action"`
	Owner   model.PlayerID `json:"owner"`
	TokenID *model.TokenID `json:"token_id,omitempty"`
	Kind    model.Kind     `json:"kind,omitempty"`
	Uses    *int32         `json:"uses,omitempty"`
	MaxUses *int32         `json:"max_uses,omitempty"`
	Count   int            `json:"count,omitempty"`
}

// ForBinding fills the token fields of an entry from a binding
func ForBinding(action Action, b model.Binding) Entry {
	id, uses, maxUses := b.TokenID, b.Uses, b.MaxUses
	return Entry{
		Action:  action,
		Owner:   b.Owner,
		TokenID: &id,
		Kind:    b.Kind,
		Uses:    &uses,
		MaxUses: &maxUses,
	}
}

// Journal receives mutation entries. Recording never fails the mutation.
type Journal interface {
	Record(ctx context.Context, e Entry)
	Close() error
}

// Nop discards every entry
type Nop struct{}

func (Nop) Record(context.Context, Entry) {}

func (Nop) Close() error { return nil }

// Writer appends entries as zstd-compressed JSON lines, one file per hour
type Writer struct {
	baseDir string
	prefix  string
	clock   clock.Clock
	onError func(error)

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

// NewWriter creates a journal under baseDir. onError receives write
// failures and may be nil.
func NewWriter(baseDir string, clk clock.Clock, onError func(error)) *Writer {
	if onError == nil {
		onError = func(error) {}
	}
	return &Writer{
		baseDir: baseDir,
		prefix:  "audit",
		clock:   clk,
		onError: onError,
	}
}

// Record stamps and appends the entry
func (w *Writer) Record(ctx context.Context, e Entry) {
	if e.At.IsZero() {
		e.At = w.clock.Now().UTC()
	}
	if err := w.write(e); err != nil {
		w.onError(err)
	}
}

func (w *Writer) write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := w.clock.Now().UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

// Close flushes and closes the current file
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *Writer) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.baseDir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.pathForHour(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 32*1024)
	w.curHour = hour
	return nil
}

func (w *Writer) closeLocked() error {
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	w.curHour = ""
	return err1
}

func (w *Writer) pathForHour(hour string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
}

// Files lists the journal files under dir, oldest first
func Files(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "audit-*.jsonl.zst"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// ReadFile decodes every entry of a closed journal file. A file is made of
// one zstd frame per writer session, which the decoder reads back to back.
func ReadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out []Entry
	jd := json.NewDecoder(dec)
	for {
		var e Entry
		if err := jd.Decode(&e); err != nil {
			if err == io.EOF {
				return out, nil
			}
			return out, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		out = append(out, e)
	}
}
