package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mcoot/chargedblocks/internal/api/response"
	"github.com/mcoot/chargedblocks/internal/audit"
	"github.com/mcoot/chargedblocks/internal/migration"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.BindingList:
		o.printBindingList(v)
	case response.FavoriteList:
		o.printFavoriteList(v)
	case response.ToggleResponse:
		o.printToggle(v)
	case response.Health:
		o.printHealth(v)
	case response.MigrationStats:
		fmt.Fprint(o.w, v.Stats.String())
		fmt.Fprintf(o.w, "new file valid: %t\n", v.Valid)
	case MigrationResult:
		o.printMigrationResult(v)
	case OwnerList:
		for _, owner := range v.Owners {
			fmt.Fprintln(o.w, owner)
		}
	case AuditLog:
		o.printAuditLog(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// MigrationResult reports a migrate run
type MigrationResult struct {
	Forced  bool              `json:"forced"`
	Summary migration.Summary `json:"summary"`
}

// OwnerList lists every owner with at least one binding
type OwnerList struct {
	Owners []string `json:"owners"`
}

// AuditLog holds journal entries read from disk
type AuditLog struct {
	Files   []string      `json:"files"`
	Entries []audit.Entry `json:"entries"`
}

func (o *Output) printBindingList(l response.BindingList) {
	if len(l.Bindings) == 0 {
		fmt.Fprintf(o.w, "No bindings for %s\n", l.Owner)
		return
	}

	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TOKEN\tKIND\tNAME\tUSES\tHIDDEN")
	for _, b := range l.Bindings {
		uses := fmt.Sprintf("%d/%d", b.Uses, b.MaxUses)
		if b.Infinite {
			uses = "infinite"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n", b.TokenID, b.Kind, b.DisplayName, uses, b.Hidden)
	}
	_ = tw.Flush()
}

func (o *Output) printFavoriteList(l response.FavoriteList) {
	if len(l.Favorites) == 0 {
		fmt.Fprintf(o.w, "No favorites for %s\n", l.Owner)
		return
	}
	for _, f := range l.Favorites {
		fmt.Fprintf(o.w, "%s (%s)\n", f.DisplayName, f.Kind)
	}
}

func (o *Output) printToggle(t response.ToggleResponse) {
	if t.Favorited {
		fmt.Fprintf(o.w, "%s favorited\n", t.Kind)
	} else {
		fmt.Fprintf(o.w, "%s unfavorited\n", t.Kind)
	}
}

func (o *Output) printHealth(h response.Health) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	fmt.Fprintf(o.w, "Registry: %s\n", h.Registry)
	fmt.Fprintf(o.w, "Storage: %s\n", h.Storage)
}

func (o *Output) printMigrationResult(r MigrationResult) {
	s := r.Summary
	if s.Skipped {
		fmt.Fprintln(o.w, "Nothing to migrate")
		return
	}
	fmt.Fprintf(o.w, "Migrated %d records for %d owners (%d dropped)\n", s.Migrated, s.Owners, s.Dropped)
	if s.LegacyBackup != "" {
		fmt.Fprintf(o.w, "Legacy file moved to %s\n", s.LegacyBackup)
	}
	if s.NewBackup != "" {
		fmt.Fprintf(o.w, "Previous bindings file moved to %s\n", s.NewBackup)
	}
}

func (o *Output) printAuditLog(l AuditLog) {
	if len(l.Entries) == 0 {
		fmt.Fprintln(o.w, "No audit entries")
		return
	}
	for _, e := range l.Entries {
		parts := []string{e.At.Format("2006-01-02T15:04:05Z07:00"), string(e.Action), e.Owner.String()}
		if e.TokenID != nil {
			parts = append(parts, e.TokenID.String())
		}
		if e.Kind != "" {
			parts = append(parts, string(e.Kind))
		}
		if e.Uses != nil && e.MaxUses != nil {
			parts = append(parts, fmt.Sprintf("%d/%d", *e.Uses, *e.MaxUses))
		}
		if e.Count > 0 {
			parts = append(parts, fmt.Sprintf("count=%d", e.Count))
		}
		fmt.Fprintln(o.w, strings.Join(parts, " "))
	}
}
