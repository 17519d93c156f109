package token

import (
	"fmt"
	"strings"
)

// Lore line prefixes owned by the codec. Other lines are left alone.
const (
	UsesLinePrefix     = "Uses: "
	ProgressLinePrefix = "Charge: "

	progressSegments = 10
)

func renderLore(lore []string, uses, maxUses int32) []string {
	usesLine := UsesLinePrefix + formatUses(uses, maxUses)
	progressLine := ProgressLinePrefix + progressBar(uses, maxUses)

	out := make([]string, 0, len(lore)+2)
	var wroteUses, wroteProgress bool
	for _, line := range lore {
		switch {
		case strings.HasPrefix(line, UsesLinePrefix):
			if wroteUses {
				continue
			}
			out = append(out, usesLine)
			wroteUses = true
		case strings.HasPrefix(line, ProgressLinePrefix):
			if wroteProgress {
				continue
			}
			out = append(out, progressLine)
			wroteProgress = true
		default:
			out = append(out, line)
		}
	}
	if !wroteUses {
		out = append(out, usesLine)
	}
	if !wroteProgress {
		out = append(out, progressLine)
	}
	return out
}

func formatUses(uses, maxUses int32) string {
	if maxUses == InfiniteUses {
		return "∞"
	}
	return fmt.Sprintf("%d/%d", uses, maxUses)
}

func progressBar(uses, maxUses int32) string {
	filled := progressSegments
	if maxUses != InfiniteUses {
		filled = 0
		if maxUses > 0 && uses > 0 {
			filled = int(int64(uses) * progressSegments / int64(maxUses))
			if filled == 0 {
				filled = 1
			}
			if filled > progressSegments {
				filled = progressSegments
			}
		}
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", progressSegments-filled) + "]"
}

// OwnerLinePrefix marks the ownership annotation added at bind time
const OwnerLinePrefix = "Owner: "

// SetOwnerLine adds or replaces the ownership annotation. It sits above the
// usage lines so Refresh leaves it in place.
func SetOwnerLine(item *Item, name string) {
	line := OwnerLinePrefix + name
	lore := item.Lore()
	for i, l := range lore {
		if strings.HasPrefix(l, OwnerLinePrefix) {
			lore[i] = line
			item.SetLore(lore)
			return
		}
	}
	out := make([]string, 0, len(lore)+1)
	inserted := false
	for _, l := range lore {
		if !inserted && (strings.HasPrefix(l, UsesLinePrefix) || strings.HasPrefix(l, ProgressLinePrefix)) {
			out = append(out, line)
			inserted = true
		}
		out = append(out, l)
	}
	if !inserted {
		out = append(out, line)
	}
	item.SetLore(out)
}
