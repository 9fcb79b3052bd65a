package syncer

import (
	"fmt"
	"strings"

	"grimm.is/allowsync/internal/brand"
	"grimm.is/allowsync/internal/notification"
)

// FromOutcomes builds the run summary notification. Quiet passes (nothing
// changed, nothing failed) produce no notification at all; failures raise
// the level to warning.
func FromOutcomes(runID string, outcomes []Outcome) (notification.Notification, bool) {
	var changed, failed int
	var lines []string

	for _, o := range outcomes {
		switch {
		case o.Err != nil:
			failed++
			lines = append(lines, fmt.Sprintf("%s (%s): failed: %v", o.Target, o.Kind, o.Err))
		case o.Skipped:
			lines = append(lines, fmt.Sprintf("%s (%s): skipped: %s", o.Target, o.Kind, o.Reason))
		case o.Changed && o.Kind == "document":
			changed++
			lines = append(lines, fmt.Sprintf("%s (%s): rewrote %d region(s) with %d item(s)",
				o.Target, o.Kind, o.Regions, o.Items))
		case o.Changed:
			changed++
			lines = append(lines, fmt.Sprintf("%s (%s): +%d -%d", o.Target, o.Kind, len(o.Added), len(o.Removed)))
		}
	}

	if changed == 0 && failed == 0 {
		return notification.Notification{}, false
	}

	level := notification.LevelInfo
	title := fmt.Sprintf("%s: %d target(s) updated", brand.Name, changed)
	if failed > 0 {
		level = notification.LevelWarning
		title = fmt.Sprintf("%s: %d target(s) failed, %d updated", brand.Name, failed, changed)
	}

	return notification.Notification{
		Title:   title,
		Message: strings.Join(lines, "\n"),
		Level:   level,
		Data:    map[string]interface{}{"run_id": runID},
	}, true
}
