package telegram

import (
	"fmt"
	"time"
)

// FormatRunFailureMessage builds the alert sent when a pipeline run ends in a
// terminal failure.
func FormatRunFailureMessage(at time.Time, trigger string, errMsg string) string {
	return fmt.Sprintf("*Prediction pipeline failed*\n"+
		"Time: `%s`\n"+
		"Trigger: `%s`\n"+
		"Error: `%s`",
		at.UTC().Format(time.RFC3339), trigger, errMsg)
}

// FormatRunSummaryMessage builds the optional success notification.
func FormatRunSummaryMessage(at time.Time, trigger string, processed, failed int, published bool, commitHash string) string {
	outcome := "no changes, nothing committed"
	if published {
		outcome = fmt.Sprintf("committed `%s`", shortHash(commitHash))
	}
	return fmt.Sprintf("*Prediction pipeline completed*\n"+
		"Time: `%s`\n"+
		"Trigger: `%s`\n"+
		"Symbols: %d processed, %d failed\n"+
		"Publish: %s",
		at.UTC().Format(time.RFC3339), trigger, processed, failed, outcome)
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
