package usecase

import (
	"fmt"
	"strings"
	"time"

	"banlogger/internal/domain/model"
)

const (
	// DefaultTitle is the embed title used when none is configured.
	DefaultTitle = "Punishment Logger"
	// AccentColor is the embed color (#D10E11).
	AccentColor uint32 = 0xD10E11

	kickLabel     = "Kick"
	codeFence     = "```"
	maxFieldRunes = 1024
	secondsPerDay = 24 * 60 * 60
)

// Formatter turns punishment records into notifications. It holds no mutable
// state and is safe for concurrent use.
type Formatter struct {
	title string
	now   func() time.Time
}

// NewFormatter builds a Formatter. A nil clock defaults to time.Now.
func NewFormatter(title string, now func() time.Time) Formatter {
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}
	if now == nil {
		now = time.Now
	}
	return Formatter{title: title, now: now}
}

// Title returns the configured notification title.
func (f Formatter) Title() string {
	return f.title
}

// Format builds the notification for a single record.
func (f Formatter) Format(record model.EventRecord) model.Notification {
	return model.Notification{
		Title: f.title,
		Fields: []model.NotificationField{
			{Name: "User Punished", Value: codeLine(formatIdentity(record.Target))},
			{Name: "Issuing Staff", Value: codeLine(formatIdentity(record.Issuer))},
			{Name: "Reason", Value: codeLine(record.Reason)},
			{Name: "Ban Duration", Value: codeLine(FormatDuration(record.Duration))},
		},
		Color:     AccentColor,
		Timestamp: f.now().UTC(),
	}
}

// FormatDuration renders a ban length in seconds for humans. Only the first
// matching coarse unit (years, months, days or hours) is printed, followed by
// the minute and second components of the remainder; years and months are
// 365 and 30 day approximations.
func FormatDuration(seconds int64) string {
	if seconds <= 0 {
		return kickLabel
	}

	days := seconds / secondsPerDay
	hours := seconds / 3600 % 24
	minutes := seconds / 60 % 60
	secs := seconds % 60

	parts := make([]string, 0, 3)
	switch {
	case days >= 365:
		parts = append(parts, fmt.Sprintf("%dy", days/365))
	case days >= 30:
		parts = append(parts, fmt.Sprintf("%dmon", days/30))
	case days >= 1:
		parts = append(parts, fmt.Sprintf("%dd", days))
	case hours > 0:
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dmin", minutes))
	}
	if secs > 0 {
		parts = append(parts, fmt.Sprintf("%ds", secs))
	}

	return strings.TrimSpace(strings.Join(parts, " "))
}

func formatIdentity(id model.Identity) string {
	return fmt.Sprintf("%s (%s)", id.Name, id.ID)
}

// codeLine wraps message in a code block, shortening the inner text so the
// whole value stays within maxFieldRunes and both fences survive.
func codeLine(message string) string {
	limit := maxFieldRunes - 2*len(codeFence)
	runes := []rune(message)
	if len(runes) > limit {
		message = strings.TrimSpace(string(runes[:limit-3])) + "..."
	}
	return codeFence + message + codeFence
}
