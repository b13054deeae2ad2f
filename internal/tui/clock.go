package tui

import (
	"fmt"
	"strings"

	"github.com/fentz26/worldtime/internal/session"
)

// ClockLine renders the session clock on one line.
func ClockLine(st session.State) string {
	status := "not set"
	if st.Initialized {
		status = st.Elapsed.String()
	}
	return fmt.Sprintf("%s  %s  •  elapsed %s  •  %s mode", st.Current.Date, st.Current.Time, status, st.Mode)
}

// CooldownLine renders the armed cooldowns, or nothing.
func CooldownLine(st session.State) string {
	text := st.Cooldowns.Render(st.Anchor)
	if text == "" {
		return ""
	}
	var parts []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " · ")
}
