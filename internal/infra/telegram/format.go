package telegram

import (
	"fmt"
	"strings"
	"time"

	"interval_reminder_bot/internal/app"
	"interval_reminder_bot/internal/domain/session"
)

const notificationsDisabledWarning = "⚠️ I can't reach this chat, so reminders won't arrive. Send /start to me and try again."

// FormatCountdown renders a duration as mm:ss, or h:mm:ss from one hour up.
func FormatCountdown(d time.Duration) string {
	secs := session.View{Remaining: d}.RemainingSeconds()
	h, m, s := secs/3600, (secs%3600)/60, secs%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

func phaseLabel(p session.Phase) string {
	switch p {
	case session.PhaseWork:
		return "Focus"
	case session.PhaseBreak:
		return "Break"
	default:
		return "Idle"
	}
}

// FormatStatusReport builds the reply shown after /work, /stop and /status.
func FormatStatusReport(report *app.StatusReport, loc *time.Location) string {
	var b strings.Builder
	switch {
	case report.View.Phase == session.PhaseIdle:
		b.WriteString("Timer is idle.")
		fmt.Fprintf(&b, "\nNext cycle: %d min work / %d min break. Use /work to start.", report.Config.WorkMinutes, report.Config.BreakMinutes)
	default:
		if report.AlreadyRunning {
			b.WriteString("A cycle is already running.\n")
		}
		fmt.Fprintf(&b, "%s: %s left", phaseLabel(report.View.Phase), FormatCountdown(report.View.Remaining))
		if report.EndInstant != nil {
			fmt.Fprintf(&b, " (until %s)", report.EndInstant.In(loc).Format("15:04"))
		}
		fmt.Fprintf(&b, "\nCycle: %d min work / %d min break.", report.Config.WorkMinutes, report.Config.BreakMinutes)
	}
	if !report.NotificationsEnabled {
		b.WriteString("\n\n")
		b.WriteString(notificationsDisabledWarning)
	}
	return b.String()
}
