package ui

import (
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"feedengage/pkg/config"
	"feedengage/pkg/models"
)

// NotificationSender delivers a desktop notification
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender sends notifications on Linux using notify-send
type LinuxNotificationSender struct{}

func (l *LinuxNotificationSender) Send(title, message string) error {
	return exec.Command("notify-send", title, message).Run()
}

// MacOSNotificationSender sends notifications on macOS using osascript
type MacOSNotificationSender struct{}

func (m *MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification %q with title %q`, message, title)
	return exec.Command("osascript", "-e", script).Run()
}

// WindowsNotificationSender sends notifications on Windows using PowerShell
type WindowsNotificationSender struct{}

func (w *WindowsNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`
		[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
		[Windows.Data.Xml.Dom.XmlDocument, Windows.Data.Xml.Dom.XmlDocument, ContentType = WindowsRuntime] | Out-Null
		$xml = @"
<toast>
	<visual>
		<binding template="ToastText02">
			<text id="1">%s</text>
			<text id="2">%s</text>
		</binding>
	</visual>
</toast>
"@
		$doc = [Windows.Data.Xml.Dom.XmlDocument]::new()
		$doc.LoadXml($xml)
		$toast = [Windows.UI.Notifications.ToastNotification]::new($doc)
		[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier("feedengage").Show($toast)
	`, title, message)
	return exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script).Run()
}

// NewPlatformSender returns the sender for the current OS, or nil
func NewPlatformSender() NotificationSender {
	switch runtime.GOOS {
	case "linux":
		return &LinuxNotificationSender{}
	case "darwin":
		return &MacOSNotificationSender{}
	case "windows":
		return &WindowsNotificationSender{}
	default:
		return nil
	}
}

// Notifier turns run events into notifications according to the user's
// notification preferences. It implements Observer.
type Notifier struct {
	sender NotificationSender
	out    io.Writer
	prefs  config.NotificationConfig
}

// NewNotifier creates a notifier. Desktop notifications go to sender and
// terminal notifications to out.
func NewNotifier(sender NotificationSender, out io.Writer, prefs config.NotificationConfig) *Notifier {
	return &Notifier{sender: sender, out: out, prefs: prefs}
}

func (n *Notifier) RunStarted(models.RunInfo) {}

func (n *Notifier) ItemProcessed(platform string, result models.PipelineResult, counters models.RunCounters) {
	every := n.prefs.ProgressInterval
	if !n.prefs.Enabled || every <= 0 || counters.ItemsYielded == 0 || counters.ItemsYielded%every != 0 {
		return
	}
	n.send(fmt.Sprintf("feedengage: %s", platform),
		fmt.Sprintf("%d items processed, %d engaged", counters.ItemsYielded, counters.ItemsEngaged))
}

func (n *Notifier) CooldownStarted(platform string, d time.Duration, reason string) {
	if !n.prefs.Enabled || !n.prefs.OnRateLimit {
		return
	}
	n.send(fmt.Sprintf("feedengage: %s paused", platform),
		fmt.Sprintf("%s, resuming in %s", reason, FormatDuration(d)))
}

func (n *Notifier) RunFinished(summary models.RunSummary) {
	if !n.prefs.Enabled {
		return
	}
	if summary.Termination.Kind == models.TerminationAborted {
		if n.prefs.OnError {
			n.send(fmt.Sprintf("feedengage: %s aborted", summary.Platform), summary.Termination.Cause)
		}
		return
	}
	if n.prefs.OnComplete {
		n.send(fmt.Sprintf("feedengage: %s finished", summary.Platform),
			fmt.Sprintf("%s • %d engaged of %d", summary.Termination.Kind, summary.ItemsEngaged, summary.ItemsYielded))
	}
}

// send ignores delivery failures; notifications are best effort
func (n *Notifier) send(title, message string) {
	switch strings.ToLower(n.prefs.NotificationType) {
	case "none":
	case "desktop":
		if n.sender != nil {
			_ = n.sender.Send(title, message)
		}
	default:
		if n.out != nil {
			fmt.Fprintf(n.out, "\n%s: %s\n", Cyan(title), Yellow(message))
		}
	}
}
