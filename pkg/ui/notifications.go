package ui

import (
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"
)

// NotificationSender delivers a desktop notification
type NotificationSender interface {
	Send(title, message string) error
}

type linuxSender struct{}

func (linuxSender) Send(title, message string) error {
	return exec.Command("notify-send", "--app-name=fbexport", title, message).Run()
}

type macSender struct{}

func (macSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification %q with title %q`, message, title)
	return exec.Command("osascript", "-e", script).Run()
}

type windowsSender struct{}

func (windowsSender) Send(title, message string) error {
	quote := func(s string) string { return strings.ReplaceAll(s, "'", "''") }
	script := fmt.Sprintf(`
		[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
		$template = [Windows.UI.Notifications.ToastNotificationManager]::GetTemplateContent([Windows.UI.Notifications.ToastTemplateType]::ToastText02)
		$text = $template.GetElementsByTagName('text')
		$text.Item(0).AppendChild($template.CreateTextNode('%s')) | Out-Null
		$text.Item(1).AppendChild($template.CreateTextNode('%s')) | Out-Null
		$toast = [Windows.UI.Notifications.ToastNotification]::new($template)
		[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier('fbexport').Show($toast)
	`, quote(title), quote(message))
	return exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script).Run()
}

// Notifier echoes to a console writer and, where supported, raises a
// desktop notification. Desktop failures are ignored.
type Notifier struct {
	out    io.Writer
	sender NotificationSender
}

// NewNotifier picks the sender for the running platform. A nil sender is
// used on platforms without one.
func NewNotifier(out io.Writer) *Notifier {
	var sender NotificationSender
	switch runtime.GOOS {
	case "linux":
		sender = linuxSender{}
	case "darwin":
		sender = macSender{}
	case "windows":
		sender = windowsSender{}
	}
	return &Notifier{out: out, sender: sender}
}

// NewNotifierWithSender is NewNotifier with an explicit sender
func NewNotifierWithSender(out io.Writer, sender NotificationSender) *Notifier {
	return &Notifier{out: out, sender: sender}
}

func (n *Notifier) SendSuccess(title, message string) {
	fmt.Fprintf(n.out, "\n%s: %s\n", Green(title), Green(message))
	n.desktop(title, message)
}

func (n *Notifier) SendError(title, message string) {
	fmt.Fprintf(n.out, "\n%s: %s\n", Red(title), Red(message))
	n.desktop(title, message)
}

func (n *Notifier) desktop(title, message string) {
	if n.sender != nil {
		_ = n.sender.Send(title, message)
	}
}
