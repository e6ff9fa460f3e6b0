package daemon

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	godbus "github.com/godbus/dbus/v5"
)

const (
	notificationsBus   = "org.freedesktop.Notifications"
	notificationsPath  = "/org/freedesktop/Notifications"
	notificationsIface = "org.freedesktop.Notifications"

	// DefaultMinInterval suppresses repeats of the same message.
	DefaultMinInterval = 5 * time.Second
)

// Level is the severity of a user-facing message.
type Level int

const (
	// LevelInfo maps to low urgency.
	LevelInfo Level = iota
	// LevelWarning maps to normal urgency.
	LevelWarning
	// LevelError maps to critical urgency.
	LevelError
)

// Urgency returns the freedesktop urgency byte for the level.
func (l Level) Urgency() byte {
	switch l {
	case LevelInfo:
		return 0
	case LevelError:
		return 2
	default:
		return 1
	}
}

// Icon returns the themed icon name for the level.
func (l Level) Icon() string {
	switch l {
	case LevelInfo:
		return "dialog-information"
	case LevelError:
		return "dialog-error"
	default:
		return "dialog-warning"
	}
}

// Message is one desktop notification.
type Message struct {
	Summary string
	Body    string
	Level   Level
}

// SendFunc delivers a message to the desktop.
type SendFunc func(Message) error

// Notifier tells the user about dock problems that would otherwise only
// reach the log, such as a config file that failed to reload. The same key
// is not repeated within the minimum interval.
type Notifier struct {
	mu     sync.Mutex
	logger *slog.Logger
	send   SendFunc
	now    func() time.Time

	last        map[string]time.Time
	minInterval time.Duration
	enabled     bool
}

// NewNotifier creates a notifier that delivers through send. When send is
// nil, messages go to the session bus notification service.
func NewNotifier(send SendFunc, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	if send == nil {
		send = SendDesktopNotification
	}
	return &Notifier{
		logger:      logger,
		send:        send,
		now:         time.Now,
		last:        make(map[string]time.Time),
		minInterval: DefaultMinInterval,
		enabled:     true,
	}
}

// SetEnabled turns notifications on or off.
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// SetMinInterval sets how long a key stays quiet after it was shown.
func (n *Notifier) SetMinInterval(d time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = d
}

// Notify sends msg unless key was sent within the minimum interval. It
// reports whether the message was delivered.
func (n *Notifier) Notify(key string, msg Message) bool {
	n.mu.Lock()
	if !n.enabled {
		n.mu.Unlock()
		return false
	}
	now := n.now()
	if last, ok := n.last[key]; ok && now.Sub(last) < n.minInterval {
		n.mu.Unlock()
		n.logger.Debug("notification rate-limited", "key", key)
		return false
	}
	n.last[key] = now
	send := n.send
	n.mu.Unlock()

	if err := send(msg); err != nil {
		n.logger.Debug("failed to send notification", "key", key, "error", err)
		return false
	}
	return true
}

// NotifyConfigError reports a config file that could not be reloaded.
func (n *Notifier) NotifyConfigError(err error) {
	n.Notify("config-error", Message{
		Summary: "Dock configuration error",
		Body:    "The previous settings are still in use: " + err.Error(),
		Level:   LevelWarning,
	})
}

// NotifyLaunchFailed reports an app that could not be started.
func (n *Notifier) NotifyLaunchFailed(name string, err error) {
	n.Notify("launch:"+name, Message{
		Summary: fmt.Sprintf("Could not start %s", name),
		Body:    err.Error(),
		Level:   LevelError,
	})
}

// SendDesktopNotification delivers msg to the session's notification
// service as a transient notification.
func SendDesktopNotification(msg Message) error {
	conn, err := godbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	defer func() { _ = conn.Close() }()

	hints := map[string]godbus.Variant{
		"urgency":       godbus.MakeVariant(msg.Level.Urgency()),
		"transient":     godbus.MakeVariant(true),
		"desktop-entry": godbus.MakeVariant("blazedock"),
	}
	obj := conn.Object(notificationsBus, notificationsPath)
	call := obj.Call(notificationsIface+".Notify", 0,
		"blazedock", uint32(0), msg.Level.Icon(), msg.Summary, msg.Body,
		[]string{}, hints, int32(5000))
	if call.Err != nil {
		return fmt.Errorf("failed to send notification: %w", call.Err)
	}
	return nil
}
