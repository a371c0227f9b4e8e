package grid

import (
	"time"

	"go.uber.org/zap"
)

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityWarn    Severity = "warn"
	SeverityError   Severity = "error"
)

// DefaultNotificationLife es lo que un aviso permanece visible.
const DefaultNotificationLife = 3 * time.Second

// Notification es el aviso que la vista muestra al usuario.
type Notification struct {
	Severity Severity      `json:"severity"`
	Summary  string        `json:"summary"`
	Detail   string        `json:"detail"`
	Life     time.Duration `json:"life"`
}

// Notifier recibe los avisos del controlador.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapta una función a Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// LogNotifier escribe los avisos en el logger; útil sin vista.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(msg Notification) {
	fields := []zap.Field{
		zap.String("severity", string(msg.Severity)),
		zap.String("detail", msg.Detail),
	}
	if msg.Severity == SeverityError {
		n.log.Warn(msg.Summary, fields...)
		return
	}
	n.log.Info(msg.Summary, fields...)
}

func successNotification(detail string) Notification {
	return Notification{Severity: SeveritySuccess, Summary: "Successful", Detail: detail, Life: DefaultNotificationLife}
}

func errorNotification(detail string) Notification {
	return Notification{Severity: SeverityError, Summary: "Error", Detail: detail, Life: DefaultNotificationLife}
}
