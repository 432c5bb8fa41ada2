package cartsync

// Level classifies a user-facing notification.
type Level int

const (
	LevelSuccess Level = iota
	LevelFailure
	// LevelRejected is a refusal the user can act on, not an outage.
	LevelRejected
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelFailure:
		return "failure"
	case LevelRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Notification is one piece of user feedback about a cart operation.
type Notification struct {
	Level   Level
	Op      string
	Message string
}

// Notifier delivers toasts or equivalent user feedback.
type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

type nopNotifier struct{}

func (nopNotifier) Notify(Notification) {}
