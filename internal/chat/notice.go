package chat

// Level grades a Notice the way the console colours it.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "ok"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notice is a short, transient message for the operator.
type Notice struct {
	Level Level
	Text  string
}

// Notifier shows notices to the operator. Notify is called from the event
// queue and must return quickly.
type Notifier interface {
	Notify(n Notice)
}

type NotifierFunc func(n Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }
