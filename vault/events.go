package vault

// EventType classifies a document change notification.
type EventType int

const (
	// EventCreate signals a new document appeared.
	EventCreate EventType = iota + 1
	// EventModify signals a document's content changed.
	EventModify
	// EventDelete signals a document was removed.
	EventDelete
	// EventRename signals a document moved; OldPath carries the prior path.
	EventRename
)

// Event is a single change notification from a DocumentSource.
type Event struct {
	Type    EventType
	Path    string
	OldPath string // set for EventRename only
}

func (t EventType) String() string {
	switch t {
	case EventCreate:
		return "create"
	case EventModify:
		return "modify"
	case EventDelete:
		return "delete"
	case EventRename:
		return "rename"
	default:
		return "unknown"
	}
}
