package container

// State makes the container's life cycle explicit: a database starts
// Empty, becomes Parsed once a file has been loaded into it, Mutated once
// any entry is added, edited, or merged, and Serialized once it has been
// written back out under its current content. The state is informational
// only; nothing in the codec refuses a transition. It exists so hosts and
// tests can assert which part of the life cycle the engine went through
// rather than reconstructing it from side effects.
type State int

const (
	// StateEmpty is the initial state: no file has been loaded and no
	// entry has been pushed.
	StateEmpty State = iota
	// StateParsed means a container file has been loaded without any
	// subsequent mutation.
	StateParsed
	// StateMutated means an entry has been added, merged, or edited
	// since the last load or save.
	StateMutated
	// StateSerialized means the current content has been written out as
	// a container buffer since its last mutation.
	StateSerialized
)

// String renders the state the way the engine's debug logs do.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateParsed:
		return "parsed"
	case StateMutated:
		return "mutated"
	case StateSerialized:
		return "serialized"
	default:
		return "unknown"
	}
}
