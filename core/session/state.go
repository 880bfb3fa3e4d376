// Package session keeps short-lived per-user workflow state with lazy TTL expiry.
package session

// Kind enumerates the in-progress workflow a user is in.
type Kind int

const (
	// KindNone is the zero value; it never appears in the store.
	KindNone Kind = iota
	// KindImageMenu means the image service menu was shown and a choice is awaited.
	KindImageMenu
	// KindImageService means a service was chosen and an image is awaited.
	KindImageService
	// KindAwaitingCommand means an NLP command was chosen and its text is awaited.
	KindAwaitingCommand
)

// State is the structured session payload.
type State struct {
	Kind Kind
	// Service holds the image menu key for KindImageService.
	Service string
	// Command holds the canonical command token (with parameter) for KindAwaitingCommand.
	Command string
}

// ImageMenu returns the state for a user browsing the image menu.
func ImageMenu() State {
	return State{Kind: KindImageMenu}
}

// ImageService returns the state for a user who picked the image service key.
func ImageService(key string) State {
	return State{Kind: KindImageService, Service: key}
}

// AwaitingCommand returns the state for a user who must supply text for command.
func AwaitingCommand(command string) State {
	return State{Kind: KindAwaitingCommand, Command: command}
}

// Label renders the state as a flat tag for logs and the dispatch journal.
func (s State) Label() string {
	switch s.Kind {
	case KindImageMenu:
		return "image_menu"
	case KindImageService:
		return "image_" + s.Service
	case KindAwaitingCommand:
		return "awaiting_" + s.Command
	default:
		return "none"
	}
}

// String implements fmt.Stringer.
func (s State) String() string {
	return s.Label()
}

// IsImage reports whether the state belongs to the image-analysis flow.
func (s State) IsImage() bool {
	return s.Kind == KindImageMenu || s.Kind == KindImageService
}

func (k Kind) String() string {
	switch k {
	case KindImageMenu:
		return "image_menu"
	case KindImageService:
		return "image_service"
	case KindAwaitingCommand:
		return "awaiting_command"
	default:
		return "none"
	}
}
