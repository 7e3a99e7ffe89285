package conversation

import "fmt"

// Role identifies who produced a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleFunction  Role = "function"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleFunction:
		return true
	}
	return false
}

// Message is a single entry in a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	// Name is the function a RoleFunction message is attributed to.
	// It is always empty for other roles.
	Name string `json:"name,omitempty"`
}

// NewMessage builds a message, discarding name unless role is RoleFunction.
func NewMessage(role Role, content, name string) Message {
	if role != RoleFunction {
		name = ""
	}
	return Message{Role: role, Content: content, Name: name}
}

// String renders the message for logs and debugging output.
func (m Message) String() string {
	if m.Name != "" {
		return fmt.Sprintf("%s(%s): %s", m.Role, m.Name, m.Content)
	}
	return fmt.Sprintf("%s: %s", m.Role, m.Content)
}
