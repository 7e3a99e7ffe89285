package conversation

// Log is the ordered message history owned by a single reasoner.
// It is not safe for concurrent use.
type Log struct {
	messages []Message
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{}
}

// Add appends one message.
func (l *Log) Add(role Role, content, name string) {
	l.messages = append(l.messages, NewMessage(role, content, name))
}

// Set discards the whole history and leaves a log holding only this message.
func (l *Log) Set(role Role, content, name string) {
	l.messages = []Message{NewMessage(role, content, name)}
}

// Pop removes and returns the newest message. It reports false on an empty log.
func (l *Log) Pop() (Message, bool) {
	if len(l.messages) == 0 {
		return Message{}, false
	}
	last := l.messages[len(l.messages)-1]
	l.messages = l.messages[:len(l.messages)-1]
	return last, true
}

// Last returns the newest message without removing it.
func (l *Log) Last() (Message, bool) {
	if len(l.messages) == 0 {
		return Message{}, false
	}
	return l.messages[len(l.messages)-1], true
}

// Len returns the number of messages in the log.
func (l *Log) Len() int {
	return len(l.messages)
}

// Messages returns a copy of the history, oldest first.
func (l *Log) Messages() []Message {
	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}
