package session

import (
	"fmt"
	"strings"

	"github.com/tradepal/assistant/internal/bus"
	"github.com/tradepal/assistant/internal/convo"
)

// handleDebugCommand services the /debug chat surface. Every branch,
// including malformed input, appends an assistant reply so the session
// stays usable.
func (s *Session) handleDebugCommand(text string) {
	fields := strings.Fields(text)

	s.mu.Lock()
	s.appendLocked(RoleUser, text)

	var reply string
	switch {
	case len(fields) < 2:
		reply = debugUsage()

	case fields[1] == "context":
		reply = convo.Dump(s.convoCtx)

	case fields[1] == "reset":
		s.convoCtx = convo.New()
		s.debouncer.Reset()
		reply = "Conversation context reset."

	case fields[1] == "set":
		if len(fields) < 4 {
			reply = "Usage: /debug set <path> <value>\nSettable paths:\n  " +
				strings.Join(convo.SettablePaths(), "\n  ")
			break
		}
		path := fields[2]
		value := strings.Join(fields[3:], " ")
		next, err := convo.Set(s.convoCtx, path, value)
		if err != nil {
			reply = fmt.Sprintf("Cannot set %q: %v", path, err)
			break
		}
		s.convoCtx = next
		reply = fmt.Sprintf("Set %s = %s", path, value)

	default:
		reply = fmt.Sprintf("Unknown command %q.\n%s", fields[1], debugUsage())
	}

	s.appendLocked(RoleAssistant, reply)
	s.mu.Unlock()

	s.events.Publish(bus.Event{
		Type: bus.EventTypeDebugCommand,
		Data: map[string]any{"command": text},
	})
}

func debugUsage() string {
	return "Debug commands:\n" +
		"  /debug context            dump the conversation context\n" +
		"  /debug reset              reinitialize the conversation context\n" +
		"  /debug set <path> <value> overwrite a context field"
}
