package discord

import "strings"

// command is one parsed prefix command: its name and the untouched rest of
// the line.
type command struct {
	Name string
	Args string
}

// parseCommand splits a message into a command when it starts with the
// configured prefix. Returns false for ordinary chatter.
func parseCommand(prefix string, content string) (command, bool) {
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return command{}, false
	}

	rest := strings.TrimPrefix(content, prefix)
	if rest == "" {
		return command{}, false
	}

	name, args, _ := strings.Cut(rest, " ")
	if name == "" {
		return command{}, false
	}

	return command{
		Name: strings.ToLower(name),
		Args: strings.TrimSpace(args),
	}, true
}
