package cli

import (
	"fmt"
	"strings"
)

// TerminalPrompter answers the navigation controller's consent and
// notification needs over the terminal.
type TerminalPrompter struct {
	*CLI
}

func NewTerminalPrompter(cli *CLI) *TerminalPrompter {
	return &TerminalPrompter{CLI: cli}
}

func (p *TerminalPrompter) Confirm(prompt string) (bool, error) {
	_, _ = p.bold.Fprintf(p.stdoutWriter, "%s (y/N): ", prompt)
	line, err := p.readLine()
	if err != nil {
		return false, err
	}
	answer := strings.ToLower(line)
	return answer == "y" || answer == "yes", nil
}

func (p *TerminalPrompter) Info(message string) {
	fmt.Fprintln(p.stdoutWriter, message)
}
