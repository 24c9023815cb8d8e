// Package prompt asks the user for input on an interactive terminal.
package prompt

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/dblab-dev/dblab/internal/domain/entities"
)

// TerminalPrompter prompts on the controlling terminal through huh forms.
type TerminalPrompter struct{}

// NewTerminalPrompter creates a new TerminalPrompter.
func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{}
}

// IsInteractive checks if both stdin and stdout are terminals. Pipes,
// files and /dev/null are not.
func (p *TerminalPrompter) IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// Confirm asks a yes/no question. The default answer is no.
func (p *TerminalPrompter) Confirm(title, description string) (bool, error) {
	var confirmed bool
	err := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative("Yes").
		Negative("No").
		Value(&confirmed).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return confirmed, err
}

// EnvValues asks for the value of each variable, prefilled from current.
// Secret variables are read without echo and required ones may not be
// left empty.
func (p *TerminalPrompter) EnvValues(vars []entities.EnvVarDescriptor, current map[string]string) (map[string]string, error) {
	answers := make([]string, len(vars))
	fields := make([]huh.Field, 0, len(vars))
	for i, v := range vars {
		answers[i] = current[v.Name]
		input := huh.NewInput().
			Title(Describe(v)).
			Description(v.Description).
			Value(&answers[i])
		if v.Secret {
			input = input.EchoMode(huh.EchoModePassword)
		}
		if v.Required {
			name := v.Name
			input = input.Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("%s is required", name)
				}
				return nil
			})
		}
		fields = append(fields, input)
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(vars))
	for i, v := range vars {
		if value := strings.TrimSpace(answers[i]); value != "" {
			out[v.Name] = value
		}
	}
	return out, nil
}

// Describe returns the prompt title of a variable.
func Describe(v entities.EnvVarDescriptor) string {
	var tags []string
	if v.Required {
		tags = append(tags, "required")
	}
	if v.Secret {
		tags = append(tags, "secret")
	}
	if len(tags) == 0 {
		return v.Name
	}
	return fmt.Sprintf("%s (%s)", v.Name, strings.Join(tags, ", "))
}

// NonInteractiveError explains how to supply required variables without a
// terminal.
func NonInteractiveError(engine string, missing []string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "%s needs values that cannot be prompted for (running in non-interactive mode)\n\n", engine)
	msg.WriteString("Missing variables:\n")
	for _, name := range missing {
		fmt.Fprintf(&msg, "  - %s\n", name)
	}
	msg.WriteString("\nTo provide them:\n")
	msg.WriteString("  1. Run interactively and answer the prompts\n")
	msg.WriteString("  2. Export them in the environment before running env init\n")
	msg.WriteString("  3. Edit the generated env-file by hand\n")
	return errors.New(msg.String())
}
