package cmd

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/eliasmeireles/secretctl/cmd/secretctl/cmd/cmd"
	"github.com/eliasmeireles/secretctl/cmd/secretctl/cmd/database"
	"github.com/eliasmeireles/secretctl/cmd/secretctl/cmd/propagate"
	"github.com/eliasmeireles/secretctl/cmd/secretctl/cmd/secrets"
	"github.com/eliasmeireles/secretctl/cmd/secretctl/internal/ui"
)

// RunUI loops over the menu until the user quits, running each selection
// with the terminal released.
func RunUI() {
	mainItems := []list.Item{
		secrets.Menu,
		propagate.Menu,
		database.Menu,
	}

	for {
		m := ui.NewMenu(mainItems)
		p := tea.NewProgram(m, tea.WithAltScreen())

		finalModel, err := p.Run()
		if err != nil {
			fmt.Printf("Error running UI: %v", err)
			os.Exit(1)
		}

		m = finalModel.(ui.Model)
		if m.WasQuitted() {
			break
		}

		choice := m.GetChoice()
		category := m.GetCategory()
		args := m.GetArgs()

		if choice != "" {
			fmt.Printf(" Executing: %s (%s)\n", choice, category)

			shouldWait := executeSelection(choice, category, args)
			if shouldWait {
				if !waitForReturn() {
					break
				}
			}
		}
	}
}

func executeSelection(choice, category string, args []string) bool {
	fmt.Print("\033[H\033[2J")

	if c, exists := cmd.Cmd().Get(category + "/" + choice); exists {
		return c.Execute([]string{choice}, args)
	}
	fmt.Printf("⚠️ No command registered for %s/%s\n", category, choice)
	return true
}

func waitForReturn() bool {
	fmt.Print("\n⏎ Press Enter to return to menu, 'q' or 'esc' to quit: ")

	oldState, err := term.MakeRaw(int(syscall.Stdin))
	if err != nil {
		var input string
		_, _ = fmt.Scanln(&input)
		return !strings.HasPrefix(strings.ToLower(input), "q")
	}
	defer func() { _ = term.Restore(int(syscall.Stdin), oldState) }()

	b := make([]byte, 3)
	n, err := os.Stdin.Read(b)
	if err != nil {
		return true
	}
	return !isQuitKey(b[:n])
}

// isQuitKey reports whether a raw keystroke is q, Q or a lone Esc.
// Escape sequences such as arrow keys return to the menu.
func isQuitKey(b []byte) bool {
	if len(b) != 1 {
		return false
	}
	return b[0] == 'q' || b[0] == 'Q' || b[0] == 27
}
