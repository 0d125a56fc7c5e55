package cmd

import (
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Command is a menu entry the TUI can dispatch to.
type Command interface {
	// Category is the menu breadcrumb the command answers to,
	// e.g. "Secrets/Fetch" or "Database/Provision".
	Category() string
	// Execute runs the command with the values collected by the menu prompts.
	// It returns whether the UI should wait before redrawing the menu.
	Execute(choice, args []string) bool
}

// Commands maps a category to its command.
type Commands map[string]Command

var (
	cmds = make(Commands)
)

func Cmd() *Commands {
	return &cmds
}

func Add(cmd Command) *Commands {
	return Cmd().Add(cmd)
}

// Add registers cmd under its category, replacing any previous entry.
func (c *Commands) Add(cmd Command) *Commands {
	if cmd == nil {
		return c
	}
	(*c)[cmd.Category()] = cmd
	return c
}

// Get returns the command whose category is the longest prefix of category.
// A prefix only matches on a "/" boundary.
func (c *Commands) Get(category string) (Command, bool) {
	if category == "" {
		return nil, false
	}

	var (
		found   Command
		longest int
	)
	for k, v := range *c {
		if !matchesCategory(k, category) || len(k) <= longest {
			continue
		}
		found, longest = v, len(k)
	}
	return found, found != nil
}

func matchesCategory(registered, category string) bool {
	if registered == "" || !strings.HasPrefix(category, registered) {
		return false
	}
	return len(category) == len(registered) || category[len(registered)] == '/'
}

// Combine merges another collection of commands into the receiver.
func (c *Commands) Combine(cmds Commands) *Commands {
	for _, cmd := range cmds {
		c.Add(cmd)
	}
	return c
}

// Default adapts a cobra command to the menu: prompt values become
// positional arguments.
type Default struct {
	cmd      *cobra.Command
	category string
}

// NewDefault joins categories with "/":
//
//	cmd.NewDefault(fetch, "Secrets", "Fetch") -> "Secrets/Fetch"
func NewDefault(cmd *cobra.Command, categories ...string) Command {
	return &Default{
		cmd:      cmd,
		category: strings.Join(categories, "/"),
	}
}

// Category returns the command category.
func (d *Default) Category() string {
	return d.category
}

// Execute runs the command with args as its positional arguments.
func (d *Default) Execute(choice []string, args []string) bool {
	if len(choice) == 0 || d.cmd == nil {
		log.Warning("Command not implemented yet.")
		return false
	}

	d.cmd.SetArgs(args)
	if err := d.cmd.Execute(); err != nil {
		log.Error(err)
	}
	return true
}
