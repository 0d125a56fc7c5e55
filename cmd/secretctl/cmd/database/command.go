package database

import (
	"github.com/spf13/cobra"

	"github.com/eliasmeireles/secretctl/cmd/secretctl/cmd/cmd"
)

const (
	Category        = "Database"
	ChoiceProvision = "Provision"
)

func init() {
	cmd.Add(cmd.NewDefault(newMenuProvisionCmd(), Category, ChoiceProvision))
}

func NewCommand() *cobra.Command {
	return NewCommandFunc()
}

var NewCommandFunc = func() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "database",
		Short: "Provision project databases and publish their credentials",
	}

	cmd.AddCommand(NewProvisionCmd())

	return cmd
}
