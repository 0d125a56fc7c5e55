package database

import (
	"github.com/charmbracelet/bubbles/list"

	"github.com/eliasmeireles/secretctl/cmd/secretctl/internal/ui"
)

var (
	databaseItems = []list.Item{
		ui.CreateMultiPromptItem(
			ChoiceProvision, "Create or rotate a project database (admin DSN from "+EnvDatabaseDSN+")",
			[]string{"Project name", "Environment (staging or production)"}, ui.HoopAction,
		),
	}

	Menu = ui.CreateSubMenu(Category, "Provision PostgreSQL credentials into Vault", databaseItems)
)
