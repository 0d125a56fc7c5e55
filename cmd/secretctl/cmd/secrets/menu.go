package secrets

import (
	"github.com/charmbracelet/bubbles/list"

	"github.com/eliasmeireles/secretctl/cmd/secretctl/internal/ui"
)

const locatorPrompt = "Locator (e.g. hashivault://projects/acme/production/database/password)"

var (
	secretItems = []list.Item{
		ui.CreatePromptItem(ChoiceResolve, "Show mount, path and name of a locator", locatorPrompt, ui.HoopAction),
		ui.CreatePromptItem(ChoiceFetch, "Copy a secret field to the clipboard", locatorPrompt, ui.HoopAction),
		ui.CreateMultiPromptItem(
			ChoiceCopy, "Append a secret field to $GITHUB_ENV",
			[]string{locatorPrompt, "Destination key (e.g. DATABASE_PASSWORD)"}, ui.HoopAction,
		),
	}

	Menu = ui.CreateSubMenu(Category, "Resolve, read and copy Vault secrets", secretItems)
)
