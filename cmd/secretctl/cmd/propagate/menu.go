package propagate

import (
	"github.com/charmbracelet/bubbles/list"

	"github.com/eliasmeireles/secretctl/cmd/secretctl/internal/ui"
)

const planPrompt = "Plan file (e.g. secrets.yml)"

var (
	propagateItems = []list.Item{
		ui.CreatePromptItem(ChoiceApply, "Copy every secret of a plan to its destinations", planPrompt, ui.HoopAction),
		ui.CreatePromptItem(ChoiceDryRun, "List the keys each target would receive", planPrompt, ui.HoopAction),
	}

	Menu = ui.CreateSubMenu(Category, "Apply YAML propagation plans", propagateItems)
)
