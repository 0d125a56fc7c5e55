package secrets

import (
	"github.com/eliasmeireles/secretctl/cmd/secretctl/cmd/cmd"
)

const (
	Category = "Secrets"

	ChoiceResolve = "Resolve"
	ChoiceFetch   = "Fetch"
	ChoiceCopy    = "Copy to GitHub env"
)

func init() {
	cmd.Add(cmd.NewDefault(NewResolveCmd(), Category, ChoiceResolve))
	cmd.Add(cmd.NewDefault(newClipboardFetchCmd(), Category, ChoiceFetch))
	cmd.Add(cmd.NewDefault(newEnvFileCopyCmd(), Category, ChoiceCopy))
}
