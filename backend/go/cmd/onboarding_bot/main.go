// Command onboarding_bot runs the OnboardingBuddy Telegram assistant and its
// maintenance tools.
package main

import (
	"os"

	"github.com/maruel/subcommands"
)

func main() {
	app := &subcommands.DefaultApplication{
		Name:  "onboarding_bot",
		Title: "OnboardingBuddy: Telegram assistant for new hire adaptation.",
		Commands: []*subcommands.Command{
			subcommands.CmdHelp,
			cmdRun,
			cmdSetup,
			cmdValidate,
			cmdStats,
			cmdExport,
			cmdCleanup,
			cmdToken,
		},
	}
	os.Exit(subcommands.Run(app, nil))
}
