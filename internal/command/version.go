package command

import (
	"fmt"

	"github.com/tfve/tfve/version"
)

// VersionCommand is a Command implementation that prints the version.
type VersionCommand struct {
	Meta
}

func (c *VersionCommand) Run(args []string) int {
	c.Ui.Output(fmt.Sprintf("tfve v%s", version.String()))
	return 0
}

func (c *VersionCommand) Help() string {
	return "Usage: tfve version"
}

func (c *VersionCommand) Synopsis() string {
	return "Print the tfve version"
}
