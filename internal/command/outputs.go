package command

import (
	"fmt"
	"strings"

	"github.com/tfve/tfve/internal/outputs"
	"github.com/tfve/tfve/internal/varcodec"
)

// OutputsCommand is a Command implementation that shows the values an
// output document would export, without touching the network.
type OutputsCommand struct {
	Meta
}

func (c *OutputsCommand) Run(args []string) int {
	cmdFlags := c.Meta.defaultFlagSet("outputs")
	if err := cmdFlags.Parse(args); err != nil {
		c.Ui.Error(fmt.Sprintf("Error parsing command-line flags: %s", err))
		return 1
	}

	args = cmdFlags.Args()
	if len(args) != 1 {
		c.Ui.Error("The outputs command expects exactly one argument: the output values file.")
		return 1
	}

	outs, err := outputs.ReadFile(args[0])
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}

	for _, o := range outs {
		kind, err := varcodec.Classify(o.Value)
		if err != nil {
			c.Ui.Error(fmt.Sprintf("output %q: %s", o.Name, err))
			return 1
		}
		raw, err := varcodec.Encode(o.Value)
		if err != nil {
			c.Ui.Error(fmt.Sprintf("output %q: %s", o.Name, err))
			return 1
		}
		marker := ""
		if kind.HCL() {
			marker = " (hcl)"
		}
		c.Ui.Output(fmt.Sprintf("%s%s = %s", o.Name, marker, raw))
	}
	return 0
}

func (c *OutputsCommand) Help() string {
	helpText := `
Usage: tfve outputs OUTPUT_VALUES_FILE

  Show the non-sensitive values of an output document (generated with
  "terraform output -json") as they would be sent to a workspace.
  Values marked (hcl) are exported as typed collections.

`
	return strings.TrimSpace(helpText)
}

func (c *OutputsCommand) Synopsis() string {
	return "Show exportable output values"
}
