package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/cli"

	"github.com/tfve/tfve/internal/exportlist"
	"github.com/tfve/tfve/internal/outputs"
	"github.com/tfve/tfve/internal/tfcloud"
	"github.com/tfve/tfve/internal/varcodec"
	"github.com/tfve/tfve/internal/varsync"
)

// SyncCommand is a Command implementation that reconciles output values
// into one or more workspaces.
type SyncCommand struct {
	Meta
}

func (c *SyncCommand) Run(args []string) int {
	var baseURL, workspaces string
	var allowUpdate bool

	cmdFlags := c.Meta.defaultFlagSet("sync")
	cmdFlags.StringVar(&baseURL, "base-url", tfcloud.DefaultBaseURL, "base URL of the API")
	cmdFlags.StringVar(&workspaces, "workspaces", "", "comma-separated workspace names")
	cmdFlags.BoolVar(&allowUpdate, "allow-update", false, "update existing variables")
	if err := cmdFlags.Parse(args); err != nil {
		c.Ui.Error(fmt.Sprintf("Error parsing command-line flags: %s", err))
		return 1
	}

	args = cmdFlags.Args()
	if len(args) != 2 {
		c.Ui.Error("The sync command expects exactly two arguments: the output values file and the export list.")
		return cli.RunResultHelp
	}
	if workspaces == "" {
		c.Ui.Error("The -workspaces option is required.")
		return cli.RunResultHelp
	}

	// Everything that can be validated locally happens before the
	// first network call, so input mistakes never leave partial state.
	outs, err := outputs.ReadFile(args[0])
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	entries, err := exportlist.ReadFile(args[1])
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	targets, err := varsync.BuildTargets(outs, entries)
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}

	client, err := c.apiClient(baseURL)
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	org, err := c.organizationName()
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}

	engine := &varsync.Engine{
		Variables:   client.Variables,
		AllowUpdate: allowUpdate,
		Log:         c.logger().Named("sync"),
	}

	ctx := context.Background()
	for _, name := range splitNames(workspaces) {
		workspaceID, err := client.Workspaces.Resolve(ctx, org, name)
		if err != nil {
			c.Ui.Error(err.Error())
			return 1
		}

		result, err := engine.Sync(ctx, workspaceID, targets)
		if result != nil {
			c.showResult(name, workspaceID, result)
		}
		if err != nil {
			c.Ui.Error(fmt.Sprintf("Sync of workspace %q failed: %s", name, err))
			c.Ui.Error("Re-running the same command retries the failed variable; completed ones are skipped or updated in place.")
			return 1
		}
	}
	return 0
}

func (c *SyncCommand) showResult(name, workspaceID string, result *varsync.Result) {
	c.Ui.Output(fmt.Sprintf("Workspace %s (%s):", name, workspaceID))
	for _, a := range result.Created {
		c.Ui.Output(fmt.Sprintf("  created %s (%s) = %s", a.Name, a.ID, renderValue(a.Value)))
	}
	for _, a := range result.Updated {
		c.Ui.Output(fmt.Sprintf("  updated %s (%s) = %s", a.Name, a.ID, renderValue(a.Value)))
	}
	c.Ui.Output(fmt.Sprintf("  %d created, %d updated", len(result.Created), len(result.Updated)))
	if len(result.IgnoredExisting) > 0 {
		c.Ui.Warn(fmt.Sprintf("  %d existing variable(s) left untouched (pass -allow-update to overwrite): %s",
			len(result.IgnoredExisting), strings.Join(result.IgnoredExisting, ", ")))
	}
}

func renderValue(v varcodec.Value) string {
	raw, err := varcodec.Encode(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return raw
}

func splitNames(s string) []string {
	var names []string
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func (c *SyncCommand) Help() string {
	helpText := `
Usage: tfve sync [options] OUTPUT_VALUES_FILE EXPORT_LIST

  Reconcile the output values in OUTPUT_VALUES_FILE (generated with
  "terraform output -json") into the named workspaces, creating the
  variables selected by EXPORT_LIST. Existing variables are left alone
  unless -allow-update is set. Outputs flagged sensitive are never
  exported.

  The ` + EnvToken + ` and ` + EnvOrganization + ` environment
  variables must be set.

Options:

  -base-url=url        Base URL of the API. Defaults to the HCP
                       Terraform SaaS address.

  -workspaces=a,b      Comma-separated names of the workspaces to sync.
                       Required.

  -allow-update        Overwrite variables that already exist in the
                       workspace.

`
	return strings.TrimSpace(helpText)
}

func (c *SyncCommand) Synopsis() string {
	return "Export output values to workspace variables"
}
