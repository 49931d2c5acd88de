package command

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tfve/tfve/internal/tfcloud"
)

// WorkspacesCommand is a Command implementation that lists the
// organization's workspaces with their associated projects.
type WorkspacesCommand struct {
	Meta
}

// workspaceInfo is the display record, one per workspace.
type workspaceInfo struct {
	WorkspaceID   string      `json:"workspace_id"`
	WorkspaceName string      `json:"workspace_name"`
	Project       projectInfo `json:"project"`
}

type projectInfo struct {
	ProjectID   string `json:"project_id"`
	ProjectName string `json:"project_name"`
}

func (c *WorkspacesCommand) Run(args []string) int {
	var baseURL string

	cmdFlags := c.Meta.defaultFlagSet("workspaces")
	cmdFlags.StringVar(&baseURL, "base-url", tfcloud.DefaultBaseURL, "base URL of the API")
	if err := cmdFlags.Parse(args); err != nil {
		c.Ui.Error(fmt.Sprintf("Error parsing command-line flags: %s", err))
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

	ctx := context.Background()
	workspaces, err := client.Workspaces.List(ctx, org)
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	projects, err := client.Projects.List(ctx, org)
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}

	infos := make([]workspaceInfo, 0, len(workspaces))
	for _, w := range workspaces {
		info := workspaceInfo{WorkspaceID: w.ID, WorkspaceName: w.Name}
		if w.Project != nil {
			info.Project.ProjectID = w.Project.ID
			if p, ok := projects[w.Project.ID]; ok {
				info.Project.ProjectName = p.Name
			}
		}
		infos = append(infos, info)
	}

	out, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	c.Ui.Output(string(out))
	return 0
}

func (c *WorkspacesCommand) Help() string {
	helpText := `
Usage: tfve workspaces [options]

  List the organization's workspaces joined with their projects, as
  JSON. Useful for picking the -workspaces values for the sync command.

  The ` + EnvToken + ` and ` + EnvOrganization + ` environment
  variables must be set.

Options:

  -base-url=url        Base URL of the API. Defaults to the HCP
                       Terraform SaaS address.

`
	return strings.TrimSpace(helpText)
}

func (c *WorkspacesCommand) Synopsis() string {
	return "List available workspaces and their projects"
}
