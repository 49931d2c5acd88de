// Package command holds the CLI command implementations.
package command

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/cli"
	"github.com/hashicorp/go-hclog"

	"github.com/tfve/tfve/internal/ratelimit"
	"github.com/tfve/tfve/internal/tfcloud"
)

// Environment variables consumed by every API-facing command.
const (
	// EnvToken holds the bearer token.
	EnvToken = "TFVE_TOKEN"

	// EnvOrganization holds the organization name workspaces are
	// looked up in.
	EnvOrganization = "TFVE_ORGANIZATION_NAME"
)

// Meta carries the dependencies common to all commands.
type Meta struct {
	Ui  cli.Ui
	Log hclog.Logger
}

// defaultFlagSet creates a default flag set for commands.
func (m *Meta) defaultFlagSet(name string) *flag.FlagSet {
	f := flag.NewFlagSet(name, flag.ContinueOnError)
	f.SetOutput(io.Discard)
	return f
}

// apiClient builds the API client from the base URL flag and the
// environment, paced by the default request limiter.
func (m *Meta) apiClient(baseURL string) (*tfcloud.Client, error) {
	token := os.Getenv(EnvToken)
	if token == "" {
		return nil, fmt.Errorf("the %s environment variable must be set to an API token", EnvToken)
	}
	return tfcloud.NewClient(&tfcloud.Config{
		BaseURL: baseURL,
		Token:   token,
		Limiter: ratelimit.NewDefault(),
		Logger:  m.logger().Named("tfcloud"),
	})
}

// organizationName reads the organization from the environment.
func (m *Meta) organizationName() (string, error) {
	org := os.Getenv(EnvOrganization)
	if org == "" {
		return "", fmt.Errorf("the %s environment variable must be set to an organization name", EnvOrganization)
	}
	return org, nil
}

func (m *Meta) logger() hclog.Logger {
	if m.Log != nil {
		return m.Log
	}
	return hclog.NewNullLogger()
}
