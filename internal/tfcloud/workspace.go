package tfcloud

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"

	"github.com/hashicorp/jsonapi"
)

// Workspaces handles communication with the organization workspace
// listing endpoints.
//
// API docs: https://developer.hashicorp.com/terraform/cloud-docs/api-docs/workspaces
type Workspaces struct {
	client *Client
}

// Projects handles communication with the organization project listing
// endpoints.
//
// API docs: https://developer.hashicorp.com/terraform/cloud-docs/api-docs/projects
type Projects struct {
	client *Client
}

// Workspace is one workspace record with its project relationship. The
// relationship carries only the project ID; join against Projects.List
// for the name.
type Workspace struct {
	ID   string `jsonapi:"primary,workspaces"`
	Name string `jsonapi:"attr,name"`

	Project *Project `jsonapi:"relation,project"`
}

// Project is one project record.
type Project struct {
	ID   string `jsonapi:"primary,projects"`
	Name string `jsonapi:"attr,name"`
}

// List returns every workspace in the organization, traversing all
// pages.
func (s *Workspaces) List(ctx context.Context, organization string) ([]*Workspace, error) {
	var workspaces []*Workspace
	path := fmt.Sprintf("organizations/%s/workspaces", url.PathEscape(organization))
	err := s.client.listPages(ctx, path, reflect.TypeOf(new(Workspace)), func(item any) error {
		w, ok := item.(*Workspace)
		if !ok {
			return fmt.Errorf("decoding workspace listing: unexpected entry %T", item)
		}
		workspaces = append(workspaces, w)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.client.log.Debug("listed workspaces", "organization", organization, "count", len(workspaces))
	return workspaces, nil
}

// Resolve returns the ID of the workspace with the given name.
func (s *Workspaces) Resolve(ctx context.Context, organization, name string) (string, error) {
	workspaces, err := s.List(ctx, organization)
	if err != nil {
		return "", err
	}
	for _, w := range workspaces {
		if w.Name == name {
			return w.ID, nil
		}
	}
	return "", fmt.Errorf("workspace %q not found in organization %q", name, organization)
}

// List returns every project in the organization, keyed by project ID,
// traversing all pages.
func (s *Projects) List(ctx context.Context, organization string) (map[string]*Project, error) {
	projects := make(map[string]*Project)
	path := fmt.Sprintf("organizations/%s/projects", url.PathEscape(organization))
	err := s.client.listPages(ctx, path, reflect.TypeOf(new(Project)), func(item any) error {
		p, ok := item.(*Project)
		if !ok {
			return fmt.Errorf("decoding project listing: unexpected entry %T", item)
		}
		projects[p.ID] = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.client.log.Debug("listed projects", "organization", organization, "count", len(projects))
	return projects, nil
}

// listPages walks a paginated listing endpoint, invoking collect for
// every record. Each page is a separate rate-limited request; the walk
// stops at the first page shorter than pageSize.
func (c *Client) listPages(ctx context.Context, path string, itemType reflect.Type, collect func(any) error) error {
	for page := 1; ; page++ {
		query := url.Values{
			"page[size]":   []string{strconv.Itoa(pageSize)},
			"page[number]": []string{strconv.Itoa(page)},
		}
		req, err := c.newRequest(ctx, http.MethodGet, path, query, nil)
		if err != nil {
			return err
		}

		resp, err := c.do(req, http.StatusOK)
		if err != nil {
			return err
		}

		items, err := unmarshalPage(resp, itemType)
		if err != nil {
			return fmt.Errorf("decoding %s page %d: %w", path, page, err)
		}
		for _, item := range items {
			if err := collect(item); err != nil {
				return err
			}
		}
		if len(items) < pageSize {
			return nil
		}
	}
}

// unmarshalPage decodes one listing response body and closes it.
func unmarshalPage(resp *http.Response, itemType reflect.Type) ([]any, error) {
	defer resp.Body.Close()
	items, err := jsonapi.UnmarshalManyPayload(resp.Body, itemType)
	if err != nil {
		return nil, err
	}
	return items, nil
}
