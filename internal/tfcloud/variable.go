package tfcloud

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"

	"github.com/hashicorp/jsonapi"

	"github.com/tfve/tfve/internal/varcodec"
)

// Variables handles communication with the workspace-variables endpoints.
//
// API docs: https://developer.hashicorp.com/terraform/cloud-docs/api-docs/workspace-variables
type Variables struct {
	client *Client
}

// Variable is the server's representation of one workspace variable.
// Only the fields this tool consumes are mapped.
type Variable struct {
	ID          string `jsonapi:"primary,vars"`
	Key         string `jsonapi:"attr,key"`
	Value       string `jsonapi:"attr,value"`
	Description string `jsonapi:"attr,description"`
	Category    string `jsonapi:"attr,category"`
	HCL         bool   `jsonapi:"attr,hcl"`
	Sensitive   bool   `jsonapi:"attr,sensitive"`
}

// VariableTarget is one locally known value to reconcile into a
// workspace: the destination variable name, an optional description,
// and the decoded output value.
type VariableTarget struct {
	Name        string
	Description string
	Value       varcodec.Value
}

// variableOptions is the request document for create and update calls.
type variableOptions struct {
	// For internal use only!
	ID string `jsonapi:"primary,vars"`

	Key         *string `jsonapi:"attr,key"`
	Value       *string `jsonapi:"attr,value"`
	Description *string `jsonapi:"attr,description"`
	Category    *string `jsonapi:"attr,category"`
	HCL         *bool   `jsonapi:"attr,hcl"`
}

// newVariableOptions encodes the target's value for the wire. Scalars
// are sent plain; arrays and objects are sent as JSON text with the hcl
// flag set.
func newVariableOptions(target VariableTarget) (*variableOptions, error) {
	kind, err := varcodec.Classify(target.Value)
	if err != nil {
		return nil, fmt.Errorf("variable %q: %w", target.Name, err)
	}
	raw, err := varcodec.Encode(target.Value)
	if err != nil {
		return nil, fmt.Errorf("variable %q: %w", target.Name, err)
	}
	return &variableOptions{
		Key:         String(target.Name),
		Value:       String(raw),
		Description: String(target.Description),
		Category:    String("terraform"),
		HCL:         Bool(kind.HCL()),
	}, nil
}

// List returns every variable in the workspace, keyed by variable name.
//
// The listing is requested as one page at the maximum page size. A
// workspace with more than 100 variables would need page traversal
// here; the endpoints this tool drives have never come close in
// practice.
func (s *Variables) List(ctx context.Context, workspaceID string) (map[string]*Variable, error) {
	u := fmt.Sprintf("workspaces/%s/vars", url.PathEscape(workspaceID))
	query := url.Values{"page[size]": []string{strconv.Itoa(pageSize)}}
	req, err := s.client.newRequest(ctx, http.MethodGet, u, query, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.do(req, http.StatusOK)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := jsonapi.UnmarshalManyPayload(resp.Body, reflect.TypeOf(new(Variable)))
	if err != nil {
		return nil, fmt.Errorf("decoding variable listing: %w", err)
	}

	vars := make(map[string]*Variable, len(raw))
	for _, item := range raw {
		v, ok := item.(*Variable)
		if !ok {
			return nil, fmt.Errorf("decoding variable listing: unexpected entry %T", item)
		}
		vars[v.Key] = v
	}
	s.client.log.Debug("listed workspace variables", "workspace", workspaceID, "count", len(vars))
	return vars, nil
}

// Create adds a new variable to the workspace. The returned Variable
// carries the id, value, and hcl flag the server actually persisted,
// not the locally computed ones.
func (s *Variables) Create(ctx context.Context, workspaceID string, target VariableTarget) (*Variable, error) {
	options, err := newVariableOptions(target)
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	if err := jsonapi.MarshalPayload(&body, options); err != nil {
		return nil, fmt.Errorf("encoding variable %q: %w", target.Name, err)
	}

	u := fmt.Sprintf("workspaces/%s/vars", url.PathEscape(workspaceID))
	req, err := s.client.newRequest(ctx, http.MethodPost, u, nil, body.Bytes())
	if err != nil {
		return nil, err
	}

	resp, err := s.client.do(req, http.StatusCreated)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	v := &Variable{}
	if err := jsonapi.UnmarshalPayload(resp.Body, v); err != nil {
		return nil, fmt.Errorf("decoding created variable %q: %w", target.Name, err)
	}
	s.client.log.Info("created variable", "workspace", workspaceID, "key", v.Key, "id", v.ID)
	return v, nil
}

// Update replaces the value of an existing variable.
func (s *Variables) Update(ctx context.Context, workspaceID, variableID string, target VariableTarget) (*Variable, error) {
	options, err := newVariableOptions(target)
	if err != nil {
		return nil, err
	}
	options.ID = variableID

	var body bytes.Buffer
	if err := jsonapi.MarshalPayload(&body, options); err != nil {
		return nil, fmt.Errorf("encoding variable %q: %w", target.Name, err)
	}

	u := fmt.Sprintf("workspaces/%s/vars/%s", url.PathEscape(workspaceID), url.PathEscape(variableID))
	req, err := s.client.newRequest(ctx, http.MethodPost, u, nil, body.Bytes())
	if err != nil {
		return nil, err
	}

	resp, err := s.client.do(req, http.StatusOK)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	v := &Variable{}
	if err := jsonapi.UnmarshalPayload(resp.Body, v); err != nil {
		return nil, fmt.Errorf("decoding updated variable %q: %w", target.Name, err)
	}
	s.client.log.Info("updated variable", "workspace", workspaceID, "key", v.Key, "id", v.ID)
	return v, nil
}

// Delete removes a variable. The sync flow never deletes; this exists
// for maintenance tooling and test cleanup.
func (s *Variables) Delete(ctx context.Context, workspaceID, variableID string) error {
	u := fmt.Sprintf("workspaces/%s/vars/%s", url.PathEscape(workspaceID), url.PathEscape(variableID))
	req, err := s.client.newRequest(ctx, http.MethodDelete, u, nil, nil)
	if err != nil {
		return err
	}

	resp, err := s.client.do(req, http.StatusNoContent)
	if err != nil {
		return err
	}
	resp.Body.Close()
	s.client.log.Info("deleted variable", "workspace", workspaceID, "id", variableID)
	return nil
}
