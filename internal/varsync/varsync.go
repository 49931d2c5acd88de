// Package varsync reconciles locally known output values against the
// variables stored in one workspace: it creates missing variables and,
// when allowed, updates existing ones.
package varsync

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/tfve/tfve/internal/exportlist"
	"github.com/tfve/tfve/internal/outputs"
	"github.com/tfve/tfve/internal/tfcloud"
	"github.com/tfve/tfve/internal/varcodec"
)

// VariableService is the slice of the API client the engine drives.
// *tfcloud.Variables satisfies it.
type VariableService interface {
	List(ctx context.Context, workspaceID string) (map[string]*tfcloud.Variable, error)
	Create(ctx context.Context, workspaceID string, target tfcloud.VariableTarget) (*tfcloud.Variable, error)
	Update(ctx context.Context, workspaceID, variableID string, target tfcloud.VariableTarget) (*tfcloud.Variable, error)
}

// Applied is one variable the engine created or updated, with the
// server-assigned ID and the value decoded from the server's response,
// so callers observe what was actually persisted.
type Applied struct {
	Name  string
	ID    string
	Value varcodec.Value
}

// Result is the aggregate outcome of one sync pass. Created and Updated
// keep the input order. IgnoredExisting lists targets that already
// existed remotely while updates were not allowed.
type Result struct {
	Created         []Applied
	Updated         []Applied
	IgnoredExisting []string
}

// Engine runs sync passes. Passes against distinct workspaces are
// independent; the pacing of the underlying client is the only shared
// state.
type Engine struct {
	Variables   VariableService
	AllowUpdate bool
	Log         hclog.Logger
}

// BuildTargets joins the output document with the export list: one
// target per mapping entry, in export-list order. A mapping entry whose
// source is missing from the non-sensitive outputs is an input error;
// every such problem is reported before any network call is made.
func BuildTargets(outs []outputs.Output, entries []exportlist.Entry) ([]tfcloud.VariableTarget, error) {
	byName := make(map[string]varcodec.Value, len(outs))
	for _, o := range outs {
		byName[o.Name] = o.Value
	}

	var errs *multierror.Error
	targets := make([]tfcloud.VariableTarget, 0, len(entries))
	for _, e := range entries {
		v, ok := byName[e.Source]
		if !ok {
			errs = multierror.Append(errs, fmt.Errorf("export list names output %q, which is not in the output values file (or is sensitive)", e.Source))
			continue
		}
		targets = append(targets, tfcloud.VariableTarget{
			Name:        e.Dest,
			Description: e.Description,
			Value:       v,
		})
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return targets, nil
}

// Sync runs one pass over the workspace. The remote variable set is
// listed once; targets are partitioned by name against that snapshot
// and never re-checked mid-run. All creates happen before any update,
// each phase in input order. The first failing item stops the pass; the
// returned Result still reports everything that was applied before the
// failure, and re-running is safe because a failed create leaves its
// name absent remotely.
func (e *Engine) Sync(ctx context.Context, workspaceID string, targets []tfcloud.VariableTarget) (*Result, error) {
	if err := validateTargets(targets); err != nil {
		return nil, err
	}
	log := e.log()

	remote, err := e.Variables.List(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("listing variables in workspace %s: %w", workspaceID, err)
	}

	type existing struct {
		target tfcloud.VariableTarget
		id     string
	}
	var toCreate []tfcloud.VariableTarget
	var toUpdate []existing
	for _, t := range targets {
		if v, ok := remote[t.Name]; ok {
			toUpdate = append(toUpdate, existing{target: t, id: v.ID})
		} else {
			toCreate = append(toCreate, t)
		}
	}
	log.Debug("partitioned targets", "workspace", workspaceID,
		"create", len(toCreate), "existing", len(toUpdate))

	result := &Result{}
	for _, t := range toCreate {
		v, err := e.Variables.Create(ctx, workspaceID, t)
		if err != nil {
			return result, fmt.Errorf("creating variable %q: %w", t.Name, err)
		}
		applied, err := decodeApplied(t, v)
		if err != nil {
			return result, fmt.Errorf("creating variable %q: %w", t.Name, err)
		}
		result.Created = append(result.Created, applied)
	}

	if !e.AllowUpdate {
		for _, ex := range toUpdate {
			result.IgnoredExisting = append(result.IgnoredExisting, ex.target.Name)
		}
		if len(result.IgnoredExisting) > 0 {
			log.Warn("existing variables left untouched; pass -allow-update to overwrite",
				"workspace", workspaceID, "names", strings.Join(result.IgnoredExisting, ", "))
		}
		return result, nil
	}

	for _, ex := range toUpdate {
		v, err := e.Variables.Update(ctx, workspaceID, ex.id, ex.target)
		if err != nil {
			return result, fmt.Errorf("updating variable %q: %w", ex.target.Name, err)
		}
		applied, err := decodeApplied(ex.target, v)
		if err != nil {
			return result, fmt.Errorf("updating variable %q: %w", ex.target.Name, err)
		}
		result.Updated = append(result.Updated, applied)
	}
	return result, nil
}

// decodeApplied turns the server's echo back into a Value of the same
// shape as the target's, proving the round trip.
func decodeApplied(t tfcloud.VariableTarget, v *tfcloud.Variable) (Applied, error) {
	kind, err := varcodec.Classify(t.Value)
	if err != nil {
		return Applied{}, err
	}
	value, err := varcodec.Decode(v.HCL, kind == varcodec.KindString, v.Value)
	if err != nil {
		return Applied{}, err
	}
	return Applied{Name: v.Key, ID: v.ID, Value: value}, nil
}

func validateTargets(targets []tfcloud.VariableTarget) error {
	var errs *multierror.Error
	seen := make(map[string]bool, len(targets))
	for _, t := range targets {
		if t.Name == "" {
			errs = multierror.Append(errs, fmt.Errorf("target with empty name"))
			continue
		}
		if seen[t.Name] {
			errs = multierror.Append(errs, fmt.Errorf("duplicate target name %q", t.Name))
		}
		seen[t.Name] = true
	}
	return errs.ErrorOrNil()
}

func (e *Engine) log() hclog.Logger {
	if e.Log != nil {
		return e.Log
	}
	return hclog.NewNullLogger()
}
