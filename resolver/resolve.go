package resolver

import (
	"context"

	"github.com/erraggy/apigraph/apierrors"
	"github.com/erraggy/apigraph/diag"
	"github.com/erraggy/apigraph/model"
	"github.com/erraggy/apigraph/parser"
)

// Options configures Resolve.
type Options struct {
	// Mode selects local or workspace-wide resolution.
	Mode Mode
	// Workspace resolves external references in ModeFull. When nil the
	// document's own workspace is used.
	Workspace model.Workspace
	// Logger receives resolution progress; nil discards it.
	Logger parser.Logger
	// ReportExternal records an info diagnostic for each external reference
	// left unresolved in ModeLocal.
	ReportExternal bool
	// Diagnostics, when set, receives the diagnostics instead of a new list.
	Diagnostics *diag.List
}

// Resolve resolves the references of doc as selected by opts.Mode.
//
// Unresolvable references become diagnostics and stay in place. The
// returned error is only set for a cancelled context or for ModeFull without
// a workspace (apierrors.ErrMissingWorkspace).
func Resolve(ctx context.Context, doc *model.Document, opts Options) (*diag.List, error) {
	list := opts.Diagnostics
	if list == nil {
		list = diag.New()
	}
	if doc == nil {
		return list, &apierrors.ConfigError{Option: "document", Message: "nil document"}
	}

	ropts := []Option{
		WithDiagnostics(list),
		WithLogger(opts.Logger),
		WithReportExternal(opts.ReportExternal),
	}
	switch opts.Mode {
	case ModeNone:
		return list, nil
	case ModeLocal:
	case ModeFull:
		ws := opts.Workspace
		if ws == nil {
			ws = doc.Workspace
		}
		if ws == nil {
			return list, apierrors.ErrMissingWorkspace
		}
		ropts = append(ropts, WithWorkspace(ws))
	default:
		return list, &apierrors.ConfigError{Option: "mode", Value: opts.Mode, Message: "unknown resolution mode"}
	}

	if err := New(doc, ropts...).Run(ctx); err != nil {
		return list, err
	}
	return list, nil
}

// ResolveLocal resolves the references of doc that point into doc itself.
// External references are left unresolved without diagnostics.
func ResolveLocal(doc *model.Document) *diag.List {
	list, _ := Resolve(context.Background(), doc, Options{Mode: ModeLocal})
	return list
}

// ResolveWorkspace resolves local and external references of doc, the
// latter through the document's workspace.
func ResolveWorkspace(ctx context.Context, doc *model.Document) (*diag.List, error) {
	return Resolve(ctx, doc, Options{Mode: ModeFull})
}
