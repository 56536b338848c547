package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/erraggy/apigraph/diag"
	"github.com/erraggy/apigraph/walker"
)

type resolveInput struct {
	Spec       specInput `json:"spec"                  jsonschema:"The AsyncAPI document to resolve"`
	Mode       string    `json:"mode,omitempty"        jsonschema:"Resolution mode: local or full (default from APIGRAPH_RESOLVE_MODE, normally full)"`
	ErrorsOnly bool      `json:"errors_only,omitempty" jsonschema:"Only return error diagnostics"`
	Limit      int       `json:"limit,omitempty"       jsonschema:"Maximum number of diagnostics to return (default 100)"`
	Offset     int       `json:"offset,omitempty"      jsonschema:"Skip the first N diagnostics (for pagination)"`
}

type resolveOutput struct {
	Mode       string           `json:"mode"`
	Resources  []string         `json:"resources,omitempty"`
	Unresolved int              `json:"unresolved_references"`
	Errors     int              `json:"error_count"`
	Warnings   int              `json:"warning_count"`
	Returned   int              `json:"returned"`
	Items      []diagnosticItem `json:"diagnostics,omitempty"`
}

func handleResolve(ctx context.Context, _ *mcp.CallToolRequest, input resolveInput) (*mcp.CallToolResult, resolveOutput, error) {
	mode, err := loadMode(input.Mode)
	if err != nil {
		return errResult(err), resolveOutput{}, nil
	}

	loaded, err := input.Spec.load(ctx, mode)
	if err != nil {
		return errResult(err), resolveOutput{}, nil
	}

	refs, err := walker.CollectReferences(loaded.Result.Document, walker.WithContext(ctx))
	if err != nil {
		return errResult(err), resolveOutput{}, nil
	}

	list := loaded.Diagnostics
	output := resolveOutput{
		Mode:       mode.String(),
		Unresolved: len(refs),
		Errors:     list.Count(diag.SeverityError),
		Warnings:   list.Count(diag.SeverityWarning),
	}
	if loaded.Workspace != nil {
		output.Resources = loaded.Workspace.Locators()
	}

	items := list.Items()
	if input.ErrorsOnly {
		var errs []diag.Diagnostic
		for _, d := range items {
			if d.Severity == diag.SeverityError {
				errs = append(errs, d)
			}
		}
		items = errs
	}
	paged := paginate(items, input.Offset, input.Limit)
	output.Returned = len(paged)
	output.Items = diagnosticItems(paged)
	return nil, output, nil
}
