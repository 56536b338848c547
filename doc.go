// Package apigraph builds typed, fully linked object graphs from AsyncAPI
// documents.
//
// AsyncAPI 2.0 through 2.6 and 3.0 documents are parsed from YAML or JSON
// into a model.Document whose "$ref" values are left as placeholders. The
// resolver package then links every placeholder to the element it points to,
// either within the document or, through a workspace.Workspace, across
// files and URLs. Problems found on the way are reported as positioned
// diagnostics rather than errors, so a single pass reports everything that
// is wrong with a document.
//
// # Packages
//
//   - parser: YAML/JSON text to model.Document, plus element level parsing
//   - model: the typed AsyncAPI object graph and reference placeholders
//   - walker: depth-first, cycle safe traversal with a Visitor interface
//   - resolver: reference resolution as a walker.Visitor
//   - workspace: concurrent loading of external resources
//   - diag: positioned diagnostics with severities
//   - apierrors: structured errors for errors.Is and errors.As
//
// # Quick Start
//
//	res, err := parser.ParseFile("asyncapi.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ws := workspace.New()
//	diags, err := ws.Load(ctx, "asyncapi.yaml", res.Document)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	more, err := resolver.ResolveWorkspace(ctx, res.Document)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	diags.Merge(more)
//	for _, d := range diags.Items() {
//	    fmt.Println(d)
//	}
//
// The apigraph command wraps these packages: parse, resolve, refs, watch
// and an MCP server.
package apigraph
