// Package resolver replaces reference placeholders with the elements they
// point to.
//
// The parser leaves every "$ref" as a placeholder carrying its
// model.Reference. The resolver is a walker.Visitor: for each placeholder it
// looks the target up and stores it in the slot, so the graph links straight
// to the shared element.
//
//	res, err := parser.ParseFile("asyncapi.yaml")
//	if err != nil {
//	    return err
//	}
//	diags := resolver.ResolveLocal(res.Document)
//
// Local references are looked up in the document's components tables; tag
// references match tags by name; other fragments are evaluated as JSON
// pointers. External references are resolved in ModeFull through a
// model.Workspace, typically a loaded workspace.Workspace:
//
//	ws := workspace.New()
//	if _, err := ws.Load(ctx, "asyncapi.yaml", res.Document); err != nil {
//	    return err
//	}
//	diags, err := resolver.ResolveWorkspace(ctx, res.Document)
//
// A reference that cannot be resolved is reported as a diagnostic and its
// placeholder stays in place. Chains of references are followed to the
// final element; a cycle in such a chain is reported once per slot.
// Resolving a document twice is safe: the second pass only sees the
// placeholders that are still unresolved.
package resolver
