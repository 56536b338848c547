// Package workspace loads AsyncAPI documents together with the resources
// their external references name, and resolves references across them.
//
// # Loading
//
// Load registers a parsed document under a locator and follows its external
// references breadth first. Each level of newly discovered resources is
// fetched concurrently, bounded by WithMaxConcurrency; a resource requested
// twice at the same time is fetched once.
//
//	res, err := parser.ParseFile("asyncapi.yaml")
//	if err != nil {
//		return err
//	}
//	ws := workspace.New(workspace.WithBaseDir("."))
//	diags, err := ws.Load(ctx, "asyncapi.yaml", res.Document)
//	if err != nil {
//		return err
//	}
//	more, err := resolver.ResolveWorkspace(ctx, res.Document)
//
// Locators are slash separated paths relative to the base directory, or
// http(s) URLs. Relative references are resolved against the locator of the
// resource containing them. Files outside the base directory are never read.
//
// # Fragment files
//
// A resource without an "asyncapi" field is kept as a fragment file: plain
// YAML or JSON holding reusable pieces, most often schemas. Elements of a
// fragment file are parsed on first use with the dialect of the document
// that referenced the file, and cached.
//
// # Metrics
//
// WithMetrics registers Prometheus collectors counting fetches by result,
// timing them, and tracking the number of registered resources.
package workspace
