// Package parser builds typed AsyncAPI object graphs from YAML or JSON text.
//
// AsyncAPI 2.0 through 2.6 and 3.0 documents are supported. The version is
// selected once, from the root "asyncapi" field, and every object below the
// root is built with that version's fixed-field registries. Problems that do
// not prevent building the graph (a missing required field, a value of the
// wrong shape, an unknown field) are recorded as diagnostics with a JSON
// pointer to the offending location, and parsing continues.
//
// # Quick Start
//
//	result, err := parser.ParseWithOptions(
//		parser.WithFilePath("asyncapi.yaml"),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, d := range result.Diagnostics.Items() {
//		fmt.Println(d)
//	}
//
// Parse from bytes or a reader:
//
//	result, err := parser.Parse(data)
//	result, err := parser.ParseReader(os.Stdin, parser.WithSourceName("stdin"))
//
// # Fatal Errors
//
// Unparseable text (apierrors.ErrMalformedDocument), a root that is not a map
// and a missing or unknown version (apierrors.ErrUnsupportedVersion) abort
// the parse. The Result is still returned, without a Document.
//
// # References
//
// Referenceable slots holding a "$ref" object are filled with placeholders:
// typed values whose Ref.Unresolved flag is set and whose Ref.Reference
// names the target. The resolver package swaps them for their targets.
//
// # Fragments
//
// ParseElement builds a single element, such as a message or a schema, from
// a fragment of a document:
//
//	v, diags, err := parser.ParseElement(model.RefKindMessage, data, parser.VersionAsyncAPI3)
//	msg := v.(*model.Message)
//
// # Extensions
//
// "x-" fields are kept in the owning object's Extensions, converted with the
// configured ExtensionParser (WithExtensionParser). The default keeps the
// value in structural form.
package parser
