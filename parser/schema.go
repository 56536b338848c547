package parser

import (
	"github.com/speakeasy-api/openapi/sequencedmap"

	"github.com/erraggy/apigraph/model"
	"github.com/erraggy/apigraph/node"
)

// loadSchema parses a schema slot. The boolean schemas true and false are
// accepted alongside schema objects and references.
func loadSchema(n *node.Node, ctx *Context) *model.Schema {
	if n.Kind() == node.KindScalar && n.Tag() == node.TagBool {
		b, _ := n.AsBool()
		s := &model.Schema{Boolean: &b}
		s.Location = ctx.Pointer()
		return s
	}
	return loadRef[model.Schema](n, model.RefKindSchema, ctx.specs.schema, ctx)
}

func loadSchemaMap(n *node.Node, ctx *Context) *sequencedmap.Map[string, *model.Schema] {
	m, ok := asMap(n, ctx)
	if !ok {
		return nil
	}
	out := sequencedmap.New[string, *model.Schema]()
	for _, e := range m.Entries() {
		exit := ctx.Enter(e.Key)
		if s := loadSchema(e.Value, ctx); s != nil {
			out.Set(e.Key, s)
		}
		exit()
	}
	return out
}

func loadSchemaList(n *node.Node, ctx *Context) []*model.Schema {
	items, ok := asList(n, ctx)
	if !ok {
		return nil
	}
	out := make([]*model.Schema, 0, len(items))
	for i, item := range items {
		exit := ctx.EnterIndex(i)
		if s := loadSchema(item, ctx); s != nil {
			out = append(out, s)
		}
		exit()
	}
	return out
}

func schemaField[T any](get func(*T) **model.Schema) fieldFunc[T] {
	return func(obj *T, n *node.Node, ctx *Context) {
		*get(obj) = loadSchema(n, ctx)
	}
}

func schemaMapField(get func(*model.Schema) **sequencedmap.Map[string, *model.Schema]) fieldFunc[model.Schema] {
	return func(obj *model.Schema, n *node.Node, ctx *Context) {
		*get(obj) = loadSchemaMap(n, ctx)
	}
}

func schemaListField(get func(*model.Schema) *[]*model.Schema) fieldFunc[model.Schema] {
	return func(obj *model.Schema, n *node.Node, ctx *Context) {
		*get(obj) = loadSchemaList(n, ctx)
	}
}

// newSchemaSpec returns the schema registry. The schema object is a JSON
// Schema draft-07 superset and is the same in every supported version.
func newSchemaSpec() *objectSpec[model.Schema] {
	type S = model.Schema
	return &objectSpec[S]{
		extensions: func(s *S) *model.Extensions { return &s.Extensions },
		fields: fields[S]{
			"$id":      ignoreField[S],
			"$schema":  ignoreField[S],
			"$comment": ignoreField[S],
			"type": func(s *S, n *node.Node, ctx *Context) {
				if n.Kind() == node.KindList {
					s.Type, _ = asStringList(n, ctx)
					return
				}
				if t, ok := asString(n, ctx); ok {
					s.Type = []string{t}
				}
			},
			"format":        stringField(func(s *S) *string { return &s.Format }),
			"title":         stringField(func(s *S) *string { return &s.Title }),
			"description":   stringField(func(s *S) *string { return &s.Description }),
			"pattern":       stringField(func(s *S) *string { return &s.Pattern }),
			"discriminator": stringField(func(s *S) *string { return &s.Discriminator }),
			"default":       anyField(func(s *S) *any { return &s.Default }),
			"const":         anyField(func(s *S) *any { return &s.Const }),
			"enum":          anyListField(func(s *S) *[]any { return &s.Enum }),
			"examples":      anyListField(func(s *S) *[]any { return &s.Examples }),
			"readOnly":      boolField(func(s *S) *bool { return &s.ReadOnly }),
			"writeOnly":     boolField(func(s *S) *bool { return &s.WriteOnly }),
			"deprecated":    boolField(func(s *S) *bool { return &s.Deprecated }),
			"uniqueItems":   boolField(func(s *S) *bool { return &s.UniqueItems }),

			"multipleOf":       floatField(func(s *S) **float64 { return &s.MultipleOf }),
			"maximum":          floatField(func(s *S) **float64 { return &s.Maximum }),
			"exclusiveMaximum": floatField(func(s *S) **float64 { return &s.ExclusiveMaximum }),
			"minimum":          floatField(func(s *S) **float64 { return &s.Minimum }),
			"exclusiveMinimum": floatField(func(s *S) **float64 { return &s.ExclusiveMinimum }),
			"maxLength":        intField(func(s *S) **int64 { return &s.MaxLength }),
			"minLength":        intField(func(s *S) **int64 { return &s.MinLength }),
			"maxItems":         intField(func(s *S) **int64 { return &s.MaxItems }),
			"minItems":         intField(func(s *S) **int64 { return &s.MinItems }),
			"maxProperties":    intField(func(s *S) **int64 { return &s.MaxProperties }),
			"minProperties":    intField(func(s *S) **int64 { return &s.MinProperties }),
			"required":         stringListField(func(s *S) *[]string { return &s.Required }),

			"properties":        schemaMapField(func(s *S) **sequencedmap.Map[string, *S] { return &s.Properties }),
			"patternProperties": schemaMapField(func(s *S) **sequencedmap.Map[string, *S] { return &s.PatternProperties }),
			"definitions":       schemaMapField(func(s *S) **sequencedmap.Map[string, *S] { return &s.Definitions }),
			"additionalProperties": func(s *S, n *node.Node, ctx *Context) {
				if n.Tag() == node.TagBool {
					b, _ := n.AsBool()
					s.AdditionalPropertiesAllowed = &b
					return
				}
				s.AdditionalProperties = loadSchema(n, ctx)
			},
			"items": func(s *S, n *node.Node, ctx *Context) {
				if n.Kind() == node.KindList {
					s.ItemsTuple = loadSchemaList(n, ctx)
					return
				}
				s.Items = loadSchema(n, ctx)
			},
			"dependencies": func(s *S, n *node.Node, ctx *Context) {
				m, ok := asMap(n, ctx)
				if !ok {
					return
				}
				for _, e := range m.Entries() {
					exit := ctx.Enter(e.Key)
					if e.Value.Kind() == node.KindList {
						if names, ok := asStringList(e.Value, ctx); ok {
							if s.DependentRequired == nil {
								s.DependentRequired = make(map[string][]string)
							}
							s.DependentRequired[e.Key] = names
						}
					} else if dep := loadSchema(e.Value, ctx); dep != nil {
						if s.Dependencies == nil {
							s.Dependencies = sequencedmap.New[string, *S]()
						}
						s.Dependencies.Set(e.Key, dep)
					}
					exit()
				}
			},
			"additionalItems": schemaField(func(s *S) **S { return &s.AdditionalItems }),
			"contains":        schemaField(func(s *S) **S { return &s.Contains }),
			"propertyNames":   schemaField(func(s *S) **S { return &s.PropertyNames }),
			"not":             schemaField(func(s *S) **S { return &s.Not }),
			"if":              schemaField(func(s *S) **S { return &s.If }),
			"then":            schemaField(func(s *S) **S { return &s.Then }),
			"else":            schemaField(func(s *S) **S { return &s.Else }),
			"allOf":           schemaListField(func(s *S) *[]*S { return &s.AllOf }),
			"anyOf":           schemaListField(func(s *S) *[]*S { return &s.AnyOf }),
			"oneOf":           schemaListField(func(s *S) *[]*S { return &s.OneOf }),
			"externalDocs":    externalDocsField(func(s *S) **model.ExternalDocs { return &s.ExternalDocs }),
		},
	}
}
