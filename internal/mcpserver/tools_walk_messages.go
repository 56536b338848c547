package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/erraggy/apigraph/internal/httputil"
	"github.com/erraggy/apigraph/internal/pathutil"
	"github.com/erraggy/apigraph/model"
	"github.com/erraggy/apigraph/walker"
)

type walkMessagesInput struct {
	Spec        specInput `json:"spec"                   jsonschema:"The AsyncAPI document to walk"`
	Mode        string    `json:"mode,omitempty"         jsonschema:"Resolution applied before walking: none, local or full (default from APIGRAPH_RESOLVE_MODE)"`
	Name        string    `json:"name,omitempty"         jsonschema:"Filter by message name (supports * and ? glob)"`
	ContentType string    `json:"content_type,omitempty" jsonschema:"Filter by content type, e.g. application/json or application/*; parameters are ignored"`
	Component   bool      `json:"component,omitempty"    jsonschema:"Only messages defined under components/messages"`
	Detail      bool      `json:"detail,omitempty"       jsonschema:"Return payload and header details instead of summaries"`
	GroupBy     string    `json:"group_by,omitempty"     jsonschema:"Group results and return counts instead of individual items. Values: content_type, payload_type"`
	Limit       int       `json:"limit,omitempty"        jsonschema:"Maximum number of results to return (default 100; 25 in detail mode)"`
	Offset      int       `json:"offset,omitempty"       jsonschema:"Skip the first N results (for pagination)"`
}

type messageSummary struct {
	Name        string `json:"name"`
	Pointer     string `json:"pointer"`
	Source      string `json:"source,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	PayloadType string `json:"payload_type,omitempty"`
	Component   bool   `json:"component,omitempty"`
}

type schemaDetail struct {
	Type       []string `json:"type,omitempty"`
	Format     string   `json:"format,omitempty"`
	Properties []string `json:"properties,omitempty"`
	Required   []string `json:"required,omitempty"`
	Reference  string   `json:"unresolved_ref,omitempty"`
}

type messageDetail struct {
	messageSummary
	Title        string        `json:"title,omitempty"`
	Summary      string        `json:"summary,omitempty"`
	Description  string        `json:"description,omitempty"`
	SchemaFormat string        `json:"schema_format,omitempty"`
	Tags         []string      `json:"tags,omitempty"`
	Traits       int           `json:"trait_count,omitempty"`
	Alternatives int           `json:"one_of_count,omitempty"`
	Payload      *schemaDetail `json:"payload,omitempty"`
	Headers      *schemaDetail `json:"headers,omitempty"`
}

type walkMessagesOutput struct {
	Total     int              `json:"total"`
	Matched   int              `json:"matched"`
	Returned  int              `json:"returned"`
	Summaries []messageSummary `json:"messages,omitempty"`
	Details   []messageDetail  `json:"details,omitempty"`
	Groups    []groupCount     `json:"groups,omitempty"`
}

// messageCollector records each message once, at the location it is defined.
type messageCollector struct {
	walker.BaseVisitor
	defaultContentType string
	source             string
	messages           []messageDetail
}

func (c *messageCollector) VisitMessage(slot *walker.Slot, m *model.Message) walker.Action {
	if slot.Linked {
		return walker.SkipChildren
	}
	segs := pathutil.Split(slot.Pointer)
	d := messageDetail{
		messageSummary: messageSummary{
			Name:        m.Name,
			Pointer:     slot.Pointer,
			Source:      c.source,
			ContentType: m.ContentType,
			PayloadType: payloadType(m),
			Component:   len(segs) == 3 && segs[0] == "components" && segs[1] == pathutil.TableMessages,
		},
		Title:        m.Title,
		Summary:      m.Summary,
		Description:  m.Description,
		SchemaFormat: m.SchemaFormat,
		Traits:       len(m.Traits),
		Alternatives: len(m.OneOf),
		Payload:      describeSchema(m.Payload),
		Headers:      describeSchema(m.Headers),
	}
	if d.Name == "" && len(segs) > 0 {
		d.Name = segs[len(segs)-1]
	}
	if d.ContentType == "" {
		d.ContentType = c.defaultContentType
	}
	for _, tag := range m.Tags {
		if tag != nil && tag.Name != "" {
			d.Tags = append(d.Tags, tag.Name)
		}
	}
	c.messages = append(c.messages, d)
	return walker.Continue
}

func payloadType(m *model.Message) string {
	switch {
	case m.PayloadRaw != nil:
		return "raw"
	case m.Payload == nil:
		return ""
	case m.Payload.Unresolved:
		return "$ref"
	case len(m.Payload.Type) > 0:
		return strings.Join(m.Payload.Type, "|")
	default:
		return "any"
	}
}

func describeSchema(s *model.Schema) *schemaDetail {
	if s == nil {
		return nil
	}
	if s.Unresolved {
		return &schemaDetail{Reference: s.Reference.Raw}
	}
	d := &schemaDetail{Type: s.Type, Format: s.Format, Required: s.Required}
	if s.Properties != nil {
		for name := range s.Properties.All() {
			d.Properties = append(d.Properties, name)
		}
	}
	return d
}

func handleWalkMessages(ctx context.Context, _ *mcp.CallToolRequest, input walkMessagesInput) (*mcp.CallToolResult, walkMessagesOutput, error) {
	if err := validateGlobPattern(input.Name); err != nil {
		return errResult(err), walkMessagesOutput{}, nil
	}
	if err := validateGroupBy(input.GroupBy, input.Detail, []string{"content_type", "payload_type"}); err != nil {
		return errResult(err), walkMessagesOutput{}, nil
	}
	if input.ContentType != "" && !httputil.IsValidMediaType(input.ContentType) {
		return errResult(fmt.Errorf("invalid content_type %q", input.ContentType)), walkMessagesOutput{}, nil
	}
	mode, err := loadMode(input.Mode)
	if err != nil {
		return errResult(err), walkMessagesOutput{}, nil
	}

	loaded, err := input.Spec.load(ctx, mode)
	if err != nil {
		return errResult(err), walkMessagesOutput{}, nil
	}
	doc := loaded.Result.Document

	c := &messageCollector{defaultContentType: doc.DefaultContentType}
	if err := walker.Walk(doc, c, walker.WithContext(ctx)); err != nil {
		return errResult(err), walkMessagesOutput{}, nil
	}
	all := c.messages
	// Messages defined in other resources of the workspace.
	if loaded.Workspace != nil {
		for _, other := range loaded.Workspace.Documents() {
			if other == doc {
				continue
			}
			oc := &messageCollector{defaultContentType: other.DefaultContentType, source: other.Location}
			if err := walker.Walk(other, oc, walker.WithContext(ctx)); err != nil {
				return errResult(err), walkMessagesOutput{}, nil
			}
			all = append(all, oc.messages...)
		}
	}

	var filtered []messageDetail
	for _, m := range all {
		if input.Name != "" && !matchGlobName(m.Name, input.Name) {
			continue
		}
		if input.ContentType != "" && !httputil.MatchMediaType(m.ContentType, input.ContentType) {
			continue
		}
		if input.Component && !m.Component {
			continue
		}
		filtered = append(filtered, m)
	}

	output := walkMessagesOutput{Total: len(all), Matched: len(filtered)}

	if input.GroupBy != "" {
		groups := groupAndSort(filtered, func(m messageDetail) []string {
			key := m.ContentType
			if strings.EqualFold(input.GroupBy, "payload_type") {
				key = m.PayloadType
			}
			if key == "" {
				key = "(none)"
			}
			return []string{key}
		})
		output.Groups = paginate(groups, input.Offset, input.Limit)
		output.Returned = len(output.Groups)
		return nil, output, nil
	}

	if input.Detail {
		output.Details = paginate(filtered, input.Offset, detailLimit(input.Limit))
		output.Returned = len(output.Details)
		return nil, output, nil
	}

	paged := paginate(filtered, input.Offset, input.Limit)
	output.Summaries = makeSlice[messageSummary](len(paged))
	for _, m := range paged {
		output.Summaries = append(output.Summaries, m.messageSummary)
	}
	output.Returned = len(output.Summaries)
	return nil, output, nil
}
