package mcpserver

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/erraggy/apigraph/resolver"
	"github.com/erraggy/apigraph/walker"
)

type walkRefsInput struct {
	Spec         specInput `json:"spec"                    jsonschema:"The AsyncAPI document to walk"`
	Mode         string    `json:"mode,omitempty"          jsonschema:"Resolution applied before walking: none (default), local or full. Only references left unresolved are reported."`
	Target       string    `json:"target,omitempty"        jsonschema:"Filter by ref target (supports * and ? glob, e.g. *messages/Order* or common/*)"`
	Kind         string    `json:"kind,omitempty"          jsonschema:"Filter by element kind: schema, message, parameter, securityScheme, correlationId, operationTrait, messageTrait, tag, channel, operation, server, ..."`
	Externals    bool      `json:"externals,omitempty"     jsonschema:"Only report references into other files or URLs"`
	NoComponents bool      `json:"no_components,omitempty" jsonschema:"Skip references inside the components section"`
	Detail       bool      `json:"detail,omitempty"        jsonschema:"Return individual source locations instead of aggregated counts"`
	GroupBy      string    `json:"group_by,omitempty"      jsonschema:"Group results and return counts instead of individual items. Values: kind, resource"`
	Limit        int       `json:"limit,omitempty"         jsonschema:"Maximum number of results to return (default 100; 25 in detail mode)"`
	Offset       int       `json:"offset,omitempty"        jsonschema:"Skip the first N results (for pagination)"`
}

type refSummary struct {
	Ref   string `json:"ref"`
	Count int    `json:"count"`
}

type refDetail struct {
	Ref      string `json:"ref"`
	Pointer  string `json:"pointer"`
	Kind     string `json:"kind"`
	Resource string `json:"resource,omitempty"`
}

// walkRefsOutput holds results from walk_refs. In summary mode, Total and
// Matched count unique ref targets. In detail and group_by modes, they count
// individual ref occurrences (a single target referenced 3 times counts as 3).
type walkRefsOutput struct {
	Total     int          `json:"total"`
	Matched   int          `json:"matched"`
	Returned  int          `json:"returned"`
	Summaries []refSummary `json:"refs,omitempty"`
	Details   []refDetail  `json:"details,omitempty"`
	Groups    []groupCount `json:"groups,omitempty"`
}

func handleWalkRefs(ctx context.Context, _ *mcp.CallToolRequest, input walkRefsInput) (*mcp.CallToolResult, walkRefsOutput, error) {
	if err := validateGlobPattern(input.Target); err != nil {
		return errResult(err), walkRefsOutput{}, nil
	}
	if err := validateGroupBy(input.GroupBy, input.Detail, []string{"kind", "resource"}); err != nil {
		return errResult(err), walkRefsOutput{}, nil
	}

	mode := resolver.ModeNone
	if input.Mode != "" {
		var err error
		if mode, err = resolver.ParseMode(input.Mode); err != nil {
			return errResult(err), walkRefsOutput{}, nil
		}
	}

	loaded, err := input.Spec.load(ctx, mode)
	if err != nil {
		return errResult(err), walkRefsOutput{}, nil
	}
	doc := loaded.Result.Document

	infos, err := walker.CollectReferences(doc,
		walker.WithContext(ctx),
		walker.WithComponents(!input.NoComponents),
	)
	if err != nil {
		return errResult(err), walkRefsOutput{}, nil
	}

	all := make([]refDetail, 0, len(infos))
	for _, info := range infos {
		ref := info.Reference
		d := refDetail{Ref: ref.Raw, Pointer: info.Pointer, Kind: info.Kind.String()}
		// references qualified with the document's own locator are local
		if ref.IsExternal() && ref.Resource != doc.Location {
			d.Resource = ref.Resource
		}
		all = append(all, d)
	}
	filtered := filterRefs(all, input)

	if input.GroupBy != "" {
		groups := groupAndSort(filtered, func(d refDetail) []string {
			if strings.EqualFold(input.GroupBy, "resource") {
				if d.Resource == "" {
					return []string{"(local)"}
				}
				return []string{d.Resource}
			}
			return []string{d.Kind}
		})
		paged := paginate(groups, input.Offset, input.Limit)
		return nil, walkRefsOutput{
			Total:    len(all),
			Matched:  len(filtered),
			Returned: len(paged),
			Groups:   paged,
		}, nil
	}

	if input.Detail {
		paged := paginate(filtered, input.Offset, detailLimit(input.Limit))
		return nil, walkRefsOutput{
			Total:    len(all),
			Matched:  len(filtered),
			Returned: len(paged),
			Details:  paged,
		}, nil
	}

	// Summary mode: aggregate by ref target, sort by count desc.
	counts := make(map[string]int)
	for _, d := range filtered {
		counts[d.Ref]++
	}
	summaries := make([]refSummary, 0, len(counts))
	for ref, count := range counts {
		summaries = append(summaries, refSummary{Ref: ref, Count: count})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Count != summaries[j].Count {
			return summaries[i].Count > summaries[j].Count
		}
		return summaries[i].Ref < summaries[j].Ref
	})

	paged := paginate(summaries, input.Offset, input.Limit)
	return nil, walkRefsOutput{
		Total:     countUniqueRefs(all),
		Matched:   countUniqueRefs(filtered),
		Returned:  len(paged),
		Summaries: paged,
	}, nil
}

// filterRefs applies the target, kind and externals filters to refs.
func filterRefs(refs []refDetail, input walkRefsInput) []refDetail {
	if input.Target == "" && input.Kind == "" && !input.Externals {
		return refs
	}
	var filtered []refDetail
	for _, d := range refs {
		if input.Target != "" && !matchRefGlob(d.Ref, input.Target) {
			continue
		}
		if input.Kind != "" && !strings.EqualFold(d.Kind, input.Kind) {
			continue
		}
		if input.Externals && d.Resource == "" {
			continue
		}
		filtered = append(filtered, d)
	}
	return filtered
}

// countUniqueRefs returns the number of distinct ref targets.
func countUniqueRefs(refs []refDetail) int {
	seen := make(map[string]struct{}, len(refs))
	for _, d := range refs {
		seen[d.Ref] = struct{}{}
	}
	return len(seen)
}

// matchRefGlob matches a $ref value against a glob pattern. Unlike matchGlobName,
// this function allows * and ? to match across / separators in refs like
// "common/messages.yaml#/components/messages/OrderCreated". It does this by
// replacing / with a non-separator character before calling filepath.Match.
func matchRefGlob(ref, pattern string) bool {
	if !strings.ContainsAny(pattern, "*?") {
		return strings.EqualFold(ref, pattern)
	}
	normalizedRef := strings.ReplaceAll(strings.ToLower(ref), "/", ":")
	normalizedPattern := strings.ReplaceAll(strings.ToLower(pattern), "/", ":")
	matched, err := filepath.Match(normalizedPattern, normalizedRef)
	return err == nil && matched
}
