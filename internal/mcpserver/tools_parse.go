package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/erraggy/apigraph/internal/source"
	"github.com/erraggy/apigraph/resolver"
)

type parseInput struct {
	Spec    specInput `json:"spec"              jsonschema:"The AsyncAPI document to parse"`
	Resolve bool      `json:"resolve,omitempty" jsonschema:"Resolve local $ref pointers before counting"`
}

type parseSummaryServer struct {
	Name     string `json:"name"`
	URL      string `json:"url,omitempty"`
	Host     string `json:"host,omitempty"`
	Pathname string `json:"pathname,omitempty"`
	Protocol string `json:"protocol,omitempty"`
}

type parseOutput struct {
	AsyncAPI    string               `json:"asyncapi"`
	Title       string               `json:"title"`
	Version     string               `json:"version"`
	Description string               `json:"description,omitempty"`
	Format      string               `json:"format"`
	Stats       source.Stats         `json:"stats"`
	Servers     []parseSummaryServer `json:"servers,omitempty"`
	Tags        []string             `json:"tags,omitempty"`
	Diagnostics []diagnosticItem     `json:"diagnostics,omitempty"`
}

func handleParse(ctx context.Context, _ *mcp.CallToolRequest, input parseInput) (*mcp.CallToolResult, parseOutput, error) {
	mode := resolver.ModeNone
	if input.Resolve {
		mode = resolver.ModeLocal
	}

	loaded, err := input.Spec.load(ctx, mode)
	if err != nil {
		return errResult(err), parseOutput{}, nil
	}
	res := loaded.Result
	doc := res.Document

	stats, err := source.Summarize(doc)
	if err != nil {
		return errResult(err), parseOutput{}, nil
	}

	output := parseOutput{
		AsyncAPI:    res.RawVersion,
		Format:      string(res.Format),
		Stats:       stats,
		Diagnostics: diagnosticItems(loaded.Diagnostics.Items()),
	}
	if doc.Info != nil {
		output.Title = doc.Info.Title
		output.Version = doc.Info.Version
		output.Description = doc.Info.Description
	}
	if doc.Servers != nil {
		for name, s := range doc.Servers.All() {
			if s == nil {
				continue
			}
			output.Servers = append(output.Servers, parseSummaryServer{
				Name:     name,
				URL:      s.URL,
				Host:     s.Host,
				Pathname: s.Pathname,
				Protocol: s.Protocol,
			})
		}
	}
	for _, tag := range doc.Tags {
		if tag != nil && tag.Name != "" {
			output.Tags = append(output.Tags, tag.Name)
		}
	}

	return nil, output, nil
}
