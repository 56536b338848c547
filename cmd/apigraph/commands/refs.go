package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/erraggy/apigraph/internal/cliutil"
	"github.com/erraggy/apigraph/internal/source"
	"github.com/erraggy/apigraph/model"
	"github.com/erraggy/apigraph/walker"
)

// RefsFlags contains flags for the refs command
type RefsFlags struct {
	Format        string
	Mode          string
	Kind          string
	NoComponents  bool
	ExternalsOnly bool
}

// refOutput is one reference in the structured output of the refs command.
type refOutput struct {
	Pointer  string `json:"pointer" yaml:"pointer"`
	Kind     string `json:"kind" yaml:"kind"`
	Ref      string `json:"ref" yaml:"ref"`
	Resource string `json:"resource,omitempty" yaml:"resource,omitempty"`

	kind model.RefKind
}

func newRefsCommand(g *globalFlags) *cobra.Command {
	flags := &RefsFlags{}
	cmd := &cobra.Command{
		Use:   "refs <file|url|->",
		Short: "List the references of a document",
		Long: `List the $ref references of an AsyncAPI document in document order, with
the JSON pointer of each reference and the kind of element it stands for.

By default nothing is resolved, so every reference is listed. With --mode
local or full only the references left unresolved are listed.

Examples:
  apigraph refs asyncapi.yaml
  apigraph refs --kind schema --no-components asyncapi.yaml
  apigraph refs --externals asyncapi.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefs(cmd, g, flags, args[0])
		},
	}
	cmd.Flags().StringVarP(&flags.Format, "format", "f", FormatText, "output format: text, json or yaml")
	cmd.Flags().StringVar(&flags.Mode, "mode", "none", "resolution mode applied before listing: none, local or full")
	cmd.Flags().StringVar(&flags.Kind, "kind", "", "only list references of this kind, e.g. schema or messageTrait")
	cmd.Flags().BoolVar(&flags.NoComponents, "no-components", false, "skip references inside the components section")
	cmd.Flags().BoolVar(&flags.ExternalsOnly, "externals", false, "only list references into other resources")
	return cmd
}

func runRefs(cmd *cobra.Command, g *globalFlags, flags *RefsFlags, input string) error {
	if err := ValidateOutputFormat(flags.Format); err != nil {
		return err
	}
	mode, err := parseModeFlag(flags.Mode)
	if err != nil {
		return err
	}
	logger, err := g.logger(cmd)
	if err != nil {
		return err
	}

	loaded, err := load(cmd.Context(), cmd, input, source.Options{Mode: mode, Logger: logger})
	if err != nil {
		return fmt.Errorf("loading %s: %w", input, err)
	}
	doc := loaded.Result.Document
	refs, err := walker.CollectReferences(doc, walker.WithComponents(!flags.NoComponents))
	if err != nil {
		return err
	}

	var out []refOutput
	for _, info := range refs {
		ref := info.Reference
		if flags.Kind != "" && !strings.EqualFold(info.Kind.String(), flags.Kind) {
			continue
		}
		external := ref.IsExternal() && ref.Resource != doc.Location
		if flags.ExternalsOnly && !external {
			continue
		}
		o := refOutput{Pointer: info.Pointer, Kind: info.Kind.String(), Ref: ref.Raw, kind: info.Kind}
		if external {
			o.Resource = ref.Resource
		}
		out = append(out, o)
	}

	w := cmd.OutOrStdout()
	if flags.Format != FormatText {
		return OutputStructured(w, out, flags.Format)
	}
	for _, o := range out {
		cliutil.Writef(w, "%-16s %s -> %s\n", cliutil.KindLabel(o.kind), o.Pointer, o.Ref)
	}
	cliutil.Writef(w, "\n%d reference(s)\n", len(out))
	return nil
}
