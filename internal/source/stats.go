package source

import (
	"github.com/erraggy/apigraph/model"
	"github.com/erraggy/apigraph/walker"
)

// Stats counts the elements defined in a document. Elements reached through
// a resolved reference are counted where they are defined, not where they
// are used. Schemas include nested schemas.
type Stats struct {
	Servers         int `json:"servers" yaml:"servers"`
	Channels        int `json:"channels" yaml:"channels"`
	Operations      int `json:"operations" yaml:"operations"`
	Messages        int `json:"messages" yaml:"messages"`
	Schemas         int `json:"schemas" yaml:"schemas"`
	SecuritySchemes int `json:"securitySchemes" yaml:"securitySchemes"`
	References      int `json:"unresolvedReferences" yaml:"unresolvedReferences"`
}

type statsVisitor struct {
	walker.BaseVisitor
	stats Stats
}

// Summarize walks doc and counts its elements.
func Summarize(doc *model.Document) (Stats, error) {
	v := &statsVisitor{}
	if err := walker.Walk(doc, v); err != nil {
		return Stats{}, err
	}
	return v.stats, nil
}

func count(slot *walker.Slot, n *int) walker.Action {
	if !slot.Linked {
		*n++
	}
	return walker.Continue
}

func (v *statsVisitor) VisitServer(slot *walker.Slot, _ *model.Server) walker.Action {
	return count(slot, &v.stats.Servers)
}

func (v *statsVisitor) VisitChannel(slot *walker.Slot, _ *model.Channel) walker.Action {
	return count(slot, &v.stats.Channels)
}

func (v *statsVisitor) VisitOperation(slot *walker.Slot, _ *model.Operation) walker.Action {
	return count(slot, &v.stats.Operations)
}

func (v *statsVisitor) VisitMessage(slot *walker.Slot, _ *model.Message) walker.Action {
	return count(slot, &v.stats.Messages)
}

func (v *statsVisitor) VisitSchema(slot *walker.Slot, _ *model.Schema) walker.Action {
	return count(slot, &v.stats.Schemas)
}

func (v *statsVisitor) VisitSecurityScheme(slot *walker.Slot, _ *model.SecurityScheme) walker.Action {
	return count(slot, &v.stats.SecuritySchemes)
}

func (v *statsVisitor) VisitReference(_ *walker.Slot) walker.Action {
	v.stats.References++
	return walker.Continue
}
