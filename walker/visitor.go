package walker

import "github.com/erraggy/apigraph/model"

// BaseVisitor implements every Visitor callback as a no-op returning
// Continue. Embed it and override the callbacks you need.
type BaseVisitor struct{}

var _ Visitor = BaseVisitor{}

func (BaseVisitor) VisitDocument(*model.Document) Action { return Continue }
func (BaseVisitor) VisitServer(*Slot, *model.Server) Action { return Continue }
func (BaseVisitor) VisitServerVariable(*Slot, *model.ServerVariable) Action { return Continue }
func (BaseVisitor) VisitChannel(*Slot, *model.Channel) Action { return Continue }
func (BaseVisitor) VisitOperation(*Slot, *model.Operation) Action { return Continue }
func (BaseVisitor) VisitOperationReply(*Slot, *model.OperationReply) Action { return Continue }
func (BaseVisitor) VisitReplyAddress(*Slot, *model.OperationReplyAddress) Action { return Continue }
func (BaseVisitor) VisitMessage(*Slot, *model.Message) Action { return Continue }
func (BaseVisitor) VisitSchema(*Slot, *model.Schema) Action { return Continue }
func (BaseVisitor) VisitParameter(*Slot, *model.Parameter) Action { return Continue }
func (BaseVisitor) VisitSecurityScheme(*Slot, *model.SecurityScheme) Action { return Continue }
func (BaseVisitor) VisitCorrelationID(*Slot, *model.CorrelationID) Action { return Continue }
func (BaseVisitor) VisitOperationTrait(*Slot, *model.OperationTrait) Action { return Continue }
func (BaseVisitor) VisitMessageTrait(*Slot, *model.MessageTrait) Action { return Continue }
func (BaseVisitor) VisitBindings(*Slot, *model.Bindings) Action { return Continue }
func (BaseVisitor) VisitTag(*Slot, *model.Tag) Action { return Continue }
func (BaseVisitor) VisitExternalDocs(*Slot, *model.ExternalDocs) Action { return Continue }
func (BaseVisitor) VisitReference(*Slot) Action { return Continue }
func (BaseVisitor) VisitSkipped(*Slot, SkipReason) {}
