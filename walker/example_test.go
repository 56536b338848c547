package walker_test

import (
	"fmt"

	"github.com/erraggy/apigraph/model"
	"github.com/erraggy/apigraph/parser"
	"github.com/erraggy/apigraph/walker"
)

type channelLister struct {
	walker.BaseVisitor
}

func (channelLister) VisitChannel(slot *walker.Slot, ch *model.Channel) walker.Action {
	fmt.Println(slot.Pointer, ch.Description)
	return walker.SkipChildren
}

func ExampleWalk() {
	src := `asyncapi: 2.6.0
info:
  title: Orders
  version: 1.0.0
channels:
  orders/created:
    description: New orders
  orders/cancelled:
    description: Cancelled orders
`
	res, err := parser.Parse([]byte(src))
	if err != nil {
		fmt.Println(err)
		return
	}
	_ = walker.Walk(res.Document, channelLister{})
	// Output:
	// #/channels/orders~1created New orders
	// #/channels/orders~1cancelled Cancelled orders
}

func ExampleCollectReferences() {
	src := `asyncapi: 2.6.0
info:
  title: Orders
  version: 1.0.0
channels:
  orders:
    subscribe:
      message:
        $ref: '#/components/messages/Order'
`
	res, _ := parser.Parse([]byte(src))
	refs, _ := walker.CollectReferences(res.Document)
	for _, r := range refs {
		fmt.Println(r.Pointer, "->", r.Reference.Raw)
	}
	// Output:
	// #/channels/orders/subscribe/message -> #/components/messages/Order
}
