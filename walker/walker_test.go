package walker

import (
	"context"
	"testing"

	"github.com/speakeasy-api/openapi/sequencedmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erraggy/apigraph/model"
	"github.com/erraggy/apigraph/parser"
)

// recorder records the pointers of visited elements per callback.
type recorder struct {
	BaseVisitor
	channels   []string
	operations []string
	messages   []string
	schemas    []string
	linked     []string
	refs       []string
	skipped    map[SkipReason][]string

	onSchema func(*Slot, *model.Schema) Action
}

func newRecorder() *recorder {
	return &recorder{skipped: make(map[SkipReason][]string)}
}

func (r *recorder) VisitChannel(slot *Slot, _ *model.Channel) Action {
	r.channels = append(r.channels, slot.Pointer)
	return Continue
}

func (r *recorder) VisitOperation(slot *Slot, _ *model.Operation) Action {
	r.operations = append(r.operations, slot.Pointer)
	return Continue
}

func (r *recorder) VisitMessage(slot *Slot, _ *model.Message) Action {
	r.messages = append(r.messages, slot.Pointer)
	return Continue
}

func (r *recorder) VisitSchema(slot *Slot, s *model.Schema) Action {
	if slot.Linked {
		r.linked = append(r.linked, slot.Pointer)
	} else {
		r.schemas = append(r.schemas, slot.Pointer)
	}
	if r.onSchema != nil {
		return r.onSchema(slot, s)
	}
	return Continue
}

func (r *recorder) VisitReference(slot *Slot) Action {
	r.refs = append(r.refs, slot.Pointer)
	return Continue
}

func (r *recorder) VisitSkipped(slot *Slot, reason SkipReason) {
	r.skipped[reason] = append(r.skipped[reason], slot.Pointer)
}

func parseFixture(t *testing.T, path string) *model.Document {
	t.Helper()
	res, err := parser.ParseFile(path)
	require.NoError(t, err)
	require.False(t, res.HasErrors(), res.Diagnostics.Items())
	return res.Document
}

func schemaDoc(schemas ...*sequencedmap.Element[string, *model.Schema]) *model.Document {
	doc := model.NewDocument(model.DialectAsyncAPI2)
	doc.Components = model.NewComponents()
	doc.Components.Schemas = sequencedmap.New(schemas...)
	return doc
}

func TestWalk_NilInput(t *testing.T) {
	err := Walk(nil, BaseVisitor{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil document")

	err = Walk(model.NewDocument(model.DialectAsyncAPI2), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil visitor")
}

func TestWalk_AsyncAPI2Order(t *testing.T) {
	doc := parseFixture(t, "../testdata/streetlights-2.6.yaml")
	rec := newRecorder()
	require.NoError(t, Walk(doc, rec))

	measured := "#/channels/smartylighting~1streetlights~11~10~1event~1{streetlightId}~1lighting~1measured"
	turnOn := "#/channels/smartylighting~1streetlights~11~10~1action~1{streetlightId}~1turn~1on"
	assert.Equal(t, []string{measured, turnOn}, rec.channels)
	assert.Equal(t, []string{measured + "/subscribe", turnOn + "/publish"}, rec.operations)
	assert.Equal(t, []string{
		turnOn + "/publish/message",
		"#/components/messages/lightMeasured",
		"#/components/messages/turnOnOff",
		"#/components/messages/dimLight",
	}, rec.messages)
	assert.Contains(t, rec.refs, measured+"/subscribe/message")
	assert.Contains(t, rec.refs, turnOn+"/publish/message/oneOf/1")
	assert.Contains(t, rec.schemas, "#/components/schemas/lightMeasuredPayload/properties/lumens")
	assert.Contains(t, rec.schemas, "#/components/messageTraits/commonHeaders/headers/properties/my-app-header")
	assert.Empty(t, rec.linked)
	assert.Empty(t, rec.skipped)
}

func TestWalk_AsyncAPI3MultiFormatPayload(t *testing.T) {
	src := `asyncapi: 3.0.0
info:
  title: t
  version: '1'
components:
  messages:
    m:
      payload:
        schemaFormat: application/vnd.aai.asyncapi+json;version=3.0.0
        schema:
          type: object
          properties:
            a:
              type: string
`
	res, err := parser.Parse([]byte(src))
	require.NoError(t, err)
	rec := newRecorder()
	require.NoError(t, Walk(res.Document, rec))
	assert.Equal(t, []string{
		"#/components/messages/m/payload/schema",
		"#/components/messages/m/payload/schema/properties/a",
	}, rec.schemas)
}

func TestWalk_SelfReferencingSchema(t *testing.T) {
	node := &model.Schema{Type: []string{"object"}}
	node.Properties = sequencedmap.New(sequencedmap.NewElem("next", node))
	doc := schemaDoc(sequencedmap.NewElem("Node", node))

	rec := newRecorder()
	require.NoError(t, Walk(doc, rec))

	assert.Equal(t, []string{
		"#/components/schemas/Node",
		"#/components/schemas/Node/properties/next",
	}, rec.schemas, "the callback fires once per encounter")
	assert.Equal(t, []string{"#/components/schemas/Node/properties/next"}, rec.skipped[SkipCycle])
}

func TestWalk_MutualCycle(t *testing.T) {
	a := &model.Schema{}
	b := &model.Schema{AllOf: []*model.Schema{a}}
	a.Items = b
	doc := schemaDoc(sequencedmap.NewElem("A", a), sequencedmap.NewElem("B", b))

	rec := newRecorder()
	require.NoError(t, Walk(doc, rec))
	assert.Equal(t, []string{
		"#/components/schemas/A/items/allOf/0",
		"#/components/schemas/B/allOf/0/items",
	}, rec.skipped[SkipCycle])
}

func TestWalk_MaxDepth(t *testing.T) {
	leaf := &model.Schema{}
	mid := &model.Schema{Items: leaf}
	top := &model.Schema{Items: mid}
	doc := schemaDoc(sequencedmap.NewElem("Top", top))

	rec := newRecorder()
	require.NoError(t, Walk(doc, rec, WithMaxDepth(1)))
	assert.Equal(t, []string{
		"#/components/schemas/Top",
		"#/components/schemas/Top/items",
	}, rec.schemas)
	assert.Equal(t, []string{"#/components/schemas/Top/items/items"}, rec.skipped[SkipDepth])
}

func TestWalk_Actions(t *testing.T) {
	doc := parseFixture(t, "../testdata/streetlights-2.6.yaml")

	t.Run("Stop", func(t *testing.T) {
		rec := newRecorder()
		rec.onSchema = func(*Slot, *model.Schema) Action { return Stop }
		require.NoError(t, Walk(doc, rec))
		assert.Len(t, rec.schemas, 1)
		assert.Len(t, rec.messages, 1, "nothing is visited after a stop")
	})

	t.Run("SkipChildren", func(t *testing.T) {
		rec := newRecorder()
		rec.onSchema = func(*Slot, *model.Schema) Action { return SkipChildren }
		require.NoError(t, Walk(doc, rec))
		for _, p := range rec.schemas {
			assert.NotContains(t, p, "/properties/")
		}
	})
}

func TestWalk_ContextCancelled(t *testing.T) {
	doc := parseFixture(t, "../testdata/streetlights-2.6.yaml")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := newRecorder()
	err := Walk(doc, rec, WithContext(ctx))
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.channels)
}

func TestWalk_WithoutComponents(t *testing.T) {
	doc := parseFixture(t, "../testdata/streetlights-2.6.yaml")
	rec := newRecorder()
	require.NoError(t, Walk(doc, rec, WithComponents(false)))
	assert.Len(t, rec.channels, 2)
	for _, p := range append(rec.schemas, rec.messages...) {
		assert.NotContains(t, p, "#/components/")
	}
}

func TestSlot_SetAndLinked(t *testing.T) {
	target := &model.Schema{Type: []string{"string"}}
	target.Location = "#/components/schemas/Target"
	placeholder := model.Placeholder[model.Schema](model.ParseRef("#/components/schemas/Target"))
	holder := &model.Schema{}
	holder.Location = "#/components/schemas/Holder"
	holder.Properties = sequencedmap.New(
		sequencedmap.NewElem("first", placeholder),
		sequencedmap.NewElem("second", &model.Schema{}),
	)
	doc := schemaDoc(
		sequencedmap.NewElem("Holder", holder),
		sequencedmap.NewElem("Target", target),
	)

	var setter setVisitor
	setter.target = target
	require.NoError(t, Walk(doc, &setter))
	assert.Equal(t, []string{"#/components/schemas/Holder/properties/first"}, setter.pointers)

	got, _ := holder.Properties.Get("first")
	assert.Same(t, target, got)
	assert.Equal(t, []string{"first", "second"}, keys(holder.Properties))

	rec := newRecorder()
	require.NoError(t, Walk(doc, rec))
	assert.Empty(t, rec.refs)
	assert.Equal(t, []string{"#/components/schemas/Holder/properties/first"}, rec.linked)
	assert.Equal(t, 1, count(rec.schemas, "#/components/schemas/Target"))
}

func TestSlot_SetRejectsWrongType(t *testing.T) {
	var field *model.Schema
	slot := fieldSlot(fieldPointer, model.RefKindSchema, &field)
	assert.Nil(t, slot.Value())
	assert.False(t, slot.Set(&model.Message{}))
	assert.False(t, slot.Set(nil))
	assert.True(t, slot.Set(&model.Schema{}))
	assert.NotNil(t, field)
	assert.Nil(t, slot.Reference())
}

func TestSlot_EntrySetInPlace(t *testing.T) {
	m := sequencedmap.New(
		sequencedmap.NewElem("a", &model.Schema{Title: "a"}),
		sequencedmap.NewElem("b", &model.Schema{Title: "b"}),
		sequencedmap.NewElem("c", &model.Schema{Title: "c"}),
	)
	first := m.At(0)

	replacement := &model.Schema{Title: "resolved"}
	slot := entrySlot(fieldPointer, model.RefKindSchema, m, "a")
	require.True(t, slot.Set(replacement))

	assert.Same(t, first, m.At(0), "the entry is updated without rebuilding the table")
	assert.Same(t, replacement, slot.Value())
	assert.Equal(t, []string{"a", "b", "c"}, keys(m))
	assert.Equal(t, 3, m.Len())
}

func TestWalkElement(t *testing.T) {
	s := &model.Schema{Properties: sequencedmap.New(sequencedmap.NewElem("id", &model.Schema{}))}
	rec := newRecorder()
	require.NoError(t, WalkElement(s, "#/Order", rec))
	assert.Equal(t, []string{"#/Order", "#/Order/properties/id"}, rec.schemas)

	require.Error(t, WalkElement(nil, "#/", rec))
}

func TestAction_String(t *testing.T) {
	assert.Equal(t, "Continue", Continue.String())
	assert.Equal(t, "SkipChildren", SkipChildren.String())
	assert.Equal(t, "Stop", Stop.String())
	assert.Equal(t, "Action(7)", Action(7).String())
	assert.False(t, Action(7).IsValid())
	assert.True(t, Stop.IsValid())
}

const fieldPointer = "#/components/schemas/x"

type setVisitor struct {
	BaseVisitor
	target   *model.Schema
	pointers []string
}

func (v *setVisitor) VisitReference(slot *Slot) Action {
	v.pointers = append(v.pointers, slot.Pointer)
	slot.Set(v.target)
	return Continue
}

func keys[V any](m *sequencedmap.Map[string, V]) []string {
	var out []string
	for k := range m.Keys() {
		out = append(out, k)
	}
	return out
}

func count(list []string, s string) int {
	n := 0
	for _, v := range list {
		if v == s {
			n++
		}
	}
	return n
}
