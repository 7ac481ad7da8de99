package pagecontext

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formassist-backend/internal/models"
)

const formPage = `<html><body><form>
  <input id="email" type="email">
  <input id="agree" type="checkbox">
  <input id="plan-a" type="radio" name="plan" value="a" checked>
  <input id="plan-b" type="radio" name="plan" value="b">
  <textarea id="bio"></textarea>
  <select id="size"><option value="s" selected>S</option><option value="m">M</option><option>L</option></select>
  <input id="meta">
</form></body></html>`

func newDoc(t *testing.T, html string) *Document {
	t.Helper()
	doc, err := NewDocument(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestApply_SetsValueAndFiresEventsOnce(t *testing.T) {
	doc := newDoc(t, formPage)
	plan := BuildPlan(
		models.FieldMapping{"email": "a@b.com"},
		[]models.TargetField{{Name: "email", Type: models.FieldTypeText, Selector: "#email"}},
	)

	report := Apply(doc, plan)

	assert.Equal(t, []string{"email"}, report.Applied)
	assert.Empty(t, report.Skipped)
	v, _ := doc.Find("#email").Attr("value")
	assert.Equal(t, "a@b.com", v)
	assert.Equal(t, []DispatchedEvent{
		{Selector: "#email", Event: "change"},
		{Selector: "#email", Event: "input"},
	}, doc.Events())
}

func TestApply_ControlKinds(t *testing.T) {
	doc := newDoc(t, formPage)
	targets := []models.TargetField{
		{Name: "agree", Selector: "#agree"},
		{Name: "plan", Selector: "#plan-b"},
		{Name: "bio", Selector: "#bio"},
		{Name: "size", Selector: "#size"},
		{Name: "meta", Type: models.FieldTypeJSON, Selector: "#meta"},
		{Name: "gone", Selector: "#does-not-exist"},
	}
	data := models.FieldMapping{
		"agree": "yes",
		"plan":  true,
		"bio":   "Hello there",
		"size":  "L",
		"meta":  map[string]any{"a": json.Number("1")},
		"gone":  "x",
		"extra": "no target",
	}

	report := Apply(doc, BuildPlan(data, targets))

	assert.Equal(t, []string{"agree", "bio", "meta", "plan", "size"}, report.Applied)
	assert.Equal(t, []string{"gone"}, report.Skipped)

	_, checked := doc.Find("#agree").Attr("checked")
	assert.True(t, checked)
	_, checked = doc.Find("#plan-b").Attr("checked")
	assert.True(t, checked)
	_, checked = doc.Find("#plan-a").Attr("checked")
	assert.False(t, checked, "other radios in the group are cleared")

	assert.Equal(t, "Hello there", doc.Find("#bio").Text())

	_, sSelected := doc.Find(`#size option[value="s"]`).Attr("selected")
	assert.False(t, sSelected)
	_, lSelected := doc.Find("#size option").Last().Attr("selected")
	assert.True(t, lSelected)

	meta, _ := doc.Find("#meta").Attr("value")
	assert.Equal(t, `{"a":1}`, meta)

	assert.Len(t, doc.Events(), 2*len(report.Applied))
}

func TestApply_UncheckOnFalsyValue(t *testing.T) {
	doc := newDoc(t, `<input id="c" type="checkbox" checked>`)
	Apply(doc, BuildPlan(models.FieldMapping{"c": ""}, []models.TargetField{{Name: "c", Selector: "#c"}}))

	_, checked := doc.Find("#c").Attr("checked")
	assert.False(t, checked)
}

func TestApply_NullChecksCheckbox(t *testing.T) {
	doc := newDoc(t, `<input id="agree" type="checkbox">`)
	Apply(doc, BuildPlan(models.FieldMapping{"agree": nil}, []models.TargetField{{Name: "agree", Selector: "#agree"}}))

	_, checked := doc.Find("#agree").Attr("checked")
	assert.True(t, checked)
}

func TestBuildPlan(t *testing.T) {
	targets := []models.TargetField{
		{Name: "b", Selector: "#b"},
		{Name: "a", Selector: "#a"},
		{Name: "noselector"},
	}
	plan := BuildPlan(models.FieldMapping{"b": json.Number("0"), "a": nil, "noselector": "x", "z": "x"}, targets)

	require.Len(t, plan, 2)
	assert.Equal(t, Action{Field: "a", Selector: "#a", Value: "null", Checked: true, Events: []string{"change", "input"}}, plan[0])
	assert.Equal(t, Action{Field: "b", Selector: "#b", Value: "0", Checked: false, Events: []string{"change", "input"}}, plan[1])

	assert.Empty(t, BuildPlan(nil, targets))
}

func TestDocument_HTMLReflectsWrites(t *testing.T) {
	doc := newDoc(t, formPage)
	Apply(doc, BuildPlan(models.FieldMapping{"email": "x@y.z"}, []models.TargetField{{Name: "email", Selector: "#email"}}))

	html, err := doc.HTML()
	require.NoError(t, err)
	assert.Contains(t, html, `value="x@y.z"`)
}

func TestDocument_Context(t *testing.T) {
	doc := newDoc(t, signupPage)
	assert.Equal(t, Collect(strings.NewReader(signupPage)), doc.Context())
}
