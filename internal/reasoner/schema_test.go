package reasoner

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ptrMood string

func (*ptrMood) EnumValues() []string { return []string{"CALM", "ANGRY"} }

type address struct {
	City string `json:"city"`
}

type base struct {
	ID int `json:"id"`
}

type profile struct {
	base
	Name     string             `json:"name" description:"Full name"`
	Nickname string             `json:"nickname,omitempty"`
	Age      *int               `json:"age"`
	Tags     []string           `json:"tags"`
	Scores   map[string]float64 `json:"scores"`
	Home     address            `json:"home"`
	Mood     mood               `json:"mood"`
	Secret   string             `json:"-"`
	Raw      []byte             `json:"raw"`
	internal string
}

type node struct {
	Value int   `json:"value"`
	Next  *node `json:"next"`
}

func TestBuildSchema_SingleField(t *testing.T) {
	tests := []struct {
		name string
		typ  reflect.Type
		want map[string]any
	}{
		{"int", reflect.TypeFor[int](), map[string]any{"type": "integer"}},
		{"uint8", reflect.TypeFor[uint8](), map[string]any{"type": "integer"}},
		{"float", reflect.TypeFor[float64](), map[string]any{"type": "number"}},
		{"bool", reflect.TypeFor[bool](), map[string]any{"type": "boolean"}},
		{"string", reflect.TypeFor[string](), map[string]any{"type": "string"}},
		{"pointer", reflect.TypeFor[*int](), map[string]any{"type": "integer"}},
		{"slice", reflect.TypeFor[[]int](), map[string]any{"type": "array", "items": map[string]any{"type": "integer"}}},
		{"bytes", reflect.TypeFor[[]byte](), map[string]any{"type": "string"}},
		{"map", reflect.TypeFor[map[string]bool](), map[string]any{"type": "object", "additionalProperties": map[string]any{"type": "boolean"}}},
		{"enum", reflect.TypeFor[mood](), map[string]any{"type": "string", "enum": []string{"HAPPY", "SAD"}}},
		{"pointer receiver enum", reflect.TypeFor[ptrMood](), map[string]any{"type": "string", "enum": []string{"CALM", "ANGRY"}}},
		{"any", reflect.TypeFor[any](), map[string]any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema := BuildSchema("num", "The value is {num}", tt.typ)

			assert.Equal(t, "remember_num", schema.Name)
			assert.Equal(t, "This function stores a piece of information in the format: 'The value is {num}'.", schema.Description)
			assert.Equal(t, "object", schema.Parameters["type"])
			assert.Equal(t, []string{"num"}, schema.Parameters["required"])

			props := schema.Parameters["properties"].(map[string]any)
			assert.Equal(t, tt.want, props["num"])
		})
	}
}

func TestBuildSchema_Struct(t *testing.T) {
	schema := BuildSchema("profile", "Saved {profile}", reflect.TypeFor[profile]())

	assert.Equal(t, "remember_profile", schema.Name)
	props := schema.Parameters["properties"].(map[string]any)

	for _, name := range []string{"id", "name", "nickname", "age", "tags", "scores", "home", "mood", "raw"} {
		assert.Contains(t, props, name)
	}
	assert.NotContains(t, props, "Secret")
	assert.NotContains(t, props, "-")
	assert.NotContains(t, props, "internal")
	assert.NotContains(t, props, "profile", "struct targets are not wrapped")

	assert.Equal(t, "Full name", props["name"].(map[string]any)["description"])
	assert.Equal(t, []string{"HAPPY", "SAD"}, props["mood"].(map[string]any)["enum"])

	home := props["home"].(map[string]any)
	assert.Equal(t, "object", home["type"])
	assert.Equal(t, []string{"city"}, home["required"])

	required := schema.Parameters["required"].([]string)
	assert.ElementsMatch(t, []string{"id", "name", "tags", "scores", "home", "mood", "raw"}, required)
}

func TestBuildSchema_PointerToStruct(t *testing.T) {
	schema := BuildSchema("home", "Lives in {home}", reflect.TypeFor[*address]())
	props := schema.Parameters["properties"].(map[string]any)
	assert.Contains(t, props, "city")
}

func TestBuildSchema_Recursive(t *testing.T) {
	schema := BuildSchema("list", "{list}", reflect.TypeFor[node]())
	props := schema.Parameters["properties"].(map[string]any)
	require.Contains(t, props, "next")
	assert.Equal(t, map[string]any{"type": "object"}, props["next"])
}

func TestBuildSchema_IsFresh(t *testing.T) {
	a := BuildSchema("age", "{age}", reflect.TypeFor[int]())
	b := BuildSchema("age", "{age}", reflect.TypeFor[int]())

	a.Parameters["type"] = "mutated"
	assert.Equal(t, "object", b.Parameters["type"])
}

func TestIsComposite(t *testing.T) {
	assert.True(t, isComposite(reflect.TypeFor[person]()))
	assert.True(t, isComposite(reflect.TypeFor[*person]()))
	assert.False(t, isComposite(reflect.TypeFor[int]()))
	assert.False(t, isComposite(reflect.TypeFor[mood]()))
	assert.False(t, isComposite(reflect.TypeFor[map[string]any]()))
}
