package xlbind

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type patient struct {
	Name   string         `json:"name"`
	Ward   *ward          `json:"ward,omitempty"`
	Scores []int          `json:"scores"`
	Extra  map[string]any `json:"extra"`
	Age    int
	secret string
}

type ward struct {
	Code string `json:"code"`
}

func TestLookup_NestedMaps(t *testing.T) {
	rec := map[string]any{"goals": map[string]any{"short": "Walk", "none": nil}}

	v, ok := Lookup(rec, "goals.short")
	require.True(t, ok)
	assert.Equal(t, "Walk", v)

	v, ok = Lookup(rec, "goals.none")
	assert.True(t, ok, "present nil is defined")
	assert.Nil(t, v)

	_, ok = Lookup(rec, "goals.long")
	assert.False(t, ok)
	_, ok = Lookup(rec, "goals.short.deeper")
	assert.False(t, ok)
	_, ok = Lookup(rec, "")
	assert.False(t, ok)
}

func TestLookup_Structs(t *testing.T) {
	rec := &patient{
		Name:   "Sato",
		Ward:   &ward{Code: "3F"},
		Scores: []int{4, 5},
		Extra:  map[string]any{"note": "ok"},
		Age:    80,
		secret: "x",
	}

	v, ok := Lookup(rec, "ward.code")
	require.True(t, ok)
	assert.Equal(t, "3F", v)

	v, ok = Lookup(rec, "scores.1")
	require.True(t, ok)
	assert.Equal(t, 5, v)

	v, ok = Lookup(rec, "extra.note")
	require.True(t, ok)
	assert.Equal(t, "ok", v)

	v, ok = Lookup(rec, "Age")
	require.True(t, ok)
	assert.Equal(t, 80, v)

	_, ok = Lookup(rec, "secret")
	assert.False(t, ok)
	_, ok = Lookup(rec, "scores.9")
	assert.False(t, ok)
	_, ok = Lookup(&patient{}, "ward.code")
	assert.False(t, ok, "nil pointer segment is missing")
}

func TestLookup_TypedMap(t *testing.T) {
	rec := map[string]map[string]string{"basic": {"gender": "M"}}
	v, ok := Lookup(rec, "basic.gender")
	require.True(t, ok)
	assert.Equal(t, "M", v)
}

func TestIsPlainPath(t *testing.T) {
	assert.True(t, IsPlainPath("goals.short"))
	assert.True(t, IsPlainPath("main_risks_txt"))
	assert.True(t, IsPlainPath("items.0.name"))
	assert.True(t, IsPlainPath("基本.性別"))
	assert.False(t, IsPlainPath(""))
	assert.False(t, IsPlainPath("a..b"))
	assert.False(t, IsPlainPath("a + b"))
	assert.False(t, IsPlainPath(`basic.gender == "M"`))
}
