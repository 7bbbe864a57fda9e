package core_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/aledsdavies/configx/core"
)

func TestValueConstructorsAndNative(t *testing.T) {
	cases := []struct {
		name string
		v    core.Value
		want interface{}
	}{
		{"bool", core.Bool(true), true},
		{"int", core.Int(42), int64(42)},
		{"float", core.Float(3.5), 3.5},
		{"string", core.Str("hi"), "hi"},
		{"null", core.Null(), nil},
		{"list", core.List([]core.Value{core.Int(1), core.Str("a")}), []interface{}{int64(1), "a"}},
		{"empty list", core.List(nil), []interface{}{}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.v.Native())
		})
	}
}

func TestNullIsAbsent(t *testing.T) {
	assert.True(t, core.Null().IsAbsent())
	assert.True(t, core.Value{}.IsAbsent())
	assert.False(t, core.Int(0).IsAbsent())
}

func TestValueEqual(t *testing.T) {
	a := core.List([]core.Value{core.Int(1), core.Str("x")})
	b := core.List([]core.Value{core.Int(1), core.Str("x")})
	c := core.List([]core.Value{core.Int(1), core.Str("y")})

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.Empty(t, cmp.Diff(a, b))
}

func TestValueEqualNaN(t *testing.T) {
	a := core.Float(math.NaN())
	b := core.Float(math.NaN())
	assert.True(t, a.Equal(b), "NaN should compare equal to NaN for structural round-trip purposes")
}

func TestTagMatchesWireByte(t *testing.T) {
	assert.Equal(t, byte('N'), byte(core.TagAbsent))
	assert.Equal(t, byte('B'), byte(core.TagBool))
	assert.Equal(t, byte('I'), byte(core.TagInt))
	assert.Equal(t, byte('F'), byte(core.TagFloat))
	assert.Equal(t, byte('S'), byte(core.TagString))
	assert.Equal(t, byte('L'), byte(core.TagList))
}
