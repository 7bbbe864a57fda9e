package core

import "fmt"

// Tag discriminates the closed set of value types a leaf may hold, and
// doubles as the on-disk VALUE tag written by the snapshot codec:
// 'N' 'B' 'I' 'F' 'S' 'L'.
type Tag byte

const (
	TagAbsent Tag = 'N' // no value: either a null leaf or an interior node
	TagBool   Tag = 'B'
	TagInt    Tag = 'I'
	TagFloat  Tag = 'F'
	TagString Tag = 'S'
	TagList   Tag = 'L'
)

func (t Tag) String() string {
	switch t {
	case TagAbsent:
		return "absent/null"
	case TagBool:
		return "bool"
	case TagInt:
		return "int"
	case TagFloat:
		return "float"
	case TagString:
		return "string"
	case TagList:
		return "list"
	default:
		return fmt.Sprintf("unknown(%q)", byte(t))
	}
}

// Value is the closed tagged union a leaf node carries: absent/null,
// bool, int64, float64, string, or a list of Values.
//
// The zero Value is the absent value — an interior node's Value field
// is always the zero Value.
type Value struct {
	Tag  Tag
	B    bool
	I    int64
	F    float64
	S    string
	List []Value
}

// IsAbsent reports whether v carries no value (interior-node marker).
// A null leaf also has Tag == TagAbsent; the Node that owns v is what
// distinguishes "interior" from "null leaf" (via Node.IsLeaf), not Value
// itself.
func (v Value) IsAbsent() bool { return v.Tag == TagAbsent || v.Tag == 0 }

func Bool(b bool) Value    { return Value{Tag: TagBool, B: b} }
func Int(i int64) Value    { return Value{Tag: TagInt, I: i} }
func Float(f float64) Value { return Value{Tag: TagFloat, F: f} }
func Str(s string) Value   { return Value{Tag: TagString, S: s} }
func List(items []Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{Tag: TagList, List: items}
}

// Null is the explicit null-literal leaf value.
func Null() Value { return Value{Tag: TagAbsent} }

// Equal reports deep structural equality between two values.
func (v Value) Equal(other Value) bool {
	if v.Tag != other.Tag {
		return false
	}
	switch v.Tag {
	case TagAbsent:
		return true
	case TagBool:
		return v.B == other.B
	case TagInt:
		return v.I == other.I
	case TagFloat:
		return v.F == other.F || (v.F != v.F && other.F != other.F) // NaN == NaN for our purposes
	case TagString:
		return v.S == other.S
	case TagList:
		if len(v.List) != len(other.List) {
			return false
		}
		for i := range v.List {
			if !v.List[i].Equal(other.List[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Native converts a Value into a plain Go value suitable for returning
// to a caller of Store.Resolve: nil, bool, int64, float64, string, or
// []interface{} (recursively).
func (v Value) Native() interface{} {
	switch v.Tag {
	case TagAbsent:
		return nil
	case TagBool:
		return v.B
	case TagInt:
		return v.I
	case TagFloat:
		return v.F
	case TagString:
		return v.S
	case TagList:
		out := make([]interface{}, len(v.List))
		for i, item := range v.List {
			out[i] = item.Native()
		}
		return out
	default:
		return nil
	}
}
