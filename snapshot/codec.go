// Package snapshot implements configx's binary snapshot codec: a
// self-describing, magic+version-headed serialization of an entire
// configx.Tree.
//
// Encoding buffers a node's bytes before writing so a partial failure
// never leaves a half-written record on disk, and decoding uses
// io.ReadFull plus explicit max-length guards against a truncated or
// adversarial length prefix, with an explicit recursion-depth guard so
// a pathological nesting depth fails cleanly instead of overflowing
// the stack.
package snapshot

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/aledsdavies/configx/core"
)

const (
	Magic   = "CFGX"
	Version = byte(1)

	// MaxTreeDepth bounds recursive node/list nesting to guard against
	// stack overflow on pathological input.
	MaxTreeDepth = 1024

	// maxNameLen and maxValueLen are defensive upper bounds against a
	// corrupt or adversarial length prefix causing an unbounded
	// allocation.
	maxNameLen  = 1 << 20  // 1 MiB
	maxValueLen = 64 << 20 // 64 MiB
	maxChildren = 1 << 24  // 16M children per node
)

// Save writes tree's entire contents to file_path, creating any missing
// parent directories first.
func Save(tree *core.Tree, filePath string) error {
	dir := filepath.Dir(filePath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return core.NewIOError(fmt.Sprintf("create snapshot directory %q", dir), err)
		}
	}

	f, err := os.Create(filePath)
	if err != nil {
		return core.NewIOError(fmt.Sprintf("create snapshot file %q", filePath), err)
	}
	defer f.Close()

	if err := WriteTo(f, tree); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return core.NewIOError(fmt.Sprintf("sync snapshot file %q", filePath), err)
	}
	return nil
}

// WriteTo serializes tree to w (header + recursive root node).
func WriteTo(w io.Writer, tree *core.Tree) error {
	var buf bytes.Buffer
	buf.WriteString(Magic)
	buf.WriteByte(Version)
	if err := writeNode(&buf, tree.Root()); err != nil {
		return err
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return core.NewIOError("write snapshot", err)
	}
	return nil
}

// Load replaces tree's contents with the snapshot stored at filePath.
// Load fails with PathNotFound if the file does not exist.
func Load(tree *core.Tree, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return core.NewPathNotFound(filePath, "")
		}
		return core.NewIOError(fmt.Sprintf("open snapshot file %q", filePath), err)
	}
	defer f.Close()

	root, err := ReadFrom(f)
	if err != nil {
		return err
	}
	tree.SetRoot(root)
	return nil
}

// ReadFrom deserializes a snapshot (header + root node) from r.
func ReadFrom(r io.Reader) (*core.Node, error) {
	if err := readHeader(r); err != nil {
		return nil, err
	}
	return readNode(r, 0)
}

func readHeader(r io.Reader) error {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return core.NewInvalidFormat("truncated snapshot header").WithContext("cause", err.Error())
	}
	if string(magic[:]) != Magic {
		return core.NewInvalidFormat(fmt.Sprintf("invalid snapshot magic %q, expected %q", magic, Magic))
	}

	var version [1]byte
	if _, err := io.ReadFull(r, version[:]); err != nil {
		return core.NewInvalidFormat("truncated snapshot version")
	}
	if version[0] != Version {
		return core.NewInvalidFormat(fmt.Sprintf("unsupported snapshot version %d", version[0])).
			WithContext("version", int(version[0]))
	}
	return nil
}

// ---------------------------------------------------------------------
// Writing
// ---------------------------------------------------------------------

func writeNode(buf *bytes.Buffer, node *core.Node) error {
	nameBytes := []byte(node.Name())
	writeU32(buf, uint32(len(nameBytes)))
	buf.Write(nameBytes)

	value := core.Null()
	if node.IsLeaf() {
		value = node.Value()
	}
	if err := writeValue(buf, value); err != nil {
		return err
	}

	children := node.Children()
	writeU32(buf, uint32(len(children)))
	for _, child := range children {
		if err := writeNode(buf, child); err != nil {
			return err
		}
	}
	return nil
}

func writeValue(buf *bytes.Buffer, v core.Value) error {
	payload, err := encodeValuePayload(v)
	if err != nil {
		return err
	}
	buf.WriteByte(byte(v.Tag))
	writeU32(buf, uint32(len(payload)))
	buf.Write(payload)
	return nil
}

func encodeValuePayload(v core.Value) ([]byte, error) {
	switch v.Tag {
	case core.TagAbsent:
		return nil, nil
	case core.TagBool:
		if v.B {
			return []byte{0x01}, nil
		}
		return []byte{0x00}, nil
	case core.TagInt:
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, uint64(v.I))
		return b, nil
	case core.TagFloat:
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, math.Float64bits(v.F))
		return b, nil
	case core.TagString:
		return []byte(v.S), nil
	case core.TagList:
		var inner bytes.Buffer
		for _, item := range v.List {
			if err := writeValue(&inner, item); err != nil {
				return nil, err
			}
		}
		return inner.Bytes(), nil
	default:
		return nil, core.NewInvalidFormat(fmt.Sprintf("unsupported value tag %q", byte(v.Tag)))
	}
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

// ---------------------------------------------------------------------
// Reading
// ---------------------------------------------------------------------

func readU32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func readNode(r io.Reader, depth int) (*core.Node, error) {
	if depth > MaxTreeDepth {
		return nil, core.NewInvalidFormat(fmt.Sprintf("tree depth exceeds maximum of %d", MaxTreeDepth))
	}

	nameLen, err := readU32(r)
	if err != nil {
		return nil, core.NewInvalidFormat("truncated node name length")
	}
	if nameLen > maxNameLen {
		return nil, core.NewInvalidFormat(fmt.Sprintf("node name length %d exceeds maximum %d", nameLen, maxNameLen))
	}
	nameBytes := make([]byte, nameLen)
	if _, err := io.ReadFull(r, nameBytes); err != nil {
		return nil, core.NewInvalidFormat("truncated node name")
	}
	if !utf8.Valid(nameBytes) {
		return nil, core.NewInvalidFormat("node name is not valid UTF-8")
	}
	name := string(nameBytes)

	value, err := readValue(r, depth)
	if err != nil {
		return nil, err
	}

	childCount, err := readU32(r)
	if err != nil {
		return nil, core.NewInvalidFormat(fmt.Sprintf("truncated child count for node %q", name))
	}
	if childCount > maxChildren {
		return nil, core.NewInvalidFormat(fmt.Sprintf("child count %d for node %q exceeds maximum %d", childCount, name, maxChildren))
	}

	if !value.IsAbsent() && childCount > 0 {
		return nil, core.NewInvalidFormat(fmt.Sprintf("leaf node %q declares %d children", name, childCount))
	}

	node := core.NewNode(name)
	switch {
	case !value.IsAbsent():
		node.SetLeaf(value)
	case childCount == 0 && depth > 0:
		// Tag 'N' with zero children below the root: a null leaf —
		// distinguishable in memory via Node.IsLeaf even though the
		// on-disk tag is shared with "interior". The root always stays
		// interior, even when it has no children.
		node.SetLeaf(core.Null())
	}

	for i := uint32(0); i < childCount; i++ {
		child, err := readNode(r, depth+1)
		if err != nil {
			return nil, err
		}
		node.AttachChild(child, true)
	}

	return node, nil
}

func readValue(r io.Reader, depth int) (core.Value, error) {
	var tagByte [1]byte
	if _, err := io.ReadFull(r, tagByte[:]); err != nil {
		return core.Value{}, core.NewInvalidFormat("truncated value tag")
	}
	tag := core.Tag(tagByte[0])

	valLen, err := readU32(r)
	if err != nil {
		return core.Value{}, core.NewInvalidFormat("truncated value length")
	}
	if valLen > maxValueLen {
		return core.Value{}, core.NewInvalidFormat(fmt.Sprintf("value length %d exceeds maximum %d", valLen, maxValueLen))
	}
	payload := make([]byte, valLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return core.Value{}, core.NewInvalidFormat("truncated value payload")
	}

	return decodeValue(tag, payload, depth)
}

func decodeValue(tag core.Tag, payload []byte, depth int) (core.Value, error) {
	switch tag {
	case core.TagAbsent:
		if len(payload) != 0 {
			return core.Value{}, core.NewInvalidFormat("absent value must have zero-length payload")
		}
		return core.Value{Tag: core.TagAbsent}, nil

	case core.TagBool:
		if len(payload) != 1 {
			return core.Value{}, core.NewInvalidFormat(fmt.Sprintf("bool value must be 1 byte, got %d", len(payload)))
		}
		return core.Bool(payload[0] != 0), nil

	case core.TagInt:
		if len(payload) != 8 {
			return core.Value{}, core.NewInvalidFormat(fmt.Sprintf("int value must be 8 bytes, got %d", len(payload)))
		}
		return core.Int(int64(binary.BigEndian.Uint64(payload))), nil

	case core.TagFloat:
		if len(payload) != 8 {
			return core.Value{}, core.NewInvalidFormat(fmt.Sprintf("float value must be 8 bytes, got %d", len(payload)))
		}
		return core.Float(math.Float64frombits(binary.BigEndian.Uint64(payload))), nil

	case core.TagString:
		if !utf8.Valid(payload) {
			return core.Value{}, core.NewInvalidFormat("string value is not valid UTF-8")
		}
		return core.Str(string(payload)), nil

	case core.TagList:
		if depth+1 > MaxTreeDepth {
			return core.Value{}, core.NewInvalidFormat(fmt.Sprintf("list nesting exceeds maximum depth of %d", MaxTreeDepth))
		}
		sub := bytes.NewReader(payload)
		var items []core.Value
		for sub.Len() > 0 {
			item, err := readValue(sub, depth+1)
			if err != nil {
				return core.Value{}, err
			}
			items = append(items, item)
		}
		return core.List(items), nil

	default:
		return core.Value{}, core.NewInvalidFormat(fmt.Sprintf("unknown value tag %q", byte(tag)))
	}
}
