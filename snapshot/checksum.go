package snapshot

import (
	"bytes"

	"golang.org/x/crypto/blake2b"

	"github.com/aledsdavies/configx/core"
)

// Checksum returns a BLAKE2b-256 digest of tree's canonical binary
// encoding (the same bytes WriteTo would produce, header included).
// It is an additive diagnostic — not part of the on-disk snapshot
// format — for callers that want to detect drift between an in-memory
// tree and the last snapshot written to disk without doing a full byte
// comparison.
func Checksum(tree *core.Tree) ([32]byte, error) {
	var buf bytes.Buffer
	if err := WriteTo(&buf, tree); err != nil {
		return [32]byte{}, err
	}
	return blake2b.Sum256(buf.Bytes()), nil
}
