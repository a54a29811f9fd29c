// Package snapshot persists an analysed makefile (document and influence
// graph) in a compact binary form so later runs can diff against it.
//
// Layout: MAGIC(4) | HEADER_LEN(4) | BODY_LEN(8) | HEADER | BODY
//
// HEADER and BODY are CBOR. The body is encoded deterministically, so its
// BLAKE2b-256 digest identifies the analysis: the same makefile always gives
// the same digest regardless of when or where it was written.
package snapshot

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/mod/semver"

	"github.com/aledsdavies/makeprof/core/invariant"
	"github.com/aledsdavies/makeprof/pkgs/ast"
	"github.com/aledsdavies/makeprof/pkgs/graph"
)

const (
	// Magic is the file magic number "MKPF" (4 bytes)
	Magic = "MKPF"

	// FormatVersion is the snapshot format version. Readers accept any
	// version with the same major.
	FormatVersion = "v1.0.0"

	preambleLen  = 16
	maxHeaderLen = 64 * 1024
	maxBodyLen   = 256 * 1024 * 1024
)

// Header is snapshot metadata. It is not part of the digest.
type Header struct {
	FormatVersion string `cbor:"1,keyasint"`
	Source        string `cbor:"2,keyasint"` // makefile path, "-" for stdin
	CreatedAt     int64  `cbor:"3,keyasint"` // unix seconds
}

// Snapshot is one persisted analysis
type Snapshot struct {
	Header   Header
	Document *ast.Document
	Graph    *graph.Graph
}

// New creates a snapshot of doc and g stamped with the current time
func New(source string, doc *ast.Document, g *graph.Graph) *Snapshot {
	return &Snapshot{
		Header: Header{
			FormatVersion: FormatVersion,
			Source:        source,
			CreatedAt:     time.Now().Unix(),
		},
		Document: doc,
		Graph:    g,
	}
}

// Digest returns the BLAKE2b-256 hash of the canonical body without writing
// anything
func Digest(doc *ast.Document, g *graph.Graph) ([32]byte, error) {
	invariant.NotNil(doc, "doc")
	invariant.NotNil(g, "graph")

	body, err := canonicalize(doc, g).marshal()
	if err != nil {
		return [32]byte{}, err
	}
	return blake2b.Sum256(body), nil
}

// Write writes snap to w and returns the digest of its body
func Write(w io.Writer, snap *Snapshot) ([32]byte, error) {
	invariant.NotNil(snap, "snapshot")
	invariant.NotNil(snap.Document, "snapshot document")
	invariant.NotNil(snap.Graph, "snapshot graph")

	header, err := encMode.Marshal(snap.Header)
	if err != nil {
		return [32]byte{}, fmt.Errorf("encode header: %w", err)
	}
	body, err := canonicalize(snap.Document, snap.Graph).marshal()
	if err != nil {
		return [32]byte{}, fmt.Errorf("encode body: %w", err)
	}

	var buf bytes.Buffer
	buf.Grow(preambleLen + len(header) + len(body))
	buf.WriteString(Magic)
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(header)))
	_ = binary.Write(&buf, binary.LittleEndian, uint64(len(body)))
	buf.Write(header)
	buf.Write(body)

	if _, err := w.Write(buf.Bytes()); err != nil {
		return [32]byte{}, fmt.Errorf("write snapshot: %w", err)
	}
	return blake2b.Sum256(body), nil
}

// Read reads a snapshot from r and returns it with the digest of its body
func Read(r io.Reader) (*Snapshot, [32]byte, error) {
	var preamble [preambleLen]byte
	if _, err := io.ReadFull(r, preamble[:]); err != nil {
		return nil, [32]byte{}, fmt.Errorf("read preamble: %w", err)
	}

	if magic := string(preamble[0:4]); magic != Magic {
		return nil, [32]byte{}, fmt.Errorf("invalid magic: got %q, expected %q", magic, Magic)
	}

	headerLen := binary.LittleEndian.Uint32(preamble[4:8])
	bodyLen := binary.LittleEndian.Uint64(preamble[8:16])
	if headerLen > maxHeaderLen {
		return nil, [32]byte{}, fmt.Errorf("header length %d exceeds maximum %d", headerLen, maxHeaderLen)
	}
	if bodyLen > maxBodyLen {
		return nil, [32]byte{}, fmt.Errorf("body length %d exceeds maximum %d", bodyLen, maxBodyLen)
	}

	headerBytes := make([]byte, headerLen)
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		return nil, [32]byte{}, fmt.Errorf("read header: %w", err)
	}
	var header Header
	if err := cbor.Unmarshal(headerBytes, &header); err != nil {
		return nil, [32]byte{}, fmt.Errorf("decode header: %w", err)
	}
	if err := checkVersion(header.FormatVersion); err != nil {
		return nil, [32]byte{}, err
	}

	bodyBytes := make([]byte, bodyLen)
	if _, err := io.ReadFull(r, bodyBytes); err != nil {
		return nil, [32]byte{}, fmt.Errorf("read body: %w", err)
	}
	var body canonicalBody
	if err := cbor.Unmarshal(bodyBytes, &body); err != nil {
		return nil, [32]byte{}, fmt.Errorf("decode body: %w", err)
	}

	doc, g, err := body.restore()
	if err != nil {
		return nil, [32]byte{}, fmt.Errorf("restore body: %w", err)
	}

	return &Snapshot{Header: header, Document: doc, Graph: g}, blake2b.Sum256(bodyBytes), nil
}

// checkVersion accepts any valid version sharing FormatVersion's major
func checkVersion(v string) error {
	if !semver.IsValid(v) {
		return fmt.Errorf("invalid format version %q", v)
	}
	if semver.Major(v) != semver.Major(FormatVersion) {
		return fmt.Errorf("unsupported format version %s (reader supports %s.x)", v, semver.Major(FormatVersion))
	}
	return nil
}
