// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package persist

import (
	"encoding/binary"

	"github.com/samber/oops"
)

// Magic starts every encoded tree.
const Magic = "ICv1"

// nodeHeaderSize is type, count, unique id, action id, serial and child count.
const nodeHeaderSize = 2 + 1 + 2 + 2 + 16 + 4

// Encode serializes the tree rooted at n. Integers are little endian.
//
//	magic "ICv1"
//	node: u16 type | u8 count | u16 unique id | u16 action id |
//	      [16]byte serial | u32 child count | child nodes...
func Encode(n Node) []byte {
	buf := make([]byte, 0, len(Magic)+n.Len()*nodeHeaderSize)
	buf = append(buf, Magic...)
	return appendNode(buf, n)
}

func appendNode(buf []byte, n Node) []byte {
	buf = binary.LittleEndian.AppendUint16(buf, n.TypeID)
	buf = append(buf, n.Count)
	buf = binary.LittleEndian.AppendUint16(buf, n.UniqueID)
	buf = binary.LittleEndian.AppendUint16(buf, n.ActionID)
	buf = append(buf, n.Serial[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(n.Children)))
	for _, c := range n.Children {
		buf = appendNode(buf, c)
	}
	return buf
}

// Decode parses a tree produced by Encode.
func Decode(data []byte) (Node, error) {
	if len(data) < len(Magic) || string(data[:len(Magic)]) != Magic {
		return Node{}, oops.Code(CodeBadMagic).Errorf("not an encoded item tree")
	}
	d := decoder{buf: data[len(Magic):]}
	n, err := d.node(0)
	if err != nil {
		return Node{}, err
	}
	if len(d.buf) > 0 {
		return Node{}, oops.Code(CodeTrailingBytes).With("trailing", len(d.buf)).Errorf("unexpected data after item tree")
	}
	return n, nil
}

type decoder struct {
	buf    []byte
	offset int
}

func (d *decoder) node(depth int) (Node, error) {
	if depth >= MaxDepth {
		return Node{}, oops.Code(CodeTooDeep).With("max_depth", MaxDepth).Errorf("item tree is too deep")
	}
	if len(d.buf) < nodeHeaderSize {
		return Node{}, d.truncated()
	}
	var n Node
	b := d.buf
	n.TypeID = binary.LittleEndian.Uint16(b[0:])
	n.Count = b[2]
	n.UniqueID = binary.LittleEndian.Uint16(b[3:])
	n.ActionID = binary.LittleEndian.Uint16(b[5:])
	copy(n.Serial[:], b[7:23])
	children := binary.LittleEndian.Uint32(b[23:])
	d.advance(nodeHeaderSize)

	// Every child needs at least a header; reject counts the input cannot hold.
	if uint64(children)*nodeHeaderSize > uint64(len(d.buf)) {
		return Node{}, d.truncated()
	}
	if children > 0 {
		n.Children = make([]Node, children)
		for i := range n.Children {
			c, err := d.node(depth + 1)
			if err != nil {
				return Node{}, err
			}
			n.Children[i] = c
		}
	}
	return n, nil
}

func (d *decoder) advance(k int) {
	d.buf = d.buf[k:]
	d.offset += k
}

func (d *decoder) truncated() error {
	return oops.Code(CodeTruncated).With("offset", d.offset+len(Magic)).Errorf("item tree is truncated")
}
