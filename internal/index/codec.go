package index

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
)

// OpenByte is the first byte of every encoded index.
const OpenByte = '{'

var api = jsoniter.ConfigCompatibleWithStandardLibrary

// Encode serializes t to its canonical text form.
func Encode(t Tree) ([]byte, error) {
	var buf bytes.Buffer
	s := jsoniter.NewStream(api, &buf, 4096)
	if err := writeTree(s, t); err != nil {
		return nil, err
	}
	if s.Error != nil {
		return nil, fmt.Errorf("encode index: %w", s.Error)
	}
	if err := s.Flush(); err != nil {
		return nil, fmt.Errorf("encode index: %w", err)
	}
	return buf.Bytes(), nil
}

func writeTree(s *jsoniter.Stream, t Tree) error {
	s.WriteObjectStart()
	for i, n := range t {
		if i > 0 {
			s.WriteMore()
		}
		s.WriteObjectField(n.Label)
		switch c := n.Content.(type) {
		case nil, Absent:
			s.WriteNil()
		case Range:
			s.WriteArrayStart()
			s.WriteUint64(c.Start)
			s.WriteMore()
			s.WriteUint64(c.End)
			s.WriteArrayEnd()
		case Tree:
			if err := writeTree(s, c); err != nil {
				return err
			}
		default:
			return fmt.Errorf("encode index: %q: unknown content %T", n.Label, c)
		}
	}
	s.WriteObjectEnd()
	return nil
}

// Decode parses the canonical text form produced by Encode.
//
// The input must hold exactly one object; anything but whitespace after it
// is an error. Decode checks the grammar and range ordering but not labels;
// use Tree.Validate for that.
func Decode(data []byte) (Tree, error) {
	if len(data) == 0 || data[0] != OpenByte {
		return nil, errors.New("decode index: expected object")
	}

	iter := jsoniter.ParseBytes(api, data)
	raw := iter.SkipAndReturnBytes()
	if iter.Error != nil && !errors.Is(iter.Error, io.EOF) {
		return nil, fmt.Errorf("decode index: %w", iter.Error)
	}
	if len(raw) == 0 || raw[len(raw)-1] != '}' {
		return nil, errors.New("decode index: incomplete object")
	}
	if len(bytes.TrimSpace(data[len(raw):])) != 0 {
		return nil, fmt.Errorf("decode index: %d trailing bytes", len(data)-len(raw))
	}

	iter = jsoniter.ParseBytes(api, raw)
	t := readTree(iter)
	if iter.Error != nil && !errors.Is(iter.Error, io.EOF) {
		return nil, fmt.Errorf("decode index: %w", iter.Error)
	}
	return t, nil
}

func readTree(iter *jsoniter.Iterator) Tree {
	t := Tree{}
	iter.ReadObjectCB(func(iter *jsoniter.Iterator, label string) bool {
		n := Node{Label: label}
		switch iter.WhatIsNext() {
		case jsoniter.ObjectValue:
			n.Content = readTree(iter)
		case jsoniter.ArrayValue:
			r, ok := readRange(iter)
			if !ok {
				return false
			}
			n.Content = r
		case jsoniter.NilValue:
			iter.ReadNil()
			n.Content = Absent{}
		default:
			iter.ReportError("read node", fmt.Sprintf("unexpected value for %q", label))
			return false
		}
		if iter.Error != nil {
			return false
		}
		t = append(t, n)
		return true
	})
	return t
}

func readRange(iter *jsoniter.Iterator) (Range, bool) {
	var bounds [2]uint64
	i := 0
	ok := iter.ReadArrayCB(func(iter *jsoniter.Iterator) bool {
		if i == len(bounds) {
			iter.ReportError("read range", "range must contain 2 offsets")
			return false
		}
		bounds[i] = iter.ReadUint64()
		i++
		return iter.Error == nil
	})
	if !ok || iter.Error != nil {
		return Range{}, false
	}
	if i != len(bounds) {
		iter.ReportError("read range", "range must contain 2 offsets")
		return Range{}, false
	}
	if bounds[0] > bounds[1] {
		iter.ReportError("read range", fmt.Sprintf("start %d after end %d", bounds[0], bounds[1]))
		return Range{}, false
	}
	return Range{Start: bounds[0], End: bounds[1]}, true
}
