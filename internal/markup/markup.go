// Package markup is a byte-preserving view of an XML fragment.
//
// A fragment is tokenised into a flat node list where every node keeps the
// exact bytes it was parsed from. Edits replace attribute values or element
// content; serialising an unedited fragment reproduces the input exactly.
// Fragments need not be well formed: unbalanced end tags are kept as-is,
// which lets callers edit arbitrary slices of a larger document.
package markup

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Kind classifies a node.
type Kind int

const (
	Text Kind = iota
	StartTag
	EndTag
	EmptyTag
	// Other covers comments, processing instructions and directives.
	Other
)

var (
	ErrNotElement = errors.New("node is not an element start tag")
	ErrUnclosed   = errors.New("element has no closing tag in fragment")
)

type attr struct {
	name string
	// value span inside Node.raw, quotes excluded
	start, end int
	value      []byte
	set        bool
}

// Node is one token of a fragment.
type Node struct {
	Kind Kind
	// Name is the element name as written, prefix included (e.g. "live:item").
	Name string

	raw   []byte
	attrs []attr

	text    []byte // replacement bytes for Text nodes
	edited  bool
	dropped bool
	content []byte // replacement content emitted after a StartTag
}

// Local returns the element name without its prefix.
func (n *Node) Local() string {
	if i := strings.IndexByte(n.Name, ':'); i >= 0 {
		return n.Name[i+1:]
	}
	return n.Name
}

// IsElement reports whether n opens an element.
func (n *Node) IsElement() bool {
	return n.Kind == StartTag || n.Kind == EmptyTag
}

// Attr returns the escaped value of attribute name as currently set.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.attrs {
		if a.name != name {
			continue
		}
		if a.set {
			return string(a.value), true
		}
		return string(n.raw[a.start:a.end]), true
	}
	return "", false
}

// SetAttr replaces the value of an existing attribute with value, escaped.
// It reports whether the attribute was present.
func (n *Node) SetAttr(name, value string) bool {
	return n.setAttrRaw(name, []byte(Escape(value)))
}

func (n *Node) setAttrRaw(name string, value []byte) bool {
	found := false
	for i := range n.attrs {
		if n.attrs[i].name == name {
			n.attrs[i].value = value
			n.attrs[i].set = true
			n.edited = true
			found = true
		}
	}
	return found
}

// ReplaceAll substitutes every occurrence of old with repl inside the
// node's attribute values (elements) or its text (text nodes). old and repl
// are taken as already-escaped markup. It returns the number of replacements.
func (n *Node) ReplaceAll(old, repl string) int {
	if old == "" {
		return 0
	}
	count := 0
	switch n.Kind {
	case Text:
		cur := n.raw
		if n.text != nil {
			cur = n.text
		}
		if c := bytes.Count(cur, []byte(old)); c > 0 {
			n.text = bytes.ReplaceAll(cur, []byte(old), []byte(repl))
			n.edited = true
			count += c
		}
	case StartTag, EmptyTag:
		for i := range n.attrs {
			a := &n.attrs[i]
			cur := n.raw[a.start:a.end]
			if a.set {
				cur = a.value
			}
			if c := bytes.Count(cur, []byte(old)); c > 0 {
				a.value = bytes.ReplaceAll(cur, []byte(old), []byte(repl))
				a.set = true
				n.edited = true
				count += c
			}
		}
	}
	return count
}

func (n *Node) appendTo(dst []byte) []byte {
	if n.dropped {
		return dst
	}
	switch {
	case !n.edited:
		dst = append(dst, n.raw...)
	case n.Kind == Text:
		dst = append(dst, n.text...)
	default:
		pos := 0
		for _, a := range n.attrs {
			if !a.set {
				continue
			}
			dst = append(dst, n.raw[pos:a.start]...)
			dst = append(dst, a.value...)
			pos = a.end
		}
		dst = append(dst, n.raw[pos:]...)
	}
	if n.content != nil {
		dst = append(dst, n.content...)
	}
	return dst
}

// Fragment is an ordered node list covering every input byte.
type Fragment struct {
	nodes []*Node
}

// Parse tokenises data. It fails only on input the tokenizer cannot read
// (broken tags, bad encoding); structural balance is not checked.
func Parse(data []byte) (*Fragment, error) {
	d := xml.NewDecoder(bytes.NewReader(data))
	d.Strict = false

	f := &Fragment{}
	var prev int64
	for {
		tok, err := d.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("markup: %w", err)
		}
		end := d.InputOffset()

		if _, ok := tok.(xml.EndElement); ok && end == prev {
			// Synthetic close of <x/>: no bytes of its own.
			if last := f.last(); last != nil && last.Kind == StartTag {
				last.Kind = EmptyTag
			}
			continue
		}

		raw := data[prev:end]
		node := &Node{raw: raw}
		switch t := tok.(type) {
		case xml.StartElement:
			node.Kind = StartTag
			node.Name = qualified(t.Name)
			node.attrs = scanAttrs(raw)
		case xml.EndElement:
			node.Kind = EndTag
			node.Name = qualified(t.Name)
		case xml.CharData:
			node.Kind = Text
		default:
			node.Kind = Other
		}
		f.nodes = append(f.nodes, node)
		prev = end
	}

	if int(prev) < len(data) {
		f.nodes = append(f.nodes, &Node{Kind: Text, raw: data[prev:]})
	}
	return f, nil
}

func (f *Fragment) last() *Node {
	if len(f.nodes) == 0 {
		return nil
	}
	return f.nodes[len(f.nodes)-1]
}

// Nodes returns the fragment's nodes in document order.
func (f *Fragment) Nodes() []*Node {
	return f.nodes
}

// Elements returns the element nodes with the given local name, in order.
func (f *Fragment) Elements(local string) []*Node {
	var out []*Node
	for _, n := range f.nodes {
		if n.IsElement() && n.Local() == local {
			out = append(out, n)
		}
	}
	return out
}

// WithAttr returns the element nodes carrying attribute name, in order.
func (f *Fragment) WithAttr(name string) []*Node {
	var out []*Node
	for _, n := range f.nodes {
		if !n.IsElement() {
			continue
		}
		if _, ok := n.Attr(name); ok {
			out = append(out, n)
		}
	}
	return out
}

// SetContent replaces everything between el and its matching end tag with
// text, escaped.
func (f *Fragment) SetContent(el *Node, text string) error {
	if el.Kind != StartTag {
		return ErrNotElement
	}
	start := -1
	for i, n := range f.nodes {
		if n == el {
			start = i
			break
		}
	}
	if start < 0 {
		return ErrNotElement
	}

	depth := 0
	for j := start + 1; j < len(f.nodes); j++ {
		n := f.nodes[j]
		switch n.Kind {
		case StartTag:
			depth++
		case EndTag:
			if depth > 0 {
				depth--
				continue
			}
			for k := start + 1; k < j; k++ {
				f.nodes[k].dropped = true
			}
			el.content = []byte(Escape(text))
			return nil
		}
	}
	return ErrUnclosed
}

// Bytes serialises the fragment.
func (f *Fragment) Bytes() []byte {
	return f.AppendTo(nil)
}

// AppendTo serialises the fragment onto dst.
func (f *Fragment) AppendTo(dst []byte) []byte {
	for _, n := range f.nodes {
		dst = n.appendTo(dst)
	}
	return dst
}

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// Escape makes s safe for use as element text or a quoted attribute value.
func Escape(s string) string {
	return escaper.Replace(s)
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// scanAttrs locates attribute value spans inside a raw start tag.
func scanAttrs(raw []byte) []attr {
	var attrs []attr
	i := 1
	for i < len(raw) && !isSpace(raw[i]) && raw[i] != '>' && raw[i] != '/' {
		i++
	}
	for {
		for i < len(raw) && isSpace(raw[i]) {
			i++
		}
		if i >= len(raw) || raw[i] == '>' || raw[i] == '/' {
			return attrs
		}

		ns := i
		for i < len(raw) && !isSpace(raw[i]) && raw[i] != '=' && raw[i] != '>' && raw[i] != '/' {
			i++
		}
		if i == ns {
			i++
			continue
		}
		name := string(raw[ns:i])

		for i < len(raw) && isSpace(raw[i]) {
			i++
		}
		if i >= len(raw) || raw[i] != '=' {
			// Valueless attribute, accepted by the non-strict tokenizer.
			continue
		}
		i++
		for i < len(raw) && isSpace(raw[i]) {
			i++
		}
		if i >= len(raw) {
			return attrs
		}

		if q := raw[i]; q == '"' || q == '\'' {
			i++
			vs := i
			for i < len(raw) && raw[i] != q {
				i++
			}
			attrs = append(attrs, attr{name: name, start: vs, end: i})
			i++
			continue
		}

		vs := i
		for i < len(raw) && !isSpace(raw[i]) && raw[i] != '>' {
			i++
		}
		attrs = append(attrs, attr{name: name, start: vs, end: i})
	}
}
