package data

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

// TextKey holds the character data of an element that also has attributes
// or children.
const TextKey = "text"

var errNoElement = errors.New("no document element")

type element struct {
	attrs    []xml.Attr
	children []child
	text     strings.Builder
}

type child struct {
	name string
	val  any
}

// decodeXML converts the document element of raw to nested values. A leaf
// element without attributes is its trimmed text; any other element is a
// map of its attributes, children and text.
func decodeXML(raw []byte) (any, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))

	var stack []*element

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil, errNoElement
		}

		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, &element{attrs: t.Attr})

		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}

		case xml.EndElement:
			el := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if len(stack) == 0 {
				return el.value(), nil
			}

			parent := stack[len(stack)-1]
			parent.children = append(parent.children, child{t.Name.Local, el.value()})
		}
	}
}

func (el *element) value() any {
	text := strings.TrimSpace(el.text.String())

	if len(el.attrs) == 0 && len(el.children) == 0 {
		return text
	}

	m := make(map[string]any, len(el.attrs)+len(el.children)+1)

	for _, a := range el.attrs {
		m[a.Name.Local] = a.Value
	}

	counts := make(map[string]int, len(el.children))
	for _, c := range el.children {
		counts[c.name]++
	}

	for _, c := range el.children {
		if counts[c.name] == 1 {
			m[c.name] = c.val

			continue
		}

		list, _ := m[c.name].([]any)
		m[c.name] = append(list, c.val)
	}

	if text != "" {
		m[TextKey] = text
	}

	return m
}
