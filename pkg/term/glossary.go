package term

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates the Glossary variants.
type Kind uint8

const (
	KindText Kind = iota
	KindNumber
	KindNode
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindNode:
		return "node"
	case KindList:
		return "list"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Glossary is one definition fragment. Exactly the fields of its Kind are
// meaningful: Text for KindText, Number for KindNumber, Tag, Lang and
// Children for KindNode, Children for KindList.
type Glossary struct {
	Kind     Kind
	Text     string
	Number   float64
	Tag      string
	Lang     string
	Children []Glossary
}

// Text returns a plain text fragment.
func Text(s string) Glossary { return Glossary{Kind: KindText, Text: s} }

// Number returns a numeric fragment.
func Number(n float64) Glossary { return Glossary{Kind: KindNumber, Number: n} }

// Node returns a structured-content node.
func Node(tag, lang string, children ...Glossary) Glossary {
	return Glossary{Kind: KindNode, Tag: tag, Lang: lang, Children: children}
}

// List returns a sequence of fragments.
func List(children ...Glossary) Glossary { return Glossary{Kind: KindList, Children: children} }

// block tags that end a line when rendered as plain text.
var blockTags = map[string]bool{
	"div": true, "li": true, "p": true, "tr": true, "br": true, "ul": true, "ol": true, "table": true,
}

// PlainText renders the fragment without markup. Ruby annotations (rt, rp)
// are dropped.
func (g Glossary) PlainText() string {
	var b strings.Builder
	g.writePlain(&b)
	return strings.TrimSpace(b.String())
}

func (g Glossary) writePlain(b *strings.Builder) {
	switch g.Kind {
	case KindText:
		b.WriteString(g.Text)
	case KindNumber:
		b.WriteString(strconv.FormatFloat(g.Number, 'f', -1, 64))
	case KindNode:
		if g.Tag == "rt" || g.Tag == "rp" {
			return
		}
		for _, c := range g.Children {
			c.writePlain(b)
		}
		if blockTags[g.Tag] {
			b.WriteByte('\n')
		}
	case KindList:
		for _, c := range g.Children {
			c.writePlain(b)
		}
	}
}

func (g Glossary) writeCanonical(b *strings.Builder) {
	switch g.Kind {
	case KindText:
		b.WriteString("t:")
		b.WriteString(strconv.Quote(g.Text))
	case KindNumber:
		b.WriteString("n:")
		b.WriteString(strconv.FormatFloat(g.Number, 'g', -1, 64))
	case KindNode:
		b.WriteString("e:")
		b.WriteString(strconv.Quote(g.Tag))
		b.WriteString(strconv.Quote(g.Lang))
		b.WriteByte('(')
		for _, c := range g.Children {
			c.writeCanonical(b)
		}
		b.WriteByte(')')
	case KindList:
		b.WriteByte('[')
		for _, c := range g.Children {
			c.writeCanonical(b)
		}
		b.WriteByte(']')
	}
	b.WriteByte(';')
}

type nodeJSON struct {
	Type    string          `json:"type,omitempty"`
	Tag     string          `json:"tag,omitempty"`
	Lang    string          `json:"lang,omitempty"`
	Content json.RawMessage `json:"content,omitempty"`
	Text    string          `json:"text,omitempty"`
}

// MarshalJSON encodes the fragment in the Yomitan shape: a string, a number,
// an array, or an object with tag, lang and content.
func (g Glossary) MarshalJSON() ([]byte, error) {
	switch g.Kind {
	case KindText:
		return json.Marshal(g.Text)
	case KindNumber:
		return json.Marshal(g.Number)
	case KindList:
		children := g.Children
		if children == nil {
			children = []Glossary{}
		}
		return json.Marshal(children)
	case KindNode:
		obj := map[string]any{}
		if g.Tag != "" {
			obj["tag"] = g.Tag
		}
		if g.Lang != "" {
			obj["lang"] = g.Lang
		}
		switch len(g.Children) {
		case 0:
		case 1:
			obj["content"] = g.Children[0]
		default:
			obj["content"] = g.Children
		}
		return json.Marshal(obj)
	default:
		return nil, fmt.Errorf("term: unknown glossary kind %d", g.Kind)
	}
}

// UnmarshalJSON decodes any of the Yomitan glossary shapes. Objects of
// type "text" keep their text; type "structured-content" unwraps to its
// content; other objects become nodes.
func (g *Glossary) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("term: empty glossary")
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*g = Text(s)
	case '[':
		var children []Glossary
		if err := json.Unmarshal(data, &children); err != nil {
			return err
		}
		*g = List(children...)
	case '{':
		var n nodeJSON
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		switch n.Type {
		case "text":
			*g = Text(n.Text)
			return nil
		case "structured-content":
			if len(n.Content) == 0 {
				*g = List()
				return nil
			}
			return g.UnmarshalJSON(n.Content)
		}
		node := Node(n.Tag, n.Lang)
		if len(n.Content) > 0 && !bytes.Equal(n.Content, []byte("null")) {
			var child Glossary
			if err := child.UnmarshalJSON(n.Content); err != nil {
				return err
			}
			if child.Kind == KindList {
				node.Children = child.Children
			} else {
				node.Children = []Glossary{child}
			}
		}
		*g = node
	case 'n':
		*g = List()
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("term: unsupported glossary %s: %w", data, err)
		}
		*g = Number(f)
	}
	return nil
}
