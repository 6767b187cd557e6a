// Package catalog reads and writes JSON message catalogs of the form
//
//	{
//	  "messages": [
//	    { "id": "...", "translation": "..." }
//	  ]
//	}
//
// Only the "messages" array is interpreted. Every other field of the
// document, and every unknown field of an existing message, is written back
// untouched when the catalog is persisted.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	jsonpatch "github.com/evanphx/json-patch"

	"github.com/oshifier/oshify/internal/atomicfile"
)

// Message is a single catalog entry.
type Message struct {
	ID          string `json:"id"`
	Translation string `json:"translation"`
}

// Catalog is the in-memory view of one catalog file. It is not safe for
// concurrent use.
type Catalog struct {
	doc      []byte
	messages []Message
	// appended since the last load or persist
	pending  []Message
}

// Load reads and parses the catalog file at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &Error{Path: path, Kind: ErrNotFound, Err: err}
		}
		return nil, &Error{Path: path, Kind: ErrIO, Err: err}
	}
	return Parse(path, data)
}

// Parse parses catalog data. path is only used in error messages.
func Parse(path string, data []byte) (*Catalog, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, &Error{Path: path, Kind: ErrSchema, Err: fmt.Errorf("top-level value is %s, not an object", typeErr.Value)}
		}
		return nil, &Error{Path: path, Kind: ErrParse, Err: err}
	}

	raw, ok := top["messages"]
	if !ok {
		return nil, &Error{Path: path, Kind: ErrSchema}
	}
	if len(raw) == 0 || raw[0] != '[' {
		return nil, &Error{Path: path, Kind: ErrSchema, Err: errors.New(`"messages" is not an array`)}
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, &Error{Path: path, Kind: ErrParse, Err: err}
	}

	messages := make([]Message, 0, len(entries))
	for i, entry := range entries {
		msg, err := decodeMessage(entry)
		if err != nil {
			return nil, &Error{Path: path, Kind: ErrSchema, Err: fmt.Errorf("message %d: %v", i, err)}
		}
		messages = append(messages, msg)
	}

	return &Catalog{
		doc:      bytes.Clone(data),
		messages: messages,
	}, nil
}

// decodeMessage reads the "id" and "translation" keys of one entry. Keys
// are matched exactly: "ID" or "Translation" are unknown fields.
func decodeMessage(entry json.RawMessage) (Message, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(entry, &fields); err != nil {
		return Message{}, err
	}
	var msg Message
	for _, field := range []struct {
		key string
		dst *string
	}{
		{"id", &msg.ID},
		{"translation", &msg.Translation},
	} {
		raw, ok := fields[field.key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, field.dst); err != nil {
			return Message{}, fmt.Errorf("%q: %v", field.key, err)
		}
	}
	return msg, nil
}

// Messages returns the catalog entries in order.
func (c *Catalog) Messages() []Message {
	return append([]Message(nil), c.messages...)
}

func (c *Catalog) Len() int {
	return len(c.messages)
}

// Dirty reports whether messages were appended since the catalog was
// loaded or last persisted.
func (c *Catalog) Dirty() bool {
	return len(c.pending) > 0
}

// FindByTemplate returns the first message whose translation is exactly
// template.
func (c *Catalog) FindByTemplate(template string) (Message, bool) {
	for _, msg := range c.messages {
		if msg.Translation == template {
			return msg, true
		}
	}
	return Message{}, false
}

// FindByID returns the message with the given id.
func (c *Catalog) FindByID(id string) (Message, bool) {
	for _, msg := range c.messages {
		if msg.ID == id {
			return msg, true
		}
	}
	return Message{}, false
}

// Append adds msg at the end of the catalog. The id must not be in use.
func (c *Catalog) Append(msg Message) error {
	if _, ok := c.FindByID(msg.ID); ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, msg.ID)
	}
	c.messages = append(c.messages, msg)
	c.pending = append(c.pending, msg)
	return nil
}

type operation struct {
	Op    string  `json:"op"`
	Path  string  `json:"path"`
	Value Message `json:"value"`
}

// Marshal returns the full catalog document, indented with two spaces.
func (c *Catalog) Marshal() ([]byte, error) {
	doc := c.doc
	if len(c.pending) > 0 {
		ops := make([]operation, 0, len(c.pending))
		for _, msg := range c.pending {
			ops = append(ops, operation{Op: "add", Path: "/messages/-", Value: msg})
		}
		raw, err := json.Marshal(ops)
		if err != nil {
			return nil, err
		}
		patch, err := jsonpatch.DecodePatch(raw)
		if err != nil {
			return nil, err
		}
		doc, err = patch.Apply(doc)
		if err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, doc, "", "  "); err != nil {
		return nil, err
	}
	return unescapeHTML(buf.Bytes()), nil
}

var htmlEscapes = []struct {
	seq string
	r   byte
}{
	{`\u003c`, '<'},
	{`\u003e`, '>'},
	{`\u0026`, '&'},
}

// unescapeHTML undoes the \u003c, \u003e and \u0026 escapes that
// encoding/json adds when the patched document is re-encoded, so that
// translations containing markup are written the way they were read.
// data must be valid JSON, so every backslash starts an escape inside a
// string.
func unescapeHTML(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u00`)) {
		return data
	}
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); {
		if data[i] != '\\' {
			out = append(out, data[i])
			i++
			continue
		}
		replaced := false
		for _, esc := range htmlEscapes {
			if bytes.HasPrefix(data[i:], []byte(esc.seq)) {
				out = append(out, esc.r)
				i += len(esc.seq)
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, data[i:i+2]...)
			i += 2
		}
	}
	return out
}

// Persist replaces the file at path with the marshalled catalog. On failure
// the in-memory catalog keeps the appended messages; the file is either
// unchanged or fully replaced.
func (c *Catalog) Persist(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return &Error{Path: path, Kind: ErrPersist, Err: err}
	}
	if err := atomicfile.WriteFile(path, data, 0o644); err != nil {
		return &Error{Path: path, Kind: ErrPersist, Err: err}
	}
	c.doc = data
	c.pending = nil
	return nil
}
