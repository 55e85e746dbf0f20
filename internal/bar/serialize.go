package bar

import (
	"bytes"
	"encoding/json"
	"strings"

	"codeberg.org/mutker/statusblocks/internal/errors"
)

// placeholder stands in for a block that has not produced anything yet.
const placeholder = "{}"

type element struct {
	Name     string `json:"name"`
	FullText string `json:"full_text"`
	Markup   string `json:"markup,omitempty"`
}

// Serialize renders one block as an i3bar protocol element. The markup field
// is omitted when empty.
func Serialize(name, markup, text string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(element{Name: name, FullText: text, Markup: markup}); err != nil {
		return "", errors.New().Wrap(ErrSerialize, err)
	}

	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Entry is the latest serialized element of one block.
type Entry struct {
	Key  string
	JSON string
}

// Snapshot holds every configured block in configuration order.
type Snapshot []Entry

// Line joins the snapshot into a JSON array.
func (s Snapshot) Line() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, e := range s {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(e.JSON)
	}
	b.WriteByte(']')

	return b.String()
}

func (s Snapshot) clone() Snapshot {
	out := make(Snapshot, len(s))
	copy(out, s)

	return out
}
