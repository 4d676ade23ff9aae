package render

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	Text = "text"
	JSON = "json"
	YAML = "yaml"
)

// ErrUnknownOutput is returned for unsupported output formats.
var ErrUnknownOutput = errors.New("unknown output format")

// Options customises Write.
type Options struct {
	// Output is one of Text, JSON, or YAML. Defaults to Text.
	Output string
	// Hexdump is the number of payload bytes to dump in Text output; 0 disables dumping.
	Hexdump int
}

// Write renders the documents to w.
//
// JSON output is one document per line. YAML output separates documents with "---".
func Write(w io.Writer, docs []*Document, opts Options) error {
	switch strings.ToLower(opts.Output) {
	case "", Text:
		for _, d := range docs {
			if err := writeText(w, d, opts.Hexdump); err != nil {
				return err
			}
		}

		return nil
	case JSON:
		enc := json.NewEncoder(w)
		for _, d := range docs {
			if err := enc.Encode(d); err != nil {
				return err
			}
		}

		return nil
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		for _, d := range docs {
			if err := enc.Encode(d); err != nil {
				return err
			}
		}

		return enc.Close()
	default:
		return fmt.Errorf("%w: %s", ErrUnknownOutput, opts.Output)
	}
}

func writeText(w io.Writer, d *Document, hexdump int) error {
	buf := &bytes.Buffer{}

	fmt.Fprintf(buf, "%s: %s, %s", d.File, d.Format, humanize.IBytes(uint64(d.Size)))
	if len(d.Unwrapped) != 0 {
		fmt.Fprintf(buf, " (unwrapped from %s)", strings.Join(d.Unwrapped, ", "))
	}
	fmt.Fprintf(buf, ", window [%d, %d)\n", d.Start, d.End)

	for i, e := range d.Records {
		fmt.Fprintf(buf, "  #%d %s [%d, %d) 0x%x %s\n", i, e.Kind, e.Start, e.End, e.Start, humanize.IBytes(uint64(e.End-e.Start)))

		if len(e.Fields) != 0 {
			buf.WriteString("      ")
			for j, f := range e.Fields {
				if j != 0 {
					buf.WriteByte(' ')
				}
				if s, ok := f.Value.(string); ok {
					fmt.Fprintf(buf, "%s=%q", f.Name, s)
				} else {
					fmt.Fprintf(buf, "%s=%v", f.Name, f.Value)
				}
			}
			buf.WriteByte('\n')
		}

		if e.Payload != nil && e.Payload.Len() > 0 && (e.Payload.Start != e.Start || e.Payload.End != e.End) {
			fmt.Fprintf(buf, "      payload [%d, %d) %s\n", e.Payload.Start, e.Payload.End, humanize.IBytes(uint64(e.Payload.Len())))
		}

		if hexdump > 0 && len(e.preview) > 0 {
			for _, line := range strings.SplitAfter(strings.TrimSuffix(hex.Dump(e.preview[:min(hexdump, len(e.preview))]), "\n"), "\n") {
				fmt.Fprintf(buf, "      %s", line)
			}
			buf.WriteByte('\n')
		}
	}

	switch {
	case d.Error != "":
		fmt.Fprintf(buf, "  stopped at %d (0x%x): %s\n", d.Cursor, d.Cursor, d.Error)
	case d.Cursor < d.End:
		fmt.Fprintf(buf, "  stopped at %d (0x%x) with %s left\n", d.Cursor, d.Cursor, humanize.IBytes(uint64(d.End-d.Cursor)))
	default:
		fmt.Fprintf(buf, "  %d records\n", len(d.Records))
	}

	_, err := buf.WriteTo(w)
	return err
}

// MarshalJSON encodes the fields as an object in insertion order.
func (fs Fields) MarshalJSON() ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteByte('{')
	for i, f := range fs {
		if i != 0 {
			buf.WriteByte(',')
		}

		k, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}

		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// MarshalYAML encodes the fields as a mapping in insertion order.
func (fs Fields) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range fs {
		v := &yaml.Node{}
		if err := v.Encode(f.Value); err != nil {
			return nil, err
		}

		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: f.Name}, v)
	}

	return node, nil
}
