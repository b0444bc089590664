package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
)

// Format writes t back out as normalized template source. Tag contents are
// rewritten from the tree (fully parenthesized) and, when indent > 0,
// statement tags are indented by block depth.
func (t *Template) Format(_ context.Context, w io.Writer, indent int) error {
	var buf strings.Builder

	formatNodes(&buf, t.Root, indent, 0)

	_, err := io.WriteString(w, buf.String())

	return err
}

func formatNodes(buf *strings.Builder, nodes []Node, indent, depth int) {
	for _, n := range nodes {
		formatNode(buf, n, indent, depth)
	}
}

func formatStatement(buf *strings.Builder, indent, depth int, stmt string) {
	buf.WriteString("<% ")

	if indent > 0 {
		buf.WriteString(strings.Repeat(" ", indent*depth))
	}

	buf.WriteString(stmt)
	buf.WriteString(" %>")
}

func formatNode(buf *strings.Builder, n Node, indent, depth int) {
	switch n := n.(type) {
	case *TextNode:
		buf.WriteString(n.Text)

	case *OutputNode:
		if n.Raw {
			buf.WriteString("<%- ")
		} else {
			buf.WriteString("<%= ")
		}

		buf.WriteString(n.Expr.String())
		buf.WriteString(" %>")

	case *IfNode:
		for i, br := range n.Branches {
			kw := "elsif "
			if i == 0 {
				kw = "if "
			}

			formatStatement(buf, indent, depth, kw+br.Cond.String())
			formatNodes(buf, br.Body, indent, depth+1)
		}

		if n.HasElse {
			formatStatement(buf, indent, depth, "else")
			formatNodes(buf, n.Else, indent, depth+1)
		}

		formatStatement(buf, indent, depth, "end")

	case *ForNode:
		formatStatement(buf, indent, depth, "for "+n.Var+" in "+n.Source.String())
		formatNodes(buf, n.Body, indent, depth+1)
		formatStatement(buf, indent, depth, "end")
	}
}

// FormatJSON writes the node tree of t as JSON.
func (t *Template) FormatJSON(_ context.Context, w io.Writer, indent int) error {
	var (
		data []byte
		err  error
	)

	if indent > 0 {
		data, err = json.MarshalIndent(t, "", strings.Repeat(" ", indent))
	} else {
		data, err = json.Marshal(t)
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(data))

	return err
}

// FormatYAML writes the node tree of t as YAML.
func (t *Template) FormatYAML(ctx context.Context, w io.Writer, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent), yaml.IndentSequence(true))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	data, err := yaml.MarshalContext(ctx, t.ToMap(), opts...)
	if err != nil {
		return err
	}

	_, err = w.Write(data)

	return err
}
