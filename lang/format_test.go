package lang

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestTemplate_Format(t *testing.T) {
	tests := []struct {
		src    string
		indent int
		want   string
	}{
		{
			src:  "<ul><%for u in users%><li><%=u.name%></li><%end%></ul>",
			want: "<ul><% for u in users %><li><%= u.name %></li><% end %></ul>",
		},
		{
			src:  "<%-1+2*3%>",
			want: "<%- (1 + (2 * 3)) %>",
		},
		{
			src:    "<% if a %><% if b %>x<% end %><% elsif c %><% else %>y<% end %>",
			indent: 2,
			want:   "<% if a %><%   if b %>x<%   end %><% elsif c %><% else %>y<% end %>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			tmpl, err := FromSource(tt.src)
			if err != nil {
				t.Fatal(err)
			}

			var buf strings.Builder

			if err := tmpl.Format(t.Context(), &buf, tt.indent); err != nil {
				t.Fatal(err)
			}

			if buf.String() != tt.want {
				t.Errorf("Format() = %q, want %q", buf.String(), tt.want)
			}

			// Formatted source parses to the same tree.
			again, err := FromSource(buf.String())
			if err != nil {
				t.Fatalf("reparse: %v", err)
			}

			var second strings.Builder

			_ = again.Format(t.Context(), &second, tt.indent)

			if second.String() != buf.String() {
				t.Errorf("Format not stable: %q then %q", buf.String(), second.String())
			}
		})
	}
}

func TestTemplate_FormatJSON(t *testing.T) {
	tmpl, err := FromSource("a<%- x.y(1) %><% for i in xs %><% end %>")
	if err != nil {
		t.Fatal(err)
	}

	var buf strings.Builder

	if err := tmpl.FormatJSON(t.Context(), &buf, 2); err != nil {
		t.Fatal(err)
	}

	var doc struct {
		Origin string           `json:"origin"`
		Nodes  []map[string]any `json:"nodes"`
	}

	if err := json.Unmarshal([]byte(buf.String()), &doc); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}

	if doc.Origin != Inline || len(doc.Nodes) != 3 {
		t.Fatalf("doc = %+v", doc)
	}

	if doc.Nodes[0]["text"] != "a" || doc.Nodes[1]["output"] != "raw" || doc.Nodes[2]["for"] != "i" {
		t.Errorf("nodes = %v", doc.Nodes)
	}
}

func TestTemplate_FormatYAML(t *testing.T) {
	tmpl, err := FromSource("<% if ok %>yes<% else %>no<% end %>")
	if err != nil {
		t.Fatal(err)
	}

	var block, flow strings.Builder

	if err := tmpl.FormatYAML(t.Context(), &block, 2); err != nil {
		t.Fatal(err)
	}

	if err := tmpl.FormatYAML(t.Context(), &flow, 0); err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"origin: inline", "else:", "if:", "cond:"} {
		if !strings.Contains(block.String(), want) {
			t.Errorf("block YAML missing %q:\n%s", want, block.String())
		}
	}

	if !strings.HasPrefix(flow.String(), "{") {
		t.Errorf("flow YAML = %q", flow.String())
	}
}
