package cmd

import (
	"strings"
	"testing"
)

func TestDump_Run(t *testing.T) {
	const src = "<p><%=user.name%></p>"

	tests := []struct {
		name string
		run  func(in Input) error
		want []string
	}{
		{
			name: "text",
			run:  func(in Input) error { return (&Text{Input: in}).Run(settingsContext(t, Settings{})) },
			want: []string{"<p><%= user.name %></p>"},
		},
		{
			name: "json",
			run:  func(in Input) error { return (&JSON{Input: in}).Run(settingsContext(t, Settings{})) },
			want: []string{`"origin": "inline"`, `"output": "escaped"`},
		},
		{
			name: "yaml",
			run:  func(in Input) error { return (&YAML{Input: in}).Run(settingsContext(t, Settings{})) },
			want: []string{"origin: inline", "output: escaped", "ident: user"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out strings.Builder

			in := Input{
				Indent:   2,
				Template: stdinSource,
				stdin:    strings.NewReader(src),
				stdout:   &out,
			}

			if err := tt.run(in); err != nil {
				t.Fatal(err)
			}

			for _, want := range tt.want {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output lacks %q:\n%s", want, out.String())
				}
			}
		})
	}
}
