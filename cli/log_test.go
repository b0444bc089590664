package cli

import "testing"

func TestLogConfig_Scan(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		level  logLevel
		format logFormat
		pretty bool
		caller bool
	}{
		{"none", []string{"render", "x"}, "", "", true, false},
		{"separate values", []string{"--log-level", "debug", "--log-format", "json"}, "debug", "json", true, false},
		{"assigned values", []string{"x", "--log-level=trace"}, "trace", "", true, false},
		{"negated bools", []string{"--no-log-pretty", "--log-caller"}, "", "", false, true},
		{"assigned bools", []string{"--log-pretty=false", "--no-log-caller=false"}, "", "", false, true},
		{"value not consumed", []string{"--log-level", "--dev"}, "", "", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := logConfig{Pretty: true}
			f.scan(tt.args)

			if f.Level != tt.level || f.Format != tt.format || f.Pretty != tt.pretty || f.Caller != tt.caller {
				t.Errorf("scan(%q) = %+v", tt.args, f)
			}
		})
	}
}
