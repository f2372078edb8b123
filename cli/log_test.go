package cli

import (
	"testing"

	"github.com/ardnew/ribosome/log"
)

func TestLogScan(t *testing.T) {
	t.Cleanup(func() { log.Config(log.WithLevel(log.DefaultLevel), log.WithFormat(log.DefaultFormat)) })

	tests := []struct {
		name string
		args []string
		want logConfig
	}{
		{
			name: "separate values",
			args: []string{"run", "--log-level", "debug", "--log-format", "text", "t.dna"},
			want: logConfig{Level: "debug", Format: "text"},
		},
		{
			name: "assigned values",
			args: []string{"--log-level=trace", "--log-format=json"},
			want: logConfig{Level: "trace", Format: "json"},
		},
		{
			name: "value is a flag",
			args: []string{"--log-level", "--log-caller"},
			want: logConfig{Caller: true},
		},
		{
			name: "booleans",
			args: []string{"--log-pretty", "--log-caller=false"},
			want: logConfig{Pretty: true},
		},
		{
			name: "negated booleans",
			args: []string{"--no-log-pretty", "--no-log-caller=false"},
			want: logConfig{Caller: true},
		},
		{
			name: "invalid boolean",
			args: []string{"--log-pretty=maybe"},
			want: logConfig{},
		},
		{
			name: "unrelated",
			args: []string{"--level=debug", "-d", "x.yaml"},
			want: logConfig{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got logConfig

			got.scan(tt.args)

			if got != tt.want {
				t.Errorf("scan(%q) = %+v, want %+v", tt.args, got, tt.want)
			}
		})
	}
}
