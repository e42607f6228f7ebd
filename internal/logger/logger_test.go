package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel_AllBranches(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"trace", "trace"},
		{"debug", "debug"},
		{"info", "info"},
		{"warn", "warn"},
		{"warning", "warn"},
		{"error", "error"},
		{"off", "disabled"},
		{"", "warn"},
		{"   nonsense   ", "warn"},
	}
	for _, c := range cases {
		lvl := parseLevel(c.in)
		if strings.ToLower(lvl.String()) != c.want {
			t.Fatalf("parseLevel(%q) = %q, want %q", c.in, lvl, c.want)
		}
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("MEALTRACE_LOG_LEVEL", " DEBUG ")
	t.Setenv("MEALTRACE_LOG_FORMAT", "")

	opt := FromEnv()
	if opt.Level != "debug" {
		t.Errorf("Level = %q, want %q", opt.Level, "debug")
	}
	if opt.Format != "console" {
		t.Errorf("Format = %q, want %q", opt.Format, "console")
	}
}

func TestInit_Get_Named(t *testing.T) {
	var buf bytes.Buffer

	Init(Options{
		Level:     "info",
		Format:    "json",
		Component: "root",
		Writer:    &buf,
	})

	Get().Info().Str("k", "v").Msg("root-msg")
	Named("loader").Info().Int("accepted", 3).Msg("named-msg")
	Named("").Debug().Msg("below-level")

	out := buf.String()
	for _, want := range []string{"root-msg", "named-msg", `"component":"loader"`, `"accepted":3`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "below-level") {
		t.Fatalf("debug line emitted at info level:\n%s", out)
	}
}
