package lint

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/unbound-force/smelltest/internal/config"
	"github.com/unbound-force/smelltest/internal/tool"
)

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

func TestParseText(t *testing.T) {
	const path = "test/DL3008/Dockerfile"

	tests := []struct {
		name            string
		output          string
		want            []string
		wantUnparseable int
	}{
		{
			name:   "empty",
			output: "",
			want:   []string{},
		},
		{
			name: "hadolint lines",
			output: path + ":3 DL3008 warning: Pin versions in apt get install\n" +
				path + ":5 DL3015 info: Avoid additional packages\n",
			want: []string{"DL3008", "DL3015"},
		},
		{
			name: "duplicates collapse",
			output: path + ":3 DL3008 warning: Pin versions\n" +
				path + ":7 DL3008 warning: Pin versions\n",
			want: []string{"DL3008"},
		},
		{
			name:   "shellcheck codes",
			output: path + ":4 SC2086 info: Double quote to prevent globbing\n",
			want:   []string{"SC2086"},
		},
		{
			name:            "garbage line",
			output:          "hadolint: something went wrong\n",
			want:            []string{},
			wantUnparseable: 1,
		},
		{
			name: "blank lines ignored",
			output: "\n\n" + path + ":1 DL3006 warning: Always tag the version\n\n",
			want: []string{"DL3006"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, unparseable := ParseText([]byte(tt.output), path)
			if diff := cmp.Diff(tt.want, got.Sorted()); diff != "" {
				t.Errorf("ParseText() mismatch (-want +got):\n%s", diff)
			}
			if unparseable != tt.wantUnparseable {
				t.Errorf("unparseable = %d, want %d", unparseable, tt.wantUnparseable)
			}
		})
	}
}

func TestParseJSON(t *testing.T) {
	out := `[
  {"code":"DL3008","column":1,"file":"Dockerfile","level":"warning","line":3,"message":"Pin versions"},
  {"code":"DL4006","column":1,"file":"Dockerfile","level":"warning","line":4,"message":"Set pipefail"},
  {"code":"DL3008","column":1,"file":"Dockerfile","level":"warning","line":9,"message":"Pin versions"}
]`
	got, err := ParseJSON([]byte(out))
	if err != nil {
		t.Fatalf("ParseJSON() error: %v", err)
	}
	if diff := cmp.Diff([]string{"DL3008", "DL4006"}, got.Sorted()); diff != "" {
		t.Errorf("ParseJSON() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseJSON_Empty(t *testing.T) {
	for _, in := range []string{"", "  \n", "[]"} {
		got, err := ParseJSON([]byte(in))
		if err != nil {
			t.Fatalf("ParseJSON(%q) error: %v", in, err)
		}
		if len(got) != 0 {
			t.Errorf("ParseJSON(%q) = %v, want empty", in, got)
		}
	}
}

func TestParseJSON_Invalid(t *testing.T) {
	if _, err := ParseJSON([]byte("not json")); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestFindings(t *testing.T) {
	f := NewFindings("DL3008", "DL3006", "DL3008")
	if len(f) != 2 {
		t.Errorf("len = %d, want 2", len(f))
	}
	if !f.Has("DL3006") || f.Has("DL4000") {
		t.Errorf("Has() wrong for %v", f)
	}
	if f.String() != "DL3006,DL3008" {
		t.Errorf("String() = %q", f.String())
	}
	data, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `["DL3006","DL3008"]` {
		t.Errorf("MarshalJSON = %s", data)
	}
}

// ---------------------------------------------------------------------------
// Adapter
// ---------------------------------------------------------------------------

// fakeLinter writes a shell script that behaves like hadolint for a
// file that contains no USER instruction.
func fakeLinter(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hadolint")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("writing fake linter: %v", err)
	}
	return path
}

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Dockerfile")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

const textLinter = `for last; do :; done
if ! grep -q '^USER' "$last"; then
  echo "$last:1 DL3002 warning: Last USER should not be root"
  exit 1
fi
exit 0
`

func TestAdapter_Findings(t *testing.T) {
	a := New(Options{Command: fakeLinter(t, textLinter), Args: []string{"--no-color"}})
	fixture := writeFixture(t, "FROM alpine:3.19\nRUN echo hi\n")

	got, err := a.Lint(context.Background(), fixture)
	if err != nil {
		t.Fatalf("Lint() error: %v", err)
	}
	if !got.Has("DL3002") {
		t.Errorf("expected DL3002, got %v", got)
	}
}

func TestAdapter_CleanFile(t *testing.T) {
	a := New(Options{Command: fakeLinter(t, textLinter)})
	fixture := writeFixture(t, "FROM alpine:3.19\nUSER app\n")

	got, err := a.Lint(context.Background(), fixture)
	if err != nil {
		t.Fatalf("Lint() error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no findings, got %v", got)
	}
}

func TestAdapter_PassesArgsBeforePath(t *testing.T) {
	script := fakeLinter(t, `[ "$1" = "--no-color" ] || { echo "bad args: $*" >&2; exit 2; }
echo "$2:1 DL3006 warning: Always tag the version"
exit 1
`)
	a := New(Options{Command: script, Args: []string{"--no-color"}})
	fixture := writeFixture(t, "FROM alpine\n")

	got, err := a.Lint(context.Background(), fixture)
	if err != nil {
		t.Fatalf("Lint() error: %v", err)
	}
	if !got.Has("DL3006") {
		t.Errorf("expected DL3006, got %v", got)
	}
}

func TestAdapter_CrashWithoutOutput(t *testing.T) {
	a := New(Options{Command: fakeLinter(t, "echo 'segfault' >&2\nexit 139\n")})
	fixture := writeFixture(t, "FROM alpine\n")

	_, err := a.Lint(context.Background(), fixture)
	var te *tool.Error
	if !errors.As(err, &te) {
		t.Fatalf("expected *tool.Error, got %v", err)
	}
	if te.ExitCode != 139 {
		t.Errorf("exit code = %d, want 139", te.ExitCode)
	}
}

func TestAdapter_UnparseableOutput(t *testing.T) {
	a := New(Options{Command: fakeLinter(t, "echo 'usage: hadolint FILE'\nexit 0\n")})
	fixture := writeFixture(t, "FROM alpine\n")

	_, err := a.Lint(context.Background(), fixture)
	if err == nil {
		t.Fatal("expected error for unparseable output")
	}
}

func TestAdapter_MissingFile(t *testing.T) {
	a := New(Options{Command: fakeLinter(t, textLinter)})
	missing := filepath.Join(t.TempDir(), "Dockerfile-fixed")

	_, err := a.Lint(context.Background(), missing)
	var te *tool.Error
	if !errors.As(err, &te) {
		t.Fatalf("expected *tool.Error, got %v", err)
	}
	if tool.IsSetup(err) {
		t.Errorf("missing fixture must not be a setup error")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist cause, got %v", err)
	}
}

func TestAdapter_MissingBinary(t *testing.T) {
	a := New(Options{Command: "smelltest-no-such-linter"})
	fixture := writeFixture(t, "FROM alpine\n")

	_, err := a.Lint(context.Background(), fixture)
	if !tool.IsSetup(err) {
		t.Errorf("expected setup error, got %v", err)
	}
}

func TestAdapter_JSONFormat(t *testing.T) {
	script := fakeLinter(t, `for last; do :; done
printf '[{"code":"DL3008","file":"%s","level":"warning","line":2}]' "$last"
exit 1
`)
	a := New(Options{Command: script, Format: config.FormatJSON})
	fixture := writeFixture(t, "FROM debian\nRUN apt-get install curl\n")

	got, err := a.Lint(context.Background(), fixture)
	if err != nil {
		t.Fatalf("Lint() error: %v", err)
	}
	if diff := cmp.Diff([]string{"DL3008"}, got.Sorted()); diff != "" {
		t.Errorf("Lint() mismatch (-want +got):\n%s", diff)
	}
}

func TestAdapter_JSONFormatGarbage(t *testing.T) {
	a := New(Options{Command: fakeLinter(t, "echo oops\n"), Format: config.FormatJSON})
	fixture := writeFixture(t, "FROM alpine\n")

	if _, err := a.Lint(context.Background(), fixture); err == nil {
		t.Fatal("expected error for invalid JSON output")
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	opts := OptionsFromConfig(cfg)
	want := Options{
		Command: "hadolint",
		Args:    []string{"--no-color"},
		Format:  config.FormatText,
		Timeout: cfg.Timeout,
	}
	if diff := cmp.Diff(want, opts); diff != "" {
		t.Errorf("OptionsFromConfig() mismatch (-want +got):\n%s", diff)
	}
}

func TestFindings_NilMarshalsNull(t *testing.T) {
	var f Findings
	data, err := json.Marshal(struct {
		After Findings `json:"after"`
	}{f})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `{"after":null}` {
		t.Errorf("got %s", data)
	}
}

func TestFindings_UnmarshalJSON(t *testing.T) {
	var got struct {
		Before Findings `json:"before"`
		After  Findings `json:"after"`
	}
	if err := json.Unmarshal([]byte(`{"before":["DL3008","DL3009","DL3008"],"after":null}`), &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if diff := cmp.Diff([]string{"DL3008", "DL3009"}, got.Before.Sorted()); diff != "" {
		t.Errorf("before mismatch (-want +got):\n%s", diff)
	}
	if got.After != nil {
		t.Errorf("after = %v, want nil", got.After)
	}
}
