package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
)

func TestGroupFlags(t *testing.T) {
	flags := []flag{
		{flags: "-h, --help"},
		{flags: "--codec", group: "Encoding"},
		{flags: "--width", group: "Waveform"},
		{flags: "--bitrate", group: "Encoding"},
		{flags: "--version"},
	}

	sections := groupFlags(flags)
	if len(sections) != 3 {
		t.Fatalf("Expected 3 sections, got %d", len(sections))
	}

	want := []struct {
		title string
		flags []string
	}{
		{generalGroup, []string{"-h, --help", "--version"}},
		{"Encoding", []string{"--codec", "--bitrate"}},
		{"Waveform", []string{"--width"}},
	}
	for i, w := range want {
		if sections[i].title != w.title {
			t.Errorf("Section %d: expected %q, got %q", i, w.title, sections[i].title)
			continue
		}
		for j, name := range w.flags {
			if j >= len(sections[i].flags) || sections[i].flags[j].flags != name {
				t.Errorf("Section %q: expected flag %d to be %s", w.title, j, name)
			}
		}
	}
}

func TestStyledHelpPrinter(t *testing.T) {
	var cli struct {
		Input   string `arg:"" help:"Input audio file" optional:""`
		Codec   string `group:"Encoding" help:"Output codec" enum:"mp3,pcm" default:"mp3"`
		Metrics string `name:"metrics-file" group:"Logging and metrics" help:"Metrics textfile" placeholder:"PATH"`
	}

	var out bytes.Buffer
	exited := false
	parser, err := kong.New(&cli,
		kong.Name("emberwave"),
		kong.Writers(&out, &out),
		kong.Exit(func(int) { exited = true }),
		kong.Help(StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)
	if err != nil {
		t.Fatalf("kong.New failed: %v", err)
	}
	_, _ = parser.Parse([]string{"--help"})
	if !exited {
		t.Error("Expected --help to exit")
	}

	help := out.String()
	for _, want := range []string{
		"Usage:",
		"Encoding:",
		"--codec",
		"[mp3|pcm]",
		"(default: mp3)",
		"Logging and metrics:",
		"--metrics-file=PATH",
		"Examples:",
	} {
		if !strings.Contains(help, want) {
			t.Errorf("Expected help to contain %q, got:\n%s", want, help)
		}
	}
	if strings.Index(help, "Encoding:") > strings.Index(help, "Logging and metrics:") {
		t.Error("Expected sections in declaration order")
	}
}
