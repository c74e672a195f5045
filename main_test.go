package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"gotest.tools/v3/assert"
	"gotest.tools/v3/assert/cmp"
	"gotest.tools/v3/env"

	"github.com/astralkn/termprogress/internal/text"
	"github.com/astralkn/termprogress/log"
	"github.com/astralkn/termprogress/progress"
)

func TestUsage_WithFlagsFromSetupFlags(t *testing.T) {
	defer env.PatchAll(t, nil)()

	name := "termprogress"
	flags, _ := setupFlags(name)
	buf := new(bytes.Buffer)
	usage(buf, name, flags)

	out := buf.String()
	assert.Assert(t, strings.HasPrefix(out, "Usage:\n    termprogress [flags]\n"))
	assert.Assert(t, cmp.Contains(out, "number of simulated workers (default 3)"))
	assert.Assert(t, cmp.Contains(out, "--target target"))
	assert.Assert(t, cmp.Contains(out, "where bars are drawn: auto, term, stream, hidden (default auto)"))
	assert.Assert(t, cmp.Contains(out, "negative (like -1ns) for no limit"))
	assert.Assert(t, cmp.Contains(out, "Template keys:"))
	assert.Assert(t, cmp.Contains(out, "decimal_bytes_per_sec"))
	assert.Assert(t, cmp.Contains(out, "where bars move when a line is removed: top, bottom (default top)"))
}

func TestSetupFlags_NegativeRefresh(t *testing.T) {
	defer env.PatchAll(t, nil)()
	flags, opts := setupFlags("termprogress")
	flags.SetOutput(new(bytes.Buffer))

	assert.NilError(t, flags.Parse([]string{"--refresh=-1ns"}))
	assert.Assert(t, opts.refresh < 0)

	err := flags.Parse([]string{"--refresh=-1"})
	assert.ErrorContains(t, err, "missing unit")
}

func TestSetupFlags_EnvDefaults(t *testing.T) {
	defer env.PatchAll(t, map[string]string{
		"TERMPROGRESS_TEMPLATE": "{pos}",
		"TERMPROGRESS_TARGET":   "hidden",
	})()

	flags, opts := setupFlags("termprogress")
	assert.NilError(t, flags.Parse(nil))
	assert.Equal(t, opts.template, "{pos}")
	assert.Equal(t, opts.target.String(), "hidden")

	assert.NilError(t, flags.Parse([]string{"--target=stream", "--template={len}"}))
	assert.Equal(t, opts.template, "{len}")
	assert.Equal(t, opts.target.String(), "stream")
}

func TestOptions_Validate_FromFlags(t *testing.T) {
	type testCase struct {
		name     string
		args     []string
		expected string
	}
	fn := func(t *testing.T, tc testCase) {
		defer env.PatchAll(t, nil)()
		flags, opts := setupFlags("termprogress")
		assert.NilError(t, flags.Parse(tc.args))

		err := opts.Validate()
		if tc.expected == "" {
			assert.NilError(t, err)
			return
		}
		assert.ErrorContains(t, err, tc.expected, "opts: %#v", opts)
	}
	var testCases = []testCase{
		{
			name: "no flags",
		},
		{
			name:     "no bars",
			args:     []string{"--bars=0"},
			expected: "--bars must be at least 1, got 0",
		},
		{
			name:     "zero length",
			args:     []string{"--length=0"},
			expected: "--length must be greater than 0",
		},
		{
			name:     "negative step",
			args:     []string{"--step=-1s"},
			expected: "--step must not be negative",
		},
		{
			name:     "bad template",
			args:     []string{"--template={pos"},
			expected: "--template: invalid template at offset 0: unclosed '{'",
		},
		{
			name:     "bad spinner template",
			args:     []string{"--spinner-template={nope}"},
			expected: `--spinner-template: invalid template at offset 0: unknown placeholder "nope"`,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fn(t, tc)
		})
	}
}

func TestSetupFlags_InvalidValues(t *testing.T) {
	defer env.PatchAll(t, nil)()
	flags, _ := setupFlags("termprogress")
	flags.SetOutput(new(bytes.Buffer))
	err := flags.Parse([]string{"--on-finish=keep"})
	assert.ErrorContains(t, err, "must be one of: leave, erase")
}

func patchNoColor(t *testing.T) {
	orig := color.NoColor
	t.Cleanup(func() {
		color.NoColor = orig
	})
}

func newTestOptions(t *testing.T, args ...string) (*options, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	defer env.PatchAll(t, nil)()
	patchNoColor(t)

	flags, opts := setupFlags("termprogress")
	assert.NilError(t, flags.Parse(args))
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	opts.stdout, opts.stderr = stdout, stderr
	opts.caps = progress.FixedCapabilities{Columns: 80}
	setupLogging(opts)
	return opts, stdout, stderr
}

func TestRun_StreamTarget(t *testing.T) {
	opts, stdout, stderr := newTestOptions(t,
		"--bars=2", "--length=10", "--step=0", "--tick=0", "--refresh=-1ns",
		"--target=stream", "--no-color")

	assert.NilError(t, run(opts))
	assert.Assert(t, cmp.Contains(stdout.String(), "finished 2 tasks in"))

	out := text.ProcessLines(t, stderr, text.OpStripANSI, text.OpTrimRight)
	full := strings.Repeat("█", 30)
	assert.Assert(t, cmp.Contains(out, "[1/2] [0:00:00] "+full+"   10/10   done\n"))
	assert.Assert(t, cmp.Contains(out, "[2/2] [0:00:00] "+full+"   10/10   done\n"))
	assert.Assert(t, strings.HasSuffix(out, "✔ all workers done\n"), out)
}

func TestRun_HiddenTarget(t *testing.T) {
	opts, stdout, stderr := newTestOptions(t,
		"--bars=3", "--length=50", "--step=0", "--target=hidden")

	assert.NilError(t, run(opts))
	assert.Equal(t, stderr.Len(), 0)
	assert.Assert(t, cmp.Contains(stdout.String(), "finished 3 tasks in"))
}

func TestRun_InvalidOptions(t *testing.T) {
	opts, _, stderr := newTestOptions(t, "--bars=0", "--target=stream")
	assert.ErrorContains(t, run(opts), "--bars must be at least 1")
	assert.Equal(t, stderr.Len(), 0)
}

func TestNewTarget(t *testing.T) {
	opts, _, _ := newTestOptions(t)

	opts.caps = progress.FixedCapabilities{Columns: 100}
	target := newTarget(opts)
	assert.Assert(t, !target.IsHidden())
	assert.Equal(t, target.Width(), 100)

	opts.caps = progress.FixedCapabilities{Interactive: true, Cursor: true, Columns: 120}
	assert.Equal(t, newTarget(opts).Width(), 120)

	assert.NilError(t, opts.target.Set("hidden"))
	assert.Assert(t, newTarget(opts).IsHidden())
}

func TestRouteLogs(t *testing.T) {
	patchNoColor(t)
	color.NoColor = true
	screen := new(text.Screen)
	target := progress.NewTermTarget(screen,
		progress.FixedCapabilities{Interactive: true, Cursor: true, Columns: 80},
		progress.TargetOptions{RefreshInterval: -1})
	mp := progress.NewMulti(target)
	bar, err := progress.New(progress.Options{Length: 3, Template: "{pos}/{len}", Target: progress.Hidden()})
	assert.NilError(t, err)
	mp.Add(bar)

	orig := log.Output()
	restore := routeLogs(mp)
	log.Warnf("disk is slow")
	assert.Equal(t, screen.Contents(), "WARN disk is slow\n0/3")

	restore()
	assert.Equal(t, log.Output(), orig)
}
