package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/astralkn/termprogress/internal/term"
	"github.com/astralkn/termprogress/log"
	"github.com/astralkn/termprogress/progress"
)

var version = "master"

func main() {
	err := runMain(os.Args[0], os.Args[1:])
	switch {
	case err == nil:
		return
	case errors.Is(err, context.Canceled):
		log.Warnf("interrupted")
		os.Exit(1)
	default:
		log.Error(err.Error())
		os.Exit(1)
	}
}

func runMain(name string, args []string) error {
	flags, opts := setupFlags(name)
	switch err := flags.Parse(args); {
	case err == pflag.ErrHelp:
		return nil
	case err != nil:
		usage(opts.stderr, name, flags)
		return err
	}
	setupLogging(opts)

	if opts.version {
		fmt.Fprintf(opts.stdout, "termprogress version %s\n", version)
		return nil
	}
	return run(opts)
}

func setupFlags(name string) (*pflag.FlagSet, *options) {
	opts := &options{
		target:   &targetValue{value: targetAuto},
		onFinish: &finishPolicyValue{value: progress.FinishLeave},
		align:    &alignmentValue{value: progress.AlignTop},
		stdout:   os.Stdout,
		stderr:   os.Stderr,
	}
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flags.Usage = func() {
		usage(opts.stdout, name, flags)
	}
	flags.IntVar(&opts.bars, "bars", 3, "number of simulated workers")
	flags.Uint64Var(&opts.length, "length", 200, "number of steps of each worker")
	flags.StringVar(&opts.template, "template",
		lookEnvWithDefault("TERMPROGRESS_TEMPLATE", defaultTemplate),
		"template of the worker bars")
	flags.StringVar(&opts.spinnerTemplate, "spinner-template", defaultSpinnerTemplate,
		"template of the spinner")
	flags.DurationVar(&opts.refresh, "refresh", 0,
		"minimum time between two redraws, 0 for the default, negative (like -1ns) for no limit")
	flags.DurationVar(&opts.tick, "tick", 100*time.Millisecond,
		"spinner frame interval, 0 advances the spinner on updates only")
	flags.DurationVar(&opts.step, "step", 20*time.Millisecond,
		"average time a worker spends on each step")
	if err := opts.target.Set(lookEnvWithDefault("TERMPROGRESS_TARGET", targetAuto)); err != nil {
		log.Warnf("ignoring TERMPROGRESS_TARGET: %v", err)
	}
	flags.Var(opts.target, "target", "where bars are drawn: "+targetValues)
	flags.Var(opts.onFinish, "on-finish", "what happens to the line of a finished worker: "+finishPolicyValues)
	flags.Var(opts.align, "align", "where bars move when a line is removed: "+alignmentValues)
	flags.Int64Var(&opts.seed, "seed", 1, "seed of the simulated workload")
	flags.BoolVar(&opts.noColor, "no-color", color.NoColor, "disable color output")
	flags.BoolVar(&opts.debug, "debug", false, "enabled debug logging")
	flags.BoolVar(&opts.version, "version", false, "show version and exit")
	return flags, opts
}

func usage(out io.Writer, name string, flags *pflag.FlagSet) {
	fmt.Fprintf(out, `Usage:
    %[1]s [flags]

Runs simulated workers and draws their progress.

Flags:
`, name)
	flags.SetOutput(out)
	flags.PrintDefaults()
	fmt.Fprint(out, `
Template keys:
    pos len percent bar wide_bar msg wide_msg prefix spinner
    elapsed elapsed_precise eta eta_precise duration duration_precise
    per_sec bytes total_bytes bytes_per_sec
    binary_bytes binary_total_bytes binary_bytes_per_sec
    decimal_bytes decimal_total_bytes decimal_bytes_per_sec

    {key:>8} aligns, {key:8!} truncates, {bar:30.cyan/blue} styles
`)
}

func lookEnvWithDefault(key, defValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defValue
}

const (
	defaultTemplate        = "{prefix:.bold} [{elapsed}] {bar:30.cyan/blue} {pos:>4}/{len:4} {wide_msg}"
	defaultSpinnerTemplate = "{spinner:.green} {msg}"
)

type options struct {
	bars            int
	length          uint64
	template        string
	spinnerTemplate string
	refresh         time.Duration
	tick            time.Duration
	step            time.Duration
	target          *targetValue
	onFinish        *finishPolicyValue
	align           *alignmentValue
	seed            int64
	noColor         bool
	debug           bool
	version         bool

	// shims for testing
	stdout io.Writer
	stderr io.Writer
	caps   progress.Capabilities
}

func (o options) Validate() error {
	switch {
	case o.bars < 1:
		return errors.Errorf("--bars must be at least 1, got %d", o.bars)
	case o.length == 0:
		return errors.New("--length must be greater than 0")
	case o.step < 0:
		return errors.Errorf("--step must not be negative, got %v", o.step)
	}
	if _, err := progress.Compile(o.template); err != nil {
		return errors.Wrap(err, "--template")
	}
	if _, err := progress.Compile(o.spinnerTemplate); err != nil {
		return errors.Wrap(err, "--spinner-template")
	}
	return nil
}

func setupLogging(opts *options) {
	if opts.debug {
		log.SetLevel(log.DebugLevel)
	}
	color.NoColor = opts.noColor
}

func run(opts *options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	target := newTarget(opts)
	log.Debugf("drawing %d bars on a %v wide target", opts.bars, target.Width())
	mp := progress.NewMulti(target)
	mp.SetFinishPolicy(opts.onFinish.value)
	mp.SetAlignment(opts.align.value)
	defer routeLogs(mp)()

	start := time.Now()
	if err := runDemo(ctx, opts, mp); err != nil {
		return err
	}
	fmt.Fprintf(opts.stdout, "finished %d tasks in %v\n", opts.bars, time.Since(start).Round(time.Millisecond))
	return nil
}

// routeLogs prints log lines above the bars of mp, until the returned
// function is called.
func routeLogs(mp *progress.Multi) func() {
	orig := log.Output()
	w := mp.LineWriter(orig)
	log.SetOutput(w)
	return func() {
		err := w.Flush()
		log.SetOutput(orig)
		if err != nil {
			log.Debugf("failed to flush log output: %v", err)
		}
	}
}

func newTarget(opts *options) *progress.DrawTarget {
	targetOpts := progress.TargetOptions{RefreshInterval: opts.refresh}
	caps := opts.caps
	if caps == nil {
		caps = progress.FixedCapabilities{Columns: term.DefaultWidth}
		if f, ok := opts.stderr.(*os.File); ok {
			caps = term.Detect(f)
		}
	}

	switch opts.target.value {
	case targetHidden:
		return progress.Hidden()
	case targetStream:
		targetOpts.Width = caps.Width()
		return progress.NewStreamTarget(opts.stderr, targetOpts)
	case targetTerm:
		return progress.NewTermTarget(opts.stderr, caps, targetOpts)
	}
	if caps.IsTerminal() {
		return progress.NewTermTarget(opts.stderr, caps, targetOpts)
	}
	if opts.refresh == 0 {
		targetOpts.RefreshInterval = time.Second
	}
	targetOpts.Width = caps.Width()
	return progress.NewStreamTarget(opts.stderr, targetOpts)
}
