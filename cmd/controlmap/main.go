// Package main is the entry point for the controlmap input engine.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dshills/controlmap/internal/app"
	"github.com/dshills/controlmap/internal/button"
	"github.com/dshills/controlmap/internal/config"
	"github.com/dshills/controlmap/internal/dispatch"
	"github.com/dshills/controlmap/internal/hardware"
	"github.com/dshills/controlmap/internal/macro"
	"github.com/dshills/controlmap/internal/mapping"
	"github.com/dshills/controlmap/internal/script"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

type options struct {
	configPath  string
	profilePath string
	devicePath  string
	logLevel    string
	simulate    bool
	setButton   string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	if opts.setButton != "" {
		return runSetButton(opts.profilePath, opts.setButton)
	}

	tuning, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if opts.logLevel != "" {
		tuning.LogLevel = opts.logLevel
	}

	logger := app.NewLogger(app.LoggerConfig{
		Level:  app.ParseLogLevel(tuning.LogLevel),
		Output: os.Stderr,
		Prefix: "controlmap",
	})

	profile, err := loadProfile(opts.profilePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		cancel()
	}()

	if opts.simulate {
		return runSimulator(ctx, tuning, profile, logger)
	}
	return runHardware(ctx, opts, tuning, profile, logger)
}

// buildPipeline wires the dispatcher and pipeline around a simulator.
func buildPipeline(tuning config.Tuning, profile *mapping.Profile, logger *app.Logger, sim dispatch.Simulator) (*app.Pipeline, *dispatch.Dispatcher, *script.Engine) {
	mods := dispatch.NewModifierLedger(sim)
	scripts := script.NewEngine(sim)
	d := dispatch.New(sim, mods, macro.NewPlayer(sim), scripts, logCommands{logger})

	pitch, roll := tuning.MotionConfigs()
	pipe := app.NewPipeline(app.Options{
		Classifier: tuning.ClassifierConfig(),
		Pitch:      pitch,
		Roll:       roll,
		AnalogPoll: tuning.AnalogPollInterval(),
		Logger:     logger,
	}, d, profile)
	return pipe, d, scripts
}

// runHardware attaches to a joystick device and feeds the pipeline
// until the context ends or the device goes away.
func runHardware(ctx context.Context, opts options, tuning config.Tuning, profile *mapping.Profile, logger *app.Logger) int {
	sim := newLogSimulator(logger)
	pipe, d, scripts := buildPipeline(tuning, profile, logger, sim)
	defer func() {
		pipe.Close()
		_ = d.Close()
		scripts.Close()
	}()

	pipe.Start(ctx)
	pipe.Enable()

	dev, err := openDevice(ctx, opts.devicePath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer dev.Close()

	info := dev.Info()
	logger.Info("attached: %s (%d buttons, %d axes)", info.Model, info.Buttons, info.Axes)

	if err := dev.Run(ctx, pipe); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// openDevice opens the named device, or the first present one, or
// waits for a device to appear when none is connected yet.
func openDevice(ctx context.Context, path string, logger *app.Logger) (*hardware.Device, error) {
	if path != "" {
		return hardware.Open(path)
	}
	dev, err := hardware.OpenFirst()
	if err == nil {
		return dev, nil
	}
	if !errors.Is(err, hardware.ErrNoDevice) {
		return nil, err
	}

	logger.Info("no controller present, waiting for one")
	found := make(chan string, 1)
	watchCtx, stop := context.WithCancel(ctx)
	defer stop()
	go func() {
		_ = hardware.Watch(watchCtx, func(p string) {
			select {
			case found <- p:
			default:
			}
		})
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case p := <-found:
		return hardware.Open(p)
	}
}

// runSetButton patches one button binding in the profile file and
// exits: the one-shot profile editing mode of the binary.
func runSetButton(profilePath, spec string) int {
	if profilePath == "" {
		fmt.Fprintln(os.Stderr, "Error: -set-button requires -profile")
		return 1
	}
	doc, err := os.ReadFile(profilePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: reading profile %s: %v\n", profilePath, err)
		return 1
	}
	patched, err := setButtonPatch(doc, spec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	// The patched document must still load as a profile before it
	// replaces the file.
	if _, err := mapping.LoadProfile(patched); err != nil {
		fmt.Fprintf(os.Stderr, "Error: patched profile: %v\n", err)
		return 1
	}
	if err := os.WriteFile(profilePath, patched, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: writing profile %s: %v\n", profilePath, err)
		return 1
	}
	return 0
}

// setButtonPatch applies a "button=binding" edit to a profile document.
// The binding is a +-joined modifier list ending in a key name
// ("c", "control+c", "shift"); an empty binding removes the mapping.
func setButtonPatch(doc []byte, spec string) ([]byte, error) {
	name, binding, ok := strings.Cut(spec, "=")
	if !ok {
		return nil, fmt.Errorf("set-button %q: want button=binding", spec)
	}
	b, err := button.Parse(strings.TrimSpace(name))
	if err != nil {
		return nil, fmt.Errorf("set-button: %w", err)
	}
	m, err := parseBinding(strings.TrimSpace(binding))
	if err != nil {
		return nil, fmt.Errorf("set-button %q: %w", spec, err)
	}
	return mapping.SetButtonMapping(doc, b, m)
}

// parseBinding parses a +-joined binding. Every part before the last
// must be a modifier; the last may be a key or a lone modifier
// ("shift" taps shift by itself).
func parseBinding(s string) (mapping.KeyMapping, error) {
	var m mapping.KeyMapping
	if s == "" {
		return m, nil
	}
	parts := strings.Split(s, "+")
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if i < len(parts)-1 {
			mod, ok := mapping.ParseModifier(part)
			if !ok {
				return mapping.KeyMapping{}, fmt.Errorf("unknown modifier %q", part)
			}
			m.Modifiers |= mod
			continue
		}
		if key, ok := mapping.ParseKeyCode(part); ok {
			m.Key = key
		} else if mod, ok := mapping.ParseModifier(part); ok {
			m.Modifiers |= mod
		} else {
			return mapping.KeyMapping{}, fmt.Errorf("unknown key %q", part)
		}
	}
	return m, nil
}

// loadProfile reads the profile file, or returns an empty profile with
// default analog settings when no path is given.
func loadProfile(path string) (*mapping.Profile, error) {
	if path == "" {
		return mapping.NewProfile("default"), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile %s: %w", path, err)
	}
	p, err := mapping.LoadProfile(data)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", path, err)
	}
	return p, nil
}

// logCommands is the SystemRunner used when no overlay layer exists:
// system commands are logged rather than acted on.
type logCommands struct {
	log *app.Logger
}

func (c logCommands) Execute(cmd string) error {
	c.log.Info("system command: %s", cmd)
	return nil
}

func parseFlags() options {
	var opts options
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.configPath, "config", "", "Path to tuning configuration file")
	flag.StringVar(&opts.configPath, "c", "", "Path to tuning configuration file (shorthand)")
	flag.StringVar(&opts.profilePath, "profile", "", "Path to mapping profile JSON")
	flag.StringVar(&opts.profilePath, "p", "", "Path to mapping profile JSON (shorthand)")
	flag.StringVar(&opts.devicePath, "device", "", "Joystick device path (default: first found)")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&opts.simulate, "simulate", false, "Run the terminal controller simulator")
	flag.BoolVar(&opts.simulate, "s", false, "Run the terminal controller simulator (shorthand)")
	flag.StringVar(&opts.setButton, "set-button", "", "Patch one binding in the profile file and exit (button=binding)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "controlmap - controller input classification and dispatch engine\n\n")
		fmt.Fprintf(os.Stderr, "Usage: controlmap [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  controlmap -p profile.json        Run against the first controller\n")
		fmt.Fprintf(os.Stderr, "  controlmap -s -p profile.json     Run the terminal simulator\n")
		fmt.Fprintf(os.Stderr, "  controlmap -c tuning.toml         Run with custom tuning\n")
		fmt.Fprintf(os.Stderr, "  controlmap -p profile.json -set-button y=control+c\n")
		fmt.Fprintf(os.Stderr, "                                    Rebind Y to Ctrl+C and exit\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if showVersion {
		fmt.Printf("controlmap %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		os.Exit(0)
	}

	if opts.logLevel != "" {
		switch opts.logLevel {
		case "debug", "info", "warn", "error":
		default:
			fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.logLevel)
			os.Exit(1)
		}
	}

	return opts
}
