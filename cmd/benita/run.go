package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/benita-io/benita-go/cmd/benita/interactive"
	"github.com/benita-io/benita-go/pkg/config"
	"github.com/benita-io/benita-go/pkg/discovery"
	protolog "github.com/benita-io/benita-go/pkg/log"
	"github.com/benita-io/benita-go/pkg/metrics"
	"github.com/benita-io/benita-go/pkg/service"
)

const (
	exitOK    = 0
	exitSetup = 1
	exitUsage = 2

	metricsShutdownTimeout = 2 * time.Second
)

// lineSource is an interactive input that must be released after use.
type lineSource interface {
	service.LineSource
	io.Closer
}

// app holds the process environment so tests can replace it.
type app struct {
	stdout io.Writer
	stderr io.Writer
	lookup config.LookupFunc

	// openSource creates the interactive line source.
	openSource func(prompt, history string) (lineSource, error)
}

func newApp() *app {
	return &app{
		stdout: os.Stdout,
		stderr: os.Stderr,
		lookup: os.LookupEnv,
		openSource: func(prompt, history string) (lineSource, error) {
			return interactive.New(prompt, history)
		},
	}
}

// run executes one command line and returns the exit status.
func (a *app) run(ctx context.Context, args []string) int {
	inv, err := parseArgs(args, a.stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return exitUsage
	}

	if err := a.execute(ctx, inv); err != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		if errors.Is(err, errUsage) {
			return exitUsage
		}
		return exitSetup
	}
	return exitOK
}

func (a *app) execute(ctx context.Context, inv *invocation) error {
	if inv.EnvFile != "" {
		if err := config.LoadDotEnv(inv.EnvFile); err != nil {
			return fmt.Errorf("failed to load %s: %w", inv.EnvFile, err)
		}
	}
	cfg, err := config.LoadFile(inv.ConfigFile)
	if err != nil {
		return err
	}
	cfg.ApplyEnv(a.lookup)

	level := firstNonEmpty(inv.LogLevel, cfg.LogLevel)
	logger, err := newLogger(level, a.stderr)
	if err != nil {
		return err
	}

	switch inv.Mode {
	case ModeRequest:
		err = a.runRequest(ctx, inv, cfg, logger)
	case ModeRespond:
		err = a.runRespond(ctx, inv, cfg, logger)
	case ModeSensor:
		err = a.runSensor(ctx, inv, cfg, logger)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func newLogger(level string, w io.Writer) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, usageErrorf("invalid log level %q", level)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

func (a *app) runRequest(ctx context.Context, inv *invocation, cfg *config.Config, logger *slog.Logger) error {
	url, err := config.Resolve(inv.URL, cfg.Endpoint(inv.Kind).ReqURL, inv.Kind, config.EnvReqURL)
	if err != nil {
		if !inv.Discover {
			return fmt.Errorf("%w: %w", errUsage, err)
		}
		if url, err = a.discover(ctx, inv, logger); err != nil {
			return err
		}
	}

	plog, closeLog, err := protocolLogger(ctx, firstNonEmpty(inv.ProtocolLog, cfg.ProtocolLog), logger)
	if err != nil {
		return err
	}
	defer closeLog()

	req, err := service.NewRequester(ctx, inv.Kind, url, service.RequesterConfig{
		ProtocolLogger: plog,
		Logger:         logger,
	})
	if err != nil {
		return err
	}
	defer req.Close()

	logger.Debug("connected to responder", "kind", inv.Kind, "url", url)
	return a.evaluate(ctx, inv, cfg, req)
}

func (a *app) discover(ctx context.Context, inv *invocation, logger *slog.Logger) (string, error) {
	browser := discovery.NewMDNSBrowser(discovery.BrowserConfig{Interface: inv.Interface})
	svc, err := browser.Find(ctx, inv.Kind)
	if err != nil {
		return "", fmt.Errorf("discovery failed: %w", err)
	}
	logger.Info("discovered responder", "instance", svc.InstanceName, "url", svc.URL())
	return svc.URL(), nil
}

func (a *app) runRespond(ctx context.Context, inv *invocation, cfg *config.Config, logger *slog.Logger) error {
	ep := cfg.Endpoint(inv.Kind)
	url, err := config.Resolve(inv.URL, ep.RepURL, inv.Kind, config.EnvRepURL)
	if err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	path, address, err := resolveDevice(inv, ep)
	if err != nil {
		return err
	}

	rcfg := service.DefaultResponderConfig()
	rcfg.Quiescence = cfg.Quiescence
	if inv.QuiescenceSet {
		rcfg.Quiescence = inv.Quiescence
	}
	rcfg.Logger = logger

	plog, closeLog, err := protocolLogger(ctx, firstNonEmpty(inv.ProtocolLog, cfg.ProtocolLog), logger)
	if err != nil {
		return err
	}
	defer closeLog()
	rcfg.ProtocolLogger = plog

	if addr := firstNonEmpty(inv.MetricsAddr, cfg.MetricsAddr); addr != "" {
		collector := metrics.NewCollector()
		srv := metrics.NewServer(addr, collector, logger)
		if err := srv.Start(); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
			defer cancel()
			_ = srv.Stop(stopCtx)
		}()
		rcfg.Metrics = collector
		logger.Info("metrics server started", "addr", srv.Addr().String())
	}

	resp, err := service.OpenResponder(ctx, inv.Kind, url, path, address, rcfg)
	if err != nil {
		return err
	}
	defer resp.Close()

	if inv.Advertise || cfg.Advertise {
		adv, err := advertise(ctx, inv, resp, path, address)
		if err != nil {
			logger.Warn("mDNS advertising disabled", "error", err)
		} else {
			defer adv.Stop()
			logger.Info("advertising responder", "instance", adv.InstanceName())
		}
	}

	logger.Info("responder ready",
		"kind", inv.Kind,
		"endpoint", resp.Endpoint().String(),
		"device", path,
		"quiescence", rcfg.Quiescence)
	return resp.Serve(ctx)
}

func advertise(ctx context.Context, inv *invocation, resp *service.Responder, path string, address uint32) (*discovery.MDNSAdvertiser, error) {
	info, err := discovery.InfoForEndpoint(inv.Kind, resp.Endpoint())
	if err != nil {
		return nil, err
	}
	info.DevicePath = path
	info.DeviceAddress = address

	acfg := discovery.DefaultAdvertiserConfig()
	acfg.Interface = inv.Interface
	adv := discovery.NewMDNSAdvertiser(acfg)
	if err := adv.Advertise(ctx, info); err != nil {
		return nil, err
	}
	return adv, nil
}

func (a *app) runSensor(ctx context.Context, inv *invocation, cfg *config.Config, logger *slog.Logger) error {
	path, address, err := resolveDevice(inv, cfg.Endpoint(inv.Kind))
	if err != nil {
		return err
	}

	local, err := service.OpenLocal(inv.Kind, path, address, nil, logger)
	if err != nil {
		return err
	}
	defer local.Close()

	return a.evaluate(ctx, inv, cfg, local)
}

// resolveDevice picks the device path and address. -simulate selects the
// in-process simulator of the kind and needs neither.
func resolveDevice(inv *invocation, ep config.Endpoint) (string, uint32, error) {
	if inv.Simulate {
		address, err := config.ParseAddress(inv.Address)
		if err != nil {
			return "", 0, fmt.Errorf("%w: %w", errUsage, err)
		}
		return "sim:" + inv.Kind.String(), address, nil
	}

	path, err := config.Resolve(inv.Path, ep.Path, inv.Kind, config.EnvRepPath)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %w", errUsage, err)
	}
	text, err := config.Resolve(inv.Address, ep.Address, inv.Kind, config.EnvRepAddress)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %w", errUsage, err)
	}
	address, err := config.ParseAddress(text)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %w", errUsage, err)
	}
	return path, address, nil
}

// evaluate runs the batch given with -c, or an interactive session.
func (a *app) evaluate(ctx context.Context, inv *invocation, cfg *config.Config, ev service.Evaluator) error {
	if inv.Batch() {
		return service.RunBatch(ctx, ev, inv.Commands, a.stdout)
	}

	history := firstNonEmpty(inv.History, cfg.History, interactive.DefaultHistoryPath())
	src, err := a.openSource(inv.Kind.String()+"> ", history)
	if err != nil {
		return err
	}
	defer src.Close()

	out := a.stdout
	if s, ok := src.(interface{ Stdout() io.Writer }); ok {
		out = s.Stdout()
	}
	return service.RunInteractive(ctx, ev, src, out)
}

// protocolLogger opens the capture file at path, if any, and mirrors events
// to logger at debug level. The returned logger is nil when neither applies.
func protocolLogger(ctx context.Context, path string, logger *slog.Logger) (protolog.Logger, func() error, error) {
	var file, mirror protolog.Logger
	closeFn := func() error { return nil }

	if path != "" {
		fl, err := protolog.NewFileLogger(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open protocol log: %w", err)
		}
		file = fl
		closeFn = fl.Close
	}
	if logger.Enabled(ctx, slog.LevelDebug) {
		mirror = protolog.NewSlogAdapter(logger)
	}
	return protolog.Combine(file, mirror), closeFn, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
