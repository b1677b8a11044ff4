package main

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"i4.energy/across/atprobe/modem"
	"i4.energy/across/atprobe/ports"
	"i4.energy/across/atprobe/report"
)

// errNoPortDetected is returned when no port was given and discovery found
// none.
var errNoPortDetected = errors.New("no serial port detected, specify one with --port")

// App runs one probe session against a modem.
type App struct {
	Config *Config
	Finder ports.Finder
	// Dial returns the dialer for a port. Nil means a serial port.
	Dial func(port string, baud int) modem.Dialer
	// Sleep replaces the pauses between commands when set.
	Sleep  modem.SleepFunc
	Out    io.Writer
	Logger *slog.Logger
}

func (a *App) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.Logger
}

func (a *App) dialer(port string) modem.Dialer {
	if a.Dial != nil {
		return a.Dial(port, a.Config.BaudRate)
	}
	return modem.SerialDialer{
		PortName: port,
		BaudRate: a.Config.BaudRate,
		Trace:    a.Config.Verbose,
		Logger:   a.logger().With("component", "trace"),
	}
}

// Run selects the port, opens the session, probes the modem and, when an APN
// is configured, sets and activates it. The session is closed on every path.
func (a *App) Run(ctx context.Context) error {
	logger := a.logger()
	out := report.New(a.Out)

	port := a.Config.SerialPort
	if port == "" {
		var ok bool
		port, ok = a.Finder.ChooseAuto()
		if !ok {
			return errNoPortDetected
		}
		out.Notef("Auto-selected serial port: %s", port)
	}
	logger.Info("Opening modem", "port", port, "baud", a.Config.BaudRate)

	builder := modem.NewConfigBuilder().
		WithDialer(a.dialer(port)).
		WithLogger(logger.With("component", "modem"))
	if a.Sleep != nil {
		builder.WithSleep(a.Sleep)
	}
	modemConfig, err := builder.Build()
	if err != nil {
		return err
	}

	m, err := modem.New(ctx, modemConfig)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			logger.Debug("Ignoring close failure", "port", port, "error", err)
		}
	}()

	out.Notef("\nProbing basic AT status, copy all of the output below:")
	if _, err := m.ProbeAll(ctx, out); err != nil {
		return err
	}

	if a.Config.APN == "" {
		out.Notef("\nTo set an APN and activate the PDP context, run again with --apn <name>")
		out.Notef("Example: atprobe --port %s --apn internet", port)
		return nil
	}

	_, err = m.ConfigureAPN(ctx, a.Config.APN, out)
	return err
}
