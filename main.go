package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"i4.energy/across/atprobe/modem"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := newRootCommand(&App{}).ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// newRootCommand builds the CLI around app. Fields of app left empty are
// filled from the command line and environment.
func newRootCommand(app *App) *cobra.Command {
	var (
		configPath string
		listPorts  bool
	)

	cmd := &cobra.Command{
		Use:           "atprobe",
		Short:         "Probe a cellular modem with AT commands and optionally activate an APN",
		Args: func(cmd *cobra.Command, args []string) error {
			return usageError(cmd, cobra.NoArgs(cmd, args))
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := LoadConfig(WithDefaults(), WithFile(configPath), WithEnv(), WithFlags(cmd.Flags()))
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Failed to load configuration: %v\n", err)
				return err
			}

			logger := newLogger(cmd.ErrOrStderr(), config.LogLevel)
			app.Finder.Logger = logger.With("component", "ports")

			if listPorts {
				for _, p := range app.Finder.List() {
					fmt.Fprintln(cmd.OutOrStdout(), p)
				}
				return nil
			}

			app.Config = config
			app.Out = cmd.OutOrStdout()
			app.Logger = logger

			err = app.Run(cmd.Context())
			var openErr *modem.OpenError
			switch {
			case err == nil:
				return nil
			case errors.Is(err, errNoPortDetected):
				fmt.Fprintln(cmd.ErrOrStderr(), "Could not detect a serial port automatically, specify one with --port")
			case errors.As(err, &openErr):
				fmt.Fprintf(cmd.ErrOrStderr(), "Failed to open serial port: %v\n", openErr.Err)
			default:
				fmt.Fprintf(cmd.ErrOrStderr(), "Probe aborted: %v\n", err)
			}
			logger.Error("Run failed", "error", err)
			return err
		},
	}

	cmd.SetFlagErrorFunc(usageError)

	flags := cmd.Flags()
	flags.StringP("port", "p", "", "serial device path, e.g. /dev/cu.usbmodem123 (detected when empty)")
	flags.IntP("baud", "b", modem.DefaultBaudRate, "baud rate for serial communication")
	flags.String("apn", "", "APN to set and activate after probing")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.BoolP("verbose", "v", false, "trace raw modem I/O")
	flags.StringVar(&configPath, "config", "", "YAML configuration file")
	flags.BoolVar(&listPorts, "list-ports", false, "list candidate serial ports and exit")

	return cmd
}

// usageError reports a command line error with the usage text. Errors from
// RunE are reported there, so the command silences cobra's own printing.
func usageError(cmd *cobra.Command, err error) error {
	if err == nil {
		return nil
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n%s", err, cmd.UsageString())
	return err
}

func newLogger(w io.Writer, level string) *slog.Logger {
	logLevel := slog.LevelInfo
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logLevel}))
}
