package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/loomui/loom/internal/config"
	"github.com/loomui/loom/pkg/host"
	"github.com/loomui/loom/pkg/protocol"
)

func doctorCmd() *cobra.Command {
	var (
		endpoint string
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Probe an engine endpoint end to end",
		Long: `Connect to a native engine, create a probe window, wait for it to
report ready, and close it again.

Doctor exercises the full call path: transport, window creation,
readiness polling, and teardown. A clean run means the engine is
reachable and speaking the expected protocol.

Examples:
  loom doctor
  loom doctor --endpoint=ws://127.0.0.1:7933/loom`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(endpoint, timeout)
		},
	}

	cmd.Flags().StringVarP(&endpoint, "endpoint", "e", "", "Engine endpoint (default from loom.yaml)")
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 10*time.Second, "Overall probe timeout")

	return cmd
}

func runDoctor(endpoint string, timeout time.Duration) error {
	cfg, err := config.Load(".")
	if err != nil {
		return err
	}
	if endpoint == "" {
		endpoint = cfg.Host.Endpoint
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	info("probing %s", endpoint)

	conn, err := host.Dial(ctx, endpoint)
	if err != nil {
		errorMsg("transport: %s", err)
		return err
	}
	success("transport connected")

	bridge := host.NewBridge(conn, nil)
	defer bridge.Close()

	windowID, err := bridge.CreateWindow(ctx, protocol.WindowConfig{
		Width:  320,
		Height: 240,
		Title:  "loom doctor probe",
	})
	if err != nil {
		errorMsg("create window: %s", err)
		return err
	}
	success("window %d created", windowID)

	start := time.Now()
	if err := host.WaitReady(ctx, bridge, windowID, host.DefaultReadyDeadline); err != nil {
		errorMsg("readiness: %s", err)
		return err
	}
	success("window ready after %s", time.Since(start).Round(time.Millisecond))

	if err := bridge.CloseWindow(ctx, windowID); err != nil {
		errorMsg("close window: %s", err)
		return err
	}
	success("window closed")

	return nil
}
