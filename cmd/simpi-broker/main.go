// Command simpi-broker runs the authoritative GPIO register broker: a small
// HTTP service simulated clients talk to in place of real Raspberry Pi
// hardware.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/patrickgold/simpi/broker"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "simpi-broker: %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	log := logrus.StandardLogger()

	cmd := &cobra.Command{
		Use:   "simpi-broker",
		Short: "Simulated Raspberry Pi GPIO register broker",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), v, log)
		},
	}

	flags := cmd.Flags()
	flags.String("host", broker.DefaultHost, "address to bind to")
	flags.Int("port", broker.DefaultPort, "port to bind to")
	flags.String("prefs", "", "path to the persisted preferences file (defaults per-platform)")
	flags.Bool("verbose", false, "enable debug-level logging")
	_ = v.BindPFlag("host", flags.Lookup("host"))
	_ = v.BindPFlag("port", flags.Lookup("port"))
	_ = v.BindPFlag("prefs_path", flags.Lookup("prefs"))
	_ = v.BindPFlag("verbose", flags.Lookup("verbose"))
	v.SetEnvPrefix("SIMPI")
	v.AutomaticEnv()

	return cmd
}

func run(ctx context.Context, v *viper.Viper, log *logrus.Logger) error {
	if v.GetBool("verbose") {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg, err := broker.LoadConfig(v)
	if err != nil {
		return err
	}
	b := broker.New(cfg, log)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return b.ListenAndServe()
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-b.Done():
		}
		log.Info("shutting down")
		return b.Close()
	})

	return g.Wait()
}
