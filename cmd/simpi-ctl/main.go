// Command simpi-ctl is a small interactive driver for the simulated GPIO
// client library, standing in for the hand-written test programs the
// original project used to exercise a broker manually (blinky, check_buttons).
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/patrickgold/simpi/client"
	"github.com/patrickgold/simpi/transport"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "simpi-ctl: %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var host string
	var port int
	var verbose bool

	root := &cobra.Command{
		Use:   "simpi-ctl",
		Short: "Drive a simulated GPIO broker for manual testing",
	}
	root.PersistentFlags().StringVar(&host, "host", transport.DefaultHost, "broker address")
	root.PersistentFlags().IntVar(&port, "port", transport.DefaultPort, "broker port")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug-level logging")

	newCtlClient := func() *client.Client {
		log := logrus.StandardLogger()
		if verbose {
			log.SetLevel(logrus.DebugLevel)
		}
		c := client.New(host, port, log)
		c.Setup()
		return c
	}

	root.AddCommand(newBlinkCmd(&newCtlClient))
	root.AddCommand(newWatchCmd(&newCtlClient))
	return root
}

// newBlinkCmd ports blinky.c: drive a set of output pins low-then-high on a
// fixed period until interrupted, turning them off again on exit.
func newBlinkCmd(newCtlClient *func() *client.Client) *cobra.Command {
	var pins []int
	var periodMs uint

	cmd := &cobra.Command{
		Use:   "blink",
		Short: "Toggle a set of pins on a fixed interval",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(pins) == 0 {
				pins = []int{18, 23, 24, 25}
			}
			c := (*newCtlClient)()
			defer c.Close()

			for _, p := range pins {
				c.PinMode(p, client.Output)
			}

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

			fmt.Println("blinking. press ctrl+c to stop.")
			for {
				select {
				case <-stop:
					for _, p := range pins {
						c.DigitalWrite(p, client.Low)
					}
					fmt.Println("\nstopped, LEDs off")
					return nil
				default:
				}
				for _, p := range pins {
					c.DigitalWrite(p, client.Low)
				}
				c.Delay(periodMs)
				for _, p := range pins {
					c.DigitalWrite(p, client.High)
				}
				c.Delay(periodMs)
			}
		},
	}
	cmd.Flags().IntSliceVar(&pins, "pin", nil, "pin to toggle (repeatable; default 18,23,24,25)")
	cmd.Flags().UintVar(&periodMs, "period-ms", 250, "half-period between toggles")
	return cmd
}

// newWatchCmd ports check_buttons.c: poll a set of input pins and print
// their levels on one rewritten line until interrupted.
func newWatchCmd(newCtlClient *func() *client.Client) *cobra.Command {
	var pins []int
	var periodMs uint

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll and print a set of input pins",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(pins) == 0 {
				pins = []int{22, 27, 17}
			}
			c := (*newCtlClient)()
			defer c.Close()

			for _, p := range pins {
				c.PinMode(p, client.Input)
			}

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

			for {
				select {
				case <-stop:
					fmt.Println("\nterminating")
					return nil
				default:
				}
				levels := make([]string, len(pins))
				for i, p := range pins {
					levels[i] = fmt.Sprintf("pin%d=%d", p, c.DigitalRead(p))
				}
				fmt.Printf("\r%s     ", strings.Join(levels, "  "))
				c.Delay(periodMs)
			}
		},
	}
	cmd.Flags().IntSliceVar(&pins, "pin", nil, "pin to watch (repeatable; default 22,27,17)")
	cmd.Flags().UintVar(&periodMs, "period-ms", 100, "poll interval")
	return cmd
}
