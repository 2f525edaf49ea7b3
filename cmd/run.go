package cmd

import (
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/DavidRHannah/IRKeybridge/pkg/actuator"
	"github.com/DavidRHannah/IRKeybridge/pkg/config"
	"github.com/DavidRHannah/IRKeybridge/pkg/controller"
	"github.com/DavidRHannah/IRKeybridge/pkg/mapper"
	"github.com/DavidRHannah/IRKeybridge/pkg/receiver"
)

// sourceFlags are the transport overrides shared by run and monitor.
type sourceFlags struct {
	port string
	baud int
	lirc string
}

// register adds the transport flags to a flag set.
func (f *sourceFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.port, "port", "", "serial port of the IR receiver (overrides settings)")
	fs.IntVar(&f.baud, "baud", 0, "serial baud rate (overrides settings)")
	fs.StringVar(&f.lirc, "lirc", "", "read from a lircd socket instead of serial")
}

// build creates the code source the flags select, falling back to settings.
func (f *sourceFlags) build(settings *config.Manager, log *logrus.Logger) receiver.Source {
	if f.lirc != "" {
		return receiver.NewLIRC(f.lirc, log)
	}
	if settings.Settings.LIRCSocket != "" && f.port == "" {
		return receiver.NewLIRC(settings.Settings.LIRCSocket, log)
	}
	port := f.port
	if port == "" {
		port = settings.Settings.SerialPort
	}
	baud := f.baud
	if baud == 0 {
		baud = settings.Settings.BaudRate
	}
	return receiver.NewSerial(port, baud, log)
}

func init() {
	var (
		src         sourceFlags
		profileName string
		dryRun      bool
		tapMode     bool
		ghostMode   bool
		noRepeat    bool
	)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the remote-to-keyboard bridge",
		Long: `Connect to the IR receiver, load a profile and translate remote button
presses into keyboard input until interrupted or a stop button is pressed.

Examples:
  irkeybridge run                          # last used (or first) profile, serial
  irkeybridge run --profile Vizio_Generic_TV_Remote.json
  irkeybridge run --port /dev/ttyACM0 --baud 115200
  irkeybridge run --lirc /var/run/lirc/lircd
  irkeybridge run --dry-run -v             # log key operations, inject nothing`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, store, err := loadEnv()
			if err != nil {
				return err
			}

			var act mapper.Actuator = actuator.NewKeyboard()
			if dryRun {
				act = actuator.NewLogging(log)
			}
			m := mapper.New(act, settings.Settings.MapperConfig(), log)
			m.SetSingleTapEnabled(tapMode)
			m.SetGhostEnabled(ghostMode)
			m.SetRepeatEnabled(!noRepeat)

			ctl := controller.New(settings, store, src.build(settings, log), m, log)
			if err := ctl.Start(profileName); err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			log.Info("Press any button on the remote to test, STOP button to exit")
			err = ctl.Run(ctx)
			stats := ctl.Status().Receiver
			log.Infof("session ended: %d tokens received (%d repeats, %d dropped, %d malformed)",
				stats.Received, stats.Repeats, stats.Dropped, stats.Malformed)
			return err
		},
	}

	src.register(runCmd.Flags())
	runCmd.Flags().StringVarP(&profileName, "profile", "p", "", "profile filename to load")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "log key operations instead of injecting them")
	runCmd.Flags().BoolVar(&tapMode, "tap", false, "start in single tapping mode")
	runCmd.Flags().BoolVar(&ghostMode, "ghost", false, "start with the ghost key workaround enabled")
	runCmd.Flags().BoolVar(&noRepeat, "no-repeat", false, "disable repeat firing while a button is held")

	rootCmd.AddCommand(runCmd)
}
