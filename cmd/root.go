// Package cmd implements the irkeybridge command line interface.
package cmd

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/DavidRHannah/IRKeybridge/pkg/config"
	"github.com/DavidRHannah/IRKeybridge/pkg/profile"
)

var (
	flagDir     string
	flagVerbose bool

	log = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:   "irkeybridge",
	Short: "Drive a PC with an infrared remote control",
	Long: `irkeybridge turns button presses from an infrared remote, received over a
serial link from a microcontroller (or from a local lircd), into synthesized
keyboard input, so a TV remote can control media players and other
keyboard-driven applications.

Button-to-key mappings live in JSON profile files under the application
directory (~/.irkeybridge by default, override with $IRKEYBRIDGE_DIR).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDir, "dir", "", "application directory (default ~/.irkeybridge)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadEnv resolves the application directory and opens settings and the
// profile store, then finishes logger setup from flags and settings.
func loadEnv() (*config.Manager, *profile.Store, error) {
	dir := flagDir
	if dir == "" {
		var err error
		dir, err = config.DefaultDir()
		if err != nil {
			return nil, nil, err
		}
	}
	settings, err := config.Load(dir)
	if err != nil {
		return nil, nil, err
	}
	store, err := profile.NewStore(settings.ProfilesDir())
	if err != nil {
		return nil, nil, err
	}

	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
		DisableColors:   !isatty.IsTerminal(os.Stderr.Fd()),
	})
	if flagVerbose {
		log.SetLevel(logrus.DebugLevel)
	} else if lvl, err := logrus.ParseLevel(settings.Settings.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
	return settings, store, nil
}
