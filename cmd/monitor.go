package cmd

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/DavidRHannah/IRKeybridge/pkg/monitorui"
	"github.com/DavidRHannah/IRKeybridge/pkg/profile"
	"github.com/DavidRHannah/IRKeybridge/pkg/receiver"
)

func init() {
	var (
		src         sourceFlags
		profileName string
		useTUI      bool
	)

	monitorCmd := &cobra.Command{
		Use:   "monitor",
		Short: "Show incoming IR codes without injecting keys",
		Long: `Print every token the receiver delivers, resolved against a profile when
one is available. Useful for discovering the codes of a new remote before
writing its profile.

Examples:
  irkeybridge monitor
  irkeybridge monitor --tui
  irkeybridge monitor --port /dev/ttyACM0 --profile my_remote.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, store, err := loadEnv()
			if err != nil {
				return err
			}

			var prof *profile.Profile
			name := profileName
			if name == "" {
				name = settings.Settings.LastProfile
			}
			if name != "" {
				if prof, err = store.Load(name); err != nil {
					log.WithError(err).Warnf("failed to load profile %s", name)
					prof = nil
				}
			}

			source := src.build(settings, log)
			if err := source.Start(); err != nil {
				return err
			}
			defer source.Stop()

			if useTUI {
				_, err := tea.NewProgram(monitorui.New(source, prof), tea.WithAltScreen()).Run()
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			log.Info("Monitoring IR codes, press Ctrl-C to stop")
			for {
				select {
				case <-ctx.Done():
					stats := source.Stats()
					fmt.Printf("received %d  repeats %d  dropped %d  malformed %d\n",
						stats.Received, stats.Repeats, stats.Dropped, stats.Malformed)
					return nil
				default:
				}
				code, ok := source.GetCode(100 * time.Millisecond)
				if !ok {
					continue
				}
				line := code
				if prof != nil && code != receiver.TokenRepeat {
					if action, found := prof.Lookup(code); found {
						line = fmt.Sprintf("%-8s %s", code, action.Description)
					} else {
						line = fmt.Sprintf("%-8s (unmapped)", code)
					}
				}
				fmt.Printf("%s  %s\n", time.Now().Format("15:04:05.000"), line)
			}
		},
	}

	src.register(monitorCmd.Flags())
	monitorCmd.Flags().StringVarP(&profileName, "profile", "p", "", "profile to resolve codes against")
	monitorCmd.Flags().BoolVar(&useTUI, "tui", false, "interactive monitor view")

	rootCmd.AddCommand(monitorCmd)
}
