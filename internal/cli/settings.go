package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"formassist-backend/internal/conversation"
	"formassist-backend/internal/models"
)

func newSettingsCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the AI endpoint settings",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the current settings",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := rt.core.Settings.Get(cmd.Context())
				if err != nil {
					return err
				}
				printSettings(cmd, s)
				return nil
			},
		},
		newSettingsSetCmd(rt),
		&cobra.Command{
			Use:   "clear",
			Short: "Remove all settings (mock mode)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := rt.core.Settings.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Settings cleared")
				return nil
			},
		},
		newSettingsTestCmd(rt),
	)
	return cmd
}

// settingsFlags fills a save request from flags. Only flags the user passed
// change the stored value.
type settingsFlags struct {
	endpoint    string
	apiKey      string
	model       string
	temperature float64
	debug       bool
}

func (f *settingsFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.endpoint, "endpoint", "", "chat-completion endpoint URL (empty for mock mode)")
	cmd.Flags().StringVar(&f.apiKey, "api-key", "", "API key sent as a bearer token")
	cmd.Flags().StringVar(&f.model, "model", "", "model name")
	cmd.Flags().Float64Var(&f.temperature, "temperature", models.DefaultTemperature, "sampling temperature (0-2)")
	cmd.Flags().BoolVar(&f.debug, "debug", false, "enable debug logging")
}

func (f *settingsFlags) request(cmd *cobra.Command, current models.SettingsResponse) models.SaveSettingsRequest {
	req := models.SaveSettingsRequest{
		AIEndpoint:  current.AIEndpoint,
		AIModel:     current.AIModel,
		Temperature: current.Temperature,
		DebugMode:   current.DebugMode,
	}
	flags := cmd.Flags()
	if flags.Changed("endpoint") {
		req.AIEndpoint = f.endpoint
	}
	if flags.Changed("api-key") {
		key := f.apiKey
		req.APIKey = &key
	}
	if flags.Changed("model") {
		req.AIModel = f.model
	}
	if flags.Changed("temperature") {
		t := f.temperature
		req.Temperature = &t
	}
	if flags.Changed("debug") {
		req.DebugMode = f.debug
	}
	return req
}

func newSettingsSetCmd(rt *runtime) *cobra.Command {
	var f settingsFlags
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := rt.core.Settings.Get(cmd.Context())
			if err != nil {
				return err
			}
			saved, err := rt.core.Settings.Save(cmd.Context(), f.request(cmd, current))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Settings saved successfully!")
			printSettings(cmd, saved)
			return nil
		},
	}
	f.bind(cmd)
	return cmd
}

func newSettingsTestCmd(rt *runtime) *cobra.Command {
	var f settingsFlags
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Send a test request to the endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := rt.core.Settings.Get(cmd.Context())
			if err != nil {
				return err
			}
			res := rt.core.Settings.TestConnection(cmd.Context(), f.request(cmd, current))
			style := errorStyle
			if res.Success {
				style = statusStyles[conversation.KindActive]
			}
			fmt.Fprintln(cmd.OutOrStdout(), style.Render(res.Message))
			if len(res.Data) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), dataStyle.Render(fmt.Sprint(res.Data)))
			}
			if !res.Success {
				return fmt.Errorf("connection test failed")
			}
			return nil
		},
	}
	f.bind(cmd)
	return cmd
}

func printSettings(cmd *cobra.Command, s models.SettingsResponse) {
	out := cmd.OutOrStdout()
	if s.MockMode {
		fmt.Fprintln(out, "Mode:        mock (no endpoint configured)")
	} else {
		fmt.Fprintln(out, "Mode:        live")
	}
	fmt.Fprintf(out, "Endpoint:    %s\n", s.AIEndpoint)
	fmt.Fprintf(out, "API key:     %s\n", map[bool]string{true: "set", false: "not set"}[s.HasAPIKey])
	fmt.Fprintf(out, "Model:       %s\n", s.AIModel)
	if s.Temperature != nil {
		fmt.Fprintf(out, "Temperature: %.2f\n", *s.Temperature)
	}
	fmt.Fprintf(out, "Debug:       %t\n", s.DebugMode)
}
