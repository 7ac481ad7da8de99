package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"formassist-backend/internal/models"
)

// extraction is what extract prints.
type extraction struct {
	Source       string             `json:"source" yaml:"source"`
	Activated    bool               `json:"activated" yaml:"activated"`
	HeaderConfig *models.AiConfig   `json:"headerConfig,omitempty" yaml:"headerConfig,omitempty"`
	Context      models.PageContext `json:"context" yaml:"context"`
}

func newExtractCmd(rt *runtime) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "extract <url|file>",
		Short: "Print the page context the assistant would send",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page := loadPage(cmd.Context(), args[0], cmd.ErrOrStderr(), rt.log)
			res := extraction{
				Source:       page.Source,
				Activated:    page.Activation != nil,
				HeaderConfig: page.HeaderConfig(),
				Context:      page.Context,
			}
			out := cmd.OutOrStdout()
			switch format {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			case "yaml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(toYAML(res)); err != nil {
					return err
				}
				return enc.Close()
			default:
				return fmt.Errorf("unsupported format %q (json or yaml)", format)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or yaml")
	return cmd
}

// toYAML round-trips through JSON so YAML output uses the JSON field names of
// the nested page models.
func toYAML(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}
