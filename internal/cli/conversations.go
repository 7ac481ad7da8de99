package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"formassist-backend/internal/export"
)

func newListCmd(rt *runtime) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := rt.core.NewManager(rt.scope, nil)
			defer m.Close()
			list := m.Conversations()
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}
			if len(list) == 0 {
				fmt.Fprintln(out, "No conversations")
				return nil
			}
			for _, c := range list {
				marker := " "
				if c.Active {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %s  %s  %s\n", marker, c.ID,
					metaStyle.Render(time.UnixMilli(c.UpdatedAt).Format(time.DateTime)), c.Title)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func newExportCmd(rt *runtime) *cobra.Command {
	var format, outPath string
	cmd := &cobra.Command{
		Use:   "export [conversation-id]",
		Short: "Export a conversation (the active one by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, err := export.NewExporter(format)
			if err != nil {
				return err
			}
			m := rt.core.NewManager(rt.scope, nil)
			defer m.Close()

			conv := m.Active()
			if len(args) == 1 {
				c, ok := m.Get(args[0])
				if !ok {
					return fmt.Errorf("conversation %q not found", args[0])
				}
				conv = c
			}
			if conv == nil {
				return fmt.Errorf("no active conversation in scope %q", rt.scope)
			}

			if outPath == "" {
				return exp.Export(conv, cmd.OutOrStdout())
			}
			f, err := os.Create(outPath)
			if err != nil {
				return err
			}
			defer f.Close()
			return exp.Export(conv, f)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "md", "json, yaml or md")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write to a file instead of stdout")
	return cmd
}
