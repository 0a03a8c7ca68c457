package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"satark-portal/internal/domain/model"
	"satark-portal/internal/domain/schema"
)

type noticeSchema struct {
	Notice   model.Notice    `json:"notice" yaml:"notice"`
	Sections []model.Section `json:"sections" yaml:"sections"`
	Defaults model.FormData  `json:"defaults,omitempty" yaml:"defaults,omitempty"`
}

func (c *cli) schemaCmd() *cobra.Command {
	var notice, format string
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Dump the publish form schema (yaml|json)",
		RunE: func(cmd *cobra.Command, args []string) error {
			notices := model.Notices
			if notice != "" {
				n, ok := model.ParseNotice(notice)
				if !ok {
					return fmt.Errorf("unknown notice type %q", notice)
				}
				notices = []model.Notice{n}
			}
			out := make([]noticeSchema, 0, len(notices))
			for _, n := range notices {
				out = append(out, noticeSchema{Notice: n, Sections: schema.Sections(n), Defaults: schema.Defaults(n)})
			}

			switch format {
			case "json":
				return writeJSON(c.ui, out)
			case "yaml", "":
				enc := yaml.NewEncoder(c.ui.Out)
				enc.SetIndent(2)
				defer enc.Close()
				return enc.Encode(out)
			default:
				return fmt.Errorf("unknown format %q", format)
			}
		},
	}
	cmd.Flags().StringVar(&notice, "notice", "", "only this notice type")
	cmd.Flags().StringVar(&format, "format", "yaml", "output format: yaml|json")
	cmd.AddCommand(&cobra.Command{
		Use:   "units",
		Short: "List police units (falls back to the built-in directory)",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := c.api().UnitHierarchy(cmd.Context())
			if err != nil || h.Empty() {
				c.ui.Warning("unit hierarchy unavailable, showing built-in directory")
				h = schema.FallbackHierarchy()
			}
			table := c.ui.Table([]string{"ID", "NAME", "DISTRICT"})
			for _, u := range h.All() {
				_ = table.Append([]string{u.ID, u.Name, u.DistrictID})
			}
			return table.Render()
		},
	})
	return cmd
}
