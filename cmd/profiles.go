/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/evertras/bubble-table/table"
	"github.com/spf13/cobra"

	"github.com/allbin/serialcap/internal/capture"
)

// profilesCmd represents the profiles command
var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List reset profiles",
	Long: `List the built-in reset profiles and any defined in the config file.

Signal A is RTS (bootloader select, IO0) and signal B is DTR (EN). Each step
sets one line and then holds for the given time.

Custom profiles are declared under "profiles" in the config file:

  profiles:
    slow-boot:
      - rts:deassert:100ms
      - dtr:low:100ms
      - dtr:high:500ms`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		profiles, err := cfg.AllProfiles()
		if err != nil {
			return err
		}
		fmt.Println(profileTable(profiles).View())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profilesCmd)
}

const (
	columnKeyName     = "name"
	columnKeySteps    = "steps"
	columnKeyDuration = "duration"
	columnKeyAbout    = "about"
)

func profileTable(profiles []capture.Profile) table.Model {
	columns := []table.Column{
		table.NewColumn(columnKeyName, "Profile", 14),
		table.NewColumn(columnKeySteps, "Steps", 60),
		table.NewColumn(columnKeyDuration, "Total", 8),
		table.NewColumn(columnKeyAbout, "Description", 48),
	}

	rows := make([]table.Row, 0, len(profiles))
	for _, p := range profiles {
		rows = append(rows, table.NewRow(table.RowData{
			columnKeyName:     p.Name,
			columnKeySteps:    formatSteps(p.Steps),
			columnKeyDuration: p.Duration().String(),
			columnKeyAbout:    p.Description,
		}))
	}
	return staticTable(columns, rows)
}

func formatSteps(steps []capture.Step) string {
	parts := make([]string, len(steps))
	for i, s := range steps {
		parts[i] = s.String()
	}
	return strings.Join(parts, " ")
}
