package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/classify/internal/model"
	"github.com/sells-group/classify/internal/professor"
)

var professorCmd = &cobra.Command{
	Use:   "professor <first-name> <last-name>",
	Short: "Look up one professor's ratings and export them",
	Long:  "Finds an exact name match on Rate My Professors and writes <first>_<last>.json and <first>_<last>.csv with the profile and comments.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("lookup"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		given, family := strings.TrimSpace(args[0]), strings.TrimSpace(args[1])
		p, err := initLookup(st).Resolve(ctx, given, family)
		if err != nil {
			return eris.Wrap(err, "professor lookup")
		}
		if p == nil {
			fmt.Fprintln(os.Stderr, "Professor not found.")
			return eris.Errorf("no exact match for %s %s", given, family)
		}

		dir, _ := cmd.Flags().GetString("out-dir")
		formats, _ := cmd.Flags().GetStringSlice("format")
		base := filepath.Join(dir, given+"_"+family)
		for _, format := range formats {
			path, err := exportProfile(base, format, p)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Saved %s\n", path)
		}
		return nil
	},
}

func exportProfile(base, format string, p *model.ProfessorProfile) (string, error) {
	var write func(io.Writer, *model.ProfessorProfile) error
	switch format {
	case "json":
		write = professor.WriteJSON
	case "csv":
		write = professor.WriteCSV
	default:
		return "", eris.Errorf("unknown export format %q (want json or csv)", format)
	}

	path := base + "." + format
	f, err := os.Create(path)
	if err != nil {
		return "", eris.Wrapf(err, "create %s", path)
	}
	if err := write(f, p); err != nil {
		_ = f.Close()
		return "", err
	}
	return path, eris.Wrapf(f.Close(), "close %s", path)
}

func init() {
	professorCmd.Flags().String("out-dir", ".", "directory for exported files")
	professorCmd.Flags().StringSlice("format", []string{"json", "csv"}, "export formats: json, csv")
	rootCmd.AddCommand(professorCmd)
}
