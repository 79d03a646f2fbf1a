package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/factdrill/factdrill/internal/facts"
	"github.com/factdrill/factdrill/internal/ui/theme"
)

var loadCmd = &cobra.Command{
	Use:   "load <file-or-directory>",
	Short: "Load fact sets from JSON files",
	Long: "Load imports fact-set JSON files as drillable domains. A directory\n" +
		"argument imports every .json file in it; already-imported domain\n" +
		"names are skipped.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore()
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		info, err := os.Stat(args[0])
		if err != nil {
			return fmt.Errorf("stat %s: %w", args[0], err)
		}

		if info.IsDir() {
			domains, created, err := facts.ImportDir(ctx, st.Domains(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%d fact set(s) found, %d newly imported.\n", len(domains), created)
			return nil
		}

		f, err := facts.Load(args[0])
		if err != nil {
			return err
		}
		d, created, err := facts.Import(ctx, st.Domains(), f, filepath.Base(args[0]))
		if err != nil {
			return err
		}
		if !created {
			fmt.Println(theme.Hint.Render(fmt.Sprintf("%q is already loaded; skipping.", d.Name)))
			return nil
		}
		fmt.Printf("Imported %q with %d facts.\n", d.Name, len(f.Facts))
		return nil
	},
}
