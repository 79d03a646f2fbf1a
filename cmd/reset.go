package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/factdrill/factdrill/internal/mastery"
	"github.com/factdrill/factdrill/internal/store"
	"github.com/factdrill/factdrill/internal/ui/theme"
)

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset <domain>",
	Short: "Erase your progress on a fact set",
	Long: "Reset deletes your attempt history and learning state for the named\n" +
		"fact set. The facts themselves stay loaded.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore()
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		d, err := st.Domains().GetDomainByName(ctx, args[0])
		if err == store.ErrNotFound {
			return fmt.Errorf("no fact set named %q", args[0])
		}
		if err != nil {
			return err
		}

		if !resetYes {
			fmt.Printf("Erase all progress on %q for user %q? [y/N] ", d.Name, currentUser())
			in := bufio.NewScanner(os.Stdin)
			if !in.Scan() || strings.ToLower(strings.TrimSpace(in.Text())) != "y" {
				fmt.Println("Aborted.")
				return nil
			}
		}

		m := mastery.NewService(st.Attempts(), st.FactStates())
		if err := m.ResetProgress(ctx, d.ID, currentUser()); err != nil {
			return err
		}
		fmt.Println(theme.Body.Render(fmt.Sprintf("Progress on %q reset.", d.Name)))
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "skip the confirmation prompt")
}
