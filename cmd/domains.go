package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/factdrill/factdrill/internal/mastery"
	"github.com/factdrill/factdrill/internal/progress"
	"github.com/factdrill/factdrill/internal/ui/theme"
)

var domainsCmd = &cobra.Command{
	Use:   "domains",
	Short: "List loaded fact sets with progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore()
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		all, err := st.Domains().ListDomains(ctx)
		if err != nil {
			return fmt.Errorf("list domains: %w", err)
		}
		if len(all) == 0 {
			fmt.Println(theme.Hint.Render("No fact sets loaded yet. Try: factdrill load <file.json>"))
			return nil
		}

		m := mastery.NewService(st.Attempts(), st.FactStates())
		reporter := progress.NewReporter(m, st.Attempts(), st.Domains())
		userID := currentUser()

		for _, d := range all {
			s, err := reporter.Summarize(ctx, &d, userID)
			if err != nil {
				return err
			}
			fmt.Printf("%s  %s\n", theme.Title.Render(d.Name), theme.Subtitle.Render(s.Progress))
			fmt.Printf("  %d facts, %s mastered, %s learned\n",
				s.TotalFacts,
				theme.Mastered.Render(fmt.Sprintf("%d", s.Mastered)),
				theme.Learned.Render(fmt.Sprintf("%d", s.Learned)))
		}
		return nil
	},
}
