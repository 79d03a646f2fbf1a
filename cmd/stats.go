package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/factdrill/factdrill/internal/domain"
	"github.com/factdrill/factdrill/internal/mastery"
	"github.com/factdrill/factdrill/internal/progress"
	"github.com/factdrill/factdrill/internal/store"
	"github.com/factdrill/factdrill/internal/streak"
	"github.com/factdrill/factdrill/internal/ui/theme"
)

var statsCmd = &cobra.Command{
	Use:   "stats [domain]",
	Short: "Show learning statistics",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore()
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		m := mastery.NewService(st.Attempts(), st.FactStates())
		reporter := progress.NewReporter(m, st.Attempts(), st.Domains())
		tracker := streak.NewTracker(st.Streaks())
		userID := currentUser()

		info, err := tracker.Info(ctx, userID)
		if err != nil {
			return err
		}
		atRisk, err := tracker.AtRiskNow(ctx, userID)
		if err != nil {
			return err
		}
		streakLine := fmt.Sprintf("Streak: %d day(s), longest %d", info.CurrentStreak, info.LongestStreak)
		fmt.Println(theme.Streak.Render(streakLine))
		if atRisk {
			fmt.Println(theme.Hint.Render("Practice today to keep your streak alive!"))
		}

		today, err := reporter.QuestionsAnsweredToday(ctx, userID)
		if err != nil {
			return err
		}
		sessions, err := reporter.SessionCount(ctx, userID)
		if err != nil {
			return err
		}
		fmt.Printf("Questions today: %d    Sessions overall: %d\n\n", today, sessions)

		domains, err := selectedDomains(cmd, st.Domains(), args)
		if err != nil {
			return err
		}
		for _, d := range domains {
			s, err := reporter.Summarize(ctx, &d, userID)
			if err != nil {
				return err
			}
			spent, err := reporter.TimeSpent(ctx, d.ID, userID)
			if err != nil {
				return err
			}
			fmt.Println(theme.Title.Render(d.Name))
			fmt.Printf("  %s\n", theme.Subtitle.Render(s.Progress))
			fmt.Printf("  mastered %d/%d, learned %d, shown %d\n", s.Mastered, s.TotalFacts, s.Learned, s.Shown)
			fmt.Printf("  %d answers, about %s of practice\n", s.Attempts, progress.FormatTimeSpent(spent))
		}
		return nil
	},
}

// selectedDomains returns the named domain, or all of them.
func selectedDomains(cmd *cobra.Command, repo store.DomainRepo, args []string) ([]domain.Domain, error) {
	ctx := cmd.Context()
	if len(args) == 1 {
		d, err := repo.GetDomainByName(ctx, args[0])
		if err == store.ErrNotFound {
			return nil, fmt.Errorf("no fact set named %q", args[0])
		}
		if err != nil {
			return nil, err
		}
		return []domain.Domain{*d}, nil
	}
	return repo.ListDomains(ctx)
}
