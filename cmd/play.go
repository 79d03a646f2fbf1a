package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/factdrill/factdrill/internal/domain"
	"github.com/factdrill/factdrill/internal/doomloop"
	"github.com/factdrill/factdrill/internal/mastery"
	"github.com/factdrill/factdrill/internal/selector"
	"github.com/factdrill/factdrill/internal/session"
	"github.com/factdrill/factdrill/internal/store"
	"github.com/factdrill/factdrill/internal/streak"
	"github.com/factdrill/factdrill/internal/ui/theme"
)

var playCmd = &cobra.Command{
	Use:   "play [domain]",
	Short: "Start a practice session",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore()
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		in := bufio.NewScanner(os.Stdin)
		d, err := pickDomain(ctx, st.Domains(), args, in)
		if err != nil {
			return err
		}
		if d == nil {
			fmt.Println(theme.Hint.Render("No fact sets loaded yet. Try: factdrill load <file.json>"))
			return nil
		}

		m := mastery.NewService(st.Attempts(), st.FactStates())
		engine := session.NewEngine(
			m,
			selector.New(m, st.Attempts(), st.FactStates()),
			doomloop.NewMonitor(m, st.Attempts()),
			streak.NewTracker(st.Streaks()),
			st.Domains(),
		)
		return runSession(ctx, engine, d, currentUser(), in)
	},
}

// pickDomain resolves the domain from the argument, or prompts with a
// numbered list when none is given.
func pickDomain(ctx context.Context, repo store.DomainRepo, args []string, in *bufio.Scanner) (*domain.Domain, error) {
	if len(args) == 1 {
		d, err := repo.GetDomainByName(ctx, args[0])
		if err == store.ErrNotFound {
			return nil, fmt.Errorf("no fact set named %q; run 'factdrill domains' to list them", args[0])
		}
		return d, err
	}

	all, err := repo.ListDomains(ctx)
	if err != nil {
		return nil, fmt.Errorf("list domains: %w", err)
	}
	if len(all) == 0 {
		return nil, nil
	}
	if len(all) == 1 {
		return &all[0], nil
	}

	fmt.Println(theme.Title.Render("Pick a fact set:"))
	for i, d := range all {
		fmt.Printf("  %d. %s\n", i+1, d.Name)
	}
	for {
		fmt.Print("> ")
		if !in.Scan() {
			return nil, nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(in.Text()))
		if err == nil && n >= 1 && n <= len(all) {
			return &all[n-1], nil
		}
		fmt.Println(theme.Hint.Render(fmt.Sprintf("Enter a number from 1 to %d.", len(all))))
	}
}

// runSession drives the show/quiz loop until the domain is mastered or
// the user quits.
func runSession(ctx context.Context, engine *session.Engine, d *domain.Domain, userID string, in *bufio.Scanner) error {
	st := session.NewState(d.ID, userID)
	fmt.Println(theme.Title.Render("Practicing: " + d.Name))
	fmt.Println(theme.Hint.Render("Answer with the option number. 'q' quits."))
	fmt.Println()

	for {
		var step *session.Step
		var err error
		st, step, err = engine.NextStep(ctx, st)
		if err != nil {
			return err
		}

		switch step.Kind {
		case session.StepDone:
			fmt.Println(theme.Correct.Render("All facts mastered!"))
			if st.ReviewMastered {
				return nil
			}
			fmt.Print(theme.Body.Render("Keep reviewing to stay sharp? [y/N] "))
			if readLine(in) == "y" {
				st.ReviewMastered = true
				continue
			}
			return nil

		case session.StepShowFact:
			if step.Recovery {
				fmt.Println(theme.Hint.Render("Rough patch. Let's revisit one you know well."))
			}
			printFact(step.Fact, d, "")
			fmt.Print(theme.Hint.Render("Press Enter when ready (q quits) "))
			if readLine(in) == "q" {
				return nil
			}
			fmt.Println()
			if !step.Recovery {
				st, err = engine.MarkLearned(ctx, st, step.Fact.ID)
				if err != nil {
					return err
				}
			}

		case session.StepAsk:
			q := step.Question
			fmt.Println(theme.Body.Render(q.Text))
			for i, opt := range q.Options {
				fmt.Printf("  %d. %s\n", i+1, opt)
			}

			idx, quit := readAnswer(in, len(q.Options))
			if quit {
				return nil
			}

			var out *session.Outcome
			st, out, err = engine.HandleAnswer(ctx, st, idx)
			if err != nil {
				return err
			}

			if out.Correct {
				fmt.Println(theme.Correct.Render("Correct!"))
			} else {
				fmt.Println(theme.Incorrect.Render("Not quite.") + " " +
					theme.Body.Render("The answer was "+out.CorrectAnswer+"."))
			}
			if out.ReviewScheduled {
				fmt.Println(theme.Hint.Render("Quick review of an earlier fact coming up."))
			}
			fmt.Println()

			if out.ShowFact != nil {
				printFact(out.ShowFact, d, out.HighlightField)
				fmt.Print(theme.Hint.Render("Take another look, then press Enter (q quits) "))
				if readLine(in) == "q" {
					return nil
				}
				fmt.Println()
				st, err = engine.MarkLearned(ctx, st, out.ShowFact.ID)
				if err != nil {
					return err
				}
			}
		}
	}
}

// printFact renders a fact card; highlight names the field to call out
// after a miss.
func printFact(f *domain.Fact, d *domain.Domain, highlight string) {
	var b strings.Builder
	for i, name := range d.FieldNames {
		if i > 0 {
			b.WriteString("\n")
		}
		label := theme.FieldName.Render(name + ": ")
		value := theme.FieldValue.Render(f.Fields[name])
		if name == highlight {
			value = theme.Highlight.Render(f.Fields[name])
		}
		b.WriteString(label + value)
	}
	fmt.Println(theme.Card.Render(b.String()))
}

// readAnswer reads a 1-based option number, retrying on bad input.
func readAnswer(in *bufio.Scanner, optionCount int) (index int, quit bool) {
	for {
		fmt.Print("> ")
		line := readLine(in)
		if line == "q" {
			return 0, true
		}
		n, err := strconv.Atoi(line)
		if err == nil && n >= 1 && n <= optionCount {
			return n - 1, false
		}
		fmt.Println(theme.Hint.Render(fmt.Sprintf("Enter a number from 1 to %d, or 'q' to quit.", optionCount)))
	}
}

func readLine(in *bufio.Scanner) string {
	if !in.Scan() {
		return "q"
	}
	return strings.ToLower(strings.TrimSpace(in.Text()))
}
