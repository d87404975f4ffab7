package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mind-engage/mindengage-psy/internal/adaptive"
	"github.com/mind-engage/mindengage-psy/internal/bank"
	"github.com/mind-engage/mindengage-psy/internal/scoring"
	"github.com/mind-engage/mindengage-psy/internal/session"
)

var (
	runTarget  int
	runAlpha   float64
	runDomains string
	runJSON    bool
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Take an adaptive questionnaire in the terminal",
	Long: `Loads a bank file and administers items one at a time, choosing each
next item from the least covered domain. Answers are read from stdin, one
number per line. Results are printed when the target length is reached
or the bank runs out of items.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuestionnaire,
}

func init() {
	runCmd.Flags().IntVarP(&runTarget, "target", "n", session.DefaultTarget, "number of items to administer")
	runCmd.Flags().Float64Var(&runAlpha, "alpha", scoring.DefaultAlpha, "ability update rate in (0,1]")
	runCmd.Flags().StringVar(&runDomains, "domains", "", "domain threshold file")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print results as JSON")
	rootCmd.AddCommand(runCmd)
}

var likert5 = map[int]string{
	1: "Strongly Disagree",
	2: "Disagree",
	3: "Neutral",
	4: "Agree",
	5: "Strongly Agree",
}

func runQuestionnaire(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	b, _, err := loadBank(ctx, args[0], runDomains)
	if err != nil {
		return err
	}
	eng, err := scoring.NewEngine(scoring.WithAlpha(runAlpha))
	if err != nil {
		return err
	}
	mgr := session.NewManager(b, eng)
	id, err := mgr.Start(ctx, runTarget)
	if err != nil {
		return err
	}

	in := bufio.NewScanner(cmd.InOrStdin())
	for {
		p, err := mgr.Progress(ctx, id)
		if err != nil {
			return err
		}
		if p.State == session.StateCompleted {
			break
		}
		it, err := mgr.NextItem(ctx, id)
		if errors.Is(err, adaptive.ErrExhausted) {
			cmd.Println("No more items available.")
			if _, err := mgr.Finish(ctx, id); err != nil {
				return err
			}
			break
		}
		if err != nil {
			return err
		}

		cmd.Printf("\nQuestion %d of %d\n%s\n", p.Answered+1, p.Target, it.Text)
		printScale(cmd, it.Scale)
		ok, err := ask(ctx, cmd, in, mgr, id, it)
		if err != nil {
			return err
		}
		if !ok {
			// stdin closed: score what was answered
			if p.Answered == 0 {
				return errors.New("input ended before any response")
			}
			if _, err := mgr.Finish(ctx, id); err != nil {
				return err
			}
			break
		}
	}

	res, err := mgr.Results(ctx, id)
	if err != nil {
		return err
	}
	if runJSON {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}
	printResults(cmd, b.Snapshot(), res)
	return nil
}

// ask reads lines until one is accepted as the answer to it. It reports
// false when input runs out first.
func ask(ctx context.Context, cmd *cobra.Command, in *bufio.Scanner, mgr *session.Manager, id string, it bank.Item) (bool, error) {
	for {
		cmd.Printf("Your response [%d-%d]: ", it.Scale.Min, it.Scale.Max)
		if !in.Scan() {
			cmd.Println()
			return false, in.Err()
		}
		raw, err := strconv.Atoi(strings.TrimSpace(in.Text()))
		if err != nil {
			cmd.Println("Please enter a number.")
			continue
		}
		_, err = mgr.Submit(ctx, id, it.ID, raw)
		if errors.Is(err, scoring.ErrInvalidResponse) {
			cmd.Printf("Please answer between %d and %d.\n", it.Scale.Min, it.Scale.Max)
			continue
		}
		return err == nil, err
	}
}

func printScale(cmd *cobra.Command, sc bank.Scale) {
	if sc.Min != 1 || sc.Max != 5 {
		return
	}
	for v := 1; v <= 5; v++ {
		cmd.Printf("  %d = %s\n", v, likert5[v])
	}
}

func printResults(cmd *cobra.Command, snap *bank.Snapshot, res *session.Result) {
	cmd.Println("\nAssessment Results")
	cmd.Printf("Overall Score: %.2f\n", res.Overall)

	cmd.Println("\nDomain Scores")
	names := make([]string, 0, len(res.Domains))
	for d := range res.Domains {
		names = append(names, d)
	}
	sort.Strings(names)
	for _, d := range names {
		dr := res.Domains[d]
		cmd.Printf("- %s: %.2f (%s level, %d responses)\n", displayName(d), dr.Score, titleCase(dr.Interpretation), dr.Responses)
	}

	cmd.Println("\nYour Responses")
	for _, r := range res.Responses {
		text := string(r.ItemID)
		if it, ok := snap.Item(r.ItemID); ok {
			text = it.Text
		}
		answer := strconv.Itoa(r.Raw)
		if it, ok := snap.Item(r.ItemID); ok && it.Scale.Min == 1 && it.Scale.Max == 5 {
			answer += " (" + likert5[r.Raw] + ")"
		}
		cmd.Printf("%d. [%s] %s -> %s\n", r.Seq, displayName(r.Domain), text, answer)
	}
}

// displayName turns "emotional_stability" into "Emotional Stability".
func displayName(s string) string {
	return titleCase(strings.ReplaceAll(s, "_", " "))
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
