package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/moodlink/internal/config"
	"github.com/moodlink/internal/locale"
	"github.com/moodlink/internal/mood"
	"github.com/moodlink/internal/session"
	"github.com/moodlink/internal/zodiac"
	"github.com/spf13/cobra"
)

const dateFormat = "2006-01-02"

func (a *App) bootstrapCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Resume the saved session or report onboarding",
		RunE: func(cmd *cobra.Command, args []string) error {
			result := <-a.boot.Start(cmd.Context())
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "State: %s\n", result.State)
			if result.State == session.StateActive {
				printUser(out, result.CurrentUser)
			}
			return nil
		},
	}
}

func (a *App) loginCommand() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the credentials on this device",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.boot.SignIn(cmd.Context(), session.Credentials{Email: email, Password: password})
			if err != nil {
				if errors.Is(err, session.ErrInvalidCredentials) {
					return errors.New("email or password is incorrect")
				}
				return err
			}
			printUser(cmd.OutOrStdout(), result.CurrentUser)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (a *App) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.boot.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func (a *App) recordCommand() *cobra.Command {
	var date, label string
	cmd := &cobra.Command{
		Use:   "record <level>",
		Short: "Record today's mood (1-5)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := strconv.Atoi(args[0])
			if err != nil || !mood.Level(raw).Valid() {
				return fmt.Errorf("mood level must be between %d and %d", mood.LevelMin, mood.LevelMax)
			}
			day, err := a.parseDay(date)
			if err != nil {
				return err
			}
			if _, err := a.requireActive(cmd.Context()); err != nil {
				return err
			}

			entry, err := a.api.RecordMood(cmd.Context(), day, mood.Level(raw), label)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s: %s\n", entry.Date.Format(dateFormat), entry.Level.Label(a.language()))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to record (YYYY-MM-DD), defaults to today")
	cmd.Flags().StringVar(&label, "label", "", "short event label")
	return cmd
}

func (a *App) summaryCommand() *cobra.Command {
	var weekStart, insightPath string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show the weekly mood summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := a.parseDay(weekStart)
			if err != nil {
				return err
			}
			if weekStart == "" {
				start = mondayOf(start)
			}

			bands, delta, err := config.LoadInsights(insightPath)
			if err != nil {
				return err
			}
			if _, err := a.requireActive(cmd.Context()); err != nil {
				return err
			}

			entries, err := a.api.Moods(cmd.Context(), start, start.AddDate(0, 0, 6), a.loc)
			if err != nil {
				return err
			}

			lang := a.language()
			engine := mood.NewEngine(a.loc).WithTrendDelta(delta)
			summary := engine.BuildWeeklySummary(entries, start, mood.NewBandInsights(bands, lang))

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Week of %s\n", summary.WeekStart.Format(dateFormat))
			fmt.Fprintf(out, "Entries: %d\n", summary.EntryCount)
			fmt.Fprintf(out, "Average: %.2f\n", summary.AverageMood)
			fmt.Fprintf(out, "Trend: %s\n", summary.Trend)
			fmt.Fprintf(out, "Most frequent: %s\n", summary.MostFrequentMood.Label(lang))
			for _, line := range summary.Insights {
				fmt.Fprintf(out, "- %s\n", line)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&weekStart, "week-start", "", "first day of the week (YYYY-MM-DD), defaults to this Monday")
	cmd.Flags().StringVar(&insightPath, "insights", "", "YAML file overriding insight bands")
	return cmd
}

func (a *App) zodiacCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "zodiac <birth-date>",
		Short: "Print the zodiac sign for a birth date (YYYY-MM-DD)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			birth, err := time.Parse(dateFormat, strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("birth date must be YYYY-MM-DD: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), zodiac.ForDate(birth).Name(a.language()))
			return nil
		},
	}
}

func (a *App) language() string {
	return locale.Resolve(a.cfg.Language, "")
}

func (a *App) parseDay(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		now := time.Now().In(a.loc)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, a.loc), nil
	}
	day, err := time.ParseInLocation(dateFormat, trimmed, a.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}
	return day, nil
}

func mondayOf(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
