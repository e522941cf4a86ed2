package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"exam-quiz-service/internal/app"
	"exam-quiz-service/internal/config"
	"exam-quiz-service/internal/domain"
	"exam-quiz-service/internal/logger"
	"exam-quiz-service/internal/report"
	"github.com/spf13/cobra"
)

// NewPlayCmd runs one quiz session in the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	var examID string
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Take a quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			// keep the terminal clean; only warnings and worse reach stderr
			log := logger.New(os.Stderr, "warn", "pretty")

			wired, err := buildService(cmd.Context(), cfg, log, nil)
			if err != nil {
				return err
			}
			defer wired.Close()

			if examID == "" {
				if err := listExams(cmd.Context(), wired.service, cmd.OutOrStdout()); err != nil {
					return err
				}
			}
			session, err := wired.service.Open(cmd.Context(), examID)
			if err != nil {
				return err
			}
			defer wired.service.Close(session.ID())
			return play(cmd.Context(), session, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&examID, "exam", "", "exam id (empty plays every question)")
	return cmd
}

func listExams(ctx context.Context, service *app.QuizService, out io.Writer) error {
	exams, err := service.ListExams(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Available exams (pass --exam to pick one):")
	for _, e := range exams {
		fmt.Fprintf(out, "  %s  %s\n", e.ID, e.Title)
	}
	fmt.Fprintln(out)
	return nil
}

// play drives session from line-based input until the user quits, input
// ends or ctx is done. Timer expiry is picked up from session events.
func play(ctx context.Context, session *app.Session, in io.Reader, out io.Writer) error {
	events, cancel := session.Subscribe()
	defer cancel()

	done := make(chan struct{})
	defer close(done)
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- strings.TrimSpace(sc.Text()):
			case <-done:
				return
			}
		}
	}()

	p := &player{session: session, out: out}
	p.render()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Type == app.EventFinished && ev.Snapshot.Report != nil && ev.Snapshot.Report.TimedOut {
				fmt.Fprintln(out)
				p.results(ev.Store, ev.Answers, *ev.Snapshot.Report)
			}
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := p.handle(line); quit {
				return nil
			}
		}
	}
}

type player struct {
	session *app.Session
	out     io.Writer
}

func (p *player) handle(line string) bool {
	if line == "q" || line == "quit" {
		return true
	}

	switch p.session.Phase() {
	case domain.PhaseWelcome:
		if _, err := p.session.Start(); errors.Is(err, domain.ErrNoQuestions) {
			fmt.Fprintln(p.out, "No questions available.")
			return false
		}
		p.render()
	case domain.PhaseActive:
		p.handleActive(line)
	case domain.PhaseFinished:
		switch line {
		case "r", "retake":
			p.session.Retake()
			p.render()
		case "v", "view":
			if r, answers, ok := p.session.Report(); ok {
				p.results(p.session.Store(), answers, r)
			}
		default:
			fmt.Fprintln(p.out, "Type v to view results, r to retake or q to quit.")
		}
	}
	return false
}

func (p *player) handleActive(line string) {
	switch line {
	case "n", "next":
		if !p.session.Next() {
			fmt.Fprintln(p.out, "Answer this question first (or f to finish on the last one).")
			return
		}
	case "p", "prev", "previous":
		if !p.session.Previous() {
			fmt.Fprintln(p.out, "Already at the first question.")
			return
		}
	case "f", "finish":
		if _, ok := p.session.Submit(); !ok {
			fmt.Fprintln(p.out, "Answer this question first.")
			return
		}
		if r, answers, ok := p.session.Report(); ok {
			p.results(p.session.Store(), answers, r)
		}
		return
	default:
		choice, err := strconv.Atoi(line)
		if err != nil || !p.session.SelectAnswer(choice-1) {
			fmt.Fprintln(p.out, "Pick an option number, n, p, f or q.")
			return
		}
	}
	p.render()
}

func (p *player) render() {
	snap := p.session.Snapshot()
	switch snap.Phase {
	case domain.PhaseWelcome:
		fmt.Fprintf(p.out, "%d questions, %s to answer them. Press enter to start.\n",
			snap.TotalQuestions, report.FormatElapsed(snap.RemainingSeconds))
	case domain.PhaseActive:
		if snap.Question == nil {
			return
		}
		fmt.Fprintf(p.out, "\nQuestion %d of %d  (time left %s)\n%s\n",
			snap.CurrentIndex+1, snap.TotalQuestions, report.FormatElapsed(snap.RemainingSeconds), snap.Question.Text)
		for i, opt := range snap.Question.Options {
			marker := " "
			if snap.SelectedAnswer != nil && *snap.SelectedAnswer == i {
				marker = "*"
			}
			fmt.Fprintf(p.out, " %s %d) %s\n", marker, i+1, opt)
		}
	}
}

func (p *player) results(store *app.QuestionStore, answers map[int]int, r domain.ScoreReport) {
	fmt.Fprintln(p.out, report.Notice(r))
	summary := report.Build(store, answers, r)
	if err := report.WriteText(p.out, summary); err != nil {
		return
	}
	fmt.Fprintln(p.out, "\nType v to view results, r to retake or q to quit.")
}
