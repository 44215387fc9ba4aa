// twin is a terminal client that walks through the digital twin flow against
// a running proxy.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/ashureev/digital-twin/internal/client"
	"github.com/ashureev/digital-twin/internal/domain"
	"github.com/ashureev/digital-twin/internal/flow"
	"github.com/ashureev/digital-twin/internal/quiz"
	"github.com/google/uuid"
)

const doneCommand = "/done"

// maxLineBytes lets a single pasted line be as large as a whole sample.
const maxLineBytes = flow.MaxSourceBytes + 4<<10

func main() {
	baseURL := flag.String("url", envOr("TWIN_URL", "http://localhost:8080"), "proxy base URL")
	sourceFile := flag.String("source", "", "plain .txt file to use as the first writing sample")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := client.New(*baseURL, client.WithSessionID("cli-"+uuid.NewString()))
	r := newRunner(c, os.Stdin, os.Stdout)
	r.sourceFile = *sourceFile
	if err := r.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("twin exited", "error", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// backend is what the runner needs from the proxy.
type backend interface {
	flow.Relay
	Questions(ctx context.Context) ([]quiz.Question, error)
	GeneratePersona(ctx context.Context, source string, answers quiz.Answers) (string, error)
	SubmitFeedback(ctx context.Context, persona string, ratings domain.Ratings, turns int) (string, error)
}

type runner struct {
	backend backend
	in      *bufio.Scanner
	out     io.Writer
	// sourceFile is uploaded as the sample of the first session only.
	sourceFile    string
	feedbackSaved bool
}

func newRunner(b backend, in io.Reader, out io.Writer) *runner {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineBytes)
	return &runner{backend: b, in: sc, out: out}
}

func (r *runner) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

// readLine returns the next input line, or io.EOF when input ends.
func (r *runner) readLine() (string, error) {
	if !r.in.Scan() {
		if err := r.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.in.Text(), nil
}

// run drives sessions until the user declines to restart or input ends.
func (r *runner) run(ctx context.Context) error {
	questions, err := r.backend.Questions(ctx)
	if err != nil || len(questions) == 0 {
		slog.Warn("using built-in questionnaire", "error", err)
		questions = quiz.DefaultQuestions()
	}

	s := flow.NewSession(questions)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var next flow.Session
		switch s.Step {
		case flow.StepDataSource:
			next, err = r.stepDataSource(s)
		case flow.StepQuiz:
			next, err = r.stepQuiz(s)
		case flow.StepGenerating:
			next, err = r.stepGenerating(ctx, s)
		case flow.StepChat:
			next, err = r.stepChat(ctx, s)
		case flow.StepRating:
			next, err = r.stepRating(ctx, s)
		case flow.StepFinal:
			var again bool
			again, err = r.stepFinal()
			if err == nil && !again {
				return nil
			}
			if err == nil {
				next, err = flow.Transition(s, flow.Restart())
			}
		}
		if errors.Is(err, io.EOF) {
			r.printf("\nBye.\n")
			return nil
		}
		if err != nil {
			return err
		}
		s = next
	}
}

func (r *runner) stepDataSource(s flow.Session) (flow.Session, error) {
	r.printf("\nStep 1 of 5: provide your data source. The more you provide, the more accurate your twin will be.\n")

	if path := r.sourceFile; path != "" {
		r.sourceFile = ""
		if text, ok := r.loadSourceFile(path); ok {
			if next, err := flow.Transition(s, flow.SubmitSource(text)); err == nil {
				return next, nil
			}
			r.printf("The file is empty.\n")
		}
	}

	for {
		mode, err := r.readSourceMode()
		if err != nil {
			return s, err
		}

		var text string
		switch mode {
		case flow.SourceUpload:
			r.printf("Path to a .txt file (max 1MB):\n> ")
			path, err := r.readLine()
			if err != nil {
				return s, err
			}
			var ok bool
			if text, ok = r.loadSourceFile(strings.TrimSpace(path)); !ok {
				continue
			}
		case flow.SourcePaste:
			r.printf("Paste at least %d characters of your writing. Finish with an empty line.\n", flow.RecommendedSourceChars)
			if text, err = r.readBlock(); err != nil {
				return s, err
			}
			r.printQuality(text, mode)
		default:
			r.printf("Write or paste a short bio (e.g. from LinkedIn, Twitter or Facebook). Finish with an empty line.\n")
			if text, err = r.readBlock(); err != nil {
				return s, err
			}
		}

		if err := flow.CheckSourceSize(text); err != nil {
			r.printf("%s\n", sourceErrorMessage(err))
			continue
		}
		next, err := flow.Transition(s, flow.SubmitSource(text))
		if errors.Is(err, flow.ErrEmptySource) {
			r.printf("Please enter some text first.\n")
			continue
		}
		return next, err
	}
}

// readSourceMode asks how the sample will be provided. Enter picks the bio.
func (r *runner) readSourceMode() (flow.SourceMode, error) {
	for {
		for _, m := range flow.SourceModes() {
			r.printf("   %d) %s\n", int(m), m)
		}
		r.printf("Choose a source [%d]: ", int(flow.SourceBio))
		line, err := r.readLine()
		if err != nil {
			return 0, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return flow.SourceBio, nil
		}
		if n, err := strconv.Atoi(line); err == nil && n >= int(flow.SourceBio) && n <= int(flow.SourceUpload) {
			return flow.SourceMode(n), nil
		}
		r.printf("Please pick %d, %d or %d.\n", int(flow.SourceBio), int(flow.SourcePaste), int(flow.SourceUpload))
	}
}

// readBlock reads lines until an empty line. End of input ends a non-empty
// block.
func (r *runner) readBlock() (string, error) {
	var lines []string
	for {
		line, err := r.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) && len(lines) > 0 {
				break
			}
			return "", err
		}
		if line == "" {
			break
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}

func (r *runner) loadSourceFile(path string) (string, bool) {
	text, err := flow.ReadSourceFile(path)
	if err != nil {
		r.printf("%s\n", sourceErrorMessage(err))
		return "", false
	}
	r.printQuality(text, flow.SourceUpload)
	return text, true
}

func (r *runner) printQuality(text string, mode flow.SourceMode) {
	chars, sufficient := flow.SourceQuality(text)
	if mode == flow.SourceUpload {
		if sufficient {
			r.printf("%d characters loaded. Excellent source material!\n", chars)
		} else {
			r.printf("%d characters loaded. More text is recommended.\n", chars)
		}
		return
	}
	if sufficient {
		r.printf("%d / %d characters ✓\n", chars, flow.RecommendedSourceChars)
		return
	}
	r.printf("%d / %d characters\n", chars, flow.RecommendedSourceChars)
	if chars > 0 {
		r.printf("More text will result in a higher quality twin.\n")
	}
}

func sourceErrorMessage(err error) string {
	switch {
	case errors.Is(err, flow.ErrSourceTooLarge):
		return "File size exceeds 1MB limit."
	case errors.Is(err, flow.ErrSourceNotText):
		return "Please upload a valid .txt file."
	default:
		return fmt.Sprintf("Could not read the file: %v", err)
	}
}

func (r *runner) stepQuiz(s flow.Session) (flow.Session, error) {
	if s.Error != "" {
		r.printf("\n! %s\n", s.Error)
	}
	r.printf("\nStep 2 of 5: a few questions about how you write.\n")

	answers := s.Answers.Clone()
	for _, q := range s.Questions {
		if prev := answers[q.ID]; prev != "" {
			r.printf("\n%d. %s\n   [%s] press enter to keep\n", q.Number, q.Prompt, prev)
		} else {
			r.printf("\n%d. %s\n", q.Number, q.Prompt)
		}
		for i, opt := range q.Options {
			r.printf("   %d) %s\n", i+1, opt)
		}

		for {
			r.printf("> ")
			line, err := r.readLine()
			if err != nil {
				return s, err
			}
			answer := resolveAnswer(q, strings.TrimSpace(line))
			if answer == "" {
				answer = answers[q.ID]
			}
			if strings.TrimSpace(answer) == "" {
				r.printf("Please pick an option.\n")
				continue
			}
			answers[q.ID] = answer
			break
		}
	}

	return flow.Transition(s, flow.SubmitQuiz(answers))
}

// resolveAnswer maps an option number to its text; anything else is taken
// verbatim.
func resolveAnswer(q quiz.Question, input string) string {
	if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(q.Options) {
		return q.Options[n-1]
	}
	return input
}

func (r *runner) stepGenerating(ctx context.Context, s flow.Session) (flow.Session, error) {
	r.printf("\nStep 3 of 5: generating your twin...\n")

	p, err := r.backend.GeneratePersona(ctx, s.Source, s.Answers)
	if err == nil {
		next, terr := flow.Transition(s, flow.PersonaReady(p))
		if terr == nil {
			return next, nil
		}
		err = terr
	}
	if ctx.Err() != nil {
		return s, ctx.Err()
	}
	slog.Warn("persona generation failed", "error", err)
	return flow.Transition(s, flow.PersonaFailed(err))
}

func (r *runner) stepChat(ctx context.Context, s flow.Session) (flow.Session, error) {
	conv := s.Conversation
	r.printf("\nStep 4 of 5: meet your twin.\nPersona: %s\n", s.Persona)
	r.printf("Chat at least %d turns, then type %s to rate it. Up to %d turns.\n", flow.MinTurns, doneCommand, flow.MaxTurns)

	for {
		r.printf("\n[%d/%d] you> ", conv.Turns(), flow.MaxTurns)
		line, err := r.readLine()
		if err != nil {
			return s, err
		}
		line = strings.TrimSpace(line)

		if line == doneCommand {
			next, err := flow.Transition(s, flow.CompleteChat())
			if errors.Is(err, flow.ErrTooFewTurns) {
				r.printf("Keep chatting: %d more turn(s) before rating.\n", flow.MinTurns-conv.Turns())
				continue
			}
			return next, err
		}
		if line == "" {
			continue
		}
		if !conv.ComposerEnabled() {
			r.printf("Turn limit reached. Type %s to rate your twin.\n", doneCommand)
			continue
		}

		r.printf("twin> ")
		shown := ""
		_, err = conv.Exchange(ctx, r.backend, s.Persona, line, func(m domain.ChatMessage) {
			if m.Sender != domain.SenderAI {
				return
			}
			if strings.HasPrefix(m.Text, shown) && m.Text != flow.ApologyMessage {
				r.printf("%s", m.Text[len(shown):])
			} else {
				r.printf("\n%s", m.Text)
			}
			shown = m.Text
		})
		r.printf("\n")
		if err != nil {
			if ctx.Err() != nil {
				return s, ctx.Err()
			}
			slog.Warn("chat turn failed", "error", err)
		}
		if conv.LimitReached() {
			r.printf("That was the last turn. Type %s to rate your twin.\n", doneCommand)
		}
	}
}

func (r *runner) stepRating(ctx context.Context, s flow.Session) (flow.Session, error) {
	r.printf("\nStep 5 of 5: rate your twin.\n")
	for {
		accuracy, err := r.readRating("How accurately did it capture your style?")
		if err != nil {
			return s, err
		}
		consciousness, err := r.readRating("How conscious did it feel?")
		if err != nil {
			return s, err
		}
		r.printf("Anything else? (optional)\n> ")
		note, err := r.readLine()
		if err != nil && !errors.Is(err, io.EOF) {
			return s, err
		}

		ratings := domain.Ratings{Accuracy: accuracy, Consciousness: consciousness, Note: strings.TrimSpace(note)}
		next, err := flow.Transition(s, flow.SubmitRatings(ratings))
		if errors.Is(err, flow.ErrInvalidRatings) {
			r.printf("%v\n", err)
			continue
		}
		if err != nil {
			return s, err
		}

		_, err = r.backend.SubmitFeedback(ctx, s.Persona, ratings, s.Conversation.Turns())
		r.feedbackSaved = err == nil
		if err != nil {
			slog.Warn("failed to record feedback", "error", err)
		}
		return next, nil
	}
}

// readRating reads a slider value; an empty line keeps the default.
func (r *runner) readRating(prompt string) (int, error) {
	for {
		r.printf("%s [%d-%d, default %d]\n> ", prompt, domain.MinRating, domain.MaxRating, domain.DefaultRating)
		line, err := r.readLine()
		if err != nil {
			return 0, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return domain.DefaultRating, nil
		}
		n, err := strconv.Atoi(line)
		if err != nil || n < domain.MinRating || n > domain.MaxRating {
			r.printf("Please enter a number from %d to %d.\n", domain.MinRating, domain.MaxRating)
			continue
		}
		return n, nil
	}
}

func (r *runner) stepFinal() (bool, error) {
	if r.feedbackSaved {
		r.printf("\nThanks! Your feedback has been recorded.\n")
	} else {
		r.printf("\nThanks for trying your twin. Your feedback could not be saved this time.\n")
	}
	r.printf("Start over? [y/N] ")
	line, err := r.readLine()
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
