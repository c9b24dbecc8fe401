package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/sqlquest/internal/cli/output"
	"github.com/leapstack-labs/sqlquest/internal/journal"
	"github.com/leapstack-labs/sqlquest/internal/tutor"
	"github.com/leapstack-labs/sqlquest/pkg/core"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const continuationPrompt = "    ...> "

// NewShellCommand creates the interactive shell command.
func NewShellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shell [lesson]",
		Short: "Start an interactive SQL shell",
		Long: `Start an interactive shell backed by a sandbox database.

With a lesson, the sandbox is seeded from the lesson and dot-commands walk
through its phases, grade challenges and answer quiz questions. Without one
the sandbox starts empty. Lesson files in the lessons directory are reloaded
when they change.

SQL statements end with a semicolon and may span several lines.
Type .help inside the shell for the list of commands.`,
		Example: `  sqlquest shell select-basics
  sqlquest shell --engine duckdb`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeLessonIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd, args)
		},
	}
}

func runShell(cmd *cobra.Command, args []string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	t := cmdCtx.NewTutor()
	defer t.Dispose()
	s := newShell(cmdCtx, t)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if len(args) == 1 {
		if err := s.startLesson(ctx, args[0]); err != nil {
			return err
		}
	} else if err := t.InitializeDatabase(ctx, ""); err != nil {
		return err
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          s.prompt(),
		HistoryFile:     historyFile(cmdCtx.Cfg.JournalPath),
		AutoComplete:    s.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize shell: %w", err)
	}
	defer func() { _ = rl.Close() }()

	r := cmdCtx.Renderer
	r.Printf("sqlquest shell (engine: %s)\n", t.Engine())
	r.Println("Type .help for commands, .quit to exit")
	r.Println()

	g, gctx := errgroup.WithContext(ctx)
	if dir := cmdCtx.Catalog.Dir(); dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			g.Go(func() error {
				err := cmdCtx.Catalog.Watch(gctx, func(err error) {
					if err != nil {
						r.Warning(fmt.Sprintf("lesson reload failed: %v", err))
						return
					}
					cmdCtx.Logger.Info("lessons reloaded", "count", cmdCtx.Catalog.Len())
				})
				if err != nil {
					cmdCtx.Logger.Warn("lesson watcher stopped", "error", err)
				}
				return nil
			})
		}
	}
	g.Go(func() error {
		defer cancel()
		return s.loop(gctx, rl)
	})
	return g.Wait()
}

func historyFile(journalPath string) string {
	if journalPath == "" || journalPath == journal.MemoryPath {
		return ""
	}
	return filepath.Join(filepath.Dir(journalPath), "shell_history")
}

// shell interprets lines typed into the interactive shell.
type shell struct {
	cmdCtx *CommandContext
	r      *output.Renderer
	tutor  *tutor.Tutor
	buf    strings.Builder
}

func newShell(cmdCtx *CommandContext, t *tutor.Tutor) *shell {
	return &shell{cmdCtx: cmdCtx, r: cmdCtx.Renderer, tutor: t}
}

func (s *shell) loop(ctx context.Context, rl *readline.Instance) error {
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			s.buf.Reset()
			rl.SetPrompt(s.prompt())
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if quit := s.handleLine(ctx, line); quit {
			return nil
		}
		rl.SetPrompt(s.prompt())
	}
}

func (s *shell) prompt() string {
	if s.buf.Len() > 0 {
		return continuationPrompt
	}
	l := s.tutor.Lesson()
	if l == nil {
		return "sqlquest> "
	}
	return fmt.Sprintf("%s:%s> ", l.ID, s.tutor.Phases().CurrentPhase())
}

// handleLine processes one input line and reports whether the shell should
// exit. SQL accumulates until a line ends with a semicolon.
func (s *shell) handleLine(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if s.buf.Len() == 0 && strings.HasPrefix(line, ".") {
		return s.dotCommand(ctx, line)
	}

	s.buf.WriteString(line)
	if !strings.HasSuffix(line, ";") {
		s.buf.WriteString("\n")
		return false
	}
	sqlText := s.buf.String()
	s.buf.Reset()

	res := s.tutor.ExecuteQuery(ctx, sqlText)
	if err := s.r.Result(res); err != nil {
		s.fail(err)
	}
	s.r.Println()
	return false
}

func (s *shell) dotCommand(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])
	arg := strings.TrimSpace(line[len(parts[0]):])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printShellHelp(s.r.Writer())

	case ".schema":
		if err := s.r.Schema(s.tutor.GetSchema()); err != nil {
			s.fail(err)
		}

	case ".tables":
		names := core.TableNames(s.tutor.GetSchema())
		if len(names) == 0 {
			s.r.Println(s.r.Muted("(no tables)"))
		} else {
			s.r.Println(strings.Join(names, "  "))
		}

	case ".reset":
		if err := s.tutor.RestoreBaseline(ctx); err != nil {
			s.fail(err)
			break
		}
		s.r.Success("Sandbox restored")

	case ".lessons":
		for _, l := range s.cmdCtx.Catalog.List() {
			s.r.Printf("  %-22s %s\n", l.ID, l.Title)
		}

	case ".lesson":
		if arg == "" {
			s.r.Warning("Usage: .lesson <id>")
			break
		}
		if err := s.startLesson(ctx, arg); err != nil {
			s.fail(err)
		}

	case ".next", ".prev":
		if !s.requireLesson() {
			break
		}
		if command == ".next" {
			s.tutor.NextPhase()
		} else {
			s.tutor.PrevPhase()
		}
		s.showPhase()

	case ".phase":
		if !s.requireLesson() {
			break
		}
		if arg != "" && !s.tutor.GoToPhase(arg) {
			s.r.Warning(fmt.Sprintf("unknown phase %q (valid: %s)", arg, strings.Join(phaseNames(), ", ")))
			break
		}
		s.showPhase()

	case ".challenge":
		if !s.requireLesson() {
			break
		}
		if arg == "next" {
			s.tutor.NextChallenge()
		}
		s.showChallenge()

	case ".submit":
		if arg == "" {
			s.r.Warning("Usage: .submit <sql>")
			break
		}
		verdict, err := s.tutor.Submit(ctx, arg)
		if err != nil {
			s.fail(err)
			break
		}
		if err := renderVerdict(s.r, verdict); err != nil {
			s.fail(err)
		}

	case ".hint":
		if _, ok := s.tutor.CurrentChallenge(); !ok {
			s.r.Warning("No challenge to give a hint for")
			break
		}
		hint, ok := s.tutor.NextHint()
		if !ok {
			s.r.Println(s.r.Muted("No more hints"))
			break
		}
		s.r.Println(s.r.Styles().Bold.Render("Hint: ") + hint)

	case ".answer":
		s.answer(ctx, parts[1:])

	case ".history":
		s.history(ctx)

	default:
		s.r.Warning(fmt.Sprintf("Unknown command: %s (type .help for commands)", command))
	}
	return false
}

func (s *shell) startLesson(ctx context.Context, id string) error {
	l, err := s.cmdCtx.Catalog.Get(id)
	if err != nil {
		return err
	}
	var seedErr *core.SeedError
	if err := s.tutor.StartLesson(ctx, l); err != nil {
		if !errors.As(err, &seedErr) {
			return err
		}
		s.r.Warning(err.Error())
	}
	s.showPhase()
	return nil
}

func (s *shell) requireLesson() bool {
	if s.tutor.Lesson() == nil {
		s.r.Warning("No lesson started (use .lesson <id>)")
		return false
	}
	return true
}

func (s *shell) showPhase() {
	st := s.tutor.Phases().State()
	current := -1
	if st.Phase == core.AssessmentPhase {
		current = st.ChallengeIndex
	}
	if err := renderPhase(s.r, s.tutor.Lesson(), st.Phase, current); err != nil {
		s.fail(err)
	}
}

func (s *shell) showChallenge() {
	c, ok := s.tutor.CurrentChallenge()
	if !ok {
		s.r.Warning("This lesson has no challenges")
		return
	}
	st := s.tutor.Phases().State()
	renderChallenge(s.r, st.ChallengeIndex, st.ChallengeCount, c, true)
	s.r.Println(s.r.Muted("Submit with .submit <sql>"))
}

// answer handles ".answer <option>" for the first unanswered question and
// ".answer <question> <option>". Numbers are one-based.
func (s *shell) answer(ctx context.Context, args []string) {
	if !s.requireLesson() {
		return
	}
	nums := make([]int, len(args))
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil || n < 1 {
			s.r.Warning("Usage: .answer [question] <option>")
			return
		}
		nums[i] = n - 1
	}

	var question, option int
	switch len(nums) {
	case 1:
		question = s.nextUnanswered()
		option = nums[0]
	case 2:
		question, option = nums[0], nums[1]
	default:
		s.r.Warning("Usage: .answer [question] <option>")
		return
	}

	correct, err := s.tutor.AnswerQuiz(ctx, question, option)
	if err != nil {
		s.fail(err)
		return
	}
	q := s.tutor.Lesson().Questions()[question]
	if correct {
		s.r.Success(fmt.Sprintf("Q%d: correct", question+1))
	} else {
		s.r.Error(fmt.Sprintf("Q%d: the answer is %d) %s", question+1, q.Answer+1, q.Options[q.Answer]))
	}
	if q.Explanation != "" {
		s.r.Println(s.r.Muted(q.Explanation))
	}
}

func (s *shell) nextUnanswered() int {
	answered := s.tutor.Snapshot().QuizAnswers
	questions := s.tutor.Lesson().Questions()
	for i := range questions {
		if _, ok := answered[i]; !ok {
			return i
		}
	}
	return len(questions) - 1
}

func (s *shell) history(ctx context.Context) {
	l := s.tutor.Lesson()
	if l == nil || s.cmdCtx.Journal == nil {
		s.r.Println(s.r.Muted("(no history)"))
		return
	}
	attempts, err := s.cmdCtx.Journal.ListAttempts(ctx, l.ID)
	if err != nil {
		s.fail(err)
		return
	}
	if len(attempts) == 0 {
		s.r.Println(s.r.Muted("(no history)"))
		return
	}
	rows := make([][]string, len(attempts))
	for i, a := range attempts {
		result := "pass"
		if !a.Passed {
			result = "fail"
			if a.MismatchKind != "" {
				result += " (" + a.MismatchKind + ")"
			}
		}
		rows[i] = []string{
			a.CreatedAt.Local().Format("2006-01-02 15:04"),
			a.ChallengeID,
			result,
			oneLine(a.SQL, 60),
		}
	}
	s.r.Table([]string{"when", "challenge", "result", "sql"}, rows)
}

func (s *shell) fail(err error) {
	s.r.Error(err.Error())
}

func (s *shell) tableNames(string) []string {
	return core.TableNames(s.tutor.GetSchema())
}

// completer completes dot-commands, lesson ids, phase names and table names.
func (s *shell) completer() *readline.PrefixCompleter {
	var lessons []readline.PrefixCompleterInterface
	for _, l := range s.cmdCtx.Catalog.List() {
		lessons = append(lessons, readline.PcItem(l.ID))
	}
	var phases []readline.PrefixCompleterInterface
	for _, name := range phaseNames() {
		phases = append(phases, readline.PcItem(name))
	}

	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".schema"),
		readline.PcItem(".tables"),
		readline.PcItem(".reset"),
		readline.PcItem(".lessons"),
		readline.PcItem(".lesson", lessons...),
		readline.PcItem(".next"),
		readline.PcItem(".prev"),
		readline.PcItem(".phase", phases...),
		readline.PcItem(".challenge", readline.PcItem("next")),
		readline.PcItem(".submit"),
		readline.PcItem(".hint"),
		readline.PcItem(".answer"),
		readline.PcItem(".history"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
		readline.PcItem("SELECT"),
		readline.PcItemDynamic(s.tableNames),
	)
}

func printShellHelp(w io.Writer) {
	help := `
Commands:
  .help                      Show this help message
  .schema                    Show tables and columns of the sandbox
  .tables                    List table names
  .reset                     Restore the sandbox to the lesson's data
  .lessons                   List lessons
  .lesson <id>               Start a lesson
  .next / .prev              Move to the next or previous phase
  .phase [name]              Show the current phase, or jump to one
  .challenge [next]          Show the current challenge, or advance
  .submit <sql>              Grade SQL against the current challenge
  .hint                      Reveal the next hint
  .answer [question] <n>     Answer a quiz question
  .history                   Show graded attempts for this lesson
  .quit / .exit              Exit the shell

Tips:
  - SQL statements must end with a semicolon (;)
  - Plain SQL runs in the sandbox without grading
  - Use arrow keys to navigate history
`
	_, _ = fmt.Fprintln(w, help)
}

// oneLine collapses whitespace and truncates s to n runes.
func oneLine(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
