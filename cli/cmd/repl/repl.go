package repl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/ribosome/log"
	"github.com/ardnew/ribosome/pkg"
	"github.com/ardnew/ribosome/rna"
)

// editChunkMsg is sent when a chunk composed in the editor has run.
type editChunkMsg struct {
	output string
	err    error
}

// editCancelledMsg is sent when the user cleared the editor content.
type editCancelledMsg struct{}

// editDeclinedMsg is sent when the user declined to re-edit after a
// translation error.
type editDeclinedMsg struct{}

// editErrorMsg is sent when the edit process fails for any other reason.
type editErrorMsg struct{ err error }

const (
	evalPrompt = "➜ "
	contPrompt = "… "
	ctrlPrompt = " :"
)

func helpMessage() string {
	return `
: Commands (press Esc to toggle mode):

  help     Print this cruft
  vars     List global variables
  edit     Compose a chunk in external $EDITOR
  clear    Clear screen
  reset    Discard the lines of an unfinished block
  quit     Exit REPL

Usage:
  Type template lines: host statements, .text, ./+text, ./=text, ./!directive()
  A chunk runs once every block it opens is closed by end
  Completions appear automatically as you type
  Press Tab / Shift-Tab to cycle through candidates
  Press Space to accept the current candidate
  Press Esc to toggle between eval and command modes
  Use Up/Down arrows for history navigation (mode switches automatically)
  Use Shift+Up/Shift+Down for history navigation within current mode only
  Press Ctrl+C on empty line or Ctrl+D to exit
`
}

// inputMode represents the current input mode.
type inputMode int

const (
	modeEval inputMode = iota
	modeCtrl
)

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	selectedStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
)

// formatCommand formats the echo of a template line.
func formatCommand(prompt, input string) string {
	return promptStyle.Render(prompt) + inputStyle.Render(input)
}

// formatCtrlCommand formats the echo of a control command.
func formatCtrlCommand(input string) string {
	return ctrlPromptStyle.Render(ctrlPrompt) + inputStyle.Render(input)
}

// formatOutput renders what a chunk wrote, without its final newline.
func formatOutput(out string) string {
	return resultStyle.Render(strings.TrimSuffix(out, "\n"))
}

// formatError renders err. A generation failure is shown with its template
// traceback.
func formatError(err error) string {
	if ge, ok := rna.AsGenerationError(err); ok {
		var b bytes.Buffer
		if ge.WriteTrace(&b) == nil {
			return errorStyle.Render(strings.TrimSuffix(b.String(), "\n"))
		}
	}

	return errorStyle.Render("error: " + pkg.Describe(err))
}

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc    func() context.Context
	input      textinput.Model
	session    *Session
	logger     log.Logger
	history    *History
	historyIdx int
	completion
	suggIdx      int    // selected candidate index
	tabActive    bool   // whether user is tab-cycling
	preTabText   string // input text before tab-cycling began
	preTabCursor int    // cursor position before tab-cycling began
	width        int    // terminal width for ellipsization
	quitting     bool
	mode         inputMode
	evalText     string
	evalCursor   int
	ctrlText     string
	ctrlCursor   int
}

// Run starts an interactive session over root. Relative includes and
// outputs resolve against dir; the history file lives in cacheDir.
func Run(
	ctx context.Context,
	root any,
	dir string,
	cacheDir string,
	logger log.Logger,
) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return ErrNoTerminal
	}

	logger.TraceContext(
		ctx,
		"repl start",
		slog.String("cache_dir", cacheDir),
		slog.String("dir", dir),
		slog.Bool("has_root", root != nil),
	)

	history := NewHistory(filepath.Join(cacheDir, baseHistory))
	if err := history.Load(); err != nil {
		logger.WarnContext(ctx, "could not load history", slog.Any("error", err))
	}

	logger.TraceContext(
		ctx,
		"repl history loaded",
		slog.Int("entry_count", history.Len()),
	)

	m := newModel(ctx, NewSession(root, dir, logger), history, logger)

	p := tea.NewProgram(m, tea.WithContext(ctx))
	_, err = p.Run()

	return err
}

const defaultWidth = 80

func newModel(
	ctx context.Context,
	session *Session,
	history *History,
	logger log.Logger,
) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(evalPrompt)
	ti.Focus()
	ti.CharLimit = 1024
	ti.Width = defaultWidth

	return model{
		ctxFunc:    func() context.Context { return ctx },
		input:      ti,
		session:    session,
		logger:     logger,
		history:    history,
		historyIdx: history.Len(),
		width:      defaultWidth,
		mode:       modeEval,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(evalPrompt) - 2

		return m, nil

	case editChunkMsg:
		m.logger.TraceContext(
			m.ctxFunc(),
			"repl edit complete",
			slog.Int("output_length", len(msg.output)),
			slog.Bool("failed", msg.err != nil),
		)

		var cmds []tea.Cmd
		if msg.output != "" {
			cmds = append(cmds, tea.Println(formatOutput(msg.output)))
		}

		if msg.err != nil {
			cmds = append(cmds, tea.Println(formatError(msg.err)))
		}

		return m, tea.Sequence(cmds...)

	case editCancelledMsg:
		return m, tea.Println(hintStyle.Render("🗴 edit cancelled"))

	case editDeclinedMsg:
		m.quitting = true

		return m, tea.Quit

	case editErrorMsg:
		return m, tea.Println(formatError(msg.err))
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")

	input := m.input.Value()
	viewingHistory := m.historyIdx < m.history.Len()
	funcCall := detectFunctionCall(input, m.input.Position())

	switch {
	case viewingHistory:
		hint := fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx+1)),
			m.history.Len())
		b.WriteString(hintStyle.Render(hint))

	case strings.TrimSpace(input) == "":
		var hint string

		switch {
		case m.mode == modeCtrl:
			hint = "Type: " + strings.Join(ctrlCommands, ", ") + " (press Esc to return)"
		case len(m.session.Pending()) > 0:
			hint = fmt.Sprintf("%d lines pending; close every block with end", len(m.session.Pending()))
		default:
			hint = "Type a template line or press Esc for commands"
		}

		b.WriteString(hintStyle.Render(hint))

	case funcCall.inCall && m.mode == modeEval:
		if params, ok := getSignature(m.session, funcCall.name); ok {
			b.WriteString(renderSignatureHint(funcCall.name, params, funcCall.argIndex))
		} else {
			b.WriteString(m.candidateBar())
		}

	default:
		b.WriteString(m.candidateBar())
	}

	b.WriteString("\n")

	return b.String()
}

func (m model) candidateBar() string {
	return renderCandidateBar(m.matches, m.suggIdx, m.tabActive, m.width,
		func(name string) bool { return isFunction(m.session, name) })
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(
		m.ctxFunc(),
		"repl keypress",
		slog.String("key", msg.String()),
		slog.Int("type", int(msg.Type)),
	)

	empty := m.input.Value() == ""

	switch msg.Type {
	case tea.KeyCtrlD:
		if !empty {
			return m, nil
		}

		fallthrough

	case tea.KeyCtrlC:
		if empty {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.tabActive = false
		m.historyIdx = m.history.Len()
		m.refresh(false)

		return m, nil

	case tea.KeyEnter:
		if m.tabActive && len(m.matches) > 0 {
			// Enter locks in the selected candidate.
			m.tabActive = false
			m.refresh(true)

			return m, nil
		}

		return m.executeInput()

	case tea.KeyTab, tea.KeyShiftTab:
		dir := 1
		if msg.Type == tea.KeyShiftTab {
			dir = -1
		}

		m.cycle(dir)

		return m, nil

	case tea.KeyUp, tea.KeyShiftUp:
		return m.historyStep(-1, msg.Type == tea.KeyShiftUp), nil

	case tea.KeyDown, tea.KeyShiftDown:
		return m.historyStep(1, msg.Type == tea.KeyShiftDown), nil

	case tea.KeyEsc:
		if !m.tabActive {
			return m.toggleMode(), nil
		}

		m.tabActive = false
		m.input.SetValue(m.preTabText)
		m.input.SetCursor(m.preTabCursor)
		m.refresh(false)

		return m, nil

	case tea.KeyRunes:
		// Space accepts the candidate being cycled.
		if m.tabActive && msg.String() == " " {
			m.tabActive = false
		}

		return m.edit(msg, true)
	}

	// Deletion and cursor movement never confirm a completion.
	m.tabActive = false

	return m.edit(msg, false)
}

// edit passes msg to the text input and refreshes the completions.
func (m model) edit(msg tea.KeyMsg, confirm bool) (model, tea.Cmd) {
	var cmd tea.Cmd

	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	m.refresh(confirm)

	return m, cmd
}

// cycle steps the selected candidate by dir, wrapping at either end. A
// sole candidate is accepted immediately.
func (m *model) cycle(dir int) {
	n := len(m.matches)

	switch {
	case n == 0:
		return

	case n == 1:
		m.accept(m.matches[0].Str)

		return

	case m.tabActive:
		m.suggIdx = (m.suggIdx + dir + n) % n

	default:
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()

		m.suggIdx = 0
		if dir < 0 {
			m.suggIdx = n - 1
		}
	}

	m.replaceWord(m.matches[m.suggIdx].Str)
}

// accept replaces the word with s and ends completion.
func (m *model) accept(s string) {
	m.replaceWord(s)
	m.tabActive = false
	m.suggIdx = -1
	m.matches = nil
}

// replaceWord replaces the word being completed with s and moves the
// cursor after it.
func (m *model) replaceWord(s string) {
	input := m.input.Value()

	m.input.SetValue(input[:m.start] + s + input[m.end:])
	m.end = m.start + len(s)
	m.input.SetCursor(m.end)
}

// refresh recomputes the completions. With confirm, a sole candidate equal
// to the typed word is accepted.
func (m *model) refresh(confirm bool) {
	m.completion = m.complete()

	if !m.tabActive {
		m.suggIdx = -1
	}

	if confirm && len(m.matches) == 1 && m.input.Value()[m.start:m.end] == m.matches[0].Str {
		m.accept(m.matches[0].Str)
	}
}

// prompt returns the eval prompt, which marks a chunk in progress.
func (m model) prompt() string {
	if len(m.session.Pending()) > 0 {
		return contPrompt
	}

	return evalPrompt
}

func (m model) executeInput() (model, tea.Cmd) {
	raw := m.input.Value()
	input := strings.TrimSpace(raw)

	// A blank line still feeds an open block.
	if input == "" && (m.mode == modeCtrl || len(m.session.Pending()) == 0) {
		return m, nil
	}

	m.evalText, m.evalCursor = "", 0
	m.ctrlText, m.ctrlCursor = "", 0
	m.input.SetValue("")

	if m.mode == modeCtrl {
		if err := m.history.Add(input, modeCtrl); err != nil {
			m.logger.DebugContext(m.ctxFunc(), "history", slog.Any("error", err))
		}

		m.historyIdx = m.history.Len()

		return m.executeCommand(input)
	}

	// Template lines keep their leading whitespace; it is significant to
	// emit and align lines.
	line := strings.TrimRight(raw, " \t")

	if err := m.history.Add(line, modeEval); err != nil {
		m.logger.DebugContext(m.ctxFunc(), "history", slog.Any("error", err))
	}

	m.historyIdx = m.history.Len()

	echo := tea.Println(formatCommand(m.prompt(), line))

	out, done, err := m.session.Feed(m.ctxFunc(), line)

	m.input.Prompt = promptStyle.Render(m.prompt())

	m.logger.TraceContext(
		m.ctxFunc(),
		"repl eval",
		slog.String("input", line),
		slog.Bool("done", done),
		slog.Int("output_length", len(out)),
	)

	cmds := []tea.Cmd{echo}

	if out != "" {
		cmds = append(cmds, tea.Println(formatOutput(out)))
	}

	if err != nil {
		cmds = append(cmds, tea.Println(formatError(err)))
	}

	return m, tea.Sequence(cmds...)
}

func (m model) executeCommand(input string) (model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}

	echo := tea.Println(formatCtrlCommand(input))

	m.logger.TraceContext(
		m.ctxFunc(),
		"repl exec command",
		slog.String("command", parts[0]),
		slog.Any("args", parts[1:]),
	)

	switch parts[0] {
	case "q", "quit", "exit":
		m.quitting = true

		return m, tea.Sequence(echo, tea.Quit)

	case "h", "help":
		return m, tea.Sequence(echo, tea.Println(helpMessage()))

	case "v", "vars":
		return m, tea.Sequence(echo, tea.Println(m.listGlobals()))

	case "c", "clear":
		return m, tea.ClearScreen

	case "r", "reset":
		n := len(m.session.Pending())
		m.session.Discard()
		m.input.Prompt = ctrlPromptStyle.Render(ctrlPrompt)

		return m, tea.Sequence(echo,
			tea.Println(hintStyle.Render(fmt.Sprintf("discarded %d lines", n))))

	case "e", "edit":
		return m, tea.Sequence(echo, m.handleEdit())

	default:
		return m, tea.Println(
			errorStyle.Render("Unknown command: " + parts[0] + " (try 'help')"),
		)
	}
}

// handleEdit opens the editor on the pending lines, which the editor's
// chunk replaces.
func (m model) handleEdit() tea.Cmd {
	initial := ""
	if p := m.session.Pending(); len(p) > 0 {
		initial = strings.Join(p, "\n") + "\n"
	}

	m.session.Discard()

	cmd := &editChunkCommand{
		session: m.session,
		initial: initial,
		ctxFunc: m.ctxFunc,
		logger:  m.logger,
	}

	return tea.Exec(cmd, func(err error) tea.Msg {
		switch {
		case errors.Is(err, ErrEditDeclined):
			return editDeclinedMsg{}
		case err != nil:
			return editErrorMsg{err: err}
		case !cmd.ran:
			return editCancelledMsg{}
		}

		return editChunkMsg{output: cmd.output, err: cmd.err}
	})
}

// historyStep moves through history by dir. With sameMode, entries of the
// other mode are skipped; otherwise the mode follows the entry. Moving
// past the newest entry clears the input.
func (m model) historyStep(dir int, sameMode bool) model {
	for i := m.historyIdx + dir; i >= 0 && i < m.history.Len(); i += dir {
		entry, err := m.history.Entry(i)
		if err != nil || (sameMode && entry.Mode != m.mode) {
			continue
		}

		if m.mode != entry.Mode {
			m = m.switchToMode(entry.Mode)
		}

		m.historyIdx = i
		m.input.SetValue(entry.Line)
		m.input.SetCursor(len(entry.Line))
		m.refresh(false)

		return m
	}

	if dir > 0 && m.historyIdx < m.history.Len() {
		m.historyIdx = m.history.Len()
		m.input.SetValue("")
		m.refresh(false)
	}

	return m
}

func (m model) listGlobals() string {
	vars := m.session.Globals()
	if len(vars) == 0 {
		return hintStyle.Render("  (no globals)")
	}

	var b strings.Builder

	for _, g := range vars {
		preview := formatPreview(g.Value)
		if params, ok := m.session.Signature(g.Name); ok {
			preview = "(" + strings.Join(params, ", ") + ")"
		}

		fmt.Fprintf(&b, "  %s %s\n", g.Name, hintStyle.Render(preview))
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// toggleMode switches between eval and control modes.
func (m model) toggleMode() model {
	if m.mode == modeEval {
		return m.switchToMode(modeCtrl)
	}

	return m.switchToMode(modeEval)
}

// switchToMode switches to mode, preserving each mode's input.
func (m model) switchToMode(mode inputMode) model {
	if m.mode == modeEval {
		m.evalText = m.input.Value()
		m.evalCursor = m.input.Position()
	} else {
		m.ctrlText = m.input.Value()
		m.ctrlCursor = m.input.Position()
	}

	m.mode = mode
	if mode == modeEval {
		m.input.Prompt = promptStyle.Render(m.prompt())
		m.input.SetValue(m.evalText)
		m.input.SetCursor(m.evalCursor)
	} else {
		m.input.Prompt = ctrlPromptStyle.Render(ctrlPrompt)
		m.input.SetValue(m.ctrlText)
		m.input.SetCursor(m.ctrlCursor)
	}

	m.refresh(false)

	return m
}
