package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jwebster45206/dialogue-engine/pkg/chat"
	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
	"github.com/jwebster45206/dialogue-engine/pkg/emotion"
	"github.com/jwebster45206/dialogue-engine/pkg/queue"
	"github.com/jwebster45206/dialogue-engine/pkg/scene"
	"github.com/jwebster45206/dialogue-engine/pkg/session"
	"github.com/muesli/reflow/wordwrap"
)

const (
	PlaceHolderText = "Say something..."

	// pollLimit bounds how long a queued turn is polled before giving up:
	// at one poll every 500ms this is two minutes.
	pollLimit = 240
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	session      *session.Session
	scene        *scene.Scene
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool

	// Queued-turn polling state
	pollAttempts int

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int

	// Event stream state
	eventChan chan SSEEvent
	sseCtx    context.Context
	sseCancel context.CancelFunc
	sseClient *http.Client
}

type turnResponseMsg struct {
	response *chat.TurnResponse
	err      error
}

type turnQueuedMsg struct {
	requestID string
}

type turnPollMsg struct {
	requestID string
	result    *queue.Result
	err       error
}

type sessionMsg struct {
	session *session.Session
	err     error
}

type advanceMsg struct {
	result *phaseAdvance
	err    error
}

type sessionEndedMsg struct {
	session *session.Session
	err     error
}

type sseEventMsg struct {
	event SSEEvent
}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	npcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	cueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")). // yellow
			Italic(true)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	systemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")). // light grey
			Italic(true)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client, sess *session.Session, sc *scene.Scene) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	ctx, cancel := context.WithCancel(context.Background())

	return ConsoleUI{
		config:       cfg,
		client:       client,
		session:      sess,
		scene:        sc,
		textarea:     ta,
		chatViewport: chatVp,
		metaViewport: metaVp,
		ready:        false,
		eventChan:    make(chan SSEEvent, 16),
		sseCtx:       ctx,
		sseCancel:    cancel,
		// A timeout on the shared client would cut the event stream off
		// mid-session, so SSE gets its own client.
		sseClient: &http.Client{},
	}
}

func (m ConsoleUI) npcName() string {
	if m.scene != nil && m.scene.NPC.Name != "" {
		return m.scene.NPC.Name
	}
	return "NPC"
}

func (m ConsoleUI) playerName() string {
	if m.session != nil && m.session.PlayerName != "" {
		return m.session.PlayerName
	}
	return "You"
}

// writeChatContent rebuilds the chat transcript for the current viewport
// width from the session's dialogue history.
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6 // Account for left(3) + right(3) padding
	if chatWidth < 20 {
		chatWidth = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("DIALOGUE ENGINE") + "\n\n")
	if m.scene != nil {
		content.WriteString(fmt.Sprintf("%s — talking with %s\n\n", m.scene.Name, m.npcName()))
	}
	content.WriteString(separatorStyle.Render(strings.Repeat("─", chatWidth-6)) + "\n\n")

	if m.session != nil && m.session.Dialogue != nil {
		for _, turn := range m.session.Dialogue.History {
			switch turn.Speaker {
			case dialogue.SpeakerNPC:
				content.WriteString(formatNPCLine(m.npcName(), turn.Emotion, turn.Text, chatWidth) + "\n\n")
			case dialogue.SpeakerPlayer:
				userMsg := userStyle.Render(m.playerName()+": ") + wordwrap.String(turn.Text, chatWidth-6) + "\n\n"
				content.WriteString(userMsg)
			case dialogue.SpeakerSystem:
				content.WriteString(systemStyle.Render(wordwrap.String(turn.Text, chatWidth-4)) + "\n\n")
			}
		}
	}

	// If currently loading, add the progress bar
	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

// formatNPCLine renders an NPC turn with its emotion cue as a badge, e.g.
// "Vesper [sighing]: Another visitor."
func formatNPCLine(name, cue, text string, width int) string {
	prefix := name
	if cue != "" {
		prefix += " [" + cue + "]"
	}
	prefix += ": "

	wrapWidth := width - len(prefix)
	if wrapWidth < 10 {
		wrapWidth = 10
	}

	rendered := speakerStyle.Render(name)
	if cue != "" {
		rendered += " " + cueStyle.Render("["+cue+"]")
	}
	rendered += npcStyle.Render(": ")

	return rendered + npcStyle.Render(wordwrap.String(text, wrapWidth))
}

func writeMetadata(sess *session.Session, sc *scene.Scene) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("SESSION") + "\n\n")

	content.WriteString("Session ID:\n")
	content.WriteString(sess.ID.String()[:8] + "...\n\n")

	if sc != nil {
		content.WriteString("Scene:\n")
		content.WriteString(sc.Name + "\n\n")
	}

	if sess.Narrative != nil {
		nctx := sess.Narrative.Context()
		content.WriteString("Phase:\n")
		content.WriteString(string(nctx.Phase))
		if nctx.ShouldAdvance {
			content.WriteString(" " + cueStyle.Render("▲ ready"))
		}
		content.WriteString("\n\n")
		content.WriteString("Turns:\n")
		content.WriteString(fmt.Sprintf("%d total, %d in phase\n\n", nctx.TurnCount, nctx.TurnsInPhase))
	}

	if sess.Dialogue != nil && len(sess.Dialogue.KeyFacts) > 0 {
		content.WriteString("Facts:\n")
		for _, f := range sess.Dialogue.KeyFacts {
			content.WriteString("• " + f + "\n")
		}
		content.WriteString("\n")
	}

	if sess.Escalation != nil && len(sess.Escalation.Counts) > 0 {
		content.WriteString("Warnings:\n")
		for topic, n := range sess.Escalation.Counts {
			content.WriteString(fmt.Sprintf("• %s: %d\n", topic, n))
		}
		content.WriteString("\n")
	}

	if sess.Ended {
		content.WriteString(errorStyle.Render("Conversation ended") + "\n\n")
	}

	content.WriteString("Commands:\n")
	content.WriteString("• Ctrl+C: Quit\n")
	content.WriteString("• Enter: Send\n")
	content.WriteString("• /help: Help\n")
	content.WriteString("• /advance: Next phase\n")

	return content.String()
}

func (m ConsoleUI) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.startEventListener(), m.waitForEvent())
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		// Pass mouse events to all components; each ignores events outside
		// its bounds.
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		chatWidth := int(float64(m.width)*0.75) - 4
		metaWidth := m.width - chatWidth - 6

		m.chatViewport.Width = chatWidth - 2
		m.chatViewport.Height = m.height - 7
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 4
		m.textarea.SetWidth(chatWidth - 4)

		m.ready = true
		// Reformat all content for the new width
		m.writeChatContent()
		m.metaViewport.SetContent(writeMetadata(m.session, m.scene))

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}

			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			if m.session.Ended {
				m.appendSystemLine("This conversation has ended. Press Ctrl+C to quit.")
				m.textarea.Reset()
				return m, nil
			}

			m.textarea.Reset()
			m.loading = true
			m.progressTick = 0

			m.appendTurn(dialogue.Turn{Speaker: dialogue.SpeakerPlayer, Text: input})

			return m, tea.Batch(m.sendTurn(input), progressTick())
		}

	case turnResponseMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.writeChatContent()
			currentContent := m.chatViewport.View()
			errorMsg := errorStyle.Render("Error: "+msg.err.Error()) + "\n\n"
			m.chatViewport.SetContent(currentContent + errorMsg)
			m.chatViewport.GotoBottom()
			return m, nil
		}
		m.applyTurnResponse(msg.response)
		return m, m.refreshSession()

	case turnQueuedMsg:
		m.pollAttempts = 0
		return m, m.pollTurn(msg.requestID)

	case turnPollMsg:
		return m.handlePollResult(msg)

	case sessionMsg:
		if msg.err == nil && msg.session != nil {
			// Keep the local transcript: the server compresses old turns
			// out of the history once they are summarized.
			if m.session != nil && m.session.Dialogue != nil && msg.session.Dialogue != nil {
				msg.session.Dialogue.History = m.session.Dialogue.History
			}
			m.session = msg.session
			m.metaViewport.SetContent(writeMetadata(m.session, m.scene))
		}

	case advanceMsg:
		m.loading = false
		if msg.err != nil {
			m.appendSystemLine("Advance failed: " + msg.err.Error())
			return m, nil
		}
		if msg.result.Advanced {
			m.appendSystemLine(fmt.Sprintf("The scene shifts. (%s → %s)", msg.result.From, msg.result.Context.Phase))
		} else {
			m.appendSystemLine("The conversation isn't ready to move on yet.")
		}
		return m, m.refreshSession()

	case sessionEndedMsg:
		m.loading = false
		if msg.err != nil {
			m.appendSystemLine("Could not end the conversation: " + msg.err.Error())
			return m, nil
		}
		if msg.session.Dialogue != nil && m.session.Dialogue != nil {
			msg.session.Dialogue.History = m.session.Dialogue.History
		}
		m.session = msg.session
		m.appendSystemLine("The conversation has ended.")
		m.metaViewport.SetContent(writeMetadata(m.session, m.scene))
		return m, nil

	case sseEventMsg:
		return m.handleEvent(msg.event)

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

// appendTurn adds a line to the local transcript and re-renders the chat.
func (m *ConsoleUI) appendTurn(turn dialogue.Turn) {
	if m.session.Dialogue == nil {
		m.session.Dialogue = &dialogue.Manager{}
	}
	m.session.Dialogue.History = append(m.session.Dialogue.History, turn)
	m.writeChatContent()
}

func (m *ConsoleUI) appendSystemLine(text string) {
	m.appendTurn(dialogue.Turn{Speaker: dialogue.SpeakerSystem, Text: text})
}

// applyTurnResponse records a finished turn. Command shortcuts come back
// without a sequence number and read as system output rather than NPC speech.
func (m *ConsoleUI) applyTurnResponse(resp *chat.TurnResponse) {
	if resp.SequenceNumber == 0 {
		m.appendSystemLine(resp.CleanText)
		return
	}
	m.appendTurn(dialogue.Turn{
		Speaker: dialogue.SpeakerNPC,
		Text:    resp.CleanText,
		Emotion: firstCue(resp.Cues),
	})
	if resp.SessionEnded {
		m.session.Ended = true
		m.appendSystemLine("The conversation has ended.")
	}
}

func firstCue(cues []emotion.Cue) string {
	if len(cues) == 0 {
		return ""
	}
	return cues[0].Raw
}

func (m ConsoleUI) handlePollResult(msg turnPollMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.loading = false
		m.appendSystemLine("Error: " + msg.err.Error())
		return m, nil
	}

	switch msg.result.Status {
	case queue.ResultStatusCompleted:
		m.loading = false
		if msg.result.Response != nil {
			m.applyTurnResponse(msg.result.Response)
		}
		return m, m.refreshSession()
	case queue.ResultStatusFailed:
		m.loading = false
		reason := msg.result.Error
		if reason == "" {
			reason = "the turn could not be processed"
		}
		m.appendSystemLine("Error: " + reason)
		return m, nil
	default:
		m.pollAttempts++
		if m.pollAttempts > pollLimit {
			m.loading = false
			m.appendSystemLine("Error: timed out waiting for a reply.")
			return m, nil
		}
		return m, m.pollTurn(msg.requestID)
	}
}

func (m ConsoleUI) handleEvent(ev SSEEvent) (tea.Model, tea.Cmd) {
	switch ev.Type {
	case "phase.advanced", "summary.updated":
		// Another client or a background worker changed the session.
		return m, tea.Batch(m.refreshSession(), m.waitForEvent())
	case "session.ended":
		m.session.Ended = true
		m.metaViewport.SetContent(writeMetadata(m.session, m.scene))
		return m, m.waitForEvent()
	default:
		// Turn lifecycle events are covered by polling.
		return m, m.waitForEvent()
	}
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(input)))
	m.textarea.Reset()
	if len(fields) == 0 {
		return m, nil
	}

	switch fields[0] {
	case "/help":
		helpText := `
Commands:
• /help - Show this help
• /facts - Show what the NPC remembers about you
• /topics - Show topics discussed so far
• /advance [phase] - Move the scene to its next phase
• /end - End the conversation
• Ctrl+C - Quit

How to play:
• Type what you want to say and press Enter
• Emotion cues appear as [badges] on NPC lines
`
		currentContent := m.chatViewport.View()
		m.chatViewport.SetContent(currentContent + titleStyle.Render("Help:") + helpText + "\n")
		m.chatViewport.GotoBottom()

	case "/facts":
		var factsText strings.Builder
		factsText.WriteString(titleStyle.Render("Facts:") + "\n")
		if m.session.Dialogue == nil || len(m.session.Dialogue.KeyFacts) == 0 {
			factsText.WriteString("No facts recorded yet.\n")
		} else {
			for _, f := range m.session.Dialogue.KeyFacts {
				factsText.WriteString("• " + f + "\n")
			}
		}
		factsText.WriteString("\n")

		currentContent := m.chatViewport.View()
		m.chatViewport.SetContent(currentContent + factsText.String())
		m.chatViewport.GotoBottom()

	case "/topics":
		var topicsText strings.Builder
		topicsText.WriteString(titleStyle.Render("Topics:") + "\n")
		if m.session.Narrative == nil || len(m.session.Narrative.DiscussedTopics) == 0 {
			topicsText.WriteString("No topics discussed yet.\n")
		} else {
			for _, t := range m.session.Narrative.DiscussedTopics {
				topicsText.WriteString("• " + t + "\n")
			}
		}
		topicsText.WriteString("\n")

		currentContent := m.chatViewport.View()
		m.chatViewport.SetContent(currentContent + topicsText.String())
		m.chatViewport.GotoBottom()

	case "/advance":
		target := ""
		if len(fields) > 1 {
			target = fields[1]
		}
		m.loading = true
		m.progressTick = 0
		return m, tea.Batch(m.advance(target), progressTick())

	case "/end":
		m.loading = true
		m.progressTick = 0
		return m, tea.Batch(m.end(), progressTick())

	default:
		m.appendSystemLine("Unknown command. Type /help for a list.")
	}

	return m, nil
}

func (m ConsoleUI) sendTurn(text string) tea.Cmd {
	return func() tea.Msg {
		resp, accepted, err := postTurn(m.client, m.config.APIBaseURL, m.session.ID, text)
		if err != nil {
			return turnResponseMsg{nil, err}
		}
		if accepted != nil {
			return turnQueuedMsg{requestID: accepted.RequestID}
		}
		return turnResponseMsg{resp, nil}
	}
}

func (m ConsoleUI) pollTurn(requestID string) tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(time.Time) tea.Msg {
		result, err := getTurnResult(m.client, m.config.APIBaseURL, m.session.ID, requestID)
		return turnPollMsg{requestID: requestID, result: result, err: err}
	})
}

func (m ConsoleUI) refreshSession() tea.Cmd {
	return func() tea.Msg {
		sess, err := getSession(m.client, m.config.APIBaseURL, m.session.ID)
		return sessionMsg{sess, err}
	}
}

func (m ConsoleUI) advance(phase string) tea.Cmd {
	return func() tea.Msg {
		result, err := advancePhase(m.client, m.config.APIBaseURL, m.session.ID, phase)
		return advanceMsg{result, err}
	}
}

func (m ConsoleUI) end() tea.Cmd {
	return func() tea.Msg {
		sess, err := endSession(m.client, m.config.APIBaseURL, m.session.ID)
		return sessionEndedMsg{sess, err}
	}
}

func (m ConsoleUI) startEventListener() tea.Cmd {
	return func() tea.Msg {
		_ = listenToSSE(m.sseCtx, m.sseClient, m.config.APIBaseURL, m.session.ID, m.eventChan)
		return nil
	}
}

func (m ConsoleUI) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.eventChan
		if !ok {
			return nil
		}
		return sseEventMsg{event: ev}
	}
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			m.sseCancel()
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				m.sseCancel()
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Leave the conversation?"))
	content.WriteString("\n\n")
	content.WriteString("The session stays on the server; you can resume it later.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(58).Render(content.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"", // Add empty line for spacing
			separatorStyle.Render(strings.Repeat("─", chatWidth-4)),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30 // fallback before sizing
	}

	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓") // Blinking effect at the progress point
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
