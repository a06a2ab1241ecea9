package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/flutter-host/embedder"
	"github.com/wippyai/flutter-host/engine/loopback"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#02569B")).
			Padding(0, 1)

	channelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	codecStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#02569B"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const maxOutbound = 6

type interactiveModel struct {
	err      error
	host     *embedder.Embedder
	eng      *loopback.Engine
	result   string
	channels []channelInfo
	inputs   []textinput.Model
	outbound []string
	selected int
	focusIdx int
	state    modelState
}

type channelInfo struct {
	name  string
	codec string
	owner string
}

type modelState int

const (
	stateSelectChannel modelState = iota
	stateInputCall
	stateShowResult
)

type callResultMsg struct {
	err    error
	result string
}

type outboundMsg loopback.Message

func newInteractiveModel(host *embedder.Embedder, eng *loopback.Engine) *interactiveModel {
	m := &interactiveModel{host: host, eng: eng, state: stateSelectChannel}
	for _, name := range host.Channels().Names() {
		owner, _ := host.Plugins().Owner(name)
		m.channels = append(m.channels, channelInfo{
			name:  name,
			codec: codecOf(host, name).Name(),
			owner: owner,
		})
	}
	return m
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state != stateInputCall {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectChannel && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectChannel && m.selected < len(m.channels)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectChannel:
				if len(m.channels) == 0 {
					return m, nil
				}
				m.prepareInputs()
				m.state = stateInputCall
				return m, nil

			case stateInputCall:
				return m, m.call(m.channels[m.selected].name, m.inputs[0].Value(), m.inputs[1].Value())

			case stateShowResult:
				m.state = stateSelectChannel
				m.result = ""
				m.err = nil
			}

		case "tab":
			if m.state == stateInputCall {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "esc":
			switch m.state {
			case stateInputCall:
				m.state = stateSelectChannel
				m.inputs = nil
			case stateShowResult:
				m.state = stateSelectChannel
				m.result = ""
				m.err = nil
			}
		}

	case callResultMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult

	case outboundMsg:
		line := fmt.Sprintf("%s (%d bytes)", msg.Channel, len(msg.Payload))
		m.outbound = append(m.outbound, line)
		if len(m.outbound) > maxOutbound {
			m.outbound = m.outbound[len(m.outbound)-maxOutbound:]
		}
	}

	if m.state == stateInputCall {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m *interactiveModel) prepareInputs() {
	method := textinput.New()
	method.Prompt = "method: "
	method.Placeholder = "Clipboard.getData"
	method.Width = 40
	method.Focus()

	args := textinput.New()
	args.Prompt = "args:   "
	args.Placeholder = "null"
	args.Width = 40

	m.inputs = []textinput.Model{method, args}
	m.focusIdx = 0
}

// call delivers a method call on the platform goroutine and waits for the
// reply off it.
func (m *interactiveModel) call(channelName, method, argsJSON string) tea.Cmd {
	return func() tea.Msg {
		if argsJSON == "" {
			argsJSON = "null"
		}
		c := codecOf(m.host, channelName)
		payload, err := encodeCall(c, method, argsJSON)
		if err != nil {
			return callResultMsg{err: err}
		}

		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()

		replies := make(chan *loopback.Reply, 1)
		m.host.Runner().Post(func() {
			replies <- m.eng.Deliver(channelName, payload)
		})

		var reply *loopback.Reply
		select {
		case reply = <-replies:
		case <-ctx.Done():
			return callResultMsg{err: ctx.Err()}
		}
		out, err := reply.Wait(ctx)
		if stderrors.Is(err, context.DeadlineExceeded) {
			return callResultMsg{result: "no reply (message discarded)"}
		}
		if err != nil {
			return callResultMsg{err: err}
		}
		return callResultMsg{result: describeReply(c, out)}
	}
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Flutter Host"))
	b.WriteString(" loopback engine\n\n")

	switch m.state {
	case stateSelectChannel:
		b.WriteString("Select a channel:\n\n")
		for i, ch := range m.channels {
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + m.formatChannel(ch)))
			} else {
				b.WriteString("  " + m.formatChannel(ch))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter call • q quit"))

	case stateInputCall:
		ch := m.channels[m.selected]
		b.WriteString(fmt.Sprintf("Calling %s\n\n", channelStyle.Render(ch.name)))
		for _, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter call • esc back"))

	case stateShowResult:
		ch := m.channels[m.selected]
		b.WriteString(fmt.Sprintf("Reply on %s:\n\n", channelStyle.Render(ch.name)))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	if len(m.outbound) > 0 {
		b.WriteString("\n\nOutbound:\n")
		for _, line := range m.outbound {
			b.WriteString("  " + codecStyle.Render(line) + "\n")
		}
	}
	return b.String()
}

func (m *interactiveModel) formatChannel(ch channelInfo) string {
	s := channelStyle.Render(ch.name) + " " + codecStyle.Render(ch.codec)
	if ch.owner != "" {
		s += " (" + ch.owner + ")"
	}
	return s
}

// runInteractive keeps the platform task loop on this goroutine and runs the
// console on another.
func runInteractive(cfg embedder.Config) error {
	eng := loopback.New()
	host, err := embedder.New(eng, cfg)
	if err != nil {
		return err
	}
	defer host.Shutdown()

	p := tea.NewProgram(newInteractiveModel(host, eng), tea.WithAltScreen())
	eng.OnMessage(func(msg loopback.Message) { p.Send(outboundMsg(msg)) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	uiErr := make(chan error, 1)
	go func() {
		_, err := p.Run()
		cancel()
		uiErr <- err
	}()

	if err := host.Run(ctx); err != nil {
		return err
	}
	return <-uiErr
}
