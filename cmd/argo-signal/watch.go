package main

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/urfave/cli/v3"
)

// RecommendationMsg carries a snapshot received from one source.
type RecommendationMsg struct {
	Source string
	Rec    types.Recommendation
}

// StreamErrorMsg reports a broken or refused stream. The stream reconnects.
type StreamErrorMsg struct {
	Source string
	Err    error
}

const reconnectDelay = 2 * time.Second

// Model is the Bubble Tea model for the watch command.
type Model struct {
	sources []string
	latest  map[string]types.Recommendation
	errs    map[string]error
	table   table.Model
	width   int
	height  int
	cancel  context.CancelFunc
}

func NewModel(sources []string, cancel context.CancelFunc) Model {
	return Model{
		sources: sources,
		latest:  make(map[string]types.Recommendation),
		errs:    make(map[string]error),
		table:   NewRecommendationTable(),
		width:   0,
		height:  0,
		cancel:  cancel,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.cancel != nil {
				m.cancel()
			}

			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetWidth(msg.Width)
		m.table.SetHeight(msg.Height - 6)

		return m, nil

	case RecommendationMsg:
		m.latest[msg.Source] = msg.Rec
		delete(m.errs, msg.Source)
		m.table = UpdateTableRows(m.table, m.latest)

		return m, nil

	case StreamErrorMsg:
		m.errs[msg.Source] = msg.Err

		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m Model) View() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("Argo Signal - Recommendations"))
	s.WriteString("\n\n")

	sources := make([]string, 0, len(m.errs))
	for source := range m.errs {
		sources = append(sources, source)
	}

	sort.Strings(sources)

	for _, source := range sources {
		s.WriteString(ErrorStyle.Render(source + ": " + m.errs[source].Error()))
		s.WriteString("\n")
	}

	if len(m.latest) == 0 {
		s.WriteString("Waiting for recommendations...\n")
	} else {
		s.WriteString(m.table.View())
	}

	s.WriteString("\n")
	s.WriteString(HelpStyle.Render("q: quit | Watching: " + strings.Join(m.sources, ", ")))

	return s.String()
}

// streamURL turns a status server base URL into its /stream endpoint.
func streamURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid url %q", base)
	}

	switch u.Scheme {
	case "http", "":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", errors.Newf(errors.ErrCodeInvalidParameter, "unsupported scheme %q in %s", u.Scheme, base)
	}

	if u.Host == "" {
		return "", errors.Newf(errors.ErrCodeInvalidParameter, "url %q has no host", base)
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + "/stream"

	return u.String(), nil
}

// stream follows one /stream endpoint until ctx ends, reconnecting after
// every failure.
func stream(ctx context.Context, source string, send func(tea.Msg)) {
	target, err := streamURL(source)
	if err != nil {
		send(StreamErrorMsg{Source: source, Err: err})

		return
	}

	for ctx.Err() == nil {
		if err := readStream(ctx, source, target, send); err != nil && ctx.Err() == nil {
			send(StreamErrorMsg{Source: source, Err: err})
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func readStream(ctx context.Context, source, target string, send func(tea.Msg)) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFeedUnavailable, "connect failed", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		var rec types.Recommendation
		if err := conn.ReadJSON(&rec); err != nil {
			return errors.Wrap(errors.ErrCodeFeedUnavailable, "stream closed", err)
		}

		send(RecommendationMsg{Source: source, Rec: rec})
	}
}

func watchAction(ctx context.Context, cmd *cli.Command) error {
	sources := cmd.StringSlice("url")

	for _, source := range sources {
		if _, err := streamURL(source); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewModel(sources, cancel), tea.WithAltScreen(), tea.WithContext(ctx))

	for _, source := range sources {
		go stream(ctx, source, p.Send)
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}

	return err
}
