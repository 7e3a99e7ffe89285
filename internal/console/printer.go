package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/monologue/internal/debate"
	"github.com/Iron-Ham/monologue/internal/event"
	"github.com/Iron-Ham/monologue/internal/util"
)

// Printer writes debate events to an io.Writer. It is safe for concurrent
// use.
type Printer struct {
	mu           sync.Mutex
	out          io.Writer
	width        int
	color        bool
	showThoughts bool
	labels       map[string]string
	styles       Styles
	subs         []string
}

// PrinterOption configures a Printer.
type PrinterOption func(*Printer)

// WithWidth wraps output to width columns. Zero means the terminal width.
func WithWidth(width int) PrinterOption {
	return func(p *Printer) { p.width = width }
}

// WithColor enables or disables styling.
func WithColor(color bool) PrinterOption {
	return func(p *Printer) { p.color = color }
}

// WithThoughts prints internal monologue and the candidate options of each
// turn.
func WithThoughts(show bool) PrinterOption {
	return func(p *Printer) { p.showThoughts = show }
}

// WithLabel displays speaker under label instead of its name.
func WithLabel(speaker, label string) PrinterOption {
	return func(p *Printer) { p.labels[speaker] = label }
}

// NewPrinter creates a Printer writing to out.
func NewPrinter(out io.Writer, opts ...PrinterOption) *Printer {
	p := &Printer{
		out:    out,
		color:  true,
		labels: map[string]string{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.width <= 0 {
		p.width = TerminalWidth(out)
	}
	p.styles = NewStyles(out, p.color)
	return p
}

// Attach subscribes the printer to every event on bus.
func (p *Printer) Attach(bus *event.Bus) {
	id := bus.SubscribeAll(p.Handle)
	p.mu.Lock()
	p.subs = append(p.subs, id)
	p.mu.Unlock()
}

// Detach removes the subscriptions made by Attach.
func (p *Printer) Detach(bus *event.Bus) {
	p.mu.Lock()
	subs := p.subs
	p.subs = nil
	p.mu.Unlock()
	for _, id := range subs {
		bus.Unsubscribe(id)
	}
}

// Handle renders one event. Unknown events are ignored.
func (p *Printer) Handle(e event.Event) {
	var text string
	switch ev := e.(type) {
	case event.DebateStartedEvent:
		text = p.renderStarted(ev)
	case event.ThoughtEvent:
		if !p.showThoughts {
			return
		}
		text = p.renderThought(ev)
	case event.TurnEvent:
		text = p.renderTurn(ev)
	case event.HistoryCompressedEvent:
		text = p.styles.Subtitle.Render(fmt.Sprintf("(%s's %d arguments were summarized)",
			p.label(ev.Speaker), ev.Entries))
		if p.showThoughts {
			text += "\n" + p.styles.Summary.Render(p.wrap(ev.Summary, "  "))
		}
	case event.RoundCompletedEvent:
		text = p.renderRule(fmt.Sprintf(" round %d/%d ", ev.Round, ev.Of))
	case event.DebateConcludedEvent:
		text = p.renderConcluded(ev)
	case event.DebateFailedEvent:
		text = p.styles.Error.Render("Debate failed: ") + p.wrap(ev.Err.Error(), "")
	default:
		return
	}
	p.write(text)
}

// Println writes a line of plain text.
func (p *Printer) Println(text string) {
	p.write(p.wrap(text, ""))
}

// PrintError writes err in the error style.
func (p *Printer) PrintError(err error) {
	p.write(p.styles.Error.Render("Error: ") + err.Error())
}

// PrintList writes items as a numbered list under title.
func (p *Printer) PrintList(title string, items []string) {
	var b strings.Builder
	b.WriteString(p.styles.Heading.Render(title))
	for i, item := range items {
		item = strings.TrimPrefix(p.wrap(item, "   "), "   ")
		fmt.Fprintf(&b, "\n%s %s", p.styles.Chosen.Render(fmt.Sprintf("%d.", i+1)), item)
	}
	p.write(b.String())
}

func (p *Printer) renderStarted(ev event.DebateStartedEvent) string {
	return p.styles.Title.Render("Debate: "+ev.Topic) + "\n" +
		p.styles.Subtitle.Render(fmt.Sprintf("%d rounds", ev.Rounds))
}

func (p *Printer) renderThought(ev event.ThoughtEvent) string {
	header := p.styles.Thought.Render(fmt.Sprintf("%s thinks:", p.label(ev.Speaker)))
	return header + "\n" + p.styles.Thought.Render(p.wrap(ev.Thought, "  "))
}

func (p *Printer) renderTurn(ev event.TurnEvent) string {
	var b strings.Builder
	if p.showThoughts && len(ev.Options) > 0 {
		for i, opt := range ev.Options {
			line := fmt.Sprintf("  %d. %s", i+1, util.TruncateANSI(opt, p.width-5))
			if i == ev.Choice {
				b.WriteString(p.styles.Chosen.Render(line))
			} else {
				b.WriteString(p.styles.Option.Render(line))
			}
			b.WriteByte('\n')
		}
	}
	b.WriteString(p.speakerStyle(ev.Speaker).Render(p.label(ev.Speaker) + ":"))
	b.WriteByte('\n')
	b.WriteString(p.wrap(ev.Response, ""))
	return b.String()
}

func (p *Printer) renderConcluded(ev event.DebateConcludedEvent) string {
	var b strings.Builder
	b.WriteString(p.styles.Heading.Render("Conclusions"))
	for _, c := range []struct{ speaker, text string }{
		{debate.NameDebaterA, ev.ClosingA},
		{debate.NameDebaterB, ev.ClosingB},
	} {
		b.WriteString("\n\n")
		b.WriteString(p.speakerStyle(c.speaker).Render(p.label(c.speaker) + ":"))
		b.WriteByte('\n')
		b.WriteString(p.wrap(c.text, ""))
	}
	return b.String()
}

func (p *Printer) renderRule(title string) string {
	side := max((p.width-len(title))/2, 2)
	return p.styles.Rule.Render(strings.Repeat("─", side) + title + strings.Repeat("─", side))
}

func (p *Printer) label(speaker string) string {
	if l, ok := p.labels[speaker]; ok {
		return l
	}
	switch speaker {
	case debate.NameDebaterA:
		return "AI Agent 1"
	case debate.NameDebaterB:
		return "AI Agent 2"
	}
	return speaker
}

func (p *Printer) speakerStyle(speaker string) lipgloss.Style {
	if speaker == debate.NameDebaterB {
		return p.styles.SpeakerB
	}
	return p.styles.SpeakerA
}

func (p *Printer) wrap(text, indent string) string {
	return util.Indent(util.Wrap(strings.TrimSpace(text), p.width-len(indent)), indent)
}

// write prints text followed by a blank line.
func (p *Printer) write(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, text)
	fmt.Fprintln(p.out)
}
