package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/chzyer/readline"

	"wut/internal/domain"
)

// Console is the interactive terminal. Writes from any goroutine are
// serialised and redrawn around the input line.
type Console struct {
	mu     sync.Mutex
	rl     *readline.Instance
	in     io.Reader
	out    io.Writer
	styles styles
	lines  chan string
	once   sync.Once
}

// NewConsole opens a readline console on the process terminal.
func NewConsole(prompt string) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		InterruptPrompt: "^C",
		EOFPrompt:       "/quit",
	})
	if err != nil {
		return nil, err
	}
	out := rl.Stdout()
	return &Console{rl: rl, out: out, styles: newStyles(out), lines: make(chan string)}, nil
}

// NewPlainConsole reads lines from in and writes to out without line
// editing. Open uses it when stdin is not a terminal.
func NewPlainConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: in, out: out, styles: newStyles(out), lines: make(chan string)}
}

// Open returns a readline console when in is a terminal and a plain one
// otherwise, so piped input such as `wut chat < script` still works.
func Open(prompt string, in *os.File, out io.Writer) (*Console, error) {
	if readline.IsTerminal(int(in.Fd())) {
		return NewConsole(prompt)
	}
	return NewPlainConsole(in, out), nil
}

// Lines streams input lines. The channel is closed on EOF or interrupt.
func (c *Console) Lines() <-chan string {
	c.once.Do(func() { go c.read() })
	return c.lines
}

func (c *Console) read() {
	defer close(c.lines)
	if c.rl == nil {
		sc := bufio.NewScanner(c.in)
		for sc.Scan() {
			c.lines <- sc.Text()
		}
		return
	}
	for {
		line, err := c.rl.Readline()
		if err != nil {
			// readline.ErrInterrupt on ^C, io.EOF on ^D.
			return
		}
		c.lines <- line
	}
}

// Log writes one line to the lobby.
func (c *Console) Log(line string) {
	c.write(c.styles.line(line))
}

// Title writes a heading line.
func (c *Console) Title(text string) {
	c.write(c.styles.title.Render(text))
}

// Writer returns an io.Writer whose output is kept clear of the prompt.
func (c *Console) Writer() io.Writer { return writerFunc(c.writeRaw) }

func (c *Console) write(s string) {
	_, _ = c.writeRaw([]byte(s + "\n"))
}

func (c *Console) writeRaw(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rl != nil {
		c.rl.Clean()
		defer c.rl.Refresh()
	}
	return c.out.Write(p)
}

// Close releases the terminal.
func (c *Console) Close() error {
	if c.rl != nil {
		return c.rl.Close()
	}
	return nil
}

// DirectSink returns a sink that tags each line with the peer it belongs
// to. Unknown peers are labelled by identifier.
func (c *Console) DirectSink(peer domain.PeerID, profile domain.PeerProfile, known bool) domain.Sink {
	label := peer.String()
	if known && profile.Handle != "" {
		label = profile.Handle
	}
	return &directSink{console: c, prefix: fmt.Sprintf("[dm %s]", label)}
}

type directSink struct {
	console *Console
	prefix  string
}

func (s *directSink) Log(line string) {
	c := s.console
	c.write(c.styles.dm.Render(s.prefix) + " " + c.styles.line(line))
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }

// Compile-time assertions that Console is a lobby sink and a sink factory.
var (
	_ domain.Sink        = (*Console)(nil)
	_ domain.SinkFactory = (*Console)(nil)
)
