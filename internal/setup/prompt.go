package setup

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gosuri/uitable"

	"github.com/binsort-io/binsort/internal/link"
)

// ErrAborted means the operator gave no answer.
var ErrAborted = errors.New("setup aborted")

// prompter asks questions on a terminal.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

var _ link.Chooser = (*prompter)(nil)

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

// ask prints question and returns the trimmed answer. End of input aborts.
func (p *prompter) ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	line, err := p.in.ReadString('\n')
	line = strings.TrimSpace(line)
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		if errors.Is(err, io.EOF) {
			return "", ErrAborted
		}
		return "", err
	}
	return line, nil
}

func devicesTable(devices []link.Device) *uitable.Table {
	table := uitable.New()
	table.MaxColWidth = 48
	table.AddRow("#", "NAME", "ADDRESS")
	for i, d := range devices {
		table.AddRow(strconv.Itoa(i+1), d.Name, d.Address)
	}
	return table
}

// Choose lists the candidates and reads a 1-based index until a valid one is given.
func (p *prompter) Choose(_ context.Context, candidates []link.Device) (link.Device, error) {
	fmt.Fprintf(p.out, "Found %d bricks:\n%s\n", len(candidates), devicesTable(candidates))

	for {
		answer, err := p.ask(fmt.Sprintf("Select brick (1-%d): ", len(candidates)))
		if err != nil {
			return link.Device{}, err
		}
		n, err := strconv.Atoi(answer)
		if err != nil || n < 1 || n > len(candidates) {
			fmt.Fprintln(p.out, "Invalid choice")
			continue
		}
		return candidates[n-1], nil
	}
}
