// This file is part of Pipesim.
//
// Pipesim is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Pipesim is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Pipesim.  If not, see <https://www.gnu.org/licenses/>.

package console

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/bradleyjkemp/memviz"
	"github.com/pipesim/pipesim/checkpoint"
	"github.com/pipesim/pipesim/console/terminal"
	"github.com/pipesim/pipesim/curated"
	"github.com/pipesim/pipesim/govern"
	"github.com/pipesim/pipesim/hardware"
	"github.com/pipesim/pipesim/hardware/instructions"
	"github.com/pipesim/pipesim/hardware/pipeline"
	"github.com/pipesim/pipesim/hardware/registers"
	"github.com/pipesim/pipesim/hardware/term"
	"github.com/pipesim/pipesim/logger"
)

// Sentinal error patterns.
const (
	UnknownCommand = "console: unknown command (%s)"
	ArgumentCount  = "console: %s takes between %d and %d arguments"
	InvalidNumber  = "console: invalid number (%s)"
	InvalidRadix   = "console: invalid radix (%s)"
	InvalidTarget  = "console: invalid memviz target (%s)"
)

// DefaultLogTail is the number of log entries shown by LOG when no number is
// given.
const DefaultLogTail = 10

// Console is the command line interface to a machine.
type Console struct {
	m    *hardware.Machine
	term terminal.Terminal

	// default radix for dumps
	radix int

	// interrupt signals from the operating system. checked during RUN
	interrupt chan os.Signal

	quit bool
}

// NewConsole is the preferred method of initialisation for the Console type.
func NewConsole(m *hardware.Machine, t terminal.Terminal) *Console {
	return &Console{
		m:         m,
		term:      t,
		radix:     term.Hexadecimal,
		interrupt: make(chan os.Signal, 1),
	}
}

// Start the console. Returns when the QUIT command is entered or when the
// terminal reaches the end of its input.
func (c *Console) Start() error {
	if err := c.term.Initialise(); err != nil {
		return err
	}
	defer c.term.CleanUp()

	signal.Notify(c.interrupt, os.Interrupt)
	defer signal.Stop(c.interrupt)

	c.quit = false
	for !c.quit {
		input, err := c.term.TermRead(c.prompt())
		if err != nil {
			if err == io.EOF {
				return nil
			}
			if curated.Is(err, terminal.UserInterrupt) {
				c.quit = true
				continue
			}
			return err
		}

		c.term.TermPrintLine(terminal.StyleEcho, input)

		if err := c.Command(input); err != nil {
			c.term.TermPrintLine(terminal.StyleError, err.Error())
		}
	}

	return nil
}

func (c *Console) prompt() string {
	return fmt.Sprintf("[ %d %s ] > ", c.m.Pipeline.Stats().Cycles, strings.ToLower(c.m.State().String()))
}

// Command parses and runs a single line of input. Errors are returned rather
// than printed.
func (c *Console) Command(input string) error {
	tk := TokeniseInput(input)

	name, ok := tk.Get()
	if !ok {
		return nil
	}

	cmd, defn, ok := lookup(name)
	if !ok {
		return curated.Errorf(UnknownCommand, name)
	}

	if tk.Remaining() < defn.min || tk.Remaining() > defn.max {
		return curated.Errorf(ArgumentCount, cmd, defn.min, defn.max)
	}

	switch cmd {
	case cmdStep:
		n, err := c.optionalNumber(tk, 1)
		if err != nil {
			return err
		}
		for i := 0; i < int(n); i++ {
			res, err := c.m.Step()
			if err != nil {
				return err
			}
			c.printStep(res)
			if c.m.State().Terminal() {
				break
			}
		}

	case cmdRun:
		n, err := c.optionalNumber(tk, 0)
		if err != nil {
			return err
		}
		res, err := c.m.Run(int(n), c.continueCheck)
		if err != nil {
			return err
		}
		c.printStep(res)
		c.term.TermPrintLine(terminal.StyleFeedback, c.m.Pipeline.Stats().String())

	case cmdReset:
		if err := c.m.Reset(); err != nil {
			return err
		}
		c.term.TermPrintLine(terminal.StyleFeedback, "machine reset")

	case cmdLoad:
		dev, _ := tk.Get()
		addr, err := c.number(tk)
		if err != nil {
			return err
		}
		line := c.lineFlag(tk)
		words, ticks, err := c.m.ManualLoad(dev, addr, line)
		if err != nil {
			return err
		}
		vals := make([]string, len(words))
		for i, w := range words {
			vals[i] = c.format(w)
		}
		c.term.TermPrintLine(terminal.StyleFeedback, fmt.Sprintf("%s[%#x] = %s (%d ticks)",
			dev, addr, strings.Join(vals, " "), ticks))

	case cmdStore:
		dev, _ := tk.Get()
		addr, err := c.number(tk)
		if err != nil {
			return err
		}
		src, _ := tk.Get()
		line := c.lineFlag(tk)

		var ticks int
		if idx, ok := generalRegister(src); ok {
			ticks, err = c.m.ManualStoreRegister(dev, addr, registers.General.String(), idx, line)
		} else {
			var v uint64
			v, err = parseNumber(src)
			if err != nil {
				return err
			}
			ticks, err = c.m.ManualStore(dev, addr, v, line)
		}
		if err != nil {
			return err
		}
		c.term.TermPrintLine(terminal.StyleFeedback, fmt.Sprintf("%s[%#x] stored (%d ticks)", dev, addr, ticks))

	case cmdPolicy:
		dev, _ := tk.Get()
		policy, _ := tk.Get()
		ticks, err := c.m.SetPolicy(dev, policy)
		if err != nil {
			return err
		}
		_, mod, _ := c.m.Mem.Device(dev)
		c.term.TermPrintLine(terminal.StyleFeedback, fmt.Sprintf("%s is %s (%d ticks)", dev, mod.Policy(), ticks))

	case cmdUndo:
		k, err := c.number(tk)
		if err != nil {
			return err
		}
		skip, err := c.optionalNumber(tk, 0)
		if err != nil {
			return err
		}
		if err := c.m.Undo(int(k), int(skip)); err != nil {
			return err
		}
		c.term.TermPrintLine(terminal.StyleFeedback, fmt.Sprintf("undone %d (%d remaining)", k, c.m.Regs.History()))

	case cmdRegs:
		banks := []string{registers.General.String(), registers.Internal.String()}
		radix := c.radix
		if s, ok := tk.Get(); ok {
			if r, err := parseRadix(s); err == nil {
				radix = r
			} else {
				banks = []string{s}
				radix, err = c.optionalRadix(tk)
				if err != nil {
					return err
				}
			}
		}
		for _, b := range banks {
			s, err := c.m.DumpRegisters(b, radix)
			if err != nil {
				return err
			}
			c.printMachine(s)
		}

	case cmdDevice:
		dev, _ := tk.Get()
		radix, err := c.optionalRadix(tk)
		if err != nil {
			return err
		}
		s, err := c.m.DumpDevice(dev, radix)
		if err != nil {
			return err
		}
		c.printMachine(s)

	case cmdPipeline:
		radix, err := c.optionalRadix(tk)
		if err != nil {
			return err
		}
		c.printMachine(c.m.DumpPipeline(radix))

	case cmdStats:
		c.term.TermPrintLine(terminal.StyleFeedback, c.m.Pipeline.Stats().String())

	case cmdRadix:
		if s, ok := tk.Get(); ok {
			r, err := parseRadix(s)
			if err != nil {
				return err
			}
			c.radix = r
		}
		c.term.TermPrintLine(terminal.StyleFeedback, fmt.Sprintf("radix is %d", c.radix))

	case cmdLog:
		n, err := c.optionalNumber(tk, DefaultLogTail)
		if err != nil {
			return err
		}
		s := strings.Builder{}
		logger.Tail(&s, int(n))
		if s.Len() > 0 {
			c.term.TermPrintLine(terminal.StyleLog, strings.TrimRight(s.String(), "\n"))
		}

	case cmdMemviz:
		target, _ := tk.Get()
		filename, _ := tk.Get()
		if err := c.memviz(target, filename); err != nil {
			return err
		}
		c.term.TermPrintLine(terminal.StyleFeedback, fmt.Sprintf("%s written to %s", strings.ToLower(target), filename))

	case cmdSave:
		filename, _ := tk.Get()
		f, err := os.Create(filename)
		if err != nil {
			return curated.Errorf("console: %v", err)
		}
		defer f.Close()
		if err := checkpoint.Save(f, c.m); err != nil {
			return err
		}
		c.term.TermPrintLine(terminal.StyleFeedback, fmt.Sprintf("checkpoint saved to %s", filename))

	case cmdRestore:
		filename, _ := tk.Get()
		f, err := os.Open(filename)
		if err != nil {
			return curated.Errorf("console: %v", err)
		}
		defer f.Close()
		if err := checkpoint.Restore(f, c.m); err != nil {
			return err
		}
		c.term.TermPrintLine(terminal.StyleFeedback, fmt.Sprintf("checkpoint restored from %s", filename))

	case cmdHelp:
		if s, ok := tk.Get(); ok {
			_, defn, ok := lookup(s)
			if !ok {
				return curated.Errorf(UnknownCommand, s)
			}
			c.term.TermPrintLine(terminal.StyleHelp, fmt.Sprintf("%s\n  %s", defn.usage, defn.help))
		} else {
			c.term.TermPrintLine(terminal.StyleHelp, commandList())
		}

	case cmdQuit:
		c.m.End()
		c.quit = true
	}

	return nil
}

// continueCheck is used by RUN to stop on an interrupt signal.
func (c *Console) continueCheck() (govern.State, error) {
	select {
	case <-c.interrupt:
		c.term.TermPrintLine(terminal.StyleFeedback, "interrupted")
		return govern.Paused, nil
	default:
	}
	return govern.Running, nil
}

func (c *Console) printStep(res pipeline.Result) {
	s := fmt.Sprintf("%5d: %s", res.Cycle, c.m.Pipeline)
	if res.Retired != nil {
		s = fmt.Sprintf("%s  retired %s", s, res.Retired)
	}
	c.term.TermPrintLine(terminal.StyleMachine, s)

	switch {
	case res.AboutToHalt:
		c.term.TermPrintLine(terminal.StyleFeedback, fmt.Sprintf("halted at %#x", res.Retired.Address))
	case res.Retired != nil && res.Retired.Header == instructions.ExecutionErr:
		c.term.TermPrintLine(terminal.StyleError, fmt.Sprintf("execution error at %#x: %s",
			res.Retired.Address, res.Retired.ErrorDetail()))
	}
}

func (c *Console) printMachine(s string) {
	c.term.TermPrintLine(terminal.StyleMachine, strings.TrimRight(s, "\n"))
}

func (c *Console) format(v uint64) string {
	switch c.radix {
	case term.Binary:
		return fmt.Sprintf("%#b", v)
	case term.Decimal:
		return fmt.Sprintf("%d", v)
	}
	return fmt.Sprintf("%#x", v)
}

func (c *Console) number(tk *Tokens) (uint64, error) {
	s, _ := tk.Get()
	return parseNumber(s)
}

func (c *Console) optionalNumber(tk *Tokens, def uint64) (uint64, error) {
	s, ok := tk.Get()
	if !ok {
		return def, nil
	}
	return parseNumber(s)
}

func (c *Console) optionalRadix(tk *Tokens) (int, error) {
	s, ok := tk.Get()
	if !ok {
		return c.radix, nil
	}
	return parseRadix(s)
}

// lineFlag consumes the optional LINE argument.
func (c *Console) lineFlag(tk *Tokens) bool {
	s, ok := tk.Peek()
	if ok && strings.EqualFold(s, "LINE") {
		tk.Get()
		return true
	}
	return false
}

func (c *Console) memviz(target string, filename string) error {
	var v interface{}
	switch strings.ToUpper(target) {
	case "REGS":
		v = c.m.Regs
	case "PIPELINE":
		v = c.m.Pipeline
	case "MEMORY":
		v = c.m.Mem
	default:
		_, mod, ok := c.m.Mem.Device(target)
		if !ok {
			return curated.Errorf(InvalidTarget, target)
		}
		v = mod
	}

	f, err := os.Create(filename)
	if err != nil {
		return curated.Errorf("console: %v", err)
	}
	defer f.Close()

	memviz.Map(f, v)
	return nil
}

func parseNumber(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, curated.Errorf(InvalidNumber, s)
	}
	return v, nil
}

func parseRadix(s string) (int, error) {
	switch strings.ToUpper(s) {
	case "2", "BIN":
		return term.Binary, nil
	case "10", "DEC":
		return term.Decimal, nil
	case "16", "HEX":
		return term.Hexadecimal, nil
	}
	return 0, curated.Errorf(InvalidRadix, s)
}

// generalRegister returns the index of a general register written as Gn.
func generalRegister(s string) (int, bool) {
	if len(s) < 2 || (s[0] != 'G' && s[0] != 'g') {
		return 0, false
	}
	n, err := strconv.Atoi(s[1:])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
