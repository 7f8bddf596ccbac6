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

package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/pipesim/pipesim/console"
	"github.com/pipesim/pipesim/console/terminal"
	"github.com/pipesim/pipesim/console/terminal/colorterm"
	"github.com/pipesim/pipesim/console/terminal/plainterm"
	"github.com/pipesim/pipesim/govern"
	"github.com/pipesim/pipesim/hardware"
	"github.com/pipesim/pipesim/hardware/instructions"
	"github.com/pipesim/pipesim/hardware/pipeline"
	"github.com/pipesim/pipesim/hardware/preferences"
	"github.com/pipesim/pipesim/logger"
	"github.com/pipesim/pipesim/modalflag"
	"github.com/pipesim/pipesim/performance"
	"github.com/pipesim/pipesim/prefs"
	"github.com/pipesim/pipesim/statsview"
	"github.com/pipesim/pipesim/version"
)

const additionalHelp = `Program images are binary files of big-endian 32 bit words, beginning with an
eight word header. Data images are binary files of big-endian words of the
machine's word size.

Preference values can be set for the session with the -prefs flag. For example:

	-prefs "machine.wordSize::64; machine.callStack::32"`

func main() {
	md := modalflag.NewModes(os.Stdout, os.Args[1:])
	md.AddSubMode("run", "run a program until it halts or retires an error")
	md.AddSubMode("console", "load a program and start the interactive console")
	md.AdditionalHelp(additionalHelp)
	showVersion := md.AddBool("version", false, "print version information and exit")

	p, err := md.Parse()
	switch p {
	case modalflag.ParseHelp:
		os.Exit(0)
	case modalflag.ParseError:
		fmt.Printf("* %s\n", err)
		os.Exit(10)
	}

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	var govMode govern.Mode
	switch md.Mode() {
	case "RUN":
		govMode = govern.ModeRun
		err = run(md)
	case "CONSOLE":
		govMode = govern.ModeConsole
		err = consoleMode(md)
	}

	if err != nil {
		fmt.Printf("* error in %s mode: %s\n", strings.ToLower(govMode.String()), err)
		os.Exit(20)
	}
}

// flags common to every mode.
type common struct {
	config    *string
	data      *string
	prefs     *string
	log       *bool
	statsview *bool
}

func addCommon(md *modalflag.Modes) common {
	return common{
		config:    md.AddString("config", "", "preferences file (default is the pipesim resource directory)"),
		data:      md.AddString("data", "", "data image to load into data memory"),
		prefs:     md.AddString("prefs", "", "preference values for this session"),
		log:       md.AddBool("log", false, "echo log to stdout"),
		statsview: md.AddBool("statsview", false, "run the runtime statistics server"),
	}
}

// setup creates the machine and loads the program named by the first
// remaining argument.
func setup(md *modalflag.Modes, c common) (*hardware.Machine, error) {
	if *c.log {
		logger.SetEcho(os.Stdout)
	}

	if *c.statsview {
		statsview.Launch(os.Stdout, "")
	}

	if *c.prefs != "" {
		prefs.PushCommandLineStack(*c.prefs)
	}

	p, err := preferences.NewPreferences(*c.config)
	if err != nil {
		return nil, err
	}

	if unused := prefs.PopCommandLineStack(); unused != "" {
		logger.Logf("pipesim", "unused preference values: %s", unused)
	}

	m, err := hardware.NewMachine(p)
	if err != nil {
		return nil, err
	}

	switch len(md.RemainingArgs()) {
	case 0:
		return nil, fmt.Errorf("a program image is required")
	case 1:
	default:
		return nil, fmt.Errorf("too many arguments")
	}

	f, err := os.Open(md.GetArg(0))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	program, err := hardware.ReadProgram(f)
	if err != nil {
		return nil, err
	}
	if err := m.LoadProgram(program); err != nil {
		return nil, err
	}

	if *c.data != "" {
		f, err := os.Open(*c.data)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		data, err := hardware.ReadData(f, m.WordSize())
		if err != nil {
			return nil, err
		}
		if err := m.LoadData(data); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func run(md *modalflag.Modes) error {
	md.NewMode()
	c := addCommon(md)
	cycles := md.AddInt("cycles", 0, "maximum number of cycles (zero for no limit)")
	timeout := md.AddDuration("timeout", 0, "maximum run time (zero for no limit)")
	dump := md.AddString("dump", "general", "register banks to show after running, separated by commas")
	radix := md.AddInt("radix", 16, "radix of register values: 2, 10 or 16")
	profile := md.AddString("profile", "none", "run with profiling: CPU, MEM, TRACE, ALL (comma separated)")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	prf, err := performance.ParseProfile(*profile)
	if err != nil {
		return err
	}

	m, err := setup(md, c)
	if err != nil {
		return err
	}

	intChan := make(chan os.Signal, 1)
	signal.Notify(intChan, os.Interrupt)
	defer signal.Stop(intChan)

	start := time.Now()
	continueCheck := func() (govern.State, error) {
		select {
		case <-intChan:
			return govern.Paused, nil
		default:
		}
		if *timeout > 0 && time.Since(start) > *timeout {
			return govern.Paused, nil
		}
		return govern.Running, nil
	}

	var res pipeline.Result
	err = performance.RunProfiler(prf, "pipesim", func() error {
		var err error
		res, err = m.Run(*cycles, continueCheck)
		return err
	})
	if err != nil {
		return err
	}

	switch {
	case res.AboutToHalt:
		fmt.Printf("halted at %#x after %d cycles\n", res.Retired.Address, res.Cycle)
	case res.Retired != nil && res.Retired.Header == instructions.ExecutionErr:
		fmt.Printf("execution error at %#x after %d cycles: %s\n", res.Retired.Address, res.Cycle, res.Retired.ErrorDetail())
	default:
		fmt.Printf("stopped after %d cycles\n", res.Cycle)
	}
	fmt.Println(m.Pipeline.Stats())

	for _, b := range strings.Split(*dump, ",") {
		b = strings.TrimSpace(b)
		if b == "" {
			continue
		}
		s, err := m.DumpRegisters(b, *radix)
		if err != nil {
			return err
		}
		fmt.Println(s)
	}

	if m.State() == govern.Errored {
		return fmt.Errorf("program did not halt")
	}

	return nil
}

func consoleMode(md *modalflag.Modes) error {
	md.NewMode()
	c := addCommon(md)
	termType := md.AddString("term", "COLOR", "terminal type to use in console mode: COLOR, PLAIN")
	script := md.AddString("script", "", "file of console commands to run before reading input")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	m, err := setup(md, c)
	if err != nil {
		return err
	}

	fmt.Println(version.String())

	if *script != "" {
		f, err := os.Open(*script)
		if err != nil {
			return err
		}
		defer f.Close()

		w := plainterm.NewPlainTerminal(f, os.Stdout)
		if err := console.NewConsole(m, w).Start(); err != nil {
			return err
		}
	}

	var term terminal.Terminal
	switch strings.ToUpper(*termType) {
	case "PLAIN":
		term = plainterm.NewPlainTerminal(nil, nil)
	case "COLOR":
		term = &colorterm.ColorTerminal{}
	default:
		return fmt.Errorf("unknown terminal type: %s", *termType)
	}

	// fallback to the plain terminal if the color terminal can not be used
	if err := term.Initialise(); err != nil {
		logger.Logf("pipesim", "%s: using plain terminal", err)
		term = plainterm.NewPlainTerminal(nil, nil)
	} else {
		term.CleanUp()
	}

	return console.NewConsole(m, term).Start()
}
