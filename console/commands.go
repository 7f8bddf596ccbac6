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
	"sort"
	"strings"
)

// List of commands.
const (
	cmdStep     = "STEP"
	cmdRun      = "RUN"
	cmdReset    = "RESET"
	cmdLoad     = "LOAD"
	cmdStore    = "STORE"
	cmdPolicy   = "POLICY"
	cmdUndo     = "UNDO"
	cmdRegs     = "REGS"
	cmdDevice   = "DEVICE"
	cmdPipeline = "PIPELINE"
	cmdStats    = "STATS"
	cmdRadix    = "RADIX"
	cmdLog      = "LOG"
	cmdMemviz   = "MEMVIZ"
	cmdSave     = "SAVE"
	cmdRestore  = "RESTORE"
	cmdHelp     = "HELP"
	cmdQuit     = "QUIT"
)

type commandDefn struct {
	usage string
	help  string

	// minimum and maximum number of arguments
	min int
	max int
}

var commands = map[string]commandDefn{
	cmdStep:     {"STEP [n]", "advance the machine n cycles (default 1)", 0, 1},
	cmdRun:      {"RUN [n]", "run until halt, error, interrupt or n cycles", 0, 1},
	cmdReset:    {"RESET", "reload the program and data images", 0, 0},
	cmdLoad:     {"LOAD device address [LINE]", "load a word or a whole line from a memory device", 2, 3},
	cmdStore:    {"STORE device address value|Gn [LINE]", "store a value or a general register to a memory device", 3, 4},
	cmdPolicy:   {"POLICY device policy", "change the write policy of a cache (wtna, wb, wta)", 2, 2},
	cmdUndo:     {"UNDO k [skip]", "reverse the k most recent register writes, keeping the skip most recent", 1, 2},
	cmdRegs:     {"REGS [bank] [radix]", "show a register bank (general, internal, call, reversal)", 0, 2},
	cmdDevice:   {"DEVICE name [radix]", "show the lines of a memory device", 1, 2},
	cmdPipeline: {"PIPELINE [radix]", "show the instruction in every pipeline stage", 0, 1},
	cmdStats:    {"STATS", "show pipeline statistics", 0, 0},
	cmdRadix:    {"RADIX [2|10|16]", "set or show the default radix", 0, 1},
	cmdLog:      {"LOG [n]", "show the most recent n log entries (default 10)", 0, 1},
	cmdMemviz:   {"MEMVIZ target file", "write a graphviz diagram of REGS, PIPELINE, MEMORY or a device to file", 2, 2},
	cmdSave:     {"SAVE file", "save a checkpoint of registers and memory", 1, 1},
	cmdRestore:  {"RESTORE file", "restore a checkpoint of registers and memory", 1, 1},
	cmdHelp:     {"HELP [command]", "list commands or show help for a command", 0, 1},
	cmdQuit:     {"QUIT", "leave the console", 0, 0},
}

// lookup the command for the token. unique prefixes are accepted.
func lookup(token string) (string, commandDefn, bool) {
	token = strings.ToUpper(token)
	if defn, ok := commands[token]; ok {
		return token, defn, true
	}

	var found []string
	for name := range commands {
		if strings.HasPrefix(name, token) {
			found = append(found, name)
		}
	}
	if len(found) != 1 {
		return "", commandDefn{}, false
	}
	return found[0], commands[found[0]], true
}

func commandList() string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	s := strings.Builder{}
	for _, name := range names {
		s.WriteString(fmt.Sprintf("%-40s %s\n", commands[name].usage, commands[name].help))
	}
	return strings.TrimRight(s.String(), "\n")
}
