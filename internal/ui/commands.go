package ui

import (
	"fmt"
	"strconv"
	"strings"
)

type commandKind int

const (
	cmdInstruction commandKind = iota
	cmdPick
	cmdClear
	cmdRevisions
	cmdRevision
	cmdHide
	cmdHelp
	cmdQuit
)

type command struct {
	kind commandKind
	arg  int
	text string
}

const helpText = "/pick N  select the face of triangle N\n" +
	"/clear  clear the selection\n" +
	"/revisions  toggle the revision list\n" +
	"/revision N  show revision N\n" +
	"/hide  hide the reasoning panel\n" +
	"/quit  leave"

// parseCommand turns one line of input into a command. Anything that does
// not start with a slash is an instruction for the collaborator.
func parseCommand(line string) (command, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return command{kind: cmdInstruction, text: line}, nil
	}

	fields := strings.Fields(line)
	name, args := fields[0], fields[1:]

	needInt := func() (int, error) {
		if len(args) != 1 {
			return 0, fmt.Errorf("usage: %s N", name)
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%s: %q is not a non-negative number", name, args[0])
		}
		return n, nil
	}

	switch name {
	case "/pick":
		n, err := needInt()
		return command{kind: cmdPick, arg: n}, err
	case "/revision":
		n, err := needInt()
		return command{kind: cmdRevision, arg: n}, err
	case "/clear":
		return command{kind: cmdClear}, nil
	case "/revisions":
		return command{kind: cmdRevisions}, nil
	case "/hide":
		return command{kind: cmdHide}, nil
	case "/help":
		return command{kind: cmdHelp}, nil
	case "/quit", "/exit":
		return command{kind: cmdQuit}, nil
	default:
		return command{}, fmt.Errorf("unknown command %s, try /help", name)
	}
}
