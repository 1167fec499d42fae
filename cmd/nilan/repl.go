package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"

	"github.com/nilan-lang/nilan/compiler"
	"github.com/nilan-lang/nilan/scanner"
	"github.com/nilan-lang/nilan/token"
	"github.com/nilan-lang/nilan/vm"
)

type replCmd struct {
	logger *logrus.Logger
}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "start an interactive session" }
func (*replCmd) Usage() string {
	return "repl:\n  Start an interactive nilan session.\n"
}
func (*replCmd) SetFlags(*flag.FlagSet) {}

func historyFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".nilan_history"
	}
	return filepath.Join(home, ".nilan_history")
}

func (r *replCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">>> ",
		HistoryFile:     historyFilePath(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "repl: failed to start line editor: %v\n", err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	fmt.Println("Welcome to nilan.")

	machine := vm.New(vm.WithLogger(r.logger))
	var buffer strings.Builder

	for {
		if buffer.Len() == 0 {
			rl.SetPrompt(">>> ")
		} else {
			rl.SetPrompt("... ")
		}

		line, err := rl.Readline()
		if err != nil { // io.EOF or readline.ErrInterrupt
			return subcommands.ExitSuccess
		}

		if strings.TrimSpace(line) == "exit" && buffer.Len() == 0 {
			return subcommands.ExitSuccess
		}

		if buffer.Len() > 0 {
			buffer.WriteString("\n")
		}
		buffer.WriteString(line)
		source := buffer.String()

		if !isInputReady(source) {
			continue
		}

		chunk, err := compiler.Compile(source, machine.Interner(), r.logger)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			buffer.Reset()
			continue
		}

		if err := machine.Interpret(chunk); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		buffer.Reset()
	}
}

// isInputReady reports whether source has balanced braces and does not end
// on a token that obviously expects a continuation, so the REPL knows
// whether to keep accumulating lines or hand the buffer to the compiler.
func isInputReady(source string) bool {
	s := scanner.New(source)
	var tokens []token.Token
	for {
		tok := s.NextToken()
		tokens = append(tokens, tok)
		if tok.TokenType == token.EOF {
			break
		}
	}

	braceBalance := 0
	for _, tok := range tokens {
		switch tok.TokenType {
		case token.LCUR:
			braceBalance++
		case token.RCUR:
			braceBalance--
		}
	}
	if braceBalance > 0 {
		return false
	}

	last := lastNonEOF(tokens)
	if last == nil {
		return true
	}

	switch last.TokenType {
	case token.ASSIGN, token.ADD, token.SUB, token.MULT, token.DIV, token.BANG,
		token.EQUAL_EQUAL, token.NOT_EQUAL, token.LESS, token.LESS_EQUAL,
		token.LARGER, token.LARGER_EQUAL, token.COMMA, token.LPA, token.LCUR,
		token.IF, token.ELSE, token.WHILE, token.FOR, token.FUNC, token.RETURN,
		token.VAR, token.AND, token.OR, token.PRINT:
		return false
	}
	return true
}

func lastNonEOF(tokens []token.Token) *token.Token {
	for i := len(tokens) - 1; i >= 0; i-- {
		if tokens[i].TokenType != token.EOF {
			return &tokens[i]
		}
	}
	return nil
}
