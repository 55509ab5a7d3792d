package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/worldphotos/playback/internal/channel"
	"github.com/worldphotos/playback/internal/dispatcher"
	"github.com/worldphotos/playback/internal/util"
)

// consoleBufferSize bounds how many typed commands can be in flight
// before the prompt blocks.
const consoleBufferSize = 64

// runOnce dispatches a single command line and prints the result.
func runOnce(line string) {
	command, cmdArgs := util.SplitCommandLine(line)
	printResult(commandDisp.Dispatch(dispatcher.Event{
		Command:   command,
		Args:      cmdArgs,
		Timestamp: time.Now(),
	}))
}

// runConsole reads commands from stdin until EOF or an exit command.
// Typed lines are decoupled from dispatch through a command channel so
// a slow import never blocks the prompt.
func runConsole() {
	events := channel.New[dispatcher.Event](consoleBufferSize)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range events.Receive() {
			printResult(commandDisp.Dispatch(e))
		}
	}()

	fmt.Println("Commands:", strings.Join(commandDisp.Commands(), " "))
	fmt.Println("Type a command (e.g. play, seek 2024-06-01, show:all, status), or exit to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
			break
		}

		command, cmdArgs := util.SplitCommandLine(line)
		if !commandDisp.HasHandler(command) {
			fmt.Printf("unknown command %s, try help\n", command)
			continue
		}
		events.Send(dispatcher.Event{
			Command:   command,
			Args:      cmdArgs,
			Timestamp: time.Now(),
		})
	}

	events.Close()
	<-done
}

// printResult renders a dispatch result for the console.
func printResult(result any, err error) {
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	switch v := result.(type) {
	case nil:
	case string:
		fmt.Println(v)
	default:
		out, mErr := json.MarshalIndent(v, "", "  ")
		if mErr != nil {
			fmt.Println(v)
			return
		}
		fmt.Println(string(out))
	}
}
