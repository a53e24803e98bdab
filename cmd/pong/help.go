package main

import (
	"fmt"
	"io"
)

// ANSI colours for output printed outside the TUI.
const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiGreen = "\033[38;2;74;222;128m"  // #4ade80
	ansiRed   = "\033[38;2;248;113;113m" // #f87171
	ansiSlate = "\033[38;2;136;144;160m" // #8890a0
)

// printLogo prints the spaced PONG wordmark, green fading to red.
func printLogo(w io.Writer) {
	letters := "PONG"
	colors := [4]string{ansiGreen, ansiGreen, ansiRed, ansiRed}
	fmt.Fprint(w, "\n  ")
	for i, ch := range letters {
		fmt.Fprintf(w, "%s%s%c%s", colors[i], ansiBold, ch, ansiReset)
		if i < len(letters)-1 {
			fmt.Fprint(w, "  ")
		}
	}
	fmt.Fprintln(w)
}

func printHelp(w io.Writer) {
	printLogo(w)
	fmt.Fprintf(w, `
  %[1]susage%[2]s
    pong                           play (opens the lobby)
    pong auth <user-id> <token>    store credentials in ~/.pong/credentials
    pong logout                    forget stored credentials
    pong passwd                    change your password (reads it from stdin)
    pong version                   print the version

  %[1]senvironment%[2]s
    PONG_API_URL       account API (default %[3]s)
    PONG_GAME_SERVER   game server websocket (default %[4]s)
    PONG_USER_WS       presence and chat websocket root (default %[5]s)
    PONG_TOKEN         bearer token, overrides the credentials file
    PONG_USER_ID       user id that goes with PONG_TOKEN

`, ansiSlate, ansiReset, defaultAPIURL, defaultGameServer, defaultUserWS)
}
