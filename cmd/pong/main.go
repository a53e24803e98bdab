package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/naveenspark/pong/internal/tui"
	"github.com/naveenspark/pong/pkg/client"
	"github.com/naveenspark/pong/pkg/domain"
	"github.com/naveenspark/pong/pkg/social"
	"github.com/naveenspark/pong/pkg/socket"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

const (
	defaultAPIURL     = "http://localhost:8000"
	defaultGameServer = "ws://localhost:8010/ws"
	defaultUserWS     = "ws://localhost:8000/ws"
)

// startupCheckTimeout bounds the credential check before the TUI starts.
const startupCheckTimeout = 3 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// configDir returns ~/.pong.
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".pong"), nil
}

func credentialsPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "credentials"), nil
}

// readCredentials returns the signed-in user using precedence:
// env vars > credentials file > empty.
func readCredentials() domain.Credentials {
	if tok := os.Getenv("PONG_TOKEN"); tok != "" {
		id, _ := strconv.Atoi(os.Getenv("PONG_USER_ID")) //nolint:errcheck // zero id means signed out
		return domain.Credentials{UserID: id, Token: tok}
	}
	path, err := credentialsPath()
	if err != nil {
		return domain.Credentials{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Credentials{}
	}
	var creds domain.Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		log.Printf("ignoring malformed %s: %v", path, err)
		return domain.Credentials{}
	}
	return creds
}

func saveCredentials(creds domain.Credentials) error {
	path, err := credentialsPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create ~/.pong dir: %w", err)
	}
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

// loadEnvFile reads PONG_* settings from ~/.pong/.env. Variables already set
// in the environment win.
func loadEnvFile() {
	dir, err := configDir()
	if err != nil {
		return
	}
	path := filepath.Join(dir, ".env")
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		log.Printf("ignoring %s: %v", path, err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func run(args []string) error {
	loadEnvFile()
	apiURL := envOr("PONG_API_URL", defaultAPIURL)
	gameURL := envOr("PONG_GAME_SERVER", defaultGameServer)
	userWS := envOr("PONG_USER_WS", defaultUserWS)

	if len(args) > 0 {
		switch args[0] {
		case "--version", "version", "-v":
			fmt.Println("pong " + version)
			return nil
		case "help", "--help", "-h":
			printHelp(os.Stdout)
			return nil
		case "auth":
			return runAuth(args[1:], os.Stdout)
		case "logout":
			return runLogout(os.Stdout)
		case "passwd":
			return runPasswd(apiURL, readCredentials(), os.Stdin, os.Stdout)
		default:
			printHelp(os.Stderr)
			return fmt.Errorf("unknown command %q", args[0])
		}
	}

	return runTUI(apiURL, gameURL, userWS, readCredentials())
}

// checkCredentials warns on w when the user service rejects creds. Only an
// auth failure is worth reporting here; transient errors surface in the
// profile view.
func checkCredentials(c *client.Client, creds domain.Credentials, timeout time.Duration, w io.Writer) {
	if !creds.Valid() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if _, err := c.GetUser(ctx, creds.UserID); client.IsStatus(err, http.StatusUnauthorized) {
		fmt.Fprintln(w, "stored credentials were rejected, run: pong auth <user-id> <token>")
	}
}

func runTUI(apiURL, gameURL, userWS string, creds domain.Credentials) error {
	dir, err := configDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create ~/.pong dir: %w", err)
	}
	logFile, err := tea.LogToFile(filepath.Join(dir, "pong.log"), "pong")
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close() //nolint:errcheck

	header := http.Header{}
	if creds.Token != "" {
		header.Set("Authorization", "Bearer "+creds.Token)
	}
	sock := socket.New(gameURL, socket.WithHeader(header))
	defer sock.Disconnect()

	c := client.New(apiURL, creds.Token)
	checkCredentials(c, creds, startupCheckTimeout, os.Stderr)

	hub := social.NewHub(userWS, creds.Token)
	defer hub.Stop()

	app := tui.NewApp(c, sock, hub, creds, version)
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

func runAuth(args []string, out io.Writer) error {
	if len(args) != 2 {
		return errors.New("usage: pong auth <user-id> <token>")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid user id %q", args[0])
	}
	creds := domain.Credentials{UserID: id, Token: strings.TrimSpace(args[1])}
	if !creds.Valid() {
		return errors.New("user id must be positive and token non-empty")
	}
	if err := saveCredentials(creds); err != nil {
		return err
	}
	fmt.Fprintf(out, "Signed in as user %d.\n", id)
	return nil
}

func runLogout(out io.Writer) error {
	path, err := credentialsPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintln(out, "Already logged out.")
		return nil
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove credentials: %w", err)
	}
	fmt.Fprintln(out, "Logged out.")
	return nil
}

// runPasswd changes the password of the signed-in user to the first line
// read from in.
func runPasswd(apiURL string, creds domain.Credentials, in io.Reader, out io.Writer) error {
	if !creds.Valid() {
		return errors.New("not signed in, run: pong auth <user-id> <token>")
	}

	sc := bufio.NewScanner(in)
	var password string
	if sc.Scan() {
		password = strings.TrimRight(sc.Text(), "\r")
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	c := client.New(apiURL, creds.Token)
	u, err := c.UpdatePassword(context.Background(), creds.UserID, password)
	if err != nil {
		var httpErr *client.HTTPError
		if errors.As(err, &httpErr) && httpErr.Message != "" {
			return fmt.Errorf("error updating password: %s", httpErr.Message)
		}
		return fmt.Errorf("error updating password: %w", err)
	}
	name := u.Username
	if name == "" {
		name = strconv.Itoa(u.ID)
	}
	fmt.Fprintf(out, "Password updated successfully for %s.\n", name)
	return nil
}
