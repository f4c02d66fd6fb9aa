package main

import (
	"bufio"
	"bytes"
	"context"
	"courier/client"
	"courier/domain"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerAddress string        `env:"COURIER_SERVER_ADDR,default=localhost:8080"`
	Email         string        `env:"COURIER_EMAIL,required=true"`
	Password      string        `env:"COURIER_PASSWORD,required=true"`
	LogLevel      string        `env:"LOG_LEVEL,required=true"`
	BackoffBase   time.Duration `env:"BACKOFF_BASE,default=500ms"`
	BackoffCap    time.Duration `env:"BACKOFF_CAP,default=10s"`
	MaxAttempts   int           `env:"MAX_ATTEMPTS,default=6"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	// 1. Load configuration from environment variables.
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Setup context to handle termination signals (Ctrl+C).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Obtain credentials over the REST surface.
	baseURL := "http://" + config.ServerAddress
	token, userID, err := login(baseURL, config.Email, config.Password)
	if err != nil {
		return exitRuntime, err
	}
	color.Green.Printf(">>> Logged in as %s\n", userID)

	// 4. Show who can be written to.
	users, err := listUsers(baseURL, token)
	if err != nil {
		return exitRuntime, err
	}
	renderUsers(users)

	// 5. Open the live channel; Run reconnects on its own until the retry
	// budget is spent.
	c := client.New(log, client.Config{
		URL:         "ws://" + config.ServerAddress + "/ws",
		Token:       token,
		BackoffBase: config.BackoffBase,
		BackoffCap:  config.BackoffCap,
		MaxAttempts: config.MaxAttempts,
		BufferSize:  32,
	})

	runErr := make(chan error, 1)
	go func() { runErr <- c.Run(ctx) }()

	go printIncoming(ctx, c)

	color.Yellow.Println("Commands: /to <user-id> selects the recipient, /quit exits. Anything else is sent.")

	// 6. Input loop.
	lines := readLines(ctx)
	recipient := ""
	for {
		select {
		case <-ctx.Done():
			return exitOK, nil
		case err := <-runErr:
			if err != nil {
				return exitRuntime, err
			}
			return exitOK, nil
		case line, ok := <-lines:
			if !ok {
				return exitOK, nil
			}
			switch {
			case line == "/quit":
				return exitOK, nil
			case strings.HasPrefix(line, "/to "):
				recipient = strings.TrimSpace(strings.TrimPrefix(line, "/to "))
				color.Cyan.Printf("Now writing to %s\n", recipient)
			case recipient == "":
				color.Red.Println("Pick a recipient first with /to <user-id>")
			default:
				if _, err := c.Send(recipient, line); err != nil {
					color.Red.Printf("Send failed: %v\n", err)
				}
			}
		}
	}
}

func login(baseURL, email, password string) (string, string, error) {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, err := http.Post(baseURL+"/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", "", fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("login refused with status %d", resp.StatusCode)
	}
	var reply struct {
		Token  string `json:"token"`
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return "", "", err
	}
	return reply.Token, reply.UserID, nil
}

func listUsers(baseURL, token string) ([]domain.User, error) {
	req, err := http.NewRequest(http.MethodGet, baseURL+"/users", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user listing failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user listing refused with status %d", resp.StatusCode)
	}
	var reply struct {
		Users []domain.User `json:"users"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, err
	}
	return reply.Users, nil
}

func renderUsers(users []domain.User) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"User ID", "Username"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for _, user := range users {
		table.Append([]string{user.ID.String(), user.Username})
	}
	table.Render()
}

func printIncoming(ctx context.Context, c *client.Client) {
	for {
		select {
		case <-ctx.Done():
			return
		case record := <-c.Received:
			color.Green.Printf("[%s] %s: %s\n",
				record.Timestamp.Local().Format(time.TimeOnly),
				record.Sender.Username,
				record.Content)
		case notice := <-c.Notices:
			color.Red.Printf("Server: %s (%s)\n", notice.Message, notice.Code)
		}
	}
}

// readLines pumps stdin into a channel so the main loop can also watch
// the context and the connection.
func readLines(ctx context.Context) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			select {
			case out <- line:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
