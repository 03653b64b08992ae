package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/npezzotti/go-chatclient/internal/backend"
	"github.com/npezzotti/go-chatclient/internal/config"
	"github.com/npezzotti/go-chatclient/internal/render"
	"github.com/npezzotti/go-chatclient/internal/session"
	"github.com/npezzotti/go-chatclient/internal/stats"
	"github.com/npezzotti/go-chatclient/internal/types"
)

const ansiReset = "\033[0m"

var ansiPalette = map[string]string{
	"blue":   "\033[34m",
	"purple": "\033[35m",
	"pink":   "\033[95m",
	"indigo": "\033[94m",
	"teal":   "\033[36m",
	"orange": "\033[33m",
	"rose":   "\033[91m",
	"gray":   "\033[90m",
}

var (
	serverURL string
	roomID    string
	username  string
	create    bool
)

func main() {
	flag.StringVar(&serverURL, "server", "", "base URL of the chat backend")
	flag.StringVar(&roomID, "room", "", "room id to join")
	flag.StringVar(&username, "user", "", "user name to chat as")
	flag.BoolVar(&create, "create", false, "create the room instead of joining it")
	flag.Parse()

	logger := log.New(os.Stderr, "[chat] ", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config:", err)
	}
	if serverURL != "" {
		cfg.ServerURL = serverURL
	}
	if roomID != "" {
		cfg.RoomID = roomID
	}
	if username != "" {
		cfg.Username = username
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("config:", err)
	}

	statsUpdater := stats.NewStatsUpdater()
	statsUpdater.Run()
	defer statsUpdater.Stop()

	directory := backend.NewDirectory(cfg.ServerURL, logger)
	uploader := backend.NewUploadClient(cfg.ServerURL, logger)

	sess := session.NewSession(directory, uploader, cfg.WebSocketURL(), logger, statsUpdater)

	var printMu sync.Mutex
	printed := 0
	sess.OnMessages(func(_ string, msgs []types.Message) {
		printMu.Lock()
		defer printMu.Unlock()

		if printed > len(msgs) {
			printed = 0
		}

		boundaries := render.Boundaries(msgs)
		now := time.Now()
		for i := printed; i < len(msgs); i++ {
			if boundaries[i] {
				fmt.Printf("--- %s ---\n", render.DateLabel(msgs[i].Timestamp, now))
			}
			printMessage(msgs[i])
		}
		printed = len(msgs)
	})

	sess.OnStateChange(func(st session.State) {
		if st == session.Stale {
			fmt.Println("! connection lost, sends are disabled until you rejoin")
		}
	})

	joinCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = sess.Join(joinCtx, cfg.RoomID, cfg.Username, create)
	cancel()
	if err != nil {
		logger.Fatal("join room: ", err)
	}

	fmt.Printf("joined room %q as %q\n", sess.RoomID(), sess.CurrentUser())

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case sig := <-sigs:
			logger.Printf("received signal: %s", sig)
			sess.Leave()
			return
		case line, ok := <-lines:
			if !ok || handleLine(sess, line) {
				sess.Leave()
				return
			}
		}
	}
}

// handleLine processes one line of input and reports whether the shell
// should exit.
func handleLine(sess *session.Session, line string) bool {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return false
	case line == "/quit", line == "/leave":
		return true
	case strings.HasPrefix(line, "/file "):
		sendFile(sess, strings.TrimSpace(strings.TrimPrefix(line, "/file ")))
		return false
	default:
		if err := sess.SendText(render.Emojize(line)); err != nil {
			fmt.Println("! send:", err)
		}
		return false
	}
}

func sendFile(sess *session.Session, path string) {
	f, err := os.Open(path)
	if err != nil {
		fmt.Println("!", err)
		return
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := sess.SendFile(ctx, filepath.Base(path), f); err != nil {
		fmt.Println("! send file:", err)
	}
}

func printMessage(msg types.Message) {
	color := ansiPalette[render.SenderColor(msg.Sender)]
	ts := msg.Timestamp.In(time.Local).Format("15:04")

	if msg.Kind == types.FileMessage {
		fmt.Printf("%s%s%s [%s] sent a %s: %s (%s)\n",
			color, msg.Sender, ansiReset, ts, render.Sniff(msg.Content), msg.DisplayName(), msg.Content)
		return
	}

	fmt.Printf("%s%s%s [%s] %s\n", color, msg.Sender, ansiReset, ts, msg.Content)
}
