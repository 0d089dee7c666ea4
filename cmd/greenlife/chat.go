package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"greenlife/internal/assistant"
	"greenlife/internal/catalog"
	"greenlife/internal/domain"
	"greenlife/internal/session"
	"greenlife/internal/store"
)

// localSessionID is the session identifier for terminal chats.
const localSessionID = "local"

// runChat starts an interactive terminal session with the assistant.
func runChat(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	setupLogger(cfg.Infra)

	cat, err := catalog.Load(cfg.Paths.Catalog)
	if err != nil {
		return err
	}
	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}

	var orders domain.OrderStore
	if cfg.Paths.OrdersDB != "" {
		st, err := store.Open(cfg.Paths.OrdersDB)
		if err != nil {
			slog.Warn("order store unavailable, checkouts will not be persisted", "error", err)
		} else {
			orders = st
			defer st.Close()
		}
	}

	var opts []assistant.Option
	var transcript *session.TranscriptStore
	if cfg.Paths.Transcript != "" {
		transcript = session.NewTranscriptStore(cfg.Paths.Transcript)
		opts = append(opts, assistant.WithTranscript(transcript))
	}

	asst, err := buildAssistant(cfg, provider, cat, orders, localSessionID, opts...)
	if err != nil {
		return err
	}

	var watcher *session.SyncWatcher
	if transcript != nil {
		// Restore the trailing window so a restarted chat keeps its context.
		history, err := transcript.LoadHistory(cfg.Assistant.WindowTurns * 2)
		if err != nil {
			slog.Warn("transcript restore failed", "error", err)
		}
		watcher = session.NewSyncWatcher(cfg.Paths.Transcript)
		for _, msg := range history {
			asst.Conversation().Append(msg)
			watcher.MarkKnown(msg.ID)
		}

		// Pick up messages appended by another device syncing the same file.
		err = watcher.Start(func(msgs []domain.Message) {
			for _, msg := range msgs {
				asst.Conversation().Append(msg)
			}
		})
		if err != nil {
			slog.Warn("transcript sync unavailable", "error", err)
			watcher = nil
		} else {
			defer watcher.Stop()
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "GreenLife Assistant. Type 'exit' to quit.")

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "you> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}

		reply, err := asst.ProcessMessage(context.Background(), input)
		if err != nil {
			slog.Error("turn failed", "error", err)
		}
		fmt.Fprintf(out, "assistant> %s\n", reply)
		if watcher != nil {
			// This turn's messages must not echo back via the watcher.
			markTurnKnown(asst, watcher)
		}
	}
	fmt.Fprintln(out, "bye.")
	return scanner.Err()
}

// markTurnKnown marks the just-committed turn's messages as locally known so
// the sync watcher does not re-deliver them.
func markTurnKnown(asst *assistant.Assistant, watcher *session.SyncWatcher) {
	history := asst.Conversation().History()
	start := len(history) - 2
	if start < 0 {
		start = 0
	}
	for _, msg := range history[start:] {
		watcher.MarkKnown(msg.ID)
	}
}
