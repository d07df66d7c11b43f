package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newStatusCmd() *cobra.Command {
	var baseURL, userID string

	cmd := &cobra.Command{
		Use:   "status <project-id>",
		Short: "Watch live per-block run state for a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID := args[0]
			wsURL, err := statusURL(baseURL, projectID, userID)
			if err != nil {
				return fmt.Errorf("build websocket url: %w", err)
			}

			updates := make(chan workflowStatusMessage)
			errs := make(chan error, 1)
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			go watchStatus(ctx, wsURL, updates, errs)

			nonInteractive := !term.IsTerminal(int(os.Stdout.Fd()))
			if nonInteractive {
				return runNonInteractive(cmd, updates, errs)
			}

			m := newModel(projectID, updates)
			p := tea.NewProgram(m)
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("run dashboard: %w", err)
			}
			select {
			case err := <-errs:
				return err
			default:
				return nil
			}
		},
	}

	cmd.Flags().StringVar(&baseURL, "addr", "ws://localhost:8080", "pipeflowd base address")
	cmd.Flags().StringVar(&userID, "user", "", "caller identity forwarded as the WebSocket query token")

	return cmd
}

// runNonInteractive prints one JSON line per status tick instead of driving
// the bubbletea dashboard, for piped/CI invocations where there is no tty.
func runNonInteractive(cmd *cobra.Command, updates <-chan workflowStatusMessage, errs <-chan error) error {
	w := bufio.NewWriter(cmd.OutOrStdout())
	defer w.Flush()

	enc := json.NewEncoder(w)
	for {
		select {
		case msg, ok := <-updates:
			if !ok {
				w.Flush()
				select {
				case err := <-errs:
					return err
				default:
					return nil
				}
			}
			if err := enc.Encode(msg); err != nil {
				return err
			}
			w.Flush()
		case err := <-errs:
			return err
		}
	}
}

func statusURL(baseURL, projectID, userID string) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/workflow/ws/workflow_status/" + projectID)
	if err != nil {
		return "", err
	}
	if userID != "" {
		q := u.Query()
		q.Set("token", userID)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// workflowStatusMessage mirrors internal/api's wire shape for the
// per-workflow status channel.
type workflowStatusMessage struct {
	BlockStates map[string]string `json:"block_states"`
}

// watchStatus dials the WebSocket status channel and forwards every decoded
// message on updates until ctx is cancelled or the connection errors.
func watchStatus(ctx context.Context, wsURL string, updates chan<- workflowStatusMessage, errs chan<- error) {
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		errs <- fmt.Errorf("connect: %w", err)
		close(updates)
		return
	}
	defer conn.CloseNow()

	for {
		var msg workflowStatusMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if ctx.Err() == nil {
				errs <- fmt.Errorf("read: %w", err)
			}
			close(updates)
			return
		}
		select {
		case updates <- msg:
		case <-ctx.Done():
			close(updates)
			return
		}
	}
}
