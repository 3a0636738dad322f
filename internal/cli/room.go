package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/mcoot/gameroom/internal/api/response"
	"github.com/mcoot/gameroom/internal/api/ws"
	"github.com/mcoot/gameroom/internal/dependencies/random"
	"github.com/mcoot/gameroom/internal/model"
	"github.com/mcoot/gameroom/internal/rules"
)

func newRoomCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "room",
		Short: "Room commands",
	}

	cmd.AddCommand(newRoomCreateCmd())
	cmd.AddCommand(newRoomGetCmd())
	cmd.AddCommand(newRoomListCmd())
	cmd.AddCommand(newRoomJoinCmd())
	cmd.AddCommand(newRoomMoveCmd())
	cmd.AddCommand(newRoomAbandonCmd())
	cmd.AddCommand(newRoomRematchCmd())
	cmd.AddCommand(newRoomBotCmd())
	cmd.AddCommand(newRoomWatchCmd())

	return cmd
}

func printRoom(r *model.Room) {
	out := NewOutput(cfg.Output)
	out.Print(response.RoomFromModel(r))
}

func newRoomCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <game-type>",
		Short: "Create a room (tic-tac-toe, connect-four, rock-paper-scissors, memory-match)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := api.Create(cmd.Context(), model.GameType(args[0]))
			if err != nil {
				return err
			}
			printRoom(r)
			return nil
		},
	}
}

func newRoomGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <code>",
		Short: "Get room details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := api.Fetch(cmd.Context(), model.RoomCode(args[0]))
			if err != nil {
				return err
			}
			printRoom(r)
			return nil
		},
	}
}

func newRoomListCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			rooms, err := api.List(cmd.Context(), model.RoomStatus(status))
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(response.RoomListFromModel(rooms))
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "waiting", "Filter by status (waiting, in-progress, finished, abandoned); empty for all")

	return cmd
}

func newRoomJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <code>",
		Short: "Take the free seat in a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := api.Join(cmd.Context(), model.RoomCode(args[0]))
			if err != nil {
				return err
			}
			printRoom(r)
			return nil
		},
	}
}

// parseMove reads a board position or card index as a number and anything
// else as a rock-paper-scissors choice
func parseMove(arg string) model.Move {
	if pos, err := strconv.Atoi(arg); err == nil {
		return model.Move{Position: pos}
	}
	return model.Move{Choice: strings.ToLower(strings.TrimSpace(arg))}
}

func newRoomMoveCmd() *cobra.Command {
	var expected int64

	cmd := &cobra.Command{
		Use:   "move <code> <position|choice>",
		Short: "Send a single move for the server to apply",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			move := parseMove(args[1])
			payload := model.MovePayload{Move: &move}
			if cmd.Flags().Changed("expected-version") {
				payload.ExpectedVersion = &expected
			}

			r, err := api.Move(cmd.Context(), model.RoomCode(args[0]), payload)
			if err != nil {
				return err
			}
			printRoom(r)
			return nil
		},
	}

	cmd.Flags().Int64Var(&expected, "expected-version", 0, "Reject the move unless the room is at this version")

	return cmd
}

func newRoomAbandonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "abandon <code>",
		Short: "Abandon a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := api.Abandon(cmd.Context(), model.RoomCode(args[0]))
			if err != nil {
				return err
			}
			printRoom(r)
			return nil
		},
	}
}

func newRoomRematchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rematch <code>",
		Short: "Restart a finished room from a fresh board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := model.RoomCode(args[0])
			current, err := api.Fetch(cmd.Context(), code)
			if err != nil {
				return err
			}
			if current.Status != model.RoomFinished {
				return fmt.Errorf("room %s is %s, not finished", code, current.Status)
			}

			module, err := rules.DefaultRegistry().Get(current.GameType)
			if err != nil {
				return err
			}
			raw, err := module.Encode(module.InitialState(random.New()))
			if err != nil {
				return err
			}

			r, err := api.Move(cmd.Context(), code, model.MovePayload{
				State:           raw,
				ExpectedVersion: &current.Version,
			})
			if err != nil {
				return err
			}
			printRoom(r)
			return nil
		},
	}
}

func newRoomBotCmd() *cobra.Command {
	var strategy string

	cmd := &cobra.Command{
		Use:   "bot <code>",
		Short: "Seat a server-side bot in your waiting room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bot, r, err := api.AddBot(cmd.Context(), model.RoomCode(args[0]), strategy)
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(response.BotAdded{
				Bot:  response.PlayerFromModel(bot),
				Room: response.RoomFromModel(r),
			})
			return nil
		},
	}

	cmd.Flags().StringVar(&strategy, "strategy", "", "Bot strategy: random, greedy (default: random)")

	return cmd
}

func newRoomWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <code>",
		Short: "Stream room updates and chat over WebSocket",
		Long: `Connect to the room's WebSocket and print every room change as it happens.

Lines typed on stdin are sent to the room as chat messages.

Press Ctrl+C to disconnect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return watchRoom(cmd.Context(), model.RoomCode(args[0]))
		},
	}
}

func watchRoom(ctx context.Context, code model.RoomCode) error {
	url, err := api.WatchURL(code)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("failed to connect: HTTP %d", resp.StatusCode)
		}
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()

	// One writer at a time on the connection
	var writeMu sync.Mutex
	go func() {
		<-ctx.Done()
		writeMu.Lock()
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		writeMu.Unlock()
		_ = conn.Close()
	}()

	go sendChat(ctx, conn, &writeMu)

	out := NewOutput(cfg.Output)
	if cfg.Output != "json" {
		out.PrintMessage(fmt.Sprintf("Watching room %s (Ctrl+C to stop)", code))
	}

	for {
		var msg ws.Message
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("connection lost: %w", err)
		}

		if cfg.Output == "json" {
			out.Print(msg)
			continue
		}
		switch msg.Type {
		case ws.TypeRoom:
			if msg.Room != nil {
				fmt.Println("---")
				out.Print(*msg.Room)
			}
		case ws.TypeChat:
			fmt.Printf("[%s] %s\n", msg.DisplayName, msg.Text)
		}
	}
}

// sendChat relays stdin lines to the room until stdin closes or ctx ends
func sendChat(ctx context.Context, conn *websocket.Conn, writeMu *sync.Mutex) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		writeMu.Lock()
		err := conn.WriteJSON(ws.Message{Type: ws.TypeChat, Text: text})
		writeMu.Unlock()
		if err != nil {
			log.Debug("chat send failed", slog.Any("error", err))
			return
		}
	}
}
