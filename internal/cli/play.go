package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/gameroom/internal/dependencies/clock"
	"github.com/mcoot/gameroom/internal/dependencies/random"
	"github.com/mcoot/gameroom/internal/engine"
	"github.com/mcoot/gameroom/internal/model"
	"github.com/mcoot/gameroom/internal/rules"
)

const playHelp = `Commands:
  <n>        play position, column or card n
  rock|paper|scissors
  next       start the next round
  rematch    restart a finished game
  refresh    fetch the room now
  abandon    abandon the room and quit
  quit       leave without abandoning`

// roomFlags select the room an engine enters
type roomFlags struct {
	create   string
	join     string
	interval time.Duration
	strict   bool
}

func (f *roomFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.create, "create", "", "Create a room of this game type")
	cmd.Flags().StringVar(&f.join, "join", "", "Join the room with this code")
	cmd.Flags().DurationVar(&f.interval, "poll", engine.DefaultConfig().PollInterval, "Room poll interval")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "Reject writes made against a stale room version")
	cmd.MarkFlagsMutuallyExclusive("create", "join")
	cmd.MarkFlagsOneRequired("create", "join")
}

func (f *roomFlags) config() engine.Config {
	return engine.Config{
		PollInterval:     f.interval,
		StrictVersioning: f.strict,
	}
}

// enter creates or joins the room the flags name
func (f *roomFlags) enter(ctx context.Context, e *engine.Engine) error {
	if f.create != "" {
		return e.CreateRoom(ctx, model.GameType(f.create))
	}
	return e.JoinRoom(ctx, model.RoomCode(strings.ToUpper(f.join)))
}

// newRemoteEngine resolves the session's player and returns an engine
// talking to the configured server
func newRemoteEngine(ctx context.Context, engineCfg engine.Config) (*engine.Engine, error) {
	if _, err := api.Identify(ctx); err != nil {
		return nil, fmt.Errorf("could not identify player (create one with 'gameroom player guest'): %w", err)
	}
	return engine.New(api, rules.DefaultRegistry(), clock.New(), random.New(), engineCfg, log), nil
}

func newPlayCmd() *cobra.Command {
	var flags roomFlags

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a room interactively",
		Long: `Create or join a room and play it from the terminal. The room is polled
in the background so the opponent's moves show up as they happen.

` + playHelp,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			e, err := newRemoteEngine(ctx, flags.config())
			if err != nil {
				return err
			}
			defer e.Close()

			out := NewOutput(cfg.Output)
			printed := make(chan struct{})
			go func() {
				defer close(printed)
				for v := range e.Updates() {
					out.Print(v)
				}
			}()

			if err := flags.enter(ctx, e); err != nil {
				return err
			}
			err = playLoop(ctx, e, os.Stdin, out)
			e.Close()
			<-printed
			return err
		},
	}

	flags.register(cmd)

	return cmd
}

// playLoop reads commands until the player quits, input ends or ctx is done
func playLoop(ctx context.Context, e *engine.Engine, in io.Reader, out *Output) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			e.Leave()
			return nil
		case line, ok := <-lines:
			if !ok {
				e.Leave()
				return nil
			}
			done, err := runPlayCommand(ctx, e, line, out)
			// Failed network calls already reach the view
			if err != nil && e.View().Err != err {
				out.PrintError(err)
			}
			if done {
				return nil
			}
		}
	}
}

func runPlayCommand(ctx context.Context, e *engine.Engine, line string, out *Output) (bool, error) {
	word := strings.ToLower(strings.TrimSpace(line))
	switch word {
	case "":
		return false, nil
	case "help", "?":
		out.PrintMessage(playHelp)
		return false, nil
	case "quit", "exit", "leave":
		e.Leave()
		return true, nil
	case "abandon":
		if err := e.Abandon(ctx); err != nil {
			return false, err
		}
		return true, nil
	case "rematch":
		return false, e.Rematch(ctx)
	case "next":
		return false, e.NextRound(ctx)
	case "refresh":
		return false, e.Refresh(ctx)
	}

	err := e.Play(ctx, parseMove(word))
	if errors.Is(err, engine.ErrWrongPhase) {
		return false, fmt.Errorf("you cannot move right now")
	}
	return false, err
}
