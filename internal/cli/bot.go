package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mcoot/gameroom/internal/dependencies/random"
	"github.com/mcoot/gameroom/internal/services/bot"
)

func newBotCmd() *cobra.Command {
	var (
		flags     roomFlags
		strategy  string
		maxRounds int
	)

	cmd := &cobra.Command{
		Use:   "bot",
		Short: "Play a seat unattended with a bot strategy",
		Long: `Create or join a room and let a bot play this session's seat through the
same synchronization engine the interactive client uses.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			strategies := bot.DefaultStrategies(random.New())
			st, ok := strategies[strategy]
			if !ok {
				return fmt.Errorf("%w: %s", bot.ErrUnknownStrategy, strategy)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			e, err := newRemoteEngine(ctx, flags.config())
			if err != nil {
				return err
			}
			defer e.Close()

			if err := flags.enter(ctx, e); err != nil {
				return err
			}
			out := NewOutput(cfg.Output)
			out.Print(e.View())

			played, err := bot.NewRunner(e, st, maxRounds, log).Run(ctx)
			out.Print(e.View())
			out.PrintMessage(fmt.Sprintf("Bot played %d moves", played))
			if ctx.Err() != nil {
				return nil
			}
			return err
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&strategy, "strategy", bot.StrategyRandom, "Bot strategy: random, greedy")
	cmd.Flags().IntVar(&maxRounds, "rounds", 0, "Stop after this many rounds of a round-based game (0 for no limit)")

	return cmd
}
