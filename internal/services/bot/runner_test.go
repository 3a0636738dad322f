package bot_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/gameroom/internal/client"
	"github.com/mcoot/gameroom/internal/dependencies/mocks"
	"github.com/mcoot/gameroom/internal/engine"
	"github.com/mcoot/gameroom/internal/model"
	"github.com/mcoot/gameroom/internal/rules"
	"github.com/mcoot/gameroom/internal/services/bot"
	"github.com/mcoot/gameroom/internal/services/room"
	"github.com/mcoot/gameroom/internal/storage/memory"
	"github.com/mcoot/gameroom/internal/testutil"
)

type runResult struct {
	played int
	err    error
}

type RunnerSuite struct {
	suite.Suite
	ctx    context.Context
	cancel context.CancelFunc
	clock  *mocks.MockClock
	random *mocks.MockRandom
	rooms  *room.Controller

	human   *engine.Engine
	botSide *engine.Engine
}

func TestRunnerSuite(t *testing.T) {
	suite.Run(t, new(RunnerSuite))
}

func (s *RunnerSuite) SetupTest() {
	s.ctx, s.cancel = context.WithTimeout(context.Background(), 5*time.Second)
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.random.QueueString("ROOM01")
	s.rooms = room.NewController(memory.New(), rules.DefaultRegistry(), nil, nil, s.clock, s.random, testutil.NopLogger())

	s.human = s.newEngine(model.Player{ID: "p-human", DisplayName: "Human"})
	s.botSide = s.newEngine(model.Player{ID: "p-bot", DisplayName: "Bot", IsBot: true})
}

func (s *RunnerSuite) TearDownTest() {
	s.human.Close()
	s.botSide.Close()
	s.cancel()
}

func (s *RunnerSuite) newEngine(p model.Player) *engine.Engine {
	c := client.NewLocal(s.rooms, p)
	return engine.New(c, rules.DefaultRegistry(), s.clock, s.random, engine.DefaultConfig(), testutil.NopLogger())
}

func (s *RunnerSuite) run(gt model.GameType, maxRounds int) <-chan runResult {
	s.Require().NoError(s.human.CreateRoom(s.ctx, gt))
	s.Require().NoError(s.botSide.JoinRoom(s.ctx, "ROOM01"))
	s.Require().NoError(s.human.Refresh(s.ctx))

	runner := bot.NewRunner(s.botSide, bot.NewRandomStrategy(s.random), maxRounds, testutil.NopLogger())
	done := make(chan runResult, 1)
	go func() {
		played, err := runner.Run(s.ctx)
		done <- runResult{played, err}
	}()
	return done
}

// await ticks the clock until the human engine sees cond
func (s *RunnerSuite) await(cond func(engine.View) bool) {
	s.Eventually(func() bool {
		s.clock.Tick()
		if err := s.human.Refresh(s.ctx); err != nil {
			return false
		}
		return cond(s.human.View())
	}, 2*time.Second, 10*time.Millisecond)
}

func (s *RunnerSuite) awaitDone(done <-chan runResult) runResult {
	var res runResult
	s.Eventually(func() bool {
		s.clock.Tick()
		select {
		case res = <-done:
			return true
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
	return res
}

func tttBoard(v engine.View) [9]string {
	return v.State.(*rules.TicTacToeState).Board
}

func (s *RunnerSuite) TestRunnerAnswersMovesUntilFinished() {
	done := s.run(model.GameTicTacToe, 0)

	s.Require().NoError(s.human.Play(s.ctx, model.Move{Position: 4}))
	s.await(func(v engine.View) bool { return tttBoard(v)[0] == rules.MarkO })

	s.Require().NoError(s.human.Play(s.ctx, model.Move{Position: 2}))
	s.await(func(v engine.View) bool { return tttBoard(v)[1] == rules.MarkO })

	s.Require().NoError(s.human.Play(s.ctx, model.Move{Position: 6}))
	s.Equal(engine.PhaseFinished, s.human.View().Phase)

	res := s.awaitDone(done)
	s.NoError(res.err)
	s.Equal(2, res.played)
	s.Equal(engine.PhaseFinished, s.botSide.View().Phase)
}

func (s *RunnerSuite) TestRunnerAdvancesRounds() {
	done := s.run(model.GameRockPaperScissors, 2)
	rpsState := func(v engine.View) *rules.RockPaperScissorsState {
		return v.State.(*rules.RockPaperScissorsState)
	}

	s.await(func(v engine.View) bool { return rpsState(v).Choices[model.SeatGuest] != nil })
	s.Require().NoError(s.human.Play(s.ctx, model.Move{Choice: rules.ChoicePaper}))
	s.Equal(engine.PhaseResult, s.human.View().Phase)

	s.await(func(v engine.View) bool {
		st := rpsState(v)
		return st.Round == 2 && st.Choices[model.SeatGuest] != nil
	})
	s.Require().NoError(s.human.Play(s.ctx, model.Move{Choice: rules.ChoiceScissors}))

	res := s.awaitDone(done)
	s.NoError(res.err)
	s.Equal(2, res.played)
	st := rpsState(s.human.View())
	s.Equal([2]int{1, 1}, st.Scores)
}

func (s *RunnerSuite) TestRunnerStopsOnCancel() {
	ctx, cancel := context.WithCancel(s.ctx)
	s.Require().NoError(s.human.CreateRoom(s.ctx, model.GameTicTacToe))
	s.Require().NoError(s.botSide.JoinRoom(s.ctx, "ROOM01"))
	runner := bot.NewRunner(s.botSide, bot.NewRandomStrategy(s.random), 0, testutil.NopLogger())

	cancel()
	played, err := runner.Run(ctx)

	s.ErrorIs(err, context.Canceled)
	s.Zero(played)
}
