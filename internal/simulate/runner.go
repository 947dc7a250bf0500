package simulate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/xeonarno/Alyra-blockquest/internal/model"
	"github.com/xeonarno/Alyra-blockquest/internal/repository"
	"github.com/xeonarno/Alyra-blockquest/internal/service"
	"github.com/xeonarno/Alyra-blockquest/internal/service/dice"
)

// DefaultMinter is the identity completeGame mints under in simulations
var DefaultMinter = model.MustParseAddress("0x000000000000000000000000000000000000b10c")

var errorKinds = map[string]error{
	"unauthorized":      service.ErrUnauthorized,
	"not_found":         service.ErrNotFound,
	"already_exists":    service.ErrAlreadyExists,
	"already_paid":      service.ErrAlreadyPaid,
	"already_member":    service.ErrAlreadyMember,
	"not_member":        service.ErrNotMember,
	"capacity_exceeded": service.ErrCapacityExceeded,
	"invalid_state":     service.ErrInvalidState,
	"validation":        service.ErrValidation,
}

type operation func(ctx context.Context, r *Runner, caller model.Address, st Step) (string, error)

var operations = map[string]operation{
	"create_gm": func(ctx context.Context, r *Runner, caller model.Address, st Step) (string, error) {
		gm, err := r.gms.CreateGM(ctx, caller, &model.CreateGMRequest{FirstName: st.Name, LastName: st.LastName, Description: st.Description})
		if err != nil {
			return "", err
		}
		return "gm " + gm.Address.String(), nil
	},
	"create_team": func(ctx context.Context, r *Runner, caller model.Address, st Step) (string, error) {
		team, err := r.gms.CreateTeam(ctx, caller, &model.CreateTeamRequest{Name: st.Name, Description: st.Description})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("team %d", team.ID), nil
	},
	"delete_team": func(ctx context.Context, r *Runner, caller model.Address, st Step) (string, error) {
		return fmt.Sprintf("team %d deleted", st.Team), r.teams.DeleteTeam(ctx, st.Team, caller)
	},
	"register_player": func(ctx context.Context, r *Runner, caller model.Address, st Step) (string, error) {
		p, err := r.players.RegisterPlayer(ctx, caller, &model.RegisterPlayerRequest{FirstName: st.Name, LastName: st.LastName, Description: st.Description})
		if err != nil {
			return "", err
		}
		return "player " + p.Address.String(), nil
	},
	"join_team": func(ctx context.Context, r *Runner, caller model.Address, st Step) (string, error) {
		p, err := r.players.JoinTeam(ctx, st.Team, caller)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("joined team %d", p.TeamID), nil
	},
	"leave_team": func(ctx context.Context, r *Runner, caller model.Address, st Step) (string, error) {
		if _, err := r.players.LeaveTeam(ctx, caller); err != nil {
			return "", err
		}
		return "left team", nil
	},
	"check_availability": func(ctx context.Context, r *Runner, caller model.Address, st Step) (string, error) {
		a, err := r.players.CheckSessionAvailability(ctx, st.Team, caller)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("team %d available=%t", a.TeamID, a.Available), nil
	},
	"start_game": func(ctx context.Context, r *Runner, caller model.Address, st Step) (string, error) {
		s, err := r.gms.StartGame(ctx, caller, st.Team, &model.StartGameRequest{Fee: st.Value})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("session %d fee %s", s.ID, s.Fee), nil
	},
	"pay_fee": func(ctx context.Context, r *Runner, caller model.Address, st Step) (string, error) {
		s, err := r.sessions.PayFee(ctx, st.Session, caller, &model.PayFeeRequest{Value: st.Value})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("escrow %s", s.Escrow), nil
	},
	"roll_dice": func(ctx context.Context, r *Runner, caller model.Address, st Step) (string, error) {
		roll, err := r.sessions.RollDice(ctx, st.Session, caller, &model.RollDiceRequest{Sides: st.Sides})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("d%d rolled %d", roll.Sides, roll.Value), nil
	},
	"add_monster": func(ctx context.Context, r *Runner, caller model.Address, st Step) (string, error) {
		m, err := r.sessions.AddMonster(ctx, st.Session, caller, &model.AddMonsterRequest{
			Name:       st.Name,
			Attack:     st.Attack,
			Defense:    st.Defense,
			HitPoints:  st.HitPoints,
			XPReward:   st.XP,
			GoldReward: st.Gold,
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("monster %d %s", m.ID, m.Name), nil
	},
	"kill_monster": func(ctx context.Context, r *Runner, caller model.Address, st Step) (string, error) {
		s, err := r.sessions.KillMonster(ctx, st.Session, caller, st.Monster)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("killed=%d gold=%d", s.MonstersKilled, s.TotalGold), nil
	},
	"remove_monster": func(ctx context.Context, r *Runner, caller model.Address, st Step) (string, error) {
		if _, err := r.sessions.RemoveMonster(ctx, st.Session, caller, st.Monster); err != nil {
			return "", err
		}
		return fmt.Sprintf("monster %d removed", st.Monster), nil
	},
	"send_message": func(ctx context.Context, r *Runner, caller model.Address, st Step) (string, error) {
		if _, err := r.sessions.SendMessage(ctx, st.Session, caller, &model.SendMessageRequest{Text: st.Text}); err != nil {
			return "", err
		}
		return fmt.Sprintf("%q", st.Text), nil
	},
	"end_session": func(ctx context.Context, r *Runner, caller model.Address, st Step) (string, error) {
		if _, err := r.sessions.EndSession(ctx, st.Session, caller); err != nil {
			return "", err
		}
		return fmt.Sprintf("session %d ended", st.Session), nil
	},
	"complete_game": func(ctx context.Context, r *Runner, caller model.Address, st Step) (string, error) {
		ids, err := r.gms.CompleteGame(ctx, caller, st.Session)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("minted %v", ids), nil
	},
	"mint_diploma": func(ctx context.Context, r *Runner, caller model.Address, st Step) (string, error) {
		d, err := r.certs.MintDiploma(ctx, caller, &model.MintDiplomaRequest{
			Player: r.scenario.address(st.Player),
			TeamID: st.Team,
			Date:   st.Date,
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("diploma %d", d.TokenID), nil
	},
	"certificates": func(ctx context.Context, r *Runner, caller model.Address, st Step) (string, error) {
		player := caller
		if st.Player != "" {
			player = r.scenario.address(st.Player)
		}
		certs, err := r.certs.GetAllCertificatesOfPlayer(ctx, player)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d certificates", len(certs)), nil
	},
}

// StepResult records the outcome of one step
type StepResult struct {
	Index  int
	Actor  string
	Op     string
	Output string
	Err    error
}

// Failed reports whether the outcome differs from the step's expectation
func (r StepResult) Failed() bool { return r.Err != nil }

// RunnerConfig holds runner dependencies
type RunnerConfig struct {
	Sinks  []repository.EventSink
	Logger *slog.Logger
}

// Runner executes scenarios against a fresh in-memory ledger
type Runner struct {
	scenario *Scenario
	logger   *slog.Logger
	teams    *service.TeamService
	players  *service.PlayerService
	sessions *service.SessionService
	gms      *service.GameMasterService
	certs    *service.CertificationService
}

// NewRunner wires the services for sc
func NewRunner(sc *Scenario, cfg RunnerConfig) (*Runner, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	var roller dice.Source
	if len(sc.Dice) > 0 {
		roller = dice.NewScripted(sc.Dice...)
	} else {
		seeded, err := dice.NewHostSource(sc.Seed)
		if err != nil {
			return nil, err
		}
		roller = seeded
	}

	renderer, err := service.NewCertificateRenderer()
	if err != nil {
		return nil, err
	}

	store := repository.NewStore(repository.StoreConfig{
		Backend: repository.NewMemoryBackend(),
		Sinks:   cfg.Sinks,
		Logger:  cfg.Logger,
	})
	ledger := service.LedgerFrom[*repository.Tx](store)

	teams := service.NewTeamService(service.TeamServiceConfig{Ledger: ledger})
	certs := service.NewCertificationService(service.CertificationServiceConfig{
		Ledger:   ledger,
		Renderer: renderer,
		Minters:  []model.Address{DefaultMinter},
	})
	return &Runner{
		scenario: sc,
		logger:   cfg.Logger,
		teams:    teams,
		players:  service.NewPlayerService(service.PlayerServiceConfig{Ledger: ledger, TeamService: teams}),
		sessions: service.NewSessionService(service.SessionServiceConfig{Ledger: ledger, Dice: roller}),
		gms: service.NewGameMasterService(service.GameMasterServiceConfig{
			Ledger:               ledger,
			TeamService:          teams,
			CertificationService: certs,
			MinterAddress:        DefaultMinter,
		}),
		certs: certs,
	}, nil
}

// Run executes every step in order. It keeps going after a mismatch and
// returns all results together with an error if any step missed its expectation.
func (r *Runner) Run(ctx context.Context) ([]StepResult, error) {
	results := make([]StepResult, 0, len(r.scenario.Steps))
	failed := 0
	for i, st := range r.scenario.Steps {
		res := StepResult{Index: i + 1, Actor: st.As, Op: st.Op}
		out, err := operations[st.Op](ctx, r, r.scenario.address(st.As), st)
		res.Output = out
		res.Err = check(st.Expect, err)

		if res.Failed() {
			failed++
			r.logger.Error("step failed",
				slog.Int("step", res.Index),
				slog.String("actor", st.As),
				slog.String("op", st.Op),
				slog.String("error", res.Err.Error()),
			)
		} else {
			if err != nil {
				res.Output = "rejected: " + err.Error()
			}
			r.logger.Info("step",
				slog.Int("step", res.Index),
				slog.String("actor", st.As),
				slog.String("op", st.Op),
				slog.String("result", res.Output),
			)
		}
		results = append(results, res)
	}
	if failed > 0 {
		return results, fmt.Errorf("%d of %d steps failed", failed, len(results))
	}
	return results, nil
}

func check(expect string, err error) error {
	if expect == "" {
		return err
	}
	if err == nil {
		return fmt.Errorf("expected %s error, got success", expect)
	}
	if !errors.Is(err, errorKinds[expect]) {
		return fmt.Errorf("expected %s error, got: %w", expect, err)
	}
	return nil
}
