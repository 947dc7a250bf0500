package service

import (
	"context"
	"fmt"

	"github.com/xeonarno/Alyra-blockquest/internal/model"
)

// PlayerService manages player profiles and their current team
type PlayerService struct {
	ledger Ledger
	teams  *TeamService
}

// PlayerServiceConfig holds configuration for the player service
type PlayerServiceConfig struct {
	Ledger      Ledger
	TeamService *TeamService
}

// NewPlayerService creates a new player service
func NewPlayerService(cfg PlayerServiceConfig) *PlayerService {
	return &PlayerService{
		ledger: cfg.Ledger,
		teams:  cfg.TeamService,
	}
}

// RegisterPlayer creates or updates the caller's profile. Re-registering
// overwrites profile fields only; team and character state are kept.
func (s *PlayerService) RegisterPlayer(ctx context.Context, caller model.Address, req *model.RegisterPlayerRequest) (*model.Player, error) {
	if caller.IsZero() {
		return nil, ErrNoCaller
	}
	if err := validationFailed(req.Validate()); err != nil {
		return nil, err
	}

	var player *model.Player
	err := s.ledger.Update(ctx, func(tx Tx) error {
		var err error
		player, err = loadOrNewPlayer(tx, caller)
		if err != nil {
			return err
		}

		if !player.Registered {
			player.Registered = true
			player.Character.IsAlive = true
		}
		player.FirstName = req.FirstName
		player.LastName = req.LastName
		player.Image = req.Image
		player.Description = req.Description
		player.UpdatedOn = tx.Now()

		if err := tx.PutPlayer(player); err != nil {
			return fmt.Errorf("failed to save player: %w", err)
		}
		return tx.Emit(model.EventPlayerRegistered, caller, PlayerTopic(caller), player)
	})
	if err != nil {
		return nil, err
	}
	return player, nil
}

// JoinTeam puts the caller on the team's roster and records it as their current team
func (s *PlayerService) JoinTeam(ctx context.Context, teamID uint64, caller model.Address) (*model.Player, error) {
	if caller.IsZero() {
		return nil, ErrNoCaller
	}

	var player *model.Player
	err := s.ledger.Update(ctx, func(tx Tx) error {
		var err error
		player, err = loadOrNewPlayer(tx, caller)
		if err != nil {
			return err
		}

		current, err := currentTeam(tx, player)
		if err != nil {
			return err
		}
		if current != nil && current.ID != teamID {
			return ErrPlayerInOtherTeam
		}

		if _, err := s.teams.joinTeam(tx, teamID, caller); err != nil {
			return err
		}

		player.TeamID = teamID
		player.UpdatedOn = tx.Now()
		if err := tx.PutPlayer(player); err != nil {
			return fmt.Errorf("failed to save player: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return player, nil
}

// LeaveTeam takes the caller off their current team's roster
func (s *PlayerService) LeaveTeam(ctx context.Context, caller model.Address) (*model.Player, error) {
	if caller.IsZero() {
		return nil, ErrNoCaller
	}

	var player *model.Player
	err := s.ledger.Update(ctx, func(tx Tx) error {
		var err error
		player, err = tx.Player(caller)
		if err != nil {
			return fmt.Errorf("failed to get player: %w", err)
		}
		if player == nil {
			return ErrPlayerHasNoTeam
		}
		current, err := currentTeam(tx, player)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrPlayerHasNoTeam
		}

		if _, err := s.teams.leaveTeam(tx, current.ID, caller); err != nil {
			return err
		}

		player.TeamID = 0
		player.UpdatedOn = tx.Now()
		if err := tx.PutPlayer(player); err != nil {
			return fmt.Errorf("failed to save player: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return player, nil
}

// GetPlayer returns a player profile
func (s *PlayerService) GetPlayer(ctx context.Context, addr model.Address) (*model.Player, error) {
	var player *model.Player
	err := s.ledger.View(ctx, func(tx Tx) error {
		var err error
		player, err = tx.Player(addr)
		if err != nil {
			return fmt.Errorf("failed to get player: %w", err)
		}
		if player == nil {
			return ErrPlayerNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return player, nil
}

// CheckSessionAvailability reports whether the caller can still pay into the
// session currently bound to the team
func (s *PlayerService) CheckSessionAvailability(ctx context.Context, teamID uint64, caller model.Address) (*model.TeamAvailability, error) {
	result := &model.TeamAvailability{TeamID: teamID}
	err := s.ledger.View(ctx, func(tx Tx) error {
		team, err := tx.Team(teamID)
		if err != nil {
			return fmt.Errorf("failed to get team: %w", err)
		}
		if team == nil {
			return ErrTeamNotFound
		}
		if team.SessionID == 0 {
			return nil
		}

		session, err := tx.Session(team.SessionID)
		if err != nil {
			return fmt.Errorf("failed to get session: %w", err)
		}
		if session == nil {
			return nil
		}
		result.SessionID = session.ID
		result.Available = session.Active &&
			len(session.Paid) < len(session.AllowList) &&
			!session.HasPaid(caller)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func loadOrNewPlayer(tx Tx, addr model.Address) (*model.Player, error) {
	player, err := tx.Player(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	if player == nil {
		player = &model.Player{Address: addr, CreatedOn: tx.Now()}
	}
	return player, nil
}

// currentTeam resolves the player's team, treating a deleted team as none
func currentTeam(tx Tx, player *model.Player) (*model.Team, error) {
	if player.TeamID == 0 {
		return nil, nil
	}
	team, err := tx.Team(player.TeamID)
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	if team == nil || team.Deleted {
		return nil, nil
	}
	return team, nil
}
