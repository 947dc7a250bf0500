package service

import (
	"context"
	"fmt"

	"github.com/xeonarno/Alyra-blockquest/internal/model"
)

// TeamService owns team rosters. Its tx-scoped helpers are shared with the
// player registry and the game master facade so compound operations stay in
// one transaction.
type TeamService struct {
	ledger Ledger
}

// TeamServiceConfig holds configuration for the team service
type TeamServiceConfig struct {
	Ledger Ledger
}

// NewTeamService creates a new team service
func NewTeamService(cfg TeamServiceConfig) *TeamService {
	return &TeamService{ledger: cfg.Ledger}
}

// CreateTeam creates a team owned by the caller and returns it
func (s *TeamService) CreateTeam(ctx context.Context, owner model.Address, req *model.CreateTeamRequest) (*model.Team, error) {
	var team *model.Team
	err := s.ledger.Update(ctx, func(tx Tx) error {
		var err error
		team, err = s.createTeam(tx, owner, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return team, nil
}

func (s *TeamService) createTeam(tx Tx, owner model.Address, req *model.CreateTeamRequest) (*model.Team, error) {
	if owner.IsZero() {
		return nil, ErrNoCaller
	}
	if err := validationFailed(req.Validate()); err != nil {
		return nil, err
	}

	active, err := countActiveTeams(tx, owner)
	if err != nil {
		return nil, err
	}
	if active >= model.MaxTeamsPerGM {
		return nil, ErrTooManyTeams
	}

	id, err := tx.NextTeamID()
	if err != nil {
		return nil, fmt.Errorf("allocate team id: %w", err)
	}

	now := tx.Now()
	team := &model.Team{
		ID:          id,
		Owner:       owner,
		Name:        req.Name,
		Image:       req.Image,
		Description: req.Description,
		Members:     []model.Address{},
		CreatedOn:   now,
		UpdatedOn:   now,
	}
	if err := tx.PutTeam(team); err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	if err := tx.Emit(model.EventTeamCreated, owner, TeamTopic(id), team); err != nil {
		return nil, err
	}
	return team, nil
}

// JoinTeam appends the player to the team's roster
func (s *TeamService) JoinTeam(ctx context.Context, teamID uint64, player model.Address) (*model.Team, error) {
	var team *model.Team
	err := s.ledger.Update(ctx, func(tx Tx) error {
		var err error
		team, err = s.joinTeam(tx, teamID, player)
		return err
	})
	if err != nil {
		return nil, err
	}
	return team, nil
}

func (s *TeamService) joinTeam(tx Tx, teamID uint64, player model.Address) (*model.Team, error) {
	if player.IsZero() {
		return nil, ErrNoCaller
	}
	team, err := tx.Team(teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	if team == nil || team.Deleted {
		return nil, ErrTeamNotFound
	}
	if team.IsFull() {
		return nil, ErrTeamFull
	}
	if team.HasMember(player) {
		return nil, ErrAlreadyInTeam
	}

	team.Members = append(team.Members, player)
	team.UpdatedOn = tx.Now()
	if err := tx.PutTeam(team); err != nil {
		return nil, fmt.Errorf("failed to update team: %w", err)
	}
	if err := tx.Emit(model.EventTeamJoined, player, TeamTopic(teamID), team); err != nil {
		return nil, err
	}
	return team, nil
}

// LeaveTeam removes the player from the team's roster
func (s *TeamService) LeaveTeam(ctx context.Context, teamID uint64, player model.Address) (*model.Team, error) {
	var team *model.Team
	err := s.ledger.Update(ctx, func(tx Tx) error {
		var err error
		team, err = s.leaveTeam(tx, teamID, player)
		return err
	})
	if err != nil {
		return nil, err
	}
	return team, nil
}

func (s *TeamService) leaveTeam(tx Tx, teamID uint64, player model.Address) (*model.Team, error) {
	if player.IsZero() {
		return nil, ErrNoCaller
	}
	team, err := tx.Team(teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	if team == nil {
		return nil, ErrTeamNotFound
	}
	// Rosters of deleted teams are frozen.
	if team.Deleted {
		return nil, ErrTeamDeleted
	}
	if !team.RemoveMember(player) {
		return nil, ErrNotInTeam
	}

	team.UpdatedOn = tx.Now()
	if err := tx.PutTeam(team); err != nil {
		return nil, fmt.Errorf("failed to update team: %w", err)
	}
	if err := tx.Emit(model.EventTeamLeft, player, TeamTopic(teamID), team); err != nil {
		return nil, err
	}
	return team, nil
}

// DeleteTeam flags the team deleted. Only its owner may do this.
func (s *TeamService) DeleteTeam(ctx context.Context, teamID uint64, caller model.Address) error {
	return s.ledger.Update(ctx, func(tx Tx) error {
		team, err := tx.Team(teamID)
		if err != nil {
			return fmt.Errorf("failed to get team: %w", err)
		}
		if team == nil {
			return ErrTeamNotFound
		}
		if team.Owner != caller {
			return ErrNotTeamOwner
		}
		if team.Deleted {
			return ErrTeamDeleted
		}

		team.Deleted = true
		team.UpdatedOn = tx.Now()
		if err := tx.PutTeam(team); err != nil {
			return fmt.Errorf("failed to delete team: %w", err)
		}
		return tx.Emit(model.EventTeamDeleted, caller, TeamTopic(teamID), team)
	})
}

// GetTeam returns a team, deleted or not
func (s *TeamService) GetTeam(ctx context.Context, teamID uint64) (*model.Team, error) {
	var team *model.Team
	err := s.ledger.View(ctx, func(tx Tx) error {
		var err error
		team, err = tx.Team(teamID)
		if err != nil {
			return fmt.Errorf("failed to get team: %w", err)
		}
		if team == nil {
			return ErrTeamNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return team, nil
}

// ListTeamsByOwner returns every team the owner created, deleted ones included, in creation order
func (s *TeamService) ListTeamsByOwner(ctx context.Context, owner model.Address) ([]*model.Team, error) {
	var teams []*model.Team
	err := s.ledger.View(ctx, func(tx Tx) error {
		var err error
		teams, err = tx.TeamsByOwner(owner)
		if err != nil {
			return fmt.Errorf("failed to list teams: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return teams, nil
}

// ListTeams returns every team ordered by id
func (s *TeamService) ListTeams(ctx context.Context) ([]*model.Team, error) {
	var teams []*model.Team
	err := s.ledger.View(ctx, func(tx Tx) error {
		var err error
		teams, err = tx.Teams()
		if err != nil {
			return fmt.Errorf("failed to list teams: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return teams, nil
}

// CountActiveTeams returns how many non-deleted teams the owner holds
func (s *TeamService) CountActiveTeams(ctx context.Context, owner model.Address) (int, error) {
	var n int
	err := s.ledger.View(ctx, func(tx Tx) error {
		var err error
		n, err = countActiveTeams(tx, owner)
		return err
	})
	return n, err
}

func countActiveTeams(tx Tx, owner model.Address) (int, error) {
	teams, err := tx.TeamsByOwner(owner)
	if err != nil {
		return 0, fmt.Errorf("failed to count teams: %w", err)
	}
	n := 0
	for _, t := range teams {
		if !t.Deleted {
			n++
		}
	}
	return n, nil
}
