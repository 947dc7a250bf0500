package service

import (
	"context"
	"fmt"
	"math"

	"github.com/xeonarno/Alyra-blockquest/internal/model"
)

// diplomaDateLayout is the issuance label CompleteGame stamps on diplomas
const diplomaDateLayout = "2006-01-02"

// GameMasterService is the facade game masters drive: profiles, team
// creation, session kickoff and completion
type GameMasterService struct {
	ledger Ledger
	teams  *TeamService
	certs  *CertificationService
	minter model.Address
}

// GameMasterServiceConfig holds configuration for the game master service
type GameMasterServiceConfig struct {
	Ledger               Ledger
	TeamService          *TeamService
	CertificationService *CertificationService
	// MinterAddress is the identity the facade mints diplomas under. It must
	// be an authorised minter of the certification service.
	MinterAddress model.Address
}

// NewGameMasterService creates a new game master service
func NewGameMasterService(cfg GameMasterServiceConfig) *GameMasterService {
	return &GameMasterService{
		ledger: cfg.Ledger,
		teams:  cfg.TeamService,
		certs:  cfg.CertificationService,
		minter: cfg.MinterAddress,
	}
}

// CreateGM registers the caller as a game master
func (s *GameMasterService) CreateGM(ctx context.Context, caller model.Address, req *model.CreateGMRequest) (*model.GameMaster, error) {
	if caller.IsZero() {
		return nil, ErrNoCaller
	}

	var gm *model.GameMaster
	err := s.ledger.Update(ctx, func(tx Tx) error {
		existing, err := tx.GameMaster(caller)
		if err != nil {
			return fmt.Errorf("failed to get game master: %w", err)
		}
		if existing != nil {
			return ErrGMAlreadyExists
		}
		if err := validationFailed(req.Validate()); err != nil {
			return err
		}

		gm = &model.GameMaster{
			Address:     caller,
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			Image:       req.Image,
			Description: req.Description,
			CreatedOn:   tx.Now(),
		}
		if err := tx.PutGameMaster(gm); err != nil {
			return fmt.Errorf("failed to create game master: %w", err)
		}
		return tx.Emit(model.EventGMCreated, caller, PlayerTopic(caller), gm)
	})
	if err != nil {
		return nil, err
	}
	return gm, nil
}

// GetGM returns a game master profile
func (s *GameMasterService) GetGM(ctx context.Context, addr model.Address) (*model.GameMaster, error) {
	var gm *model.GameMaster
	err := s.ledger.View(ctx, func(tx Tx) error {
		var err error
		gm, err = tx.GameMaster(addr)
		if err != nil {
			return fmt.Errorf("failed to get game master: %w", err)
		}
		if gm == nil {
			return ErrGMNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return gm, nil
}

// CreateTeam creates a team owned by the calling game master
func (s *GameMasterService) CreateTeam(ctx context.Context, caller model.Address, req *model.CreateTeamRequest) (*model.Team, error) {
	var team *model.Team
	err := s.ledger.Update(ctx, func(tx Tx) error {
		if err := requireGM(tx, caller); err != nil {
			return err
		}
		var err error
		team, err = s.teams.createTeam(tx, caller, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return team, nil
}

// StartGame opens a session for the team, snapshotting its roster as the allow-list
func (s *GameMasterService) StartGame(ctx context.Context, caller model.Address, teamID uint64, req *model.StartGameRequest) (*model.Session, error) {
	if err := validationFailed(req.Validate()); err != nil {
		return nil, err
	}
	fee, err := model.ParseWei(req.Fee)
	if err != nil {
		return nil, fieldError("fee", "fee must be a non-negative integer amount of wei")
	}

	var session *model.Session
	err = s.ledger.Update(ctx, func(tx Tx) error {
		team, err := tx.Team(teamID)
		if err != nil {
			return fmt.Errorf("failed to get team: %w", err)
		}
		if team == nil {
			return ErrTeamNotFound
		}
		if team.Deleted {
			return ErrTeamDeleted
		}
		if team.Owner != caller {
			return ErrNotTeamGM
		}
		if team.SessionID != 0 {
			current, err := tx.Session(team.SessionID)
			if err != nil {
				return fmt.Errorf("failed to get session: %w", err)
			}
			if current != nil && current.Active {
				return ErrTeamSessionActive
			}
		}

		session, err = startSession(tx, caller, team, fee)
		if err != nil {
			return err
		}

		team.SessionID = session.ID
		team.UpdatedOn = tx.Now()
		if err := tx.PutTeam(team); err != nil {
			return fmt.Errorf("failed to bind session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// CompleteGame ends the session, levels up every paid player's character and
// mints one diploma each, all in one transaction. It returns the minted token
// ids in payment order.
func (s *GameMasterService) CompleteGame(ctx context.Context, caller model.Address, sessionID uint64) ([]uint64, error) {
	var tokenIDs []uint64
	err := s.ledger.Update(ctx, func(tx Tx) error {
		session, err := loadSession(tx, sessionID)
		if err != nil {
			return err
		}
		if err := endSession(tx, session, caller); err != nil {
			return err
		}
		if err := tx.PutSession(session); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}

		date := session.EndTime.Format(diplomaDateLayout)
		tokenIDs = make([]uint64, 0, len(session.Paid))
		for _, player := range session.Paid {
			if err := levelUp(tx, player); err != nil {
				return err
			}
			d, err := s.certs.mint(tx, s.minter, player, session.TeamID, date)
			if err != nil {
				return err
			}
			tokenIDs = append(tokenIDs, d.TokenID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tokenIDs, nil
}

func levelUp(tx Tx, addr model.Address) error {
	player, err := loadOrNewPlayer(tx, addr)
	if err != nil {
		return err
	}
	if player.Character.Level < math.MaxUint32 {
		player.Character.Level++
	}
	player.UpdatedOn = tx.Now()
	if err := tx.PutPlayer(player); err != nil {
		return fmt.Errorf("failed to save player: %w", err)
	}
	return nil
}

func requireGM(tx Tx, caller model.Address) error {
	if caller.IsZero() {
		return ErrNoCaller
	}
	gm, err := tx.GameMaster(caller)
	if err != nil {
		return fmt.Errorf("failed to get game master: %w", err)
	}
	if gm == nil {
		return ErrNotGM
	}
	return nil
}
