package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/xeonarno/Alyra-blockquest/internal/model"
	"github.com/xeonarno/Alyra-blockquest/internal/service/dice"
)

// SessionService runs the lifecycle of paid game sessions: fees, monsters,
// dice, chat and termination
type SessionService struct {
	ledger Ledger
	dice   dice.Source
}

// SessionServiceConfig holds configuration for the session service
type SessionServiceConfig struct {
	Ledger Ledger
	Dice   dice.Source
}

// NewSessionService creates a new session service
func NewSessionService(cfg SessionServiceConfig) *SessionService {
	return &SessionService{
		ledger: cfg.Ledger,
		dice:   cfg.Dice,
	}
}

func loadSession(tx Tx, id uint64) (*model.Session, error) {
	session, err := tx.Session(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// mutate loads the session, applies fn and stages the result
func (s *SessionService) mutate(ctx context.Context, id uint64, fn func(tx Tx, session *model.Session) error) (*model.Session, error) {
	var session *model.Session
	err := s.ledger.Update(ctx, func(tx Tx) error {
		var err error
		session, err = loadSession(tx, id)
		if err != nil {
			return err
		}
		if err := fn(tx, session); err != nil {
			return err
		}
		if err := tx.PutSession(session); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *SessionService) read(ctx context.Context, id uint64, fn func(session *model.Session) error) error {
	return s.ledger.View(ctx, func(tx Tx) error {
		session, err := loadSession(tx, id)
		if err != nil {
			return err
		}
		return fn(session)
	})
}

// startSession opens a session for the team with its current roster as allow-list
func startSession(tx Tx, gm model.Address, team *model.Team, fee model.Wei) (*model.Session, error) {
	id, err := tx.NextSessionID()
	if err != nil {
		return nil, fmt.Errorf("allocate session id: %w", err)
	}

	allow := make([]model.Address, len(team.Members))
	copy(allow, team.Members)

	session := &model.Session{
		ID:         id,
		TeamID:     team.ID,
		GameMaster: gm,
		AllowList:  allow,
		Paid:       []model.Address{},
		Fee:        fee,
		Escrow:     model.NewWei(0),
		Active:     true,
		StartTime:  tx.Now(),
		Monsters:   []*model.Monster{},
		Messages:   []model.Message{},
	}
	if err := tx.PutSession(session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	if err := tx.Emit(model.EventSessionStarted, gm, SessionTopic(id), session); err != nil {
		return nil, err
	}
	return session, nil
}

// endSession closes the session. Only its game master may do this.
func endSession(tx Tx, session *model.Session, caller model.Address) error {
	if caller != session.GameMaster {
		return ErrNotGameMaster
	}
	if !session.Active {
		return ErrSessionEnded
	}
	now := tx.Now()
	session.Active = false
	session.EndTime = &now
	return tx.Emit(model.EventSessionEnded, caller, SessionTopic(session.ID), session)
}

// PayFee records the caller's payment into the session escrow
func (s *SessionService) PayFee(ctx context.Context, sessionID uint64, caller model.Address, req *model.PayFeeRequest) (*model.Session, error) {
	if err := validationFailed(req.Validate()); err != nil {
		return nil, err
	}
	value, err := model.ParseWei(req.Value)
	if err != nil {
		return nil, fieldError("value", "value must be a non-negative integer amount of wei")
	}

	return s.mutate(ctx, sessionID, func(tx Tx, session *model.Session) error {
		if !session.Active {
			return ErrSessionEnded
		}
		if !session.IsAllowed(caller) {
			return ErrNotAllowedPlayer
		}
		if session.HasPaid(caller) {
			return ErrFeeAlreadyPaid
		}
		if value.Cmp(session.Fee) < 0 {
			return ErrInsufficientFee
		}

		session.Escrow = session.Escrow.Add(value)
		session.Paid = append(session.Paid, caller)
		return tx.Emit(model.EventFeePaid, caller, SessionTopic(sessionID), map[string]interface{}{
			"session_id": sessionID,
			"player":     caller,
			"value":      value,
			"escrow":     session.Escrow,
		})
	})
}

// RollDice rolls a die for the game master or a paid player
func (s *SessionService) RollDice(ctx context.Context, sessionID uint64, caller model.Address, req *model.RollDiceRequest) (*model.DiceRoll, error) {
	if err := validationFailed(req.Validate()); err != nil {
		return nil, err
	}

	var roll *model.DiceRoll
	err := s.ledger.Update(ctx, func(tx Tx) error {
		session, err := loadSession(tx, sessionID)
		if err != nil {
			return err
		}
		if !session.Active {
			return ErrSessionEnded
		}
		if !session.RoleOf(caller).CanParticipate() {
			return ErrNotParticipant
		}

		value, err := s.dice.Roll(req.Sides)
		if errors.Is(err, dice.ErrInvalidSides) {
			return fieldError("sides", err.Error())
		}
		if err != nil {
			return fmt.Errorf("roll dice: %w", err)
		}

		roll = &model.DiceRoll{SessionID: sessionID, Roller: caller, Sides: req.Sides, Value: value}
		return tx.Emit(model.EventDiceRolled, caller, SessionTopic(sessionID), roll)
	})
	if err != nil {
		return nil, err
	}
	return roll, nil
}

// AddMonster registers a monster in the next free slot. The slot index is its id.
func (s *SessionService) AddMonster(ctx context.Context, sessionID uint64, caller model.Address, req *model.AddMonsterRequest) (*model.Monster, error) {
	var monster *model.Monster
	_, err := s.mutate(ctx, sessionID, func(tx Tx, session *model.Session) error {
		if caller != session.GameMaster {
			return ErrNotGameMaster
		}
		if !session.Active {
			return ErrSessionEnded
		}
		if err := validationFailed(req.Validate()); err != nil {
			return err
		}

		m := req.ToMonster()
		m.ID = uint64(len(session.Monsters))
		session.Monsters = append(session.Monsters, &m)
		monster = &m
		return tx.Emit(model.EventMonsterAdded, caller, SessionTopic(sessionID), monster)
	})
	if err != nil {
		return nil, err
	}
	return monster, nil
}

// KillMonster vacates the monster's slot and credits its gold to the session
func (s *SessionService) KillMonster(ctx context.Context, sessionID uint64, caller model.Address, monsterID uint64) (*model.Session, error) {
	return s.mutate(ctx, sessionID, func(tx Tx, session *model.Session) error {
		m, err := takeMonster(session, caller, monsterID, func(m *model.Monster) error {
			if session.MonstersKilled == math.MaxUint64 {
				return ErrKillCountOverflow
			}
			if m.GoldReward > math.MaxUint64-session.TotalGold {
				return ErrGoldOverflow
			}
			return nil
		})
		if err != nil {
			return err
		}
		session.MonstersKilled++
		session.TotalGold += m.GoldReward
		return tx.Emit(model.EventMonsterKilled, caller, SessionTopic(sessionID), m)
	})
}

// RemoveMonster vacates the monster's slot without touching the kill and gold counters
func (s *SessionService) RemoveMonster(ctx context.Context, sessionID uint64, caller model.Address, monsterID uint64) (*model.Session, error) {
	return s.mutate(ctx, sessionID, func(tx Tx, session *model.Session) error {
		m, err := takeMonster(session, caller, monsterID, nil)
		if err != nil {
			return err
		}
		return tx.Emit(model.EventMonsterRemoved, caller, SessionTopic(sessionID), m)
	})
}

// takeMonster vacates slot id once check, if any, accepts the monster.
// Vacated slots are never reused.
func takeMonster(session *model.Session, caller model.Address, id uint64, check func(*model.Monster) error) (*model.Monster, error) {
	if caller != session.GameMaster {
		return nil, ErrNotGameMaster
	}
	if !session.Active {
		return nil, ErrSessionEnded
	}
	m := session.Monster(id)
	if m == nil {
		return nil, ErrMonsterNotFound
	}
	if check != nil {
		if err := check(m); err != nil {
			return nil, err
		}
	}
	session.Monsters[id] = nil
	return m, nil
}

// SendMessage appends to the session chat log
func (s *SessionService) SendMessage(ctx context.Context, sessionID uint64, caller model.Address, req *model.SendMessageRequest) (*model.Message, error) {
	var msg *model.Message
	_, err := s.mutate(ctx, sessionID, func(tx Tx, session *model.Session) error {
		if !session.Active {
			return ErrSessionEnded
		}
		if !session.RoleOf(caller).CanParticipate() {
			return ErrNotParticipant
		}
		if err := validationFailed(req.Validate()); err != nil {
			return err
		}

		msg = &model.Message{Sender: caller, Text: req.Text, SentAt: tx.Now()}
		session.Messages = append(session.Messages, *msg)
		return tx.Emit(model.EventMessageSent, caller, SessionTopic(sessionID), msg)
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// EndSession closes the session for good
func (s *SessionService) EndSession(ctx context.Context, sessionID uint64, caller model.Address) (*model.Session, error) {
	return s.mutate(ctx, sessionID, func(tx Tx, session *model.Session) error {
		return endSession(tx, session, caller)
	})
}

// GetSession returns the session with its live monster count
func (s *SessionService) GetSession(ctx context.Context, sessionID uint64) (*model.SessionSummary, error) {
	var summary *model.SessionSummary
	err := s.read(ctx, sessionID, func(session *model.Session) error {
		summary = &model.SessionSummary{Session: session, MonsterCount: session.MonsterCount()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// GetMonsterCount returns the number of monsters still in play
func (s *SessionService) GetMonsterCount(ctx context.Context, sessionID uint64) (int, error) {
	var n int
	err := s.read(ctx, sessionID, func(session *model.Session) error {
		n = session.MonsterCount()
		return nil
	})
	return n, err
}

// GetMonsters returns the monsters still in play in slot order
func (s *SessionService) GetMonsters(ctx context.Context, sessionID uint64) ([]model.Monster, error) {
	var monsters []model.Monster
	err := s.read(ctx, sessionID, func(session *model.Session) error {
		monsters = session.LiveMonsters()
		return nil
	})
	return monsters, err
}

func (s *SessionService) GetMonstersKilled(ctx context.Context, sessionID uint64) (uint64, error) {
	var n uint64
	err := s.read(ctx, sessionID, func(session *model.Session) error {
		n = session.MonstersKilled
		return nil
	})
	return n, err
}

func (s *SessionService) GetTotalGold(ctx context.Context, sessionID uint64) (uint64, error) {
	var n uint64
	err := s.read(ctx, sessionID, func(session *model.Session) error {
		n = session.TotalGold
		return nil
	})
	return n, err
}

func (s *SessionService) GetStartTime(ctx context.Context, sessionID uint64) (time.Time, error) {
	var t time.Time
	err := s.read(ctx, sessionID, func(session *model.Session) error {
		t = session.StartTime
		return nil
	})
	return t, err
}

// GetEndTime returns nil while the session is active
func (s *SessionService) GetEndTime(ctx context.Context, sessionID uint64) (*time.Time, error) {
	var t *time.Time
	err := s.read(ctx, sessionID, func(session *model.Session) error {
		t = session.EndTime
		return nil
	})
	return t, err
}

// GetTotalPlayTime returns end minus start. It fails until the session has ended.
func (s *SessionService) GetTotalPlayTime(ctx context.Context, sessionID uint64) (time.Duration, error) {
	var d time.Duration
	err := s.read(ctx, sessionID, func(session *model.Session) error {
		var ok bool
		d, ok = session.PlayTime()
		if !ok {
			return ErrSessionStillActive
		}
		return nil
	})
	return d, err
}

func (s *SessionService) IsActive(ctx context.Context, sessionID uint64) (bool, error) {
	var active bool
	err := s.read(ctx, sessionID, func(session *model.Session) error {
		active = session.Active
		return nil
	})
	return active, err
}

// IsActivePlayer reports whether the address has paid into the session
func (s *SessionService) IsActivePlayer(ctx context.Context, sessionID uint64, addr model.Address) (bool, error) {
	var paid bool
	err := s.read(ctx, sessionID, func(session *model.Session) error {
		paid = session.HasPaid(addr)
		return nil
	})
	return paid, err
}

// GetPaidPlayers returns the paid players in payment order
func (s *SessionService) GetPaidPlayers(ctx context.Context, sessionID uint64) ([]model.Address, error) {
	var paid []model.Address
	err := s.read(ctx, sessionID, func(session *model.Session) error {
		paid = session.Paid
		return nil
	})
	return paid, err
}

func (s *SessionService) GetMessages(ctx context.Context, sessionID uint64) ([]model.Message, error) {
	var msgs []model.Message
	err := s.read(ctx, sessionID, func(session *model.Session) error {
		msgs = session.Messages
		return nil
	})
	return msgs, err
}

// GetEscrow returns the total fees collected
func (s *SessionService) GetEscrow(ctx context.Context, sessionID uint64) (model.Wei, error) {
	var escrow model.Wei
	err := s.read(ctx, sessionID, func(session *model.Session) error {
		escrow = session.Escrow
		return nil
	})
	return escrow, err
}
