package service

import (
	"context"
	"fmt"

	"github.com/xeonarno/Alyra-blockquest/internal/model"
)

// CertificationService issues diplomas and renders them as certificates.
// Diplomas are never modified or burned.
type CertificationService struct {
	ledger   Ledger
	renderer *CertificateRenderer
	owner    model.Address
	minters  []model.Address
}

// CertificationServiceConfig holds configuration for the certification service
type CertificationServiceConfig struct {
	Ledger   Ledger
	Renderer *CertificateRenderer
	Owner    model.Address
	Minters  []model.Address
}

// NewCertificationService creates a new certification service
func NewCertificationService(cfg CertificationServiceConfig) *CertificationService {
	return &CertificationService{
		ledger:   cfg.Ledger,
		renderer: cfg.Renderer,
		owner:    cfg.Owner,
		minters:  cfg.Minters,
	}
}

// Owner returns the registry owner, zero when none is configured
func (s *CertificationService) Owner() model.Address {
	return s.owner
}

// CanMint reports whether the address is the owner or an authorised minter
func (s *CertificationService) CanMint(addr model.Address) bool {
	if addr.IsZero() {
		return false
	}
	return addr == s.owner || model.ContainsAddress(s.minters, addr)
}

// MintDiploma issues the next diploma to a player. Duplicates are allowed.
func (s *CertificationService) MintDiploma(ctx context.Context, caller model.Address, req *model.MintDiplomaRequest) (*model.Diploma, error) {
	if !s.CanMint(caller) {
		return nil, ErrNotMinter
	}
	if err := validationFailed(req.Validate()); err != nil {
		return nil, err
	}

	var diploma *model.Diploma
	err := s.ledger.Update(ctx, func(tx Tx) error {
		var err error
		diploma, err = s.mint(tx, caller, req.Player, req.TeamID, req.Date)
		return err
	})
	if err != nil {
		return nil, err
	}
	return diploma, nil
}

func (s *CertificationService) mint(tx Tx, caller, player model.Address, teamID uint64, date string) (*model.Diploma, error) {
	if !s.CanMint(caller) {
		return nil, ErrNotMinter
	}
	id, err := tx.NextDiplomaID()
	if err != nil {
		return nil, fmt.Errorf("allocate token id: %w", err)
	}
	diploma := &model.Diploma{
		TokenID:  id,
		Player:   player,
		TeamID:   teamID,
		Date:     date,
		MintedAt: tx.Now(),
	}
	if err := tx.InsertDiploma(diploma); err != nil {
		return nil, fmt.Errorf("failed to mint diploma: %w", err)
	}
	if err := tx.Emit(model.EventDiplomaMinted, caller, PlayerTopic(player), diploma); err != nil {
		return nil, err
	}
	return diploma, nil
}

// GetAllDiplomasOfPlayer returns the player's token ids in mint order
func (s *CertificationService) GetAllDiplomasOfPlayer(ctx context.Context, player model.Address) ([]uint64, error) {
	var ids []uint64
	err := s.ledger.View(ctx, func(tx Tx) error {
		var err error
		ids, err = ownedTokens(tx, player)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// GetDiploma returns a diploma by token id
func (s *CertificationService) GetDiploma(ctx context.Context, tokenID uint64) (*model.Diploma, error) {
	var diploma *model.Diploma
	err := s.ledger.View(ctx, func(tx Tx) error {
		var err error
		diploma, err = loadDiploma(tx, tokenID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return diploma, nil
}

// GetCertificateURI renders the player's index-th diploma
func (s *CertificationService) GetCertificateURI(ctx context.Context, player model.Address, index int) (string, error) {
	var diploma *model.Diploma
	err := s.ledger.View(ctx, func(tx Tx) error {
		id, err := tokenAt(tx, player, index)
		if err != nil {
			return err
		}
		diploma, err = loadDiploma(tx, id)
		return err
	})
	if err != nil {
		return "", err
	}
	return s.renderer.URI(diploma)
}

// GetAllCertificatesOfPlayer renders every diploma the player owns, in mint order
func (s *CertificationService) GetAllCertificatesOfPlayer(ctx context.Context, player model.Address) ([]model.Certificate, error) {
	var diplomas []*model.Diploma
	err := s.ledger.View(ctx, func(tx Tx) error {
		ids, err := ownedTokens(tx, player)
		if err != nil {
			return err
		}
		diplomas = make([]*model.Diploma, 0, len(ids))
		for _, id := range ids {
			d, err := loadDiploma(tx, id)
			if err != nil {
				return err
			}
			diplomas = append(diplomas, d)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	certs := make([]model.Certificate, 0, len(diplomas))
	for _, d := range diplomas {
		uri, err := s.renderer.URI(d)
		if err != nil {
			return nil, err
		}
		certs = append(certs, model.Certificate{TokenID: d.TokenID, URI: uri})
	}
	return certs, nil
}

// BalanceOf returns how many diplomas the player owns
func (s *CertificationService) BalanceOf(ctx context.Context, player model.Address) (int, error) {
	var n int
	err := s.ledger.View(ctx, func(tx Tx) error {
		ids, err := tx.DiplomaIDsOf(player)
		if err != nil {
			return fmt.Errorf("failed to list diplomas: %w", err)
		}
		n = len(ids)
		return nil
	})
	return n, err
}

// TokenOfOwnerByIndex returns the token id of the player's index-th diploma
func (s *CertificationService) TokenOfOwnerByIndex(ctx context.Context, player model.Address, index int) (uint64, error) {
	var id uint64
	err := s.ledger.View(ctx, func(tx Tx) error {
		var err error
		id, err = tokenAt(tx, player, index)
		return err
	})
	return id, err
}

// TokenURI renders a diploma by token id
func (s *CertificationService) TokenURI(ctx context.Context, tokenID uint64) (string, error) {
	diploma, err := s.GetDiploma(ctx, tokenID)
	if err != nil {
		return "", err
	}
	return s.renderer.URI(diploma)
}

func loadDiploma(tx Tx, tokenID uint64) (*model.Diploma, error) {
	d, err := tx.Diploma(tokenID)
	if err != nil {
		return nil, fmt.Errorf("failed to get diploma: %w", err)
	}
	if d == nil {
		return nil, ErrDiplomaNotFound
	}
	return d, nil
}

func ownedTokens(tx Tx, player model.Address) ([]uint64, error) {
	ids, err := tx.DiplomaIDsOf(player)
	if err != nil {
		return nil, fmt.Errorf("failed to list diplomas: %w", err)
	}
	if len(ids) == 0 {
		return nil, ErrNoCertificates
	}
	return ids, nil
}

func tokenAt(tx Tx, player model.Address, index int) (uint64, error) {
	ids, err := tx.DiplomaIDsOf(player)
	if err != nil {
		return 0, fmt.Errorf("failed to list diplomas: %w", err)
	}
	if index < 0 || index >= len(ids) {
		return 0, ErrCertificateIndex
	}
	return ids[index], nil
}
