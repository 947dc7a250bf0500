// Package service implements the BlockQuest business rules: the team
// directory, player registry, session ledger, game master facade and the
// certification registry.
//
// # Service Pattern
//
// Every service is built from a config struct:
//
//	teams := NewTeamService(TeamServiceConfig{Ledger: ledger})
//	players := NewPlayerService(PlayerServiceConfig{Ledger: ledger, TeamService: teams})
//
// Operations take the caller address explicitly and run inside one ledger
// transaction. Cross-component flows (joinTeam, startGame, completeGame) run
// in the caller's transaction, so a failure anywhere leaves no partial state.
//
// # Ledger
//
// Services depend on the Ledger and Tx interfaces only. The repository
// package provides the implementation:
//
//	ledger := service.LedgerFrom[*repository.Tx](store)
//
// # Error Handling
//
// Every error wraps one kind (ErrUnauthorized, ErrNotFound, ErrInvalidState
// and so on). Branch on the kind and show Error() verbatim:
//
//	if errors.Is(err, service.ErrUnauthorized) {
//	    // 403
//	}
package service
