// internal/service/policy.go
package service

import "taskpay-engine/internal/domain"

// transferPolicy is the fixed adjacency map governing which sub-balance may
// fund which other sub-balance. It is loaded once and immutable at runtime;
// legality of a transfer is a pure lookup, decoupled from any presentation
// concern. An absent or empty entry means the balance has no legal
// destination.
var transferPolicy = map[domain.BalanceName][]domain.BalanceName{
	domain.BalanceMain:       {domain.BalanceDeposit, domain.BalanceGame},
	domain.BalanceDeposit:    {domain.BalanceGame, domain.BalanceInvestment},
	domain.BalanceGame:       {domain.BalanceMain},
	domain.BalanceEarning:    {domain.BalanceMain, domain.BalanceDeposit},
	domain.BalanceInvestment: {},
	domain.BalanceReferral:   {domain.BalanceMain},
	domain.BalanceCommission: {domain.BalanceMain, domain.BalanceDeposit},
	domain.BalanceBonus:      {},
}

// CanTransfer reports whether policy permits moving value from one named
// balance to another.
func CanTransfer(from, to domain.BalanceName) bool {
	for _, dest := range transferPolicy[from] {
		if dest == to {
			return true
		}
	}
	return false
}

// AllowedDestinations returns a copy of the legal destinations for a source
// balance.
func AllowedDestinations(from domain.BalanceName) []domain.BalanceName {
	dests := transferPolicy[from]
	out := make([]domain.BalanceName, len(dests))
	copy(out, dests)
	return out
}
