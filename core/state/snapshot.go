package state

import (
	"math/big"

	"givechain/core/types"
	"givechain/native/donation"
	"givechain/native/project"
	"givechain/native/recurring"
)

// managerState is a deep copy of every mutable collection the manager owns,
// including the sequence counters. Reverting restores identifiers as well,
// which keeps the "never reused" property: a rolled-back allocation never
// reached any caller.
type managerState struct {
	projectSeq   Sequence
	donationSeq  Sequence
	projects     map[uint64]*project.Project
	escrow       map[uint64]*big.Int
	donorFunding map[[20]byte]uint64
	donations    map[uint64]*donation.Donation
	stats        map[[20]byte]*donation.UserStats
	intents      map[[20]byte][]*recurring.Intent
	accounts     map[[20]byte]*types.Account
}

func (m *Manager) copyState() *managerState {
	snap := &managerState{
		projectSeq:   m.projectSeq,
		donationSeq:  m.donationSeq,
		projects:     make(map[uint64]*project.Project, len(m.projects)),
		escrow:       make(map[uint64]*big.Int, len(m.escrow)),
		donorFunding: make(map[[20]byte]uint64, len(m.donorFunding)),
		donations:    make(map[uint64]*donation.Donation, len(m.donations)),
		stats:        make(map[[20]byte]*donation.UserStats, len(m.stats)),
		intents:      make(map[[20]byte][]*recurring.Intent, len(m.intents)),
		accounts:     make(map[[20]byte]*types.Account, len(m.accounts)),
	}
	for id, p := range m.projects {
		snap.projects[id] = p.Clone()
	}
	for id, bal := range m.escrow {
		snap.escrow[id] = new(big.Int).Set(bal)
	}
	for addr, count := range m.donorFunding {
		snap.donorFunding[addr] = count
	}
	for id, d := range m.donations {
		snap.donations[id] = d.Clone()
	}
	for addr, s := range m.stats {
		snap.stats[addr] = s.Clone()
	}
	for addr, list := range m.intents {
		cloned := make([]*recurring.Intent, len(list))
		for i, intent := range list {
			cloned[i] = intent.Clone()
		}
		snap.intents[addr] = cloned
	}
	for addr, acc := range m.accounts {
		snap.accounts[addr] = acc.Clone()
	}
	return snap
}

func (m *Manager) restoreState(snap *managerState) {
	if snap == nil {
		return
	}
	m.projectSeq = snap.projectSeq
	m.donationSeq = snap.donationSeq
	m.projects = snap.projects
	m.escrow = snap.escrow
	m.donorFunding = snap.donorFunding
	m.donations = snap.donations
	m.stats = snap.stats
	m.intents = snap.intents
	m.accounts = snap.accounts
}
