package state

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"

	"givechain/core/types"
	"givechain/native/donation"
	"givechain/native/project"
	"givechain/native/recurring"
	"givechain/storage"
)

var stateKey = []byte("givechain/state")

// persistedState is the JSON layout written to the key-value store. Map keys
// are decimal identifiers or hex-encoded addresses because JSON objects only
// take string keys.
type persistedState struct {
	ProjectSeq   uint64                           `json:"projectSeq"`
	DonationSeq  uint64                           `json:"donationSeq"`
	Projects     map[string]*project.Project      `json:"projects"`
	Escrow       map[string]*big.Int              `json:"escrow"`
	DonorFunding map[string]uint64                `json:"donorFunding"`
	Donations    map[string]*donation.Donation    `json:"donations"`
	Stats        map[string]*donation.UserStats   `json:"stats"`
	Intents      map[string][]*recurring.Intent   `json:"intents"`
	Accounts     map[string]*types.Account        `json:"accounts"`
}

// Commit serialises the full manager state into the database under a single
// key. It is called at operation boundaries, never mid-transaction.
func (m *Manager) Commit(db storage.Database) error {
	if db == nil {
		return fmt.Errorf("state: nil database")
	}
	out := &persistedState{
		ProjectSeq:   m.projectSeq.Last(),
		DonationSeq:  m.donationSeq.Last(),
		Projects:     make(map[string]*project.Project, len(m.projects)),
		Escrow:       make(map[string]*big.Int, len(m.escrow)),
		DonorFunding: make(map[string]uint64, len(m.donorFunding)),
		Donations:    make(map[string]*donation.Donation, len(m.donations)),
		Stats:        make(map[string]*donation.UserStats, len(m.stats)),
		Intents:      make(map[string][]*recurring.Intent, len(m.intents)),
		Accounts:     make(map[string]*types.Account, len(m.accounts)),
	}
	for id, p := range m.projects {
		out.Projects[strconv.FormatUint(id, 10)] = p
	}
	for id, bal := range m.escrow {
		out.Escrow[strconv.FormatUint(id, 10)] = bal
	}
	for addr, count := range m.donorFunding {
		out.DonorFunding[hex.EncodeToString(addr[:])] = count
	}
	for id, d := range m.donations {
		out.Donations[strconv.FormatUint(id, 10)] = d
	}
	for addr, s := range m.stats {
		out.Stats[hex.EncodeToString(addr[:])] = s
	}
	for addr, list := range m.intents {
		out.Intents[hex.EncodeToString(addr[:])] = list
	}
	for addr, acc := range m.accounts {
		out.Accounts[hex.EncodeToString(addr[:])] = acc
	}
	data, err := json.Marshal(out)
	if err != nil {
		return err
	}
	return db.Put(stateKey, data)
}

// Load replaces the manager state with the snapshot stored in the database.
// A database without stored state leaves the manager empty.
func (m *Manager) Load(db storage.Database) error {
	if db == nil {
		return fmt.Errorf("state: nil database")
	}
	ok, err := db.Has(stateKey)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	data, err := db.Get(stateKey)
	if err != nil {
		return err
	}
	in := new(persistedState)
	if err := json.Unmarshal(data, in); err != nil {
		return err
	}
	restored := NewManager()
	restored.projectSeq = Sequence{last: in.ProjectSeq}
	restored.donationSeq = Sequence{last: in.DonationSeq}
	for key, p := range in.Projects {
		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			return fmt.Errorf("state: bad project key %q: %w", key, err)
		}
		restored.projects[id] = p
	}
	for key, bal := range in.Escrow {
		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			return fmt.Errorf("state: bad escrow key %q: %w", key, err)
		}
		restored.escrow[id] = bal
	}
	for key, count := range in.DonorFunding {
		addr, err := decodeAddr(key)
		if err != nil {
			return err
		}
		restored.donorFunding[addr] = count
	}
	for key, d := range in.Donations {
		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			return fmt.Errorf("state: bad donation key %q: %w", key, err)
		}
		restored.donations[id] = d
	}
	for key, s := range in.Stats {
		addr, err := decodeAddr(key)
		if err != nil {
			return err
		}
		restored.stats[addr] = s
	}
	for key, list := range in.Intents {
		addr, err := decodeAddr(key)
		if err != nil {
			return err
		}
		restored.intents[addr] = list
	}
	for key, acc := range in.Accounts {
		addr, err := decodeAddr(key)
		if err != nil {
			return err
		}
		restored.accounts[addr] = acc
	}
	*m = *restored
	return nil
}

func decodeAddr(key string) ([20]byte, error) {
	var addr [20]byte
	raw, err := hex.DecodeString(key)
	if err != nil || len(raw) != len(addr) {
		return addr, fmt.Errorf("state: bad address key %q", key)
	}
	copy(addr[:], raw)
	return addr, nil
}
