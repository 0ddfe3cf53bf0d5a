package core

import (
	"fmt"
	"log/slog"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"givechain/config"
	"givechain/core/events"
	"givechain/core/state"
	"givechain/native/access"
	"givechain/native/collectible"
	"givechain/native/donation"
	"givechain/native/project"
	"givechain/native/recurring"
	"givechain/native/rewards"
	"givechain/native/token"
	"givechain/observability"
	"givechain/storage"
)

// Platform wires the native engines around a shared state manager. It is the
// single composition point; engines never reference each other directly.
type Platform struct {
	cfg    *config.Config
	db     storage.Database
	logger *slog.Logger
	state  *state.Manager

	Access       *access.Registry
	Projects     *project.Engine
	Credits      *token.Token
	Collectibles *collectible.Registry
	Rewards      *rewards.Distributor
	Donations    *donation.Ledger
	Recurring    *recurring.Scheduler
}

// NewPlatform assembles the engines from the supplied configuration. The
// owner address controls role grants and fee changes. Persisted state is
// loaded from db when present.
func NewPlatform(cfg *config.Config, owner [20]byte, db storage.Database, logger *slog.Logger) (*Platform, error) {
	if cfg == nil {
		return nil, fmt.Errorf("core: nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	manager := state.NewManager()
	if db != nil {
		if err := manager.Load(db); err != nil {
			return nil, fmt.Errorf("core: load state: %w", err)
		}
	}

	emitter := observability.NewMetricsEmitter(nil, logger)

	registry := access.NewRegistry(owner)
	registry.SetEmitter(emitter)

	projects := project.NewEngine()
	projects.SetState(manager)
	projects.SetAccess(registry)
	projects.SetEmitter(emitter)
	projects.SetTargetBounds(cfg.MinTargetAmount(), cfg.MaxTargetAmount())
	projects.SetCategories(cfg.Categories)
	projects.SetStrictRelease(cfg.StrictRelease)

	credits := token.New("GiveChain Credit", "GIVE", nil)
	credits.SetAccess(registry)
	credits.SetEmitter(emitter)

	collectibles := collectible.NewRegistry(cfg.CollectibleSupply)
	collectibles.SetAccess(registry)
	collectibles.SetEmitter(emitter)

	distributor := rewards.NewDistributor()
	distributor.SetEmitter(emitter)
	distributor.SetCreditMinter(credits)
	distributor.SetCollectibleMinter(collectibles)
	distributor.SetModuleAddress(RewardsModuleAddress)
	distributor.SetCreditRate(new(big.Int).SetUint64(cfg.CreditRate), cfg.CreditUnitAmount())
	distributor.SetCollectibleThreshold(cfg.CollectibleThresholdAmount())
	distributor.SetMetadataBaseURI(cfg.MetadataBaseURI)
	if err := registry.Grant(owner, access.RoleMinter, RewardsModuleAddress); err != nil {
		return nil, fmt.Errorf("core: grant minter role: %w", err)
	}

	ledger := donation.NewLedger()
	ledger.SetState(manager)
	ledger.SetProjectStore(projects)
	ledger.SetRewardDistributor(distributor)
	ledger.AddAuxiliaryStore(credits)
	ledger.AddAuxiliaryStore(collectibles)
	ledger.SetAccess(registry)
	ledger.SetEmitter(emitter)
	ledger.SetTreasury(TreasuryAddress)
	ledger.SetMinDonation(cfg.MinDonationAmount())
	ledger.SetMaxFeeBps(cfg.MaxFeeBps)
	if err := ledger.SetFeeBps(owner, cfg.FeeBps); err != nil {
		return nil, fmt.Errorf("core: set fee: %w", err)
	}

	scheduler := recurring.NewScheduler()
	scheduler.SetState(manager)
	scheduler.SetLedger(ledger)
	scheduler.SetAccess(registry)
	scheduler.SetEmitter(emitter)
	scheduler.SetMinDonation(cfg.MinDonationAmount())
	scheduler.SetMinFrequency(cfg.MinFrequencySeconds)
	scheduler.SetMaxIntents(cfg.MaxIntentsPerDonor)

	return &Platform{
		cfg:          cfg,
		db:           db,
		logger:       logger,
		state:        manager,
		Access:       registry,
		Projects:     projects,
		Credits:      credits,
		Collectibles: collectibles,
		Rewards:      distributor,
		Donations:    ledger,
		Recurring:    scheduler,
	}, nil
}

// State exposes the shared state manager, primarily for inspection.
func (p *Platform) State() *state.Manager { return p.state }

// Commit flushes the current state to the backing database. It is a no-op
// when the platform was constructed without one.
func (p *Platform) Commit() error {
	if p.db == nil {
		return nil
	}
	return p.state.Commit(p.db)
}

// SetEmitter rewires every engine to the supplied emitter. Used by tests to
// capture events without the metrics layer.
func (p *Platform) SetEmitter(emitter events.Emitter) {
	p.Access.SetEmitter(emitter)
	p.Projects.SetEmitter(emitter)
	p.Credits.SetEmitter(emitter)
	p.Collectibles.SetEmitter(emitter)
	p.Rewards.SetEmitter(emitter)
	p.Donations.SetEmitter(emitter)
	p.Recurring.SetEmitter(emitter)
}

// Module addresses are derived from fixed labels so they stay stable across
// deployments and cannot collide with user keys.
var (
	RewardsModuleAddress = moduleAddress("givechain/module/rewards")
	TreasuryAddress      = moduleAddress("givechain/module/treasury")
)

func moduleAddress(label string) [20]byte {
	var addr [20]byte
	digest := ethcrypto.Keccak256([]byte(label))
	copy(addr[:], digest[12:])
	return addr
}
