package manager

import (
	"encoding/hex"
	"log/slog"
	"time"

	"nttcore/aggregator"
	"nttcore/aggregator/rbac"
	"nttcore/core/events"
	"nttcore/core/nerrors"
	"nttcore/observability/logging"
	"nttcore/ratelimiter"
	"nttcore/storage"
)

// Manager is the transfer manager engine. It is the component an
// integrator calls to send value cross-chain and the one that credits
// the recipient once an inbound message clears the aggregator's
// threshold. It never holds bucket or attestation state itself; it
// delegates those to the rate limiter and aggregator it is wired to.
type Manager struct {
	store       storage.Storage
	emitter     events.Emitter
	now         func() time.Time
	roles       *rbac.Store
	logger      *slog.Logger
	rateLimiter *ratelimiter.RateLimiter
	aggregator  *aggregator.Aggregator
	tokens      TokenAuthority
	fees        FeeAccount
}

// AdminRole derives the RBAC role that governs peer registration,
// pausing and aggregator migration for this manager's namespace.
func AdminRole(handlerID [32]byte) rbac.Role {
	var r rbac.Role
	copy(r[:], append([]byte("manager-admin:"), handlerID[:]...))
	return r
}

// New returns a Manager with no collaborators bound. Callers must call
// SetState, SetRoles, SetRateLimiter, SetAggregatorEngine and
// SetTokenAuthority before use.
func New() *Manager {
	return &Manager{
		emitter: events.NoopEmitter{},
		now:     time.Now,
		logger:  slog.Default(),
	}
}

func (m *Manager) SetState(s storage.Storage)                { m.store = s }
func (m *Manager) SetRoles(r *rbac.Store)                     { m.roles = r }
func (m *Manager) SetRateLimiter(rl *ratelimiter.RateLimiter) { m.rateLimiter = rl }
func (m *Manager) SetAggregatorEngine(a *aggregator.Aggregator) { m.aggregator = a }
func (m *Manager) SetTokenAuthority(t TokenAuthority)         { m.tokens = t }
func (m *Manager) SetFeeAccount(f FeeAccount)                 { m.fees = f }

// SetEmitter overrides the event sink.
func (m *Manager) SetEmitter(e events.Emitter) {
	if e == nil {
		e = events.NoopEmitter{}
	}
	m.emitter = e
}

// SetClock overrides the time source.
func (m *Manager) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	m.now = now
}

// SetLogger overrides the structured logger used for transfer and mint
// lifecycle events. A nil logger falls back to slog.Default().
func (m *Manager) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	m.logger = l
}

// Initialise bootstraps the manager's own config record: its local
// chain id, local token decimals, the aggregator handler id it sends
// and receives under, and its initial admin. It also bootstraps an
// unlimited outbound bucket, mirroring the zero-rate-limit bucket the
// rate limiter is seeded with ahead of any explicit SetRateLimit call on
// the outbound bucket.
func (m *Manager) Initialise(localChain ChainID, localDecimals uint8, handlerID [32]byte, admin [32]byte) error {
	if _, err := m.loadConfig(); err == nil {
		return nerrors.ErrAlreadyInitialised
	} else if err != nerrors.ErrUninitialised {
		return err
	}
	cfg := &managerConfig{
		LocalChain:    localChain,
		LocalDecimals: localDecimals,
		HandlerID:     handlerID,
		Admin:         admin,
	}
	if err := m.saveConfig(cfg); err != nil {
		return err
	}
	m.roles.Grant(AdminRole(handlerID), admin)
	outboundID := ratelimiter.OutboundBucketID()
	if err := m.rateLimiter.AddBucket(outboundID, nil, 0); err != nil {
		return err
	}
	return nil
}

func (m *Manager) loadConfig() (*managerConfig, error) {
	var cfg managerConfig
	ok, err := m.store.KVGet(configKey, &cfg)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nerrors.ErrUninitialised
	}
	return &cfg, nil
}

func (m *Manager) saveConfig(cfg *managerConfig) error {
	return m.store.KVPut(configKey, cfg)
}

// RegisterPeer adds or updates the peer registry entry for chain.
// Decimals must be configured once per peer and are trusted as
// authoritative: the manager never queries the remote chain itself.
func (m *Manager) RegisterPeer(caller [32]byte, chain ChainID, contract [32]byte, decimals uint8) error {
	cfg, err := m.loadConfig()
	if err != nil {
		return err
	}
	if err := m.roles.RequireRole(AdminRole(cfg.HandlerID), caller); err != nil {
		return err
	}
	if chain == cfg.LocalChain || chain == 0 {
		return nerrors.ErrPeerCannotBeSelf
	}
	if contract == [32]byte{} {
		return nerrors.ErrPeerContractZero
	}
	if decimals == 0 || decimals > 18 {
		return nerrors.ErrPeerDecimalsInvalid
	}
	var existing PeerConfig
	found, err := m.store.KVGet(peerKey(chain), &existing)
	if err != nil {
		return err
	}
	peer := &PeerConfig{Contract: contract, Decimals: decimals}
	if err := m.store.KVPut(peerKey(chain), peer); err != nil {
		return err
	}
	if !found {
		inboundID := ratelimiter.InboundBucketID(uint16(chain))
		if err := m.rateLimiter.AddBucket(inboundID, nil, 0); err != nil {
			return err
		}
	}
	m.emitter.Emit(events.Wrap(events.NewNttManagerPeerSetEvent(uint16(chain), contract, decimals, !found)))
	return nil
}

func (m *Manager) loadPeer(chain ChainID) (*PeerConfig, error) {
	var peer PeerConfig
	ok, err := m.store.KVGet(peerKey(chain), &peer)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nerrors.ErrUnknownPeerChain
	}
	return &peer, nil
}

// Pause rejects every user-facing operation — Transfer, ExecuteMessage,
// CompleteOutboundQueued, CancelOutboundQueued and CompleteInboundQueued —
// until Unpause is called. Admin operations such as RegisterPeer and
// SetAggregator are unaffected.
func (m *Manager) Pause(caller [32]byte) error {
	cfg, err := m.loadConfig()
	if err != nil {
		return err
	}
	if err := m.roles.RequireRole(AdminRole(cfg.HandlerID), caller); err != nil {
		return err
	}
	if cfg.Paused {
		return nerrors.ErrAlreadyPaused
	}
	cfg.Paused = true
	if err := m.saveConfig(cfg); err != nil {
		return err
	}
	m.logger.Warn("manager paused", logging.MaskField("handlerId", hex.EncodeToString(cfg.HandlerID[:])))
	m.emitter.Emit(events.Wrap(events.NewPausedEvent(true)))
	return nil
}

// Unpause resumes the manager.
func (m *Manager) Unpause(caller [32]byte) error {
	cfg, err := m.loadConfig()
	if err != nil {
		return err
	}
	if err := m.roles.RequireRole(AdminRole(cfg.HandlerID), caller); err != nil {
		return err
	}
	if !cfg.Paused {
		return nerrors.ErrNotPaused
	}
	cfg.Paused = false
	if err := m.saveConfig(cfg); err != nil {
		return err
	}
	m.logger.Info("manager unpaused", logging.MaskField("handlerId", hex.EncodeToString(cfg.HandlerID[:])))
	m.emitter.Emit(events.Wrap(events.NewPausedEvent(false)))
	return nil
}
