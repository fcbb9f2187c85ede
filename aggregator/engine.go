package aggregator

import (
	"encoding/hex"
	"log/slog"
	"time"

	"nttcore/aggregator/rbac"
	"nttcore/codec"
	"nttcore/core/events"
	"nttcore/core/nerrors"
	"nttcore/observability/logging"
	"nttcore/observability/metrics"
	"nttcore/storage"
)

// AdminRole derives the RBAC role that governs adding or removing
// transceivers and setting the threshold for handler.
func AdminRole(handler HandlerID) rbac.Role {
	var r rbac.Role
	copy(r[:], append([]byte("aggregator-admin:"), handler[:]...))
	return r
}

// PauserRole derives the RBAC role that may pause handler.
func PauserRole(handler HandlerID) rbac.Role {
	var r rbac.Role
	copy(r[:], append([]byte("aggregator-pauser:"), handler[:]...))
	return r
}

// Aggregator is the transceiver manager engine. It owns per-handler
// configuration and per-digest attestation state, and fans every
// outbound message out across a handler's configured transceivers.
type Aggregator struct {
	store   storage.Storage
	emitter events.Emitter
	now     func() time.Time
	roles   *rbac.Store
	logger  *slog.Logger
	// transceivers is the live registry of Transceiver collaborators by
	// id, installed by the host binding a transport to each configured
	// channel.
	transceivers map[[32]byte]Transceiver
}

// New returns an Aggregator with no storage or roles bound. Callers must
// call SetState and SetRoles before use.
func New() *Aggregator {
	return &Aggregator{
		emitter:      events.NoopEmitter{},
		now:          time.Now,
		logger:       slog.Default(),
		transceivers: make(map[[32]byte]Transceiver),
	}
}

// SetState binds the backing key-value store.
func (a *Aggregator) SetState(s storage.Storage) { a.store = s }

// SetEmitter overrides the event sink.
func (a *Aggregator) SetEmitter(e events.Emitter) {
	if e == nil {
		e = events.NoopEmitter{}
	}
	a.emitter = e
}

// SetClock overrides the time source.
func (a *Aggregator) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	a.now = now
}

// SetRoles binds the access-control backend used for admin and pauser
// checks.
func (a *Aggregator) SetRoles(r *rbac.Store) { a.roles = r }

// SetLogger overrides the structured logger used for handler lifecycle
// and attestation events. A nil logger falls back to slog.Default().
func (a *Aggregator) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	a.logger = l
}

// BindTransceiver installs the live collaborator responsible for
// delivering to transceiverID. AddTransceiver only records
// configuration; BindTransceiver is what actually lets
// SendMessageToTransceivers reach it.
func (a *Aggregator) BindTransceiver(transceiverID [32]byte, t Transceiver) {
	a.transceivers[transceiverID] = t
}

func (a *Aggregator) loadHandler(id HandlerID) (*HandlerConfig, error) {
	var cfg HandlerConfig
	ok, err := a.store.KVGet(handlerKey(id), &cfg)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nerrors.ErrMessageHandlerUnknown
	}
	return &cfg, nil
}

func (a *Aggregator) saveHandler(id HandlerID, cfg *HandlerConfig) error {
	return a.store.KVPut(handlerKey(id), cfg)
}

// AddMessageHandler registers handler with admin as its sole initial
// administrator and pauser, and a threshold of 1. Both roles can later be
// re-delegated through the roles store directly.
func (a *Aggregator) AddMessageHandler(handler HandlerID, admin [32]byte) error {
	if _, err := a.loadHandler(handler); err == nil {
		return nerrors.ErrDuplicateTransceiver
	} else if err != nerrors.ErrMessageHandlerUnknown {
		return err
	}
	cfg := &HandlerConfig{Admin: admin, Threshold: 1}
	if err := a.saveHandler(handler, cfg); err != nil {
		return err
	}
	a.roles.Grant(AdminRole(handler), admin)
	a.roles.Grant(PauserRole(handler), admin)
	a.roles.SetRoleAdmin(PauserRole(handler), AdminRole(handler))
	a.emitter.Emit(events.Wrap(events.NewMessageHandlerAddedEvent(handler, admin)))
	return nil
}

// AddTransceiver appends transceiverID to handler's configured set.
// Order matters: it is the order SendMessageToTransceivers iterates and
// the order ValidateInstructionOrder checks caller-supplied instructions
// against.
func (a *Aggregator) AddTransceiver(handler HandlerID, caller, transceiverID [32]byte) error {
	cfg, err := a.loadHandler(handler)
	if err != nil {
		return err
	}
	if err := a.roles.RequireRole(AdminRole(handler), caller); err != nil {
		return err
	}
	if cfg.HasTransceiver(transceiverID) {
		return nerrors.ErrDuplicateTransceiver
	}
	if len(cfg.Transceivers) >= MaxTransceivers {
		return nerrors.ErrMaxTransceiversExceeded
	}
	cfg.Transceivers = append(cfg.Transceivers, transceiverID)
	if err := a.saveHandler(handler, cfg); err != nil {
		return err
	}
	a.emitter.Emit(events.Wrap(events.NewTransceiverAddedEvent(handler, transceiverID)))
	return nil
}

// RemoveTransceiver deletes transceiverID from handler's configured set,
// preserving the relative order of the remaining entries.
func (a *Aggregator) RemoveTransceiver(handler HandlerID, caller, transceiverID [32]byte) error {
	cfg, err := a.loadHandler(handler)
	if err != nil {
		return err
	}
	if err := a.roles.RequireRole(AdminRole(handler), caller); err != nil {
		return err
	}
	kept := make([][32]byte, 0, len(cfg.Transceivers))
	found := false
	for _, t := range cfg.Transceivers {
		if t == transceiverID {
			found = true
			continue
		}
		kept = append(kept, t)
	}
	if !found {
		return nerrors.ErrTransceiverNotConfigured
	}
	cfg.Transceivers = kept
	if err := a.saveHandler(handler, cfg); err != nil {
		return err
	}
	a.emitter.Emit(events.Wrap(events.NewTransceiverRemovedEvent(handler, transceiverID)))
	return nil
}

// SetThreshold updates handler's approval threshold. The new value only
// governs digests whose first attestation arrives after this call;
// digests already mid-attestation keep the threshold captured in their
// AttestationRecord.
func (a *Aggregator) SetThreshold(handler HandlerID, caller [32]byte, newThreshold uint64) error {
	cfg, err := a.loadHandler(handler)
	if err != nil {
		return err
	}
	if err := a.roles.RequireRole(AdminRole(handler), caller); err != nil {
		return err
	}
	if newThreshold == 0 {
		return nerrors.ErrZeroThreshold
	}
	cfg.Threshold = newThreshold
	if err := a.saveHandler(handler, cfg); err != nil {
		return err
	}
	a.emitter.Emit(events.Wrap(events.NewThresholdUpdatedEvent(handler, newThreshold)))
	return nil
}

// Pause stops handler from sending new messages; quoting is still
// answered. In-flight
// attestation and execution of already-sent messages are unaffected.
func (a *Aggregator) Pause(handler HandlerID, caller [32]byte) error {
	cfg, err := a.loadHandler(handler)
	if err != nil {
		return err
	}
	if err := a.roles.RequireRole(PauserRole(handler), caller); err != nil {
		return err
	}
	if cfg.Paused {
		return nerrors.ErrHandlerPaused
	}
	cfg.Paused = true
	if err := a.saveHandler(handler, cfg); err != nil {
		return err
	}
	a.emitter.Emit(events.Wrap(events.NewHandlerPausedEvent(handler, true)))
	return nil
}

// Unpause resumes handler.
func (a *Aggregator) Unpause(handler HandlerID, caller [32]byte) error {
	cfg, err := a.loadHandler(handler)
	if err != nil {
		return err
	}
	if err := a.roles.RequireRole(PauserRole(handler), caller); err != nil {
		return err
	}
	if !cfg.Paused {
		return nerrors.ErrHandlerNotPaused
	}
	cfg.Paused = false
	if err := a.saveHandler(handler, cfg); err != nil {
		return err
	}
	a.emitter.Emit(events.Wrap(events.NewHandlerPausedEvent(handler, false)))
	return nil
}

// QuoteDeliveryPrices returns the total delivery price across handler's
// configured transceivers for the given per-transceiver instructions,
// in configured order.
func (a *Aggregator) QuoteDeliveryPrices(handler HandlerID, destinationChain uint16, instructions []codec.TransceiverInstruction) (uint64, error) {
	cfg, err := a.loadHandler(handler)
	if err != nil {
		return 0, err
	}
	if err := codec.ValidateInstructionOrder(cfg.Transceivers, instructions); err != nil {
		return 0, err
	}
	byID := make(map[[32]byte][]byte, len(instructions))
	for _, instr := range instructions {
		byID[instr.TransceiverID] = instr.Instruction
	}
	var total uint64
	for _, id := range cfg.Transceivers {
		t, ok := a.transceivers[id]
		if !ok {
			return 0, nerrors.ErrTransceiverNotConfigured
		}
		price, err := t.QuoteDeliveryPrice(destinationChain, byID[id])
		if err != nil {
			return 0, err
		}
		total += price
	}
	return total, nil
}

// SendMessageToTransceivers fans msg out to every one of handler's
// configured transceivers, in configured order, provided caller paid
// exactly the re-quoted total delivery price and matches the message's
// declared source address. It fails closed if the handler has zero
// transceivers configured.
func (a *Aggregator) SendMessageToTransceivers(handler HandlerID, caller [32]byte, destinationChain uint16, msg codec.HandlerMessage, instructions []codec.TransceiverInstruction, feePaid uint64) error {
	start := a.now()
	cfg, err := a.loadHandler(handler)
	if err != nil {
		return err
	}
	if cfg.Paused {
		return nerrors.ErrHandlerPaused
	}
	if len(cfg.Transceivers) == 0 {
		return nerrors.ErrNoTransceiversConfigured
	}
	if msg.SourceAddress != caller {
		return nerrors.ErrMessageSourceMismatch
	}
	total, err := a.QuoteDeliveryPrices(handler, destinationChain, instructions)
	if err != nil {
		return err
	}
	if feePaid != total {
		return nerrors.ErrIncorrectFeePayment
	}
	byID := make(map[[32]byte][]byte, len(instructions))
	for _, instr := range instructions {
		byID[instr.TransceiverID] = instr.Instruction
	}
	for _, id := range cfg.Transceivers {
		t, ok := a.transceivers[id]
		if !ok {
			return nerrors.ErrTransceiverNotConfigured
		}
		if err := t.SendMessage(destinationChain, msg, byID[id]); err != nil {
			return err
		}
		a.emitter.Emit(events.Wrap(events.NewMessageSentEvent(handler, TransceiverID(id), msg.ID)))
	}
	metrics.Aggregator().ObserveSend(hex.EncodeToString(handler[:]), a.now().Sub(start))
	return nil
}

// CalculateMessageDigest exposes the digest formula transceivers and
// callers use to key attestation state for one message.
func (a *Aggregator) CalculateMessageDigest(messageID, userAddress [32]byte, sourceChain uint16, sourceAddress, handlerAddress [32]byte, payload []byte) [32]byte {
	return codec.MessageDigest(messageID, userAddress, sourceChain, sourceAddress, handlerAddress, payload)
}

// AttestationReceived records transceiver's attestation to digest under
// handler. The first attestation for a digest captures handler's current
// threshold into the record; subsequent attestations for the same digest
// check against that captured value regardless of later SetThreshold
// calls.
func (a *Aggregator) AttestationReceived(handler HandlerID, transceiver [32]byte, messageID [32]byte, sourceChain uint16, sourceAddress [32]byte, digest [32]byte) error {
	cfg, err := a.loadHandler(handler)
	if err != nil {
		return err
	}
	if !cfg.HasTransceiver(transceiver) {
		return nerrors.ErrTransceiverNotConfigured
	}
	record, err := a.loadAttestation(handler, digest)
	if err != nil {
		return err
	}
	if record == nil {
		record = &AttestationRecord{ThresholdAtSend: cfg.Threshold}
	}
	if record.HasAttested(transceiver) {
		return nerrors.ErrDuplicateAttestation
	}
	record.Attesters = append(record.Attesters, transceiver)
	if err := a.saveAttestation(handler, digest, record); err != nil {
		return err
	}
	handlerHex := hex.EncodeToString(handler[:])
	metrics.Aggregator().RecordAttestation(handlerHex)
	if record.Count() == record.ThresholdAtSend {
		metrics.Aggregator().RecordApproval(handlerHex)
		a.logger.Info("message approved",
			logging.MaskField("handlerId", handlerHex),
			logging.MaskField("digest", hex.EncodeToString(digest[:])),
			slog.Uint64("threshold", record.ThresholdAtSend),
		)
	}
	a.emitter.Emit(events.Wrap(events.NewAttestationReceivedEvent(messageID, sourceChain, sourceAddress, handler, digest, record.Count())))
	return nil
}

// MessageAttestations returns the current attestation record for digest
// under handler, or nil if no transceiver has attested yet.
func (a *Aggregator) MessageAttestations(handler HandlerID, digest [32]byte) (*AttestationRecord, error) {
	return a.loadAttestation(handler, digest)
}

// IsMessageApproved reports whether digest has accumulated at least its
// captured ThresholdAtSend attestations.
func (a *Aggregator) IsMessageApproved(handler HandlerID, digest [32]byte) (bool, error) {
	record, err := a.loadAttestation(handler, digest)
	if err != nil {
		return false, err
	}
	if record == nil {
		return false, nil
	}
	return record.Count() >= record.ThresholdAtSend, nil
}

// MarkExecuted records digest as executed under handler, failing if it
// was not yet approved or was already executed. The manager calls this
// exactly once per digest, immediately before crediting the recipient.
func (a *Aggregator) MarkExecuted(handler HandlerID, digest [32]byte) error {
	record, err := a.loadAttestation(handler, digest)
	if err != nil {
		return err
	}
	if record == nil || record.Count() < record.ThresholdAtSend {
		return nerrors.ErrMessageNotApproved
	}
	if record.Executed {
		return nerrors.ErrAlreadyExecuted
	}
	record.Executed = true
	return a.saveAttestation(handler, digest, record)
}

func (a *Aggregator) loadAttestation(handler HandlerID, digest [32]byte) (*AttestationRecord, error) {
	var record AttestationRecord
	ok, err := a.store.KVGet(attestationKey(handler, digest), &record)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (a *Aggregator) saveAttestation(handler HandlerID, digest [32]byte, record *AttestationRecord) error {
	return a.store.KVPut(attestationKey(handler, digest), record)
}
