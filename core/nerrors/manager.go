package nerrors

import stderrors "errors"

var (
	// ErrUninitialised indicates an operation was invoked before the
	// manager completed initialisation.
	ErrUninitialised = stderrors.New("manager: not initialised")
	// ErrAlreadyInitialised indicates Initialise was called a second
	// time.
	ErrAlreadyInitialised = stderrors.New("manager: already initialised")
	// ErrAlreadyPaused indicates Pause was called on an already-paused
	// manager.
	ErrAlreadyPaused = stderrors.New("manager: already paused")
	// ErrNotPaused indicates Unpause was called on a manager that was not
	// paused.
	ErrNotPaused = stderrors.New("manager: not paused")
	// ErrManagerPaused indicates a user-facing operation was rejected
	// because the manager is paused.
	ErrManagerPaused = stderrors.New("manager: paused")
	// ErrUnauthorized indicates a role or sender check failed.
	ErrUnauthorized = stderrors.New("manager: unauthorized")
	// ErrUnknownPeerChain indicates no peer registry entry exists for the
	// referenced chain.
	ErrUnknownPeerChain = stderrors.New("manager: unknown peer chain")
	// ErrPeerCannotBeSelf indicates an attempt to register the local chain
	// as its own peer.
	ErrPeerCannotBeSelf = stderrors.New("manager: peer cannot be the local chain")
	// ErrPeerContractZero indicates an attempt to register a peer with an
	// all-zero contract address.
	ErrPeerContractZero = stderrors.New("manager: peer contract must not be all-zero")
	// ErrPeerDecimalsInvalid indicates a peer decimals value outside
	// [1, 18].
	ErrPeerDecimalsInvalid = stderrors.New("manager: peer decimals out of range")
	// ErrInvalidTargetChain indicates an inbound message declared a target
	// chain other than the local chain.
	ErrInvalidTargetChain = stderrors.New("manager: invalid target chain")
	// ErrEmitterAddressMismatch indicates an inbound message's declared
	// source address did not match the registered peer contract.
	ErrEmitterAddressMismatch = stderrors.New("manager: emitter address mismatch")
	// ErrUnauthorizedAssetSender indicates the asset-deposit action's
	// sender did not match the manager call's caller.
	ErrUnauthorizedAssetSender = stderrors.New("manager: unauthorized asset sender")
	// ErrDustNotAllowed indicates trimming the requested amount would lose
	// a non-zero residue.
	ErrDustNotAllowed = stderrors.New("manager: dust not allowed")
	// ErrManagerIncorrectFeePayment indicates the fee-payment action's
	// receiver or amount did not match what was required.
	ErrManagerIncorrectFeePayment = stderrors.New("manager: incorrect fee payment")
	// ErrIncorrectAssetDeposit indicates the asset-deposit action's
	// receiver or amount did not match what was required.
	ErrIncorrectAssetDeposit = stderrors.New("manager: incorrect asset deposit")
	// ErrZeroAmount indicates a transfer was attempted with a zero
	// untrimmed amount.
	ErrZeroAmount = stderrors.New("manager: amount must be non-zero")
	// ErrRecipientZero indicates a transfer was attempted with an
	// all-zero recipient.
	ErrRecipientZero = stderrors.New("manager: recipient must not be all-zero")
	// ErrOnlyOriginalSender indicates a queued-outbound cancellation was
	// attempted by someone other than the original initiator.
	ErrOnlyOriginalSender = stderrors.New("manager: only the original sender may cancel")
	// ErrQueuedTransferUnknownManager indicates no manager-level queued
	// transfer record exists for the supplied message id or digest.
	ErrQueuedTransferUnknownManager = stderrors.New("manager: queued transfer unknown")
)
