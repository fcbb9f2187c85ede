package nerrors

import stderrors "errors"

var (
	// ErrMessageHandlerUnknown indicates the referenced handler has never
	// been registered.
	ErrMessageHandlerUnknown = stderrors.New("aggregator: message handler unknown")
	// ErrHandlerPaused indicates the handler is currently paused.
	ErrHandlerPaused = stderrors.New("aggregator: message handler paused")
	// ErrHandlerNotPaused indicates Unpause was called on a handler that
	// was not paused.
	ErrHandlerNotPaused = stderrors.New("aggregator: message handler not paused")
	// ErrTransceiverNotConfigured indicates the caller is not a registered
	// transceiver for the handler.
	ErrTransceiverNotConfigured = stderrors.New("aggregator: transceiver not configured")
	// ErrDuplicateTransceiver indicates AddTransceiver was called twice for
	// the same (handler, transceiver) pair. AddMessageHandler also returns
	// it for a handler that is already registered.
	ErrDuplicateTransceiver = stderrors.New("aggregator: transceiver already configured")
	// ErrMaxTransceiversExceeded indicates a handler already has
	// MaxTransceivers channels configured.
	ErrMaxTransceiversExceeded = stderrors.New("aggregator: max transceivers exceeded")
	// ErrDuplicateAttestation indicates the same transceiver attempted to
	// attest to the same message digest twice.
	ErrDuplicateAttestation = stderrors.New("aggregator: duplicate attestation")
	// ErrAlreadyExecuted indicates execute_message was invoked a second
	// time for an already-executed digest.
	ErrAlreadyExecuted = stderrors.New("aggregator: message already executed")
	// ErrMessageNotApproved indicates execute_message was invoked before
	// the handler's threshold was met.
	ErrMessageNotApproved = stderrors.New("aggregator: message not approved")
	// ErrZeroThreshold indicates SetThreshold(0) was attempted.
	ErrZeroThreshold = stderrors.New("aggregator: threshold must be non-zero")
	// ErrNoTransceiversConfigured indicates a send was attempted against a
	// handler with zero configured transceivers.
	ErrNoTransceiversConfigured = stderrors.New("aggregator: handler has zero transceivers")
	// ErrMessageSourceMismatch indicates the caller did not match the
	// outbound message's declared source address.
	ErrMessageSourceMismatch = stderrors.New("aggregator: message source address does not match caller")
	// ErrIncorrectFeePayment indicates the fee payment amount did not
	// exactly match the re-quoted total delivery price.
	ErrIncorrectFeePayment = stderrors.New("aggregator: incorrect fee payment")
	// ErrUnauthorizedRole indicates the caller does not hold the role
	// required for an administrative action.
	ErrUnauthorizedRole = stderrors.New("aggregator: unauthorized role")
)
