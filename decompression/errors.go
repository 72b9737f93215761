package decompression

import "errors"

// Error taxonomy, spec.md §7. Engines never catch their own errors; the
// scheduler's probe helpers always unwind the ledger (undo exactly as many
// steps as they committed) before returning one of these to the caller.
var (
	// ErrStepTooLarge means VPM-B's rounded first stop fell below the
	// start of the decompression zone; the dive's state is left untouched.
	ErrStepTooLarge = errors.New("decompression: step size too large to decompress")

	// ErrNonConvergent means an iterative solver (the scheduler's
	// first-stop search, VPM-B's ceiling fixed point or its CVA loop)
	// exceeded its iteration cap, or the general cubic's eigen
	// decomposition failed.
	ErrNonConvergent = errors.New("decompression: solver did not converge")

	// ErrMultipleRealRoots means the VPM-B allowable-gradient cubic had
	// more than one real root, which should not happen for physical
	// inputs; callers should treat this as fatal.
	ErrMultipleRealRoots = errors.New("decompression: cubic has multiple real roots")

	// ErrInvalidGasSwitch means a requested deco gas is not registered at
	// the requested depth.
	ErrInvalidGasSwitch = errors.New("decompression: deco gas not available at requested depth")

	// ErrUnderflow means an undo was attempted past the beginning of the
	// step history.
	ErrUnderflow = errors.New("decompression: cannot undo past the start of the dive")
)

// MaxIterations bounds the scheduler's first-stop search and VPM-B's
// ceiling fixed point, which return ErrNonConvergent when they reach it,
// and VPM-B's start-of-deco-zone bisection, which returns its current
// bracket edge without an error when it reaches it. VPM-B's CVA loop has
// its own, smaller cap.
const MaxIterations = 1000
