package seats

import (
	"fmt"

	"github.com/google/uuid"
)

// AvailableSeats returns the seats of family not taken by the owner or members.
// A negative result means the ledger is already corrupt and is reported as
// ErrConsistencyFault instead of being clamped.
func AvailableSeats(family Family, memberCount int) (int, error) {
	available := family.MaxSeats - 1 - memberCount
	if available < 0 {
		return 0, fmt.Errorf("%w: family %s has %d members for %d seats",
			ErrConsistencyFault, family.ID, memberCount, family.MaxSeats)
	}
	return available, nil
}

// AssertOwner fails with ErrForbidden unless callerID owns family.
func AssertOwner(family Family, callerID uuid.UUID) error {
	if family.OwnerID != callerID {
		return ErrForbidden
	}
	return nil
}

// HasSlotFor reports whether one more invite fits next to pendingCount
// outstanding ones.
func HasSlotFor(family Family, memberCount, pendingCount int) (bool, error) {
	available, err := AvailableSeats(family, memberCount)
	if err != nil {
		return false, err
	}
	return available > pendingCount, nil
}

// checkInvariants verifies both ledger invariants for a committed-to-be state.
func checkInvariants(family Family, memberCount, pendingCount int) error {
	available, err := AvailableSeats(family, memberCount)
	if err != nil {
		return err
	}
	if pendingCount > available {
		return fmt.Errorf("%w: family %s has %d pending invites for %d free seats",
			ErrConsistencyFault, family.ID, pendingCount, available)
	}
	return nil
}
