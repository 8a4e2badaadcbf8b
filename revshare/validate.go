package revshare

import (
	"fmt"

	"github.com/holiman/uint256"
)

// ValidateShareConservation checks that holder balances sum to the token's total supply.
func ValidateShareConservation(holdings []Holding, totalSupply *uint256.Int) error {
	sum := new(uint256.Int)
	for i := range holdings {
		if _, overflow := sum.AddOverflow(sum, &holdings[i].Balance); overflow {
			return fmt.Errorf("%w: balance sum overflows", ErrShareConservationViolation)
		}
	}
	if !sum.Eq(totalSupply) {
		return fmt.Errorf("%w: balances=%s supply=%s", ErrShareConservationViolation, sum.Dec(), totalSupply.Dec())
	}
	return nil
}

// ValidatePayoutBound checks paidOut <= distributable and that the
// completion flag is set exactly when everything has been paid.
func ValidatePayoutBound(s *Snapshot) error {
	if s.PaidOut.Gt(&s.Distributable) {
		return fmt.Errorf("%w: snapshot %d/%d paid %s of %s",
			ErrPayoutBoundViolation, s.AssetID, s.ID, s.PaidOut.Dec(), s.Distributable.Dec())
	}
	done := s.PaidOut.Cmp(&s.Distributable) >= 0
	if s.Completed != done {
		return fmt.Errorf("%w: snapshot %d/%d completed=%t with %s of %s paid",
			ErrPayoutBoundViolation, s.AssetID, s.ID, s.Completed, s.PaidOut.Dec(), s.Distributable.Dec())
	}
	return nil
}

// ValidateDistribution checks that distribution amounts match holder proportions.
func ValidateDistribution(distributions []Distribution, holdings []Holding, distributable, totalShares *uint256.Int) error {
	expected, _, err := Distribute(distributable, holdings, totalShares)
	if err != nil {
		return err
	}
	if len(distributions) != len(expected) {
		return fmt.Errorf("distribution count %d != expected %d", len(distributions), len(expected))
	}
	for i := range distributions {
		if distributions[i].Holder != expected[i].Holder {
			return fmt.Errorf("entry %d: holder mismatch", i)
		}
		if !distributions[i].Amount.Eq(&expected[i].Amount) {
			return fmt.Errorf("entry %d: amount %s != expected %s", i, distributions[i].Amount.Dec(), expected[i].Amount.Dec())
		}
	}
	return nil
}
