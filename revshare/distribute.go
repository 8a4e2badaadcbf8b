package revshare

import (
	"fmt"

	"github.com/holiman/uint256"
)

// BasisPoints is the fee denominator: 10000 bps = 100%.
const BasisPoints = 10000

// SplitRevenue splits a gross deposit into the platform fee and the
// distributable remainder. fee = amount * feeBps / 10000, rounded down.
func SplitRevenue(amount *uint256.Int, feeBps uint16) (fee, distributable *uint256.Int, err error) {
	if feeBps > BasisPoints {
		return nil, nil, fmt.Errorf("%w: %d", ErrInvalidFeeBps, feeBps)
	}
	fee, _ = new(uint256.Int).MulDivOverflow(amount, uint256.NewInt(uint64(feeBps)), uint256.NewInt(BasisPoints))
	distributable = new(uint256.Int).Sub(amount, fee)
	return fee, distributable, nil
}

// Payout computes floor(distributable * balance / totalShares). The
// intermediate product is 512 bits wide, so only a balance larger than
// totalShares can overflow.
func Payout(distributable, balance, totalShares *uint256.Int) (*uint256.Int, error) {
	if totalShares.IsZero() {
		return nil, ErrZeroTotalShares
	}
	amount, overflow := new(uint256.Int).MulDivOverflow(distributable, balance, totalShares)
	if overflow {
		return nil, fmt.Errorf("%w: %s * %s / %s", ErrPayoutOverflow, distributable.Dec(), balance.Dec(), totalShares.Dec())
	}
	return amount, nil
}

// Distribute calculates per-holder payouts of distributable across holdings.
// Each holder gets the floor of its proportional share; the truncated
// remainder is returned as dust and is never assigned to anyone.
func Distribute(distributable *uint256.Int, holdings []Holding, totalShares *uint256.Int) ([]Distribution, *uint256.Int, error) {
	if totalShares.IsZero() {
		return nil, nil, ErrZeroTotalShares
	}

	distributions := make([]Distribution, 0, len(holdings))
	distributed := new(uint256.Int)
	for i := range holdings {
		if holdings[i].Balance.IsZero() {
			continue
		}
		amount, err := Payout(distributable, &holdings[i].Balance, totalShares)
		if err != nil {
			return nil, nil, err
		}
		distributions = append(distributions, Distribution{Holder: holdings[i].Holder, Amount: *amount})
		distributed.Add(distributed, amount)
	}

	if distributed.Gt(distributable) {
		return nil, nil, fmt.Errorf("%w: %s > %s", ErrDistributionExceeded, distributed.Dec(), distributable.Dec())
	}
	dust := new(uint256.Int).Sub(distributable, distributed)
	return distributions, dust, nil
}
