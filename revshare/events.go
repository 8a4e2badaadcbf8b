package revshare

import (
	"time"

	"github.com/holiman/uint256"
)

// EventKind names an auditable state change.
type EventKind string

const (
	EventAssetRegistered      EventKind = "asset_registered"
	EventMetadataUpdated      EventKind = "metadata_updated"
	EventStatusChanged        EventKind = "status_changed"
	EventOperatorTransferred  EventKind = "operator_transferred"
	EventSharesTransferred    EventKind = "shares_transferred"
	EventRevenueReported      EventKind = "revenue_reported"
	EventRevenueClaimed       EventKind = "revenue_claimed"
	EventFeeUpdated           EventKind = "fee_updated"
	EventThresholdUpdated     EventKind = "threshold_updated"
	EventPlatformOwnerChanged EventKind = "platform_owner_changed"
	EventPaused               EventKind = "paused"
	EventUnpaused             EventKind = "unpaused"
)

// Event is one entry of the audit trail. Fields that do not apply to a
// kind are left zero.
type Event struct {
	Seq          uint64 // assigned by the store, global and monotonic
	Kind         EventKind
	AssetID      uint64
	SnapshotID   uint64
	Actor        Address // caller that caused the event
	Counterparty Address // recipient, new operator, new owner
	Amount       uint256.Int
	Name         string
	MetadataRef  string
	Token        Address
	Active       bool
	FeeBps       uint16
	Time         time.Time
}
