package ledger

import (
	"github.com/sirupsen/logrus"

	"github.com/bitfsorg/revledger-go/revshare"
)

// Subscribe returns a channel that receives every committed event, in commit
// order. A subscriber whose buffer is full misses events; the persisted
// trail in Events is authoritative. cancel closes the channel.
func (l *Ledger) Subscribe(buffer int) (events <-chan revshare.Event, cancel func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan revshare.Event, buffer)

	l.subMu.Lock()
	id := l.nextSub
	l.nextSub++
	l.subs[id] = ch
	l.subMu.Unlock()

	return ch, func() {
		l.subMu.Lock()
		defer l.subMu.Unlock()
		if c, ok := l.subs[id]; ok {
			delete(l.subs, id)
			close(c)
		}
	}
}

func (l *Ledger) publish(events []*revshare.Event) {
	for _, e := range events {
		l.log.WithFields(logrus.Fields{
			"seq":      e.Seq,
			"asset":    e.AssetID,
			"snapshot": e.SnapshotID,
			"actor":    e.Actor.String(),
			"amount":   e.Amount.Dec(),
		}).Info(string(e.Kind))
	}

	l.subMu.Lock()
	defer l.subMu.Unlock()
	for id, ch := range l.subs {
		for _, e := range events {
			select {
			case ch <- *e:
			default:
				l.log.WithField("subscriber", id).Warn("event subscriber full, dropping event")
			}
		}
	}
}
