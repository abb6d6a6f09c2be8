package events

import (
	"encoding/binary"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"courseledger/core/types"
)

var bucketEvents = []byte("events")

// payloadCarrier is implemented by emitter envelopes that wrap a raw
// types.Event. The journal persists the full attribute map when available and
// falls back to the bare event type otherwise.
type payloadCarrier interface {
	Event() *types.Event
}

// JournalRecord is the durable representation of a single emitted event.
type JournalRecord struct {
	ID         string            `json:"id"`
	Sequence   uint64            `json:"sequence"`
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes,omitempty"`
	RecordedAt int64             `json:"recordedAt"`
}

// Journal persists emitted events to a bbolt database so external observers
// can replay them for indexing and analytics.
type Journal struct {
	db     *bolt.DB
	logger *slog.Logger
	nowFn  func() int64
}

// OpenJournal opens (or creates) the journal database at the supplied path.
func OpenJournal(path string, logger *slog.Logger) (*Journal, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEvents)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Journal{
		db:     db,
		logger: logger,
		nowFn:  func() int64 { return time.Now().Unix() },
	}, nil
}

// SetNowFunc overrides the journal clock for deterministic testing.
func (j *Journal) SetNowFunc(now func() int64) {
	if j == nil || now == nil {
		return
	}
	j.nowFn = now
}

// Emit implements the Emitter interface. Journal writes happen while the node
// still holds the global operation lock, so a persisted state change and its
// journal entry are never observed apart.
func (j *Journal) Emit(evt Event) {
	if j == nil || j.db == nil || evt == nil {
		return
	}
	record := JournalRecord{
		ID:         uuid.NewString(),
		Type:       evt.EventType(),
		RecordedAt: j.nowFn(),
	}
	if carrier, ok := evt.(payloadCarrier); ok {
		if payload := carrier.Event(); payload != nil {
			record.Attributes = payload.Attributes
		}
	}
	err := j.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketEvents)
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		record.Sequence = seq
		encoded, err := json.Marshal(&record)
		if err != nil {
			return err
		}
		return bucket.Put(sequenceKey(seq), encoded)
	})
	if err != nil {
		j.logger.Error("event journal append failed", "type", record.Type, "err", err)
	}
}

// Tail returns up to limit journal records starting after the supplied
// sequence number, in emission order.
func (j *Journal) Tail(after uint64, limit int) ([]JournalRecord, error) {
	if j == nil || j.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}
	var out []JournalRecord
	err := j.db.View(func(tx *bolt.Tx) error {
		cursor := tx.Bucket(bucketEvents).Cursor()
		for k, v := cursor.Seek(sequenceKey(after + 1)); k != nil && len(out) < limit; k, v = cursor.Next() {
			var record JournalRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return err
			}
			out = append(out, record)
		}
		return nil
	})
	return out, err
}

// Close releases the underlying database handle.
func (j *Journal) Close() {
	if j == nil || j.db == nil {
		return
	}
	_ = j.db.Close()
}

func sequenceKey(seq uint64) []byte {
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], seq)
	return key[:]
}
