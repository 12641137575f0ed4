//go:generate go run go.uber.org/mock/mockgen -source=presence.go -destination=../mocks/mock_presence_repository.go -package=mocks
package repositories

import (
	"civic-stream/errors"
	"encoding/json"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

const presencePrefix = "presence:"

// IPresenceRepository is the presence table shared by every delivery instance.
// Each instance owns one row per subject; a subject is online if any row says so.
type IPresenceRepository interface {
	Save(entry PresenceEntry) error
	Delete(subjectID, instanceID string) error
	LoadAll() ([]PresenceEntry, error)
	ForSubject(subjectID string) ([]PresenceEntry, error)
}

// PresenceEntry is the durable presence row of a subject on one instance.
type PresenceEntry struct {
	SubjectID       string    `json:"subject_id"`
	InstanceID      string    `json:"instance_id"`
	SessionCount    int       `json:"session_count"`
	LastHeartbeatAt time.Time `json:"last_heartbeat_at"`
}

// IsOnline is the derived state: at least one session and a heartbeat younger than ttl.
func (p PresenceEntry) IsOnline(now time.Time, ttl time.Duration) bool {
	return p.SessionCount > 0 && now.Sub(p.LastHeartbeatAt) < ttl
}

type PresenceRepository struct {
	db *badger.DB
}

func NewPresenceRepository(db *badger.DB) *PresenceRepository {
	return &PresenceRepository{db: db}
}

func subjectScope(subjectID string) string {
	return presencePrefix + subjectID + "/"
}

func presenceKey(subjectID, instanceID string) []byte {
	return []byte(subjectScope(subjectID) + instanceID)
}

func (p *PresenceRepository) Save(entry PresenceEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	err = p.db.Update(func(txn *badger.Txn) error {
		return txn.Set(presenceKey(entry.SubjectID, entry.InstanceID), data)
	})
	if err != nil {
		return errors.NewStoreError("presence_save", err)
	}
	return nil
}

func (p *PresenceRepository) Delete(subjectID, instanceID string) error {
	err := p.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(presenceKey(subjectID, instanceID))
	})
	if err != nil {
		return errors.NewStoreError("presence_delete", err)
	}
	return nil
}

func (p *PresenceRepository) LoadAll() ([]PresenceEntry, error) {
	entries, err := p.scan(presencePrefix)
	if err != nil {
		return nil, errors.NewStoreError("presence_load", err)
	}
	return entries, nil
}

// ForSubject returns the rows of every instance holding the subject.
func (p *PresenceRepository) ForSubject(subjectID string) ([]PresenceEntry, error) {
	entries, err := p.scan(subjectScope(subjectID))
	if err != nil {
		return nil, errors.NewStoreError("presence_subject", err)
	}
	// The scope of "a" also covers "a/b".
	return lo.Filter(entries, func(e PresenceEntry, _ int) bool { return e.SubjectID == subjectID }), nil
}

func (p *PresenceRepository) scan(prefix string) ([]PresenceEntry, error) {
	var entries []PresenceEntry
	err := p.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			var entry PresenceEntry
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		return nil
	})
	return entries, err
}
