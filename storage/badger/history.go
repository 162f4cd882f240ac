package badger

import (
	"bytes"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/vaultrag/core"
	"github.com/poiesic/vaultrag/storage"
)

// HistoryRepository implements storage.HistoryRepository for BadgerDB.
// Turns are keyed by session plus a monotonic sequence, so iteration over a
// session's keyspace walks the conversation in insertion order.
type HistoryRepository struct {
	backend *Backend
	seq     *badger.Sequence
}

var _ storage.HistoryRepository = (*HistoryRepository)(nil)

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(backend *Backend) (*HistoryRepository, error) {
	seq, err := backend.GetSequence(turnIDSeq)
	if err != nil {
		return nil, err
	}

	return &HistoryRepository{
		backend: backend,
		seq:     seq,
	}, nil
}

// Close releases the turn sequence.
func (r *HistoryRepository) Close() error {
	return r.seq.Release()
}

// AppendTurns appends turns to a session in the order given.
func (r *HistoryRepository) AppendTurns(ctx context.Context, session string, turns ...*core.Turn) error {
	if len(turns) == 0 {
		return nil
	}
	for _, turn := range turns {
		if turn.Timestamp.IsZero() {
			turn.Timestamp = time.Now().UTC()
		}
		if err := core.ValidateTurn(turn); err != nil {
			return err
		}
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, turn := range turns {
			next, err := r.seq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if next == 0 {
				next, err = r.seq.Next()
				if err != nil {
					return err
				}
			}

			key := makeTurnKey(session, next)
			if err := tx.Set(key, storage.MarshalTurn(turn)); err != nil {
				return err
			}
		}

		if err := tx.Set(makeSessionKey(session), []byte{1}); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// RecentTurns returns up to limit of the most recent turns for a session,
// oldest first.
func (r *HistoryRepository) RecentTurns(ctx context.Context, session string, limit int) ([]*core.Turn, error) {
	if limit <= 0 {
		return nil, nil
	}

	prefix := makeTurnScanPrefix(session)
	var results []*core.Turn

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// Walk the session keyspace backwards to pick up the newest turns
		// first. Seeking past the largest possible sequence positions the
		// reverse iterator at the session's last turn.
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		seekKey := append(slices.Clone(prefix), 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)

		for iter.Seek(seekKey); iter.Valid() && len(results) < limit; iter.Next() {
			if !bytes.HasPrefix(iter.Item().Key(), prefix) {
				break
			}

			var turn *core.Turn
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				turn, err = storage.UnmarshalTurn(val)
				return err
			}); err != nil {
				return err
			}
			results = append(results, turn)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.Reverse(results)
	return results, nil
}

// DeleteSession removes all turns for a session and its marker key.
func (r *HistoryRepository) DeleteSession(ctx context.Context, session string) error {
	prefix := makeTurnScanPrefix(session)

	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)

		var keys [][]byte
		for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
			keys = append(keys, iter.Item().KeyCopy(nil))
		}
		iter.Close()

		for _, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		if err := tx.Delete(makeSessionKey(session)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Sessions lists all known session names.
func (r *HistoryRepository) Sessions(ctx context.Context) ([]string, error) {
	prefix := []byte(sessionPrefix + ":")
	var sessions []string

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
			key := string(iter.Item().Key())
			sessions = append(sessions, strings.TrimPrefix(key, sessionPrefix+":"))
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	return sessions, nil
}
