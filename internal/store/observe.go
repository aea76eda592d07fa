package store

import (
	"context"
	"log/slog"

	"github.com/Aman-CERP/mdindex/internal/kind"
)

// observer re-runs one document query whenever the store commits a write.
type observer struct {
	kind   *kind.Kind
	signal chan struct{}
}

// ObserveAllDocuments streams AllDocuments: the current result first, then a
// fresh result after writes. Bursts of writes may collapse into a single
// emission, but the last emission always reflects the latest commit.
// The channel closes when ctx is done or the store is closed.
func (s *Store) ObserveAllDocuments(ctx context.Context) (<-chan []WorkspaceDocument, error) {
	return s.observe(ctx, nil)
}

// ObserveDocumentsOfKind streams DocumentsOfKind for k, like ObserveAllDocuments.
func (s *Store) ObserveDocumentsOfKind(ctx context.Context, k kind.Kind) (<-chan []WorkspaceDocument, error) {
	return s.observe(ctx, &k)
}

func (s *Store) observe(ctx context.Context, k *kind.Kind) (<-chan []WorkspaceDocument, error) {
	o := &observer{kind: k, signal: make(chan struct{}, 1)}
	o.signal <- struct{}{}

	s.obsMu.Lock()
	select {
	case <-s.done:
		s.obsMu.Unlock()
		return nil, errClosed()
	default:
	}
	s.observers[o] = struct{}{}
	s.obsWG.Add(1)
	s.obsMu.Unlock()

	out := make(chan []WorkspaceDocument)
	go s.runObserver(ctx, o, out)
	return out, nil
}

func (s *Store) runObserver(ctx context.Context, o *observer, out chan<- []WorkspaceDocument) {
	defer s.obsWG.Done()
	defer close(out)
	defer func() {
		s.obsMu.Lock()
		delete(s.observers, o)
		s.obsMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-o.signal:
		}

		docs, err := s.documents(ctx, o.kind)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// The next commit signals again.
			slog.Warn("observer query failed", slog.String("error", err.Error()))
			continue
		}

		select {
		case out <- docs:
		case <-ctx.Done():
			return
		case <-s.done:
			return
		}
	}
}

// notify wakes every observer. A pending wake-up absorbs later ones.
func (s *Store) notify() {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()

	for o := range s.observers {
		select {
		case o.signal <- struct{}{}:
		default:
		}
	}
}
