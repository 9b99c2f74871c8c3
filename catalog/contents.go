package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/jacentio/canopy/store"
)

// Contents manages dictionary entries.
type Contents struct {
	base
	contents store.Backend[DictionaryContent]
	dicts    store.Backend[Dictionary]
}

// NewContents creates the dictionary content service.
func NewContents(contents store.Backend[DictionaryContent], dicts store.Backend[Dictionary], opts ...Option) *Contents {
	return &Contents{
		base:     newBase(opts),
		contents: contents,
		dicts:    dicts,
	}
}

// Create adds an entry to an existing dictionary.
func (s *Contents) Create(ctx context.Context, in ContentInput) (DictionaryContent, error) {
	in = in.normalize()
	if err := in.Validate(); err != nil {
		return DictionaryContent{}, err
	}
	if err := s.requireDictionary(ctx, in.DictionaryID); err != nil {
		return DictionaryContent{}, err
	}

	c := DictionaryContent{
		ID:           s.newID(),
		DictionaryID: in.DictionaryID,
		Name:         in.Name,
		Remark:       in.Remark,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.contents.Add(ctx, c); err != nil {
		return DictionaryContent{}, fmt.Errorf("add dictionary content: %w", err)
	}
	s.logger.Info("dictionary content created", "id", c.ID, "dictionary", c.DictionaryID)
	return c, nil
}

// Update replaces an entry's name and remark. The owning dictionary
// cannot change.
func (s *Contents) Update(ctx context.Context, id string, in ContentInput) (DictionaryContent, error) {
	c, ok, err := s.contents.Get(ctx, id)
	if err != nil {
		return DictionaryContent{}, fmt.Errorf("get dictionary content %s: %w", id, err)
	}
	if !ok {
		return DictionaryContent{}, fmt.Errorf("%w: dictionary content %s", ErrNotFound, id)
	}

	in.DictionaryID = c.DictionaryID
	in = in.normalize()
	if err := in.Validate(); err != nil {
		return DictionaryContent{}, err
	}

	c.Name = in.Name
	c.Remark = in.Remark
	if err := s.contents.Put(ctx, c); err != nil {
		return DictionaryContent{}, fmt.Errorf("update dictionary content: %w", err)
	}
	s.logger.Info("dictionary content updated", "id", c.ID)
	return c, nil
}

// Delete removes an entry. Deleting an unknown id is a no-op.
func (s *Contents) Delete(ctx context.Context, id string) error {
	if err := s.contents.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete dictionary content: %w", err)
	}
	s.logger.Info("dictionary content deleted", "id", id)
	return nil
}

// ListByDictionary returns a dictionary's entries, newest first.
func (s *Contents) ListByDictionary(ctx context.Context, dictionaryID string) ([]DictionaryContent, error) {
	entries, err := s.contents.GetAllByIndex(ctx, IndexDictionaryID, store.Key(dictionaryID))
	if err != nil {
		return nil, fmt.Errorf("list dictionary contents: %w", err)
	}
	return newestFirst(entries, contentCreated, contentID), nil
}

func (s *Contents) requireDictionary(ctx context.Context, id string) error {
	_, ok, err := s.dicts.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get dictionary %s: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("%w: dictionary %s", ErrNotFound, id)
	}
	return nil
}

func contentCreated(c DictionaryContent) time.Time { return c.CreatedAt }
func contentID(c DictionaryContent) string         { return c.ID }
