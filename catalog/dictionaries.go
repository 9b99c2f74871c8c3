package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/jacentio/canopy/store"
)

// Dictionaries manages dictionaries and, on delete, their contents.
type Dictionaries struct {
	base
	dicts    store.Backend[Dictionary]
	contents store.Backend[DictionaryContent]
}

// NewDictionaries creates the dictionary service.
func NewDictionaries(dicts store.Backend[Dictionary], contents store.Backend[DictionaryContent], opts ...Option) *Dictionaries {
	return &Dictionaries{
		base:     newBase(opts),
		dicts:    dicts,
		contents: contents,
	}
}

// Create adds a dictionary.
func (s *Dictionaries) Create(ctx context.Context, in DictionaryInput) (Dictionary, error) {
	in = in.normalize()
	if err := in.Validate(); err != nil {
		return Dictionary{}, err
	}

	d := Dictionary{
		ID:        s.newID(),
		Name:      in.Name,
		Remark:    in.Remark,
		CreatedAt: s.now().UTC(),
	}
	if err := s.dicts.Add(ctx, d); err != nil {
		return Dictionary{}, fmt.Errorf("add dictionary: %w", err)
	}
	s.logger.Info("dictionary created", "id", d.ID, "name", d.Name)
	return d, nil
}

// Update replaces a dictionary's name and remark.
func (s *Dictionaries) Update(ctx context.Context, id string, in DictionaryInput) (Dictionary, error) {
	in = in.normalize()
	if err := in.Validate(); err != nil {
		return Dictionary{}, err
	}

	d, err := s.Get(ctx, id)
	if err != nil {
		return Dictionary{}, err
	}
	d.Name = in.Name
	d.Remark = in.Remark
	if err := s.dicts.Put(ctx, d); err != nil {
		return Dictionary{}, fmt.Errorf("update dictionary: %w", err)
	}
	s.logger.Info("dictionary updated", "id", d.ID)
	return d, nil
}

// Delete removes a dictionary and every entry that belongs to it.
// Deleting an unknown id is a no-op.
func (s *Dictionaries) Delete(ctx context.Context, id string) error {
	entries, err := s.contents.GetAllByIndex(ctx, IndexDictionaryID, store.Key(id))
	if err != nil {
		return fmt.Errorf("list dictionary contents: %w", err)
	}
	for _, c := range entries {
		if err := s.contents.Delete(ctx, c.ID); err != nil {
			return fmt.Errorf("delete dictionary content %s: %w", c.ID, err)
		}
	}
	if err := s.dicts.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete dictionary: %w", err)
	}
	s.logger.Info("dictionary deleted", "id", id, "contents", len(entries))
	return nil
}

// Get returns a dictionary by id.
func (s *Dictionaries) Get(ctx context.Context, id string) (Dictionary, error) {
	d, ok, err := s.dicts.Get(ctx, id)
	if err != nil {
		return Dictionary{}, fmt.Errorf("get dictionary %s: %w", id, err)
	}
	if !ok {
		return Dictionary{}, fmt.Errorf("%w: dictionary %s", ErrNotFound, id)
	}
	return d, nil
}

// FindByName returns the dictionaries with exactly the given name.
func (s *Dictionaries) FindByName(ctx context.Context, name string) ([]Dictionary, error) {
	found, err := s.dicts.GetAllByIndex(ctx, IndexDictionaryName, store.Key(name))
	if err != nil {
		return nil, fmt.Errorf("find dictionary %q: %w", name, err)
	}
	return newestFirst(found, dictCreated, dictID), nil
}

// List returns every dictionary, newest first.
func (s *Dictionaries) List(ctx context.Context) ([]Dictionary, error) {
	all, err := s.dicts.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list dictionaries: %w", err)
	}
	return newestFirst(all, dictCreated, dictID), nil
}

func dictCreated(d Dictionary) time.Time { return d.CreatedAt }
func dictID(d Dictionary) string         { return d.ID }
