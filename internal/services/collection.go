// Package services holds the entity-level use cases behind the API layer.
// Orchestration (capture, restore, snooze, dedup) lives in its own packages;
// these services own validation, cascades, and count bookkeeping.
package services

import (
	"context"
	"fmt"

	"github.com/tabvault/tabvault/server/internal/model"
	"github.com/tabvault/tabvault/server/internal/store"
)

type CollectionService struct {
	store store.Store
}

func NewCollectionService(s store.Store) *CollectionService {
	return &CollectionService{store: s}
}

func (s *CollectionService) CreateCollection(ctx context.Context, c *model.Collection) (*model.Collection, error) {
	if c.Name == "" {
		return nil, fmt.Errorf("%w: collection name is required", model.ErrValidation)
	}
	return s.store.Collections().Create(ctx, c)
}

func (s *CollectionService) GetCollection(ctx context.Context, collectionID string) (*model.Collection, error) {
	return s.store.Collections().Get(ctx, collectionID)
}

func (s *CollectionService) UpdateCollection(ctx context.Context, c *model.Collection) (*model.Collection, error) {
	if c.Name == "" {
		return nil, fmt.Errorf("%w: collection name is required", model.ErrValidation)
	}
	return s.store.Collections().Update(ctx, c)
}

func (s *CollectionService) ListCollections(ctx context.Context) ([]*model.Collection, error) {
	return s.store.Collections().List(ctx)
}

func (s *CollectionService) ListActiveCollections(ctx context.Context) ([]*model.Collection, error) {
	return s.store.Collections().ListActive(ctx)
}

func (s *CollectionService) ListCollectionsByTag(ctx context.Context, tag string) ([]*model.Collection, error) {
	if tag == "" {
		return nil, fmt.Errorf("%w: tag is required", model.ErrValidation)
	}
	return s.store.Collections().ListByTag(ctx, tag)
}

// DeleteCollection removes a collection and everything referencing it. The
// store does not enforce the cascade; it is applied here, in one
// transaction, so a failed step leaves the collection intact.
func (s *CollectionService) DeleteCollection(ctx context.Context, collectionID string) error {
	return s.store.WithTx(ctx, func(tx store.Store) error {
		if _, err := tx.Collections().Get(ctx, collectionID); err != nil {
			return err
		}
		if err := tx.Tabs().DeleteByCollection(ctx, collectionID); err != nil {
			return err
		}
		if err := tx.Folders().DeleteByCollection(ctx, collectionID); err != nil {
			return err
		}
		if err := tx.Tasks().DeleteByCollection(ctx, collectionID); err != nil {
			return err
		}
		return tx.Collections().Delete(ctx, collectionID)
	})
}
