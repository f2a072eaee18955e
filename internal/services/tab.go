package services

import (
	"context"
	"fmt"

	"github.com/tabvault/tabvault/server/internal/model"
	"github.com/tabvault/tabvault/server/internal/store"
)

type TabService struct {
	store store.Store
}

func NewTabService(s store.Store) *TabService {
	return &TabService{store: s}
}

func (s *TabService) CreateTab(ctx context.Context, t *model.Tab) (*model.Tab, error) {
	if t.URL == "" {
		return nil, fmt.Errorf("%w: tab url is required", model.ErrValidation)
	}
	if t.CollectionID == "" {
		return nil, fmt.Errorf("%w: collection id is required", model.ErrValidation)
	}
	var created *model.Tab
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		if _, err := tx.Collections().Get(ctx, t.CollectionID); err != nil {
			return err
		}
		if t.FolderID != nil {
			if _, err := tx.Folders().Get(ctx, *t.FolderID); err != nil {
				return err
			}
		}
		var err error
		created, err = tx.Tabs().Create(ctx, t)
		if err != nil {
			return err
		}
		return bumpCounts(ctx, tx, t.CollectionID)
	})
	return created, err
}

func (s *TabService) GetTab(ctx context.Context, tabRecordID string) (*model.Tab, error) {
	return s.store.Tabs().Get(ctx, tabRecordID)
}

func (s *TabService) UpdateTab(ctx context.Context, t *model.Tab) (*model.Tab, error) {
	if t.URL == "" {
		return nil, fmt.Errorf("%w: tab url is required", model.ErrValidation)
	}
	return s.store.Tabs().Update(ctx, t)
}

// MoveTab reparents a tab within its collection. A nil folder id moves it
// to ungrouped.
func (s *TabService) MoveTab(ctx context.Context, tabRecordID string, folderID *string, position int) (*model.Tab, error) {
	t, err := s.store.Tabs().Get(ctx, tabRecordID)
	if err != nil {
		return nil, err
	}
	if folderID != nil {
		f, err := s.store.Folders().Get(ctx, *folderID)
		if err != nil {
			return nil, err
		}
		if f.CollectionID != t.CollectionID {
			return nil, fmt.Errorf("%w: folder belongs to a different collection", model.ErrValidation)
		}
	}
	t.FolderID = folderID
	t.Position = position
	return s.store.Tabs().Update(ctx, t)
}

func (s *TabService) ListTabsByCollection(ctx context.Context, collectionID string) ([]*model.Tab, error) {
	return s.store.Tabs().ListByCollection(ctx, collectionID)
}

func (s *TabService) ListTabsByFolder(ctx context.Context, folderID string) ([]*model.Tab, error) {
	return s.store.Tabs().ListByFolder(ctx, folderID)
}

func (s *TabService) DeleteTab(ctx context.Context, tabRecordID string) error {
	return s.store.WithTx(ctx, func(tx store.Store) error {
		t, err := tx.Tabs().Get(ctx, tabRecordID)
		if err != nil {
			return err
		}
		if err := tx.Tabs().Delete(ctx, tabRecordID); err != nil {
			return err
		}
		return bumpCounts(ctx, tx, t.CollectionID)
	})
}
