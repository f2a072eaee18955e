package services

import (
	"context"
	"fmt"

	"github.com/tabvault/tabvault/server/internal/model"
	"github.com/tabvault/tabvault/server/internal/store"
)

type FolderService struct {
	store store.Store
}

func NewFolderService(s store.Store) *FolderService {
	return &FolderService{store: s}
}

func (s *FolderService) CreateFolder(ctx context.Context, f *model.Folder) (*model.Folder, error) {
	if f.Name == "" {
		return nil, fmt.Errorf("%w: folder name is required", model.ErrValidation)
	}
	if f.CollectionID == "" {
		return nil, fmt.Errorf("%w: collection id is required", model.ErrValidation)
	}
	var created *model.Folder
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		if _, err := tx.Collections().Get(ctx, f.CollectionID); err != nil {
			return err
		}
		var err error
		created, err = tx.Folders().Create(ctx, f)
		if err != nil {
			return err
		}
		return bumpCounts(ctx, tx, f.CollectionID)
	})
	return created, err
}

func (s *FolderService) GetFolder(ctx context.Context, folderID string) (*model.Folder, error) {
	return s.store.Folders().Get(ctx, folderID)
}

func (s *FolderService) UpdateFolder(ctx context.Context, f *model.Folder) (*model.Folder, error) {
	if f.Name == "" {
		return nil, fmt.Errorf("%w: folder name is required", model.ErrValidation)
	}
	return s.store.Folders().Update(ctx, f)
}

func (s *FolderService) ListFolders(ctx context.Context, collectionID string) ([]*model.Folder, error) {
	return s.store.Folders().ListByCollection(ctx, collectionID)
}

// DeleteFolder removes a folder; its tabs survive and become ungrouped
// rather than being deleted with it.
func (s *FolderService) DeleteFolder(ctx context.Context, folderID string) error {
	return s.store.WithTx(ctx, func(tx store.Store) error {
		f, err := tx.Folders().Get(ctx, folderID)
		if err != nil {
			return err
		}
		orphans, err := tx.Tabs().ListByFolder(ctx, folderID)
		if err != nil {
			return err
		}
		for _, t := range orphans {
			t.FolderID = nil
			if _, err := tx.Tabs().Update(ctx, t); err != nil {
				return err
			}
		}
		if err := tx.Folders().Delete(ctx, folderID); err != nil {
			return err
		}
		return bumpCounts(ctx, tx, f.CollectionID)
	})
}

// bumpCounts recomputes a collection's folder and tab counts from durable
// state inside the caller's transaction.
func bumpCounts(ctx context.Context, tx store.Store, collectionID string) error {
	c, err := tx.Collections().Get(ctx, collectionID)
	if err != nil {
		return err
	}
	folders, err := tx.Folders().ListByCollection(ctx, collectionID)
	if err != nil {
		return err
	}
	tabs, err := tx.Tabs().ListByCollection(ctx, collectionID)
	if err != nil {
		return err
	}
	c.Metadata.FolderCount = len(folders)
	c.Metadata.TabCount = len(tabs)
	_, err = tx.Collections().Update(ctx, c)
	return err
}
