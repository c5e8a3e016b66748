package folders

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"go-media-platform/internal/cache"
	"go-media-platform/internal/faults"
	"go-media-platform/internal/models"
)

const cachePrefix = "media_folder_"

// EventPublisher announces a committed folder mutation. The cache
// invalidation handler consumes the event asynchronously, so listings may
// be stale for the event-delivery latency.
type EventPublisher interface {
	PublishFolderChanged(ctx context.Context, scope string) error
}

// Service exposes folder listings through a read-through cache and folder
// mutations that emit change events after commit.
type Service struct {
	db       *gorm.DB
	resolver *Resolver
	cache    *cache.TagCache
	ttl      time.Duration
	events   EventPublisher
	log      zerolog.Logger
}

func NewService(db *gorm.DB, c *cache.TagCache, ttl time.Duration, events EventPublisher, log zerolog.Logger) *Service {
	return &Service{
		db:       db,
		resolver: NewResolver(db),
		cache:    c,
		ttl:      ttl,
		events:   events,
		log:      log.With().Str("component", "folders").Logger(),
	}
}

// GetRootFolders lists the scope's root folders, served from cache when
// warm.
func (s *Service) GetRootFolders(ctx context.Context, scope string) ([]models.MediaFolder, error) {
	return s.cached(ctx, scope, "root", func() ([]models.MediaFolder, error) {
		var folders []models.MediaFolder
		err := s.db.WithContext(ctx).
			Where("workplace_id = ? AND parent_id IS NULL", scope).
			Order("name").
			Find(&folders).Error
		return folders, err
	})
}

// GetFolderByName lists the scope's folders carrying the given name.
func (s *Service) GetFolderByName(ctx context.Context, scope, name string) ([]models.MediaFolder, error) {
	return s.cached(ctx, scope, name, func() ([]models.MediaFolder, error) {
		var folders []models.MediaFolder
		err := s.db.WithContext(ctx).
			Where("workplace_id = ? AND name = ?", scope, name).
			Find(&folders).Error
		return folders, err
	})
}

// Invalidate drops every cached listing tagged with the scope.
func (s *Service) Invalidate(ctx context.Context, scope string) error {
	return s.cache.Invalidate(ctx, cacheTag(scope))
}

// Create finds-or-creates a folder and publishes the change event.
func (s *Service) Create(ctx context.Context, scope, name string, parentID *string) (*models.MediaFolder, error) {
	folder, err := s.resolver.Resolve(ctx, scope, name, parentID)
	if err != nil {
		return nil, err
	}
	s.publishChanged(ctx, scope)
	return folder, nil
}

// Rename updates a folder's name and rewrites the paths of the folder and
// its whole subtree in one transaction.
func (s *Service) Rename(ctx context.Context, scope, id, newName string) (*models.MediaFolder, error) {
	var folder models.MediaFolder

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.First(&folder, "id = ? AND workplace_id = ?", id, scope).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &faults.NotFoundError{Kind: "media folder", ID: id}
		}
		if err != nil {
			return err
		}

		oldPath := folder.Path
		newPath := oldPath
		if !folder.IsRoot() {
			newPath = oldPath[:len(oldPath)-len(folder.Name)-1] + newName + "/"
		}

		if err := tx.Model(&folder).Updates(map[string]interface{}{
			"name": newName,
			"path": newPath,
		}).Error; err != nil {
			return err
		}

		if newPath != oldPath {
			// Rewrite only the leading prefix of descendant paths; the
			// renamed segment chain may legitimately recur deeper down.
			err := tx.Model(&models.MediaFolder{}).
				Where("workplace_id = ? AND path LIKE ? AND id <> ?", scope, oldPath+"%", folder.ID).
				Update("path", gorm.Expr("? || substr(path, ?)", newPath, len(oldPath)+1)).Error
			if err != nil {
				return err
			}
		}

		folder.Name = newName
		folder.Path = newPath
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishChanged(ctx, scope)
	return &folder, nil
}

// Delete removes a folder and cascades over its subtree: descendant
// folders are removed and contained media records are soft-deleted.
func (s *Service) Delete(ctx context.Context, scope, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var folder models.MediaFolder
		err := tx.First(&folder, "id = ? AND workplace_id = ?", id, scope).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &faults.NotFoundError{Kind: "media folder", ID: id}
		}
		if err != nil {
			return err
		}

		var subtreeIDs []string
		err = tx.Model(&models.MediaFolder{}).
			Where("workplace_id = ? AND path LIKE ?", scope, folder.Path+"%").
			Pluck("id", &subtreeIDs).Error
		if err != nil {
			return err
		}

		if err := tx.Where("folder_id IN ?", subtreeIDs).
			Delete(&models.Media{}).Error; err != nil {
			return err
		}

		if err := tx.Where("id IN ?", subtreeIDs).
			Delete(&models.MediaFolder{}).Error; err != nil {
			return err
		}

		if folder.ParentID != nil {
			err := tx.Model(&models.MediaFolder{}).
				Where("id = ?", *folder.ParentID).
				UpdateColumn("child_count", gorm.Expr("child_count - 1")).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publishChanged(ctx, scope)
	return nil
}

// Resolver exposes the upload-target resolution used by the media handlers.
func (s *Service) Resolver() *Resolver {
	return s.resolver
}

func (s *Service) cached(ctx context.Context, scope, suffix string, load func() ([]models.MediaFolder, error)) ([]models.MediaFolder, error) {
	key := cacheKey(scope, suffix)

	var folders []models.MediaFolder
	found, err := s.cache.Get(ctx, key, &folders)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("folder cache read failed")
	}
	if found {
		return folders, nil
	}

	folders, err = load()
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, folders, s.ttl, cacheTag(scope)); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("folder cache write failed")
	}
	return folders, nil
}

// publishChanged runs after the mutating transaction committed. A publish
// failure leaves a stale cache until the TTL expires, which is logged but
// not surfaced to the caller.
func (s *Service) publishChanged(ctx context.Context, scope string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishFolderChanged(ctx, scope); err != nil {
		s.log.Error().Err(err).Str("scope", scope).Msg("failed to publish folder change event")
	}
}

func cacheKey(scope, suffix string) string {
	return fmt.Sprintf("%s%s_%x", cachePrefix, scope, md5.Sum([]byte(suffix)))
}

func cacheTag(scope string) string {
	return cachePrefix + scope
}
