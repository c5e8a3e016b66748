// Package thumbnail renders preview images for visual media. Images are
// resized in-process; videos go through ffmpeg.
package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"go-media-platform/internal/faults"
	"go-media-platform/internal/models"
	"go-media-platform/internal/storage"
)

const (
	imageThumbnailDir = "uploads/images/thumbnails/"
	videoThumbnailDir = "uploads/videos/thumbnails/"
)

// Generator renders square thumbnails for persisted media records and
// attaches the result as a MediaThumbnail row.
type Generator struct {
	db            *gorm.DB
	store         storage.Storage
	size          int
	ffmpegTimeout time.Duration
	log           zerolog.Logger
}

func NewGenerator(db *gorm.DB, store storage.Storage, size int, ffmpegTimeout time.Duration, log zerolog.Logger) *Generator {
	return &Generator{
		db:            db,
		store:         store,
		size:          size,
		ffmpegTimeout: ffmpegTimeout,
		log:           log.With().Str("component", "thumbnail").Logger(),
	}
}

// Generate renders the thumbnail for a media record. Non-visual media is a
// no-op. A media record that already has a thumbnail at the configured
// size is left alone, so redelivered messages converge.
func (g *Generator) Generate(ctx context.Context, mediaID string) error {
	var media models.Media
	err := g.db.WithContext(ctx).First(&media, "id = ?", mediaID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &faults.NotFoundError{Kind: "media", ID: mediaID}
	}
	if err != nil {
		return err
	}

	var existing int64
	err = g.db.WithContext(ctx).Model(&models.MediaThumbnail{}).
		Where("media_id = ? AND width = ?", media.ID, g.size).
		Count(&existing).Error
	if err != nil {
		return err
	}
	if existing > 0 {
		g.log.Debug().Str("media_id", media.ID).Msg("thumbnail already exists, skipping")
		return nil
	}

	var key string
	switch media.MediaType {
	case models.KindImage:
		key, err = g.renderImage(&media)
	case models.KindVideo:
		key, err = g.renderVideo(ctx, &media)
	default:
		return nil
	}
	if err != nil {
		return err
	}

	thumb := &models.MediaThumbnail{
		WorkplaceID: media.WorkplaceID,
		MediaID:     media.ID,
		Width:       g.size,
		Height:      g.size,
		Path:        key,
	}
	if err := g.db.WithContext(ctx).Create(thumb).Error; err != nil {
		return fmt.Errorf("failed to persist thumbnail for %s: %w", media.ID, err)
	}

	g.log.Info().Str("media_id", media.ID).Str("path", key).Msg("thumbnail generated")
	return nil
}

// renderImage resizes the source to a centered square crop and stores it
// next to the other image thumbnails, keeping the source format when
// imaging knows it.
func (g *Generator) renderImage(media *models.Media) (string, error) {
	src, cleanup, err := g.fetchSource(media)
	if err != nil {
		return "", err
	}
	defer cleanup()

	img, err := imaging.Open(src)
	if err != nil {
		return "", fmt.Errorf("failed to decode image %s: %w", media.Path, err)
	}

	thumb := imaging.Fill(img, g.size, g.size, imaging.Center, imaging.Lanczos)

	// Keep the source format when imaging can encode it, else fall back
	// to JPEG.
	ext := path.Ext(media.FileName)
	if _, err := imaging.FormatFromExtension(ext); err != nil {
		ext = ".jpg"
	}

	out := filepath.Join(filepath.Dir(src), "thumb"+ext)
	if err := imaging.Save(thumb, out, imaging.JPEGQuality(85)); err != nil {
		return "", fmt.Errorf("failed to encode thumbnail for %s: %w", media.ID, err)
	}

	return g.upload(out, imageThumbnailDir, media.FileName, ext)
}

// renderVideo grabs a frame one second in and scales it with ffmpeg. Video
// thumbnails are always PNG.
func (g *Generator) renderVideo(ctx context.Context, media *models.Media) (string, error) {
	src, cleanup, err := g.fetchSource(media)
	if err != nil {
		return "", err
	}
	defer cleanup()

	out := filepath.Join(filepath.Dir(src), "thumb.png")

	ctx, cancel := context.WithTimeout(ctx, g.ffmpegTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-ss", "00:00:01",
		"-i", src,
		"-vframes", "1",
		"-vf", fmt.Sprintf("scale=%d:%d", g.size, g.size),
		"-y", out,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", &faults.ExternalToolError{Tool: "ffmpeg", Output: string(output), Err: err}
	}

	g.enrichVideoMetadata(ctx, media, src)

	return g.upload(out, videoThumbnailDir, media.FileName, ".png")
}

// enrichVideoMetadata merges the ffprobe technical details into the
// record's metadata. Best effort: the thumbnail matters more than the
// probe, so failures are only logged.
func (g *Generator) enrichVideoMetadata(ctx context.Context, media *models.Media, src string) {
	info, err := probeVideo(ctx, src)
	if err != nil {
		g.log.Warn().Err(err).Str("media_id", media.ID).Msg("video probe failed")
		return
	}

	patch := info.metadataPatch()
	if len(patch) == 0 {
		return
	}

	meta := media.MetaData
	if meta == nil {
		meta = models.JSON{}
	}
	for k, v := range patch {
		meta[k] = v
	}

	if err := g.db.WithContext(ctx).Model(media).
		Update("meta_data", meta).Error; err != nil {
		g.log.Warn().Err(err).Str("media_id", media.ID).Msg("failed to store video metadata")
	}
}

// fetchSource downloads the media blob into a scratch directory and
// returns the local path plus a cleanup func.
func (g *Generator) fetchSource(media *models.Media) (string, func(), error) {
	reader, err := g.store.Download(media.Path)
	if err != nil {
		return "", nil, err
	}
	defer reader.Close()

	dir, err := os.MkdirTemp("", "thumb-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { os.RemoveAll(dir) }

	src := filepath.Join(dir, "source"+path.Ext(media.FileName))
	f, err := os.Create(src)
	if err != nil {
		cleanup()
		return "", nil, err
	}
	if _, err := io.Copy(f, reader); err != nil {
		f.Close()
		cleanup()
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return src, cleanup, nil
}

// upload pushes a rendered thumbnail to the blob store under the kind's
// thumbnail directory, named after the source file.
func (g *Generator) upload(localPath, dir, sourceName, ext string) (string, error) {
	base := strings.TrimSuffix(sourceName, path.Ext(sourceName))
	key := fmt.Sprintf("%s%s_thumbnail_%d%s", dir, base, g.size, ext)

	f, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	return g.store.Upload(f, key)
}
