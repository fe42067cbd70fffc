package comic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"inkpress/internal/ai"
	"inkpress/internal/cache"
	"inkpress/internal/models"
)

// Defaults applied when a request leaves a parameter empty. The model
// default belongs to the image provider.
const (
	DefaultStyle = ai.DefaultStyle
	DefaultRatio = ai.DefaultRatio
)

var (
	// ErrNoScenes is returned when the story has no non-blank paragraph.
	ErrNoScenes = errors.New("comic: story has no scenes")

	// ErrGeneration wraps the failure of a single frame after its retries.
	ErrGeneration = errors.New("comic: frame generation failed")
)

// ImageGenerator produces one image URL per request. DefaultModel names
// the model it uses for requests that leave Model empty.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req ai.ImageRequest) (string, error)
	DefaultModel() string
}

// FrameCache keeps frames generated by runs that have not been persisted.
type FrameCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, url string)
	Forget(ctx context.Context, keys ...string)
}

// Store persists finished comics.
type Store interface {
	Create(ctx context.Context, c *models.Comic) (*models.Comic, error)
}

// Options tunes how frames are generated.
type Options struct {
	// Concurrency is the number of frames generated at once. Values below
	// 1 mean one at a time, in story order.
	Concurrency int
	// MaxRetries is how many extra attempts a failing frame gets.
	MaxRetries int
	// RetryBase is the first backoff delay; it doubles on every retry.
	RetryBase time.Duration
}

// Request is a single comic generation run.
type Request struct {
	Title    string
	Story    string
	Model    string
	Style    string
	Ratio    string
	AuthorID uuid.UUID
}

// Generator runs comic generation.
type Generator struct {
	images ImageGenerator
	frames FrameCache
	store  Store
	opts   Options
}

// NewGenerator creates a Generator. frames may be nil to disable frame
// reuse across runs.
func NewGenerator(images ImageGenerator, frames FrameCache, store Store, opts Options) *Generator {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = time.Second
	}
	return &Generator{images: images, frames: frames, store: store, opts: opts}
}

// Generate produces one frame per scene and, only if every frame
// succeeded, persists the comic. The first frame that fails after its
// retries cancels the others and nothing is persisted. Frames that did
// complete stay in the frame cache, so repeating the request reuses them.
func (g *Generator) Generate(ctx context.Context, req Request) (*models.Comic, error) {
	scenes := SplitScenes(req.Story)
	if len(scenes) == 0 {
		return nil, ErrNoScenes
	}

	model := orDefault(req.Model, g.images.DefaultModel())
	style := orDefault(req.Style, DefaultStyle)
	ratio := orDefault(req.Ratio, DefaultRatio)
	owner := req.AuthorID.String()

	frames := make([]models.ComicFrame, len(scenes))
	keys := make([]string, len(scenes))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.Concurrency)

	for i, sc := range scenes {
		keys[i] = cache.FrameKey(owner, sc.Prompt, model, style, ratio)
		eg.Go(func() error {
			url, err := g.frame(egCtx, keys[i], ai.ImageRequest{
				Prompt: sc.Prompt, Model: model, Style: style, Ratio: ratio,
			})
			if err != nil {
				slog.Error("comic frame failed", "frame", sc.Frame, "error", err)
				return fmt.Errorf("%w: frame %d: %w", ErrGeneration, sc.Frame, err)
			}
			frames[i] = models.ComicFrame{Frame: sc.Frame, URL: url, Description: sc.Text}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(frames, func(a, b int) bool { return frames[a].Frame < frames[b].Frame })

	c, err := g.store.Create(ctx, &models.Comic{
		Title:    req.Title,
		Story:    req.Story,
		Frames:   frames,
		Model:    model,
		Style:    style,
		Ratio:    ratio,
		AuthorID: req.AuthorID,
	})
	if err != nil {
		return nil, fmt.Errorf("save comic: %w", err)
	}

	if g.frames != nil {
		g.frames.Forget(ctx, keys...)
	}

	slog.Info("comic generated", "comic_id", c.ID, "frames", len(frames))
	return c, nil
}

// frame returns the image URL for one scene, from the cache if an earlier
// run already produced it, otherwise from the image API. Transient
// failures are retried; permanent ones fail the frame at once.
func (g *Generator) frame(ctx context.Context, key string, req ai.ImageRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if g.frames != nil {
		if url, ok := g.frames.Get(ctx, key); ok {
			return url, nil
		}
	}

	backoff := retry.WithMaxRetries(uint64(g.opts.MaxRetries), retry.NewExponential(g.opts.RetryBase))

	var url string
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		url, err = g.images.GenerateImage(ctx, req)
		if err != nil {
			if ctx.Err() != nil || ai.Permanent(err) {
				return err
			}
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	// Kept even if a sibling frame has already failed and cancelled ctx.
	if g.frames != nil {
		g.frames.Set(context.WithoutCancel(ctx), key, url)
	}
	return url, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
