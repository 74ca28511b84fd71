package enrichment

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/R3E-Network/data_harmony/internal/app/metrics"
	"github.com/R3E-Network/data_harmony/internal/app/storage"
	apperrors "github.com/R3E-Network/data_harmony/internal/errors"
	"github.com/R3E-Network/data_harmony/pkg/logger"
)

// LoadResult summarizes one load.
type LoadResult struct {
	Users    int
	Posts    int
	Comments int
	Orphans  OrphanCounts
	Duration time.Duration
}

// Loader fetches the upstream collections, enriches them and replaces the
// stored snapshot. Loads are serialized.
type Loader struct {
	source Source
	stores storage.Stores
	log    *logger.Logger

	mu sync.Mutex
}

// NewLoader constructs a loader writing into stores.
func NewLoader(source Source, stores storage.Stores, log *logger.Logger) *Loader {
	if log == nil {
		log = logger.NewDefault("loader")
	}
	return &Loader{source: source, stores: stores, log: log}
}

// Load runs the full fetch, enrich and replace cycle. Collections are
// replaced one after another without a transaction; a reader may observe a
// collection empty while it is being refilled.
func (l *Loader) Load(ctx context.Context) (res LoadResult, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	start := time.Now()
	defer func() {
		res.Duration = time.Since(start)
		metrics.RecordLoad(err == nil, res.Duration)
	}()

	users, err := l.source.Users(ctx)
	if err != nil {
		return res, apperrors.UpstreamFetchFailure("fetch users", err)
	}
	posts, err := l.source.Posts(ctx)
	if err != nil {
		return res, apperrors.UpstreamFetchFailure("fetch posts", err)
	}
	comments, err := l.source.Comments(ctx)
	if err != nil {
		return res, apperrors.UpstreamFetchFailure("fetch comments", err)
	}

	enrichedUsers, enrichedPosts := Enrich(users, posts, comments)
	res.Orphans = Orphans(users, posts, comments)

	if err := replace(ctx, l.stores.Users, enrichedUsers); err != nil {
		return res, apperrors.StorageFailure("replace users", err)
	}
	res.Users = len(enrichedUsers)
	if err := replace(ctx, l.stores.Posts, enrichedPosts); err != nil {
		return res, apperrors.StorageFailure("replace posts", err)
	}
	res.Posts = len(enrichedPosts)
	if err := replace(ctx, l.stores.Comments, comments); err != nil {
		return res, apperrors.StorageFailure("replace comments", err)
	}
	res.Comments = len(comments)

	metrics.SetLoadRecords("users", res.Users)
	metrics.SetLoadRecords("posts", res.Posts)
	metrics.SetLoadRecords("comments", res.Comments)
	metrics.SetLoadOrphans("posts", res.Orphans.Posts)
	metrics.SetLoadOrphans("comments", res.Orphans.Comments)

	entry := l.log.WithContext(ctx).WithFields(logrus.Fields{
		"users":    res.Users,
		"posts":    res.Posts,
		"comments": res.Comments,
	})
	if res.Orphans.Posts > 0 || res.Orphans.Comments > 0 {
		entry.WithFields(logrus.Fields{
			"orphan_posts":    res.Orphans.Posts,
			"orphan_comments": res.Orphans.Comments,
		}).Warn("orphaned records left out of embedded views")
	}
	entry.Info("data loaded")
	return res, nil
}

func replace[T storage.Document](ctx context.Context, coll storage.Collection[T], docs []T) error {
	if coll == nil {
		return nil
	}
	if _, err := coll.DeleteAll(ctx); err != nil {
		return errors.Wrap(err, "delete all")
	}
	if len(docs) == 0 {
		return nil
	}
	return errors.Wrap(coll.InsertMany(ctx, docs), "insert")
}
