package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/persistorai/aptaudit/internal/models"
)

// questionCacheTTL bounds how long a template version's question set is served
// from memory before it is re-read.
const questionCacheTTL = 5 * time.Minute

type cachedQuestions struct {
	questions []models.Question
	fetchedAt time.Time
}

// QuestionCache memoizes question sets per template version. A miss is loaded
// through the caller's catalog reader, normally its transaction, and
// concurrent misses for the same version share that one read.
type QuestionCache struct {
	ttl   time.Duration
	cache sync.Map
	group singleflight.Group
}

// NewQuestionCache creates an empty QuestionCache.
func NewQuestionCache() *QuestionCache {
	return &QuestionCache{ttl: questionCacheTTL}
}

// Questions returns the question set of versionID, loading it from src on a
// miss. The returned slice is shared; callers must not mutate it.
func (c *QuestionCache) Questions(ctx context.Context, src Catalog, versionID int64) ([]models.Question, error) {
	if qs, ok := c.load(versionID); ok {
		return qs, nil
	}

	val, err, _ := c.group.Do(strconv.FormatInt(versionID, 10), func() (any, error) {
		if qs, ok := c.load(versionID); ok {
			return qs, nil
		}

		qs, err := src.QuestionsByTemplateVersion(ctx, versionID)
		if err != nil {
			return nil, err
		}

		c.cache.Store(versionID, cachedQuestions{questions: qs, fetchedAt: time.Now()})

		return qs, nil
	})
	if err != nil {
		return nil, err
	}

	qs, ok := val.([]models.Question)
	if !ok {
		return nil, fmt.Errorf("question cache: unexpected singleflight result type %T", val)
	}

	return qs, nil
}

func (c *QuestionCache) load(versionID int64) ([]models.Question, bool) {
	v, ok := c.cache.Load(versionID)
	if !ok {
		return nil, false
	}

	entry, valid := v.(cachedQuestions)
	if !valid || time.Since(entry.fetchedAt) >= c.ttl {
		c.cache.Delete(versionID)
		return nil, false
	}

	return entry.questions, true
}
