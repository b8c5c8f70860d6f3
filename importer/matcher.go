package importer

import (
	"strings"

	"github.com/taskport/taskport/models"
)

// similarityThreshold is the token-set Jaccard score at or above which two
// titles count as the same task (given matching date and category).
const similarityThreshold = 0.9

// MatchOptions tunes a duplicate search
type MatchOptions struct {
	// ScopeParentID restricts the pool to records under one parent.
	// Only consulted when Scoped is true.
	ScopeParentID string
	Scoped        bool

	// WidenBuckets also searches title buckets whose normalized key is a
	// substring (or superset) of the candidate's key. The single-shot path
	// uses this to catch near-miss title variants.
	WidenBuckets bool
}

// FindDuplicate decides whether candidate already exists in pool.
// An exact external-id match is authoritative and bypasses fuzzy logic.
// Otherwise a pool member qualifies when its title is equal or >= 0.9
// Jaccard-similar after normalization AND its due date (day granularity)
// and category agree. Among qualifiers the highest similarity wins; ties
// keep the first encountered. Returns nil when nothing qualifies.
func FindDuplicate(candidate models.ImportRecord, pool []models.ExistingTodo, opts MatchOptions) *models.ExistingTodo {
	// 1. Exact cross-system identity
	if candidate.ExternalID != "" {
		for i := range pool {
			existing := &pool[i]
			if existing.ExternalID != candidate.ExternalID {
				continue
			}
			if candidate.ExternalSource != "" && existing.ExternalSource != candidate.ExternalSource {
				continue
			}
			if opts.Scoped && existing.ParentID != opts.ScopeParentID {
				continue
			}
			return existing
		}
	}

	// 2. Fuzzy title match over a normalized-title index
	key := NormalizeTitle(candidate.Title)
	candidateTokens := Tokenize(candidate.Title)

	// Widened candidates are collected in pool order so equal-score ties
	// always resolve to the earliest pool member
	var buckets []*models.ExistingTodo
	if opts.WidenBuckets {
		for i := range pool {
			existing := &pool[i]
			if opts.Scoped && existing.ParentID != opts.ScopeParentID {
				continue
			}
			bucketKey := NormalizeTitle(existing.Title)
			if bucketKey == key ||
				(bucketKey != "" && key != "" &&
					(strings.Contains(bucketKey, key) || strings.Contains(key, bucketKey))) {
				buckets = append(buckets, existing)
			}
		}
	} else {
		buckets = buildTitleIndex(pool, opts)[key]
	}

	var best *models.ExistingTodo
	bestScore := 0.0

	for _, existing := range buckets {
		existingKey := NormalizeTitle(existing.Title)
		score := Jaccard(candidateTokens, Tokenize(existing.Title))

		exact := existingKey == key
		strongSimilar := score >= similarityThreshold
		if !exact && !strongSimilar {
			continue
		}
		if !SameDay(candidate.DueDate, existing.DueDate) {
			continue
		}
		if !SameNullable(candidate.Category, existing.Category) {
			continue
		}

		// strict > keeps the first qualifier on ties
		if score > bestScore || best == nil {
			best = existing
			bestScore = score
		}
	}

	return best
}

func buildTitleIndex(pool []models.ExistingTodo, opts MatchOptions) map[string][]*models.ExistingTodo {
	index := make(map[string][]*models.ExistingTodo, len(pool))
	for i := range pool {
		existing := &pool[i]
		if opts.Scoped && existing.ParentID != opts.ScopeParentID {
			continue
		}
		key := NormalizeTitle(existing.Title)
		index[key] = append(index[key], existing)
	}
	return index
}

// DedupKey is a record's identity within a single import batch: its
// original id when present, else normalized title + day + category.
func DedupKey(rec models.ImportRecord) string {
	if rec.OriginalID != "" {
		return "id:" + rec.OriginalID
	}
	category := ""
	if rec.Category != nil {
		category = *rec.Category
	}
	return "t:" + NormalizeTitle(rec.Title) + "|" + dayKey(rec.DueDate) + "|" + category
}
