package collect

import (
	"context"
	"log"
	"time"

	"github.com/aaryanpatil/steam-sentiment-analyzer/internal/config"
	"github.com/aaryanpatil/steam-sentiment-analyzer/internal/database"
	"github.com/aaryanpatil/steam-sentiment-analyzer/internal/steam"
)

// ReviewSource produces raw review payloads for an app. Satisfied by
// *steam.Client; tests inject fakes.
type ReviewSource interface {
	FetchReviews(ctx context.Context, appID int64, target int) []steam.RawReview
}

// Result holds the results of a collection run.
type Result struct {
	TotalFetched int
	Inserted     int
	Updated      int
	Products     map[string]int
}

// Collector pulls reviews for every configured product and upserts them into
// the store.
type Collector struct {
	db     *database.DB
	source ReviewSource
	cfg    *config.Config
}

// NewCollector creates a review collector over the configured products.
func NewCollector(cfg *config.Config, db *database.DB, source ReviewSource) *Collector {
	return &Collector{db: db, source: source, cfg: cfg}
}

// Collect fetches and persists reviews for all products, one product at a
// time. A fetch failure for one product never blocks the others, and a store
// failure for one product's batch leaves the other batches committed.
func (c *Collector) Collect(ctx context.Context) *Result {
	r := &Result{Products: make(map[string]int)}

	for _, product := range c.cfg.Products {
		log.Printf("Collecting reviews for %s (app %d)...", product.Name, product.AppID)

		raw := c.source.FetchReviews(ctx, product.AppID, c.cfg.Steam.ReviewsPerProduct)
		r.TotalFetched += len(raw)
		r.Products[product.Name] = len(raw)
		if len(raw) == 0 {
			continue
		}

		upserted, err := c.db.UpsertReviews(toRecords(product.Name, raw))
		if err != nil {
			log.Printf("Storing reviews for %s failed: %v", product.Name, err)
			continue
		}
		r.Inserted += upserted.Inserted
		r.Updated += upserted.Updated
	}

	log.Printf("Collection complete: %d fetched, %d new, %d merged", r.TotalFetched, r.Inserted, r.Updated)
	return r
}

func toRecords(productKey string, raw []steam.RawReview) []database.Review {
	records := make([]database.Review, 0, len(raw))
	for _, rr := range raw {
		var language, createdAt *string
		if rr.Language != "" {
			l := rr.Language
			language = &l
		}
		if !rr.CreatedAt.IsZero() {
			ts := rr.CreatedAt.Format(time.RFC3339)
			createdAt = &ts
		}
		records = append(records, database.Review{
			ExternalID:        rr.RecommendationID,
			ProductKey:        productKey,
			Text:              rr.Text,
			Language:          language,
			CreatedAt:         createdAt,
			VotedUp:           rr.VotedUp,
			VotesUp:           rr.VotesUp,
			WeightedVoteScore: rr.WeightedScore,
		})
	}
	return records
}
