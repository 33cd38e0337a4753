package delivery

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/usfinancemoves/finwire/internal/db"
)

// Fanout enqueues the delivery obligations a freshly inserted post creates.
// Enqueueing is idempotent per (post, channel); calling it twice for the same
// post is harmless.
type Fanout struct {
	logger        zerolog.Logger
	siteBaseURL   string
	webEnabled    bool
	socialEnabled bool
}

func NewFanout(logger zerolog.Logger, siteBaseURL string, webEnabled, socialEnabled bool) *Fanout {
	return &Fanout{
		logger:        logger,
		siteBaseURL:   siteBaseURL,
		webEnabled:    webEnabled,
		socialEnabled: socialEnabled,
	}
}

// EnqueueForPost creates the web delivery for every post and, when the post
// qualifies, the social one. A disabled channel's deliveries are enqueued
// held, never queued: a queued row for a channel with no client would only
// burn attempts to a terminal failure. Held rows can be released later
// without re-ingesting. The Querier lets callers run the enqueue inside the
// transaction that inserted the post.
func (f *Fanout) EnqueueForPost(ctx context.Context, q db.Querier, post *db.Post) error {
	webPayload, err := BuildWebPayload(post.SectionSlug)
	if err != nil {
		return fmt.Errorf("build web payload: %w", err)
	}
	webStatus := f.channelStatus(f.webEnabled)
	if _, err := db.EnqueueDelivery(ctx, q, post.PostID, db.ChannelWeb, webPayload, webStatus); err != nil {
		return fmt.Errorf("enqueue web delivery: %w", err)
	}

	if !QualifiesForSocial(post) {
		return nil
	}
	socialPayload, err := BuildSocialPayload(post, f.siteBaseURL)
	if err != nil {
		return fmt.Errorf("build social payload: %w", err)
	}
	socialStatus := f.channelStatus(f.socialEnabled)
	inserted, err := db.EnqueueDelivery(ctx, q, post.PostID, db.ChannelSocial, socialPayload, socialStatus)
	if err != nil {
		return fmt.Errorf("enqueue social delivery: %w", err)
	}
	if inserted && socialStatus == db.DeliveryStatusHeld {
		f.logger.Debug().Int64("post_id", post.PostID).Msg("social delivery held, posting disabled")
	}
	return nil
}

func (f *Fanout) channelStatus(enabled bool) string {
	if enabled {
		return db.DeliveryStatusQueued
	}
	return db.DeliveryStatusHeld
}
