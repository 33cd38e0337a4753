package delivery

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/usfinancemoves/finwire/internal/db"
)

type execCall struct {
	query string
	args  []any
}

// recordingQuerier captures the statements a fan-out issues without a
// database behind it.
type recordingQuerier struct {
	execs []execCall
}

func (r *recordingQuerier) QueryRow(ctx context.Context, query string, args ...any) *db.Row {
	return &db.Row{}
}

func (r *recordingQuerier) Query(ctx context.Context, query string, args ...any) (*db.Rows, error) {
	return &db.Rows{}, nil
}

func (r *recordingQuerier) Exec(ctx context.Context, query string, args ...any) (db.CommandTag, error) {
	r.execs = append(r.execs, execCall{query: query, args: args})
	return db.CommandTag{}, nil
}

func enrichedPost() *db.Post {
	slug := "acme-agrees-takeover"
	return &db.Post{
		PostID:      7,
		Title:       "Acme agrees takeover",
		SectionSlug: "ma",
		OriginType:  "SCRAPED",
		ArticleSlug: &slug,
	}
}

// enqueue args: $1 post_id, $2 channel, $3 payload, $4 status.
func statusByChannel(t *testing.T, calls []execCall) map[string]string {
	t.Helper()
	statuses := make(map[string]string, len(calls))
	for _, call := range calls {
		if len(call.args) < 4 {
			t.Fatalf("enqueue exec has %d args, want at least 4", len(call.args))
		}
		channel, ok := call.args[1].(string)
		if !ok {
			t.Fatalf("channel arg is %T, want string", call.args[1])
		}
		status, ok := call.args[3].(string)
		if !ok {
			t.Fatalf("status arg is %T, want string", call.args[3])
		}
		statuses[channel] = status
	}
	return statuses
}

func TestEnqueueForPost_EnabledChannelsQueue(t *testing.T) {
	q := &recordingQuerier{}
	fanout := NewFanout(zerolog.Nop(), "https://example.com", true, true)

	if err := fanout.EnqueueForPost(context.Background(), q, enrichedPost()); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	statuses := statusByChannel(t, q.execs)
	if statuses[db.ChannelWeb] != db.DeliveryStatusQueued {
		t.Fatalf("web status = %q, want queued", statuses[db.ChannelWeb])
	}
	if statuses[db.ChannelSocial] != db.DeliveryStatusQueued {
		t.Fatalf("social status = %q, want queued", statuses[db.ChannelSocial])
	}
}

func TestEnqueueForPost_DisabledChannelsHold(t *testing.T) {
	q := &recordingQuerier{}
	fanout := NewFanout(zerolog.Nop(), "https://example.com", false, false)

	if err := fanout.EnqueueForPost(context.Background(), q, enrichedPost()); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	statuses := statusByChannel(t, q.execs)
	if statuses[db.ChannelWeb] != db.DeliveryStatusHeld {
		t.Fatalf("unconfigured web channel must hold, got %q", statuses[db.ChannelWeb])
	}
	if statuses[db.ChannelSocial] != db.DeliveryStatusHeld {
		t.Fatalf("disabled social channel must hold, got %q", statuses[db.ChannelSocial])
	}
}

func TestEnqueueForPost_SocialSkippedForPlainPosts(t *testing.T) {
	q := &recordingQuerier{}
	fanout := NewFanout(zerolog.Nop(), "https://example.com", true, true)

	post := &db.Post{PostID: 8, Title: "Fed minutes released", SectionSlug: "cap", OriginType: "RSS"}
	if err := fanout.EnqueueForPost(context.Background(), q, post); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if len(q.execs) != 1 {
		t.Fatalf("plain post must enqueue web only, got %d inserts", len(q.execs))
	}
	if channel := q.execs[0].args[1]; channel != db.ChannelWeb {
		t.Fatalf("single insert must target the web channel, got %v", channel)
	}
}
