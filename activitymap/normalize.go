package activitymap

import (
	"context"
	"maps"
	"strings"
	"time"

	"github.com/goliatone/go-invite"
)

const (
	MetadataKeyInviteeEmail = "invitee_email"
	MetadataKeyFromStatus   = "from_status"
	MetadataKeyToStatus     = "to_status"
)

// Object types emitted for normalized records.
const (
	ObjectInvitation = "invitation"
	ObjectQRCode     = "qr_code"
)

const (
	defaultChannel = "invite"
	systemActor    = "system"
)

// Normalized is a transport-agnostic activity shape for downstream systems.
type Normalized struct {
	ActorID    string         `json:"actor_id"`
	Verb       string         `json:"verb"`
	ObjectType string         `json:"object_type,omitempty"`
	ObjectID   string         `json:"object_id,omitempty"`
	Channel    string         `json:"channel,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Option customizes normalization behavior.
type Option func(*Normalized)

// WithChannel overrides the channel stamped on normalized records.
func WithChannel(channel string) Option {
	return func(n *Normalized) {
		if channel = strings.TrimSpace(channel); channel != "" {
			n.Channel = channel
		}
	}
}

// Normalize converts an invite.ActivityEvent into a Normalized record.
// Orphaned QR events point at the stored image, every other event points at
// the invitation row.
func Normalize(event invite.ActivityEvent, opts ...Option) Normalized {
	out := Normalized{
		ActorID:    strings.TrimSpace(event.ActorID),
		Verb:       string(event.EventType),
		ObjectType: ObjectInvitation,
		ObjectID:   strings.TrimSpace(event.InvitationID),
		Channel:    defaultChannel,
		Metadata:   eventMetadata(event),
		OccurredAt: event.OccurredAt,
	}

	if out.ActorID == "" {
		out.ActorID = systemActor
	}
	if out.OccurredAt.IsZero() {
		out.OccurredAt = time.Now().UTC()
	}

	if event.EventType == invite.ActivityEventQROrphaned {
		out.ObjectType = ObjectQRCode
		if url, ok := event.Metadata[invite.MetadataKeyQRCodeURL].(string); ok {
			out.ObjectID = strings.TrimSpace(url)
		}
	}

	for _, opt := range opts {
		if opt != nil {
			opt(&out)
		}
	}
	return out
}

// LogSink writes normalized activity to a logger.
type LogSink struct {
	logger invite.Logger
	opts   []Option
}

var _ invite.ActivitySink = (*LogSink)(nil)

func NewLogSink(logger invite.Logger, opts ...Option) *LogSink {
	if logger == nil {
		logger = invite.DefaultLogger()
	}
	return &LogSink{logger: logger, opts: opts}
}

func (s *LogSink) Record(_ context.Context, event invite.ActivityEvent) error {
	out := Normalize(event, s.opts...)
	s.logger.Info("activity",
		"verb", out.Verb,
		"actor_id", out.ActorID,
		"object_type", out.ObjectType,
		"object_id", out.ObjectID,
		"channel", out.Channel,
		"metadata", out.Metadata,
		"occurred_at", out.OccurredAt,
	)
	return nil
}

// eventMetadata copies the caller metadata and folds in the typed event
// fields. An invitee_email already present in the metadata wins.
func eventMetadata(event invite.ActivityEvent) map[string]any {
	md := maps.Clone(event.Metadata)
	set := func(key, value string, overwrite bool) {
		if value == "" {
			return
		}
		if md == nil {
			md = map[string]any{}
		}
		if _, exists := md[key]; exists && !overwrite {
			return
		}
		md[key] = value
	}

	set(MetadataKeyInviteeEmail, strings.TrimSpace(event.InviteeEmail), false)
	set(MetadataKeyFromStatus, string(event.FromStatus), true)
	set(MetadataKeyToStatus, string(event.ToStatus), true)

	if len(md) == 0 {
		return nil
	}
	return md
}
