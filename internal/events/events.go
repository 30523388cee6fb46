// Pindrop - Photo Diary with Map-Based Browsing
// Copyright 2026 Pindrop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pindrop/pindrop

// Package events carries render-invalidation notifications between the data
// layer and connected browsers.
//
// The bus is an in-process pub/sub channel. Whenever the photo collection
// changes (upload, delete, reload) an event is published; subscribers push a
// refresh hint to their browsers, which respond with a normal state fetch.
// Events carry no photo data, only the fact that the collection moved.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/pindrop/pindrop/internal/logging"
)

// TopicPhotosChanged announces that the photo collection was replaced.
const TopicPhotosChanged = "photos.changed"

// Collection change reasons.
const (
	ReasonUpload = "upload"
	ReasonDelete = "delete"
	ReasonReload = "reload"
)

// PhotosChanged is the payload for TopicPhotosChanged.
type PhotosChanged struct {
	Reason string    `json:"reason"`
	Count  int       `json:"count"`
	At     time.Time `json:"at"`
}

// Bus is an in-process pub/sub wrapper around a Go channel transport.
type Bus struct {
	channel *gochannel.GoChannel
}

// NewBus creates the event bus.
func NewBus() *Bus {
	return &Bus{
		channel: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 64,
		}, watermill.NewSlogLogger(logging.NewSlogLogger())),
	}
}

// PublishPhotosChanged announces a collection change. Publish failures are
// logged and swallowed; a missed refresh hint degrades to a stale view until
// the next user action.
func (b *Bus) PublishPhotosChanged(reason string, count int) {
	payload, err := json.Marshal(PhotosChanged{
		Reason: reason,
		Count:  count,
		At:     time.Now().UTC(),
	})
	if err != nil {
		logging.Error().Err(err).Msg("marshal photos-changed event")
		return
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	if err := b.channel.Publish(TopicPhotosChanged, msg); err != nil {
		logging.Error().Err(err).Str("reason", reason).Msg("publish photos-changed event")
	}
}

// SubscribePhotosChanged returns a channel of collection-change events. The
// subscription ends when ctx is cancelled.
func (b *Bus) SubscribePhotosChanged(ctx context.Context) (<-chan PhotosChanged, error) {
	messages, err := b.channel.Subscribe(ctx, TopicPhotosChanged)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", TopicPhotosChanged, err)
	}

	out := make(chan PhotosChanged, 16)
	go func() {
		defer close(out)
		for msg := range messages {
			var event PhotosChanged
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				logging.Warn().Err(err).Str("message_id", msg.UUID).
					Msg("dropping malformed photos-changed event")
				msg.Ack()
				continue
			}
			msg.Ack()
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close shuts down the transport and ends all subscriptions.
func (b *Bus) Close() error {
	return b.channel.Close()
}
