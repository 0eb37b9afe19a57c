/**
 * Copyright 2024 kmeaw
 *
 * Licensed under the GNU Affero General Public License (AGPL).
 *
 * This program is free software: you can redistribute it and/or modify it
 * under the terms of the GNU Affero General Public License as published by the
 * Free Software Foundation, version 3 of the License.
 *
 * This program is distributed in the hope that it will be useful, but WITHOUT
 * ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
 * FITNESS FOR A PARTICULAR PURPOSE.  See the GNU Affero General Public License
 * for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */
package bitfix

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type LogEvent struct {
	Time    time.Time              `json:"time"`
	Level   string                 `json:"level"`
	Message string                 `json:"message"`
	Fields  map[string]interface{} `json:"fields,omitempty"`
}

// Broadcaster hands the latest log event to every subscriber. A slow
// subscriber misses events instead of blocking the logger.
type Broadcaster struct {
	lastEvent *LogEvent
	mu        *sync.Mutex
	cv        *sync.Cond
}

func NewBroadcaster() *Broadcaster {
	b := &Broadcaster{}
	b.mu = new(sync.Mutex)
	b.cv = sync.NewCond(b.mu)
	return b
}

func (b *Broadcaster) Broadcast(event LogEvent) {
	b.mu.Lock()
	b.lastEvent = &event
	b.mu.Unlock()

	b.cv.Broadcast()
}

// Subscribe returns a channel of events broadcast after the call. The
// channel is closed when ctx is done or when the reader stops taking events
// for a second.
func (b *Broadcaster) Subscribe(ctx context.Context) <-chan LogEvent {
	b.mu.Lock()
	last_event := b.lastEvent
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			// wake the waiter below
			b.mu.Lock()
			b.cv.Broadcast()
			b.mu.Unlock()
		case <-done:
		}
	}()

	ch := make(chan LogEvent)
	go func(ch chan LogEvent) {
		defer close(ch)
		defer close(done)

		for {
			b.mu.Lock()
			var event *LogEvent
			for ctx.Err() == nil {
				event = b.lastEvent
				if event != nil && event != last_event {
					break
				}
				b.cv.Wait()
			}
			b.mu.Unlock()
			if ctx.Err() != nil {
				return
			}

			last_event = event
			t := time.NewTimer(time.Second)
			select {
			case <-t.C:
				// timed out
				t.Stop()
				return
			case <-ctx.Done():
				t.Stop()
				return
			case ch <- *event:
				// done
			}
			t.Stop()
		}
	}(ch)
	return ch
}

// Hook returns a logrus hook feeding b.
func (b *Broadcaster) Hook() logrus.Hook {
	return broadcastHook{b}
}

type broadcastHook struct {
	b *Broadcaster
}

func (broadcastHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h broadcastHook) Fire(entry *logrus.Entry) error {
	event := LogEvent{
		Time:    entry.Time,
		Level:   entry.Level.String(),
		Message: entry.Message,
	}
	if len(entry.Data) > 0 {
		event.Fields = make(map[string]interface{}, len(entry.Data))
		for k, v := range entry.Data {
			event.Fields[k] = v
		}
	}
	h.b.Broadcast(event)
	return nil
}

// vim: ai:ts=8:sw=8:noet:syntax=go
