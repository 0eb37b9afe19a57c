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
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

// MatchEvent is one occurrence of a catalog pattern. Index counts earlier
// occurrences of the same pattern in this run, across all pages.
type MatchEvent struct {
	Pattern int
	Address uintptr
	Index   int
}

type Report struct {
	Pages      int
	Matches    int
	Dispatches []MatchEvent
	Failures   []*CallbackError
}

// ExecPatches scans every page of mem for every pattern of catalog and runs
// the matching callbacks. Within a page, callbacks run in address order and
// patterns matching at the same address run in catalog order.
//
// A failing callback is logged and recorded in the report; the run goes on.
// Callbacks see the bytes written by earlier callbacks, but the scan of a
// page is done before any of its callbacks run.
func ExecPatches(mem *Memory, catalog *Catalog) (*Report, error) {
	if mem == nil {
		return nil, errors.New("cannot exec patches: no memory image")
	}
	if catalog == nil {
		return nil, errors.New("cannot exec patches: no catalog")
	}

	report := &Report{Pages: mem.Pages()}
	patterns := catalog.patterns
	seen := make([]int, len(patterns))

	for i := 0; i < mem.Pages(); i++ {
		page := mem.Page(i)
		found := ScanPatterns(patterns, page.Address, page.Data)

		var events []MatchEvent
		for pattern, addresses := range found {
			for _, address := range addresses {
				events = append(events, MatchEvent{
					Pattern: pattern,
					Address: address,
					Index:   seen[pattern],
				})
				seen[pattern]++
			}
		}
		sort.SliceStable(events, func(a, b int) bool {
			if events[a].Address != events[b].Address {
				return events[a].Address < events[b].Address
			}
			return events[a].Pattern < events[b].Pattern
		})

		Log().WithFields(logrus.Fields{
			"page":    fmt.Sprintf("%X", page.Address),
			"size":    len(page.Data),
			"matches": len(events),
		}).Debug("scanned page")

		for _, event := range events {
			report.Matches++
			report.Dispatches = append(report.Dispatches, event)

			def := catalog.defs[event.Pattern]
			err := dispatch(mem, def, event)
			if err == nil {
				continue
			}

			failure := &CallbackError{
				Source:  def.Source,
				Label:   def.Label,
				Address: event.Address,
				Err:     err,
			}
			Log().WithFields(logrus.Fields{
				"source":  def.Source,
				"label":   def.Label,
				"address": fmt.Sprintf("%X", event.Address),
			}).Errorf("patcher failed: %s", err)
			report.Failures = append(report.Failures, failure)
		}
	}

	return report, nil
}

// dispatch runs one callback under a fresh lease and revokes it afterwards.
func dispatch(mem *Memory, def *PatchDefinition, event MatchEvent) (err error) {
	ctx := newMatchContext(mem, event.Address, event.Index)

	Log().WithFields(logrus.Fields{
		"source":  def.Source,
		"label":   def.Label,
		"address": fmt.Sprintf("%X", event.Address),
		"index":   event.Index,
	}).Info("running patcher")

	defer func() {
		if r := recover(); r != nil {
			if rerr, ok := r.(error); ok {
				err = rerr
			} else {
				err = fmt.Errorf("panic: %v", r)
			}
		}
		ctx.revoke()
		if err != nil && ctx.Err() != nil {
			err = ctx.Err()
		}
	}()

	return def.Callback(ctx)
}

// vim: ai:ts=8:sw=8:noet:syntax=go
