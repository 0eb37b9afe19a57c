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
	"unsafe"
)

// Page is one contiguous mapped region. Data aliases the mapped bytes, it
// is never a copy, so writes through it are seen by the host immediately.
type Page struct {
	Address uintptr
	Data    []byte
}

func (p *Page) contains(address uintptr) bool {
	return address >= p.Address && address < p.End()
}

// End returns the first address past the page.
func (p *Page) End() uintptr {
	return p.Address + uintptr(len(p.Data))
}

type WriteRecord struct {
	Address uintptr
	Old     byte
	New     byte
}

// Memory is an ordered set of non-overlapping pages. It owns none of the
// bytes and must not outlive the mappings it was built from.
type Memory struct {
	pages   []*Page
	protect Protector

	journaling bool
	journal    []WriteRecord
}

func NewMemory(protect Protector) *Memory {
	if protect == nil {
		protect = NopProtector{}
	}
	return &Memory{protect: protect}
}

// NewVirtualMemory returns a Memory for pages backed by ordinary Go slices.
func NewVirtualMemory() *Memory {
	return NewMemory(NopProtector{})
}

// MapPage registers a region. Overlapping an existing page is not checked.
func (m *Memory) MapPage(address uintptr, data []byte) *Page {
	page := &Page{Address: address, Data: data}
	m.pages = append(m.pages, page)
	return page
}

// MapRegion aliases live process memory described by r.
func (m *Memory) MapRegion(r Region) *Page {
	data := unsafe.Slice((*byte)(unsafe.Pointer(r.Address)), r.Size)
	return m.MapPage(r.Address, data)
}

func (m *Memory) Pages() int {
	return len(m.pages)
}

func (m *Memory) Page(index int) *Page {
	return m.pages[index]
}

func (m *Memory) find(address uintptr) (*Page, int, error) {
	for _, page := range m.pages {
		if page.contains(address) {
			return page, int(address - page.Address), nil
		}
	}
	return nil, 0, &OutOfBoundsError{Address: address}
}

func (m *Memory) Read(address uintptr) (byte, error) {
	page, offset, err := m.find(address)
	if err != nil {
		return 0, err
	}
	return page.Data[offset], nil
}

func (m *Memory) Write(address uintptr, data byte) error {
	page, offset, err := m.find(address)
	if err != nil {
		return err
	}

	Log().Infof("writing %02X to %X", data, address)

	target := uintptr(unsafe.Pointer(&page.Data[offset]))
	state, err := m.protect.Unlock(target, 1)
	if err != nil {
		return err
	}

	old := page.Data[offset]
	page.Data[offset] = data

	if m.journaling {
		m.journal = append(m.journal, WriteRecord{Address: address, Old: old, New: data})
	}

	return m.protect.Restore(target, 1, state)
}

// EnableJournal makes every later Write append a WriteRecord.
func (m *Memory) EnableJournal() {
	m.journaling = true
}

func (m *Memory) Journal() []WriteRecord {
	return m.journal
}

// vim: ai:ts=8:sw=8:noet:syntax=go
