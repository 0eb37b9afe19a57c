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
	"bytes"
	"debug/elf"
	"debug/pe"
	"fmt"
	"os"
)

// FileImage is an executable file mapped the way the loader would map it,
// so patches can be tried without running it. Pages alias the file buffer:
// patched bytes end up in Bytes.
type FileImage struct {
	Name   string
	Format string
	Memory *Memory

	data []byte
}

func LoadFileImage(path string) (*FileImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %q: %w", path, err)
	}
	return NewFileImage(path, data)
}

// NewFileImage maps the PT_LOAD segments of an ELF file, the sections of a
// PE file, or the whole buffer at address 0 for anything else.
func NewFileImage(name string, data []byte) (*FileImage, error) {
	img := &FileImage{
		Name:   name,
		Memory: NewVirtualMemory(),
		data:   data,
	}
	img.Memory.EnableJournal()

	var err error
	switch {
	case bytes.HasPrefix(data, []byte(elf.ELFMAG)):
		img.Format = "elf"
		err = img.mapELF()
	case bytes.HasPrefix(data, []byte("MZ")):
		img.Format = "pe"
		err = img.mapPE()
	default:
		img.Format = "raw"
		img.Memory.MapPage(0, data)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot map %q: %w", name, err)
	}

	return img, nil
}

func (img *FileImage) slice(offset, size uint64) ([]byte, error) {
	end := offset + size
	if end < offset || end > uint64(len(img.data)) {
		return nil, fmt.Errorf("range %X+%X is outside the file", offset, size)
	}
	return img.data[offset:end], nil
}

func (img *FileImage) mapELF() error {
	f, err := elf.NewFile(bytes.NewReader(img.data))
	if err != nil {
		return err
	}

	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD || prog.Filesz == 0 {
			continue
		}
		data, err := img.slice(prog.Off, prog.Filesz)
		if err != nil {
			return err
		}
		img.Memory.MapPage(uintptr(prog.Vaddr), data)
	}

	return nil
}

func (img *FileImage) mapPE() error {
	f, err := pe.NewFile(bytes.NewReader(img.data))
	if err != nil {
		return err
	}

	var base uint64
	switch header := f.OptionalHeader.(type) {
	case *pe.OptionalHeader32:
		base = uint64(header.ImageBase)
	case *pe.OptionalHeader64:
		base = header.ImageBase
	}

	for _, section := range f.Sections {
		if section.Size == 0 {
			continue
		}
		data, err := img.slice(uint64(section.Offset), uint64(section.Size))
		if err != nil {
			return err
		}
		img.Memory.MapPage(uintptr(base+uint64(section.VirtualAddress)), data)
	}

	return nil
}

// Bytes returns the file contents including every write made so far.
func (img *FileImage) Bytes() []byte {
	return img.data
}

func (img *FileImage) Save(path string) error {
	return os.WriteFile(path, img.data, 0755)
}

type Change struct {
	Address     uintptr `json:"address"`
	Old         byte    `json:"old"`
	New         byte    `json:"new"`
	Instruction string  `json:"instruction,omitempty"`
}

type DryRunReport struct {
	*Report
	Changes []Change
}

// DryRun applies catalog to img and describes every byte it changed. When
// bits is non-zero each change is annotated with the x86 instruction now
// starting at its address.
func DryRun(img *FileImage, catalog *Catalog, bits int) (*DryRunReport, error) {
	report, err := ExecPatches(img.Memory, catalog)
	if err != nil {
		return nil, err
	}

	result := &DryRunReport{Report: report}
	for _, rec := range img.Memory.Journal() {
		change := Change{Address: rec.Address, Old: rec.Old, New: rec.New}
		if bits != 0 {
			if inst, err := DescribeAt(img.Memory, rec.Address, bits); err == nil {
				change.Instruction = inst
			}
		}
		result.Changes = append(result.Changes, change)
	}

	return result, nil
}

// vim: ai:ts=8:sw=8:noet:syntax=go
