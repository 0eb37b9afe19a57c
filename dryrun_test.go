package bitfix

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const jumpPatch = `
{
	"unconditional": {
		"pattern": "74 ?? 90",
		"match": func(ctx) {
			ctx.Write(ctx.Address(), 0xEB)
		},
	},
}
`

// tinyELF builds an x86-64 executable with a single PT_LOAD segment
// holding code at 0x401000.
func tinyELF(t *testing.T, code []byte) []byte {
	t.Helper()

	const headerSize, progSize = 64, 56

	header := elf.Header64{
		Type:      uint16(elf.ET_EXEC),
		Machine:   uint16(elf.EM_X86_64),
		Version:   uint32(elf.EV_CURRENT),
		Entry:     0x401000,
		Phoff:     headerSize,
		Ehsize:    headerSize,
		Phentsize: progSize,
		Phnum:     1,
		Shentsize: 64,
	}
	copy(header.Ident[:], elf.ELFMAG)
	header.Ident[elf.EI_CLASS] = byte(elf.ELFCLASS64)
	header.Ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	header.Ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)

	prog := elf.Prog64{
		Type:   uint32(elf.PT_LOAD),
		Flags:  uint32(elf.PF_R | elf.PF_X),
		Off:    headerSize + progSize,
		Vaddr:  0x401000,
		Paddr:  0x401000,
		Filesz: uint64(len(code)),
		Memsz:  uint64(len(code)),
		Align:  0x1000,
	}

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, header); err != nil {
		t.Fatal(err)
	}
	if err := binary.Write(&buf, binary.LittleEndian, prog); err != nil {
		t.Fatal(err)
	}
	buf.Write(code)

	return buf.Bytes()
}

func TestDryRunELF(t *testing.T) {
	code := []byte{0x55, 0x48, 0x89, 0xE5, 0x74, 0x01, 0x90, 0xC3}
	file := tinyELF(t, code)

	img, err := NewFileImage("tiny", file)
	if err != nil {
		t.Fatalf("cannot map image: %s", err)
	}
	if img.Format != "elf" || img.Memory.Pages() != 1 {
		t.Fatalf("expected one elf page - got %s with %d", img.Format, img.Memory.Pages())
	}
	if img.Memory.Page(0).Address != 0x401000 {
		t.Fatalf("expected page at 401000 - got %X", img.Memory.Page(0).Address)
	}

	catalog, err := LoadCatalog([]PatchSource{{Name: "jump", Body: jumpPatch}})
	if err != nil {
		t.Fatal(err)
	}

	report, err := DryRun(img, catalog, 64)
	if err != nil {
		t.Fatalf("dry run failed: %s", err)
	}

	if len(report.Changes) != 1 {
		t.Fatalf("expected 1 change - got %v", report.Changes)
	}
	change := report.Changes[0]
	if change.Address != 0x401004 || change.Old != 0x74 || change.New != 0xEB {
		t.Fatalf("unexpected change %+v", change)
	}
	if !strings.HasPrefix(change.Instruction, "jmp") {
		t.Fatalf("expected a jmp - got %q", change.Instruction)
	}

	if got := img.Bytes()[64+56+4]; got != 0xEB {
		t.Fatalf("file buffer was not patched: %02X", got)
	}
}

func TestDryRunRaw(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "blob.bin")
	out := filepath.Join(dir, "blob.patched")

	if err := os.WriteFile(in, []byte{0x00, 0x74, 0x10, 0x90, 0x74, 0x00}, 0666); err != nil {
		t.Fatal(err)
	}

	img, err := LoadFileImage(in)
	if err != nil {
		t.Fatal(err)
	}
	if img.Format != "raw" {
		t.Fatalf("expected raw - got %s", img.Format)
	}

	catalog, err := LoadCatalog([]PatchSource{{Name: "jump", Body: jumpPatch}})
	if err != nil {
		t.Fatal(err)
	}
	report, err := DryRun(img, catalog, 0)
	if err != nil {
		t.Fatal(err)
	}
	if report.Matches != 1 || report.Changes[0].Instruction != "" {
		t.Fatalf("unexpected report %+v", report)
	}

	if err := img.Save(out); err != nil {
		t.Fatalf("save failed: %s", err)
	}
	patched, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	exp := []byte{0x00, 0xEB, 0x10, 0x90, 0x74, 0x00}
	if !bytes.Equal(patched, exp) {
		t.Fatalf("expected % X - got % X", exp, patched)
	}

	original, err := os.ReadFile(in)
	if err != nil {
		t.Fatal(err)
	}
	if original[1] != 0x74 {
		t.Fatalf("input file was modified")
	}
}

func TestNewFileImageTruncatedELF(t *testing.T) {
	file := tinyELF(t, []byte{0x90, 0x90, 0x90, 0x90})
	if _, err := NewFileImage("short", file[:len(file)-2]); err == nil {
		t.Fatalf("expected an error for a segment past the end of file")
	}
}
