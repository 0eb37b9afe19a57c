package bitfix

import (
	"testing"
	"unsafe"

	"golang.org/x/sys/unix"
)

func TestSystemProtectorReadOnlyPage(t *testing.T) {
	size := unix.Getpagesize()
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		t.Skipf("cannot mmap: %s", err)
	}
	defer unix.Munmap(data)

	address := uintptr(unsafe.Pointer(&data[0]))
	mem := NewMemory(SystemProtector())
	mem.MapPage(address, data)

	if err := mem.Write(address+10, 0x90); err != nil {
		t.Fatalf("write failed: %s", err)
	}

	b, err := mem.Read(address + 10)
	if err != nil {
		t.Fatal(err)
	}
	if b != 0x90 {
		t.Fatalf("expected 90 - got %02X", b)
	}
}

func TestPosixProtectorNotRestorable(t *testing.T) {
	size := unix.Getpagesize()
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		t.Skipf("cannot mmap: %s", err)
	}
	defer unix.Munmap(data)

	p := SystemProtector()
	state, err := p.Unlock(uintptr(unsafe.Pointer(&data[1])), 1)
	if err != nil {
		t.Fatalf("unlock failed: %s", err)
	}
	if state.Restorable() {
		t.Fatalf("posix state must not claim to be restorable")
	}
	if err := p.Restore(uintptr(unsafe.Pointer(&data[1])), 1, state); err != nil {
		t.Fatalf("restore failed: %s", err)
	}

	data[1] = 0xCC
}
