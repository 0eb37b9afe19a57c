package bitfix

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const sampleMaps = `55d0c7a00000-55d0c7a2c000 r--p 00000000 08:02 1234       /usr/bin/my game
55d0c7a2c000-55d0c7b00000 r-xp 0002c000 08:02 1234       /usr/bin/my game
garbage line
7ffd1c9e0000-7ffd1ca01000 rw-p 00000000 00:00 0          [stack]
zzzz-7ffd1ca01000 rw-p 00000000 00:00 0
7f00000000-7f00001000 ---p 00000000 00:00 0
`

func TestParseMaps(t *testing.T) {
	regions, err := parseMaps(strings.NewReader(sampleMaps))
	if err != nil {
		t.Fatalf("parse failed: %s", err)
	}

	exp := []Region{
		{Address: 0x55d0c7a00000, Size: 0x2c000, Perms: "r--p", Path: "/usr/bin/my game"},
		{Address: 0x55d0c7a2c000, Size: 0xd4000, Perms: "r-xp", Path: "/usr/bin/my game"},
		{Address: 0x7ffd1c9e0000, Size: 0x21000, Perms: "rw-p", Path: "[stack]"},
		{Address: 0x7f00000000, Size: 0x1000, Perms: "---p"},
	}
	if !reflect.DeepEqual(regions, exp) {
		t.Fatalf("expected %v - got %v", exp, regions)
	}
}

func TestReadImage(t *testing.T) {
	regions, err := ReadImage()
	if err != nil {
		if errors.Is(err, ErrAttachment) {
			t.Skipf("cannot attach in this environment: %s", err)
		}
		t.Fatalf("unexpected error type: %s", err)
	}

	exe, err := os.Executable()
	if err != nil {
		t.Fatal(err)
	}
	exe, _ = filepath.EvalSymlinks(exe)

	for _, region := range regions {
		if region.Path != exe {
			t.Fatalf("region %s does not belong to %s", region, exe)
		}
		if !strings.HasPrefix(region.Perms, "r") {
			t.Fatalf("region %s is not readable", region)
		}
	}

	// the code of this function lives in one of the mapped regions
	fn := reflect.ValueOf(TestReadImage).Pointer()
	mem := NewVirtualMemory()
	for _, region := range regions {
		mem.MapRegion(region)
	}
	if _, err := mem.Read(fn); err != nil {
		t.Fatalf("text at %X is not mapped: %s", fn, err)
	}
}
