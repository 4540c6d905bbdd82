package asset_test

import (
	"errors"
	"testing"

	"github.com/Voskan/bones/asset"
)

func TestLoadPacksCompatibilityGating(t *testing.T) {
	mem := asset.NewMemoryIO()
	mem.Put(asset.AssetLoc{PackID: "core", Path: "pack.yaml"}, []byte(
		"id: core_01ARZ3NDEKTSV4RRFFQ69G5FAV\nversion: \"1.0.0\"\ngame_version: \"1.0.0\"\n"))
	mem.Put(asset.AssetLoc{PackID: "compat", Path: "pack.yaml"}, []byte(
		"id: compat_01ARZ3NDEKTSV4RRFFQ69G5FAW\nversion: \"1.2.5\"\ngame_version: \"^1.2.0\"\n"))
	mem.Put(asset.AssetLoc{PackID: "incompat", Path: "pack.yaml"}, []byte(
		"id: incompat_01ARZ3NDEKTSV4RRFFQ69G5FAX\nversion: \"2.0.0\"\ngame_version: \"^2.0.0\"\n"))

	srv, err := asset.NewServer(mem, "1.3.0")
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	loadErr := srv.LoadPacks("core")
	if loadErr == nil || !loadErr.HasOffenses() {
		t.Fatalf("LoadPacks: want an offense recorded for the incompatible pack")
	}
	if !errors.Is(loadErr, asset.ErrIncompatiblePack) {
		t.Errorf("LoadPacks error = %v, want it to wrap ErrIncompatiblePack", loadErr)
	}

	incompat, ok := srv.IncompatiblePacks["incompat"]
	if !ok {
		t.Fatalf("IncompatiblePacks: want \"incompat\" recorded")
	}
	if incompat.GameVersionReq != "^2.0.0" {
		t.Errorf("IncompatiblePacks[\"incompat\"].GameVersionReq = %q, want %q", incompat.GameVersionReq, "^2.0.0")
	}

	if _, ok := srv.IncompatiblePacks["compat"]; ok {
		t.Errorf("IncompatiblePacks: %q should be active, not incompatible", "compat")
	}
}

func TestLoadPacksCorePackAlwaysActiveRegardlessOfVersionReq(t *testing.T) {
	mem := asset.NewMemoryIO()
	mem.Put(asset.AssetLoc{PackID: "core", Path: "pack.yaml"}, []byte(
		"id: core_01ARZ3NDEKTSV4RRFFQ69G5FAV\nversion: \"1.0.0\"\ngame_version: \"^9.9.9\"\n"))

	srv, err := asset.NewServer(mem, "0.1.0")
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if loadErr := srv.LoadPacks("core"); loadErr != nil {
		t.Fatalf("LoadPacks: want no offenses for the core pack, got %v", loadErr)
	}
	if len(srv.IncompatiblePacks) != 0 {
		t.Errorf("IncompatiblePacks = %v, want empty: the core pack is exempt from the gate", srv.IncompatiblePacks)
	}
}
