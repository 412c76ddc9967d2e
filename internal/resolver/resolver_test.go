package resolver

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/catalog-next/internal/models"
	"github.com/catalog-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupResolverTest(t *testing.T) (*Resolver, repository.CodeRepository, repository.MetaRepository) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Code{}, &models.CatalogMeta{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	codeRepo := repository.NewCodeRepository(db)
	metaRepo := repository.NewMetaRepository(db)
	return New(codeRepo, metaRepo), codeRepo, metaRepo
}

func seedGroup(t *testing.T, repo repository.CodeRepository, name string, members ...string) *models.Code {
	t.Helper()
	group := &models.Code{Depth: 0, ShortCode: name, Name: name, UseYn: "Y"}
	if err := repo.Create(group); err != nil {
		t.Fatalf("create group %s failed: %v", name, err)
	}
	for i, shortCode := range members {
		member := &models.Code{ParentID: &group.ID, Depth: 1, ShortCode: shortCode, Name: name + " " + shortCode, SortOrder: i + 1, UseYn: "Y"}
		if err := repo.Create(member); err != nil {
			t.Fatalf("create member %s failed: %v", shortCode, err)
		}
	}
	return group
}

func TestResolverMemberLookup(t *testing.T) {
	r, codeRepo, _ := setupResolverTest(t)
	group := seedGroup(t, codeRepo, "Brand", "RY", "AB")

	seq, err := r.GroupSeq("Brand")
	if err != nil {
		t.Fatalf("group seq failed: %v", err)
	}
	if seq != group.ID {
		t.Fatalf("group seq = %d, want %d", seq, group.ID)
	}

	member, err := r.Member("Brand", "RY")
	if err != nil {
		t.Fatalf("member lookup failed: %v", err)
	}
	if member == nil || member.Name != "Brand RY" {
		t.Fatalf("member = %+v", member)
	}

	unknown, err := r.Member("Brand", "ZZ")
	if err != nil {
		t.Fatalf("unknown member lookup failed: %v", err)
	}
	if unknown != nil {
		t.Fatalf("unknown short code should yield nil, got %+v", unknown)
	}

	if _, err := r.Member("Nonsense", "RY"); !errors.Is(err, ErrUnknownGroup) {
		t.Fatalf("unknown group error = %v, want ErrUnknownGroup", err)
	}
}

func TestResolverMembersOfSorted(t *testing.T) {
	r, codeRepo, _ := setupResolverTest(t)
	seedGroup(t, codeRepo, "Color", "WHT", "BLK", "RED")

	members, err := r.MembersOf("Color")
	if err != nil {
		t.Fatalf("members of failed: %v", err)
	}
	want := []string{"WHT", "BLK", "RED"}
	if len(members) != len(want) {
		t.Fatalf("members = %d, want %d", len(members), len(want))
	}
	for i, shortCode := range want {
		if members[i].ShortCode != shortCode {
			t.Fatalf("position %d = %s, want %s (sort_order order)", i, members[i].ShortCode, shortCode)
		}
	}
}

func TestResolverRefreshesOnVersionBump(t *testing.T) {
	r, codeRepo, metaRepo := setupResolverTest(t)
	group := seedGroup(t, codeRepo, "Brand", "RY")

	member, err := r.Member("Brand", "AB")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if member != nil {
		t.Fatalf("AB should be unknown before insert")
	}

	// 版本号未变化时快照不刷新
	late := &models.Code{ParentID: &group.ID, Depth: 1, ShortCode: "AB", Name: "Alpha", UseYn: "Y"}
	if err := codeRepo.Create(late); err != nil {
		t.Fatalf("insert new member failed: %v", err)
	}
	member, err = r.Member("Brand", "AB")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if member != nil {
		t.Fatalf("stale snapshot should not see AB yet")
	}

	if err := metaRepo.BumpVocabularyVersion(nil); err != nil {
		t.Fatalf("bump failed: %v", err)
	}
	member, err = r.Member("Brand", "AB")
	if err != nil {
		t.Fatalf("lookup after bump failed: %v", err)
	}
	if member == nil || member.Name != "Alpha" {
		t.Fatalf("refreshed snapshot should see AB, got %+v", member)
	}

	name, ok, err := r.NameOf(late.ID)
	if err != nil || !ok || name != "Alpha" {
		t.Fatalf("NameOf = %q ok=%v err=%v", name, ok, err)
	}
}
