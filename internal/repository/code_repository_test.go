package repository

import (
	"testing"

	"github.com/catalog-next/internal/constants"
	"github.com/catalog-next/internal/models"
)

func createTestGroup(t *testing.T, repo CodeRepository, name string) *models.Code {
	t.Helper()
	group := &models.Code{Depth: 0, ShortCode: name, Name: name, UseYn: "Y"}
	if err := repo.Create(group); err != nil {
		t.Fatalf("create group %s failed: %v", name, err)
	}
	return group
}

func createTestMember(t *testing.T, repo CodeRepository, parentID uint, shortCode, name string, sort int) *models.Code {
	t.Helper()
	member := &models.Code{ParentID: &parentID, Depth: 1, ShortCode: shortCode, Name: name, SortOrder: sort, UseYn: "Y"}
	if err := repo.Create(member); err != nil {
		t.Fatalf("create member %s failed: %v", shortCode, err)
	}
	return member
}

func TestCodeGroupAndMemberLookup(t *testing.T) {
	db := setupCatalogRepositoryTest(t)
	repo := NewCodeRepository(db)

	brand := createTestGroup(t, repo, "Brand")
	createTestGroup(t, repo, "Color")
	createTestMember(t, repo, brand.ID, "RY", "Roy Brand", 1)
	createTestMember(t, repo, brand.ID, "AB", "Alpha Brand", 2)

	groups, err := repo.ListGroups()
	if err != nil {
		t.Fatalf("list groups failed: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(groups))
	}

	found, err := repo.GetGroupByName("Brand")
	if err != nil {
		t.Fatalf("get group failed: %v", err)
	}
	if found == nil || found.ID != brand.ID {
		t.Fatalf("get group returned %+v", found)
	}

	member, err := repo.GetByParentAndShortCode(brand.ID, "RY")
	if err != nil {
		t.Fatalf("get member failed: %v", err)
	}
	if member == nil || member.Name != "Roy Brand" {
		t.Fatalf("get member returned %+v", member)
	}

	missing, err := repo.GetByParentAndShortCode(brand.ID, "ZZ")
	if err != nil {
		t.Fatalf("get missing member failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("missing member should be nil, got %+v", missing)
	}
}

func TestCodeReorderRewritesSiblings(t *testing.T) {
	db := setupCatalogRepositoryTest(t)
	repo := NewCodeRepository(db)

	group := createTestGroup(t, repo, "Color")
	a := createTestMember(t, repo, group.ID, "BLK", "Black", 1)
	b := createTestMember(t, repo, group.ID, "WHT", "White", 2)
	c := createTestMember(t, repo, group.ID, "RED", "Red", 3)

	if err := repo.Reorder(group.ID, []uint{c.ID, a.ID, b.ID}); err != nil {
		t.Fatalf("reorder failed: %v", err)
	}

	members, err := repo.ListMembers(group.ID)
	if err != nil {
		t.Fatalf("list members failed: %v", err)
	}
	wantOrder := []string{"RED", "BLK", "WHT"}
	for i, member := range members {
		if member.ShortCode != wantOrder[i] {
			t.Fatalf("position %d = %s, want %s", i, member.ShortCode, wantOrder[i])
		}
	}
}

func TestCodeReorderRollsBackOnUnknownSibling(t *testing.T) {
	db := setupCatalogRepositoryTest(t)
	repo := NewCodeRepository(db)

	group := createTestGroup(t, repo, "Color")
	a := createTestMember(t, repo, group.ID, "BLK", "Black", 1)
	b := createTestMember(t, repo, group.ID, "WHT", "White", 2)

	if err := repo.Reorder(group.ID, []uint{b.ID, a.ID, 99999}); err == nil {
		t.Fatal("reorder with unknown sibling should fail")
	}

	members, err := repo.ListMembers(group.ID)
	if err != nil {
		t.Fatalf("list members failed: %v", err)
	}
	wantOrder := []string{"BLK", "WHT"}
	for i, member := range members {
		if member.ShortCode != wantOrder[i] {
			t.Fatalf("reorder not rolled back: position %d = %s", i, member.ShortCode)
		}
	}
}

func TestMetaVocabularyVersionBump(t *testing.T) {
	db := setupCatalogRepositoryTest(t)
	repo := NewMetaRepository(db)

	version, err := repo.VocabularyVersion()
	if err != nil {
		t.Fatalf("read version failed: %v", err)
	}
	if version != 0 {
		t.Fatalf("initial version = %d, want 0", version)
	}

	if err := repo.BumpVocabularyVersion(nil); err != nil {
		t.Fatalf("bump failed: %v", err)
	}
	if err := repo.BumpVocabularyVersion(nil); err != nil {
		t.Fatalf("second bump failed: %v", err)
	}

	version, err = repo.VocabularyVersion()
	if err != nil {
		t.Fatalf("read version failed: %v", err)
	}
	if version != 2 {
		t.Fatalf("version = %d, want 2", version)
	}

	// 自增基于行内当前值，外部改写后继续顺延
	if err := repo.Set(constants.MetaKeyVocabularyVersion, "41"); err != nil {
		t.Fatalf("set version failed: %v", err)
	}
	if err := repo.BumpVocabularyVersion(nil); err != nil {
		t.Fatalf("bump after set failed: %v", err)
	}
	version, err = repo.VocabularyVersion()
	if err != nil {
		t.Fatalf("read version failed: %v", err)
	}
	if version != 42 {
		t.Fatalf("version = %d, want 42", version)
	}
}
