package db

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/willtrnr/nai2hta/models"

	"github.com/stretchr/testify/assert"
)

func testHash(seed byte) string {
	return strings.Repeat(string([]byte{'a' + seed%6, '0' + seed%10}), 32)
}

func tagSet(tags ...models.Tag) models.TagSet {
	s := models.NewTagSet()
	for _, t := range tags {
		s.Add(t)
	}
	return s
}

func TestArchiveAddAndQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.hta.db")
	archive, err := OpenArchive(path)
	assert.NoError(t, err)
	defer archive.Close()

	hash := testHash(0)
	err = archive.AddTags(hash, tagSet(
		models.NewTag("1girl"),
		models.NewTag("solo"),
		models.NewNamespacedTag("uc", "lowres"),
		models.NewNamespacedTag("model", "full"),
	))
	assert.NoError(t, err)

	tags, err := archive.TagsForHash(hash)
	assert.NoError(t, err)
	assert.Equal(t, []string{"1girl", "model:full", "solo", "uc:lowres"}, tags)

	namespaces, err := archive.Namespaces()
	assert.NoError(t, err)
	assert.Equal(t, []string{"model", "uc"}, namespaces)

	stats, err := archive.Stats()
	assert.NoError(t, err)
	assert.Equal(t, &models.ArchiveStats{Hashes: 1, Tags: 4, Mappings: 4, Namespaces: 2}, stats)
}

func TestArchiveIdempotence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.hta.db")
	archive, err := OpenArchive(path)
	assert.NoError(t, err)
	defer archive.Close()

	hash := testHash(1)
	tags := tagSet(models.NewTag("foo"), models.NewNamespacedTag("uc", "bar"))

	assert.NoError(t, archive.AddTags(hash, tags))
	first, err := archive.Stats()
	assert.NoError(t, err)

	// 重复写入同一哈希与标签集合不改变任何行数
	assert.NoError(t, archive.AddTags(hash, tags))
	second, err := archive.Stats()
	assert.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestArchiveIdentityStability(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.hta.db")

	archive, err := OpenArchive(path)
	assert.NoError(t, err)

	hash := testHash(2)
	assert.NoError(t, archive.AddTags(hash, tagSet(models.NewTag("foo"))))
	assert.NoError(t, archive.Close())

	// 重新打开:已知哈希解析到同一身份,新增标签不产生新哈希行
	archive, err = OpenArchive(path)
	assert.NoError(t, err)
	defer archive.Close()

	assert.NoError(t, archive.AddTags(hash, tagSet(models.NewTag("bar"))))

	stats, err := archive.Stats()
	assert.NoError(t, err)
	assert.Equal(t, 1, stats.Hashes)
	assert.Equal(t, 2, stats.Tags)
	assert.Equal(t, 2, stats.Mappings)

	tags, err := archive.TagsForHash(hash)
	assert.NoError(t, err)
	assert.Equal(t, []string{"bar", "foo"}, tags)
}

func TestArchiveReopenSkipsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.hta.db")

	archive, err := OpenArchive(path)
	assert.NoError(t, err)
	assert.NoError(t, archive.AddTags(testHash(3), tagSet(models.NewTag("keep"))))
	assert.NoError(t, archive.Close())

	archive, err = OpenArchive(path)
	assert.NoError(t, err)
	defer archive.Close()

	stats, err := archive.Stats()
	assert.NoError(t, err)
	assert.Equal(t, 1, stats.Hashes)
	assert.Equal(t, 1, stats.Tags)
}

func TestArchiveSearchTags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.hta.db")
	archive, err := OpenArchive(path)
	assert.NoError(t, err)
	defer archive.Close()

	assert.NoError(t, archive.AddTags(testHash(4), tagSet(
		models.NewTag("1girl"), models.NewTag("solo"))))
	assert.NoError(t, archive.AddTags(testHash(5), tagSet(
		models.NewTag("1girl"), models.NewTag("2girls"))))

	results, err := archive.SearchTags("girl", 10)
	assert.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, "1girl", results[0].Tag)
	assert.Equal(t, 2, results[0].Count)
	assert.Equal(t, "2girls", results[1].Tag)
	assert.Equal(t, 1, results[1].Count)

	results, err = archive.SearchTags("nomatch", 10)
	assert.NoError(t, err)
	assert.Empty(t, results)
}

func TestArchiveRejectsBadHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.hta.db")
	archive, err := OpenArchive(path)
	assert.NoError(t, err)
	defer archive.Close()

	err = archive.AddTags("not hex", tagSet(models.NewTag("foo")))
	assert.Error(t, err)

	_, err = archive.TagsForHash("zz")
	assert.Error(t, err)
}
