package db

import (
	"database/sql"
	"fmt"
	"log"
	"sync"

	"github.com/willtrnr/nai2hta/models"
	"github.com/willtrnr/nai2hta/utils"

	_ "modernc.org/sqlite"
)

// hashTypeSHA256 Hydrus Tag Archive 的 hash_type 哨兵值(SHA-256)
const hashTypeSHA256 = 2

// htaSchema Hydrus Tag Archive 兼容结构
const htaSchema = `
	PRAGMA automatic_index = OFF;
	PRAGMA encoding = 'UTF-8';
	PRAGMA page_size = 4096;

	CREATE TABLE hash_type ( hash_type INTEGER );

	CREATE TABLE hashes ( hash_id INTEGER PRIMARY KEY, hash BLOB_BYTES );
	CREATE UNIQUE INDEX hashes_hash_index ON hashes ( hash );

	CREATE TABLE mappings ( hash_id INTEGER, tag_id INTEGER, PRIMARY KEY ( hash_id, tag_id ) );
	CREATE INDEX mappings_hash_id_index ON mappings ( hash_id );

	CREATE TABLE namespaces ( namespace TEXT );

	CREATE TABLE tags ( tag_id INTEGER PRIMARY KEY, tag TEXT );
	CREATE UNIQUE INDEX tags_tag_index ON tags ( tag );

	INSERT INTO hash_type (hash_type) VALUES (2);
	`

// Archive Hydrus Tag Archive 归档:SQLite 持久层加写穿内存缓存。
// 标签与命名空间的身份缓存在内存中,全部写入经由互斥锁串行化,
// 缓存只在事务提交后并入,回滚不会污染缓存。
type Archive struct {
	path string
	conn *sql.DB

	mu         sync.Mutex
	tagIDs     map[string]int64
	namespaces map[string]struct{}
	lastHashID int64
	lastTagID  int64
}

// OpenArchive 打开或创建归档。已存在且结构正确的归档跳过建表,
// 并把命名空间集合与身份高水位载入内存。
func OpenArchive(path string) (*Archive, error) {
	// 归档是批量写入的一次性产物,MEMORY 日志模式换取写入吞吐
	dsn := path + "?_pragma=journal_mode(MEMORY)&_pragma=busy_timeout(5000)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("打开归档失败: %w", err)
	}
	// 单连接:写入已由互斥锁串行化,多连接只会带来锁竞争
	conn.SetMaxOpenConns(1)

	a := &Archive{
		path:       path,
		conn:       conn,
		tagIDs:     map[string]int64{},
		namespaces: map[string]struct{}{},
	}
	if err := a.initialize(); err != nil {
		conn.Close()
		return nil, err
	}
	if err := a.load(); err != nil {
		conn.Close()
		return nil, err
	}

	log.Printf("✅ 归档已打开: %s (标签高水位 %d, 哈希高水位 %d)", path, a.lastTagID, a.lastHashID)
	return a, nil
}

// initialize 建表(幂等):hash_type 哨兵存在且值正确即视为已初始化
func (a *Archive) initialize() error {
	var hashType int
	err := a.conn.QueryRow("SELECT hash_type FROM hash_type").Scan(&hashType)
	if err == nil && hashType == hashTypeSHA256 {
		return nil
	}
	if err == nil {
		return fmt.Errorf("归档 hash_type 不受支持: %d", hashType)
	}

	if _, err := a.conn.Exec(htaSchema); err != nil {
		return fmt.Errorf("初始化归档结构失败: %w", err)
	}
	return nil
}

// load 载入命名空间集合与身份高水位
func (a *Archive) load() error {
	rows, err := a.conn.Query("SELECT namespace FROM namespaces")
	if err != nil {
		return fmt.Errorf("载入命名空间失败: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ns string
		if err := rows.Scan(&ns); err != nil {
			return fmt.Errorf("载入命名空间失败: %w", err)
		}
		a.namespaces[ns] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("载入命名空间失败: %w", err)
	}

	if err := a.conn.QueryRow("SELECT COALESCE(MAX(hash_id), 0) FROM hashes").Scan(&a.lastHashID); err != nil {
		return fmt.Errorf("载入哈希高水位失败: %w", err)
	}
	if err := a.conn.QueryRow("SELECT COALESCE(MAX(tag_id), 0) FROM tags").Scan(&a.lastTagID); err != nil {
		return fmt.Errorf("载入标签高水位失败: %w", err)
	}
	return nil
}

// staged 一次 AddTags 事务内的缓存暂存区,提交成功后才并入 Archive
type staged struct {
	lastHashID int64
	lastTagID  int64
	tagIDs     map[string]int64
	namespaces map[string]struct{}
}

// AddTags 把一个标签集合关联到内容哈希。整个调用是一个事务:
// 要么全部标签与映射落盘,要么归档不变。重复调用幂等。
func (a *Archive) AddTags(contentHash string, tags models.TagSet) error {
	hashBytes, err := utils.DecodeHexHash(contentHash)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	tx, err := a.conn.Begin()
	if err != nil {
		return fmt.Errorf("开启事务失败: %w", err)
	}
	defer tx.Rollback()

	st := &staged{
		lastHashID: a.lastHashID,
		lastTagID:  a.lastTagID,
		tagIDs:     map[string]int64{},
		namespaces: map[string]struct{}{},
	}

	hashID, err := a.ensureHash(tx, st, hashBytes)
	if err != nil {
		return err
	}

	for _, tag := range tags {
		tagID, err := a.ensureTag(tx, st, tag)
		if err != nil {
			return err
		}
		if _, err := tx.Exec("INSERT OR IGNORE INTO mappings VALUES (?, ?)", hashID, tagID); err != nil {
			return fmt.Errorf("写入映射失败: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}

	// 提交成功,暂存区并入缓存
	a.lastHashID = st.lastHashID
	a.lastTagID = st.lastTagID
	for tag, id := range st.tagIDs {
		a.tagIDs[tag] = id
	}
	for ns := range st.namespaces {
		a.namespaces[ns] = struct{}{}
	}
	return nil
}

// ensureHash 解析或分配哈希身份,跨进程重启保持稳定
func (a *Archive) ensureHash(tx *sql.Tx, st *staged, hashBytes []byte) (int64, error) {
	var hashID int64
	err := tx.QueryRow("SELECT hash_id FROM hashes WHERE hash = ?", hashBytes).Scan(&hashID)
	if err == nil {
		return hashID, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("查询哈希失败: %w", err)
	}

	st.lastHashID++
	if _, err := tx.Exec("INSERT INTO hashes (hash_id, hash) VALUES (?, ?)", st.lastHashID, hashBytes); err != nil {
		return 0, fmt.Errorf("写入哈希失败: %w", err)
	}
	return st.lastHashID, nil
}

// ensureTag 解析或分配标签身份,首次见到的命名空间顺带落盘
func (a *Archive) ensureTag(tx *sql.Tx, st *staged, tag models.Tag) (int64, error) {
	if tag.IsNamespaced() {
		_, live := a.namespaces[tag.Namespace]
		_, pending := st.namespaces[tag.Namespace]
		if !live && !pending {
			if _, err := tx.Exec("INSERT INTO namespaces (namespace) VALUES (?)", tag.Namespace); err != nil {
				return 0, fmt.Errorf("写入命名空间失败: %w", err)
			}
			st.namespaces[tag.Namespace] = struct{}{}
		}
	}

	canonical := tag.Canonical()
	if id, ok := a.tagIDs[canonical]; ok {
		return id, nil
	}
	if id, ok := st.tagIDs[canonical]; ok {
		return id, nil
	}

	var tagID int64
	err := tx.QueryRow("SELECT tag_id FROM tags WHERE tag = ?", canonical).Scan(&tagID)
	if err == nil {
		st.tagIDs[canonical] = tagID
		return tagID, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("查询标签失败: %w", err)
	}

	st.lastTagID++
	if _, err := tx.Exec("INSERT INTO tags (tag_id, tag) VALUES (?, ?)", st.lastTagID, canonical); err != nil {
		return 0, fmt.Errorf("写入标签失败: %w", err)
	}
	st.tagIDs[canonical] = st.lastTagID
	return st.lastTagID, nil
}

// Close 关闭归档连接
func (a *Archive) Close() error {
	return a.conn.Close()
}
