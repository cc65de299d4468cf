package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cellbyte/backend/internal/domain/catalog"
)

// catalogRepository 文件元数据 SQLite 仓储实现
type catalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository 创建文件元数据仓储实例
func NewCatalogRepository(db *sql.DB) catalog.Repository {
	// 确保表存在
	if err := initFilesTable(db); err != nil {
		// 初始化失败时记录错误但不阻止创建
		fmt.Printf("failed to init files table: %v\n", err)
	}
	return &catalogRepository{db: db}
}

// initFilesTable 初始化文件元数据表
func initFilesTable(db *sql.DB) error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS files (
		name TEXT PRIMARY KEY,
		description TEXT NOT NULL,
		row_count INTEGER NOT NULL,
		column_count INTEGER NOT NULL,
		columns TEXT NOT NULL,
		file_type TEXT,
		delimiter TEXT,
		sample_rows TEXT,
		ingested_at INTEGER NOT NULL
	);`

	if _, err := db.Exec(createTableSQL); err != nil {
		return fmt.Errorf("failed to create files table: %w", err)
	}

	// 创建索引
	createIndexSQL := `
	CREATE INDEX IF NOT EXISTS idx_files_ingested_at ON files(ingested_at);`

	if _, err := db.Exec(createIndexSQL); err != nil {
		return fmt.Errorf("failed to create files indexes: %w", err)
	}

	return nil
}

// Upsert 新增或覆盖同名元数据
func (r *catalogRepository) Upsert(meta *catalog.FileMetadata) error {
	columnsJSON, err := json.Marshal(meta.Columns)
	if err != nil {
		return fmt.Errorf("failed to marshal columns: %w", err)
	}

	sampleRowsJSON, err := json.Marshal(meta.SampleRows)
	if err != nil {
		return fmt.Errorf("failed to marshal sample rows: %w", err)
	}

	// 使用 INSERT OR REPLACE 实现 upsert
	query := `
		INSERT OR REPLACE INTO files
		(name, description, row_count, column_count, columns, file_type, delimiter, sample_rows, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.Exec(query,
		meta.Name,
		meta.Description,
		meta.RowCount,
		meta.ColumnCount,
		string(columnsJSON),
		meta.FileType,
		meta.Delimiter,
		string(sampleRowsJSON),
		meta.IngestedAt.UnixMilli(),
	)

	if err != nil {
		return fmt.Errorf("failed to save file metadata: %w", err)
	}

	return nil
}

// Get 按名称查询文件元数据
func (r *catalogRepository) Get(name string) (*catalog.FileMetadata, error) {
	query := `
		SELECT name, description, row_count, column_count, columns, file_type, delimiter, sample_rows, ingested_at
		FROM files
		WHERE name = ?`

	meta, err := r.scanRow(r.db.QueryRow(query, name))
	if err == sql.ErrNoRows {
		return nil, catalog.ErrFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query file metadata: %w", err)
	}

	return meta, nil
}

// List 按摄取时间顺序返回全部文件元数据
func (r *catalogRepository) List() ([]*catalog.FileMetadata, error) {
	query := `
		SELECT name, description, row_count, column_count, columns, file_type, delimiter, sample_rows, ingested_at
		FROM files
		ORDER BY ingested_at ASC, name ASC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query file metadata: %w", err)
	}
	defer rows.Close()

	var metas []*catalog.FileMetadata
	for rows.Next() {
		meta, err := r.scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan file metadata: %w", err)
		}
		metas = append(metas, meta)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate file metadata: %w", err)
	}

	return metas, nil
}

// Delete 删除文件元数据，不存在返回 ErrFileNotFound
func (r *catalogRepository) Delete(name string) error {
	result, err := r.db.Exec(`DELETE FROM files WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete file metadata: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if affected == 0 {
		return catalog.ErrFileNotFound
	}

	return nil
}

// Count 当前注册的文件数
func (r *catalogRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM files`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count files: %w", err)
	}
	return count, nil
}

// rowScanner 兼容 *sql.Row 和 *sql.Rows 的扫描接口
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRow 扫描单行文件元数据
func (r *catalogRepository) scanRow(row rowScanner) (*catalog.FileMetadata, error) {
	var meta catalog.FileMetadata
	var columnsJSON string
	var fileType, delimiter, sampleRowsJSON sql.NullString
	var ingestedAt int64

	err := row.Scan(
		&meta.Name,
		&meta.Description,
		&meta.RowCount,
		&meta.ColumnCount,
		&columnsJSON,
		&fileType,
		&delimiter,
		&sampleRowsJSON,
		&ingestedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(columnsJSON), &meta.Columns); err != nil {
		return nil, fmt.Errorf("failed to unmarshal columns: %w", err)
	}
	if sampleRowsJSON.Valid && sampleRowsJSON.String != "" && sampleRowsJSON.String != "null" {
		if err := json.Unmarshal([]byte(sampleRowsJSON.String), &meta.SampleRows); err != nil {
			return nil, fmt.Errorf("failed to unmarshal sample rows: %w", err)
		}
	}

	meta.FileType = fileType.String
	meta.Delimiter = delimiter.String
	meta.IngestedAt = time.UnixMilli(ingestedAt)

	return &meta, nil
}
