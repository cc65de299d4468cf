package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/cellbyte/backend/internal/infrastructure/config"
	"github.com/cellbyte/backend/internal/infrastructure/log"
)

// collectionName 所有数据集文档共用的集合名
const collectionName = "datasets"

// Embedder 文本向量化接口
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Document 待索引的数据集文档（一行展平后的文本）
type Document struct {
	Content  string
	Source   string
	RowIndex int
}

// Result 检索结果
type Result struct {
	Content    string
	Source     string
	Similarity float32
}

// Store 持久化向量索引
// 磁盘上最多只存在一份有效索引；删除文件时整个索引被丢弃并由保留文档重建。
// 所有写操作由互斥锁串行化，同一时间只有一个写入者。
type Store struct {
	mu      sync.RWMutex
	dir     string
	embedFn chromem.EmbeddingFunc
	db      *chromem.DB
	col     *chromem.Collection
	logger  *slog.Logger
}

// New 创建向量索引存储，存在持久化数据时自动加载
func New(embedder Embedder) (*Store, error) {
	return NewAt(config.GetVectorStoreDir(), embedder)
}

// NewAt 在指定目录创建向量索引存储
func NewAt(dir string, embedder Embedder) (*Store, error) {
	s := &Store{
		dir: dir,
		embedFn: func(ctx context.Context, text string) ([]float32, error) {
			return embedder.EmbedText(ctx, text)
		},
		logger: log.NewModuleLogger("vectorstore", "store"),
	}

	// 目录存在时加载持久化索引
	if _, err := os.Stat(dir); err == nil {
		if err := s.open(); err != nil {
			return nil, fmt.Errorf("failed to open vector store: %w", err)
		}
		s.logger.Info("Loaded persisted vector index",
			"dir", dir,
			"documents", s.col.Count(),
		)
	}

	return s, nil
}

// open 打开持久化数据库并获取集合
// 调用方需持有写锁（或在构造期间独占访问）
func (s *Store) open() error {
	db, err := chromem.NewPersistentDB(s.dir, false)
	if err != nil {
		return err
	}

	col, err := db.GetOrCreateCollection(collectionName, nil, s.embedFn)
	if err != nil {
		return err
	}

	s.db = db
	s.col = col
	return nil
}

// Exists 索引是否已存在
func (s *Store) Exists() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.col != nil && s.col.Count() > 0
}

// Count 索引中的文档数量
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.col == nil {
		return 0
	}
	return s.col.Count()
}

// Add 追加文档到索引，索引不存在时创建
func (s *Store) Add(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.col == nil {
		if err := s.open(); err != nil {
			return fmt.Errorf("failed to create vector store: %w", err)
		}
	}

	return s.addLocked(ctx, docs)
}

// addLocked 写入文档，调用方需持有写锁
func (s *Store) addLocked(ctx context.Context, docs []Document) error {
	base := s.col.Count()
	chromemDocs := make([]chromem.Document, 0, len(docs))
	for i, doc := range docs {
		chromemDocs = append(chromemDocs, chromem.Document{
			ID:      fmt.Sprintf("doc-%d", base+i),
			Content: doc.Content,
			Metadata: map[string]string{
				"source":    doc.Source,
				"row_index": strconv.Itoa(doc.RowIndex),
			},
		})
	}

	if err := s.col.AddDocuments(ctx, chromemDocs, 4); err != nil {
		return fmt.Errorf("failed to add documents to index: %w", err)
	}

	s.logger.Info("Added documents to vector index",
		"count", len(docs),
		"total", s.col.Count(),
	)
	return nil
}

// Search 相似度检索，返回至多 k 条结果
// 索引不存在时返回空结果而非错误
func (s *Store) Search(ctx context.Context, query string, k int) ([]Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.col == nil || s.col.Count() == 0 {
		return nil, nil
	}

	if k > s.col.Count() {
		k = s.col.Count()
	}

	hits, err := s.col.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		results = append(results, Result{
			Content:    hit.Content,
			Source:     hit.Metadata["source"],
			Similarity: hit.Similarity,
		})
	}
	return results, nil
}

// Rebuild 丢弃整个磁盘索引并由保留文档重建
// retained 为空时索引保持不存在状态
func (s *Store) Rebuild(ctx context.Context, retained []Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// 先整体丢弃磁盘上的旧索引，保证任何时刻至多一份有效索引
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("failed to discard vector index: %w", err)
	}
	s.db = nil
	s.col = nil

	if len(retained) == 0 {
		s.logger.Info("Vector index discarded, no documents retained")
		return nil
	}

	if err := s.open(); err != nil {
		return fmt.Errorf("failed to recreate vector store: %w", err)
	}

	if err := s.addLocked(ctx, retained); err != nil {
		return err
	}

	s.logger.Info("Vector index rebuilt",
		"documents", len(retained),
	)
	return nil
}
