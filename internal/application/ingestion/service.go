// Package ingestion 实现文件摄取与删除：
// 解析表格文件、生成描述、写入向量索引与目录，并在删除时重建索引。
package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/cellbyte/backend/internal/domain/catalog"
	"github.com/cellbyte/backend/internal/domain/dataset"
	"github.com/cellbyte/backend/internal/domain/events"
	"github.com/cellbyte/backend/internal/infrastructure/datafile"
	"github.com/cellbyte/backend/internal/infrastructure/llm"
	"github.com/cellbyte/backend/internal/infrastructure/log"
	"github.com/cellbyte/backend/internal/infrastructure/vectorstore"
)

// sampleRowCount 目录元数据中保留的样本行数
const sampleRowCount = 3

// Describer 文件描述生成客户端
type Describer interface {
	Complete(ctx context.Context, messages []llm.Message) (string, error)
}

// Refresher 提示词状态刷新入口
type Refresher interface {
	Refresh()
}

// Index 向量索引写入接口
type Index interface {
	Add(ctx context.Context, docs []vectorstore.Document) error
	Rebuild(ctx context.Context, retained []vectorstore.Document) error
	Exists() bool
}

// IngestResult 摄取结果
type IngestResult struct {
	File        *catalog.FileMetadata `json:"file"`
	RowsIndexed int                   `json:"rows_indexed"`
}

// Service 摄取服务
type Service struct {
	files     *datafile.Store
	repo      catalog.Repository
	index     Index
	describer Describer
	bus       events.EventBus
	refresher Refresher
	logger    *slog.Logger
}

// NewService 创建摄取服务
func NewService(files *datafile.Store, repo catalog.Repository, index Index, describer Describer, bus events.EventBus, refresher Refresher) *Service {
	return &Service{
		files:     files,
		repo:      repo,
		index:     index,
		describer: describer,
		bus:       bus,
		refresher: refresher,
		logger:    log.NewModuleLogger("ingestion", "service"),
	}
}

// Ingest 摄取一个表格文件
//
// 描述生成与行向量化并发执行；描述失败不会使摄取失败，改用降级文本。
func (s *Service) Ingest(ctx context.Context, filename string, data []byte) (*IngestResult, error) {
	frame, info, err := datafile.ParseTabular(filename, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}

	if err := s.files.Save(filename, data); err != nil {
		return nil, err
	}

	docs := FrameDocuments(frame)

	var description string
	var indexErr error
	var wg conc.WaitGroup
	wg.Go(func() {
		description = s.describe(ctx, frame)
	})
	wg.Go(func() {
		indexErr = s.index.Add(ctx, docs)
	})
	wg.Wait()

	if indexErr != nil {
		return nil, fmt.Errorf("failed to index %s: %w", filename, indexErr)
	}

	meta := &catalog.FileMetadata{
		Name:        filename,
		Description: description,
		RowCount:    frame.RowCount(),
		ColumnCount: frame.ColumnCount(),
		Columns:     frame.ColumnNames(),
		FileType:    info.Type,
		Delimiter:   info.Delimiter,
		SampleRows:  frame.Head(sampleRowCount),
		IngestedAt:  time.Now(),
	}
	if err := s.repo.Upsert(meta); err != nil {
		return nil, fmt.Errorf("failed to register %s: %w", filename, err)
	}

	count, _ := s.repo.Count()
	s.bus.Publish(&events.CatalogEvent{
		EventType:      events.CatalogFileIngested,
		FileName:       filename,
		RemainingFiles: count,
		EventTime:      time.Now(),
	})
	s.refresher.Refresh()

	s.logger.Info("File ingested",
		"file", filename,
		"rows", frame.RowCount(),
		"columns", frame.ColumnCount(),
		"rows_indexed", len(docs),
	)

	return &IngestResult{File: meta, RowsIndexed: len(docs)}, nil
}

// Delete 删除一个已摄取文件
//
// 先删目录元数据（不存在返回 ErrFileNotFound，无部分效果），
// 随后丢弃整个向量索引，仅当仍有保留文件时由其文档重建。
// 返回删除后剩余的文件数。
func (s *Service) Delete(ctx context.Context, filename string) (int, error) {
	if err := s.repo.Delete(filename); err != nil {
		return 0, err
	}

	if err := s.files.Remove(filename); err != nil {
		s.logger.Warn("Failed to remove dataset file",
			"file", filename,
			"error", err,
		)
	}

	if s.index.Exists() {
		retained, err := s.retainedDocuments()
		if err != nil {
			return 0, err
		}
		if err := s.index.Rebuild(ctx, retained); err != nil {
			return 0, fmt.Errorf("failed to rebuild index after deleting %s: %w", filename, err)
		}
	}

	remaining, err := s.repo.Count()
	if err != nil {
		return 0, err
	}

	s.bus.Publish(&events.CatalogEvent{
		EventType:      events.CatalogFileDeleted,
		FileName:       filename,
		RemainingFiles: remaining,
		EventTime:      time.Now(),
	})
	s.refresher.Refresh()

	s.logger.Info("File deleted",
		"file", filename,
		"remaining_files", remaining,
	)

	return remaining, nil
}

// List 已摄取文件的元数据
func (s *Service) List() ([]*catalog.FileMetadata, error) {
	return s.repo.List()
}

// retainedDocuments 从目录中仍注册的文件重新推导全部索引文档
func (s *Service) retainedDocuments() ([]vectorstore.Document, error) {
	metas, err := s.repo.List()
	if err != nil {
		return nil, err
	}

	var docs []vectorstore.Document
	for _, meta := range metas {
		frame, _, err := s.files.Load(meta.Name)
		if err != nil {
			s.logger.Warn("Skipping unreadable file during index rebuild",
				"file", meta.Name,
				"error", err,
			)
			continue
		}
		docs = append(docs, FrameDocuments(frame)...)
	}
	return docs, nil
}

// describe 生成文件内容描述，失败时返回降级文本
func (s *Service) describe(ctx context.Context, frame *dataset.Frame) string {
	dctx := dataset.BuildContext(frame)
	prompt := fmt.Sprintf(`Describe the contents of this dataset in 1-2 sentences for a data catalog. Mention what the data appears to represent.

%s

Description:`, dctx.FormatForPrompt())

	description, err := s.describer.Complete(ctx, []llm.Message{
		{Role: "user", Content: prompt},
	})
	if err != nil {
		s.logger.Warn("Description generation failed, using fallback",
			"file", frame.Name(),
			"error", err,
		)
		return fmt.Sprintf("[Auto-generated description failed: %v] File contains %d rows and %d columns: %s",
			err, frame.RowCount(), frame.ColumnCount(), strings.Join(frame.ColumnNames(), ", "))
	}
	return strings.TrimSpace(description)
}

// FrameDocuments 将数据集的每一行展平为一个索引文档
// 格式："col: value | col: value | ..."，缺失值渲染为空
func FrameDocuments(frame *dataset.Frame) []vectorstore.Document {
	columns := frame.ColumnNames()
	records := frame.Records()

	docs := make([]vectorstore.Document, 0, len(records))
	for i, record := range records {
		parts := make([]string, len(columns))
		for c, name := range columns {
			value := ""
			if v := record[name]; v != nil {
				value = fmt.Sprint(v)
			}
			parts[c] = fmt.Sprintf("%s: %s", name, value)
		}
		docs = append(docs, vectorstore.Document{
			Content:  strings.Join(parts, " | "),
			Source:   frame.Name(),
			RowIndex: i,
		})
	}
	return docs
}
