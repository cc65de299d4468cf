package datafile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cellbyte/backend/internal/domain/dataset"
	"github.com/cellbyte/backend/internal/infrastructure/config"
	"github.com/cellbyte/backend/internal/infrastructure/log"
)

// Store 数据集文件存储
// 每个已摄取文件的原始字节保留在数据目录下，供删除后重建索引时重新展平
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore 创建数据集文件存储
func NewStore() (*Store, error) {
	return NewStoreAt(config.GetFilesDir())
}

// NewStoreAt 在指定目录创建数据集文件存储
func NewStoreAt(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create files directory: %w", err)
	}
	return &Store{
		dir:    dir,
		logger: log.NewModuleLogger("datafile", "store"),
	}, nil
}

// path 文件名映射到存储路径，拒绝路径穿越
func (s *Store) path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, "/\\") || name == "." || name == ".." {
		return "", fmt.Errorf("invalid file name: %q", name)
	}
	return filepath.Join(s.dir, name), nil
}

// Save 保存文件原始内容
func (s *Store) Save(name string, data []byte) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(p, data, 0644); err != nil {
		return fmt.Errorf("failed to save file %s: %w", name, err)
	}
	s.logger.Info("Saved dataset file",
		"name", name,
		"bytes", len(data),
	)
	return nil
}

// Load 读取并解析已保存的文件
func (s *Store) Load(name string) (*dataset.Frame, *FileInfo, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, nil, err
	}
	if _, err := os.Stat(p); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("dataset file %s: %w", name, os.ErrNotExist)
	}
	return ReadTabular(p)
}

// List 返回已保存的文件名，按名称排序
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list files directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Remove 删除已保存的文件，文件不存在时视为成功
func (s *Store) Remove(name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove file %s: %w", name, err)
	}
	return nil
}
