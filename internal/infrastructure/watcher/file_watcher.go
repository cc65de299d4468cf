package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/cellbyte/backend/internal/domain/events"
	"github.com/cellbyte/backend/internal/infrastructure/config"
	"github.com/cellbyte/backend/internal/infrastructure/log"
)

// WatchConfig FileWatcher 配置
type WatchConfig struct {
	// FilesDir 数据集文件目录（~/.cellbyte/files）
	FilesDir string
	// DebounceDelay 防抖延迟
	DebounceDelay time.Duration
}

// DefaultWatchConfig 返回默认配置
func DefaultWatchConfig() WatchConfig {
	return WatchConfig{
		FilesDir:      config.GetFilesDir(),
		DebounceDelay: 500 * time.Millisecond,
	}
}

// watchedExtensions 被监听的表格文件扩展名
var watchedExtensions = map[string]bool{
	".csv": true,
	".tsv": true,
	".txt": true,
}

// FileWatcher 数据集文件监听器
// 监听数据目录中表格文件的外部变更，经防抖后发布领域事件
type FileWatcher struct {
	config   WatchConfig
	eventBus events.EventBus
	watcher  *fsnotify.Watcher
	logger   *slog.Logger

	// 防抖相关
	debounceTimers map[string]*time.Timer
	debounceMu     sync.Mutex

	// 控制
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewFileWatcher 创建文件监听器
func NewFileWatcher(config WatchConfig, eventBus events.EventBus) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &FileWatcher{
		config:         config,
		eventBus:       eventBus,
		watcher:        watcher,
		logger:         log.NewModuleLogger("watcher", "file_watcher"),
		debounceTimers: make(map[string]*time.Timer),
		stopCh:         make(chan struct{}),
	}, nil
}

// Start 启动文件监听
func (fw *FileWatcher) Start() error {
	fw.logger.Info("Starting file watcher",
		"files_dir", fw.config.FilesDir,
	)

	// 确保目录存在后再加入监听
	if err := os.MkdirAll(fw.config.FilesDir, 0755); err != nil {
		return err
	}
	if err := fw.watcher.Add(fw.config.FilesDir); err != nil {
		return err
	}

	// 启动事件处理循环
	fw.wg.Add(1)
	go fw.watchLoop()

	return nil
}

// Stop 停止文件监听
func (fw *FileWatcher) Stop() {
	fw.logger.Info("Stopping file watcher")

	close(fw.stopCh)
	fw.watcher.Close()
	fw.wg.Wait()

	// 取消所有防抖定时器
	fw.debounceMu.Lock()
	for _, timer := range fw.debounceTimers {
		timer.Stop()
	}
	fw.debounceMu.Unlock()

	fw.logger.Info("File watcher stopped")
}

// watchLoop 事件监听循环
func (fw *FileWatcher) watchLoop() {
	defer fw.wg.Done()

	for {
		select {
		case <-fw.stopCh:
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleFsEvent(event)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Error("Watcher error", "error", err)
		}
	}
}

// handleFsEvent 处理文件系统事件（带防抖）
func (fw *FileWatcher) handleFsEvent(fsEvent fsnotify.Event) {
	if !fw.isDatasetFile(fsEvent.Name) {
		return
	}

	fw.debounceMu.Lock()
	defer fw.debounceMu.Unlock()

	// 取消之前的定时器
	if timer, exists := fw.debounceTimers[fsEvent.Name]; exists {
		timer.Stop()
	}

	// 创建新的防抖定时器
	fw.debounceTimers[fsEvent.Name] = time.AfterFunc(fw.config.DebounceDelay, func() {
		fw.emitDatasetFileEvent(fsEvent)

		// 清理定时器
		fw.debounceMu.Lock()
		delete(fw.debounceTimers, fsEvent.Name)
		fw.debounceMu.Unlock()
	})
}

// isDatasetFile 判断是否为表格数据文件
func (fw *FileWatcher) isDatasetFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return watchedExtensions[ext]
}

// emitDatasetFileEvent 发送数据集文件事件
func (fw *FileWatcher) emitDatasetFileEvent(fsEvent fsnotify.Event) {
	// 确定事件类型
	var eventType events.EventType
	switch {
	case fsEvent.Has(fsnotify.Create):
		eventType = events.DatasetFileCreated
	case fsEvent.Has(fsnotify.Write):
		eventType = events.DatasetFileModified
	case fsEvent.Has(fsnotify.Remove), fsEvent.Has(fsnotify.Rename):
		eventType = events.DatasetFileDeleted
	default:
		return
	}

	// 获取文件信息（文件可能已被删除）
	var modTime time.Time
	var fileSize int64
	if fileInfo, err := os.Stat(fsEvent.Name); err == nil {
		modTime = fileInfo.ModTime()
		fileSize = fileInfo.Size()
	}

	fw.eventBus.Publish(&events.DatasetFileEvent{
		EventType: eventType,
		FileName:  filepath.Base(fsEvent.Name),
		FilePath:  fsEvent.Name,
		ModTime:   modTime,
		FileSize:  fileSize,
		EventTime: time.Now(),
	})

	fw.logger.Debug("Dataset file event emitted",
		"type", eventType,
		"file", filepath.Base(fsEvent.Name),
	)
}
