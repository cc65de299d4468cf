package watcher

import "github.com/google/wire"

// ProviderSet watcher 包的依赖注入提供者集合
var ProviderSet = wire.NewSet(
	NewEventBus,
	DefaultWatchConfig,
	NewFileWatcher,
)
