package infrastructure

import (
	"github.com/google/wire"

	"github.com/cellbyte/backend/internal/infrastructure/config"
	"github.com/cellbyte/backend/internal/infrastructure/datafile"
	"github.com/cellbyte/backend/internal/infrastructure/embedding"
	"github.com/cellbyte/backend/internal/infrastructure/llm"
	"github.com/cellbyte/backend/internal/infrastructure/storage"
	"github.com/cellbyte/backend/internal/infrastructure/vectorstore"
	"github.com/cellbyte/backend/internal/infrastructure/watcher"
	"github.com/cellbyte/backend/internal/infrastructure/websocket"
)

// ProviderSet Infrastructure 层总 ProviderSet
var ProviderSet = wire.NewSet(
	config.ProviderSet,
	storage.ProviderSet,
	datafile.ProviderSet,
	llm.ProviderSet,
	embedding.ProviderSet,
	vectorstore.ProviderSet,
	websocket.ProviderSet,
	watcher.ProviderSet,
)
