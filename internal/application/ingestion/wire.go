package ingestion

import (
	"github.com/google/wire"

	"github.com/cellbyte/backend/internal/application/chat"
	"github.com/cellbyte/backend/internal/infrastructure/llm"
	"github.com/cellbyte/backend/internal/infrastructure/vectorstore"
)

// ProviderSet 摄取服务提供者集合
var ProviderSet = wire.NewSet(
	NewService,
	wire.Bind(new(Index), new(*vectorstore.Store)),
	wire.Bind(new(Describer), new(*llm.Client)),
	wire.Bind(new(Refresher), new(*chat.Service)),
)
