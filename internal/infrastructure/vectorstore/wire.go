package vectorstore

import (
	"github.com/google/wire"

	"github.com/cellbyte/backend/internal/infrastructure/embedding"
)

// ProviderSet vectorstore 包的依赖注入提供者集合
var ProviderSet = wire.NewSet(
	New,
	wire.Bind(new(Embedder), new(*embedding.Client)),
)
