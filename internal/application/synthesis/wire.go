package synthesis

import (
	"github.com/google/wire"

	"github.com/cellbyte/backend/internal/infrastructure/llm"
)

// ProviderSet synthesis 包的依赖注入提供者集合
var ProviderSet = wire.NewSet(
	NewLoop,
	NewAnalyticsService,
	NewPlotService,
	wire.Bind(new(CompletionClient), new(*llm.Client)),
)
