package chat

import (
	"github.com/google/wire"

	"github.com/cellbyte/backend/internal/application/synthesis"
	"github.com/cellbyte/backend/internal/infrastructure/llm"
	"github.com/cellbyte/backend/internal/infrastructure/vectorstore"
)

// ProviderSet chat 包的依赖注入提供者集合
var ProviderSet = wire.NewSet(
	NewService,
	wire.Bind(new(ChatClient), new(*llm.Client)),
	wire.Bind(new(Searcher), new(*vectorstore.Store)),
	wire.Bind(new(AnalyticsRunner), new(*synthesis.AnalyticsService)),
	wire.Bind(new(PlotRunner), new(*synthesis.PlotService)),
)
