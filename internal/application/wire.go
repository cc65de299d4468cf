package application

import (
	"github.com/google/wire"

	"github.com/cellbyte/backend/internal/application/chat"
	"github.com/cellbyte/backend/internal/application/ingestion"
	"github.com/cellbyte/backend/internal/application/synthesis"
)

// ProviderSet Application 层总 ProviderSet
var ProviderSet = wire.NewSet(
	synthesis.ProviderSet,
	chat.ProviderSet,
	ingestion.ProviderSet,
)
