package websocket

import "github.com/google/wire"

// ProviderSet websocket 包的依赖注入提供者集合
var ProviderSet = wire.NewSet(
	NewHub,
)
