package datafile

import "github.com/google/wire"

// ProviderSet datafile 包的依赖注入提供者集合
var ProviderSet = wire.NewSet(
	NewStore,
)
