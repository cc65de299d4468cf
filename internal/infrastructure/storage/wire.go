package storage

import "github.com/google/wire"

// ProviderSet storage 包的依赖注入提供者集合
var ProviderSet = wire.NewSet(
	OpenDB,
	NewCatalogRepository,
)
