package embedding

import "github.com/google/wire"

// ProviderSet embedding 包的依赖注入提供者集合
var ProviderSet = wire.NewSet(
	NewClient,
)
