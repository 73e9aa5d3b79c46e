package persistence

import (
	"fmt"

	"go.uber.org/zap"
)

// NewGateway creates a persistence gateway for the configured backend.
func NewGateway(config Config, logger *zap.Logger) (Gateway, error) {
	switch config.Type {
	case GatewayTypeMemory, "":
		return NewMemoryGateway(logger), nil
	case GatewayTypeFile:
		return NewFileGateway(config, logger)
	case GatewayTypeRedis:
		return NewRedisGateway(config, logger)
	case GatewayTypeMongo:
		return NewMongoGateway(config, logger)
	case GatewayTypeSQLite:
		return NewSQLiteGateway(config, logger)
	default:
		return nil, fmt.Errorf("unsupported gateway type: %s", config.Type)
	}
}
