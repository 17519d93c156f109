package redis

import (
	"fmt"

	"github.com/mcoot/chargedblocks/internal/model"
)

// Key prefix for all registry data
const keyPrefix = "chargedblocks"

// pendingKey returns the Redis key holding the owner's armed token id
func pendingKey(owner model.PlayerID) string {
	return fmt.Sprintf("%s:confirm:%s", keyPrefix, owner)
}
