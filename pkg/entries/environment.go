package entries

import (
	"github.com/rs/zerolog/log"
	"github.com/travigo/vvs/pkg/database"
)

// StoreFromEnvironment connects to MongoDB when configured and falls back to
// an in memory store otherwise
func StoreFromEnvironment() (Store, error) {
	if !database.Configured() {
		log.Warn().Msg("VVS_MONGODB_CONNECTION not set, config entries will not be persisted")
		return NewMemoryStore(), nil
	}

	if err := database.Connect(); err != nil {
		return nil, err
	}

	return NewMongoStore(), nil
}
