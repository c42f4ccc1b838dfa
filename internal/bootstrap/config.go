package bootstrap

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ServerPort        string        `mapstructure:"SERVER_PORT"`
	HeartbeatInterval time.Duration `mapstructure:"HEARTBEAT_INTERVAL"`
	RoomGCInterval    time.Duration `mapstructure:"ROOM_GC_INTERVAL"`
	MoveLogTTL        time.Duration `mapstructure:"MOVE_LOG_TTL"`
	RedisUrl          string        `mapstructure:"REDIS_URL"`
	MongoUri          string        `mapstructure:"MONGO_URI"`
	MongoDatabase     string        `mapstructure:"MONGO_DATABASE"`
	SearchGrpcPort    string        `mapstructure:"SEARCH_GRPC_PORT"`
	SearchAddr        string        `mapstructure:"SEARCH_ADDR"`
	ChessDepth        int           `mapstructure:"CHESS_DEPTH"`
	CheckersDepth     int           `mapstructure:"CHECKERS_DEPTH"`
	SearchMaxDepth    int           `mapstructure:"SEARCH_MAX_DEPTH"`
	SearchWorkers     int           `mapstructure:"SEARCH_WORKERS"`
	SearchSeed        int64         `mapstructure:"SEARCH_SEED"`
	RelayUrl          string        `mapstructure:"RELAY_URL"`
	RoomCode          string        `mapstructure:"ROOM_CODE"`
	GameType          string        `mapstructure:"GAME_TYPE"`
	PeerRole          string        `mapstructure:"PEER_ROLE"`
	IsLocalCors       bool          `mapstructure:"LOCAL_CORS"`
	LogDevelopment    bool          `mapstructure:"LOG_DEVELOPMENT"`
}

var defaults = map[string]any{
	"SERVER_PORT":        "3001",
	"HEARTBEAT_INTERVAL": 30 * time.Second,
	"ROOM_GC_INTERVAL":   60 * time.Second,
	"MOVE_LOG_TTL":       24 * time.Hour,
	"REDIS_URL":          "",
	"MONGO_URI":          "",
	"MONGO_DATABASE":     "boardduel",
	"SEARCH_GRPC_PORT":   "8082",
	"SEARCH_ADDR":        "",
	"CHESS_DEPTH":        3,
	"CHECKERS_DEPTH":     5,
	"SEARCH_MAX_DEPTH":   6,
	"SEARCH_WORKERS":     4,
	"SEARCH_SEED":        0,
	"RELAY_URL":          "ws://localhost:3001/ws",
	"ROOM_CODE":          "",
	"GAME_TYPE":          "checkers",
	"PEER_ROLE":          "create",
	"LOCAL_CORS":         false,
	"LOG_DEVELOPMENT":    false,
}

// Setup reads cfgPath (env format) on top of the defaults. Every key can be
// overridden from the environment. A missing file is not an error.
func Setup(cfgPath string) (*Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.SetConfigFile(cfgPath)
	v.SetConfigType("env")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
