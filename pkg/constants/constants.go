package constants

type ContextKey string

const (
	LoggerKey    ContextKey = "logger"
	TxKey        ContextKey = "tx"
	PoolKey      ContextKey = "pool"
	ParamsKey    ContextKey = "params"
	RequestIDKey ContextKey = "request_id"
	AppKey       ContextKey = "app"
)
