package lark

import (
	"context"
	"fmt"
	"time"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	"go.uber.org/zap"
)

// Config holds Lark app credentials.
type Config struct {
	AppID      string
	AppSecret  string
	ReqTimeout time.Duration
}

const defaultReqTimeout = 10 * time.Second

// NewSDK creates the Lark API client. Tenant tokens are cached by the SDK and
// its own logging goes through logger.
func NewSDK(cfg Config, logger *zap.Logger) *lark.Client {
	timeout := cfg.ReqTimeout
	if timeout <= 0 {
		timeout = defaultReqTimeout
	}
	return lark.NewClient(cfg.AppID, cfg.AppSecret,
		lark.WithLogger(NewSDKLogger(logger)),
		lark.WithLogLevel(larkcore.LogLevelInfo),
		lark.WithEnableTokenCache(true),
		lark.WithReqTimeout(timeout),
	)
}

// SDKLogger feeds the SDK's printf-style logging into zap.
type SDKLogger struct {
	logger *zap.Logger
}

var _ larkcore.Logger = (*SDKLogger)(nil)

// NewSDKLogger wraps logger for the Lark SDK.
func NewSDKLogger(logger *zap.Logger) *SDKLogger {
	return &SDKLogger{logger: logger.Named("lark-sdk").WithOptions(zap.AddCallerSkip(1))}
}

func (l *SDKLogger) Debug(ctx context.Context, args ...interface{}) {
	l.logger.Debug(fmt.Sprint(args...))
}

func (l *SDKLogger) Info(ctx context.Context, args ...interface{}) {
	l.logger.Info(fmt.Sprint(args...))
}

func (l *SDKLogger) Warn(ctx context.Context, args ...interface{}) {
	l.logger.Warn(fmt.Sprint(args...))
}

func (l *SDKLogger) Error(ctx context.Context, args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
}
