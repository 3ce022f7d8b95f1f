package dlob

import "go.uber.org/zap"

var logger = zap.NewNop().Sugar()

func SetLogger(l *zap.SugaredLogger) {
	if l == nil {
		logger = zap.NewNop().Sugar()
		return
	}
	logger = l
}
