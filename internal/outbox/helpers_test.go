package outbox

import (
	"io"

	"repair_backend/platform/logger"
)

func testLogger() *logger.Logger {
	return logger.NewWithWriter("test", io.Discard)
}
