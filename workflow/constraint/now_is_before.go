package constraint

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/docuflow/docuflow/logger"
	"github.com/docuflow/docuflow/util"
)

func init() {
	register("nowIsBefore", &nowIsBefore{now: time.Now})
}

// nowIsBefore passes while the instant at the spec's dotted path is still
// in the future. A 10-character value is treated as a date at UTC
// midnight.
type nowIsBefore struct {
	now func() time.Time
}

func (c *nowIsBefore) Evaluate(spec any, item map[string]any, fail FailFunc) error {
	path, ok := spec.(string)
	if !ok || path == "" {
		return fmt.Errorf("invalid path specified: %v", spec)
	}
	value, found := util.Access(item, path)
	if !found {
		logger.Warn("no value found for constraint path",
			zap.String("path", path), zap.Any("id", item["id"]), zap.Any("tenant", item["tenant"]))
		return nil
	}
	raw, ok := value.(string)
	if !ok {
		fail("Non date value specified")
		return nil
	}
	if len(raw) == 10 {
		raw += "T00:00:00.000Z"
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		logger.Error("failed to parse constraint date value",
			zap.String("value", raw), zap.String("path", path), zap.Any("id", item["id"]))
		fail("Non date value specified")
		return nil
	}
	if !parsed.After(c.now()) {
		fail(fmt.Sprintf("Date has expired (%s)", raw))
	}
	return nil
}
