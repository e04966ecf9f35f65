package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ersonp/name-historian/internal/domain/entities"
	"github.com/ersonp/name-historian/internal/domain/mocks"
	"github.com/ersonp/name-historian/internal/domain/ports"
	"github.com/ersonp/name-historian/internal/domain/services"
)

var (
	tisID     = uuid.MustParse("f6489b79-7a9f-49e2-980e-265a05dbc3af")
	jebID     = uuid.MustParse("853c80ef-3c37-49fd-aa49-938b674adae6")
	testNow   = time.UnixMilli(1_600_000_000_000)
	renamedAt = time.UnixMilli(1438695830000)
)

func newTestService(store *mocks.HistoryStore, source ports.ChangeSource) *services.HistoryService {
	opts := []services.Option{services.WithClock(func() time.Time { return testNow })}
	if source != nil {
		opts = append(opts, services.WithChangeSource(source))
	}
	return services.NewHistoryService(store, opts...)
}

func seed(store *mocks.HistoryStore, intervals ...entities.NameInterval) {
	for _, n := range intervals {
		_ = store.RecordInterval(context.Background(), n)
	}
}
