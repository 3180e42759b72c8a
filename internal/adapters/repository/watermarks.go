package repository

import (
	"context"

	"github.com/tommyjgunn-msc/student-engagement-pulse/internal/domain/dedupe"
)

// MemoryWatermarks keeps session claims in process memory. Claims are lost on restart.
type MemoryWatermarks struct {
	seen dedupe.Deduper
}

// NewMemoryWatermarks returns an unbounded in-memory WatermarkStore.
func NewMemoryWatermarks() *MemoryWatermarks {
	return &MemoryWatermarks{seen: dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))}
}

func (m *MemoryWatermarks) Claim(ctx context.Context, courseID, date string) (bool, error) {
	return !m.seen.SeenAndRecord(ctx, watermarkKey(courseID, date)), nil
}

func (m *MemoryWatermarks) Release(ctx context.Context, courseID, date string) error {
	m.seen.Unrecord(ctx, watermarkKey(courseID, date))
	return nil
}

// Size returns the number of held claims.
func (m *MemoryWatermarks) Size() int64 { return m.seen.Size() }

func watermarkKey(courseID, date string) string {
	return courseID + "|" + date
}
