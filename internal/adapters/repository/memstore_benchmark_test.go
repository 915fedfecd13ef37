package repository

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/okian/pedbp/internal/domain/model"
)

func BenchmarkMemoryStore_Create(b *testing.B) {
	ctx := context.Background()
	store := NewMemoryStore(ctx)
	defer store.Close()
	now := time.Now()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = store.Create(ctx, model.NewJob("job-"+strconv.Itoa(i), model.JobRequest{}, now))
	}
}

func BenchmarkMemoryStore_GetParallel(b *testing.B) {
	ctx := context.Background()
	store := NewMemoryStore(ctx)
	defer store.Close()
	const jobs = 10000
	for i := range jobs {
		_ = store.Create(ctx, model.NewJob("job-"+strconv.Itoa(i), model.JobRequest{}, time.Now()))
	}

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			_, _ = store.Get(ctx, "job-"+strconv.Itoa(i%jobs))
			i++
		}
	})
}
