package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/d60-Lab/tubedigest/internal/model"
)

// 首次订阅压制历史：批量 insert-or-ignore
func BenchmarkSuppressHistory(b *testing.B) {
	repo := NewVideoRepository(setupTestDB(b))
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		videos := make([]*model.Video, 15)
		for j := range videos {
			videos[j] = &model.Video{VideoID: fmt.Sprintf("b%d-%02d", i, j), ChannelID: "UCbench", Status: model.VideoStatusSkipped}
		}
		if _, err := repo.InsertManyIfAbsent(ctx, videos); err != nil {
			b.Fatal(err)
		}
	}
}

// 已压制频道再次订阅：全部命中冲突
func BenchmarkSuppressHistory_AllConflicts(b *testing.B) {
	repo := NewVideoRepository(setupTestDB(b))
	ctx := context.Background()
	videos := make([]*model.Video, 15)
	for j := range videos {
		videos[j] = &model.Video{VideoID: fmt.Sprintf("c-%02d", j), ChannelID: "UCbench", Status: model.VideoStatusSkipped}
	}
	if _, err := repo.InsertManyIfAbsent(ctx, videos); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := repo.InsertManyIfAbsent(ctx, videos); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDeliveryFanout(b *testing.B) {
	repo := NewDeliveryRepository(setupTestDB(b))
	ctx := context.Background()
	users := make([]string, 500)
	for i := range users {
		users[i] = fmt.Sprintf("u%04d", i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := repo.InsertManyIfAbsent(ctx, fmt.Sprintf("v%d", i), users); err != nil {
			b.Fatal(err)
		}
	}
}
