package sqlite_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/Brandonf2022/touringbot"
	"github.com/Brandonf2022/touringbot/sqlite"
	"github.com/stretchr/testify/require"
)

// BenchmarkInsert compares one transaction per record with batched inserts,
// simulating the passages of one venue.
func BenchmarkInsert(b *testing.B) {
	const recordsPerVenue = 100

	b.Run("per_record", func(b *testing.B) {
		benchmarkInsert(b, recordsPerVenue, 1)
	})

	b.Run("batched", func(b *testing.B) {
		benchmarkInsert(b, recordsPerVenue, recordsPerVenue)
	})
}

func benchmarkInsert(b *testing.B, records, batchSize int) {
	b.Helper()

	for i := 0; i < b.N; i++ {
		b.StopTimer()

		db := sqlite.NewDB(filepath.Join(b.TempDir(), fmt.Sprintf("bench%d.db", i)))
		require.NoError(b, db.Open())
		svc := sqlite.NewRecordService(db)
		ctx := context.Background()

		var batch []*touringbot.Record
		for j := 0; j < records; j++ {
			batch = append(batch, &touringbot.Record{
				ID:        fmt.Sprintf("dark-%d-1-%d", i, j),
				PackageID: fmt.Sprintf("dark-%d", i),
				Part:      "1",
				Page:      j,
				Text:      fmt.Sprintf("Konsert %d. Lorem ipsum dolor sit amet, consectetur adipiscing elit.", j),
			})
		}

		b.StartTimer()

		for start := 0; start < len(batch); start += batchSize {
			end := min(start+batchSize, len(batch))
			if _, err := svc.InsertBatch(ctx, batch[start:end]); err != nil {
				b.Fatal(err)
			}
		}

		b.StopTimer()
		db.Close()
	}
}
