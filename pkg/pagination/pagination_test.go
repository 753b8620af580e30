package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/shoptab-backend/pkg/db/dbtest"
	"github.com/angelmondragon/shoptab-backend/pkg/db/models"
	"github.com/angelmondragon/shoptab-backend/pkg/enums"
)

func TestNormalizeLimit(t *testing.T) {
	require.Equal(t, DefaultLimit, NormalizeLimit(0))
	require.Equal(t, MaxLimit, NormalizeLimit(500))
	require.Equal(t, 7, NormalizeLimit(7))
	require.Equal(t, 50, NormalizeLimitWithDefault(0, 50))
	require.Equal(t, MaxLimit, NormalizeLimitWithDefault(0, 1000))
}

func TestSplit(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]Cursor, 4)
	for i := range rows {
		rows[i] = Cursor{CreatedAt: base.Add(-time.Duration(i) * time.Minute), ID: uuid.New()}
	}
	self := func(c Cursor) Cursor { return c }

	page, next := Split(rows, 3, self)
	require.Len(t, page, 3)
	require.NotNil(t, next)
	require.Equal(t, rows[2], *next)

	page, next = Split(rows[:3], 3, self)
	require.Len(t, page, 3)
	require.Nil(t, next)
}

func TestSeekWalksPages(t *testing.T) {
	db := dbtest.New(t)
	shopID := uuid.New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, db.Create(&models.Notification{
			ID:        uuid.New(),
			EventID:   uuid.New(),
			ShopID:    &shopID,
			Type:      enums.NotificationTypeNewOrder,
			Title:     "t",
			Message:   "m",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}).Error)
	}
	key := func(n models.Notification) Cursor { return Cursor{CreatedAt: n.CreatedAt, ID: n.ID} }

	var seen []time.Time
	var cursor *Cursor
	for pages := 0; ; pages++ {
		require.Less(t, pages, 5)
		var rows []models.Notification
		require.NoError(t, Seek(db.Model(&models.Notification{}), cursor, 2).Find(&rows).Error)
		page, next := Split(rows, 2, key)
		for _, n := range page {
			seen = append(seen, n.CreatedAt)
		}
		if next == nil {
			break
		}
		cursor = next
	}
	require.Len(t, seen, 5)
	for i := 1; i < len(seen); i++ {
		require.True(t, seen[i].Before(seen[i-1]), "newest first")
	}
}

func TestCursorRoundTrip(t *testing.T) {
	in := Cursor{CreatedAt: time.Date(2026, 1, 5, 9, 30, 0, 123, time.UTC), ID: uuid.New()}
	out, err := ParseCursor(EncodeCursor(in))
	require.NoError(t, err)
	require.True(t, in.CreatedAt.Equal(out.CreatedAt))
	require.Equal(t, in.ID, out.ID)
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	cur, err := ParseCursor("")
	require.NoError(t, err)
	require.Nil(t, cur)

	_, err = ParseCursor("not-base64!!")
	require.Error(t, err)

	_, err = ParseCursor("bm8tc2VwYXJhdG9y")
	require.Error(t, err)
}
