package postgres_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/diagnosis/inkbook/internal/domain"
	"github.com/diagnosis/inkbook/internal/repo/postgres"
	"github.com/diagnosis/inkbook/pkg/config"
	"github.com/diagnosis/inkbook/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connectTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("INKBOOK_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("set INKBOOK_TEST_DATABASE_URL to run repository tests against Postgres")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, config.DatabaseConfig{URL: url, MaxConns: 20, MinConns: 1, MaxLifetime: time.Hour})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, database.Migrate(ctx, pool))
	return pool
}

func seedArtist(t *testing.T, users *postgres.UsersRepoImpl) *domain.Artist {
	t.Helper()
	_, artist, err := users.CreateArtist(context.Background(), "artist-"+uuid.NewString()+"@example.com", "hash", "Ink")
	require.NoError(t, err)
	return artist
}

func seedClient(t *testing.T, users *postgres.UsersRepoImpl) *domain.User {
	t.Helper()
	u, err := users.Create(context.Background(), "client-"+uuid.NewString()+"@example.com", "hash", "Client", domain.RoleClient)
	require.NoError(t, err)
	return u
}

func TestReviews_ConcurrentRatingsAverageAll(t *testing.T) {
	pool := connectTestDB(t)
	ctx := context.Background()
	users := postgres.NewUsersRepo(pool)
	reviews := postgres.NewReviewsRepo(pool)
	artist := seedArtist(t, users)

	ratings := []int{1, 2, 3, 4, 5, 5, 4, 3}
	var wg sync.WaitGroup
	errs := make(chan error, len(ratings))
	for _, rating := range ratings {
		client := seedClient(t, users)
		wg.Add(1)
		go func(clientID int64, rating int) {
			defer wg.Done()
			_, err := reviews.Create(ctx, artist.ID, clientID, &domain.ReviewRequest{Rating: rating})
			errs <- err
		}(client.ID, rating)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	sum := 0
	for _, r := range ratings {
		sum += r
	}
	got, err := postgres.NewArtistsRepo(pool).FindByID(ctx, artist.ID)
	require.NoError(t, err)
	assert.InDelta(t, float64(sum)/float64(len(ratings)), got.Rating, 1e-9)
}

func TestReviews_UnknownArtist(t *testing.T) {
	pool := connectTestDB(t)
	client := seedClient(t, postgres.NewUsersRepo(pool))

	_, err := postgres.NewReviewsRepo(pool).Create(context.Background(), -1, client.ID, &domain.ReviewRequest{Rating: 5})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBook_PastSlotIsNotClaimed(t *testing.T) {
	pool := connectTestDB(t)
	ctx := context.Background()
	users := postgres.NewUsersRepo(pool)
	slots := postgres.NewSlotsRepo(pool)
	bookings := postgres.NewBookingRepo(pool)
	artist := seedArtist(t, users)
	client := seedClient(t, users)

	past := time.Now().UTC().Add(-48 * time.Hour).Truncate(time.Minute)
	slot, err := slots.Create(ctx, artist.ID, past.Format("2006-01-02"), past.Format("15:04"), past)
	require.NoError(t, err)

	_, _, err = bookings.Book(ctx, domain.BookSlotParams{SlotID: slot.ID, ClientID: client.ID})
	assert.ErrorIs(t, err, domain.ErrSlotUnavailable)

	future := time.Now().UTC().Add(72 * time.Hour).Truncate(time.Minute)
	slot, err = slots.Create(ctx, artist.ID, future.Format("2006-01-02"), future.Format("15:04"), future)
	require.NoError(t, err)

	b, claimed, err := bookings.Book(ctx, domain.BookSlotParams{SlotID: slot.ID, ClientID: client.ID})
	require.NoError(t, err)
	assert.False(t, claimed.Available)
	assert.Equal(t, domain.BookingConfirmed, b.Status)
}
