package seed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tommyjgunn-msc/student-engagement-pulse/internal/adapters/repository"
	"github.com/tommyjgunn-msc/student-engagement-pulse/pkg/logger"

	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func tempDSN(t *testing.T) string {
	return "file:" + filepath.Join(t.TempDir(), "seed.db") + "?_pragma=busy_timeout(5000)"
}

// fakeService accepts each rating id once and reports repeats as duplicates.
type fakeService struct {
	mu      sync.Mutex
	seen    map[string]bool
	healthy bool
}

func newFakeService() *fakeService { return &fakeService{seen: map[string]bool{}, healthy: true} }

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/healthz":
		if !f.healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	case "/api/ratings":
		var req ratingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RatingID == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		dup := f.seen[req.RatingID]
		f.seen[req.RatingID] = true
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		if dup {
			w.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(w).Encode(AckResponse{Status: "ok", Duplicate: true})
			return
		}
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(AckResponse{Status: "accepted"})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func TestRunAt(t *testing.T) {
	Convey("Given a sqlite database", t, func() {
		ctx := context.Background()
		cfg := &Config{Driver: "sqlite", DSN: tempDSN(t), Students: 4, Weeks: 2, Seed: 3}

		Convey("Run writes the roster and ratings directly", func() {
			stats, err := RunAt(ctx, cfg, seedNow)
			So(err, ShouldBeNil)
			So(stats.Students, ShouldEqual, 4)
			So(stats.Courses, ShouldEqual, len(courseCatalog))
			So(stats.Enrollments, ShouldEqual, 4*len(courseCatalog))
			So(stats.Periods, ShouldEqual, 1)
			So(stats.Snapshots, ShouldEqual, 4*2)
			So(stats.RatingsGenerated, ShouldEqual, 4*len(courseCatalog)*2)
			So(stats.RatingsWritten, ShouldEqual, stats.RatingsGenerated)
			So(cfg.Workers, ShouldEqual, DefaultWorkers)
			So(cfg.Timeout, ShouldEqual, DefaultTimeout)

			store, err := repository.Open(ctx, repository.DriverSQLite, cfg.DSN)
			So(err, ShouldBeNil)
			defer store.Close()
			counts, err := store.Counts(ctx)
			So(err, ShouldBeNil)
			So(counts["students"], ShouldEqual, 4)
			So(counts["courses"], ShouldEqual, len(courseCatalog))
			So(counts["ratings"], ShouldEqual, stats.RatingsGenerated)
			So(counts["metrics"], ShouldEqual, 8)
			So(counts["periods"], ShouldEqual, 1)
		})

		Convey("An unknown driver is rejected before anything is written", func() {
			cfg.Driver = "oracle"
			_, err := RunAt(ctx, cfg, seedNow)
			So(err, ShouldNotBeNil)
		})

		Convey("Invalid sizes fail generation", func() {
			cfg.Students = 0
			_, err := RunAt(ctx, cfg, seedNow)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestRunAtWithService(t *testing.T) {
	Convey("Given a running rating endpoint", t, func() {
		ctx := context.Background()
		fake := newFakeService()
		srv := httptest.NewServer(fake)
		defer srv.Close()

		cfg := &Config{
			Driver:   "sqlite",
			DSN:      tempDSN(t),
			Students: 3,
			Weeks:    2,
			Seed:     9,
			BaseURL:  srv.URL + "/",
			Workers:  3,
			Timeout:  2 * time.Second,
		}

		Convey("Ratings are posted instead of written", func() {
			stats, err := RunAt(ctx, cfg, seedNow)
			So(err, ShouldBeNil)
			So(stats.RatingsWritten, ShouldEqual, stats.RatingsGenerated)
			So(stats.RatingsDuplicate, ShouldEqual, 0)
			So(stats.RatingsFailed, ShouldEqual, 0)
			So(fake.seen, ShouldHaveLength, stats.RatingsGenerated)

			store, err := repository.Open(ctx, repository.DriverSQLite, cfg.DSN)
			So(err, ShouldBeNil)
			defer store.Close()
			counts, err := store.Counts(ctx)
			So(err, ShouldBeNil)
			So(counts["students"], ShouldEqual, 3)
			So(counts["ratings"], ShouldEqual, 0)
		})

		Convey("A second run with the same seed only sees duplicates", func() {
			_, err := RunAt(ctx, cfg, seedNow)
			So(err, ShouldBeNil)
			cfg.DSN = tempDSN(t)
			stats, err := RunAt(ctx, cfg, seedNow)
			So(err, ShouldBeNil)
			So(stats.RatingsWritten, ShouldEqual, 0)
			So(stats.RatingsDuplicate, ShouldEqual, stats.RatingsGenerated)
		})

		Convey("An unhealthy service stops the run", func() {
			fake.healthy = false
			_, err := RunAt(ctx, cfg, seedNow)
			So(err, ShouldNotBeNil)
			So(fake.seen, ShouldBeEmpty)
		})
	})
}

func TestSubmitSingleRating(t *testing.T) {
	Convey("Given a service that rejects everything", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer srv.Close()

		ds, err := NewGenerator(1).Generate(1, 1, seedNow)
		So(err, ShouldBeNil)

		client := newHTTPClient(time.Second)
		So(submitSingleRating(context.Background(), client, srv.URL+"/api/ratings", ds.Ratings[0]), ShouldEqual, resultFailed)

		stats := &Stats{}
		submitRatings(context.Background(), &Config{BaseURL: srv.URL, Workers: 2, Timeout: time.Second}, ds.Ratings, stats)
		So(stats.RatingsFailed, ShouldEqual, len(ds.Ratings))
		So(stats.RatingsWritten, ShouldEqual, 0)
	})
}
