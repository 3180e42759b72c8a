package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	service "github.com/tommyjgunn-msc/student-engagement-pulse/internal/app"
	"github.com/tommyjgunn-msc/student-engagement-pulse/internal/domain/model"
	"github.com/tommyjgunn-msc/student-engagement-pulse/pkg/metrics"

	. "github.com/smartystreets/goconvey/convey"
)

// 2025-03-03 is a Monday.
func mondayAt(h, m, s int) time.Time {
	return time.Date(2025, time.March, 3, h, m, s, 0, time.UTC)
}

func collectorStore(p model.AcademicPeriod) *memStore {
	m := newMemStore()
	m.periods = []model.AcademicPeriod{p}
	m.students = []model.Student{
		{ID: "s1", FirstName: "Ada", Program: "LC"},
		{ID: "s2", FirstName: "Bola", Program: "BSE"},
		{ID: "s3", FirstName: "Chi", Program: "LC"},
	}
	m.courses = []model.Course{
		{ID: "c1", Name: "Leadership", FacultyID: "f1", Schedule: "Monday, 09:00"},
		{ID: "c2", Name: "Entrepreneurship", FacultyID: "f2", Schedule: "Tuesday, 09:00"},
		{ID: "c3", Name: "Broken", FacultyID: "f3", Schedule: "whenever"},
	}
	m.enrollments = []model.Enrollment{
		{StudentID: "s1", CourseID: "c1"},
		{StudentID: "s2", CourseID: "c1"},
		{StudentID: "s3", CourseID: "c2"},
	}
	return m
}

func teachingWeek() model.AcademicPeriod {
	return model.AcademicPeriod{
		TrimesterID: 2,
		StartDate:   time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC),
		WeekNumber:  5,
		UnitNumber:  2,
	}
}

func TestRunCollectionCycle(t *testing.T) {
	Convey("Given a Monday 09:00 class in a teaching week", t, func() {
		ctx := context.Background()
		notifier := &recordingNotifier{}
		store := collectorStore(teachingWeek())
		svc := service.New(store, service.WithNotifier(notifier), service.WithLocation(time.UTC))

		Convey("When the cycle runs five minutes after the class ends", func() {
			res, err := svc.RunCollectionCycle(ctx, mondayAt(10, 35, 20))
			So(err, ShouldBeNil)

			Convey("Then one request goes out with the program roster", func() {
				So(res.Outcome, ShouldEqual, metrics.CycleFired)
				So(res.Notified, ShouldResemble, []string{"c1"})
				So(notifier.count(), ShouldEqual, 1)

				req := notifier.requests[0]
				So(req.Course.ID, ShouldEqual, "c1")
				So(req.Date, ShouldEqual, "2025-03-03")
				So(len(req.Students), ShouldEqual, 1)
				So(req.Students[0].ID, ShouldEqual, "s1")
				So(*req.Context.Week, ShouldEqual, 5)
				So(req.ScoreOptions, ShouldResemble, []int{0, 2, 4, 6, 8, 10})
				So(service.Subject(req), ShouldEqual, "Student Engagement: Leadership - Trimester 2, Week 5, Unit 2")
			})

			Convey("Then a second poll inside the window does not notify again", func() {
				again, err := svc.RunCollectionCycle(ctx, mondayAt(10, 35, 50))
				So(err, ShouldBeNil)
				So(again.Skipped, ShouldResemble, []string{"c1"})
				So(again.Outcome, ShouldEqual, metrics.CycleIdle)
				So(notifier.count(), ShouldEqual, 1)
			})
		})

		Convey("When notifying fails", func() {
			notifier.fail = errors.New("smtp down")
			res, err := svc.RunCollectionCycle(ctx, mondayAt(10, 35, 0))
			So(err, ShouldBeNil)
			So(res.Outcome, ShouldEqual, metrics.CycleFailed)
			So(res.Failed, ShouldResemble, []string{"c1"})

			Convey("Then the session is released and the next poll retries", func() {
				notifier.fail = nil
				res, err := svc.RunCollectionCycle(ctx, mondayAt(10, 36, 0))
				So(err, ShouldBeNil)
				So(res.Notified, ShouldResemble, []string{"c1"})
			})
		})

		Convey("When the cycle runs outside the window", func() {
			res, err := svc.RunCollectionCycle(ctx, mondayAt(10, 36, 1))
			So(err, ShouldBeNil)
			So(res.Outcome, ShouldEqual, metrics.CycleIdle)
			So(notifier.count(), ShouldEqual, 0)
		})

		Convey("When the date is outside the calendar", func() {
			res, err := svc.RunCollectionCycle(ctx, mondayAt(10, 35, 0).AddDate(0, 0, 7))
			So(err, ShouldBeNil)
			So(res.Outcome, ShouldEqual, metrics.CycleNotTeachingDay)
			So(res.Message, ShouldEqual, "Not a teaching day")
		})

		Convey("When the store fails", func() {
			store.failWith = errors.New("connection refused")
			res, err := svc.RunCollectionCycle(ctx, mondayAt(10, 35, 0))
			So(err, ShouldNotBeNil)
			So(res.Outcome, ShouldEqual, metrics.CycleFailed)
		})
	})

	Convey("Given a summative week", t, func() {
		p := teachingWeek()
		p.IsSummative = true
		notifier := &recordingNotifier{}
		svc := service.New(collectorStore(p), service.WithNotifier(notifier), service.WithLocation(time.UTC))

		res, err := svc.RunCollectionCycle(context.Background(), mondayAt(10, 35, 0))
		So(err, ShouldBeNil)
		So(res.Outcome, ShouldEqual, metrics.CycleBreakWeek)
		So(notifier.count(), ShouldEqual, 0)
	})

	Convey("Given a break week", t, func() {
		p := teachingWeek()
		p.IsBreak = true
		svc := service.New(collectorStore(p), service.WithLocation(time.UTC))

		res, err := svc.RunCollectionCycle(context.Background(), mondayAt(10, 35, 0))
		So(err, ShouldBeNil)
		So(res.Outcome, ShouldEqual, metrics.CycleNotTeachingDay)
	})

	Convey("Given schedules read in a different timezone", t, func() {
		lagos := time.FixedZone("WAT", 3600)
		notifier := &recordingNotifier{}
		svc := service.New(collectorStore(teachingWeek()), service.WithNotifier(notifier), service.WithLocation(lagos))

		Convey("Then the UTC instant is converted before matching", func() {
			res, err := svc.RunCollectionCycle(context.Background(), mondayAt(9, 35, 0))
			So(err, ShouldBeNil)
			So(res.Notified, ShouldResemble, []string{"c1"})
		})
	})
}

func TestRoster(t *testing.T) {
	Convey("Given a course without a program", t, func() {
		students := []model.Student{
			{ID: "s1", Program: "LC"},
			{ID: "s2", Program: ""},
			{ID: "s3", Program: "LC"},
		}
		enrollments := []model.Enrollment{
			{StudentID: "s3", CourseID: "c1"},
			{StudentID: "s1", CourseID: "c1"},
			{StudentID: "s2", CourseID: "c1"},
		}
		roster := service.Roster(model.Course{ID: "c1"}, students, enrollments)

		Convey("Then the default program is used and roster order kept", func() {
			So(len(roster), ShouldEqual, 2)
			So(roster[0].ID, ShouldEqual, "s1")
			So(roster[1].ID, ShouldEqual, "s3")
		})
	})
}

func TestStartCollector(t *testing.T) {
	Convey("Given a collector with a short interval", t, func() {
		notifier := &recordingNotifier{}
		now := mondayAt(10, 35, 0)
		svc := service.New(collectorStore(teachingWeek()),
			service.WithNotifier(notifier),
			service.WithLocation(time.UTC),
			service.WithClock(func() time.Time { return now }),
		)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			svc.StartCollector(ctx, 5*time.Millisecond)
			close(done)
		}()

		deadline := time.After(2 * time.Second)
		for notifier.count() == 0 {
			select {
			case <-deadline:
				t.Fatal("collector never fired")
			case <-time.After(5 * time.Millisecond):
			}
		}
		time.Sleep(30 * time.Millisecond)
		cancel()
		<-done

		Convey("Then repeated ticks notify the session once", func() {
			So(notifier.count(), ShouldEqual, 1)
		})
	})
}
