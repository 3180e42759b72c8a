package seed

import (
	"time"

	"github.com/tommyjgunn-msc/student-engagement-pulse/internal/domain/model"
)

// Defaults for the seed command.
const (
	DefaultStudents = 10
	DefaultWeeks    = 3
	DefaultSeed     = 42
	DefaultWorkers  = 4
	DefaultTimeout  = 10 * time.Second
)

// HTTP status code constants.
const (
	StatusOK       = 200
	StatusAccepted = 202
)

const (
	daysPerWeek     = 7
	periodTailDays  = 30
	ratingTimeOfDay = "10:30:00"

	// Every declinerEvery-th student trends down instead of up.
	declinerEvery = 3

	// Score bands, inclusive low plus width.
	earlyLow      = 3
	earlyWidth    = 4
	improvingLow  = 6
	decliningLow  = 2
	lateWidth     = 3
	maxLoginsWeek = 14
	maxPostsWeek  = 8
	metricJitter  = 0.15
	percentScale  = 100
)

var firstNames = []string{"Amara", "Kofi", "Zanele", "Tendai", "Nia", "Jabari", "Imani", "Sefu", "Ayo", "Lindiwe", "Chidi", "Wanjiru"}

var lastNames = []string{"Okafor", "Mensah", "Dlamini", "Moyo", "Achieng", "Mwangi", "Abebe", "Banda", "Diallo", "Nkosi", "Kamau", "Owusu"}

// courseCatalog is the fixed set of courses every seeded student takes.
var courseCatalog = []model.Course{
	{ID: "CID", Name: "Communication & Interpersonal Development", FacultyID: "f-cid", FacultyName: "J. Ipinmoye", FacultyEmail: "cid.faculty@example.edu", Schedule: "Monday, 09:00", Program: model.DefaultProgram},
	{ID: "PRD", Name: "Personal Resilience & Development", FacultyID: "f-prd", FacultyName: "Y. Poorun", FacultyEmail: "prd.faculty@example.edu", Schedule: "Tuesday, 11:00", Program: model.DefaultProgram},
	{ID: "DDD", Name: "Data-Driven Decisions", FacultyID: "f-ddd", FacultyName: "S. Naicken", FacultyEmail: "ddd.faculty@example.edu", Schedule: "Wednesday, 14:00", Program: model.DefaultProgram},
	{ID: "ELD", Name: "Entrepreneurial Leadership", FacultyID: "f-eld", FacultyName: "F. Sarah", FacultyEmail: "eld.faculty@example.edu", Schedule: "Thursday, 10:30", Program: model.DefaultProgram},
}
