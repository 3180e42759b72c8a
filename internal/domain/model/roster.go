package model

import "strings"

// DefaultProgram is assumed for courses that do not name a program.
const DefaultProgram = "LC"

// Student is a cohort member.
type Student struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
	Program   string `json:"program"`
}

// Name returns the display name, "Unknown" when no first name is on file.
func (s Student) Name() string {
	first := strings.TrimSpace(s.FirstName)
	if first == "" {
		first = "Unknown"
	}
	return strings.TrimSpace(first + " " + strings.TrimSpace(s.LastName))
}

// Course is a scheduled class taught by one faculty member.
type Course struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	FacultyID    string `json:"facultyId"`
	FacultyName  string `json:"facultyName"`
	FacultyEmail string `json:"facultyEmail"`
	// Schedule is free text of the form "Monday, 14:30".
	Schedule string `json:"schedule"`
	Program  string `json:"program"`
	Module   string `json:"module,omitempty"`
}

// ProgramOrDefault returns the course program, falling back to DefaultProgram.
func (c Course) ProgramOrDefault() string {
	if p := strings.TrimSpace(c.Program); p != "" {
		return p
	}
	return DefaultProgram
}

// Enrollment links a student to a course.
type Enrollment struct {
	StudentID string `json:"studentId"`
	CourseID  string `json:"courseId"`
}

// CourseRef is the short course shape listed on the dashboard.
type CourseRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
