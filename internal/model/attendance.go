package model

import (
	"time"

	"github.com/google/uuid"
)

// AttendanceStatus of a stored record is always present; absent is derived.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
)

// Attendance records that a student was present for an exam.
type Attendance struct {
	ID        uuid.UUID        `json:"id"`
	ExamID    uuid.UUID        `json:"exam_id"`
	StudentID uuid.UUID        `json:"student_id"`
	Status    AttendanceStatus `json:"status"`
	MarkedAt  time.Time        `json:"marked_at"`
}

// AttendanceRow is an attendance record joined with the student.
type AttendanceRow struct {
	Attendance
	StudentName  string `json:"student_name"`
	StudentEmail string `json:"student_email"`
}

// RosterEntry is one student line in an attendance report.
type RosterEntry struct {
	StudentID uuid.UUID  `json:"student_id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	MarkedAt  *time.Time `json:"marked_at,omitempty"`
}

// AttendanceReport splits the assignment list into present and absent.
type AttendanceReport struct {
	ExamID  uuid.UUID     `json:"exam_id"`
	Present []RosterEntry `json:"present"`
	Absent  []RosterEntry `json:"absent"`
}
