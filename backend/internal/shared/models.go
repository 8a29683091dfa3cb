// ============================================================================
// backend/internal/shared/models.go
// Shared data models for sections, rosters and grades
// ============================================================================

package shared

// ============================================================================
// Collections
// ============================================================================

const (
	CollectionAttendances   = "attendances"
	CollectionStudentsMarks = "studentsMarks"
	CollectionStudents      = "students"
	CollectionAssignCourses = "assignCourses"
	CollectionCourses       = "courses"
	CollectionClasses       = "classes"
)

// ============================================================================
// Section & Roster Models
// ============================================================================

// CourseSection identifies one taught offering (an "assigned course")
type CourseSection struct {
	ID           string `bson:"_id" json:"assign_course_id" firestore:"-"`
	CourseID     string `bson:"courseId" json:"course_id" firestore:"courseId"`
	ClassID      string `bson:"classId" json:"class_id" firestore:"classId"`
	InstructorID string `bson:"instructorId" json:"instructor_id" firestore:"instructorId"`
	CourseName   string `bson:"-" json:"course_name"`
	ClassName    string `bson:"-" json:"class_name"`
}

// Student is a roster entry. The core never mutates it.
type Student struct {
	ID             string   `bson:"_id" json:"id" firestore:"-"`
	Name           string   `bson:"name" json:"name" firestore:"name"`
	CurrentCourses []string `bson:"currentCourses" json:"-" firestore:"currentCourses"`
}

// Fallback display names when a referenced course or class is gone
const (
	UnknownCourse = "Unknown Course"
	UnknownClass  = "Unknown Class"
)

// StudentIDs returns the ids of a roster in order
func StudentIDs(roster []Student) []string {
	ids := make([]string, 0, len(roster))
	for _, s := range roster {
		ids = append(ids, s.ID)
	}
	return ids
}

// ============================================================================
// Grade Constants
// ============================================================================

const (
	GradeAPlus  = "A+"
	GradeA      = "A"
	GradeAMinus = "A-"
	GradeBPlus  = "B+"
	GradeB      = "B"
	GradeBMinus = "B-"
	GradeCPlus  = "C+"
	GradeC      = "C"
	GradeCMinus = "C-"
	GradeDPlus  = "D+"
	GradeD      = "D"
	GradeF      = "F"
	GradeI      = "I" // Incomplete, the default until an instructor sets a grade
)

// LetterGrades lists the accepted letter grades in ordinal order
var LetterGrades = []string{
	GradeAPlus, GradeA, GradeAMinus,
	GradeBPlus, GradeB, GradeBMinus,
	GradeCPlus, GradeC, GradeCMinus,
	GradeDPlus, GradeD,
	GradeF, GradeI,
}

// IsValidGrade checks a letter grade against LetterGrades
func IsValidGrade(grade string) bool {
	for _, g := range LetterGrades {
		if g == grade {
			return true
		}
	}
	return false
}
