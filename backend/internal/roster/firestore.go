package roster

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"classledger/backend/internal/recordstore"
	"classledger/backend/internal/shared"
)

// FirestoreDirectory reads rosters from Cloud Firestore
type FirestoreDirectory struct {
	client *firestore.Client
}

// NewFirestoreDirectory creates a FirestoreDirectory over client
func NewFirestoreDirectory(client *firestore.Client) *FirestoreDirectory {
	return &FirestoreDirectory{client: client}
}

func (d *FirestoreDirectory) Section(ctx context.Context, assignCourseID string) (shared.CourseSection, error) {
	queryCtx, cancel := context.WithTimeout(ctx, recordstore.DefaultTimeout)
	defer cancel()

	snap, err := d.client.Collection(shared.CollectionAssignCourses).Doc(assignCourseID).Get(queryCtx)
	if status.Code(err) == codes.NotFound {
		return shared.CourseSection{}, ErrSectionNotFound
	}
	if err != nil {
		return shared.CourseSection{}, shared.NewStoreFailure("get", shared.CollectionAssignCourses, assignCourseID, err)
	}
	return d.sectionFromSnapshot(queryCtx, snap)
}

func (d *FirestoreDirectory) SectionsTaught(ctx context.Context, instructorID string) ([]shared.CourseSection, error) {
	queryCtx, cancel := context.WithTimeout(ctx, recordstore.DefaultTimeout)
	defer cancel()

	snaps, err := d.client.Collection(shared.CollectionAssignCourses).
		Where("instructorId", "==", instructorID).
		Documents(queryCtx).GetAll()
	if err != nil {
		return nil, shared.NewStoreFailure("find", shared.CollectionAssignCourses, instructorID, err)
	}

	sections := make([]shared.CourseSection, 0, len(snaps))
	for _, snap := range snaps {
		section, err := d.sectionFromSnapshot(queryCtx, snap)
		if err != nil {
			return nil, err
		}
		sections = append(sections, section)
	}
	sortSections(sections)
	return sections, nil
}

func (d *FirestoreDirectory) Enrolled(ctx context.Context, assignCourseID string) ([]shared.Student, error) {
	queryCtx, cancel := context.WithTimeout(ctx, recordstore.DefaultTimeout)
	defer cancel()

	snaps, err := d.client.Collection(shared.CollectionStudents).
		Where("currentCourses", "array-contains", assignCourseID).
		Documents(queryCtx).GetAll()
	if err != nil {
		return nil, shared.NewStoreFailure("find", shared.CollectionStudents, assignCourseID, err)
	}

	students := make([]shared.Student, 0, len(snaps))
	for _, snap := range snaps {
		st, err := studentFromData(snap.Ref.ID, snap.Data())
		if err != nil {
			return nil, err
		}
		students = append(students, st)
	}
	sortStudents(students)
	return students, nil
}

func (d *FirestoreDirectory) sectionFromSnapshot(ctx context.Context, snap *firestore.DocumentSnapshot) (shared.CourseSection, error) {
	var section shared.CourseSection
	if err := snap.DataTo(&section); err != nil {
		return shared.CourseSection{}, shared.MalformedDocument(shared.CollectionAssignCourses, snap.Ref.ID, "%v", err)
	}
	section.ID = snap.Ref.ID

	courseName, found, err := d.lookupName(ctx, shared.CollectionCourses, section.CourseID)
	if err != nil {
		return shared.CourseSection{}, err
	}
	section.CourseName = orUnknown(courseName, found, shared.UnknownCourse)

	className, found, err := d.lookupName(ctx, shared.CollectionClasses, section.ClassID)
	if err != nil {
		return shared.CourseSection{}, err
	}
	section.ClassName = orUnknown(className, found, shared.UnknownClass)
	return section, nil
}

func (d *FirestoreDirectory) lookupName(ctx context.Context, collection, id string) (string, bool, error) {
	if id == "" {
		return "", false, nil
	}
	snap, err := d.client.Collection(collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, shared.NewStoreFailure("get", collection, id, err)
	}
	name, _ := snap.Data()["name"].(string)
	return name, true, nil
}

// studentFromData reads a student document. A student without a name keeps
// an empty one; currentCourses must be an array of ids when present.
func studentFromData(id string, data map[string]interface{}) (shared.Student, error) {
	st := shared.Student{ID: id}
	if raw, ok := data["name"]; ok && raw != nil {
		name, err := shared.GetString(raw)
		if err != nil {
			return shared.Student{}, shared.MalformedDocument(shared.CollectionStudents, id, "name: %v", err)
		}
		st.Name = name
	}
	if raw, ok := data["currentCourses"]; ok && raw != nil {
		courses, err := shared.GetStringArray(raw)
		if err != nil {
			return shared.Student{}, shared.MalformedDocument(shared.CollectionStudents, id, "currentCourses: %v", err)
		}
		st.CurrentCourses = courses
	}
	return st, nil
}
