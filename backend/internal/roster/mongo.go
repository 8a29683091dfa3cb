package roster

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"classledger/backend/internal/recordstore"
	"classledger/backend/internal/shared"
)

// MongoDirectory reads rosters from MongoDB
type MongoDirectory struct {
	assignCoursesCol *mongo.Collection
	coursesCol       *mongo.Collection
	classesCol       *mongo.Collection
	studentsCol      *mongo.Collection
}

// NewMongoDirectory creates a MongoDirectory over db
func NewMongoDirectory(db *mongo.Database) *MongoDirectory {
	return &MongoDirectory{
		assignCoursesCol: db.Collection(shared.CollectionAssignCourses),
		coursesCol:       db.Collection(shared.CollectionCourses),
		classesCol:       db.Collection(shared.CollectionClasses),
		studentsCol:      db.Collection(shared.CollectionStudents),
	}
}

func (d *MongoDirectory) Section(ctx context.Context, assignCourseID string) (shared.CourseSection, error) {
	queryCtx, cancel := context.WithTimeout(ctx, recordstore.DefaultTimeout)
	defer cancel()

	var section shared.CourseSection
	err := d.assignCoursesCol.FindOne(queryCtx, bson.M{"_id": assignCourseID}).Decode(&section)
	if err == mongo.ErrNoDocuments {
		return shared.CourseSection{}, ErrSectionNotFound
	}
	if err != nil {
		return shared.CourseSection{}, shared.NewStoreFailure("get", shared.CollectionAssignCourses, assignCourseID, err)
	}

	if err := d.resolveNames(queryCtx, &section); err != nil {
		return shared.CourseSection{}, err
	}
	return section, nil
}

func (d *MongoDirectory) SectionsTaught(ctx context.Context, instructorID string) ([]shared.CourseSection, error) {
	queryCtx, cancel := context.WithTimeout(ctx, recordstore.DefaultTimeout)
	defer cancel()

	findOptions := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := d.assignCoursesCol.Find(queryCtx, bson.M{"instructorId": instructorID}, findOptions)
	if err != nil {
		return nil, shared.NewStoreFailure("find", shared.CollectionAssignCourses, instructorID, err)
	}
	defer cursor.Close(queryCtx)

	sections := []shared.CourseSection{}
	for cursor.Next(queryCtx) {
		var section shared.CourseSection
		if err := cursor.Decode(&section); err != nil {
			return nil, shared.MalformedDocument(shared.CollectionAssignCourses, instructorID, "%v", err)
		}
		if err := d.resolveNames(queryCtx, &section); err != nil {
			return nil, err
		}
		sections = append(sections, section)
	}
	if err := cursor.Err(); err != nil {
		return nil, shared.NewStoreFailure("find", shared.CollectionAssignCourses, instructorID, err)
	}
	return sections, nil
}

func (d *MongoDirectory) Enrolled(ctx context.Context, assignCourseID string) ([]shared.Student, error) {
	queryCtx, cancel := context.WithTimeout(ctx, recordstore.DefaultTimeout)
	defer cancel()

	// matches any element of the currentCourses array
	filter := bson.M{"currentCourses": assignCourseID}
	findOptions := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := d.studentsCol.Find(queryCtx, filter, findOptions)
	if err != nil {
		return nil, shared.NewStoreFailure("find", shared.CollectionStudents, assignCourseID, err)
	}
	defer cursor.Close(queryCtx)

	students := []shared.Student{}
	if err := cursor.All(queryCtx, &students); err != nil {
		return nil, shared.NewStoreFailure("find", shared.CollectionStudents, assignCourseID, err)
	}
	return students, nil
}

func (d *MongoDirectory) resolveNames(ctx context.Context, section *shared.CourseSection) error {
	courseName, found, err := d.lookupName(ctx, d.coursesCol, section.CourseID)
	if err != nil {
		return err
	}
	section.CourseName = orUnknown(courseName, found, shared.UnknownCourse)

	className, found, err := d.lookupName(ctx, d.classesCol, section.ClassID)
	if err != nil {
		return err
	}
	section.ClassName = orUnknown(className, found, shared.UnknownClass)
	return nil
}

func (d *MongoDirectory) lookupName(ctx context.Context, col *mongo.Collection, id string) (string, bool, error) {
	if id == "" {
		return "", false, nil
	}
	var doc struct {
		Name string `bson:"name"`
	}
	err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return "", false, nil
	}
	if err != nil {
		return "", false, shared.NewStoreFailure("get", col.Name(), id, err)
	}
	return doc.Name, true, nil
}
