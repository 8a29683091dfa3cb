package roster

import (
	"log"

	"classledger/backend/internal/recordstore"
)

// ForConn picks the directory matching an opened record store. Drivers that
// cannot query (redis, memory) serve the fixture at rosterFile instead.
func ForConn(conn *recordstore.Conn, rosterFile string) (Directory, error) {
	switch {
	case conn.Mongo != nil:
		return NewMongoDirectory(conn.Mongo), nil
	case conn.Firestore != nil:
		return NewFirestoreDirectory(conn.Firestore), nil
	}

	if rosterFile == "" {
		log.Printf("WARN: No ROSTER_FILE set for the %s driver, roster is empty", conn.Driver)
		return NewMemoryDirectory(nil), nil
	}
	f, err := LoadFixture(rosterFile)
	if err != nil {
		return nil, err
	}
	log.Printf("INFO: Loaded roster from %s (%d sections, %d students)", rosterFile, len(f.Sections), len(f.Students))
	return NewMemoryDirectory(f), nil
}
